package report

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/lumenops/logsleuth/internal/models"
)

func record(n int) models.LogRecord {
	return models.LogRecord{
		Timestamp: fmt.Sprintf("2024-05-01T12:00:%02dZ", n),
		Severity:  "Error",
		Service:   "checkout",
		Status:    503,
		Method:    "GET",
		URL:       "https://svc/x",
		Text:      fmt.Sprintf("line %d", n),
	}
}

func TestFormatBlockEmpty(t *testing.T) {
	if got := FormatBlock(nil, 10, 100, false); got != emptyPlaceholder {
		t.Errorf("empty block = %q, want placeholder", got)
	}
}

func TestFormatBlockNumbersAndFence(t *testing.T) {
	block := FormatBlock([]models.LogRecord{record(1), record(2)}, 10, 10000, false)

	if !strings.HasPrefix(block, "```\n") || !strings.HasSuffix(block, "\n```") {
		t.Errorf("block not fenced:\n%s", block)
	}
	if !strings.Contains(block, "01 2024-05-01T12:00:01Z Error svc=checkout status=503 method=GET url=https://svc/x\nline 1") {
		t.Errorf("missing first record header:\n%s", block)
	}
	if !strings.Contains(block, "02 ") {
		t.Errorf("missing second record number:\n%s", block)
	}
}

func TestFormatBlockLineCap(t *testing.T) {
	records := []models.LogRecord{record(1), record(2), record(3)}
	block := FormatBlock(records, 2, 10000, false)
	if strings.Contains(block, "line 3") {
		t.Errorf("line cap not applied:\n%s", block)
	}
	if !strings.Contains(block, "line 1") || !strings.Contains(block, "line 2") {
		t.Errorf("kept lines missing:\n%s", block)
	}
}

func TestFormatBlockChronologicalReverses(t *testing.T) {
	// Records arrive newest first; chronological puts oldest first.
	records := []models.LogRecord{record(3), record(2), record(1)}
	block := FormatBlock(records, 10, 10000, true)
	first := strings.Index(block, "line 1")
	last := strings.Index(block, "line 3")
	if first < 0 || last < 0 || first > last {
		t.Errorf("records not in chronological order:\n%s", block)
	}
}

func TestTruncateExactLength(t *testing.T) {
	blob := strings.Repeat("a", 100)
	got := truncate(blob, 40)
	if len(got) != 40+len(truncationMarker) {
		t.Errorf("truncated length = %d, want %d", len(got), 40+len(truncationMarker))
	}
	if !strings.HasSuffix(got, truncationMarker) {
		t.Errorf("marker missing: %q", got)
	}
	if got := truncate(blob, 100); got != blob {
		t.Errorf("blob at limit should be untouched")
	}
}

func TestBuildBody(t *testing.T) {
	body := BuildBody(BodyParams{
		Handle: "codex",
		Window: models.TimeWindow{
			Start: time.Date(2024, 5, 1, 11, 55, 0, 0, time.UTC),
			End:   time.Date(2024, 5, 1, 12, 5, 0, 0, time.UTC),
		},
		HalfWidth:    5 * time.Minute,
		Services:     []string{"checkout", "logsleuth"},
		RequestBlock: emptyPlaceholder,
		ErrorBlock:   "```\n01 err\n```",
		RawPayload:   `{"incident":{}}`,
	})

	for _, want := range []string{
		"Paging @codex",
		"`2024-05-01T11:55:00Z – 2024-05-01T12:05:00Z` (±5m)",
		"`checkout, logsleuth`",
		"**Request anomalies:**",
		emptyPlaceholder,
		"**Container errors:**",
		"<details>",
		`{"incident":{}}`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}
}

func TestBuildBodyCapsRawPayload(t *testing.T) {
	body := BuildBody(BodyParams{
		Handle:       "codex",
		RequestBlock: emptyPlaceholder,
		ErrorBlock:   emptyPlaceholder,
		RawPayload:   strings.Repeat("x", rawPayloadCap+500),
	})
	if !strings.Contains(body, truncationMarker) {
		t.Error("oversized raw payload should be truncated")
	}
	if strings.Contains(body, strings.Repeat("x", rawPayloadCap+1)) {
		t.Error("raw payload exceeded cap")
	}
}
