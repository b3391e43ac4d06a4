// Package report renders bounded markdown summaries of log findings.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/lumenops/logsleuth/internal/models"
)

const (
	truncationMarker = "\n…(truncated)…"
	emptyPlaceholder = "_No logs in window._"
	rawPayloadCap    = 6000
)

// FormatBlock renders records as a fenced code block. The line cap applies
// first, then the character cap on the resulting text. With chronological
// set, the newest maxLines records are shown oldest first; otherwise they
// stay newest first as fetched.
func FormatBlock(records []models.LogRecord, maxLines, maxChars int, chronological bool) string {
	if len(records) == 0 {
		return emptyPlaceholder
	}

	if maxLines > 0 && len(records) > maxLines {
		records = records[:maxLines]
	}
	if chronological {
		reversed := make([]models.LogRecord, len(records))
		for i, r := range records {
			reversed[len(records)-1-i] = r
		}
		records = reversed
	}

	lines := make([]string, 0, len(records))
	for i, r := range records {
		lines = append(lines, formatRecord(i+1, r))
	}
	blob := truncate(strings.Join(lines, "\n\n"), maxChars)
	return "```\n" + blob + "\n```"
}

func formatRecord(n int, r models.LogRecord) string {
	status := ""
	if r.Status != 0 {
		status = fmt.Sprintf("%d", r.Status)
	}
	return fmt.Sprintf("%02d %s %s svc=%s status=%s method=%s url=%s\n%s",
		n, r.Timestamp, r.Severity, r.Service, status, r.Method, r.URL, r.Text)
}

func truncate(blob string, maxChars int) string {
	if maxChars <= 0 || len(blob) <= maxChars {
		return blob
	}
	return blob[:maxChars] + truncationMarker
}

// BodyParams carries everything BuildBody needs to assemble the comment.
type BodyParams struct {
	Handle       string
	Window       models.TimeWindow
	HalfWidth    time.Duration
	Services     []string
	RequestBlock string
	ErrorBlock   string
	RawPayload   string
}

// BuildBody assembles the full comment body posted to the ticketing system.
func BuildBody(p BodyParams) string {
	var b strings.Builder

	services := strings.Join(p.Services, ", ")
	if services == "" {
		services = "unknown"
	}

	fmt.Fprintf(&b, "Paging @%s — unusual HTTP statuses or errors detected\n\n", p.Handle)
	fmt.Fprintf(&b, "**Window:** `%s – %s` (±%dm)\n",
		p.Window.Start.UTC().Format(time.RFC3339),
		p.Window.End.UTC().Format(time.RFC3339),
		int(p.HalfWidth.Minutes()))
	fmt.Fprintf(&b, "**Services seen:** `%s`\n\n", services)

	b.WriteString("**Request anomalies:**\n")
	b.WriteString(p.RequestBlock)
	b.WriteString("\n\n**Container errors:**\n")
	b.WriteString(p.ErrorBlock)

	if p.RawPayload != "" {
		raw := p.RawPayload
		if len(raw) > rawPayloadCap {
			raw = raw[:rawPayloadCap] + truncationMarker
		}
		b.WriteString("\n\n<details><summary>Raw webhook payload</summary>\n\n```json\n")
		b.WriteString(raw)
		b.WriteString("\n```\n</details>")
	}
	return b.String()
}
