package logfilter

import (
	"strings"
	"testing"
	"time"

	"github.com/lumenops/logsleuth/internal/models"
)

func TestAnomalousStatus(t *testing.T) {
	cases := []struct {
		code int
		want bool
	}{
		{200, false},
		{201, false},
		{204, false},
		{206, false},
		{301, false},
		{304, false},
		{308, false},
		{404, false},
		{100, true},
		{203, true},
		{207, true},
		{300, true},
		{305, true},
		{400, true},
		{401, true},
		{403, true},
		{429, true},
		{500, true},
		{503, true},
	}
	for _, tc := range cases {
		if got := AnomalousStatus(tc.code); got != tc.want {
			t.Errorf("AnomalousStatus(%d) = %v, want %v", tc.code, got, tc.want)
		}
	}
}

func TestRequestAnomaliesFilter(t *testing.T) {
	b := Builder{Region: "us-central1", Services: []string{"checkout", "payments"}}
	filter := b.RequestAnomalies()

	for _, want := range []string{
		`resource.type="cloud_run_revision"`,
		`run.googleapis.com%2F(requests)`,
		`NOT httpRequest.userAgent:"GoogleHC"`,
		`NOT httpRequest.requestUrl:"/health"`,
		`resource.labels.location="us-central1"`,
		`resource.labels.service_name="checkout" OR resource.labels.service_name="payments"`,
		`httpRequest.status!=404`,
		`httpRequest.status!=301`,
		`httpRequest.status!=308`,
	} {
		if !strings.Contains(filter, want) {
			t.Errorf("filter missing %q:\n%s", want, filter)
		}
	}
}

func TestRequestAnomaliesWithoutScope(t *testing.T) {
	filter := Builder{}.RequestAnomalies()
	if strings.Contains(filter, "resource.labels.location") {
		t.Errorf("unscoped filter should not constrain location:\n%s", filter)
	}
	if strings.Contains(filter, "service_name") {
		t.Errorf("unscoped filter should not constrain services:\n%s", filter)
	}
}

func TestContainerErrorsFilter(t *testing.T) {
	b := Builder{Services: []string{"checkout"}}
	filter := b.ContainerErrors("")

	for _, want := range []string{
		`run.googleapis.com%2F(stderr|stdout)`,
		`severity>=ERROR`,
		`"Traceback"`,
		`"panic:"`,
		`jsonPayload.message:("error" OR "exception")`,
	} {
		if !strings.Contains(filter, want) {
			t.Errorf("filter missing %q:\n%s", want, filter)
		}
	}
	if strings.Contains(filter, "trace=") {
		t.Errorf("empty trace should not add a trace clause:\n%s", filter)
	}
	if strings.Contains(filter, "%2F(requests)") {
		t.Errorf("error filter must not match the requests stream:\n%s", filter)
	}
}

func TestContainerErrorsWithTrace(t *testing.T) {
	filter := Builder{}.ContainerErrors("projects/p/traces/abc123")
	if !strings.Contains(filter, `trace="projects/p/traces/abc123"`) {
		t.Errorf("expected trace clause:\n%s", filter)
	}
}

func TestStreamTailFilter(t *testing.T) {
	filter := Builder{}.StreamTail(StreamStderr, StreamStdout)
	if !strings.Contains(filter, `run.googleapis.com%2F(stderr|stdout)`) {
		t.Errorf("expected both streams:\n%s", filter)
	}
	if strings.Contains(filter, "severity") {
		t.Errorf("stream tail must not restrict severity:\n%s", filter)
	}
}

func TestTimeRange(t *testing.T) {
	w := models.TimeWindow{
		Start: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 5, 1, 12, 10, 0, 0, time.UTC),
	}
	got := TimeRange(w)
	want := `timestamp>="2024-05-01T12:00:00Z" AND timestamp<="2024-05-01T12:10:00Z"`
	if got != want {
		t.Errorf("TimeRange = %q, want %q", got, want)
	}
}
