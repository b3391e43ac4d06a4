// Package logfilter assembles Cloud Logging filter expressions. Building a
// filter never executes it; every function here is pure string assembly.
package logfilter

import (
	"fmt"
	"strings"
	"time"

	"github.com/lumenops/logsleuth/internal/models"
)

// Log stream names under the Cloud Run logging prefix.
const (
	StreamStderr   = "stderr"
	StreamStdout   = "stdout"
	StreamRequests = "requests"
)

// successStatuses are the codes treated as normal request outcomes. 404 is
// excluded from anomalies separately: it is noise, not an anomaly.
var successStatuses = []int{200, 201, 202, 204, 206, 301, 302, 303, 304, 307, 308}

// errorKeywords flag application errors in free-text payloads regardless of
// the entry's severity level.
var errorKeywords = []string{"Traceback", "Exception", "CRITICAL", "panic:"}

// AnomalousStatus reports whether an HTTP status counts as a request anomaly.
func AnomalousStatus(code int) bool {
	if code == 404 {
		return false
	}
	for _, s := range successStatuses {
		if code == s {
			return false
		}
	}
	return true
}

// Builder scopes filters to a region and a set of services. Empty fields mean
// no constraint on that dimension, not "match nothing".
type Builder struct {
	Region   string
	Services []string
}

// RequestAnomalies matches request-log entries whose status falls outside the
// success/redirect set, skipping health checks and 404 noise.
func (b Builder) RequestAnomalies() string {
	clauses := []string{
		`resource.type="cloud_run_revision"`,
		streamClause(StreamRequests),
		`NOT httpRequest.userAgent:"GoogleHC"`,
		`NOT httpRequest.requestUrl:"/health"`,
	}
	clauses = b.appendScope(clauses)
	clauses = append(clauses, statusAnomalyClause(), `httpRequest.status!=404`)
	return strings.Join(clauses, "\n")
}

// ContainerErrors matches error-level or error-looking application log lines
// on the stderr/stdout streams. The requests stream is excluded so anomalies
// are not counted twice. A non-empty trace adds an equality clause scoping
// the query to one request.
func (b Builder) ContainerErrors(trace string) string {
	clauses := []string{
		`resource.type="cloud_run_revision"`,
		streamClause(StreamStderr, StreamStdout),
	}
	clauses = b.appendScope(clauses)
	clauses = append(clauses, fmt.Sprintf(
		`(severity>=ERROR OR textPayload:(%s) OR jsonPayload.message:("error" OR "exception"))`,
		quotedOrGroup(errorKeywords),
	))
	if trace != "" {
		clauses = append(clauses, fmt.Sprintf(`trace=%q`, trace))
	}
	return strings.Join(clauses, "\n")
}

// StreamTail matches everything the given streams produced, with no severity
// or keyword restriction. Used by the escalating fallback stages to grab the
// raw container tail before the trigger.
func (b Builder) StreamTail(streams ...string) string {
	clauses := []string{
		`resource.type="cloud_run_revision"`,
		streamClause(streams...),
	}
	clauses = b.appendScope(clauses)
	return strings.Join(clauses, "\n")
}

// TimeRange is appended at query time rather than baked into the reusable
// filters, since it changes per window.
func TimeRange(w models.TimeWindow) string {
	return fmt.Sprintf(`timestamp>=%q AND timestamp<=%q`,
		w.Start.UTC().Format(time.RFC3339), w.End.UTC().Format(time.RFC3339))
}

func (b Builder) appendScope(clauses []string) []string {
	if b.Region != "" {
		clauses = append(clauses, fmt.Sprintf(`resource.labels.location=%q`, b.Region))
	}
	if group := serviceClause(b.Services); group != "" {
		clauses = append(clauses, group)
	}
	return clauses
}

func serviceClause(services []string) string {
	if len(services) == 0 {
		return ""
	}
	parts := make([]string, 0, len(services))
	for _, s := range services {
		parts = append(parts, fmt.Sprintf(`resource.labels.service_name=%q`, s))
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}

func streamClause(streams ...string) string {
	return fmt.Sprintf(`logName=~"projects/.*/logs/run.googleapis.com%%2F(%s)"`, strings.Join(streams, "|"))
}

func statusAnomalyClause() string {
	// Everything below 200, the 2xx codes above 206, and the 3xx codes not in
	// the redirect set. 5xx and unusual 4xx fall out of the >=300 arm.
	redirects := []string{}
	for _, s := range successStatuses {
		if s >= 300 {
			redirects = append(redirects, fmt.Sprintf("httpRequest.status!=%d", s))
		}
	}
	return fmt.Sprintf(
		"(httpRequest.status<200 OR (httpRequest.status>206 AND httpRequest.status<300) OR (httpRequest.status>=300 AND %s))",
		strings.Join(redirects, " AND "),
	)
}

func quotedOrGroup(values []string) string {
	quoted := make([]string, 0, len(values))
	for _, v := range values {
		quoted = append(quoted, fmt.Sprintf("%q", v))
	}
	return strings.Join(quoted, " OR ")
}
