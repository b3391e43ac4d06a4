package engine

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lumenops/logsleuth/internal/config"
	"github.com/lumenops/logsleuth/internal/logfilter"
	"github.com/lumenops/logsleuth/internal/models"
	"github.com/lumenops/logsleuth/internal/report"
)

// selfIdentity always appears in the services-seen list so a report reader
// can tell which service produced it.
const selfIdentity = "logsleuth"

// Pipeline turns one alert payload into an investigation: scope the queries,
// fetch and fall back, and render the report body. It performs no ticketing.
type Pipeline struct {
	logger  *slog.Logger
	fetcher *Fetcher
	cfg     *config.Config
}

// NewPipeline wires the investigation pipeline.
func NewPipeline(logger *slog.Logger, fetcher *Fetcher, cfg *config.Config) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{logger: logger, fetcher: fetcher, cfg: cfg}
}

// Investigate runs the full pipeline for one alert. Query failures degrade
// to empty blocks plus entries in LogErrors; the investigation itself always
// completes.
func (p *Pipeline) Investigate(ctx context.Context, payload models.AlertPayload, raw []byte) models.Investigation {
	inv := models.Investigation{ID: "inv-" + uuid.NewString()}
	inv.Hint = ExtractHint(payload, time.Now())

	q := p.cfg.Query
	halfWidth := time.Duration(q.WindowMinutes) * time.Minute
	inv.Window = models.PrimaryWindow(inv.Hint.StartedAt, halfWidth)
	preWindow := models.PreTriggerWindow(inv.Hint.StartedAt, time.Duration(q.PreTriggerMinutes)*time.Minute)
	extra := time.Duration(q.WidenExtraMinutes) * time.Minute

	region := inv.Hint.Region
	if region == "" {
		region = q.Region
	}
	builder := logfilter.Builder{
		Region:   region,
		Services: uniqueStrings(append(append([]string{}, q.Services...), inv.Hint.Service)),
	}

	p.logger.Info("investigating alert",
		"investigation", inv.ID,
		"service", inv.Hint.Service,
		"region", region,
		"window_start", inv.Window.Start,
		"window_end", inv.Window.End)

	requests, qerr := p.fetcher.Fetch(ctx, "request_anomalies", builder.RequestAnomalies(), inv.Window, q.PageSize)
	if qerr != nil {
		inv.LogErrors = append(inv.LogErrors, qerr.Summary())
	}

	trace := ""
	if q.TraceScopeErrors {
		trace = FirstTrace(requests)
	}

	stages := []Stage{
		{Name: "container_errors", Filter: builder.ContainerErrors(trace), Window: inv.Window, PageSize: q.PageSize},
		{Name: "stderr_tail", Filter: builder.StreamTail(logfilter.StreamStderr), Window: preWindow, PageSize: q.PageSize},
		{Name: "stream_tail", Filter: builder.StreamTail(logfilter.StreamStderr, logfilter.StreamStdout), Window: preWindow, PageSize: q.PageSize},
		{Name: "stream_tail_wide", Filter: builder.StreamTail(logfilter.StreamStderr, logfilter.StreamStdout), Window: preWindow.Widen(extra), PageSize: q.PageSize},
	}
	errorRecords, stageName, qerr := p.fetcher.FetchSequence(ctx, stages)
	if qerr != nil {
		inv.LogErrors = append(inv.LogErrors, qerr.Summary())
	}
	if len(errorRecords) > 0 {
		p.logger.Debug("error stage answered", "investigation", inv.ID, "stage", stageName)
	}

	inv.Services = p.servicesSeen(requests, errorRecords, inv.Hint)

	// Mapping candidates in relevance order: the alerted service first, then
	// the services the fetched records actually mention.
	candidates := []string{inv.Hint.Service}
	for _, r := range requests {
		candidates = append(candidates, r.Service)
	}
	for _, r := range errorRecords {
		candidates = append(candidates, r.Service)
	}
	inv.RepoSlug, inv.Note = p.chooseRepo(candidates)

	maxLines := p.cfg.Report.MaxLines / 2
	maxChars := p.cfg.Report.MaxChars / 2
	inv.Body = report.BuildBody(report.BodyParams{
		Handle:       p.cfg.Report.MentionHandle,
		Window:       inv.Window,
		HalfWidth:    halfWidth,
		Services:     inv.Services,
		RequestBlock: report.FormatBlock(requests, maxLines, maxChars, false),
		ErrorBlock:   report.FormatBlock(errorRecords, maxLines, maxChars, false),
		RawPayload:   string(raw),
	})
	return inv
}

// servicesSeen unions the services named in the fetched records with the
// configured allowlist, the alert's own hint and this service's identity.
func (p *Pipeline) servicesSeen(requests, errorRecords []models.LogRecord, hint models.IncidentHint) []string {
	seen := []string{selfIdentity, hint.Service, p.cfg.Query.SelfService}
	seen = append(seen, p.cfg.Query.Services...)
	for _, r := range requests {
		seen = append(seen, r.Service)
	}
	for _, r := range errorRecords {
		seen = append(seen, r.Service)
	}
	return uniqueStrings(seen)
}

// chooseRepo maps the first candidate service with a repo-map entry onto its
// slug, falling back to the default. Placeholder slugs left over from
// templated config are rejected so the service never posts comments into
// example repositories.
func (p *Pipeline) chooseRepo(candidates []string) (string, string) {
	slug := ""
	for _, svc := range candidates {
		if svc == "" {
			continue
		}
		if mapped, ok := p.cfg.GitHub.RepoMap[svc]; ok {
			slug = mapped
			break
		}
	}
	if slug == "" {
		slug = p.cfg.GitHub.DefaultRepo
	}
	if !usableSlug(slug) {
		return "", models.NoteBadRepoSlug
	}
	return slug, ""
}

var placeholderSlugs = map[string]bool{
	"owner/repo":   true,
	"org/repo":     true,
	"example/repo": true,
}

func usableSlug(slug string) bool {
	if !strings.Contains(slug, "/") {
		return false
	}
	return !placeholderSlugs[strings.ToLower(slug)]
}

func uniqueStrings(values []string) []string {
	set := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := set[v]; ok {
			continue
		}
		set[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
