package engine

import (
	"context"
	"log/slog"
	"time"

	"cloud.google.com/go/logging"

	"github.com/lumenops/logsleuth/internal/metrics"
	"github.com/lumenops/logsleuth/internal/models"
	"github.com/lumenops/logsleuth/internal/normalize"
	"github.com/lumenops/logsleuth/internal/utils"
)

// EntryLister is the log-store surface the fetcher depends on.
type EntryLister interface {
	Entries(ctx context.Context, filter string, window models.TimeWindow, pageSize int) ([]*logging.Entry, error)
}

// Stage names one query in a fallback sequence.
type Stage struct {
	Name     string
	Filter   string
	Window   models.TimeWindow
	PageSize int
}

// Fetcher runs log-store queries, classifies their failures and normalizes
// their results. A failed query yields empty records plus a QueryError; it
// never aborts the caller.
type Fetcher struct {
	lister EntryLister
	logger *slog.Logger
}

// NewFetcher wires a fetcher to its log store.
func NewFetcher(lister EntryLister, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{lister: lister, logger: logger}
}

// Fetch runs one named query and returns normalized records.
func (f *Fetcher) Fetch(ctx context.Context, name, filter string, window models.TimeWindow, pageSize int) ([]models.LogRecord, *utils.QueryError) {
	start := time.Now()
	entries, err := f.lister.Entries(ctx, filter, window, pageSize)
	if err != nil {
		qerr := utils.ClassifyQueryError(name, err)
		if qerr.Kind == utils.QueryErrUnknown {
			f.logger.Error("log query failed with unclassified error",
				"query", name, "error", err)
		} else {
			f.logger.Warn("log query failed",
				"query", name, "kind", string(qerr.Kind), "error", err)
		}
		metrics.ObserveQuery(name, time.Since(start), metrics.OutcomeError)
		return nil, qerr
	}
	metrics.ObserveQuery(name, time.Since(start), metrics.OutcomeSuccess)
	return normalize.Records(entries), nil
}

// FetchSequence runs stages in order and stops at the first stage that
// either returns records or fails. Results from different stages are never
// merged; a stage answers alone or not at all.
func (f *Fetcher) FetchSequence(ctx context.Context, stages []Stage) ([]models.LogRecord, string, *utils.QueryError) {
	for _, stage := range stages {
		records, qerr := f.Fetch(ctx, stage.Name, stage.Filter, stage.Window, stage.PageSize)
		if qerr != nil {
			return nil, stage.Name, qerr
		}
		if len(records) > 0 {
			return records, stage.Name, nil
		}
	}
	last := ""
	if len(stages) > 0 {
		last = stages[len(stages)-1].Name
	}
	return nil, last, nil
}

// FirstTrace returns the first non-empty trace id in the records, or "".
func FirstTrace(records []models.LogRecord) string {
	for _, r := range records {
		if r.Trace != "" {
			return r.Trace
		}
	}
	return ""
}
