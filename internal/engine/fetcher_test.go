package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/logging"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/lumenops/logsleuth/internal/models"
	"github.com/lumenops/logsleuth/internal/utils"
)

type fakeLister struct {
	calls   []string
	results map[string][]*logging.Entry
	errs    map[string]error
}

func (f *fakeLister) Entries(_ context.Context, filter string, _ models.TimeWindow, _ int) ([]*logging.Entry, error) {
	f.calls = append(f.calls, filter)
	if err, ok := f.errs[filter]; ok {
		return nil, err
	}
	return f.results[filter], nil
}

func testWindow() models.TimeWindow {
	return models.PrimaryWindow(time.Unix(1700000000, 0), 5*time.Minute)
}

func TestFetchNormalizesEntries(t *testing.T) {
	lister := &fakeLister{results: map[string][]*logging.Entry{
		"f": {{Payload: "boom", Trace: "t1"}},
	}}
	fetcher := NewFetcher(lister, nil)

	records, qerr := fetcher.Fetch(context.Background(), "errors", "f", testWindow(), 10)
	if qerr != nil {
		t.Fatalf("unexpected error: %v", qerr)
	}
	if len(records) != 1 || records[0].Text != "boom" {
		t.Errorf("records = %+v", records)
	}
}

func TestFetchClassifiesFailure(t *testing.T) {
	lister := &fakeLister{errs: map[string]error{
		"f": status.Error(codes.PermissionDenied, "denied"),
	}}
	fetcher := NewFetcher(lister, nil)

	records, qerr := fetcher.Fetch(context.Background(), "errors", "f", testWindow(), 10)
	if records != nil {
		t.Errorf("expected no records, got %+v", records)
	}
	if qerr == nil || qerr.Kind != utils.QueryErrAuth {
		t.Errorf("expected auth error, got %+v", qerr)
	}
}

func TestFetchSequenceStopsAtFirstHit(t *testing.T) {
	lister := &fakeLister{results: map[string][]*logging.Entry{
		"b": {{Payload: "found"}},
	}}
	fetcher := NewFetcher(lister, nil)

	stages := []Stage{
		{Name: "first", Filter: "a", Window: testWindow(), PageSize: 10},
		{Name: "second", Filter: "b", Window: testWindow(), PageSize: 10},
		{Name: "third", Filter: "c", Window: testWindow(), PageSize: 10},
	}
	records, stageName, qerr := fetcher.FetchSequence(context.Background(), stages)
	if qerr != nil {
		t.Fatalf("unexpected error: %v", qerr)
	}
	if stageName != "second" {
		t.Errorf("stage = %q, want second", stageName)
	}
	if len(records) != 1 || records[0].Text != "found" {
		t.Errorf("records = %+v", records)
	}
	if len(lister.calls) != 2 {
		t.Errorf("expected 2 queries, got %d", len(lister.calls))
	}
}

func TestFetchSequenceStopsOnError(t *testing.T) {
	lister := &fakeLister{
		errs:    map[string]error{"a": errors.New("boom")},
		results: map[string][]*logging.Entry{"b": {{Payload: "never"}}},
	}
	fetcher := NewFetcher(lister, nil)

	stages := []Stage{
		{Name: "first", Filter: "a", Window: testWindow(), PageSize: 10},
		{Name: "second", Filter: "b", Window: testWindow(), PageSize: 10},
	}
	records, stageName, qerr := fetcher.FetchSequence(context.Background(), stages)
	if qerr == nil {
		t.Fatal("expected query error")
	}
	if records != nil {
		t.Errorf("failed sequence should return no records, got %+v", records)
	}
	if stageName != "first" {
		t.Errorf("stage = %q, want first", stageName)
	}
	if len(lister.calls) != 1 {
		t.Errorf("later stages must not run after a failure, got %d calls", len(lister.calls))
	}
}

func TestFetchSequenceAllEmpty(t *testing.T) {
	lister := &fakeLister{}
	fetcher := NewFetcher(lister, nil)

	stages := []Stage{
		{Name: "first", Filter: "a", Window: testWindow(), PageSize: 10},
		{Name: "second", Filter: "b", Window: testWindow(), PageSize: 10},
	}
	records, stageName, qerr := fetcher.FetchSequence(context.Background(), stages)
	if qerr != nil || records != nil {
		t.Errorf("expected clean empty result, got %+v / %v", records, qerr)
	}
	if stageName != "second" {
		t.Errorf("stage = %q, want last stage name", stageName)
	}
}

func TestFirstTrace(t *testing.T) {
	records := []models.LogRecord{
		{Text: "no trace"},
		{Trace: "projects/p/traces/abc"},
		{Trace: "projects/p/traces/def"},
	}
	if got := FirstTrace(records); got != "projects/p/traces/abc" {
		t.Errorf("FirstTrace = %q", got)
	}
	if got := FirstTrace(nil); got != "" {
		t.Errorf("FirstTrace(nil) = %q", got)
	}
}
