package models

import "time"

// IncidentHint carries the scoping information derived from one inbound
// alert: when the incident started and, when known, which service and region
// it points at. Immutable once derived.
type IncidentHint struct {
	StartedAt time.Time
	Service   string
	Region    string
}

// TimeWindow bounds a log query. Both ends are UTC.
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// PrimaryWindow is the symmetric window around the trigger time.
func PrimaryWindow(startedAt time.Time, halfWidth time.Duration) TimeWindow {
	t := startedAt.UTC()
	return TimeWindow{Start: t.Add(-halfWidth), End: t.Add(halfWidth)}
}

// PreTriggerWindow covers the tail leading up to the trigger. It ends exactly
// at the trigger time, not symmetrically around it.
func PreTriggerWindow(startedAt time.Time, width time.Duration) TimeWindow {
	t := startedAt.UTC()
	return TimeWindow{Start: t.Add(-width), End: t}
}

// Widen returns a copy of the window whose start is moved back by extra.
func (w TimeWindow) Widen(extra time.Duration) TimeWindow {
	return TimeWindow{Start: w.Start.Add(-extra), End: w.End}
}

// LogRecord is the canonical, shape-independent form of one log entry. Every
// field may be empty except Text, which is always present (possibly "") and
// never exceeds the normalizer's length cap.
type LogRecord struct {
	Timestamp string
	Severity  string
	Service   string
	Trace     string
	Status    int
	Method    string
	URL       string
	Text      string
}

// Investigation is the outcome of one alert pipeline run, before any
// ticketing calls are made.
type Investigation struct {
	ID        string
	Hint      IncidentHint
	Window    TimeWindow
	Services  []string
	RepoSlug  string
	Note      string
	Body      string
	LogErrors []string
}
