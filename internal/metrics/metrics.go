package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeSuccess labels alerts and queries that completed cleanly.
	OutcomeSuccess = "success"
	// OutcomeError labels alerts and queries that hit a dependency failure.
	OutcomeError = "error"
)

var (
	alertsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "logsleuth",
			Name:      "alerts_total",
			Help:      "Total number of alert webhooks handled, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	alertDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "logsleuth",
			Name:      "alert_seconds",
			Help:      "End-to-end alert handling latency in seconds.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 3, 4, 5, 6, 8, 10},
		},
	)

	logQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "logsleuth",
			Name:      "log_queries_total",
			Help:      "Log store queries issued, partitioned by query name and outcome.",
		},
		[]string{"query", "outcome"},
	)

	logQueryDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "logsleuth",
			Name:      "log_query_seconds",
			Help:      "Log store query latency in seconds.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 3, 5, 8},
		},
	)

	commentsPostedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "logsleuth",
			Name:      "comments_posted_total",
			Help:      "Ticketing comments posted, partitioned by outcome.",
		},
		[]string{"outcome"},
	)
)

// Register attaches logsleuth collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		alertsTotal,
		alertDurationSeconds,
		logQueriesTotal,
		logQueryDurationSeconds,
		commentsPostedTotal,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveAlert records one handled alert with its duration and outcome.
func ObserveAlert(duration time.Duration, outcome string) {
	label := outcome
	if label != OutcomeError {
		label = OutcomeSuccess
	}
	alertsTotal.WithLabelValues(label).Inc()
	if duration < 0 {
		duration = 0
	}
	alertDurationSeconds.Observe(duration.Seconds())
}

// ObserveQuery records one log-store query by name.
func ObserveQuery(query string, duration time.Duration, outcome string) {
	label := outcome
	if label != OutcomeError {
		label = OutcomeSuccess
	}
	logQueriesTotal.WithLabelValues(query, label).Inc()
	if duration < 0 {
		duration = 0
	}
	logQueryDurationSeconds.Observe(duration.Seconds())
}

// ObserveCommentPost records one ticketing comment attempt.
func ObserveCommentPost(outcome string) {
	label := outcome
	if label != OutcomeError {
		label = OutcomeSuccess
	}
	commentsPostedTotal.WithLabelValues(label).Inc()
}
