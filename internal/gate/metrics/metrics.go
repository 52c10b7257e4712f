// Package metrics exposes Prometheus instrumentation for the gate.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the gate's Prometheus collectors.
type Metrics struct {
	Decisions          *prometheus.CounterVec
	SubmissionDuration prometheus.Histogram
}

// New registers the gate collectors on the default registry. Construct once
// per process; tests pass a nil *Metrics instead.
func New() *Metrics {
	return &Metrics{
		Decisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "passgate_decisions_total",
			Help: "Terminal gate decisions, by result.",
		}, []string{"result"}),
		SubmissionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "passgate_submission_duration_seconds",
			Help:    "End-to-end time spent handling one verification submission.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// RecordDecision counts one terminal decision.
func (m *Metrics) RecordDecision(result string) {
	if m == nil {
		return
	}
	m.Decisions.WithLabelValues(result).Inc()
}

// ObserveSubmission records how long one submission took.
func (m *Metrics) ObserveSubmission(d time.Duration) {
	if m == nil {
		return
	}
	m.SubmissionDuration.Observe(d.Seconds())
}
