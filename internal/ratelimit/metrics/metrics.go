// Package metrics exposes Prometheus instrumentation for the rate limiter.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the rate limiter's Prometheus collectors.
type Metrics struct {
	Checks     *prometheus.CounterVec
	Rejections *prometheus.CounterVec
}

// New registers the rate limiter collectors on the default registry.
// Construct once per process; tests pass a nil *Metrics instead.
func New() *Metrics {
	return &Metrics{
		Checks: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "passgate_ratelimit_checks_total",
			Help: "Rate limit checks performed, by window and result.",
		}, []string{"window", "result"}),
		Rejections: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "passgate_ratelimit_rejections_total",
			Help: "Requests rejected by the rate limiter, by window.",
		}, []string{"window"}),
	}
}

// RecordCheck counts one limiter check for a window.
func (m *Metrics) RecordCheck(window, result string) {
	if m == nil {
		return
	}
	m.Checks.WithLabelValues(window, result).Inc()
}

// RecordRejection counts one rejected request for a window.
func (m *Metrics) RecordRejection(window string) {
	if m == nil {
		return
	}
	m.Rejections.WithLabelValues(window).Inc()
}
