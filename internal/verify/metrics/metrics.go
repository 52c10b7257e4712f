package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	AuthorityCalls        *prometheus.CounterVec
	AuthorityCallDuration *prometheus.HistogramVec
}

func New() *Metrics {
	return &Metrics{
		AuthorityCalls: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "passgate_authority_calls_total",
			Help: "Verification authority call outcomes by token kind",
		}, []string{"kind", "result"}),
		AuthorityCallDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "passgate_authority_call_duration_seconds",
			Help:    "Latency of verification authority calls",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"kind"}),
	}
}

func (m *Metrics) RecordCall(kind, result string) {
	m.AuthorityCalls.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) ObserveCallDuration(kind string, d time.Duration) {
	m.AuthorityCallDuration.WithLabelValues(kind).Observe(d.Seconds())
}
