package core

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetricsRecorder exports mutation timings and outcome counters
// through a prometheus registry, for deployments that scrape.
type PrometheusMetricsRecorder struct {
	durations *prometheus.HistogramVec
	outcomes  *prometheus.CounterVec
}

// NewPrometheusMetricsRecorder constructs a recorder and registers its
// collectors with reg. Pass prometheus.DefaultRegisterer for the process
// default.
func NewPrometheusMetricsRecorder(reg prometheus.Registerer) (*PrometheusMetricsRecorder, error) {
	r := &PrometheusMetricsRecorder{
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "estatecore",
			Subsystem: "mutations",
			Name:      "duration_seconds",
			Help:      "Wall time from optimistic apply to confirmation or rollback.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "estatecore",
			Subsystem: "mutations",
			Name:      "outcomes_total",
			Help:      "Mutation resolutions by operation and outcome.",
		}, []string{"op", "outcome"}),
	}
	if err := reg.Register(r.durations); err != nil {
		return nil, err
	}
	if err := reg.Register(r.outcomes); err != nil {
		return nil, err
	}
	return r, nil
}

// ObserveMutation records one mutation resolution.
func (r *PrometheusMetricsRecorder) ObserveMutation(op string, d time.Duration, outcome string) {
	r.durations.WithLabelValues(op).Observe(d.Seconds())
	r.outcomes.WithLabelValues(op, outcome).Inc()
}
