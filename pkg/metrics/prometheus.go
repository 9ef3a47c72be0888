package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	buildsTotal    *prometheus.CounterVec
	overridesTotal *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec
	pendingChanges *prometheus.GaugeVec
	latency        *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		buildsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradecal_calendar_builds_total",
				Help: "Total number of calendar builds, by cache outcome",
			},
			[]string{"calendar", "outcome"},
		),
		overridesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradecal_overrides_total",
				Help: "Total number of changeset operations applied",
			},
			[]string{"calendar", "operation"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradecal_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		pendingChanges: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tradecal_pending_changes",
				Help: "Number of pending day overrides per calendar",
			},
			[]string{"calendar"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tradecal_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordBuild records a calendar build and whether it hit the cache.
func (r *Recorder) RecordBuild(calendar, outcome string) {
	r.buildsTotal.WithLabelValues(calendar, outcome).Inc()
}

// RecordOverride records a changeset operation against a calendar.
func (r *Recorder) RecordOverride(calendar, operation string) {
	r.overridesTotal.WithLabelValues(calendar, operation).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordPendingChanges records the current size of a calendar's changeset.
func (r *Recorder) RecordPendingChanges(calendar string, count int) {
	r.pendingChanges.WithLabelValues(calendar).Set(float64(count))
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
