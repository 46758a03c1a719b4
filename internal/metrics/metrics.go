// Package metrics exposes Prometheus collectors for panel builds and
// transition extraction. A nil *Recorder is valid and records nothing.
package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "psidpanel"

// Recorder groups the collectors registered against one Registerer.
type Recorder struct {
	operations   *prometheus.CounterVec
	durations    *prometheus.HistogramVec
	rows         *prometheus.CounterVec
	coverageGaps *prometheus.CounterVec
	transitions  *prometheus.CounterVec
}

// New registers the collectors with reg. Passing nil uses the default registerer.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Recorder{
		operations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Completed operations by name and status",
		}, []string{"operation", "status"}),
		durations: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Operation latency in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}, []string{"operation"}),
		rows: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "panel",
			Name:      "rows_total",
			Help:      "Person-year rows produced per survey year",
		}, []string{"year"}),
		coverageGaps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "panel",
			Name:      "coverage_gaps_total",
			Help:      "Variables with no usable source column, or heads-only filters skipped, per requested year",
		}, []string{"variable", "reason"}),
		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transition",
			Name:      "records_total",
			Help:      "Classified transitions by type",
		}, []string{"type"}),
	}
}

// Observe records an operation outcome.
func (r *Recorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if r == nil || operation == "" {
		return
	}
	status := "error"
	if success {
		status = "success"
	}
	r.operations.WithLabelValues(operation, status).Inc()
	r.durations.WithLabelValues(operation).Observe(duration.Seconds())
}

// Rows adds n person-year rows for year.
func (r *Recorder) Rows(year, n int) {
	if r == nil {
		return
	}
	r.rows.WithLabelValues(strconv.Itoa(year)).Add(float64(n))
}

// CoverageGap counts a degraded variable-year.
func (r *Recorder) CoverageGap(variable, reason string) {
	if r == nil {
		return
	}
	r.coverageGaps.WithLabelValues(variable, reason).Inc()
}

// Transition counts one classified transition.
func (r *Recorder) Transition(kind string) {
	if r == nil {
		return
	}
	r.transitions.WithLabelValues(kind).Inc()
}
