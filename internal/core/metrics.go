package core

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Marker resolution outcomes.
const (
	ResolutionResolved   = "resolved"
	ResolutionUnresolved = "unresolved"
	ResolutionError      = "error"
)

// PrometheusMetricsRecorder publishes engine metrics to a Prometheus registry.
type PrometheusMetricsRecorder struct {
	durations   *prometheus.HistogramVec
	results     *prometheus.CounterVec
	rows        *prometheus.CounterVec
	resolutions *prometheus.CounterVec
}

// NewPrometheusMetricsRecorder registers the engine collectors with reg.
func NewPrometheusMetricsRecorder(reg prometheus.Registerer) (*PrometheusMetricsRecorder, error) {
	r := &PrometheusMetricsRecorder{
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pdxgraph",
			Name:      "operation_duration_seconds",
			Help:      "Duration of loads and pipeline stages.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"operation"}),
		results: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pdxgraph",
			Name:      "operations_total",
			Help:      "Loads and pipeline stages by outcome.",
		}, []string{"operation", "status"}),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pdxgraph",
			Name:      "rows_total",
			Help:      "Table rows processed per stage by outcome.",
		}, []string{"stage", "outcome"}),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pdxgraph",
			Name:      "marker_resolutions_total",
			Help:      "Marker symbol lookups by outcome.",
		}, []string{"outcome"}),
	}
	for _, c := range []prometheus.Collector{r.durations, r.results, r.rows, r.resolutions} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Observe records an operation outcome.
func (r *PrometheusMetricsRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	status := "error"
	if success {
		status = "success"
	}
	r.durations.WithLabelValues(operation).Observe(duration.Seconds())
	r.results.WithLabelValues(operation, status).Inc()
}

// CountRows adds the row tallies of a stage.
func (r *PrometheusMetricsRecorder) CountRows(stage string, processed, failed int) {
	r.rows.WithLabelValues(stage, "processed").Add(float64(processed))
	r.rows.WithLabelValues(stage, "failed").Add(float64(failed))
}

// CountResolution counts one marker lookup.
func (r *PrometheusMetricsRecorder) CountResolution(outcome string) {
	r.resolutions.WithLabelValues(outcome).Inc()
}
