package probe

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for probe operations.
var (
	probeRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_probe_requests_total",
		Help: "Total probe requests by HTTP status",
	}, []string{"status"})

	probeRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "catalog_probe_request_duration_seconds",
		Help:    "Probe request duration in seconds",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10},
	})

	probeErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_probe_errors_total",
		Help: "Total probe attempt failures by class",
	}, []string{"class"})

	probeResultsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_probe_results_total",
		Help: "Total resolved probes by outcome",
	}, []string{"outcome"})

	probeRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_probe_retries_total",
		Help: "Total number of retry attempts by error class",
	}, []string{"error_class"})

	probeRetryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_probe_retry_backoff_seconds",
		Help:    "Backoff duration for retries by error class",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	}, []string{"error_class"})

	probeRetryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_probe_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted by error class",
	}, []string{"error_class"})
)

func outcomeLabel(exists bool) string {
	if exists {
		return "exists"
	}
	return "missing"
}
