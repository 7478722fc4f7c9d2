package pool

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for worker pool operations.
var (
	poolWorkersActive = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "catalog_pool_workers_active",
		Help: "Number of workers currently holding a batch or awaiting work",
	}, []string{"strategy"})

	poolWorkersSpawnedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_pool_workers_spawned_total",
		Help: "Total workers spawned by strategy",
	}, []string{"strategy"})

	poolBatchesDispatchedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_pool_batches_dispatched_total",
		Help: "Total batches handed to workers by strategy",
	}, []string{"strategy"})

	poolWorkerFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_pool_worker_failures_total",
		Help: "Total fatal worker failures by strategy",
	}, []string{"strategy"})

	poolRunDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_pool_run_duration_seconds",
		Help:    "Duration of a full pool run by strategy and final state",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
	}, []string{"strategy", "state"})
)
