// Package metrics exposes the Prometheus registry used by the catalog probe.
// All metrics are defined in their respective packages (probe, pool, cache)
// to maintain modularity and avoid circular dependencies.
//
// This package serves them over HTTP and documents what is available.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Registry is the default Prometheus registry used by the catalog probe.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Gatherer collects the metrics registered with Registry.
var Gatherer = prometheus.DefaultGatherer

// Handler returns the /metrics handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// HealthHandler answers liveness probes.
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

// NewMux routes /metrics and /health.
func NewMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	mux.HandleFunc("/health", HealthHandler)
	return mux
}

// Serve runs the metrics server on addr until ctx is done.
func Serve(ctx context.Context, addr string, logger zerolog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           NewMux(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("Starting metrics server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("metrics server shutdown: %w", err)
		}
		return nil
	}
}

// Metrics Documentation
//
// Probe Metrics (pkg/probe):
//   - catalog_probe_requests_total{status} (Counter): HTTP requests by status code or "network_error"
//   - catalog_probe_request_duration_seconds (Histogram): Duration of one HTTP attempt
//   - catalog_probe_errors_total{class} (Counter): Failed attempts by class (client, server, network, request)
//   - catalog_probe_results_total{outcome} (Counter): Resolved probes by outcome (exists, missing)
//
// Retry Metrics (pkg/probe):
//   - catalog_probe_retries_total{error_class} (Counter): Retry attempts by error class
//   - catalog_probe_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - catalog_probe_retry_exhausted_total{error_class} (Counter): Probes that hit the attempt ceiling
//
// Pool Metrics (pkg/pool):
//   - catalog_pool_workers_active{strategy} (Gauge): Live workers
//   - catalog_pool_workers_spawned_total{strategy} (Counter): Workers spawned
//   - catalog_pool_batches_dispatched_total{strategy} (Counter): Batches handed to workers
//   - catalog_pool_worker_failures_total{strategy} (Counter): Fatal worker failures
//   - catalog_pool_run_duration_seconds{strategy, state} (Histogram): Run duration by final state
//
// Cache Metrics (pkg/cache):
//   - catalog_cache_hits_total{outcome} (Counter): Cached results served by outcome
//   - catalog_cache_misses_total (Counter): Lookups that required probing
//   - catalog_cache_errors_total{operation} (Counter): Redis operation errors
//
// Example Prometheus Queries:
//
//   # Missing Rate
//   sum(rate(catalog_probe_results_total{outcome="missing"}[5m])) /
//   sum(rate(catalog_probe_results_total[5m]))
//
//   # Workers spawned per batch (1 for spawn, < 1 for reuse)
//   sum by (strategy) (catalog_pool_workers_spawned_total) /
//   sum by (strategy) (catalog_pool_batches_dispatched_total)
//
//   # P95 Probe Latency
//   histogram_quantile(0.95, rate(catalog_probe_request_duration_seconds_bucket[5m]))
//
//   # Cache Hit Rate
//   sum(rate(catalog_cache_hits_total[5m])) /
//   (sum(rate(catalog_cache_hits_total[5m])) + sum(rate(catalog_cache_misses_total[5m])))
