//go:build integration

package integration

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/Sternrassler/catalog-probe/internal/testutil"
	"github.com/Sternrassler/catalog-probe/pkg/cache"
	"github.com/Sternrassler/catalog-probe/pkg/catalog"
	"github.com/Sternrassler/catalog-probe/pkg/metrics"
	"github.com/Sternrassler/catalog-probe/pkg/pool"
	"github.com/Sternrassler/catalog-probe/pkg/probe"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedis creates a Redis container for integration testing.
func setupRedis(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: host + ":" + port.Port(),
	})

	cleanup := func() {
		redisClient.Close()
		container.Terminate(ctx)
	}

	return redisClient, cleanup
}

// testTransport sends requests for the public catalog host to the mock server.
type testTransport struct {
	mockServer *testutil.MockCatalog
}

func (t *testTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.URL.Host == "static.packt-cdn.com" {
		req.URL.Scheme = "http"
		req.URL.Host = strings.TrimPrefix(t.mockServer.URL(), "http://")
	}
	return http.DefaultTransport.RoundTrip(req)
}

// newFetcher builds a fetcher for the default catalog location, routed to mock.
func newFetcher(t *testing.T, mock *testutil.MockCatalog, mutate func(*probe.Config)) *probe.Fetcher {
	t.Helper()

	cfg := probe.DefaultConfig()
	cfg.Retry.MaxAttempts = 3
	if mutate != nil {
		mutate(&cfg)
	}

	fetcher, err := probe.New(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("Failed to create fetcher: %v", err)
	}
	fetcher.SetHTTPClient(&http.Client{
		Transport: &testTransport{mockServer: mock},
		Timeout:   10 * time.Second,
	})
	return fetcher
}

func runPool(t *testing.T, fetcher *probe.Fetcher, strategy pool.Strategy, ids []catalog.Identifier) *pool.Report {
	t.Helper()

	p, err := pool.New(fetcher, pool.Config{Workers: 2, BatchSize: 2, Strategy: strategy}, zerolog.Nop())
	if err != nil {
		t.Fatalf("Failed to create pool: %v", err)
	}

	report, err := p.Run(context.Background(), ids)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	return report
}

func resultMap(results []catalog.Result) map[catalog.Identifier]bool {
	m := make(map[catalog.Identifier]bool, len(results))
	for _, r := range results {
		m[r.Identifier] = r.Exists
	}
	return m
}

// TestFullRunFlow tests the complete flow: Cache → Catalog → Cache Update → Pool Report.
func TestFullRunFlow(t *testing.T) {
	for _, strategy := range []pool.Strategy{pool.SpawnPerBatch, pool.PersistentReuse} {
		t.Run(strategy.String(), func(t *testing.T) {
			redisClient, cleanup := setupRedis(t)
			defer cleanup()

			mock := testutil.NewMockCatalog()
			defer mock.Close()
			mock.AddProducts("9781838823818", "9781789615869", "9781789951226")
			mock.SetFlakyProduct("9781838983994", 2)

			fetcher := newFetcher(t, mock, func(c *probe.Config) {
				c.Cache = cache.NewManager(redisClient)
			})

			ids := catalog.Identifiers("9781838823818", "9781789615869", "9781789951226", "9781838983994", "9780000000000")

			report := runPool(t, fetcher, strategy, ids)

			want := map[catalog.Identifier]bool{
				"9781838823818": true,
				"9781789615869": true,
				"9781789951226": true,
				"9781838983994": true,
				"9780000000000": false,
			}
			got := resultMap(report.Results)
			for id, exists := range want {
				if got[id] != exists {
					t.Errorf("%s: Exists = %v, want %v", id, got[id], exists)
				}
			}
			if len(report.Batches) != 3 {
				t.Errorf("Batches = %d, want 3", len(report.Batches))
			}
			if got := mock.GetProductRequestCount("9780000000000"); got != 3 {
				t.Errorf("Missing product requests = %d, want 3", got)
			}

			// Second run: confirmed products come from Redis, missing ones are re-probed.
			mock.Reset()
			second := runPool(t, fetcher, strategy, ids)

			if second.Exists != 4 || second.Missing != 1 {
				t.Errorf("Second run Exists/Missing = %d/%d, want 4/1", second.Exists, second.Missing)
			}
			if got := mock.GetRequestCount(); got != 3 {
				t.Errorf("Second run requests = %d, want 3 (missing product only)", got)
			}
		})
	}
}

// TestNegativeCache tests that missing products are cached when a negative TTL is set.
func TestNegativeCache(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockCatalog()
	defer mock.Close()

	fetcher := newFetcher(t, mock, func(c *probe.Config) {
		c.Cache = cache.NewManager(redisClient)
		c.NegativeTTL = time.Minute
	})

	ctx := context.Background()

	if fetcher.Probe(ctx, "9780000000000").Exists {
		t.Fatal("Expected Exists = false")
	}

	ttl, err := redisClient.TTL(ctx, cache.Key("9780000000000")).Result()
	if err != nil {
		t.Fatalf("Failed to read TTL: %v", err)
	}
	if ttl <= 0 || ttl > time.Minute {
		t.Errorf("Redis TTL = %v, want (0, 1m]", ttl)
	}

	mock.Reset()
	if fetcher.Probe(ctx, "9780000000000").Exists {
		t.Error("Expected cached Exists = false")
	}
	if got := mock.GetRequestCount(); got != 0 {
		t.Errorf("Requests = %d, want 0", got)
	}
}

// TestCacheExpiration tests that expired entries are re-probed.
func TestCacheExpiration(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockCatalog()
	defer mock.Close()
	mock.AddProducts("9781838823818")

	fetcher := newFetcher(t, mock, func(c *probe.Config) {
		c.Cache = cache.NewManager(redisClient)
		c.PositiveTTL = time.Second
	})

	ctx := context.Background()

	fetcher.Probe(ctx, "9781838823818")
	time.Sleep(1500 * time.Millisecond)
	fetcher.Probe(ctx, "9781838823818")

	if got := mock.GetProductRequestCount("9781838823818"); got != 2 {
		t.Errorf("Requests = %d, want 2 after expiry", got)
	}
}

// TestCacheUnavailable tests that probing continues when Redis goes away.
func TestCacheUnavailable(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockCatalog()
	defer mock.Close()
	mock.AddProducts("9781838823818")

	fetcher := newFetcher(t, mock, func(c *probe.Config) {
		c.Cache = cache.NewManager(redisClient)
	})

	redisClient.Close()

	if !fetcher.Probe(context.Background(), "9781838823818").Exists {
		t.Error("Expected Exists = true without cache")
	}
}

// TestMetricsIncremented tests that a run publishes pool and probe metrics.
func TestMetricsIncremented(t *testing.T) {
	mock := testutil.NewMockCatalog()
	defer mock.Close()
	mock.AddProducts("9781838823818")

	fetcher := newFetcher(t, mock, nil)
	runPool(t, fetcher, pool.SpawnPerBatch, catalog.Identifiers("9781838823818", "9780000000000"))

	for _, name := range []string{
		"catalog_probe_results_total",
		"catalog_probe_requests_total",
		"catalog_pool_workers_spawned_total",
		"catalog_pool_batches_dispatched_total",
		"catalog_pool_run_duration_seconds",
	} {
		count, err := promtestutil.GatherAndCount(metrics.Gatherer, name)
		if err != nil {
			t.Fatalf("GatherAndCount(%s) error = %v", name, err)
		}
		if count == 0 {
			t.Errorf("Expected %s to be published", name)
		}
	}
}
