// Package probe checks whether catalog identifiers exist by issuing an HTTP
// GET per identifier, retrying failed attempts up to a fixed ceiling.
package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/Sternrassler/catalog-probe/pkg/cache"
	"github.com/Sternrassler/catalog-probe/pkg/catalog"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// maxDrainBytes bounds how much of a response body is read before closing.
const maxDrainBytes = 64 << 10

// ResultCache stores probe outcomes between runs. *cache.Manager implements it.
type ResultCache interface {
	Get(ctx context.Context, id catalog.Identifier) (*cache.Entry, error)
	Set(ctx context.Context, entry *cache.Entry) error
}

// Config holds the fetcher configuration.
type Config struct {
	// Catalog location; PathTemplate must contain {identifier}
	BaseURL      string
	PathTemplate string

	// User-Agent header sent with every probe
	UserAgent string

	// Timeout per HTTP request (0 disables the client timeout)
	Timeout time.Duration

	// Retry
	Retry RetryConfig

	// RateLimit caps outbound requests per second across all probes of this
	// fetcher. 0 disables limiting.
	RateLimit float64

	// Caching (optional)
	Cache       ResultCache
	PositiveTTL time.Duration // how long exists=true is trusted
	NegativeTTL time.Duration // how long exists=false is trusted (0 = not cached)
}

// DefaultConfig returns the default configuration for the public catalog.
func DefaultConfig() Config {
	return Config{
		BaseURL:      catalog.DefaultBaseURL,
		PathTemplate: catalog.DefaultPathTemplate,
		UserAgent:    "catalog-probe/0.1.0",
		Timeout:      30 * time.Second,
		Retry:        DefaultRetryConfig(),
		PositiveTTL:  time.Hour,
	}
}

// Fetcher probes catalog identifiers. It is safe for concurrent use; it
// holds no per-probe state.
type Fetcher struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	config     Config
	logger     zerolog.Logger
}

// New creates a new fetcher.
func New(cfg Config, logger zerolog.Logger) (*Fetcher, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}

	if _, err := catalog.ProbeURL(cfg.BaseURL, cfg.PathTemplate, "probe"); err != nil {
		return nil, fmt.Errorf("invalid catalog location: %w", err)
	}

	if err := cfg.Retry.Validate(); err != nil {
		return nil, fmt.Errorf("invalid retry config: %w", err)
	}

	if cfg.RateLimit < 0 {
		return nil, fmt.Errorf("rate_limit must be >= 0 (got %v)", cfg.RateLimit)
	}

	if cfg.PositiveTTL < 0 || cfg.NegativeTTL < 0 {
		return nil, fmt.Errorf("cache ttl must not be negative")
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := int(cfg.RateLimit)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return &Fetcher{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: limiter,
		config:  cfg,
		logger:  logger,
	}, nil
}

// Probe checks whether id exists in the catalog. It never fails: terminal
// failures are logged and resolve to Exists=false.
func (f *Fetcher) Probe(ctx context.Context, id catalog.Identifier) catalog.Result {
	result := catalog.Result{Identifier: id}
	logger := f.logger.With().Str("identifier", string(id)).Logger()

	if entry := f.lookup(ctx, logger, id); entry != nil {
		result.Exists = entry.Exists
		return result
	}

	probeURL, err := catalog.ProbeURL(f.config.BaseURL, f.config.PathTemplate, id)
	if err != nil {
		f.logTerminal(logger, &ProbeError{
			Identifier: id,
			ErrorClass: ErrorClassRequest,
			Message:    "build probe url",
			Err:        err,
		}, 0)
		probeResultsTotal.WithLabelValues(outcomeLabel(false)).Inc()
		return result
	}

	attempts, err := retryProbe(ctx, f.config.Retry, func(attempt int) error {
		return f.attempt(ctx, logger, id, probeURL, attempt)
	})
	if err != nil {
		f.logTerminal(logger, err, attempts)
		probeResultsTotal.WithLabelValues(outcomeLabel(false)).Inc()
		if errors.Is(err, ErrRetryExhausted) {
			f.store(ctx, logger, id, false)
		}
		return result
	}

	if attempts > 1 {
		logger.Info().Int("attempts", attempts).Msg("Probe succeeded after retry")
	}

	result.Exists = true
	probeResultsTotal.WithLabelValues(outcomeLabel(true)).Inc()
	f.store(ctx, logger, id, true)
	return result
}

// attempt issues one GET. Any 2xx response counts as success.
func (f *Fetcher) attempt(ctx context.Context, logger zerolog.Logger, id catalog.Identifier, probeURL string, attempt int) error {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			probeErrorsTotal.WithLabelValues(string(ErrorClassRequest)).Inc()
			return &ProbeError{
				Identifier: id,
				ErrorClass: ErrorClassRequest,
				Message:    "rate limiter wait",
				Err:        err,
			}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, probeURL, nil)
	if err != nil {
		probeErrorsTotal.WithLabelValues(string(ErrorClassRequest)).Inc()
		return &ProbeError{
			Identifier: id,
			ErrorClass: ErrorClassRequest,
			Message:    "create request",
			Err:        err,
		}
	}
	req.Header.Set("User-Agent", f.config.UserAgent)

	startTime := time.Now()
	resp, err := f.httpClient.Do(req)
	probeRequestDuration.Observe(time.Since(startTime).Seconds())

	if err != nil {
		errClass := ErrorClassNetwork
		if ctx.Err() != nil {
			errClass = ErrorClassRequest
		}
		probeErrorsTotal.WithLabelValues(string(errClass)).Inc()
		probeRequestsTotal.WithLabelValues("network_error").Inc()

		logger.Debug().
			Err(err).
			Int("attempt", attempt).
			Str("error_class", string(errClass)).
			Msg("Probe request failed")

		return &ProbeError{
			Identifier: id,
			ErrorClass: errClass,
			Message:    "request failed",
			Err:        err,
		}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes))

	probeRequestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errClass := classifyStatus(resp.StatusCode)
		probeErrorsTotal.WithLabelValues(string(errClass)).Inc()

		logger.Debug().
			Int("attempt", attempt).
			Int("status", resp.StatusCode).
			Str("error_class", string(errClass)).
			Msg("Probe returned error status")

		return &ProbeError{
			Identifier: id,
			StatusCode: resp.StatusCode,
			ErrorClass: errClass,
			Message:    resp.Status,
			Header:     resp.Header.Clone(),
		}
	}

	return nil
}

// logTerminal reports a probe that resolved to Exists=false.
func (f *Fetcher) logTerminal(logger zerolog.Logger, err error, attempts int) {
	event := logger.Error().Err(err).Int("attempts", attempts)

	var probeErr *ProbeError
	if errors.As(err, &probeErr) {
		event = event.Str("error_class", string(probeErr.ErrorClass))
		if probeErr.StatusCode != 0 {
			event = event.Int("status", probeErr.StatusCode).Str("status_text", probeErr.Message)
		}
		if len(probeErr.Header) > 0 {
			event = event.Interface("headers", probeErr.Header)
		}
	}

	event.Msg("Probe failed, resolving as missing")
}

// lookup returns a cached outcome, or nil when probing is required.
func (f *Fetcher) lookup(ctx context.Context, logger zerolog.Logger, id catalog.Identifier) *cache.Entry {
	if f.config.Cache == nil {
		return nil
	}

	entry, err := f.config.Cache.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			logger.Warn().Err(err).Msg("Cache get error")
		}
		return nil
	}

	logger.Debug().
		Bool("exists", entry.Exists).
		Time("checked_at", entry.CheckedAt).
		Msg("Using cached probe result")
	return entry
}

// store caches an outcome when a TTL is configured for it.
func (f *Fetcher) store(ctx context.Context, logger zerolog.Logger, id catalog.Identifier, exists bool) {
	if f.config.Cache == nil {
		return
	}

	ttl := f.config.NegativeTTL
	if exists {
		ttl = f.config.PositiveTTL
	}
	if ttl <= 0 {
		return
	}

	if err := f.config.Cache.Set(ctx, cache.NewEntry(id, exists, ttl)); err != nil {
		logger.Warn().Err(err).Msg("Failed to cache probe result")
	}
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (f *Fetcher) SetHTTPClient(client *http.Client) {
	f.httpClient = client
}
