package probe

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// MaxAttemptsCeiling is the hard upper bound on requests per identifier.
const MaxAttemptsCeiling = 10

// RetryConfig holds the configuration for retry logic.
type RetryConfig struct {
	// MaxAttempts is the maximum number of requests per identifier
	// (including the initial request). Must be in 1..MaxAttemptsCeiling.
	MaxAttempts int

	// InitialBackoff is the wait before the first re-issue. Zero re-issues
	// immediately.
	InitialBackoff time.Duration

	// MaxBackoff caps the exponential backoff.
	MaxBackoff time.Duration

	// BackoffMultiplier is the multiplier for exponential backoff.
	BackoffMultiplier float64
}

// DefaultRetryConfig returns the default retry configuration: ten attempts,
// re-issued without delay.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       MaxAttemptsCeiling,
		InitialBackoff:    0,
		MaxBackoff:        5 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// Validate checks the retry configuration.
func (c RetryConfig) Validate() error {
	if c.MaxAttempts < 1 || c.MaxAttempts > MaxAttemptsCeiling {
		return fmt.Errorf("max_attempts must be between 1 and %d (got %d)", MaxAttemptsCeiling, c.MaxAttempts)
	}
	if c.InitialBackoff < 0 || c.MaxBackoff < 0 {
		return fmt.Errorf("backoff must not be negative")
	}
	if c.InitialBackoff > 0 && c.BackoffMultiplier < 1 {
		return fmt.Errorf("backoff_multiplier must be >= 1 (got %v)", c.BackoffMultiplier)
	}
	return nil
}

// retryProbe calls fn until it succeeds, fails with a non-retryable class,
// or MaxAttempts is reached. The attempt counter is local to one call, so
// concurrent probes never share it. It returns the number of attempts made.
func retryProbe(ctx context.Context, config RetryConfig, fn func(attempt int) error) (int, error) {
	var lastErr error
	var lastClass ErrorClass
	backoff := config.InitialBackoff

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		err := fn(attempt)
		if err == nil {
			return attempt, nil
		}

		lastErr = err
		lastClass = classOf(err)

		if !shouldRetry(lastClass) {
			return attempt, fmt.Errorf("%w: %w", ErrNotRetryable, err)
		}

		if attempt >= config.MaxAttempts {
			break
		}

		probeRetriesTotal.WithLabelValues(string(lastClass)).Inc()

		if backoff <= 0 {
			if ctx.Err() != nil {
				return attempt, fmt.Errorf("%w: %v", ErrContextCancelled, ctx.Err())
			}
			continue
		}

		// Add jitter (±20% randomness)
		jitter := time.Duration(float64(backoff) * (0.8 + rand.Float64()*0.4))
		probeRetryBackoffSeconds.WithLabelValues(string(lastClass)).Observe(jitter.Seconds())

		select {
		case <-ctx.Done():
			return attempt, fmt.Errorf("%w: %v", ErrContextCancelled, ctx.Err())
		case <-time.After(jitter):
		}

		backoff = time.Duration(float64(backoff) * config.BackoffMultiplier)
		if config.MaxBackoff > 0 && backoff > config.MaxBackoff {
			backoff = config.MaxBackoff
		}
	}

	probeRetryExhaustedTotal.WithLabelValues(string(lastClass)).Inc()
	return config.MaxAttempts, fmt.Errorf("%w after %d attempts: %w", ErrRetryExhausted, config.MaxAttempts, lastErr)
}
