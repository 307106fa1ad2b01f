package ai

import (
	"context"
	"fmt"
	"time"
)

type RetryConfig struct {
	MaxRetries int
	RetryDelay time.Duration
	MaxDelay   time.Duration
	// Timeout bounds each attempt; zero leaves the caller's deadline alone.
	Timeout time.Duration
}

// Backoff returns the wait before the given retry (1-based), doubling from
// RetryDelay and capped at MaxDelay.
func (c RetryConfig) Backoff(attempt int) time.Duration {
	if attempt <= 0 || c.RetryDelay <= 0 {
		return 0
	}
	delay := c.RetryDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if c.MaxDelay > 0 && delay >= c.MaxDelay {
			return c.MaxDelay
		}
	}
	if c.MaxDelay > 0 && delay > c.MaxDelay {
		return c.MaxDelay
	}
	return delay
}

// Retry calls fn until it succeeds, returns an error retryable rejects, or
// MaxRetries extra attempts have been spent.
func Retry[T any](ctx context.Context, cfg RetryConfig, retryable func(error) bool, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(cfg.Backoff(attempt))
			select {
			case <-ctx.Done():
				timer.Stop()
				return zero, ctx.Err()
			case <-timer.C:
			}
		}
		attemptCtx, cancel := ctx, context.CancelFunc(func() {})
		if cfg.Timeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		}
		res, err := fn(attemptCtx)
		cancel()
		if err == nil {
			return res, nil
		}
		lastErr = err
		if retryable != nil && !retryable(err) {
			return zero, err
		}
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
	}
	return zero, fmt.Errorf("max retries (%d) exceeded: %w", cfg.MaxRetries, lastErr)
}
