package resilience

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

// RetryConfig controls Retry's backoff schedule. Defaults mirror the
// teacher's llm/openai_compat.go doPost constants exactly.
type RetryConfig struct {
	MaxAttempts       int           // total attempts, including the first (teacher's maxRetries+1)
	BaseDelay         time.Duration // doubled on each attempt (teacher's baseRetryDelay)
	MinRateLimitDelay time.Duration // floor for 429 responses (teacher's minRateLimitDelay)
}

// DefaultRetryConfig reproduces the teacher's doPost constants.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       7, // 1 initial + 6 retries, matching maxRetries = 6
		BaseDelay:         2 * time.Second,
		MinRateLimitDelay: 5 * time.Second,
	}
}

// RetryableStatusCode reports whether an HTTP status code warrants a retry,
// identical to the teacher's retryableStatusCode.
func RetryableStatusCode(code int) bool {
	return code == http.StatusTooManyRequests ||
		code == http.StatusBadGateway ||
		code == http.StatusServiceUnavailable ||
		code == http.StatusGatewayTimeout
}

// RetryAfterDelay computes the delay for a 429 response, honoring a
// Retry-After header when it asks for longer than the computed backoff —
// the same logic as the teacher's doPost rate-limit handling.
func RetryAfterDelay(cfg RetryConfig, attempt int, retryAfterHeader string) time.Duration {
	delay := cfg.MinRateLimitDelay * time.Duration(1<<attempt)
	if retryAfterHeader != "" {
		if seconds, err := strconv.Atoi(retryAfterHeader); err == nil && seconds > 0 {
			headerDelay := time.Duration(seconds) * time.Second
			if headerDelay > delay {
				delay = headerDelay
			}
		}
	}
	return delay
}

// Retry runs fn up to cfg.MaxAttempts times, sleeping an exponentially
// increasing delay between attempts (1x, 2x, 4x... cfg.BaseDelay), exactly
// the schedule in the teacher's doPost. fn should wrap a non-retryable
// failure with NonRetryable to stop early.
func Retry(ctx context.Context, cfg RetryConfig, label string, fn func(ctx context.Context, attempt int) error) error {
	if cfg.MaxAttempts <= 0 {
		cfg = DefaultRetryConfig()
	}

	var lastErr error
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := cfg.BaseDelay * time.Duration(1<<(attempt-1))
			slog.Warn("resilience: retrying", "op", label, "attempt", attempt, "delay", delay, "error", lastErr)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err := fn(ctx, attempt)
		if err == nil {
			return nil
		}
		if !IsRetryable(err) {
			return err
		}
		lastErr = err
	}

	return fmt.Errorf("%s: max retries exceeded: %w", label, lastErr)
}
