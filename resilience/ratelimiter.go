package resilience

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiter wraps golang.org/x/time/rate.Limiter, the same package and
// request/token-bucket construction pattern used in the example pack's
// provider-throttling code, extended with a count of Wait calls (Waits);
// it keeps no queue-length metric.
type RateLimiter struct {
	limiter *rate.Limiter
	waits   int64
}

// NewRateLimiter creates a token-bucket limiter allowing ratePerSecond
// sustained events with a burst of burst.
func NewRateLimiter(ratePerSecond float64, burst int) *RateLimiter {
	return &RateLimiter{limiter: rate.NewLimiter(rate.Limit(ratePerSecond), burst)}
}

// Wait blocks until a token is available or ctx is cancelled.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.waits++
	return r.limiter.Wait(ctx)
}

// Allow reports whether a token is immediately available, consuming one if so.
func (r *RateLimiter) Allow() bool {
	return r.limiter.Allow()
}

// SetLimit adjusts the sustained rate, used when a provider's response
// headers report a remaining-quota window (the same pattern the example
// pack's request/token limiters use to re-tune themselves after each call).
func (r *RateLimiter) SetLimit(ratePerSecond float64) {
	r.limiter.SetLimit(rate.Limit(ratePerSecond))
}

// Waits returns the number of Wait calls made, a coarse queueing metric.
func (r *RateLimiter) Waits() int64 {
	return r.waits
}
