package resilience

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
)

// BreakerConfig configures a circuit breaker around an external
// collaborator (LLM provider, OCR backend) per spec.md §4.10.
type BreakerConfig struct {
	Name             string
	MaxFailures      uint32        // consecutive failures before opening
	OpenTimeout      time.Duration // how long the breaker stays open before probing
	HalfOpenMaxCalls uint32        // probe calls allowed while half-open
}

// DefaultBreakerConfig is a conservative default: open after 5 consecutive
// failures, stay open 30s, allow a single half-open probe.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:             name,
		MaxFailures:      5,
		OpenTimeout:      30 * time.Second,
		HalfOpenMaxCalls: 1,
	}
}

// Breaker wraps github.com/sony/gobreaker.CircuitBreaker, the library
// version of the circuit-breaker pattern spec.md §4.10 names explicitly.
type Breaker struct {
	cb *gobreaker.CircuitBreaker
}

// NewBreaker builds a Breaker from cfg.
func NewBreaker(cfg BreakerConfig) *Breaker {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.HalfOpenMaxCalls,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
	}
	return &Breaker{cb: gobreaker.NewCircuitBreaker(settings)}
}

// Do executes fn through the breaker. When the breaker is open, fn is not
// called and gobreaker.ErrOpenState is returned.
func (b *Breaker) Do(ctx context.Context, fn func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	return b.cb.Execute(func() (interface{}, error) {
		return fn(ctx)
	})
}

// State reports the breaker's current state (closed, half-open, open).
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}
