package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
)

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	cfg := DefaultBreakerConfig("test")
	cfg.MaxFailures = 3
	cfg.OpenTimeout = time.Minute
	b := NewBreaker(cfg)

	for i := 0; i < 3; i++ {
		_, _ = b.Do(context.Background(), func(ctx context.Context) (interface{}, error) {
			return nil, errors.New("boom")
		})
	}

	if b.State() != gobreaker.StateOpen {
		t.Fatalf("expected breaker to be open after %d consecutive failures, state = %v", cfg.MaxFailures, b.State())
	}

	_, err := b.Do(context.Background(), func(ctx context.Context) (interface{}, error) {
		return "should not run", nil
	})
	if err == nil {
		t.Fatal("expected open breaker to reject the call")
	}
}

func TestBreakerStaysClosedOnSuccess(t *testing.T) {
	b := NewBreaker(DefaultBreakerConfig("test2"))
	for i := 0; i < 5; i++ {
		_, err := b.Do(context.Background(), func(ctx context.Context) (interface{}, error) {
			return "ok", nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if b.State() != gobreaker.StateClosed {
		t.Fatalf("expected breaker to remain closed, state = %v", b.State())
	}
}
