package resilience

import (
	"context"
	"testing"
	"time"
)

func TestBulkheadLimitsConcurrency(t *testing.T) {
	b := NewBulkhead(2)

	release1, err := b.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	release2, err := b.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	if b.InUse() != 2 {
		t.Fatalf("expected 2 in use, got %d", b.InUse())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := b.Acquire(ctx); err == nil {
		t.Fatal("expected third acquire to block until timeout")
	}

	release1()
	release2()
	if b.InUse() != 0 {
		t.Fatalf("expected 0 in use after release, got %d", b.InUse())
	}
}

func TestBulkheadCapacity(t *testing.T) {
	b := NewBulkhead(4)
	if b.Capacity() != 4 {
		t.Fatalf("expected capacity 4, got %d", b.Capacity())
	}
}

func TestBulkheadZeroCapacityDefaultsToOne(t *testing.T) {
	b := NewBulkhead(0)
	if b.Capacity() != 1 {
		t.Fatalf("expected default capacity 1, got %d", b.Capacity())
	}
}
