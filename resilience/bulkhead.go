package resilience

import "context"

// Bulkhead bounds the number of concurrent in-flight operations using a
// buffered channel as a semaphore, the same idiom
// graph/builder.go's Build method uses to cap concurrent chunk
// extraction (spec.md §4.10, §5).
type Bulkhead struct {
	sem chan struct{}
}

// NewBulkhead creates a Bulkhead allowing at most capacity concurrent
// acquisitions.
func NewBulkhead(capacity int) *Bulkhead {
	if capacity <= 0 {
		capacity = 1
	}
	return &Bulkhead{sem: make(chan struct{}, capacity)}
}

// Acquire blocks until a slot is free or ctx is cancelled. The returned
// release function must be called exactly once to free the slot.
func (b *Bulkhead) Acquire(ctx context.Context) (release func(), err error) {
	select {
	case b.sem <- struct{}{}:
		return func() { <-b.sem }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// InUse returns the number of slots currently held.
func (b *Bulkhead) InUse() int {
	return len(b.sem)
}

// Capacity returns the bulkhead's total slot count.
func (b *Bulkhead) Capacity() int {
	return cap(b.sem)
}
