// Package bulkhead implements the bounded-concurrency admission gate (C8):
// at most L concurrent callers run at once; up to Q more wait FIFO; beyond
// that, callers are rejected immediately with a capacity failure.
package bulkhead

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"inventorycore/internal/core/apperror"
)

// Bulkhead bounds concurrent execution to limit, with a bounded FIFO wait
// queue of size queueSize beyond that.
type Bulkhead struct {
	name  string
	sem   *semaphore.Weighted
	admit chan struct{} // capacity == limit+queueSize: total in-flight (running+waiting)

	waiting atomic.Int64
}

// New returns a named Bulkhead admitting at most limit concurrent callers
// with up to queueSize FIFO waiters.
func New(name string, limit, queueSize int) *Bulkhead {
	return &Bulkhead{
		name:  name,
		sem:   semaphore.NewWeighted(int64(limit)),
		admit: make(chan struct{}, limit+queueSize),
	}
}

// Run executes fn inside the bulkhead: immediately if a slot is free,
// queued FIFO if not (up to queueSize waiters), or rejected with a
// ServiceOverloaded-shaped capacity error if the queue is also full.
func (b *Bulkhead) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	select {
	case b.admit <- struct{}{}:
	default:
		return apperror.NewServiceOverloaded(0).WithDetail("bulkhead", b.name)
	}
	defer func() { <-b.admit }()

	b.waiting.Add(1)
	err := b.sem.Acquire(ctx, 1)
	b.waiting.Add(-1)
	if err != nil {
		return err
	}
	defer b.sem.Release(1)

	return fn(ctx)
}

// QueueDepth reports the number of callers currently waiting for a slot
// (not counting those already running), consumed by the load shedder (C9).
func (b *Bulkhead) QueueDepth() int {
	return int(b.waiting.Load())
}
