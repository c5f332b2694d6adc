// Package keylock implements the per-key serializer (C4): operations on
// the same key run one at a time in submission order, while operations on
// distinct keys run fully in parallel.
//
// Each key owns a tail promise: Acquire chains its work onto the previous
// holder's completion, regardless of outcome, so a failed call never
// wedges the key. Idle keys are evicted eagerly so the map never grows
// unbounded under a changing working set.
package keylock

import (
	"context"
	"sync"
)

// tail is the completion signal of the most recent call on a key.
type tail struct {
	done chan struct{}
}

// Serializer is a KeyLock keyed by an arbitrary string.
type Serializer struct {
	mu    sync.Mutex
	tails map[string]*tail
}

// New returns an empty Serializer.
func New() *Serializer {
	return &Serializer{tails: make(map[string]*tail)}
}

// Acquire waits for the previous holder of key to finish, then runs fn
// while holding the key, then hands off to the next waiter. fn's error is
// returned to the caller; it never blocks subsequent calls on the key.
func (s *Serializer) Acquire(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	prev := s.tails[key]
	mine := &tail{done: make(chan struct{})}
	s.tails[key] = mine
	s.mu.Unlock()

	if prev != nil {
		select {
		case <-prev.done:
		case <-ctx.Done():
			go func() {
				<-prev.done
				close(mine.done)
				s.releaseIfCurrent(key, mine)
			}()
			return ctx.Err()
		}
	}

	err := fn(ctx)
	close(mine.done)
	s.releaseIfCurrent(key, mine)
	return err
}

// releaseIfCurrent drops the map entry for key once mine is still the
// most recent tail, so idle keys don't linger forever.
func (s *Serializer) releaseIfCurrent(key string, mine *tail) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tails[key] == mine {
		delete(s.tails, key)
	}
}
