// Package ratelimit implements the per-identifier token bucket (C7).
//
// Bucket bookkeeping follows the teacher's tenant-manager idle-eviction
// shape: a sync.Map of buckets keyed by identifier, each stamped with its
// last-used time, swept periodically so idle identifiers don't pin memory.
package ratelimit

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"inventorycore/internal/core/apperror"
)

type bucket struct {
	limiter  *rate.Limiter
	lastUsed atomic.Int64 // unix nanos
}

// Limiter is a per-identifier token bucket rate limiter.
type Limiter struct {
	rps   rate.Limit
	burst int

	buckets sync.Map // string -> *bucket

	idleTTL time.Duration
	stop    chan struct{}
	once    sync.Once
}

// New returns a Limiter admitting rps tokens/sec per identifier, up to
// burst, evicting buckets idle longer than idleTTL every sweepInterval.
func New(rps float64, burst int, idleTTL, sweepInterval time.Duration) *Limiter {
	l := &Limiter{rps: rate.Limit(rps), burst: burst, idleTTL: idleTTL, stop: make(chan struct{})}
	if sweepInterval > 0 {
		go l.sweepLoop(sweepInterval)
	}
	return l
}

// Close stops the sweep goroutine.
func (l *Limiter) Close() {
	l.once.Do(func() { close(l.stop) })
}

// Allow admits one unit of work for identifier, or returns a RateLimited
// AppError carrying a retryAfter hint of ceil(1/R) seconds.
func (l *Limiter) Allow(identifier string) error {
	b := l.bucketFor(identifier)
	if b.limiter.Allow() {
		return nil
	}
	retryAfter := time.Duration(math.Ceil(1/float64(l.rps))) * time.Second
	return apperror.NewRateLimited(retryAfter)
}

func (l *Limiter) bucketFor(identifier string) *bucket {
	now := time.Now().UnixNano()
	if v, ok := l.buckets.Load(identifier); ok {
		b := v.(*bucket)
		b.lastUsed.Store(now)
		return b
	}
	b := &bucket{limiter: rate.NewLimiter(l.rps, l.burst)}
	b.lastUsed.Store(now)
	actual, _ := l.buckets.LoadOrStore(identifier, b)
	return actual.(*bucket)
}

func (l *Limiter) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.sweep()
		}
	}
}

func (l *Limiter) sweep() {
	cutoff := time.Now().Add(-l.idleTTL).UnixNano()
	l.buckets.Range(func(key, value any) bool {
		b := value.(*bucket)
		if b.lastUsed.Load() < cutoff {
			l.buckets.Delete(key)
		}
		return true
	})
}
