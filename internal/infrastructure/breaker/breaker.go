// Package breaker implements the circuit breaker (C10) guarding the event
// log and stock store from cascading failure under persistent filesystem
// errors: Closed counts failures in a rolling window, Open fast-fails
// until a cooldown elapses, HalfOpen admits a single probe.
package breaker

import (
	"context"
	"sync"
	"time"

	"inventorycore/internal/core/apperror"
)

// State is one of the three circuit states.
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// Breaker is a per-resource circuit breaker.
type Breaker struct {
	name      string
	threshold int
	window    time.Duration
	cooldown  time.Duration

	mu            sync.Mutex
	state         State
	failures      []time.Time
	openedAt      time.Time
	probeInFlight bool
}

// New returns a Breaker in the Closed state.
func New(name string, threshold int, window, cooldown time.Duration) *Breaker {
	return &Breaker{name: name, threshold: threshold, window: window, cooldown: cooldown, state: Closed}
}

// Run executes fn if the breaker admits the call, recording the outcome.
// Open rejects immediately with CircuitOpen; HalfOpen admits exactly one
// concurrent probe and fast-fails any others until the probe resolves.
func (b *Breaker) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	if !b.admit() {
		return apperror.NewCircuitOpen(b.name)
	}
	err := fn(ctx)
	b.report(err == nil)
	return err
}

func (b *Breaker) admit() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Closed:
		return true
	case Open:
		if time.Since(b.openedAt) >= b.cooldown {
			b.state = HalfOpen
			b.probeInFlight = true
			return true
		}
		return false
	case HalfOpen:
		if b.probeInFlight {
			return false
		}
		b.probeInFlight = true
		return true
	}
	return false
}

func (b *Breaker) report(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case HalfOpen:
		b.probeInFlight = false
		if success {
			b.state = Closed
			b.failures = nil
		} else {
			b.state = Open
			b.openedAt = time.Now()
		}
	case Closed:
		if success {
			return
		}
		now := time.Now()
		b.failures = append(b.failures, now)
		b.failures = pruneBefore(b.failures, now.Add(-b.window))
		if len(b.failures) >= b.threshold {
			b.state = Open
			b.openedAt = now
			b.failures = nil
		}
	}
}

func pruneBefore(times []time.Time, cutoff time.Time) []time.Time {
	out := times[:0]
	for _, t := range times {
		if t.After(cutoff) {
			out = append(out, t)
		}
	}
	return out
}

// Snapshot returns the breaker's current state, for health/metrics.
func (b *Breaker) Snapshot() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
