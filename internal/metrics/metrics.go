// Package metrics exposes the Prometheus counters the command core and
// the backpressure stack increment, per the consumed metric-sink
// interface: requests, errors, conflicts, idempotent hits, rate-limit
// rejections, shed requests, fs retries, breaker openings.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Sink is the concrete Prometheus-backed metric sink.
type Sink struct {
	Requests        prometheus.Counter
	Errors          prometheus.Counter
	Conflicts       prometheus.Counter
	IdempotentHits  prometheus.Counter
	RateLimited     prometheus.Counter
	Shed            prometheus.Counter
	FSRetries       prometheus.Counter
	BreakerOpenings prometheus.Counter

	Registry *prometheus.Registry
}

// New registers and returns a fresh Sink on its own registry, so
// repeated test construction never collides with a process-global
// default registry.
func New() *Sink {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Sink{
		Registry: registry,
		Requests: factory.NewCounter(prometheus.CounterOpts{
			Name: "inventory_requests_total",
			Help: "Total command-core requests handled.",
		}),
		Errors: factory.NewCounter(prometheus.CounterOpts{
			Name: "inventory_errors_total",
			Help: "Total command-core requests that ended in an error.",
		}),
		Conflicts: factory.NewCounter(prometheus.CounterOpts{
			Name: "inventory_conflicts_total",
			Help: "Total version-mismatch and idempotency-conflict outcomes.",
		}),
		IdempotentHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "inventory_idempotent_hits_total",
			Help: "Total commands short-circuited by the idempotency cache.",
		}),
		RateLimited: factory.NewCounter(prometheus.CounterOpts{
			Name: "inventory_rate_limited_total",
			Help: "Total requests rejected by the rate limiter.",
		}),
		Shed: factory.NewCounter(prometheus.CounterOpts{
			Name: "inventory_shed_total",
			Help: "Total requests rejected by the load shedder.",
		}),
		FSRetries: factory.NewCounter(prometheus.CounterOpts{
			Name: "inventory_fs_retries_total",
			Help: "Total filesystem operation retry attempts.",
		}),
		BreakerOpenings: factory.NewCounter(prometheus.CounterOpts{
			Name: "inventory_breaker_openings_total",
			Help: "Total circuit breaker transitions into the open state.",
		}),
	}
}

// IncRequests increments the requests counter.
func (s *Sink) IncRequests() { s.Requests.Inc() }

// IncErrors increments the errors counter.
func (s *Sink) IncErrors() { s.Errors.Inc() }

// IncConflicts increments the conflicts counter.
func (s *Sink) IncConflicts() { s.Conflicts.Inc() }

// IncIdempotentHits increments the idempotent-hit counter.
func (s *Sink) IncIdempotentHits() { s.IdempotentHits.Inc() }

// IncRateLimited increments the rate-limit-rejection counter.
func (s *Sink) IncRateLimited() { s.RateLimited.Inc() }

// IncShed increments the load-shed-rejection counter.
func (s *Sink) IncShed() { s.Shed.Inc() }

// IncFSRetries increments the filesystem-retry counter.
func (s *Sink) IncFSRetries() { s.FSRetries.Inc() }

// IncBreakerOpenings increments the breaker-opened counter.
func (s *Sink) IncBreakerOpenings() { s.BreakerOpenings.Inc() }
