// Package loadshed implements the load shedder (C9): a fast-fail admission
// check that runs ahead of bulkhead admission, rejecting work outright
// once the combined api+sync bulkhead queue depth crosses a threshold.
package loadshed

import (
	"math"
	"time"

	"inventorycore/internal/core/apperror"
)

// DepthReporter is the subset of Bulkhead the shedder reads from.
type DepthReporter interface {
	QueueDepth() int
}

// Shedder rejects admission once the sum of watched queue depths exceeds Max.
type Shedder struct {
	Max     int
	Watched []DepthReporter
}

// New returns a Shedder that sheds once the combined depth of watched
// exceeds max.
func New(max int, watched ...DepthReporter) *Shedder {
	return &Shedder{Max: max, Watched: watched}
}

// Admit returns nil if the request should proceed to bulkhead admission,
// or a ServiceOverloaded error hinting retryAfter = min(60, ceil(depth/10))s.
func (s *Shedder) Admit() error {
	depth := 0
	for _, w := range s.Watched {
		depth += w.QueueDepth()
	}
	if depth <= s.Max {
		return nil
	}

	seconds := math.Min(60, math.Ceil(float64(depth)/10))
	return apperror.NewServiceOverloaded(time.Duration(seconds) * time.Second)
}
