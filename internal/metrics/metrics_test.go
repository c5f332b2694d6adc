package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCountersStartAtZero(t *testing.T) {
	s := New()
	assert.Equal(t, float64(0), testutil.ToFloat64(s.Requests))
}

func TestIncrementHelpersUpdateTheirCounter(t *testing.T) {
	s := New()

	s.IncRequests()
	s.IncErrors()
	s.IncConflicts()
	s.IncConflicts()
	s.IncIdempotentHits()
	s.IncRateLimited()
	s.IncShed()
	s.IncFSRetries()
	s.IncBreakerOpenings()

	assert.Equal(t, float64(1), testutil.ToFloat64(s.Requests))
	assert.Equal(t, float64(1), testutil.ToFloat64(s.Errors))
	assert.Equal(t, float64(2), testutil.ToFloat64(s.Conflicts))
	assert.Equal(t, float64(1), testutil.ToFloat64(s.IdempotentHits))
	assert.Equal(t, float64(1), testutil.ToFloat64(s.RateLimited))
	assert.Equal(t, float64(1), testutil.ToFloat64(s.Shed))
	assert.Equal(t, float64(1), testutil.ToFloat64(s.FSRetries))
	assert.Equal(t, float64(1), testutil.ToFloat64(s.BreakerOpenings))
}

func TestEachSinkHasItsOwnRegistry(t *testing.T) {
	a := New()
	b := New()
	assert.NotSame(t, a.Registry, b.Registry, "two independently constructed sinks must not share a registry")
}
