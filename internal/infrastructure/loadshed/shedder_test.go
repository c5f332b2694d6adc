package loadshed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inventorycore/internal/core/apperror"
)

type fakeDepth struct{ depth int }

func (f fakeDepth) QueueDepth() int { return f.depth }

func TestAdmitAllowsWhenUnderMax(t *testing.T) {
	s := New(100, fakeDepth{depth: 10}, fakeDepth{depth: 20})
	assert.NoError(t, s.Admit())
}

func TestAdmitShedsWhenOverMax(t *testing.T) {
	s := New(10, fakeDepth{depth: 6}, fakeDepth{depth: 6})
	err := s.Admit()
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeServiceOverloaded, appErr.Code)
}

func TestAdmitRetryAfterCapsAtSixtySeconds(t *testing.T) {
	s := New(0, fakeDepth{depth: 10000})
	err := s.Admit()
	require.Error(t, err)
	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, 60, appErr.Details["retryAfter"])
}

func TestAdmitRetryAfterScalesWithDepth(t *testing.T) {
	s := New(0, fakeDepth{depth: 25})
	err := s.Admit()
	require.Error(t, err)
	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, 3, appErr.Details["retryAfter"]) // ceil(25/10) = 3
}

func TestAdmitAtExactlyMaxIsNotShed(t *testing.T) {
	s := New(10, fakeDepth{depth: 10})
	assert.NoError(t, s.Admit())
}
