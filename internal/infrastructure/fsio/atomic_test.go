package fsio

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inventorycore/internal/core/apperror"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestSaveAndLoadJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.json")
	policy := DefaultRetryPolicy()

	err := SaveJSON(context.Background(), path, payload{Name: "widget", Count: 3}, policy)
	require.NoError(t, err)

	var got payload
	ok, err := LoadJSON(context.Background(), path, &got, policy)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, payload{Name: "widget", Count: 3}, got)

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("expected temp file to be gone after rename, stat err = %v", err)
	}
}

func TestLoadJSONMissingFileReturnsOkFalse(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "missing.json")

	var got payload
	ok, err := LoadJSON(context.Background(), path, &got, DefaultRetryPolicy())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSaveJSONOverwritesAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.json")
	policy := DefaultRetryPolicy()

	require.NoError(t, SaveJSON(context.Background(), path, payload{Name: "a", Count: 1}, policy))
	require.NoError(t, SaveJSON(context.Background(), path, payload{Name: "b", Count: 2}, policy))

	var got payload
	ok, err := LoadJSON(context.Background(), path, &got, policy)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, payload{Name: "b", Count: 2}, got)
}

func TestWithRetryCallsOnRetryOnlyOnRetriedAttempts(t *testing.T) {
	var retries int
	policy := RetryPolicy{Times: 3, BaseDelay: time.Millisecond, OnRetry: func() { retries++ }}

	attempts := 0
	err := withRetry(context.Background(), policy, "op", func() error {
		attempts++
		if attempts < 3 {
			return assert.AnError
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, 2, retries, "OnRetry should fire once per retried attempt, not on the first or successful try")
}

func TestWithRetryExhaustsAndWrapsPersistenceError(t *testing.T) {
	policy := RetryPolicy{Times: 2, BaseDelay: time.Millisecond}

	err := withRetry(context.Background(), policy, "save:x", func() error {
		return assert.AnError
	})

	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "PERSISTENCE_ERROR", appErr.Code)
}

func TestWithRetryHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	policy := RetryPolicy{Times: 3, BaseDelay: time.Millisecond}
	err := withRetry(ctx, policy, "op", func() error {
		t.Fatal("op should not run once context is already cancelled")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}
