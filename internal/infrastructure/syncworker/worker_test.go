package syncworker

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inventorycore/internal/domain/inventory"
	"inventorycore/internal/infrastructure/eventlog"
	"inventorycore/internal/infrastructure/fsio"
)

func TestProjectOnceWritesTotalsSnapshot(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	policy := fsio.DefaultRetryPolicy()

	events, err := eventlog.New(ctx, filepath.Join(dir, "events.json"), policy, nil)
	require.NoError(t, err)
	require.NoError(t, events.Append(ctx, inventory.Event{
		ID: "e1", Type: inventory.EventStockAdjusted, Timestamp: time.Now().UTC(),
		Payload: inventory.EventPayload{StoreID: "s1", SKU: "sku1", NewQty: 120},
	}))

	snapshotPath := filepath.Join(dir, "central-inventory.json")
	w := &Worker{Events: events, Path: snapshotPath, Interval: time.Hour, Policy: policy}

	require.NoError(t, w.projectOnce(ctx))

	data, err := os.ReadFile(snapshotPath)
	require.NoError(t, err)

	var got projection
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "e1", got.LastEventID)
	assert.Equal(t, 120, got.Totals["s1"]["sku1"])
}

func TestProjectOnceAdvancesWatermarkAcrossCycles(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	policy := fsio.DefaultRetryPolicy()

	events, err := eventlog.New(ctx, filepath.Join(dir, "events.json"), policy, nil)
	require.NoError(t, err)
	require.NoError(t, events.Append(ctx, inventory.Event{
		ID: "e1", Type: inventory.EventStockAdjusted, Timestamp: time.Now().UTC(),
		Payload: inventory.EventPayload{StoreID: "s1", SKU: "sku1", NewQty: 50},
	}))

	w := &Worker{Events: events, Path: filepath.Join(dir, "snap.json"), Interval: time.Hour, Policy: policy}
	require.NoError(t, w.projectOnce(ctx))
	firstWatermark := w.lastProjectedFrom

	require.NoError(t, w.projectOnce(ctx))
	assert.True(t, w.lastProjectedFrom.After(firstWatermark) || w.lastProjectedFrom.Equal(firstWatermark))
}

func TestRunStopsOnContextCancellation(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	policy := fsio.DefaultRetryPolicy()

	events, err := eventlog.New(context.Background(), filepath.Join(dir, "events.json"), policy, nil)
	require.NoError(t, err)

	w := &Worker{Events: events, Path: filepath.Join(dir, "snap.json"), Interval: time.Millisecond, Policy: policy}

	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	time.Sleep(5 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}
