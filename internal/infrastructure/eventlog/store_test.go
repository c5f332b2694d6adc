package eventlog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inventorycore/internal/domain/inventory"
	"inventorycore/internal/infrastructure/fsio"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.json")
	s, err := New(context.Background(), path, fsio.DefaultRetryPolicy(), nil)
	require.NoError(t, err)
	return s
}

func event(id string, storeID, sku string, newVersion int, ts time.Time) inventory.Event {
	return inventory.Event{
		ID:        id,
		Type:      inventory.EventStockAdjusted,
		Timestamp: ts,
		Payload: inventory.EventPayload{
			StoreID: storeID, SKU: sku,
			NewVersion: newVersion,
		},
	}
}

func TestAppendAssignsSequence(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, event("e1", "s1", "sku1", 1, time.Now())))
	require.NoError(t, s.Append(ctx, event("e2", "s1", "sku1", 2, time.Now())))

	all, err := s.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, int64(1), all[0].Sequence)
	assert.Equal(t, int64(2), all[1].Sequence)
}

func TestAppendIsIdempotentOnEventID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	e := event("dup", "s1", "sku1", 1, time.Now())
	require.NoError(t, s.Append(ctx, e))
	require.NoError(t, s.Append(ctx, e))

	all, err := s.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1, "repeated event id must not be appended twice")
}

func TestGetByTypeFiltersEvents(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	adjusted := event("e1", "s1", "sku1", 1, time.Now())
	reserved := adjusted
	reserved.ID = "e2"
	reserved.Type = inventory.EventStockReserved
	reserved.Payload.NewVersion = 2

	require.NoError(t, s.Append(ctx, adjusted))
	require.NoError(t, s.Append(ctx, reserved))

	got, err := s.GetByType(ctx, inventory.EventStockReserved)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "e2", got[0].ID)
}

func TestGetByTimeRangeIsInclusive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.Append(ctx, event("e1", "s1", "sku1", 1, base)))
	require.NoError(t, s.Append(ctx, event("e2", "s1", "sku1", 2, base.Add(time.Hour))))
	require.NoError(t, s.Append(ctx, event("e3", "s1", "sku1", 3, base.Add(2*time.Hour))))

	got, err := s.GetByTimeRange(ctx, base, base.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "e1", got[0].ID)
	assert.Equal(t, "e2", got[1].ID)
}

func TestLastEventForReturnsHighestSequence(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, event("e1", "s1", "sku1", 1, time.Now())))
	require.NoError(t, s.Append(ctx, event("e2", "s1", "sku1", 2, time.Now())))
	require.NoError(t, s.Append(ctx, event("e3", "s2", "sku1", 1, time.Now())))

	latest, found, err := s.LastEventFor(ctx, inventory.Identity{StoreID: "s1", SKU: "sku1"})
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "e2", latest.ID)

	_, found, err = s.LastEventFor(ctx, inventory.Identity{StoreID: "nope", SKU: "nope"})
	require.NoError(t, err)
	assert.False(t, found)
}

func TestAllIdentitiesIsSortedAndDistinct(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, event("e1", "s2", "sku1", 1, time.Now())))
	require.NoError(t, s.Append(ctx, event("e2", "s1", "skuB", 1, time.Now())))
	require.NoError(t, s.Append(ctx, event("e3", "s1", "skuA", 1, time.Now())))
	require.NoError(t, s.Append(ctx, event("e4", "s1", "skuA", 2, time.Now())))

	ids, err := s.AllIdentities(ctx)
	require.NoError(t, err)
	require.Len(t, ids, 3)
	assert.Equal(t, []inventory.Identity{
		{StoreID: "s1", SKU: "skuA"},
		{StoreID: "s1", SKU: "skuB"},
		{StoreID: "s2", SKU: "sku1"},
	}, ids)
}

func TestGetLastIDEmptyLog(t *testing.T) {
	s := newTestStore(t)
	_, found, err := s.GetLastID(context.Background())
	require.NoError(t, err)
	assert.False(t, found)
}

func TestNewReloadsExistingLog(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "events.json")
	policy := fsio.DefaultRetryPolicy()

	s1, err := New(context.Background(), path, policy, nil)
	require.NoError(t, err)
	require.NoError(t, s1.Append(context.Background(), event("e1", "s1", "sku1", 1, time.Now())))

	s2, err := New(context.Background(), path, policy, nil)
	require.NoError(t, err)
	all, err := s2.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)

	// appending the same id again on the reloaded store must still be a no-op
	require.NoError(t, s2.Append(context.Background(), event("e1", "s1", "sku1", 1, time.Now())))
	all, err = s2.GetAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
