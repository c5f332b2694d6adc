// Package syncworker is the external-collaborator sync process: it
// periodically reads the event log and projects it into a separate
// "central inventory" snapshot that the command core never reads back,
// matching the read-only external-consumer role described for the
// sync path.
package syncworker

import (
	"context"
	"time"

	"inventorycore/internal/domain/inventory"
	"inventorycore/internal/infrastructure/fsio"
	"inventorycore/pkg/logger"
)

// FSBulkhead is the subset of the filesystem bulkhead the worker routes
// its snapshot writes through, so sync pressure never starves the write
// path's own filesystem access.
type FSBulkhead interface {
	Run(ctx context.Context, fn func(ctx context.Context) error) error
}

// SyncBulkhead bounds how many projection cycles may run concurrently.
type SyncBulkhead interface {
	Run(ctx context.Context, fn func(ctx context.Context) error) error
}

type projection struct {
	GeneratedAt time.Time                 `json:"generatedAt"`
	LastEventID string                    `json:"lastEventId"`
	Totals      map[string]map[string]int `json:"totals"` // storeId -> sku -> qty
}

// Worker periodically projects the event log into a read-only snapshot
// file at path.
type Worker struct {
	Events   inventory.EventLog
	Path     string
	Interval time.Duration
	Sync     SyncBulkhead
	FS       FSBulkhead
	Policy   fsio.RetryPolicy

	lastProjectedFrom time.Time
}

// Run blocks, re-projecting every Interval until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.projectOnce(ctx); err != nil {
				logger.Warn(ctx, "sync projection failed", "error", err)
			}
		}
	}
}

func (w *Worker) projectOnce(ctx context.Context) error {
	run := func(ctx context.Context) error {
		events, err := w.Events.GetByTimeRange(ctx, w.lastProjectedFrom, time.Now().UTC())
		if err != nil {
			return err
		}

		totals := make(map[string]map[string]int)
		for _, e := range events {
			storeID, sku := e.Payload.StoreID, e.Payload.SKU
			if totals[storeID] == nil {
				totals[storeID] = make(map[string]int)
			}
			totals[storeID][sku] = e.Payload.NewQty
		}

		lastID, _, err := w.Events.GetLastID(ctx)
		if err != nil {
			return err
		}

		snapshot := projection{GeneratedAt: time.Now().UTC(), LastEventID: lastID, Totals: totals}

		writeFn := func(ctx context.Context) error {
			return fsio.SaveJSON(ctx, w.Path, snapshot, w.Policy)
		}
		if w.FS != nil {
			if err := w.FS.Run(ctx, writeFn); err != nil {
				return err
			}
		} else if err := writeFn(ctx); err != nil {
			return err
		}

		w.lastProjectedFrom = snapshot.GeneratedAt
		return nil
	}

	if w.Sync != nil {
		return w.Sync.Run(ctx, run)
	}
	return run(ctx)
}
