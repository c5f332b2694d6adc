package inventory

import (
	"context"
	"fmt"

	"inventorycore/internal/core/apperror"
)

// identityLister is implemented by event logs that can enumerate every
// identity they've ever recorded, used only at startup.
type identityLister interface {
	AllIdentities(ctx context.Context) ([]Identity, error)
}

// Recover scans the event log for each identity it has ever recorded and
// compares the latest event's newVersion to the stock record's version.
// If the log is exactly one step ahead (an append that committed before a
// crash interrupted the matching upsert), the trailing event is re-applied
// to the store. More than one step ahead means the store is corrupt or
// was tampered with outside the core, which is a PersistenceError.
func Recover(ctx context.Context, events EventLog, stock StockStore) error {
	lister, ok := events.(identityLister)
	if !ok {
		return nil
	}

	identities, err := lister.AllIdentities(ctx)
	if err != nil {
		return err
	}

	for _, id := range identities {
		latest, found, err := events.LastEventFor(ctx, id)
		if err != nil {
			return err
		}
		if !found {
			continue
		}

		record, err := stock.Get(ctx, id)
		if err != nil {
			if !apperror.IsNotFound(err) {
				return err
			}
			record = StockRecord{StoreID: id.StoreID, SKU: id.SKU, Quantity: 0, Version: 0}
		}

		switch {
		case latest.Payload.NewVersion == record.Version:
			// store already reflects the latest event; nothing to do.
		case latest.Payload.NewVersion == record.Version+1:
			recovered := StockRecord{
				StoreID:   id.StoreID,
				SKU:       id.SKU,
				Quantity:  latest.Payload.NewQty,
				Version:   latest.Payload.NewVersion,
				UpdatedAt: latest.Timestamp,
			}
			if err := stock.Upsert(ctx, recovered); err != nil {
				return err
			}
		default:
			return apperror.NewPersistence(
				fmt.Sprintf("recover %s/%s", id.StoreID, id.SKU),
				fmt.Errorf("event log ahead of stock store by more than one version: log=%d store=%d",
					latest.Payload.NewVersion, record.Version),
			)
		}
	}
	return nil
}
