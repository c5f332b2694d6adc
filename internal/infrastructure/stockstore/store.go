// Package stockstore implements the derived stock-record store (C3): the
// authoritative, persisted projection of identity -> StockRecord, rebuilt
// from and kept consistent with the event log via the outbox discipline.
package stockstore

import (
	"context"
	"sort"
	"sync"

	"inventorycore/internal/core/apperror"
	"inventorycore/internal/domain/inventory"
	"inventorycore/internal/infrastructure/fsio"
)

// document is the on-disk shape of store-inventory.json: storeId -> sku -> record.
type document map[string]map[string]inventory.StockRecord

// FSBulkhead is the subset of the filesystem bulkhead the store routes
// writes through.
type FSBulkhead interface {
	Run(ctx context.Context, fn func(ctx context.Context) error) error
}

// Store is a file-backed StockStore.
type Store struct {
	path   string
	policy fsio.RetryPolicy
	fs     FSBulkhead

	mu  sync.RWMutex
	doc document
}

// New loads (or initializes) the stock store at path.
func New(ctx context.Context, path string, policy fsio.RetryPolicy, fs FSBulkhead) (*Store, error) {
	s := &Store{path: path, policy: policy, fs: fs, doc: document{}}
	var doc document
	ok, err := fsio.LoadJSON(ctx, path, &doc, policy)
	if err != nil {
		return nil, err
	}
	if ok && doc != nil {
		s.doc = doc
	}
	return s, nil
}

var _ inventory.StockStore = (*Store)(nil)

// Get returns the record for id, or a NotFoundError if it has never been
// written.
func (s *Store) Get(ctx context.Context, id inventory.Identity) (inventory.StockRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bySKU, ok := s.doc[id.StoreID]
	if !ok {
		return inventory.StockRecord{}, apperror.NewNotFound(id.StoreID, id.SKU)
	}
	record, ok := bySKU[id.SKU]
	if !ok {
		return inventory.StockRecord{}, apperror.NewNotFound(id.StoreID, id.SKU)
	}
	return record, nil
}

// Upsert durably persists record, replacing whatever was previously
// stored for its identity.
func (s *Store) Upsert(ctx context.Context, record inventory.StockRecord) error {
	run := func(ctx context.Context) error {
		s.mu.Lock()
		if _, ok := s.doc[record.StoreID]; !ok {
			s.doc[record.StoreID] = make(map[string]inventory.StockRecord)
		}
		s.doc[record.StoreID][record.SKU] = record
		snapshot := s.cloneLocked()
		s.mu.Unlock()

		return fsio.SaveJSON(ctx, s.path, snapshot, s.policy)
	}

	if s.fs != nil {
		return s.fs.Run(ctx, run)
	}
	return run(ctx)
}

// Delete removes the record for id, if present.
func (s *Store) Delete(ctx context.Context, id inventory.Identity) error {
	run := func(ctx context.Context) error {
		s.mu.Lock()
		if bySKU, ok := s.doc[id.StoreID]; ok {
			delete(bySKU, id.SKU)
			if len(bySKU) == 0 {
				delete(s.doc, id.StoreID)
			}
		}
		snapshot := s.cloneLocked()
		s.mu.Unlock()

		return fsio.SaveJSON(ctx, s.path, snapshot, s.policy)
	}

	if s.fs != nil {
		return s.fs.Run(ctx, run)
	}
	return run(ctx)
}

// ListByStore returns every record for storeID, ordered by sku.
func (s *Store) ListByStore(ctx context.Context, storeID string) ([]inventory.StockRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bySKU := s.doc[storeID]
	out := make([]inventory.StockRecord, 0, len(bySKU))
	for _, r := range bySKU {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return out, nil
}

// ListStores returns every storeId with at least one record, sorted.
func (s *Store) ListStores(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.doc))
	for storeID := range s.doc {
		out = append(out, storeID)
	}
	sort.Strings(out)
	return out, nil
}

// GetTotalCount returns the number of distinct (storeId, sku) records.
func (s *Store) GetTotalCount(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := 0
	for _, bySKU := range s.doc {
		total += len(bySKU)
	}
	return total, nil
}

func (s *Store) cloneLocked() document {
	clone := make(document, len(s.doc))
	for storeID, bySKU := range s.doc {
		innerClone := make(map[string]inventory.StockRecord, len(bySKU))
		for sku, record := range bySKU {
			innerClone[sku] = record
		}
		clone[storeID] = innerClone
	}
	return clone
}
