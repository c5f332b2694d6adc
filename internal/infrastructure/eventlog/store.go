// Package eventlog implements the durable, append-only event log (C2).
//
// The on-disk representation is a single JSON document
// {events, lastId, lastSequence}, rewritten in full on every append
// (load-modify-write, acceptable at this scale per spec.md §4.2) through
// fsio's atomic temp-file-plus-rename and the filesystem bulkhead.
package eventlog

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"inventorycore/internal/domain/inventory"
	"inventorycore/internal/infrastructure/fsio"
)

var tracer = otel.Tracer("inventorycore/eventlog")

// document is the on-disk shape of event-log.json.
type document struct {
	Events       []inventory.Event `json:"events"`
	LastID       string            `json:"lastId"`
	LastSequence int64             `json:"lastSequence"`
}

// FSBulkhead is the subset of the filesystem bulkhead the log needs to
// route writes through, kept as an interface to avoid an import cycle
// between eventlog and bulkhead.
type FSBulkhead interface {
	Run(ctx context.Context, fn func(ctx context.Context) error) error
}

// Store is a file-backed EventLog.
type Store struct {
	path   string
	policy fsio.RetryPolicy
	fs     FSBulkhead

	mu   sync.RWMutex
	doc  document
	ids  map[string]int // event id -> index in doc.Events, for de-dup
}

// New loads (or initializes) the event log at path.
func New(ctx context.Context, path string, policy fsio.RetryPolicy, fs FSBulkhead) (*Store, error) {
	s := &Store{path: path, policy: policy, fs: fs, ids: make(map[string]int)}
	var doc document
	ok, err := fsio.LoadJSON(ctx, path, &doc, policy)
	if err != nil {
		return nil, err
	}
	if ok {
		s.doc = doc
		for i, e := range doc.Events {
			s.ids[e.ID] = i
		}
	}
	return s, nil
}

var _ inventory.EventLog = (*Store)(nil)

// Append persists event durably, assigning sequence = lastSequence + 1.
// A repeated event.ID is a no-op (log idempotence).
func (s *Store) Append(ctx context.Context, event inventory.Event) error {
	ctx, span := tracer.Start(ctx, "eventlog.append", attribute.String("event.type", string(event.Type)))
	defer span.End()

	run := func(ctx context.Context) error {
		s.mu.Lock()
		if _, exists := s.ids[event.ID]; exists {
			s.mu.Unlock()
			return nil
		}
		event.Sequence = s.doc.LastSequence + 1
		s.doc.Events = append(s.doc.Events, event)
		s.doc.LastSequence = event.Sequence
		s.doc.LastID = event.ID
		snapshot := s.cloneDocLocked()
		s.ids[event.ID] = len(s.doc.Events) - 1
		s.mu.Unlock()

		if err := fsio.SaveJSON(ctx, s.path, snapshot, s.policy); err != nil {
			return err
		}
		return nil
	}

	if s.fs != nil {
		return s.fs.Run(ctx, run)
	}
	return run(ctx)
}

func (s *Store) cloneDocLocked() document {
	events := make([]inventory.Event, len(s.doc.Events))
	copy(events, s.doc.Events)
	return document{Events: events, LastID: s.doc.LastID, LastSequence: s.doc.LastSequence}
}

// GetAll returns a defensive copy of every event, ordered by sequence.
func (s *Store) GetAll(ctx context.Context) ([]inventory.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]inventory.Event, len(s.doc.Events))
	copy(out, s.doc.Events)
	return out, nil
}

// GetByType filters the log by event type, ordered by sequence.
func (s *Store) GetByType(ctx context.Context, t inventory.EventType) ([]inventory.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []inventory.Event
	for _, e := range s.doc.Events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out, nil
}

// GetByTimeRange filters the log to events in [from, to], ordered by sequence.
func (s *Store) GetByTimeRange(ctx context.Context, from, to time.Time) ([]inventory.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []inventory.Event
	for _, e := range s.doc.Events {
		if !e.Timestamp.Before(from) && !e.Timestamp.After(to) {
			out = append(out, e)
		}
	}
	return out, nil
}

// GetLastID returns the id of the most recently appended event.
func (s *Store) GetLastID(ctx context.Context) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.doc.Events) == 0 {
		return "", false, nil
	}
	return s.doc.LastID, true, nil
}

// LastEventFor returns the most recent event committed for id, used by
// startup outbox-recovery (spec.md §7).
func (s *Store) LastEventFor(ctx context.Context, id inventory.Identity) (inventory.Event, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		found inventory.Event
		ok    bool
	)
	for _, e := range s.doc.Events {
		if e.Payload.StoreID == id.StoreID && e.Payload.SKU == id.SKU {
			if !ok || e.Sequence > found.Sequence {
				found, ok = e, true
			}
		}
	}
	return found, ok, nil
}

// AllIdentities returns every (storeId, sku) pair referenced by the log,
// used by startup recovery to walk every identity once.
func (s *Store) AllIdentities(ctx context.Context) ([]inventory.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[inventory.Identity]struct{})
	for _, e := range s.doc.Events {
		seen[inventory.Identity{StoreID: e.Payload.StoreID, SKU: e.Payload.SKU}] = struct{}{}
	}
	out := make([]inventory.Identity, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StoreID != out[j].StoreID {
			return out[i].StoreID < out[j].StoreID
		}
		return out[i].SKU < out[j].SKU
	})
	return out, nil
}
