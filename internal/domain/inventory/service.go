package inventory

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"inventorycore/internal/core/apperror"
	"inventorycore/internal/core/id"
)

var tracer = otel.Tracer("inventorycore/inventory")

// MetricSink is the set of counters the command core increments; the HTTP
// layer and the wiring in cmd/server supply the concrete implementation.
type MetricSink interface {
	IncRequests()
	IncErrors()
	IncConflicts()
	IncIdempotentHits()
}

// HashPayload canonicalizes and hashes a command's inputs for the
// idempotency cache; injected so this package doesn't depend on the
// idempotency package's JSON canonicalization directly.
type HashPayload func(v any) (string, error)

// Service is the command core (C6): adjust and reserve share one protocol
// parameterized by a delta function.
type Service struct {
	Events         EventLog
	Stock          StockStore
	Idempotency    IdempotencyCache
	Locks          KeyLock
	Metrics        MetricSink
	HashPayload    HashPayload
	IdempotencyTTL time.Duration
}

// AdjustInput is the payload hashed for idempotency and applied as a delta.
type AdjustInput struct {
	StoreID         string `json:"storeId"`
	SKU             string `json:"sku"`
	Delta           int    `json:"delta"`
	ExpectedVersion *int   `json:"expectedVersion,omitempty"`
}

// ReserveInput is the payload hashed for idempotency and applied as a
// quantity decrement.
type ReserveInput struct {
	StoreID         string `json:"storeId"`
	SKU             string `json:"sku"`
	Qty             int    `json:"qty"`
	ExpectedVersion *int   `json:"expectedVersion,omitempty"`
}

// Adjust applies a signed delta to currentQty. newQty = currentQty + delta.
func (s *Service) Adjust(ctx context.Context, in AdjustInput, idempotencyKey string) (CommandResult, error) {
	return s.run(ctx, "adjust", in, idempotencyKey, in.StoreID, in.SKU, in.ExpectedVersion, in.Delta,
		func(currentQty int) int { return currentQty + in.Delta },
		func(delta, reservedQty, prevQty, newQty, prevVersion, newVersion int) Event {
			return newEvent(EventStockAdjusted, in.StoreID, in.SKU, EventPayload{
				StoreID: in.StoreID, SKU: in.SKU, Delta: delta,
				PreviousQty: prevQty, NewQty: newQty,
				PreviousVersion: prevVersion, NewVersion: newVersion,
			})
		})
}

// Reserve decrements currentQty by qty. newQty = currentQty - qty. qty = 0
// is accepted: a no-op on quantity that still bumps version and appends
// a real event (spec open question §9, resolved as "accepted").
func (s *Service) Reserve(ctx context.Context, in ReserveInput, idempotencyKey string) (CommandResult, error) {
	return s.run(ctx, "reserve", in, idempotencyKey, in.StoreID, in.SKU, in.ExpectedVersion, -in.Qty,
		func(currentQty int) int { return currentQty - in.Qty },
		func(delta, reservedQty, prevQty, newQty, prevVersion, newVersion int) Event {
			return newEvent(EventStockReserved, in.StoreID, in.SKU, EventPayload{
				StoreID: in.StoreID, SKU: in.SKU, ReservedQty: in.Qty,
				PreviousQty: prevQty, NewQty: newQty,
				PreviousVersion: prevVersion, NewVersion: newVersion,
			})
		})
}

// run is the shared protocol skeleton from the command-core design: probe
// idempotency, acquire the per-key lock, read-validate-commit, cache the
// result. applyDelta computes newQty from currentQty; buildEvent builds
// the domain event to append on commit.
func (s *Service) run(
	ctx context.Context,
	opName string,
	payload any,
	idempotencyKey string,
	storeID, sku string,
	expectedVersion *int,
	rawDelta int,
	applyDelta func(currentQty int) int,
	buildEvent func(delta, reservedQty, prevQty, newQty, prevVersion, newVersion int) Event,
) (CommandResult, error) {
	ctx, span := tracer.Start(ctx, "inventory."+opName,
		attribute.String("store.id", storeID), attribute.String("sku", sku))
	defer span.End()

	if s.Metrics != nil {
		s.Metrics.IncRequests()
	}

	if idempotencyKey == "" {
		idempotencyKey = id.New().String()
	}

	payloadHash, err := s.HashPayload(payload)
	if err != nil {
		return s.fail(span, apperror.NewInternal(fmt.Errorf("hash idempotency payload: %w", err)))
	}

	if check := s.Idempotency.CheckIdempotency(idempotencyKey, payloadHash); check.IsIdempotent {
		if s.Metrics != nil {
			s.Metrics.IncIdempotentHits()
		}
		return check.Result, nil
	} else if check.Conflict {
		if s.Metrics != nil {
			s.Metrics.IncConflicts()
		}
		return s.fail(span, apperror.NewIdempotencyConflict(idempotencyKey))
	}

	identity := Identity{StoreID: storeID, SKU: sku}
	var result CommandResult
	lockErr := s.Locks.Acquire(ctx, identity.Key(), func(ctx context.Context) error {
		record, err := s.Stock.Get(ctx, identity)
		if err != nil {
			return err
		}

		if expectedVersion != nil && *expectedVersion != record.Version {
			if s.Metrics != nil {
				s.Metrics.IncConflicts()
			}
			return apperror.NewVersionMismatch(*expectedVersion, record.Version)
		}

		newQty := applyDelta(record.Quantity)
		if newQty < 0 {
			return apperror.NewInsufficientStock(-rawDelta, record.Quantity)
		}

		newVersion := record.Version + 1
		event := buildEvent(rawDelta, 0, record.Quantity, newQty, record.Version, newVersion)
		if err := s.Events.Append(ctx, event); err != nil {
			return err
		}

		updated := StockRecord{
			StoreID: storeID, SKU: sku,
			Quantity: newQty, Version: newVersion,
			UpdatedAt: event.Timestamp,
		}
		if err := s.Stock.Upsert(ctx, updated); err != nil {
			return err
		}

		result = CommandResult{Quantity: newQty, Version: newVersion}

		// Cache the result, and release the per-key lock, in the same
		// breath: Acquire hands the key off to the next waiter the
		// instant this closure returns (serializer.go), so a concurrent
		// replay of the same idempotency key must never observe the
		// lock released before the cache entry exists.
		s.Idempotency.Set(idempotencyKey, IdempotencyResult{Result: result, PayloadHash: payloadHash}, s.IdempotencyTTL)
		return nil
	})

	if lockErr != nil {
		if s.Metrics != nil && !apperror.IsConflict(lockErr) {
			s.Metrics.IncErrors()
		}
		return s.fail(span, lockErr)
	}

	return result, nil
}

func (s *Service) fail(span trace.Span, err error) (CommandResult, error) {
	span.SetStatus(codes.Error, err.Error())
	return CommandResult{}, err
}

func newEvent(t EventType, storeID, sku string, payload EventPayload) Event {
	return Event{
		ID:        id.New().String(),
		Type:      t,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}
