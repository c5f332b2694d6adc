// Package idempotency implements the in-memory idempotency cache (C5):
// commands submitted with the same idempotency key and the same payload
// replay their cached result without re-executing; the same key with a
// different payload is a conflict.
package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"inventorycore/internal/domain/inventory"
)

type entry struct {
	result    inventory.IdempotencyResult
	expiresAt time.Time
}

// Cache is an in-memory, TTL-expiring IdempotencyCache.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry

	stop chan struct{}
	once sync.Once
}

// New returns a Cache whose sweep goroutine reaps expired entries every
// sweepInterval. Callers must call Close when done.
func New(sweepInterval time.Duration) *Cache {
	c := &Cache{entries: make(map[string]entry), stop: make(chan struct{})}
	if sweepInterval > 0 {
		go c.sweepLoop(sweepInterval)
	}
	return c
}

var _ inventory.IdempotencyCache = (*Cache)(nil)

// Close stops the sweep goroutine.
func (c *Cache) Close() {
	c.once.Do(func() { close(c.stop) })
}

func (c *Cache) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case now := <-ticker.C:
			c.sweep(now)
		}
	}
}

func (c *Cache) sweep(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
		}
	}
}

// Get returns the cached result for key, if present and unexpired.
func (c *Cache) Get(key string) (inventory.IdempotencyResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok || time.Now().After(e.expiresAt) {
		return inventory.IdempotencyResult{}, false
	}
	return e.result, true
}

// Set caches result under key for ttl.
func (c *Cache) Set(key string, result inventory.IdempotencyResult, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{result: result, expiresAt: time.Now().Add(ttl)}
}

// CheckIdempotency probes key against payloadHash: a miss is a fresh
// command; a hit with a matching hash replays the cached result; a hit
// with a differing hash is a conflict (same key reused for a different
// request body).
func (c *Cache) CheckIdempotency(key string, payloadHash string) inventory.IdempotencyCheck {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || time.Now().After(e.expiresAt) {
		return inventory.IdempotencyCheck{}
	}
	if e.result.PayloadHash != payloadHash {
		return inventory.IdempotencyCheck{Conflict: true}
	}
	return inventory.IdempotencyCheck{IsIdempotent: true, Result: e.result.Result}
}

// HashPayload returns the canonical SHA-256 hex digest of v, computed over
// its keys in sorted order so semantically identical payloads hash equal
// regardless of field order.
func HashPayload(v any) (string, error) {
	canonical, err := canonicalize(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

func canonicalize(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}
	return marshalSorted(generic)
}

func marshalSorted(v any) ([]byte, error) {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		out := []byte{'{'}
		for i, k := range keys {
			if i > 0 {
				out = append(out, ',')
			}
			kb, _ := json.Marshal(k)
			out = append(out, kb...)
			out = append(out, ':')
			vb, err := marshalSorted(val[k])
			if err != nil {
				return nil, err
			}
			out = append(out, vb...)
		}
		out = append(out, '}')
		return out, nil
	case []any:
		out := []byte{'['}
		for i, item := range val {
			if i > 0 {
				out = append(out, ',')
			}
			ib, err := marshalSorted(item)
			if err != nil {
				return nil, err
			}
			out = append(out, ib...)
		}
		out = append(out, ']')
		return out, nil
	default:
		return json.Marshal(val)
	}
}
