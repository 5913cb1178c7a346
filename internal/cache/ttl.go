// Package cache provides a small in-process cache with per-entry expiry.
package cache

import (
	"context"
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTL is a goroutine-safe map whose entries expire after a fixed duration.
// Expired entries are dropped lazily on access, by Prune and by PruneEvery.
type TTL[K comparable, V any] struct {
	mu         sync.Mutex
	ttl        time.Duration
	maxEntries int
	entries    map[K]entry[V]
	now        func() time.Time
}

// NewTTL creates a cache whose entries live for ttl.
func NewTTL[K comparable, V any](ttl time.Duration) *TTL[K, V] {
	return &TTL[K, V]{
		ttl:     ttl,
		entries: make(map[K]entry[V]),
		now:     time.Now,
	}
}

// NewBoundedTTL creates a cache holding at most maxEntries. When full, a new
// key first prunes expired entries and then evicts the entry closest to
// expiry. maxEntries <= 0 means unbounded.
func NewBoundedTTL[K comparable, V any](ttl time.Duration, maxEntries int) *TTL[K, V] {
	c := NewTTL[K, V](ttl)
	c.maxEntries = maxEntries
	return c
}

// Get returns the value for key if present and not expired.
func (c *TTL[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores value under key, replacing any previous entry.
func (c *TTL[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store(key, value, c.now())
}

// SetIfAbsent stores value only when key has no live entry. It reports
// whether the value was stored.
func (c *TTL[K, V]) SetIfAbsent(key K, value V) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if e, ok := c.entries[key]; ok && now.Before(e.expiresAt) {
		return false
	}
	c.store(key, value, now)
	return true
}

// store must be called with mu held.
func (c *TTL[K, V]) store(key K, value V, now time.Time) {
	if _, exists := c.entries[key]; !exists && c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		if c.pruneLocked(now) == 0 {
			c.evictOldestLocked()
		}
	}
	c.entries[key] = entry[V]{value: value, expiresAt: now.Add(c.ttl)}
}

func (c *TTL[K, V]) evictOldestLocked() {
	var (
		oldest K
		at     time.Time
		found  bool
	)
	for k, e := range c.entries {
		if !found || e.expiresAt.Before(at) {
			oldest, at, found = k, e.expiresAt, true
		}
	}
	if found {
		delete(c.entries, oldest)
	}
}

// Delete removes key.
func (c *TTL[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Prune drops every expired entry and returns how many were removed.
func (c *TTL[K, V]) Prune() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pruneLocked(c.now())
}

func (c *TTL[K, V]) pruneLocked(now time.Time) int {
	removed := 0
	for k, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

// PruneEvery calls Prune on every tick of interval until ctx is done.
// A non-positive interval only waits for ctx.
func (c *TTL[K, V]) PruneEvery(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		<-ctx.Done()
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Prune()
		}
	}
}

// Len returns the number of stored entries, including expired ones not yet pruned.
func (c *TTL[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
