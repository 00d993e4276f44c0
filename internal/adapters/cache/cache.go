// Package cache memoizes fetched source tables for a bounded time-to-live.
// Staleness is explicit: IsStale decides, nothing expires behind the caller.
package cache

import (
	"sync"
	"time"

	"github.com/okian/consolidator/internal/domain/table"
)

// Entry is a cached table and the moment it was fetched.
type Entry struct {
	Table     *table.Table
	FetchedAt time.Time
}

// IsStale reports whether e must be refetched at now. A non-positive ttl
// disables caching.
func IsStale(e Entry, ttl time.Duration, now time.Time) bool {
	if e.Table == nil || ttl <= 0 {
		return true
	}
	return now.Sub(e.FetchedAt) >= ttl
}

// Cache maps a source identifier to its last fetched table. Tables are
// immutable, so a reader holding an entry is unaffected by later writes.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Entry
	ttl     time.Duration
	early   time.Duration
	now     func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL sets the time-to-live of entries.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		c.ttl = ttl
	}
}

// WithEarlyExpiry treats entries as stale d before the TTL ends, so a reader
// polling on the TTL period is not served an entry a few milliseconds short
// of expiry. It is ignored when d is not smaller than the TTL.
func WithEarlyExpiry(d time.Duration) Option {
	return func(c *Cache) {
		c.early = d
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates a Cache with a five minute TTL.
func New(opts ...Option) *Cache {
	c := &Cache{
		entries: make(map[string]Entry),
		ttl:     5 * time.Minute,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TTL returns the configured time-to-live.
func (c *Cache) TTL() time.Duration { return c.ttl }

// Now returns the cache clock's current time.
func (c *Cache) Now() time.Time { return c.now() }

func (c *Cache) effectiveTTL() time.Duration {
	if c.early > 0 && c.early < c.ttl {
		return c.ttl - c.early
	}
	return c.ttl
}

// Lookup returns the entry stored under key regardless of age.
func (c *Cache) Lookup(key string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	return e, ok
}

// Fresh returns the table under key when it is not stale.
func (c *Cache) Fresh(key string) (*table.Table, bool) {
	e, ok := c.Lookup(key)
	if !ok || IsStale(e, c.effectiveTTL(), c.now()) {
		return nil, false
	}
	return e.Table, true
}

// Put stores t under key, stamped with the current time.
func (c *Cache) Put(key string, t *table.Table) {
	c.PutAt(key, t, c.now())
}

// PutAt stores t under key, stamped with fetchedAt. Callers pass the time
// the fetch started so the entry ages from when the data was read.
func (c *Cache) PutAt(key string, t *table.Table, fetchedAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = Entry{Table: t, FetchedAt: fetchedAt}
}

// Invalidate drops the given keys, or every entry when none are given.
func (c *Cache) Invalidate(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(keys) == 0 {
		clear(c.entries)
		return
	}
	for _, k := range keys {
		delete(c.entries, k)
	}
}

// Len returns the number of stored entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
