// Package cache provides a time-bounded memoization layer for upstream
// responses. Entries expire lazily: nothing sweeps the map, an expired entry
// is simply reported as absent and overwritten on the next Put.
package cache

import (
	"sync"
	"time"
)

// DefaultTTL is the lifetime of a cached upstream response.
const DefaultTTL = 5 * time.Minute

type entry[V any] struct {
	value  V
	expiry time.Time
}

// TTL is a concurrency-safe map whose entries expire a fixed duration after
// insertion. Concurrent writers race with last-writer-wins semantics.
type TTL[V any] struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]entry[V]
}

// Option configures a TTL cache.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces the wall clock, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// New creates an empty cache. A non-positive ttl falls back to DefaultTTL.
func New[V any](ttl time.Duration, opts ...Option) *TTL[V] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &TTL[V]{
		ttl:     ttl,
		now:     o.now,
		entries: make(map[string]entry[V]),
	}
}

// Get returns the value stored under key if it has not expired yet.
func (c *TTL[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || !c.now().Before(e.expiry) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Put stores value under key, replacing any previous entry.
func (c *TTL[V]) Put(key string, value V) {
	expiry := c.now().Add(c.ttl)

	c.mu.Lock()
	c.entries[key] = entry[V]{value: value, expiry: expiry}
	c.mu.Unlock()
}

// Len reports the number of stored entries, expired ones included.
func (c *TTL[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// TTL returns the configured entry lifetime.
func (c *TTL[V]) TTL() time.Duration {
	return c.ttl
}
