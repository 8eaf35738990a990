package cache

import (
	"sync"
	"time"
)

// Expiring is an unbounded map whose entries leave only when they expire.
// Use it where dropping a live entry early would be wrong.
type Expiring[T any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]entry[T]
	now     func() time.Time
}

func NewExpiring[T any](ttl time.Duration) *Expiring[T] {
	return &Expiring[T]{
		ttl:     ttl,
		entries: make(map[string]entry[T]),
		now:     time.Now,
	}
}

// WithClock replaces the time source. Used by tests.
func (c *Expiring[T]) WithClock(now func() time.Time) *Expiring[T] {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
	return c
}

func (c *Expiring[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	e, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	if e.expired(c.now()) {
		delete(c.entries, key)
		return zero, false
	}
	return e.value, true
}

func (c *Expiring[T]) Set(key string, value T) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores value under key until ttl has passed. An existing entry
// keeps the later of the two expiries.
func (c *Expiring[T]) SetWithTTL(key string, value T, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expires := c.now().Add(ttl)
	if old, ok := c.entries[key]; ok && old.expires.After(expires) {
		expires = old.expires
	}
	c.entries[key] = entry[T]{key: key, value: value, expires: expires}
}

func (c *Expiring[T]) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// CleanExpired drops every expired entry and reports how many it dropped.
func (c *Expiring[T]) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for k, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

// Size counts stored entries, including expired ones not yet swept.
func (c *Expiring[T]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
