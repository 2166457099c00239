package calendar

import (
	"context"
	"sync"
)

// Key identifies a memoized result: one event in one year.
type Key struct {
	Event string
	Year  int
}

// Cache memoizes located events. Implementations must be safe for
// concurrent use. A cache belongs to a single Calculator; results from a
// different oracle or midpoint rule must not be stored in it.
type Cache interface {
	// Lookup returns the stored result and whether one was found.
	Lookup(ctx context.Context, key Key) (Result, bool, error)
	// Store records a result, replacing any previous one.
	Store(ctx context.Context, key Key, result Result) error
}

// MemoryCache is an in-process Cache.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[Key]Result
}

var _ Cache = (*MemoryCache)(nil)

// NewMemoryCache creates an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[Key]Result)}
}

// Lookup implements Cache.
func (c *MemoryCache) Lookup(_ context.Context, key Key) (Result, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.entries[key]
	return r, ok, nil
}

// Store implements Cache.
func (c *MemoryCache) Store(_ context.Context, key Key, result Result) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = result
	return nil
}

// Len returns the number of stored results.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
