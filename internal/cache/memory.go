package cache

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	value    []byte
	storedAt time.Time
	expires  time.Time
}

// MemoryCache is a concurrency-safe in-memory Cache.
type MemoryCache struct {
	mu sync.RWMutex

	data map[string]entry

	// retention configuration
	maxEntries int // 0 = unlimited

	now func() time.Time
}

// NewMemoryCache creates a MemoryCache. If maxEntries is <= 0, it is treated as unlimited.
func NewMemoryCache(maxEntries int) *MemoryCache {
	return &MemoryCache{
		data:       make(map[string]entry),
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// Get returns the cached value if present and not expired.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	e, ok := c.data[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}
	if !e.expires.IsZero() && !c.now().Before(e.expires) {
		c.mu.Lock()
		delete(c.data, key)
		c.mu.Unlock()
		return nil, false, nil
	}
	return e.value, true, nil
}

// Set stores value for ttl (ttl <= 0 never expires) and enforces retention.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	now := c.now()
	e := entry{value: append([]byte(nil), value...), storedAt: now}
	if ttl > 0 {
		e.expires = now.Add(ttl)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[key] = e

	// Drop expired entries, then the oldest ones while over capacity.
	for k, v := range c.data {
		if !v.expires.IsZero() && !now.Before(v.expires) {
			delete(c.data, k)
		}
	}
	for c.maxEntries > 0 && len(c.data) > c.maxEntries {
		var oldestKey string
		var oldest time.Time
		for k, v := range c.data {
			if oldestKey == "" || v.storedAt.Before(oldest) {
				oldestKey, oldest = k, v.storedAt
			}
		}
		delete(c.data, oldestKey)
	}
	return nil
}

// Len reports the number of stored entries, expired or not.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}
