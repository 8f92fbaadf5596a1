package cache

import (
	"context"
	"sync"
	"time"
)

// PageCache holds rendered page bodies for a short interval. The global feed
// is the only consumer: it checks the cache before querying and stores the
// rendered page on a miss. Entries expire only by TTL; writes to posts never
// invalidate them, so a page may be stale for up to the TTL.
type PageCache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string, ttl time.Duration)
}

type entry struct {
	value     string
	timestamp time.Time
	ttl       time.Duration
}

// Memory is an in-process PageCache. It is the default when no redis address
// is configured, and what the tests run against.
type Memory struct {
	mu    sync.RWMutex
	items map[string]entry
}

func NewMemory() *Memory {
	return &Memory{items: make(map[string]entry)}
}

// Get returns the value and true if the key is present and fresh.
func (c *Memory) Get(_ context.Context, key string) (string, bool) {
	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		return "", false
	}
	if time.Since(e.timestamp) > e.ttl {
		// Re-check under the write lock: a Set may have refreshed the entry
		// between the two locks, and a fresh value must not be dropped.
		c.mu.Lock()
		if cur, present := c.items[key]; present && time.Since(cur.timestamp) > cur.ttl {
			delete(c.items, key)
		}
		c.mu.Unlock()
		return "", false
	}
	return e.value, true
}

// Set inserts or overwrites key.
func (c *Memory) Set(_ context.Context, key, value string, ttl time.Duration) {
	c.mu.Lock()
	c.items[key] = entry{value: value, timestamp: time.Now(), ttl: ttl}
	c.mu.Unlock()
}

// Size returns the current number of entries, fresh or not.
func (c *Memory) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
