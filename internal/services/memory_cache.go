package services

import (
	"context"
	"sync"
	"time"
)

type memoryCacheEntry struct {
	value     string
	expiresAt time.Time
}

// memoryCache is a process-local MasteryCache. Used when Redis is not
// configured, and in tests. Expired entries are dropped lazily on read.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryCacheEntry
	now     func() time.Time
}

func NewMemoryMasteryCache() MasteryCache {
	return &memoryCache{
		entries: map[string]memoryCacheEntry{},
		now:     time.Now,
	}
}

func (c *memoryCache) Get(ctx context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		return "", false, nil
	}
	if c.now().After(entry.expiresAt) {
		delete(c.entries, key)
		return "", false, nil
	}
	return entry.value, true, nil
}

func (c *memoryCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memoryCacheEntry{value: value, expiresAt: c.now().Add(ttl)}
	return nil
}
