package cache

import (
	"context"
	"sync"
	"time"

	"stockpulse/backend/internal/domain"
)

type memoryEntry struct {
	report    domain.RangeAggregate
	expiresAt time.Time
}

// MemoryRangeReportCache is a process-local cache. Expired entries are swept
// on every Set since keys from older generations are never read again.
type MemoryRangeReportCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	hits    int
}

func NewMemoryRangeReportCache() *MemoryRangeReportCache {
	return &MemoryRangeReportCache{entries: make(map[string]memoryEntry)}
}

func (c *MemoryRangeReportCache) Get(_ context.Context, key string) (*domain.RangeAggregate, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if time.Now().After(entry.expiresAt) {
		delete(c.entries, key)
		return nil, false, nil
	}
	c.hits++
	report := entry.report
	return &report, true, nil
}

func (c *MemoryRangeReportCache) Set(_ context.Context, key string, value *domain.RangeAggregate, ttl time.Duration) error {
	if value == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for k, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, k)
		}
	}
	c.entries[key] = memoryEntry{report: *value, expiresAt: now.Add(ttl)}
	return nil
}

func (c *MemoryRangeReportCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *MemoryRangeReportCache) Hits() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits
}
