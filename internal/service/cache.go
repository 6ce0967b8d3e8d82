package service

import (
	"context"
	"sync"
	"time"
)

// sweepFactor is how many cache durations an entry survives before the sweep
// evicts it. Expired entries are never served even before eviction
const sweepFactor = 10

// Clock returns the current time
type Clock func() time.Time

type cacheEntry struct {
	status   int
	body     []byte
	storedAt time.Time
}

// ResponseCache memoizes successful responses by request key for a fixed
// duration
type ResponseCache struct {
	mu         sync.RWMutex
	entries    map[string]cacheEntry
	ttl        time.Duration
	generation uint64
	now        Clock
}

// NewResponseCache creates a ResponseCache whose entries are servable for ttl
func NewResponseCache(ttl time.Duration, now Clock) *ResponseCache {
	if now == nil {
		now = time.Now
	}
	return &ResponseCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     now,
	}
}

// Get returns the cached status and body for key when present and fresh
func (c *ResponseCache) Get(key string) (int, []byte, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return 0, nil, false
	}
	if c.now().Sub(entry.storedAt) >= c.ttl {
		return 0, nil, false
	}
	return entry.status, entry.body, true
}

// Generation returns the current invalidation generation. Capture it before
// producing a response and pass it to Put
func (c *ResponseCache) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}

// Put stores a response computed during generation gen. Responses computed
// before the latest Invalidate are dropped
func (c *ResponseCache) Put(key string, status int, body []byte, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return false
	}
	c.entries[key] = cacheEntry{status: status, body: body, storedAt: c.now()}
	return true
}

// Invalidate drops every entry
func (c *ResponseCache) Invalidate() {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry)
	c.generation++
	c.mu.Unlock()
}

// Sweep evicts entries older than sweepFactor cache durations and returns
// how many were removed
func (c *ResponseCache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	cutoff := c.ttl * sweepFactor
	now := c.now()
	removed := 0
	for k, e := range c.entries {
		if now.Sub(e.storedAt) > cutoff {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored entries, expired or not
func (c *ResponseCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Run sweeps every interval until ctx is cancelled
func (c *ResponseCache) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Sweep()
		}
	}
}
