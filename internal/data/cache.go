package data

import (
	"sync"
	"time"
)

// CacheEntry is one memoised reference list.
type CacheEntry struct {
	Values    []string
	ExpiresAt time.Time
}

// ResponseCache memoises reference-list responses of the live client for a
// fixed TTL. A nil *ResponseCache is valid and caches nothing.
type ResponseCache struct {
	mu    sync.RWMutex
	store map[string]*CacheEntry
	ttl   time.Duration
	now   func() time.Time
}

// NewResponseCache returns nil (caching disabled) when ttl is not positive.
func NewResponseCache(ttl time.Duration) *ResponseCache {
	if ttl <= 0 {
		return nil
	}
	return &ResponseCache{
		store: make(map[string]*CacheEntry),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Get retrieves a cached list if available and not expired
func (c *ResponseCache) Get(key string) ([]string, bool) {
	if c == nil {
		return nil, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.store[key]
	if !exists || c.now().After(entry.ExpiresAt) {
		return nil, false
	}
	return append([]string{}, entry.Values...), true
}

// Set stores a list and drops any expired entries.
func (c *ResponseCache) Set(key string, values []string) {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for k, e := range c.store {
		if now.After(e.ExpiresAt) {
			delete(c.store, k)
		}
	}
	c.store[key] = &CacheEntry{
		Values:    append([]string{}, values...),
		ExpiresAt: now.Add(c.ttl),
	}
}

// Clear removes all entries from the cache
func (c *ResponseCache) Clear() {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.store = make(map[string]*CacheEntry)
}

func (c *ResponseCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}
