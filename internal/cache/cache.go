// Package cache memoizes ranking results per query signature so repeated API
// requests do not pay for a browser session.
package cache

import (
	"fmt"
	"sync"
	"time"

	"trendscope/internal/trend"
)

type entry struct {
	value   trend.Result
	expires time.Time
}

// Cache is a TTL map keyed by query signature. Expired entries are deleted
// lazily on read; no background sweep.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]entry
	now     func() time.Time
}

// New creates a cache whose entries live for ttl after each Set.
func New(ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Key derives the cache signature for a query. Distinct limits or regions
// must never share an entry.
func Key(limit int, region string) string {
	return fmt.Sprintf("trending:%d:%s", limit, region)
}

// Get returns the cached result for key, or false if absent or expired.
func (c *Cache) Get(key string) (trend.Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return trend.Result{}, false
	}
	if c.now().After(e.expires) {
		delete(c.entries, key)
		return trend.Result{}, false
	}
	return e.value, true
}

// Set stores value under key. Concurrent writers to the same key are not
// coordinated — last write wins, acceptable for idempotent recomputation.
func (c *Cache) Set(key string, value trend.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{value: value, expires: c.now().Add(c.ttl)}
}

// Len reports the current entry count, including not-yet-collected expired
// entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
