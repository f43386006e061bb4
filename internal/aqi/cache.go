package aqi

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultCacheTTL bounds how long an aggregated result is served without
// re-querying the providers.
const DefaultCacheTTL = 300 * time.Second

// ResultCache is a concurrency-safe TTL cache for aggregated results, keyed
// by rounded coordinates. Entries are evicted lazily on lookup; there is no
// background sweep.
type ResultCache struct {
	ttl   time.Duration
	clock clockwork.Clock

	mu      sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	value    *AggregatedResult
	storedAt time.Time
}

// NewResultCache creates a cache. A zero TTL selects the default; a nil clock
// selects the real clock (tests inject a fake).
func NewResultCache(ttl time.Duration, clock clockwork.Clock) *ResultCache {
	if ttl == 0 {
		ttl = DefaultCacheTTL
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &ResultCache{
		ttl:     ttl,
		clock:   clock,
		entries: make(map[string]cacheEntry),
	}
}

// Get returns the cached result for key, or nil if absent or expired.
// Expired entries are removed on the way out.
func (c *ResultCache) Get(key string) *AggregatedResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil
	}
	if c.clock.Now().Sub(entry.storedAt) >= c.ttl {
		delete(c.entries, key)
		return nil
	}
	return entry.value
}

// Set stores a result under key, unconditionally overwriting any previous
// entry and restarting its TTL.
func (c *ResultCache) Set(key string, value *AggregatedResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{value: value, storedAt: c.clock.Now()}
}

// Len returns the number of entries currently held, including any that have
// expired but not yet been evicted.
func (c *ResultCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
