package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"time"
)

// SearchCache caches Hybrid Search Service results keyed on
// sha256(query + sorted options), default capacity 1000, TTL 5 minutes
// (spec.md §4.8 step 1, §4.11). Cleared on index build since the
// underlying tables change out from under it.
type SearchCache struct {
	lru *LRU[string, any]
}

// DefaultSearchCacheCapacity and DefaultSearchCacheTTL match spec.md §4.11.
const (
	DefaultSearchCacheCapacity = 1000
	DefaultSearchCacheTTL      = 5 * time.Minute
)

// NewSearchCache creates a SearchCache with the given capacity and TTL.
func NewSearchCache(capacity int, ttl time.Duration) *SearchCache {
	return &SearchCache{lru: New[string, any](capacity, ttl)}
}

// Key builds the cache key for a query against a set of string options
// (e.g. collection name, limit, filters), sorted so option order does not
// affect the key.
func Key(query string, options ...string) string {
	sorted := append([]string(nil), options...)
	sort.Strings(sorted)
	sum := sha256.Sum256([]byte(query + "\x00" + strings.Join(sorted, "\x00")))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached result for key, if present and not expired.
func (c *SearchCache) Get(key string) (any, bool) {
	return c.lru.Get(key)
}

// Put caches result under key.
func (c *SearchCache) Put(key string, result any) {
	c.lru.Put(key, result)
}

// Stats returns the cache's cumulative hit/miss counters.
func (c *SearchCache) Stats() Stats {
	return c.lru.Stats()
}

// Clear discards every cached entry, used after an index build replaces
// the underlying tables (spec.md §4.11: "Cleared on index build").
func (c *SearchCache) Clear() {
	c.lru.Purge()
}
