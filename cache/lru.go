// Package cache implements the in-memory caches of spec.md §4.11: a
// generic LRU+TTL cache, a search result cache, an embedding cache, and a
// category name/alias/hierarchy index. The first three build on
// github.com/hashicorp/golang-lru/v2/expirable (seen across the example
// pack's go.mod manifests, e.g. Aman-CERP-amanmcp), chosen because its
// single package covers both the TTL-bearing search cache and the
// never-expiring embedding cache (TTL 0); the category index is a set of
// maps behind a sync.RWMutex.
package cache

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// Stats reports hit/miss counters for a cache (spec.md §4.3's hit-metric
// shape, reused here for the in-memory caches).
type Stats struct {
	Hits   int64
	Misses int64
}

// HitRate returns hits / (hits + misses), or 0 when the cache has never
// been queried.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// LRU is a generic capacity-bounded, optionally TTL-bounded cache.
type LRU[K comparable, V any] struct {
	c     *lru.LRU[K, V]
	stats Stats
}

// New creates an LRU cache holding at most capacity entries, each expiring
// ttl after insertion. A zero ttl means entries never expire by time (only
// by LRU eviction), matching the embedding cache's use in spec.md §4.6.
func New[K comparable, V any](capacity int, ttl time.Duration) *LRU[K, V] {
	return &LRU[K, V]{c: lru.NewLRU[K, V](capacity, nil, ttl)}
}

// Get returns the cached value for key, tracking the lookup in Stats.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	v, ok := c.c.Get(key)
	if ok {
		c.stats.Hits++
	} else {
		c.stats.Misses++
	}
	return v, ok
}

// Put inserts or replaces the cached value for key.
func (c *LRU[K, V]) Put(key K, value V) {
	c.c.Add(key, value)
}

// Len returns the number of entries currently cached.
func (c *LRU[K, V]) Len() int {
	return c.c.Len()
}

// Stats returns the cache's cumulative hit/miss counters.
func (c *LRU[K, V]) Stats() Stats {
	return c.stats
}

// Purge discards every cached entry, keeping the cache's capacity and TTL.
func (c *LRU[K, V]) Purge() {
	c.c.Purge()
}
