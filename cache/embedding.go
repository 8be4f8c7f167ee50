package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// EmbeddingCache caches embedding vectors keyed on (model_id, sha256(text))
// per spec.md §4.6, never expiring (ttl=0) since a given model+text pair's
// embedding is immutable.
type EmbeddingCache struct {
	lru *LRU[string, []float32]
}

// NewEmbeddingCache creates an EmbeddingCache with the given entry capacity.
func NewEmbeddingCache(capacity int) *EmbeddingCache {
	return &EmbeddingCache{lru: New[string, []float32](capacity, 0)}
}

// Get returns the cached embedding for (modelID, text), if present.
func (c *EmbeddingCache) Get(modelID, text string) ([]float32, bool) {
	return c.lru.Get(embeddingKey(modelID, text))
}

// Put caches vec for (modelID, text).
func (c *EmbeddingCache) Put(modelID, text string, vec []float32) {
	c.lru.Put(embeddingKey(modelID, text), vec)
}

// Stats returns the cache's cumulative hit/miss counters.
func (c *EmbeddingCache) Stats() Stats {
	return c.lru.Stats()
}

func embeddingKey(modelID, text string) string {
	sum := sha256.Sum256([]byte(text))
	return modelID + ":" + hex.EncodeToString(sum[:])
}
