package cache

import "testing"

func TestEmbeddingCachePutGet(t *testing.T) {
	c := NewEmbeddingCache(10)
	vec := []float32{0.1, 0.2, 0.3}
	c.Put("model-a", "hello world", vec)

	got, ok := c.Get("model-a", "hello world")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if len(got) != len(vec) || got[0] != vec[0] {
		t.Fatalf("Get() = %v, want %v", got, vec)
	}
}

func TestEmbeddingCacheDistinctModels(t *testing.T) {
	c := NewEmbeddingCache(10)
	c.Put("model-a", "text", []float32{1})
	c.Put("model-b", "text", []float32{2})

	a, _ := c.Get("model-a", "text")
	b, _ := c.Get("model-b", "text")
	if a[0] == b[0] {
		t.Fatal("expected distinct entries per model id")
	}
}

func TestEmbeddingCacheMiss(t *testing.T) {
	c := NewEmbeddingCache(10)
	if _, ok := c.Get("model-a", "unseen"); ok {
		t.Fatal("expected miss for unseen text")
	}
	stats := c.Stats()
	if stats.Misses != 1 {
		t.Fatalf("Misses = %d, want 1", stats.Misses)
	}
}
