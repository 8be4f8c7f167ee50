package cache

import "testing"

func TestSearchCacheKeyStableUnderOptionOrder(t *testing.T) {
	k1 := Key("query", "limit=10", "collection=docs")
	k2 := Key("query", "collection=docs", "limit=10")
	if k1 != k2 {
		t.Fatal("expected key to be stable regardless of option order")
	}
}

func TestSearchCacheKeyDiffersForDifferentQuery(t *testing.T) {
	k1 := Key("query one")
	k2 := Key("query two")
	if k1 == k2 {
		t.Fatal("expected different keys for different queries")
	}
}

func TestSearchCachePutGet(t *testing.T) {
	c := NewSearchCache(DefaultSearchCacheCapacity, DefaultSearchCacheTTL)
	key := Key("concept search", "limit=5")
	c.Put(key, []string{"result-a", "result-b"})

	got, ok := c.Get(key)
	if !ok {
		t.Fatal("expected cache hit")
	}
	results, ok := got.([]string)
	if !ok || len(results) != 2 {
		t.Fatalf("Get() = %v, want 2-element slice", got)
	}
}

func TestSearchCacheClear(t *testing.T) {
	c := NewSearchCache(DefaultSearchCacheCapacity, DefaultSearchCacheTTL)
	key := Key("query")
	c.Put(key, "result")

	c.Clear()

	if _, ok := c.Get(key); ok {
		t.Fatal("expected cache to be empty after Clear")
	}
}
