package cache

import (
	"testing"
	"time"
)

func TestLRUPutGet(t *testing.T) {
	c := New[string, int](10, 0)
	c.Put("a", 1)
	v, ok := c.Get("a")
	if !ok || v != 1 {
		t.Fatalf("Get(a) = %v, %v, want 1, true", v, ok)
	}
}

func TestLRUMissTracksStats(t *testing.T) {
	c := New[string, int](10, 0)
	if _, ok := c.Get("missing"); ok {
		t.Fatal("expected miss")
	}
	c.Put("a", 1)
	c.Get("a")
	stats := c.Stats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Fatalf("stats = %+v, want 1 hit, 1 miss", stats)
	}
}

func TestLRUEviction(t *testing.T) {
	c := New[string, int](2, 0)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("c", 3)
	if _, ok := c.Get("a"); ok {
		t.Fatal("expected a to be evicted")
	}
	if c.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", c.Len())
	}
}

func TestLRUExpiry(t *testing.T) {
	c := New[string, int](10, 10*time.Millisecond)
	c.Put("a", 1)
	time.Sleep(30 * time.Millisecond)
	if _, ok := c.Get("a"); ok {
		t.Fatal("expected entry to have expired")
	}
}

func TestLRUPurge(t *testing.T) {
	c := New[string, int](10, 0)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Purge()
	if c.Len() != 0 {
		t.Fatalf("Len() after Purge = %d, want 0", c.Len())
	}
}

func TestHitRate(t *testing.T) {
	s := Stats{}
	if s.HitRate() != 0 {
		t.Fatalf("HitRate() on empty stats = %v, want 0", s.HitRate())
	}
	s = Stats{Hits: 3, Misses: 1}
	if s.HitRate() != 0.75 {
		t.Fatalf("HitRate() = %v, want 0.75", s.HitRate())
	}
}
