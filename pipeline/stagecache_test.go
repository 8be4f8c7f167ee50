package pipeline

import (
	"os"
	"testing"
	"time"

	"github.com/conceptrag/conceptrag/llm"
)

func writeRawFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing test file: %v", err)
	}
}

func TestStageCacheMissWhenAbsent(t *testing.T) {
	sc, err := NewStageCache(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("NewStageCache() error = %v", err)
	}
	if _, ok := sc.Get("nonexistent"); ok {
		t.Fatal("expected miss for nonexistent hash")
	}
	if sc.Stats().Misses != 1 {
		t.Fatalf("Misses = %d, want 1", sc.Stats().Misses)
	}
}

func TestStageCachePutGet(t *testing.T) {
	sc, err := NewStageCache(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("NewStageCache() error = %v", err)
	}
	entry := StageCacheEntry{
		Hash:            "hash1",
		Source:          "/docs/a.pdf",
		ProcessedAt:     time.Now(),
		Concepts:        llm.ConceptExtractionResult{Categories: []string{"science"}},
		ContentOverview: "an overview",
	}
	if err := sc.Put(entry); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, ok := sc.Get("hash1")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got.ContentOverview != "an overview" {
		t.Fatalf("ContentOverview = %q, want %q", got.ContentOverview, "an overview")
	}
}

func TestStageCacheExpiredEntryIsMiss(t *testing.T) {
	sc, err := NewStageCache(t.TempDir(), 10*time.Millisecond)
	if err != nil {
		t.Fatalf("NewStageCache() error = %v", err)
	}
	entry := StageCacheEntry{Hash: "hash1", ProcessedAt: time.Now().Add(-1 * time.Hour)}
	if err := sc.Put(entry); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if _, ok := sc.Get("hash1"); ok {
		t.Fatal("expected expired entry to be a miss")
	}
}

func TestStageCacheMalformedFileIsMiss(t *testing.T) {
	dir := t.TempDir()
	sc, err := NewStageCache(dir, 0)
	if err != nil {
		t.Fatalf("NewStageCache() error = %v", err)
	}
	writeRawFile(t, sc.pathFor("broken"), "{not valid json")

	if _, ok := sc.Get("broken"); ok {
		t.Fatal("expected malformed entry to be a miss")
	}
}
