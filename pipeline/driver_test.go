//go:build cgo

package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/conceptrag/conceptrag/cache"
	"github.com/conceptrag/conceptrag/chunker"
	"github.com/conceptrag/conceptrag/concept"
	"github.com/conceptrag/conceptrag/llm"
	"github.com/conceptrag/conceptrag/parser"
	"github.com/conceptrag/conceptrag/store"
)

// fakeLoader loads any ".fake" file as a single page containing the raw
// file content, for pipeline tests that don't need real PDF/EPUB parsing.
type fakeLoader struct{}

func (fakeLoader) SupportedExtensions() []string { return []string{".fake"} }

func (fakeLoader) Load(ctx context.Context, path string) (*parser.LoadResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &parser.LoadResult{
		Pages:    []parser.Page{{PageNumber: 1, Text: string(data)}},
		Metadata: map[string]string{"title": "Fake Document"},
	}, nil
}

// fakeProvider is a deterministic llm.Provider for pipeline tests.
type fakeProvider struct{}

func (fakeProvider) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	last := req.Messages[len(req.Messages)-1].Content
	if contains(last, "concept extraction") {
		return &llm.ChatResponse{Content: `{"primary_concepts": ["entropy"], "categories": ["physics"]}`}, nil
	}
	return &llm.ChatResponse{Content: "a short overview of the document"}, nil
}

func (fakeProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vecs := make([][]float32, len(texts))
	for i := range texts {
		vecs[i] = []float32{0.1, 0.2, 0.3, 0.4}
	}
	return vecs, nil
}

func contains(haystack, needle string) bool {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return true
		}
	}
	return false
}

func newTestDriver(t *testing.T, s *store.Store) *Driver {
	t.Helper()
	dbRoot := t.TempDir()

	registry := parser.NewRegistry(nil)
	registry.Register(fakeLoader{})

	checkpoint, err := OpenCheckpointStore(dbRoot)
	if err != nil {
		t.Fatalf("OpenCheckpointStore() error = %v", err)
	}
	stageCache, err := NewStageCache(dbRoot, 0)
	if err != nil {
		t.Fatalf("NewStageCache() error = %v", err)
	}

	provider := fakeProvider{}
	return NewDriver(
		s,
		registry,
		chunker.New(chunker.Config{MaxChars: 1000, Overlap: 100}),
		concept.NewExtractor(provider),
		concept.NewOverviewBuilder(provider),
		provider,
		provider,
		cache.NewEmbeddingCache(100),
		checkpoint,
		stageCache,
		NopSink{},
	)
}

func TestDriverRunIngestsDocument(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := store.New(dbPath, 4)
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	sourceDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(sourceDir, "doc1.fake"), []byte("a document about entropy and physics"), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	d := newTestDriver(t, s)
	if err := d.Run(context.Background(), Config{SourceDir: sourceDir, Parallel: 1, UseCache: true}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	entries, err := s.Catalog().List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("len(catalog) = %d, want 1", len(entries))
	}
	if entries[0].Title != "Fake Document" {
		t.Fatalf("Title = %q, want %q", entries[0].Title, "Fake Document")
	}

	concepts, err := s.Concepts().List(context.Background())
	if err != nil {
		t.Fatalf("Concepts().List() error = %v", err)
	}
	if len(concepts) != 1 || concepts[0].Name != "entropy" {
		t.Fatalf("concepts = %v, want [entropy]", concepts)
	}
}

func TestDriverRunPreservesDocumentOnResumedRun(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := store.New(dbPath, 4)
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	sourceDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(sourceDir, "doc1.fake"), []byte("a document about entropy"), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	dbRoot := t.TempDir()
	registry := parser.NewRegistry(nil)
	registry.Register(fakeLoader{})
	checkpoint, _ := OpenCheckpointStore(dbRoot)
	stageCache, _ := NewStageCache(dbRoot, 0)
	provider := fakeProvider{}
	d := NewDriver(s, registry, chunker.New(chunker.Config{}), concept.NewExtractor(provider), concept.NewOverviewBuilder(provider), provider, provider, cache.NewEmbeddingCache(100), checkpoint, stageCache, NopSink{})

	if err := d.Run(context.Background(), Config{SourceDir: sourceDir, Parallel: 1, UseCache: true}); err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	if err := d.Run(context.Background(), Config{SourceDir: sourceDir, Parallel: 1, UseCache: true}); err != nil {
		t.Fatalf("second Run() error = %v", err)
	}

	// The document's checkpoint and stage cache are both intact on the
	// second run, so its LLM stages are skipped — but it must still
	// contribute a DocumentRecord, since concept.Build rebuilds the whole
	// snapshot from the records returned and store.WriteSnapshot deletes
	// and replaces every table. A resumed run must leave the same row
	// counts as a single clean run, never an emptied snapshot.
	entries, err := s.Catalog().List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("len(catalog) = %d, want 1 (resumed run must preserve the document)", len(entries))
	}

	concepts, err := s.Concepts().List(context.Background())
	if err != nil {
		t.Fatalf("Concepts().List() error = %v", err)
	}
	if len(concepts) != 1 || concepts[0].Name != "entropy" {
		t.Fatalf("concepts = %v, want [entropy]", concepts)
	}
}
