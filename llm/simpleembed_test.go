package llm

import (
	"context"
	"math"
	"testing"
)

func TestSimpleEmbedderDeterministic(t *testing.T) {
	e := NewSimpleEmbedder(Config{})
	a, err := e.Embed(context.Background(), []string{"hello world"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	b, err := e.Embed(context.Background(), []string{"hello world"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(a[0]) != simpleEmbeddingDim {
		t.Fatalf("expected dim %d, got %d", simpleEmbeddingDim, len(a[0]))
	}
	for i := range a[0] {
		if a[0][i] != b[0][i] {
			t.Fatalf("expected deterministic embedding, differed at index %d", i)
		}
	}
}

func TestSimpleEmbedderNormalized(t *testing.T) {
	e := NewSimpleEmbedder(Config{})
	vecs, err := e.Embed(context.Background(), []string{"the quick brown fox jumps over the lazy dog"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	var norm float64
	for _, v := range vecs[0] {
		norm += float64(v) * float64(v)
	}
	norm = math.Sqrt(norm)
	if math.Abs(norm-1.0) > 1e-6 {
		t.Fatalf("expected L2-normalized vector (norm ~1.0), got %v", norm)
	}
}

func TestSimpleEmbedderEmptyText(t *testing.T) {
	e := NewSimpleEmbedder(Config{})
	vecs, err := e.Embed(context.Background(), []string{""})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vecs[0]) != simpleEmbeddingDim {
		t.Fatalf("expected zero vector of dim %d, got len %d", simpleEmbeddingDim, len(vecs[0]))
	}
	for _, v := range vecs[0] {
		if v != 0 {
			t.Fatalf("expected all-zero vector for empty text, got nonzero component %v", v)
		}
	}
}

func TestSimpleEmbedderDistinctTexts(t *testing.T) {
	e := NewSimpleEmbedder(Config{})
	vecs, err := e.Embed(context.Background(), []string{"cats and dogs", "quantum mechanics"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	same := true
	for i := range vecs[0] {
		if vecs[0][i] != vecs[1][i] {
			same = false
			break
		}
	}
	if same {
		t.Fatal("expected distinct embeddings for unrelated texts")
	}
}
