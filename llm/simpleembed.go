package llm

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
)

// simpleEmbeddingDim is the vector width produced by the simple embedder,
// matching the default embedding_dim used elsewhere in the system
// (spec.md §4.6).
const simpleEmbeddingDim = 384

// simpleEmbedder is the local, deterministic, dependency-free fallback
// embedding provider (spec.md §4.6's "simple" provider). It hashes each
// token of the input into one of simpleEmbeddingDim buckets and projects a
// signed weight into that bucket — a minimal bag-of-hashed-tokens
// embedding, L2-normalized so cosine and dot-product distance agree.
// It has no Chat capability; Chat always returns an error.
type simpleEmbedder struct {
	dim int
}

// NewSimpleEmbedder creates the local hash-projection embedder.
func NewSimpleEmbedder(cfg Config) Provider {
	dim := simpleEmbeddingDim
	return &simpleEmbedder{dim: dim}
}

func (e *simpleEmbedder) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	return nil, fmt.Errorf("simple provider has no chat capability; configure openai, openrouter, or huggingface for concept extraction")
}

func (e *simpleEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = hashEmbed(text, e.dim)
	}
	return out, nil
}

func hashEmbed(text string, dim int) []float32 {
	vec := make([]float32, dim)
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(tok))
		sum := h.Sum32()
		bucket := int(sum % uint32(dim))
		// Use one extra hash bit as a sign so opposite tokens can cancel
		// rather than every token only adding mass to its bucket.
		sign := float32(1)
		if sum&(1<<31) == 0 {
			sign = -1
		}
		vec[bucket] += sign
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return vec
	}
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}
