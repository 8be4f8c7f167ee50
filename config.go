package conceptrag

import (
	"os"
	"path/filepath"
	"time"
)

// Config holds all configuration for a Concept-RAG Engine (spec.md §6's
// enumerated configuration options).
type Config struct {
	// DBPath is the full path to the SQLite database file. If empty,
	// defaults to ~/.conceptrag/<DBName>.db.
	DBPath string `json:"db_path" yaml:"db_path"`

	// DBName names the database file when DBPath is empty. Defaults to
	// "conceptrag".
	DBName string `json:"db_name" yaml:"db_name"`

	// StorageDir controls where the database is created when DBPath is
	// not set. "home" (default) uses ~/.conceptrag/, "local" uses the
	// current working directory.
	StorageDir string `json:"storage_dir" yaml:"storage_dir"`

	// Embedding configures the embedding provider (spec.md §6:
	// "embedding.provider in {simple, openai, openrouter, huggingface}").
	Embedding LLMConfig `json:"embedding" yaml:"embedding"`

	// Chat configures the provider used for concept extraction, content
	// overviews and category descriptions (spec.md §6's
	// "llm.summary_model, llm.concept_model, llm.base_url" — both roles
	// share one provider here since the pipeline's two LLM-facing
	// contracts, §4.4's concept extraction and §4.2's overview/category
	// description, are both satisfied by one chat-capable provider).
	Chat LLMConfig `json:"chat" yaml:"chat"`

	// Pipeline controls one index build run (spec.md §6's "pipeline.*").
	Pipeline PipelineConfig `json:"pipeline" yaml:"pipeline"`

	// Caches sizes and lifetimes the in-memory caches of spec.md §4.11.
	Caches CachesConfig `json:"caches" yaml:"caches"`

	// Resilience configures the retry/breaker/rate-limit/bulkhead layer
	// of spec.md §4.10.
	Resilience ResilienceConfig `json:"resilience" yaml:"resilience"`

	// EmbeddingDim is the vector width stored in every vec0 table; must
	// match the configured embedding provider's output dimension.
	EmbeddingDim int `json:"embedding_dim" yaml:"embedding_dim"`
}

// LLMConfig configures a single LLM provider endpoint.
type LLMConfig struct {
	Provider string `json:"provider" yaml:"provider"` // simple, openai, openrouter, huggingface
	Model    string `json:"model" yaml:"model"`
	BaseURL  string `json:"base_url" yaml:"base_url"`
	APIKey   string `json:"api_key" yaml:"api_key"`
}

// PipelineConfig controls one index build run (spec.md §4.1-§4.2).
type PipelineConfig struct {
	Parallel        int  `json:"parallel" yaml:"parallel"`
	MaxDocs         int  `json:"max_docs" yaml:"max_docs"`
	UseCache        bool `json:"use_cache" yaml:"use_cache"`
	Overwrite       bool `json:"overwrite" yaml:"overwrite"`
	CleanCheckpoint bool `json:"clean_checkpoint" yaml:"clean_checkpoint"`
}

// CachesConfig sizes the embedding, search, and stage caches (spec.md
// §4.11, §4.3).
type CachesConfig struct {
	EmbeddingCapacity int           `json:"embedding_capacity" yaml:"embedding_capacity"`
	SearchCapacity    int           `json:"search_capacity" yaml:"search_capacity"`
	SearchTTL         time.Duration `json:"search_ttl_ms" yaml:"search_ttl_ms"`
	StageTTL          time.Duration `json:"stage_ttl_days" yaml:"stage_ttl_days"`
}

// ResilienceConfig configures the resilience layer (spec.md §4.10).
type ResilienceConfig struct {
	Retries               int           `json:"retries" yaml:"retries"`
	BreakerThreshold      int           `json:"circuit_breaker_threshold" yaml:"circuit_breaker_threshold"`
	BreakerCoolDown       time.Duration `json:"circuit_breaker_cool_down_ms" yaml:"circuit_breaker_cool_down_ms"`
	LLMTimeout            time.Duration `json:"llm_timeout_ms" yaml:"llm_timeout_ms"`
	EmbeddingTimeout      time.Duration `json:"embedding_timeout_ms" yaml:"embedding_timeout_ms"`
	RateLimitMinInterval  time.Duration `json:"rate_limit_min_interval_ms" yaml:"rate_limit_min_interval_ms"`
}

// DefaultConfig returns a Config with sensible defaults for local
// inference: the deterministic "simple" embedder (no network calls) and
// a database stored in ~/.conceptrag/conceptrag.db.
func DefaultConfig() Config {
	return Config{
		DBName:     "conceptrag",
		StorageDir: "home",
		Embedding: LLMConfig{
			Provider: "simple",
		},
		Chat: LLMConfig{
			Provider: "simple",
		},
		Pipeline: PipelineConfig{
			Parallel: 0, // resolved to runtime.NumCPU() by the pipeline driver
			UseCache: true,
		},
		Caches: CachesConfig{
			EmbeddingCapacity: 10000,
			SearchCapacity:    1000,
			SearchTTL:         5 * time.Minute,
			StageTTL:          7 * 24 * time.Hour,
		},
		Resilience: ResilienceConfig{
			Retries:              3,
			BreakerThreshold:     5,
			BreakerCoolDown:      30 * time.Second,
			LLMTimeout:           60 * time.Second,
			EmbeddingTimeout:     30 * time.Second,
			RateLimitMinInterval: 100 * time.Millisecond,
		},
		EmbeddingDim: 384,
	}
}

// resolveDBPath computes the final database path from config fields.
func (c *Config) resolveDBPath() string {
	if c.DBPath != "" {
		return c.DBPath
	}

	name := c.DBName
	if name == "" {
		name = "conceptrag"
	}

	switch c.StorageDir {
	case "local", "cwd":
		return name + ".db"
	default: // "home" or empty
		home, err := os.UserHomeDir()
		if err != nil {
			return name + ".db" // fallback to cwd
		}
		dir := filepath.Join(home, ".conceptrag")
		return filepath.Join(dir, name+".db")
	}
}
