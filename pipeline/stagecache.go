package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/renameio/v2"

	"github.com/conceptrag/conceptrag/llm"
)

// stageCacheDirName is the fixed subdirectory under the database root
// (spec.md §4.3: "{db_root}/.stage-cache/{hash}.json").
const stageCacheDirName = ".stage-cache"

// DefaultStageCacheTTL is the default expiry for a stage cache entry
// (spec.md §4.3: "default 7 days").
const DefaultStageCacheTTL = 7 * 24 * time.Hour

// StageCacheEntry is the record written per document (spec.md §4.3).
type StageCacheEntry struct {
	Hash            string                      `json:"hash"`
	Source          string                      `json:"source"`
	ProcessedAt     time.Time                    `json:"processedAt"`
	Concepts        llm.ConceptExtractionResult  `json:"concepts"`
	ContentOverview string                       `json:"contentOverview"`
	Metadata        map[string]string            `json:"metadata,omitempty"`
}

// StageCache is the content-addressed cache of per-document LLM output
// keyed by document_hash (spec.md §4.3), letting a restarted pipeline
// avoid re-spending LLM calls on documents it has already processed.
type StageCache struct {
	dir string
	ttl time.Duration

	mu     sync.Mutex
	hits   int64
	misses int64
}

// NewStageCache opens the stage cache directory under dbRoot, creating it
// if necessary.
func NewStageCache(dbRoot string, ttl time.Duration) (*StageCache, error) {
	if ttl <= 0 {
		ttl = DefaultStageCacheTTL
	}
	dir := filepath.Join(dbRoot, stageCacheDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating stage cache dir: %w", err)
	}
	return &StageCache{dir: dir, ttl: ttl}, nil
}

func (c *StageCache) pathFor(hash string) string {
	return filepath.Join(c.dir, hash+".json")
}

// Get looks up hash. A missing file, an expired entry (ProcessedAt older
// than the configured TTL), or a partially written file that fails to
// parse are all treated as a miss — spec.md §4.3: "Readers tolerate a
// missing file but reject a partially written one by JSON parse failure
// (retry = re-extract)."
func (c *StageCache) Get(hash string) (StageCacheEntry, bool) {
	data, err := os.ReadFile(c.pathFor(hash))
	if err != nil {
		c.recordMiss()
		return StageCacheEntry{}, false
	}

	var entry StageCacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		c.recordMiss()
		return StageCacheEntry{}, false
	}

	if c.ttl > 0 && time.Since(entry.ProcessedAt) > c.ttl {
		c.recordMiss()
		return StageCacheEntry{}, false
	}

	c.recordHit()
	return entry, true
}

// Put writes entry for hash, atomically (temp file in the same directory,
// then rename — spec.md §4.3's write discipline, realized with
// github.com/google/renameio/v2, the same package used by Aman-CERP-amanmcp
// in the example pack for durable single-file writes).
func (c *StageCache) Put(entry StageCacheEntry) error {
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling stage cache entry: %w", err)
	}
	if err := renameio.WriteFile(c.pathFor(entry.Hash), data, 0o644); err != nil {
		return fmt.Errorf("writing stage cache entry: %w", err)
	}
	return nil
}

func (c *StageCache) recordHit()  { atomic.AddInt64(&c.hits, 1) }
func (c *StageCache) recordMiss() { atomic.AddInt64(&c.misses, 1) }

// HitStats is the {hits, misses, hit_rate} triple spec.md §4.3 requires to
// be "tracked per pipeline invocation and exposed through the progress
// sink."
type HitStats struct {
	Hits    int64
	Misses  int64
	HitRate float64
}

// Stats returns the cache's cumulative hit/miss counters for this
// StageCache instance (i.e. this pipeline invocation).
func (c *StageCache) Stats() HitStats {
	hits := atomic.LoadInt64(&c.hits)
	misses := atomic.LoadInt64(&c.misses)
	total := hits + misses
	rate := 0.0
	if total > 0 {
		rate = float64(hits) / float64(total)
	}
	return HitStats{Hits: hits, Misses: misses, HitRate: rate}
}
