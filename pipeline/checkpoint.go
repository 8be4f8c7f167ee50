package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/renameio/v2"
)

// CheckpointStage enumerates the checkpoint's coarse-grained progress
// marker (spec.md §4.9).
type CheckpointStage string

const (
	StageDocuments CheckpointStage = "documents"
	StageConcepts  CheckpointStage = "concepts"
	StageSummaries CheckpointStage = "summaries"
	StageComplete  CheckpointStage = "complete"
)

// checkpointVersion is bumped whenever the on-disk shape changes
// incompatibly; readers of an unknown version start fresh rather than
// guess at a migration.
const checkpointVersion = 1

// Checkpoint is the single JSON file at the database root tracking
// ingestion progress across restarts (spec.md §4.9). It is advisory: the
// stage cache (§4.3) is authoritative for LLM cost avoidance.
type Checkpoint struct {
	ProcessedHashes []string        `json:"processedHashes"`
	Stage           CheckpointStage `json:"stage"`
	LastFile        string          `json:"lastFile"`
	LastUpdatedAt   time.Time       `json:"lastUpdatedAt"`
	TotalProcessed  int             `json:"totalProcessed"`
	TotalFailed     int             `json:"totalFailed"`
	FailedFiles     []string        `json:"failedFiles"`
	Version         int             `json:"version"`
}

// CheckpointStore guards a Checkpoint with atomic, temp-file-then-rename
// writes (spec.md §4.9), mirroring the stage cache's write discipline.
type CheckpointStore struct {
	mu         sync.Mutex
	path       string
	checkpoint Checkpoint
	processed  map[string]bool
}

// checkpointFileName is the fixed file name at the database root.
const checkpointFileName = "checkpoint.json"

// OpenCheckpointStore loads the checkpoint at {dbRoot}/checkpoint.json, or
// starts a fresh one if the file is missing or carries an unrecognized
// version.
func OpenCheckpointStore(dbRoot string) (*CheckpointStore, error) {
	path := filepath.Join(dbRoot, checkpointFileName)

	cs := &CheckpointStore{path: path, processed: make(map[string]bool)}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cs.checkpoint = Checkpoint{Stage: StageDocuments, Version: checkpointVersion}
			return cs, nil
		}
		return nil, fmt.Errorf("reading checkpoint: %w", err)
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil || cp.Version != checkpointVersion {
		cs.checkpoint = Checkpoint{Stage: StageDocuments, Version: checkpointVersion}
		return cs, nil
	}

	cs.checkpoint = cp
	for _, h := range cp.ProcessedHashes {
		cs.processed[h] = true
	}
	return cs, nil
}

// IsProcessed reports whether hash has already completed ingestion
// according to the checkpoint. Callers must still confirm the stage cache
// entry is intact before skipping LLM calls (spec.md §4.1 step 2).
func (cs *CheckpointStore) IsProcessed(hash string) bool {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.processed[hash]
}

// MarkProcessed records hash as having completed its last stage and
// persists the checkpoint atomically.
func (cs *CheckpointStore) MarkProcessed(fileName, hash string) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if !cs.processed[hash] {
		cs.processed[hash] = true
		cs.checkpoint.ProcessedHashes = append(cs.checkpoint.ProcessedHashes, hash)
		cs.checkpoint.TotalProcessed++
	}
	cs.checkpoint.LastFile = fileName
	cs.checkpoint.LastUpdatedAt = now()
	return cs.persistLocked()
}

// MarkFailed records a document as failed without marking its hash
// processed, so a restart retries it.
func (cs *CheckpointStore) MarkFailed(fileName string) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	cs.checkpoint.FailedFiles = append(cs.checkpoint.FailedFiles, fileName)
	cs.checkpoint.TotalFailed++
	cs.checkpoint.LastUpdatedAt = now()
	return cs.persistLocked()
}

// AdvanceStage moves the checkpoint to stage and persists it.
func (cs *CheckpointStore) AdvanceStage(stage CheckpointStage) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.checkpoint.Stage = stage
	cs.checkpoint.LastUpdatedAt = now()
	return cs.persistLocked()
}

// Snapshot returns a copy of the current checkpoint state.
func (cs *CheckpointStore) Snapshot() Checkpoint {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cp := cs.checkpoint
	cp.ProcessedHashes = append([]string(nil), cs.checkpoint.ProcessedHashes...)
	cp.FailedFiles = append([]string(nil), cs.checkpoint.FailedFiles...)
	return cp
}

// persistLocked writes the checkpoint via a temp file in the same
// directory followed by an atomic rename (spec.md §4.9), using
// github.com/google/renameio/v2 the same way the stage cache does.
func (cs *CheckpointStore) persistLocked() error {
	cs.checkpoint.Version = checkpointVersion
	data, err := json.MarshalIndent(cs.checkpoint, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling checkpoint: %w", err)
	}
	if err := renameio.WriteFile(cs.path, data, 0o644); err != nil {
		return fmt.Errorf("writing checkpoint: %w", err)
	}
	return nil
}

// now is a seam so tests can stub the clock; production always uses
// time.Now.
var now = time.Now
