package pipeline

import (
	"testing"
)

func TestCheckpointStoreStartsFreshWhenMissing(t *testing.T) {
	dir := t.TempDir()
	cs, err := OpenCheckpointStore(dir)
	if err != nil {
		t.Fatalf("OpenCheckpointStore() error = %v", err)
	}
	if cs.IsProcessed("abc") {
		t.Fatal("expected fresh checkpoint to have nothing processed")
	}
}

func TestCheckpointStoreMarkProcessedPersists(t *testing.T) {
	dir := t.TempDir()
	cs, err := OpenCheckpointStore(dir)
	if err != nil {
		t.Fatalf("OpenCheckpointStore() error = %v", err)
	}
	if err := cs.MarkProcessed("a.pdf", "hash1"); err != nil {
		t.Fatalf("MarkProcessed() error = %v", err)
	}
	if !cs.IsProcessed("hash1") {
		t.Fatal("expected hash1 to be processed")
	}

	reopened, err := OpenCheckpointStore(dir)
	if err != nil {
		t.Fatalf("re-opening checkpoint error = %v", err)
	}
	if !reopened.IsProcessed("hash1") {
		t.Fatal("expected reopened checkpoint to remember hash1")
	}
}

func TestCheckpointStoreMarkFailedDoesNotMarkProcessed(t *testing.T) {
	dir := t.TempDir()
	cs, _ := OpenCheckpointStore(dir)
	if err := cs.MarkFailed("bad.pdf"); err != nil {
		t.Fatalf("MarkFailed() error = %v", err)
	}
	snap := cs.Snapshot()
	if snap.TotalFailed != 1 {
		t.Fatalf("TotalFailed = %d, want 1", snap.TotalFailed)
	}
	if len(snap.FailedFiles) != 1 || snap.FailedFiles[0] != "bad.pdf" {
		t.Fatalf("FailedFiles = %v, want [bad.pdf]", snap.FailedFiles)
	}
	if len(snap.ProcessedHashes) != 0 || snap.TotalProcessed != 0 {
		t.Fatalf("ProcessedHashes = %v, TotalProcessed = %d, want none", snap.ProcessedHashes, snap.TotalProcessed)
	}
}

func TestCheckpointStoreAdvanceStage(t *testing.T) {
	dir := t.TempDir()
	cs, _ := OpenCheckpointStore(dir)
	if err := cs.AdvanceStage(StageComplete); err != nil {
		t.Fatalf("AdvanceStage() error = %v", err)
	}
	if cs.Snapshot().Stage != StageComplete {
		t.Fatalf("Stage = %v, want %v", cs.Snapshot().Stage, StageComplete)
	}
}
