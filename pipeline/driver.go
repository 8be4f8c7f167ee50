package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/conceptrag/conceptrag/cache"
	"github.com/conceptrag/conceptrag/chunker"
	"github.com/conceptrag/conceptrag/concept"
	"github.com/conceptrag/conceptrag/llm"
	"github.com/conceptrag/conceptrag/parser"
	"github.com/conceptrag/conceptrag/store"
)

// Config controls one pipeline run (spec.md §4.1 inputs).
type Config struct {
	SourceDir       string
	Parallel        int
	Overwrite       bool
	UseCache        bool
	CleanCheckpoint bool
	MaxDocs         int
}

// Driver walks a source directory and ingests every candidate document
// into the four-table snapshot (spec.md §4.1-§4.2), grounded on the
// teacher's Ingest method in goreason.go and the semaphore-bounded worker
// idiom in graph/builder.go's Build.
type Driver struct {
	store      *store.Store
	registry   *parser.Registry
	chunker    *chunker.Chunker
	extractor  *concept.Extractor
	overview   *concept.OverviewBuilder
	embed      llm.Provider
	chat       llm.Provider
	embedCache *cache.EmbeddingCache
	checkpoint *CheckpointStore
	stageCache *StageCache
	sink       ProgressSink
}

// NewDriver wires a Driver's collaborators. sink may be nil (treated as
// NopSink). embed is used for every vector embedding; chat is used for the
// category-description LLM post-pass (spec.md §4.2) — the two are
// typically different providers (e.g. a deterministic local embedder
// paired with a hosted chat model), so the driver must not reuse embed
// for chat calls.
func NewDriver(s *store.Store, registry *parser.Registry, chunkr *chunker.Chunker, extractor *concept.Extractor, overview *concept.OverviewBuilder, embed llm.Provider, chat llm.Provider, embedCache *cache.EmbeddingCache, checkpoint *CheckpointStore, stageCache *StageCache, sink ProgressSink) *Driver {
	if sink == nil {
		sink = NopSink{}
	}
	return &Driver{
		store:      s,
		registry:   registry,
		chunker:    chunkr,
		extractor:  extractor,
		overview:   overview,
		embed:      embed,
		chat:       chat,
		embedCache: embedCache,
		checkpoint: checkpoint,
		stageCache: stageCache,
		sink:       sink,
	}
}

// candidateFile is one discovered document before hashing.
type candidateFile struct {
	path string
}

// Run executes the full ingestion algorithm (spec.md §4.1): discover,
// dispatch to a bounded worker pool in input order, process each
// document's stages, then build and write the index.
func (d *Driver) Run(ctx context.Context, cfg Config) error {
	if cfg.CleanCheckpoint {
		if err := d.checkpoint.AdvanceStage(StageDocuments); err != nil {
			return fmt.Errorf("resetting checkpoint: %w", err)
		}
	}

	files, err := d.discover(cfg.SourceDir, cfg.MaxDocs)
	if err != nil {
		return fmt.Errorf("discovering documents: %w", err)
	}

	parallel := cfg.Parallel
	if parallel <= 0 {
		parallel = defaultParallel()
	}

	var (
		mu   sync.Mutex
		docs []concept.DocumentRecord
		wg   sync.WaitGroup
	)

	jobs := make(chan candidateFile)
	go func() {
		defer close(jobs)
		for _, f := range files {
			select {
			case jobs <- f:
			case <-ctx.Done():
				return
			}
		}
	}()

	for w := 0; w < parallel; w++ {
		wg.Add(1)
		go func(workerIndex int) {
			defer wg.Done()
			for job := range jobs {
				rec, err := d.processOne(ctx, workerIndex, job.path, cfg)
				if err != nil {
					slog.Warn("pipeline: document failed", "file", job.path, "error", err)
					if mErr := d.checkpoint.MarkFailed(job.path); mErr != nil {
						slog.Warn("pipeline: failed to record checkpoint failure", "error", mErr)
					}
					continue
				}
				if rec == nil {
					// processOne returns a record for every document it does
					// not fail on; a nil record is skipped defensively.
					continue
				}
				mu.Lock()
				docs = append(docs, *rec)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()

	if err := d.checkpoint.AdvanceStage(StageComplete); err != nil {
		return fmt.Errorf("advancing checkpoint: %w", err)
	}

	snap := concept.Build(docs)
	if err := d.fillCategoryDescriptions(ctx, &snap); err != nil {
		slog.Warn("pipeline: category description pass failed", "error", err)
	}
	d.embedConceptsAndCategories(ctx, &snap)

	if err := d.store.WriteSnapshot(ctx, snap); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return nil
}

// discover walks sourceDir for files the registry has a loader for
// (spec.md §4.1 step 1), honoring maxDocs if positive.
func (d *Driver) discover(sourceDir string, maxDocs int) ([]candidateFile, error) {
	var files []candidateFile
	err := filepath.WalkDir(sourceDir, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		if _, lErr := d.registry.Get(path); lErr != nil {
			return nil
		}
		files = append(files, candidateFile{path: path})
		if maxDocs > 0 && len(files) >= maxDocs {
			return filepath.SkipAll
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// processOne runs one document through Load, Chunk, stage-cache
// lookup/LLM calls, and checkpoint update (spec.md §4.1 step 4). Every
// discovered document contributes a DocumentRecord, even when its LLM
// stages are skipped via an intact stage-cache entry: concept.Build
// rebuilds the whole snapshot from the returned records and
// store.WriteSnapshot deletes-and-replaces every table, so a document
// excluded here would vanish from the rebuilt tables on any incremental
// or resumed run. The stage cache exists only to avoid repeat LLM cost,
// never to exclude a document from the snapshot.
func (d *Driver) processOne(ctx context.Context, workerIndex int, path string, cfg Config) (*concept.DocumentRecord, error) {
	name := filepath.Base(path)
	hash, err := fileHash(path)
	if err != nil {
		return nil, fmt.Errorf("hashing %s: %w", path, err)
	}

	alreadyProcessed := !cfg.Overwrite && d.checkpoint.IsProcessed(hash)
	if alreadyProcessed {
		d.sink.Report(Event{WorkerIndex: workerIndex, Stage: "skip", DocumentName: name, Status: StatusProcessing})
	}

	d.sink.Report(Event{WorkerIndex: workerIndex, Stage: "load", DocumentName: name, Status: StatusProcessing})
	loader, err := d.registry.Get(path)
	if err != nil {
		return nil, fmt.Errorf("no loader for %s: %w", path, err)
	}
	loaded, err := loader.Load(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	catalogID := store.CatalogID(absPath)

	d.sink.Report(Event{WorkerIndex: workerIndex, Stage: "chunk", DocumentName: name, Status: StatusProcessing})
	chunks := d.chunker.Chunk(catalogID, loaded.Pages)

	var entry StageCacheEntry
	var fromCache bool
	if cfg.UseCache && !cfg.Overwrite {
		entry, fromCache = d.stageCache.Get(hash)
	}

	if !fromCache {
		d.sink.Report(Event{WorkerIndex: workerIndex, Stage: "concepts", DocumentName: name, Status: StatusWaiting})
		fullText := joinPages(loaded.Pages)

		overview, err := d.overview.Build(ctx, fullText)
		if err != nil {
			return nil, fmt.Errorf("content overview for %s: %w", path, err)
		}
		concepts, err := d.extractor.Extract(ctx, fullText)
		if err != nil {
			return nil, fmt.Errorf("concept extraction for %s: %w", path, err)
		}

		entry = StageCacheEntry{
			Hash:            hash,
			Source:          absPath,
			ProcessedAt:     now(),
			Concepts:        concepts,
			ContentOverview: overview,
			Metadata:        loaded.Metadata,
		}
		if err := d.stageCache.Put(entry); err != nil {
			return nil, fmt.Errorf("writing stage cache for %s: %w", path, err)
		}
	}

	d.sink.Report(Event{WorkerIndex: workerIndex, Stage: "embed", DocumentName: name, Status: StatusProcessing, TotalChunks: len(chunks)})
	docVector, chunkVectors, err := d.embedDocument(ctx, entry.ContentOverview, chunks)
	if err != nil {
		return nil, fmt.Errorf("embedding %s: %w", path, err)
	}
	for i := range chunks {
		chunks[i].Vector = chunkVectors[i]
	}

	title := entry.Metadata["title"]
	if title == "" {
		title = strings.TrimSuffix(name, filepath.Ext(name))
	}

	if err := d.checkpoint.MarkProcessed(name, hash); err != nil {
		return nil, fmt.Errorf("updating checkpoint for %s: %w", path, err)
	}
	d.sink.Report(Event{WorkerIndex: workerIndex, Stage: "done", DocumentName: name, Status: StatusDone})

	var pages []concept.PageInput
	for _, p := range loaded.Pages {
		pages = append(pages, concept.PageInput{PageNumber: p.PageNumber, Text: p.Text})
	}

	return &concept.DocumentRecord{
		CatalogID:       catalogID,
		Source:          absPath,
		Title:           title,
		Author:          entry.Metadata["author"],
		ContentOverview: entry.ContentOverview,
		Vector:          docVector,
		Concepts:        entry.Concepts,
		Chunks:          chunks,
		Pages:           pages,
	}, nil
}

// embedDocument embeds the document's overview and every chunk's text,
// consulting the embedding cache per (model, text) pair (spec.md §4.6).
func (d *Driver) embedDocument(ctx context.Context, overview string, chunks []store.Chunk) ([]float32, [][]float32, error) {
	modelID := "default"

	docVector, err := d.embedOne(ctx, modelID, overview)
	if err != nil {
		return nil, nil, err
	}

	vectors := make([][]float32, len(chunks))
	for i, c := range chunks {
		v, err := d.embedOne(ctx, modelID, c.Text)
		if err != nil {
			return nil, nil, err
		}
		vectors[i] = v
	}
	return docVector, vectors, nil
}

func (d *Driver) embedOne(ctx context.Context, modelID, text string) ([]float32, error) {
	if v, ok := d.embedCache.Get(modelID, text); ok {
		return v, nil
	}
	vecs, err := d.embed.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 {
		return nil, fmt.Errorf("embedding provider returned no vectors")
	}
	d.embedCache.Put(modelID, text, vecs[0])
	return vecs[0], nil
}

// fillCategoryDescriptions resolves each category's description against
// the store's incremental summary cache (spec.md §4.2: "an LLM post-pass
// using an incremental cache of previously summarized categories keyed by
// category.name"), calling the LLM only for names the cache hasn't seen
// before.
func (d *Driver) fillCategoryDescriptions(ctx context.Context, snap *store.Snapshot) error {
	cats := d.store.Categories()
	for i := range snap.Categories {
		cat := &snap.Categories[i]

		if cached, ok, err := cats.SummaryCacheGet(ctx, cat.Name); err != nil {
			return fmt.Errorf("reading category summary cache for %q: %w", cat.Name, err)
		} else if ok {
			cat.Description = cached
			continue
		}

		resp, err := d.chat.Chat(ctx, llm.ChatRequest{
			Messages: []llm.Message{{Role: "user", Content: llm.BuildCategoryDescriptionPrompt(cat.Name)}},
		})
		if err != nil {
			slog.Warn("pipeline: category description failed", "category", cat.Name, "error", err)
			continue
		}
		description := strings.TrimSpace(resp.Content)
		cat.Description = description
		if err := cats.SummaryCachePut(ctx, cat.Name, description); err != nil {
			return fmt.Errorf("writing category summary cache for %q: %w", cat.Name, err)
		}
	}
	return nil
}

// embedConceptsAndCategories embeds every concept's name+summary and
// category's name+description after the build pass, since concept and
// category identity are only settled once merging across documents is
// complete (spec.md §4.2).
func (d *Driver) embedConceptsAndCategories(ctx context.Context, snap *store.Snapshot) {
	for i := range snap.Concepts {
		c := &snap.Concepts[i]
		text := c.Name
		if c.Summary != "" {
			text = c.Name + ": " + c.Summary
		}
		v, err := d.embedOne(ctx, "default", text)
		if err != nil {
			slog.Warn("pipeline: concept embedding failed", "concept", c.Name, "error", err)
			continue
		}
		c.Vector = v
	}
	for i := range snap.Categories {
		cat := &snap.Categories[i]
		text := cat.Name
		if cat.Description != "" {
			text = cat.Name + ": " + cat.Description
		}
		v, err := d.embedOne(ctx, "default", text)
		if err != nil {
			slog.Warn("pipeline: category embedding failed", "category", cat.Name, "error", err)
			continue
		}
		cat.Vector = v
	}
}

func joinPages(pages []parser.Page) string {
	var sb strings.Builder
	for i, p := range pages {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(p.Text)
	}
	return sb.String()
}

// fileHash computes the SHA-256 hash of a file's content, identical in
// technique to the teacher's fileHash in goreason.go.
func fileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// defaultParallel is the pool size used when Config.Parallel is unset
// (spec.md §5: "default equal to CPU count, overridable").
func defaultParallel() int {
	n := runtime.NumCPU()
	if n <= 0 {
		n = 4
	}
	return n
}
