// Package conceptrag wires the document loader, chunker, concept
// extractor, pipeline driver, and hybrid search service into the
// operation surface of spec.md §6.
package conceptrag

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"strings"

	"github.com/conceptrag/conceptrag/cache"
	"github.com/conceptrag/conceptrag/chunker"
	"github.com/conceptrag/conceptrag/concept"
	"github.com/conceptrag/conceptrag/llm"
	"github.com/conceptrag/conceptrag/parser"
	"github.com/conceptrag/conceptrag/pipeline"
	"github.com/conceptrag/conceptrag/query"
	"github.com/conceptrag/conceptrag/store"
)

// Engine is the composition root: it owns the store and every collaborator
// wired from Config, and exposes the operation surface of spec.md §6.
type Engine struct {
	cfg      Config
	store    *store.Store
	chatLLM  llm.Provider
	embedLLM llm.Provider
	registry *parser.Registry
	chunkr   *chunker.Chunker

	embedCache *cache.EmbeddingCache
	searchCache *cache.SearchCache

	expander *query.Expander
	search   *query.Service
	compose  *query.Composer
}

// New creates an Engine from cfg, opening (or creating) the database and
// every in-process collaborator (spec.md §5: everything runs in one
// process against one SQLite file).
func New(cfg Config) (*Engine, error) {
	dbPath := cfg.resolveDBPath()
	if cfg.EmbeddingDim == 0 {
		cfg.EmbeddingDim = 384
	}

	s, err := store.New(dbPath, cfg.EmbeddingDim)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	chatLLM, err := llm.NewProvider(llm.Config{
		Provider: cfg.Chat.Provider, Model: cfg.Chat.Model,
		BaseURL: cfg.Chat.BaseURL, APIKey: cfg.Chat.APIKey,
	})
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("creating chat provider: %w", err)
	}
	embedLLM, err := llm.NewProvider(llm.Config{
		Provider: cfg.Embedding.Provider, Model: cfg.Embedding.Model,
		BaseURL: cfg.Embedding.BaseURL, APIKey: cfg.Embedding.APIKey,
	})
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("creating embedding provider: %w", err)
	}

	registry := parser.NewRegistry(nil)
	chunkr := chunker.New(chunker.DefaultConfig())

	embedCache := cache.NewEmbeddingCache(cfg.Caches.EmbeddingCapacity)
	searchTTL := cfg.Caches.SearchTTL
	searchCapacity := cfg.Caches.SearchCapacity
	if searchCapacity == 0 {
		searchCapacity = cache.DefaultSearchCacheCapacity
	}
	if searchTTL == 0 {
		searchTTL = cache.DefaultSearchCacheTTL
	}
	searchCache := cache.NewSearchCache(searchCapacity, searchTTL)

	expander := query.NewExpander(s.Concepts(), embedLLM, nil)
	searchSvc := query.NewService(s, embedLLM, expander, searchCache)
	compose := query.NewComposer(s, searchSvc)

	return &Engine{
		cfg:         cfg,
		store:       s,
		chatLLM:     chatLLM,
		embedLLM:    embedLLM,
		registry:    registry,
		chunkr:      chunkr,
		embedCache:  embedCache,
		searchCache: searchCache,
		expander:    expander,
		search:      searchSvc,
		compose:     compose,
	}, nil
}

// Close shuts down the engine's store.
func (e *Engine) Close() error {
	return e.store.Close()
}

// Store returns the underlying store for diagnostic access.
func (e *Engine) Store() *store.Store {
	return e.store
}

// Build runs a full index build over sourceDir (spec.md §4.1-§4.2),
// replacing the entire four-table snapshot atomically on success. The
// search cache is cleared afterward since the tables it scored against no
// longer exist (spec.md §4.11).
func (e *Engine) Build(ctx context.Context, sourceDir string) error {
	checkpoint, err := pipeline.OpenCheckpointStore(e.dbRoot())
	if err != nil {
		return fmt.Errorf("opening checkpoint: %w", err)
	}
	stageCache, err := pipeline.NewStageCache(e.dbRoot(), e.cfg.Caches.StageTTL)
	if err != nil {
		return fmt.Errorf("opening stage cache: %w", err)
	}

	extractor := concept.NewExtractor(e.chatLLM)
	overview := concept.NewOverviewBuilder(e.chatLLM)

	driver := pipeline.NewDriver(e.store, e.registry, e.chunkr, extractor, overview,
		e.embedLLM, e.chatLLM, e.embedCache, checkpoint, stageCache, nil)

	parallel := e.cfg.Pipeline.Parallel
	if parallel <= 0 {
		parallel = runtime.NumCPU()
	}

	err = driver.Run(ctx, pipeline.Config{
		SourceDir:       sourceDir,
		Parallel:        parallel,
		Overwrite:       e.cfg.Pipeline.Overwrite,
		UseCache:        e.cfg.Pipeline.UseCache,
		CleanCheckpoint: e.cfg.Pipeline.CleanCheckpoint,
		MaxDocs:         e.cfg.Pipeline.MaxDocs,
	})
	if err != nil {
		return fmt.Errorf("running index build: %w", err)
	}

	e.searchCache.Clear()
	return nil
}

func (e *Engine) dbRoot() string {
	return e.cfg.resolveDBPath() + ".d"
}

// CatalogHit is one catalog_search result (spec.md §6).
type CatalogHit struct {
	Source        string
	Summary       string
	Scores        query.Scores
	ExpandedTerms []string
}

// CatalogSearch implements spec.md §6's catalog_search operation.
func (e *Engine) CatalogSearch(ctx context.Context, text string, debug bool) ([]CatalogHit, error) {
	results, err := e.search.Search(ctx, query.CollectionCatalog, text, query.Options{Debug: debug})
	if err != nil {
		return nil, NewEngineError(KindDependencyFailure, "catalog_search", err)
	}
	hits := make([]CatalogHit, len(results))
	for i, r := range results {
		hits[i] = CatalogHit{Source: r.Source, Summary: r.Text, Scores: r.Scores, ExpandedTerms: r.ExpandedTerms}
	}
	return hits, nil
}

// ChunkHit is one broad_chunks_search / chunks_search result (spec.md §6).
type ChunkHit struct {
	Text          string
	Source        string
	Scores        query.Scores
	ExpandedTerms []string
}

const broadChunksLimit = 20

// BroadChunksSearch implements spec.md §6's broad_chunks_search operation
// (unscoped, top 20).
func (e *Engine) BroadChunksSearch(ctx context.Context, text string, debug bool) ([]ChunkHit, error) {
	results, err := e.search.Search(ctx, query.CollectionChunk, text, query.Options{Limit: broadChunksLimit, Debug: debug})
	if err != nil {
		return nil, NewEngineError(KindDependencyFailure, "broad_chunks_search", err)
	}
	return e.hydrateChunkHits(ctx, results), nil
}

// ChunksSearch implements spec.md §6's chunks_search operation, scoped to
// one document (top 20).
func (e *Engine) ChunksSearch(ctx context.Context, text, source string, debug bool) ([]ChunkHit, error) {
	results, err := e.search.Search(ctx, query.CollectionChunk, text, query.Options{
		Limit: broadChunksLimit, Debug: debug, SourceFilter: source,
	})
	if err != nil {
		return nil, NewEngineError(KindDependencyFailure, "chunks_search", err)
	}
	return e.hydrateChunkHits(ctx, results), nil
}

// hydrateChunkHits resolves each chunk result's owning catalog source path
// for display (the scorer works in ids; the operation surface works in
// source paths, per spec.md §6's { text, source, ... } shape).
func (e *Engine) hydrateChunkHits(ctx context.Context, results []query.SearchResult) []ChunkHit {
	hits := make([]ChunkHit, 0, len(results))
	sourceCache := make(map[int64]string)
	for _, r := range results {
		source, ok := sourceCache[r.CatalogID]
		if !ok {
			if entry, found, err := e.store.Catalog().FindByID(ctx, r.CatalogID); err == nil && found {
				source = entry.Source
			}
			sourceCache[r.CatalogID] = source
		}
		hits = append(hits, ChunkHit{Text: r.Text, Source: source, Scores: r.Scores, ExpandedTerms: r.ExpandedTerms})
	}
	return hits
}

// ConceptSourceRef is one entry in ConceptDetail.Sources (spec.md §6's
// concept_search sources[{title, pages[], match_type, via_concept?}]).
type ConceptSourceRef struct {
	Title      string
	Source     string
	Pages      []int
	MatchType  string // "primary" or "related"
	ViaConcept string
}

// ConceptChunkRef is one entry in ConceptDetail.Chunks.
type ConceptChunkRef struct {
	Text           string
	Title          string
	Page           int
	ConceptDensity float64
	Concepts       []string
}

// ConceptStats summarizes a concept_search result (spec.md §6's "stats").
type ConceptStats struct {
	SourceCount int
	ChunkCount  int
}

// ConceptDetail is concept_search's full return shape (spec.md §6).
type ConceptDetail struct {
	Concept         string
	ConceptID       int64
	Summary         string
	RelatedConcepts []string
	Synonyms        []string
	BroaderTerms    []string
	NarrowerTerms   []string
	Sources         []ConceptSourceRef
	Chunks          []ConceptChunkRef
	Stats           ConceptStats
	Scores          *query.Scores
}

const conceptSearchDefaultLimit = 20

// ConceptSearch implements spec.md §6's concept_search operation: resolve
// concept by exact name, falling back to the concept hybrid search when
// there is no exact match, then assemble the concept's related terms,
// sources (primary and, through related concepts, indirect), and matching
// chunks.
func (e *Engine) ConceptSearch(ctx context.Context, conceptName string, limit int, sourceFilter string, debug bool) (*ConceptDetail, error) {
	if strings.TrimSpace(conceptName) == "" {
		return nil, NewEngineError(KindValidation, "concept_search", ErrEmptyQuery)
	}
	if limit <= 0 {
		limit = conceptSearchDefaultLimit
	}

	c, ok, err := e.store.Concepts().FindByName(ctx, conceptName)
	if err != nil {
		return nil, NewEngineError(KindDependencyFailure, "concept_search lookup", err)
	}
	if !ok {
		results, serr := e.compose.SearchConcepts(ctx, conceptName, 1)
		if serr != nil {
			return nil, NewEngineError(KindDependencyFailure, "concept_search fallback", serr)
		}
		if len(results) == 0 {
			return nil, NewEngineError(KindNotFound, "concept_search", ErrConceptNotFound)
		}
		c, ok, err = e.store.Concepts().FindByID(ctx, results[0].ID)
		if err != nil || !ok {
			return nil, NewEngineError(KindNotFound, "concept_search", ErrConceptNotFound)
		}
	}

	related, err := e.store.Concepts().FindByIDs(ctx, c.RelatedIDs)
	if err != nil {
		return nil, NewEngineError(KindDependencyFailure, "concept_search related", err)
	}
	relatedNames := make([]string, 0, len(related))
	for _, r := range related {
		relatedNames = append(relatedNames, r.Name)
	}

	sources, err := e.conceptSources(ctx, c, related, sourceFilter)
	if err != nil {
		return nil, err
	}

	chunks, err := e.store.Chunks().FindByConceptID(ctx, c.ID, limit)
	if err != nil {
		return nil, NewEngineError(KindDependencyFailure, "concept_search chunks", err)
	}
	chunkRefs := make([]ConceptChunkRef, 0, len(chunks))
	for _, ch := range chunks {
		if sourceFilter != "" {
			entry, found, err := e.store.Catalog().FindByID(ctx, ch.CatalogID)
			if err != nil || !found || entry.Source != sourceFilter {
				continue
			}
		}
		names, err := conceptNames(ctx, e.store.Concepts(), ch.ConceptIDs)
		if err != nil {
			return nil, NewEngineError(KindDependencyFailure, "concept_search chunk concepts", err)
		}
		page := 0
		if ch.PageNumber != nil {
			page = *ch.PageNumber
		}
		title := ""
		if entry, found, _ := e.store.Catalog().FindByID(ctx, ch.CatalogID); found {
			title = entry.Title
		}
		chunkRefs = append(chunkRefs, ConceptChunkRef{
			Text: ch.Text, Title: title, Page: page,
			ConceptDensity: ch.ConceptDensity, Concepts: names,
		})
	}

	detail := &ConceptDetail{
		Concept:         c.Name,
		ConceptID:       c.ID,
		Summary:         c.Summary,
		RelatedConcepts: relatedNames,
		Synonyms:        c.Synonyms,
		BroaderTerms:    c.BroaderTerms,
		NarrowerTerms:   c.NarrowerTerms,
		Sources:         sources,
		Chunks:          chunkRefs,
		Stats:           ConceptStats{SourceCount: len(sources), ChunkCount: len(chunkRefs)},
	}

	if debug {
		scored, err := e.search.Search(ctx, query.CollectionConcept, conceptName, query.Options{Limit: 1, Debug: true})
		if err == nil && len(scored) > 0 {
			detail.Scores = &scored[0].Scores
		}
	}
	return detail, nil
}

// conceptSources assembles the primary (concept.CatalogIDs) and related
// (via each related concept's own CatalogIDs) source list for
// ConceptSearch, annotating each with the pages where the concept appears.
func (e *Engine) conceptSources(ctx context.Context, c store.Concept, related []store.Concept, sourceFilter string) ([]ConceptSourceRef, error) {
	var refs []ConceptSourceRef
	seen := make(map[int64]bool)

	addSource := func(catalogID int64, matchType, via string) error {
		if seen[catalogID] {
			return nil
		}
		entry, ok, err := e.store.Catalog().FindByID(ctx, catalogID)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if sourceFilter != "" && entry.Source != sourceFilter {
			return nil
		}
		seen[catalogID] = true

		pages, err := e.store.Pages().FindByCatalog(ctx, catalogID)
		if err != nil {
			return err
		}
		var pageNumbers []int
		for _, p := range pages {
			for _, id := range p.ConceptIDs {
				if id == c.ID {
					pageNumbers = append(pageNumbers, p.PageNumber)
					break
				}
			}
		}

		refs = append(refs, ConceptSourceRef{
			Title: entry.Title, Source: entry.Source, Pages: pageNumbers,
			MatchType: matchType, ViaConcept: via,
		})
		return nil
	}

	for _, catalogID := range c.CatalogIDs {
		if err := addSource(catalogID, "primary", ""); err != nil {
			return nil, NewEngineError(KindDependencyFailure, "concept_search primary sources", err)
		}
	}
	for _, r := range related {
		for _, catalogID := range r.CatalogIDs {
			if err := addSource(catalogID, "related", r.Name); err != nil {
				return nil, NewEngineError(KindDependencyFailure, "concept_search related sources", err)
			}
		}
	}
	return refs, nil
}

// ExtractConcepts implements spec.md §6's extract_concepts operation:
// resolve documentQuery to a catalog entry (exact path, falling back to
// catalog hybrid search) and render its already-extracted concepts.
func (e *Engine) ExtractConcepts(ctx context.Context, documentQuery, format string, includeSummary bool) (string, error) {
	entry, ok, err := e.compose.FindBySource(ctx, documentQuery)
	if err != nil {
		return "", NewEngineError(KindDependencyFailure, "extract_concepts", err)
	}
	if !ok {
		return "", NewEngineError(KindNotFound, "extract_concepts", ErrDocumentNotFound)
	}

	concepts, err := e.store.Concepts().FindByIDs(ctx, entry.ConceptIDs)
	if err != nil {
		return "", NewEngineError(KindDependencyFailure, "extract_concepts concepts", err)
	}

	switch format {
	case "markdown":
		return renderConceptsMarkdown(entry, concepts, includeSummary), nil
	default:
		return renderConceptsJSON(entry, concepts, includeSummary), nil
	}
}

func renderConceptsMarkdown(entry store.CatalogEntry, concepts []store.Concept, includeSummary bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", entry.Title)
	if includeSummary && entry.Summary != "" {
		fmt.Fprintf(&b, "%s\n\n", entry.Summary)
	}
	b.WriteString("## Concepts\n\n")
	for _, c := range concepts {
		fmt.Fprintf(&b, "- **%s** (%s)", c.Name, c.ConceptType)
		if c.Summary != "" {
			fmt.Fprintf(&b, " — %s", c.Summary)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func renderConceptsJSON(entry store.CatalogEntry, concepts []store.Concept, includeSummary bool) string {
	var b strings.Builder
	b.WriteString("{")
	fmt.Fprintf(&b, `"source":%q,"title":%q`, entry.Source, entry.Title)
	if includeSummary {
		fmt.Fprintf(&b, `,"summary":%q`, entry.Summary)
	}
	b.WriteString(`,"concepts":[`)
	for i, c := range concepts {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, `{"name":%q,"type":%q,"summary":%q}`, c.Name, c.ConceptType, c.Summary)
	}
	b.WriteString("]}")
	return b.String()
}

// SourceDocRef is one entry in SourceConcepts' deduplicated result.
type SourceDocRef struct {
	Source         string
	Title          string
	ConceptIndices []int // positions in the input concept list that matched this source
}

// SourceConcepts implements spec.md §6's source_concepts operation: a
// deduplicated union of every source any input concept appears in, each
// annotated with which input positions matched it.
func (e *Engine) SourceConcepts(ctx context.Context, concepts []string, includeMetadata bool) ([]SourceDocRef, error) {
	bySource := make(map[int64]*SourceDocRef)
	var order []int64

	for idx, name := range concepts {
		c, ok, err := e.store.Concepts().FindByName(ctx, name)
		if err != nil {
			return nil, NewEngineError(KindDependencyFailure, "source_concepts", err)
		}
		if !ok {
			continue
		}
		for _, catalogID := range c.CatalogIDs {
			ref, seen := bySource[catalogID]
			if !seen {
				entry, ok, err := e.store.Catalog().FindByID(ctx, catalogID)
				if err != nil {
					return nil, NewEngineError(KindDependencyFailure, "source_concepts hydrate", err)
				}
				if !ok {
					continue
				}
				ref = &SourceDocRef{Source: entry.Source}
				if includeMetadata {
					ref.Title = entry.Title
				}
				bySource[catalogID] = ref
				order = append(order, catalogID)
			}
			ref.ConceptIndices = append(ref.ConceptIndices, idx)
		}
	}

	out := make([]SourceDocRef, 0, len(order))
	for _, id := range order {
		out = append(out, *bySource[id])
	}
	return out, nil
}

// ConceptSources implements spec.md §6's concept_sources operation: a
// position-preserving, non-deduplicated array of source lists, one per
// input concept.
func (e *Engine) ConceptSources(ctx context.Context, concepts []string, includeMetadata bool) ([][]SourceDocRef, error) {
	out := make([][]SourceDocRef, len(concepts))
	for i, name := range concepts {
		c, ok, err := e.store.Concepts().FindByName(ctx, name)
		if err != nil {
			return nil, NewEngineError(KindDependencyFailure, "concept_sources", err)
		}
		if !ok {
			continue
		}
		var refs []SourceDocRef
		for _, catalogID := range c.CatalogIDs {
			entry, ok, err := e.store.Catalog().FindByID(ctx, catalogID)
			if err != nil {
				return nil, NewEngineError(KindDependencyFailure, "concept_sources hydrate", err)
			}
			if !ok {
				continue
			}
			ref := SourceDocRef{Source: entry.Source}
			if includeMetadata {
				ref.Title = entry.Title
			}
			refs = append(refs, ref)
		}
		out[i] = refs
	}
	return out, nil
}

// CategoryResult is category_search's return shape.
type CategoryResult struct {
	Category  store.Category
	Documents []store.CatalogEntry
}

// CategorySearch implements spec.md §6's category_search operation,
// optionally folding in every descendant category's documents.
func (e *Engine) CategorySearch(ctx context.Context, categoryName string, includeChildren bool, limit int) (*CategoryResult, error) {
	cat, ok, err := e.resolveCategory(ctx, categoryName)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, NewEngineError(KindNotFound, "category_search", ErrCategoryNotFound)
	}

	docs, err := e.compose.DocumentsIn(ctx, cat.ID)
	if err != nil {
		return nil, NewEngineError(KindDependencyFailure, "category_search documents", err)
	}

	if includeChildren {
		seen := make(map[int64]bool, len(docs))
		for _, d := range docs {
			seen[d.ID] = true
		}
		visited := map[int64]bool{cat.ID: true}
		queue := []int64{cat.ID}
		for len(queue) > 0 {
			children, err := e.store.Categories().Children(ctx, queue[0])
			if err != nil {
				return nil, NewEngineError(KindDependencyFailure, "category_search children", err)
			}
			queue = queue[1:]
			for _, child := range children {
				if visited[child.ID] {
					continue
				}
				visited[child.ID] = true
				queue = append(queue, child.ID)
				childDocs, err := e.compose.DocumentsIn(ctx, child.ID)
				if err != nil {
					return nil, NewEngineError(KindDependencyFailure, "category_search child documents", err)
				}
				for _, d := range childDocs {
					if !seen[d.ID] {
						seen[d.ID] = true
						docs = append(docs, d)
					}
				}
			}
		}
	}

	if limit > 0 && len(docs) > limit {
		docs = docs[:limit]
	}
	return &CategoryResult{Category: cat, Documents: docs}, nil
}

// resolveCategory looks up a category by exact name, falling back to a
// case-insensitive alias match (spec.md §4.2's curated alias seeding).
func (e *Engine) resolveCategory(ctx context.Context, name string) (store.Category, bool, error) {
	cat, ok, err := e.store.Categories().FindByName(ctx, name)
	if err != nil {
		return store.Category{}, false, NewEngineError(KindDependencyFailure, "resolve_category", err)
	}
	if ok {
		return cat, true, nil
	}

	all, err := e.store.Categories().List(ctx)
	if err != nil {
		return store.Category{}, false, NewEngineError(KindDependencyFailure, "resolve_category list", err)
	}
	lower := strings.ToLower(name)
	for _, c := range all {
		for _, alias := range c.Aliases {
			if strings.ToLower(alias) == lower {
				return c, true, nil
			}
		}
	}
	return store.Category{}, false, nil
}

// ListCategories implements spec.md §6's list_categories operation.
func (e *Engine) ListCategories(ctx context.Context, sortBy string, limit int, search string) ([]store.Category, error) {
	all, err := e.store.Categories().List(ctx)
	if err != nil {
		return nil, NewEngineError(KindDependencyFailure, "list_categories", err)
	}

	if search != "" {
		lower := strings.ToLower(search)
		filtered := all[:0]
		for _, c := range all {
			if strings.Contains(strings.ToLower(c.Name), lower) {
				filtered = append(filtered, c)
			}
		}
		all = filtered
	}

	sortCategories(all, sortBy)

	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func sortCategories(categories []store.Category, sortBy string) {
	sort.Slice(categories, func(i, j int) bool {
		switch sortBy {
		case "document_count":
			return categories[i].DocumentCount > categories[j].DocumentCount
		case "concept_count":
			return categories[i].ConceptCount > categories[j].ConceptCount
		case "chunk_count":
			return categories[i].ChunkCount > categories[j].ChunkCount
		default: // "name"
			return categories[i].Name < categories[j].Name
		}
	})
}

// ListConceptsInCategory implements spec.md §6's
// list_concepts_in_category operation.
func (e *Engine) ListConceptsInCategory(ctx context.Context, categoryName, sortBy string, limit int) ([]store.Concept, error) {
	cat, ok, err := e.resolveCategory(ctx, categoryName)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, NewEngineError(KindNotFound, "list_concepts_in_category", ErrCategoryNotFound)
	}

	concepts, err := e.compose.ConceptsIn(ctx, cat.ID)
	if err != nil {
		return nil, NewEngineError(KindDependencyFailure, "list_concepts_in_category", err)
	}

	sort.Slice(concepts, func(i, j int) bool {
		if sortBy == "weight" {
			return concepts[i].Weight > concepts[j].Weight
		}
		return concepts[i].Name < concepts[j].Name
	})

	if limit > 0 && len(concepts) > limit {
		concepts = concepts[:limit]
	}
	return concepts, nil
}

func conceptNames(ctx context.Context, repo *store.ConceptRepository, ids []int64) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	concepts, err := repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(concepts))
	for _, c := range concepts {
		names = append(names, c.Name)
	}
	return names, nil
}
