package query

import (
	"context"
	"fmt"

	"github.com/conceptrag/conceptrag/store"
)

// Composer layers the operations spec.md §4.5 describes that need both a
// repository and the Hybrid Search Service together — the repositories
// themselves (store/*_repository.go) only do raw table access.
type Composer struct {
	store  *store.Store
	search *Service
}

// NewComposer wires a Composer.
func NewComposer(s *store.Store, search *Service) *Composer {
	return &Composer{store: s, search: search}
}

// catalogFallbackThreshold is the minimum hybrid score a catalog search hit
// must clear to stand in for a missing exact source match (spec.md §4.5's
// find_by_source: "falls back to hybrid search" when there is no exact
// path match — a weak hit is worse than reporting not-found).
const catalogFallbackThreshold = 0.3

// FindBySource resolves source to a catalog entry by exact path match
// first, falling back to a catalog hybrid search over source when there is
// no exact row (spec.md §4.5).
func (c *Composer) FindBySource(ctx context.Context, source string) (store.CatalogEntry, bool, error) {
	entry, ok, err := c.store.Catalog().FindBySourceExact(ctx, source)
	if err != nil {
		return store.CatalogEntry{}, false, fmt.Errorf("find_by_source exact lookup: %w", err)
	}
	if ok {
		return entry, true, nil
	}

	results, err := c.search.Search(ctx, CollectionCatalog, source, Options{Limit: 1})
	if err != nil {
		return store.CatalogEntry{}, false, fmt.Errorf("find_by_source fallback search: %w", err)
	}
	if len(results) == 0 || results[0].Scores.Hybrid < catalogFallbackThreshold {
		return store.CatalogEntry{}, false, nil
	}

	entry, ok, err = c.store.Catalog().FindByID(ctx, results[0].ID)
	if err != nil {
		return store.CatalogEntry{}, false, fmt.Errorf("find_by_source hydrating fallback hit: %w", err)
	}
	return entry, ok, nil
}

// SearchInSource scopes a chunk hybrid search to a single document, used by
// chunks_search when a caller already knows which source to search within
// (spec.md §4.5's chunk repository search_in_source).
func (c *Composer) SearchInSource(ctx context.Context, source, queryText string, limit int) ([]SearchResult, error) {
	return c.search.Search(ctx, CollectionChunk, queryText, Options{Limit: limit, SourceFilter: source})
}

// SearchConcepts runs a concept hybrid search, the composition spec.md
// §4.5 calls the concept repository's search_by_hybrid.
func (c *Composer) SearchConcepts(ctx context.Context, queryText string, limit int) ([]SearchResult, error) {
	return c.search.Search(ctx, CollectionConcept, queryText, Options{Limit: limit})
}

// DocumentsIn returns every catalog entry tagged with categoryID (spec.md
// §4.5's category repository documents_in). Categories do not carry a
// reverse document list of their own (spec.md §3.1: only the forward
// catalog.category_ids edge is stored), so this scans the catalog and
// filters — the same approach CatalogRepository.FindByConceptID already
// takes for its own reverse lookup.
func (c *Composer) DocumentsIn(ctx context.Context, categoryID int64) ([]store.CatalogEntry, error) {
	all, err := c.store.Catalog().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("documents_in: %w", err)
	}
	var out []store.CatalogEntry
	for _, entry := range all {
		for _, id := range entry.CategoryIDs {
			if id == categoryID {
				out = append(out, entry)
				break
			}
		}
	}
	return out, nil
}

// ConceptsIn returns every concept that appears in a document tagged with
// categoryID (spec.md §4.5's category repository concepts_in), derived
// transitively through the documents in that category since concepts carry
// no direct category link of their own.
func (c *Composer) ConceptsIn(ctx context.Context, categoryID int64) ([]store.Concept, error) {
	docs, err := c.DocumentsIn(ctx, categoryID)
	if err != nil {
		return nil, err
	}

	seen := make(map[int64]bool)
	var ids []int64
	for _, doc := range docs {
		for _, id := range doc.ConceptIDs {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}

	concepts, err := c.store.Concepts().FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("concepts_in: %w", err)
	}
	return concepts, nil
}
