package query

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/conceptrag/conceptrag/cache"
	"github.com/conceptrag/conceptrag/llm"
	"github.com/conceptrag/conceptrag/store"
)

// Collection names the typed table a search targets (spec.md §4.8).
type Collection string

const (
	CollectionCatalog Collection = "catalog"
	CollectionChunk   Collection = "chunk"
	CollectionConcept Collection = "concept"
)

// Scores is the five-signal breakdown plus the combined score (spec.md
// §4.8 outputs), generalizing the teacher's SearchTrace per-component
// fields (retrieval/retrieval.go) from an RRF rank-sum to a literal
// weighted-sum of bounded [0,1] components.
type Scores struct {
	Hybrid  float64
	Vector  float64
	BM25    float64
	Title   float64
	Concept float64
	WordNet float64
}

// SearchResult is one scored row, collection-agnostic (spec.md §4.8
// outputs). Named distinctly from expansion.go's Result (the query
// expansion outcome), since both types live in this package.
type SearchResult struct {
	ID              int64
	CatalogID       int64
	Source          string
	Title           string
	Text            string
	Distance        float64
	Scores          Scores
	MatchedConcepts []string
	ExpandedTerms   []string
}

// Options configures one Search call.
type Options struct {
	Limit        int
	Debug        bool
	SourceFilter string // chunk collection only: scope to one document's source.
}

// candidateFetchMultiplier is how much wider than limit the initial vector
// search casts its net, before scoring and re-ranking (spec.md §4.8 step 3:
// "fetch top 3xlimit nearest rows").
const candidateFetchMultiplier = 3

const defaultLimit = 20

// Service implements the Hybrid Search Service (spec.md §4.8), grounded on
// retrieval.Engine's three-concurrent-method shape (retrieval/retrieval.go)
// and retrieval/rrf.go's stable-sort-with-tiebreak idiom, replacing RRF with
// the spec's fixed per-collection linear weights.
type Service struct {
	store    *store.Store
	embed    llm.Provider
	expander *Expander
	results  *cache.SearchCache
}

// NewService wires a Service's collaborators.
func NewService(s *store.Store, embed llm.Provider, expander *Expander, results *cache.SearchCache) *Service {
	return &Service{store: s, embed: embed, expander: expander, results: results}
}

// Search runs the full algorithm (spec.md §4.8 steps 1-7) against one
// collection.
func (svc *Service) Search(ctx context.Context, collection Collection, queryText string, opts Options) ([]SearchResult, error) {
	if strings.TrimSpace(queryText) == "" {
		return nil, fmt.Errorf("validation: query must not be empty")
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	cacheKey := cache.Key(queryText, string(collection), strconv.Itoa(limit), opts.SourceFilter)
	if !opts.Debug {
		if cached, ok := svc.results.Get(cacheKey); ok {
			if results, ok := cached.([]SearchResult); ok {
				return results, nil
			}
		}
	}

	expansion, err := svc.expander.Expand(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("expanding query: %w", err)
	}

	vecs, err := svc.embed.Embed(ctx, []string{queryText})
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	if len(vecs) == 0 {
		return nil, fmt.Errorf("embedding provider returned no vectors")
	}
	query := vecs[0]
	fetchK := limit * candidateFetchMultiplier

	var results []SearchResult
	switch collection {
	case CollectionCatalog:
		results, err = svc.searchCatalog(ctx, query, expansion, fetchK)
	case CollectionChunk:
		results, err = svc.searchChunks(ctx, query, expansion, fetchK, opts.SourceFilter)
	case CollectionConcept:
		results, err = svc.searchConcepts(ctx, query, expansion, fetchK)
	default:
		return nil, fmt.Errorf("validation: unknown collection %q", collection)
	}
	if err != nil {
		return nil, err
	}

	sortResults(results)
	if len(results) > limit {
		results = results[:limit]
	}

	if !opts.Debug {
		svc.results.Put(cacheKey, results)
	} else {
		slog.Debug("query: debug search trace",
			"collection", collection, "candidates", len(results),
			"expanded_terms", expansion.AllTerms)
	}
	return results, nil
}

// sortResults applies spec.md §4.8 step 6's deterministic tiebreak: hybrid
// score descending, then distance ascending, then id ascending.
func sortResults(results []SearchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Scores.Hybrid != results[j].Scores.Hybrid {
			return results[i].Scores.Hybrid > results[j].Scores.Hybrid
		}
		if results[i].Distance != results[j].Distance {
			return results[i].Distance < results[j].Distance
		}
		return results[i].ID < results[j].ID
	})
}

func (svc *Service) searchCatalog(ctx context.Context, query []float32, exp Result, k int) ([]SearchResult, error) {
	repo := svc.store.Catalog()
	hits, err := repo.VectorSearch(ctx, query, k)
	if err != nil {
		return nil, fmt.Errorf("catalog vector search: %w", err)
	}
	ftsQuery := sanitizeFTSQuery(exp.AllTerms)
	ftsHits, err := repo.FTSSearch(ctx, ftsQuery, k)
	if err != nil {
		slog.Warn("query: catalog fts search failed", "error", err)
	}
	bm25ByID := bm25Map(ftsHits)

	results := make([]SearchResult, 0, len(hits))
	for _, hit := range hits {
		entry, ok, err := repo.FindByID(ctx, hit.ID)
		if err != nil {
			return nil, fmt.Errorf("hydrating catalog row %d: %w", hit.ID, err)
		}
		if !ok {
			continue
		}
		vectorScore := clamp01(1 - hit.Distance)
		bm25Score := normalizeBM25(bm25ByID[hit.ID])
		title := titleScore(exp.AllTerms, entry.Source)
		concept := conceptScore(append(append([]string{}, exp.ConceptTerms...), exp.CorpusTerms...), exp.Weights, entry.ConceptNames)
		wordnet := wordnetScore(exp.WordNetTerms, exp.WordNetWeights, entry.Summary, entry.Title)

		hybrid := 0.30*vectorScore + 0.25*bm25Score + 0.20*title + 0.15*concept + 0.10*wordnet

		results = append(results, SearchResult{
			ID:        entry.ID,
			CatalogID: entry.ID,
			Source:    entry.Source,
			Title:     entry.Title,
			Text:      entry.Summary,
			Distance:  hit.Distance,
			Scores: Scores{
				Hybrid: clamp01(hybrid), Vector: vectorScore, BM25: bm25Score,
				Title: title, Concept: concept, WordNet: wordnet,
			},
			MatchedConcepts: entry.ConceptNames,
			ExpandedTerms:   exp.AllTerms,
		})
	}
	return results, nil
}

func (svc *Service) searchChunks(ctx context.Context, query []float32, exp Result, k int, sourceFilter string) ([]SearchResult, error) {
	repo := svc.store.Chunks()

	var scopeCatalogID int64
	if sourceFilter != "" {
		cat, ok, err := svc.store.Catalog().FindBySourceExact(ctx, sourceFilter)
		if err != nil {
			return nil, fmt.Errorf("resolving source filter: %w", err)
		}
		if ok {
			scopeCatalogID = cat.ID
		}
	}

	hits, err := repo.VectorSearch(ctx, query, k, scopeCatalogID)
	if err != nil {
		return nil, fmt.Errorf("chunk vector search: %w", err)
	}
	ftsQuery := sanitizeFTSQuery(exp.AllTerms)
	ftsHits, err := repo.FTSSearch(ctx, ftsQuery, k)
	if err != nil {
		slog.Warn("query: chunk fts search failed", "error", err)
	}
	bm25ByID := bm25Map(ftsHits)

	concepts := svc.store.Concepts()
	conceptTerms := append(append([]string{}, exp.ConceptTerms...), exp.CorpusTerms...)

	results := make([]SearchResult, 0, len(hits))
	for _, hit := range hits {
		chunk, ok, err := repo.FindByID(ctx, hit.ID)
		if err != nil {
			return nil, fmt.Errorf("hydrating chunk row %d: %w", hit.ID, err)
		}
		if !ok {
			continue
		}

		conceptNames, err := conceptNamesFor(ctx, concepts, chunk.ConceptIDs)
		if err != nil {
			return nil, err
		}

		vectorScore := clamp01(1 - hit.Distance)
		bm25Score := normalizeBM25(bm25ByID[hit.ID])
		concept := conceptScore(conceptTerms, exp.Weights, conceptNames)
		wordnet := wordnetScore(exp.WordNetTerms, exp.WordNetWeights, chunk.Text)

		hybrid := 0.35*vectorScore + 0.35*bm25Score + 0.15*concept + 0.15*wordnet

		results = append(results, SearchResult{
			ID:        chunk.ID,
			CatalogID: chunk.CatalogID,
			Text:      chunk.Text,
			Distance:  hit.Distance,
			Scores: Scores{
				Hybrid: clamp01(hybrid), Vector: vectorScore, BM25: bm25Score,
				Concept: concept, WordNet: wordnet,
			},
			MatchedConcepts: conceptNames,
			ExpandedTerms:   exp.AllTerms,
		})
	}
	return results, nil
}

func (svc *Service) searchConcepts(ctx context.Context, query []float32, exp Result, k int) ([]SearchResult, error) {
	repo := svc.store.Concepts()
	hits, err := repo.VectorSearch(ctx, query, k)
	if err != nil {
		return nil, fmt.Errorf("concept vector search: %w", err)
	}
	ftsQuery := sanitizeFTSQuery(exp.AllTerms)
	ftsHits, err := repo.FTSSearch(ctx, ftsQuery, k)
	if err != nil {
		slog.Warn("query: concept fts search failed", "error", err)
	}
	bm25ByID := bm25Map(ftsHits)

	nameSet := make(map[string]bool, len(exp.OriginalTerms))
	for _, t := range exp.OriginalTerms {
		nameSet[strings.ToLower(t)] = true
	}

	results := make([]SearchResult, 0, len(hits))
	for _, hit := range hits {
		c, ok, err := repo.FindByID(ctx, hit.ID)
		if err != nil {
			return nil, fmt.Errorf("hydrating concept row %d: %w", hit.ID, err)
		}
		if !ok {
			continue
		}
		vectorScore := clamp01(1 - hit.Distance)
		bm25Score := normalizeBM25(bm25ByID[hit.ID])
		nameExact := 0.0
		if nameSet[strings.ToLower(c.Name)] {
			nameExact = 1.0
		}

		hybrid := 0.40*vectorScore + 0.30*bm25Score + 0.30*nameExact

		results = append(results, SearchResult{
			ID:       c.ID,
			Title:    c.Name,
			Text:     c.Summary,
			Distance: hit.Distance,
			Scores: Scores{
				Hybrid: clamp01(hybrid), Vector: vectorScore, BM25: bm25Score,
				Concept: nameExact,
			},
			ExpandedTerms: exp.AllTerms,
		})
	}
	return results, nil
}

func conceptNamesFor(ctx context.Context, repo *store.ConceptRepository, ids []int64) ([]string, error) {
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

func bm25Map(hits []store.FTSHit) map[int64]float64 {
	m := make(map[int64]float64, len(hits))
	for _, h := range hits {
		m[h.ID] = h.Score
	}
	return m
}

// sanitizeFTSQuery builds a safe FTS5 MATCH expression from a set of
// already-tokenized terms, ORing them together. Adapted from the teacher's
// retrieval.sanitizeFTSQuery (retrieval/helpers.go), simplified since terms
// here are already tokenized (no punctuation to strip).
func sanitizeFTSQuery(terms []string) string {
	if len(terms) == 0 {
		return ""
	}
	quoted := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.ReplaceAll(t, `"`, "")
		if t == "" {
			continue
		}
		quoted = append(quoted, `"`+t+`"`)
	}
	return strings.Join(quoted, " OR ")
}
