package concept

import (
	"testing"

	"github.com/conceptrag/conceptrag/llm"
	"github.com/conceptrag/conceptrag/store"
)

func TestBuildAssignsSymmetricCatalogConceptIDs(t *testing.T) {
	catalogID := int64(1)
	doc := DocumentRecord{
		CatalogID: catalogID,
		Source:    "/docs/a.pdf",
		Title:     "A",
		Concepts: llm.ConceptExtractionResult{
			PrimaryConcepts: []llm.ExtractedConcept{{Name: "distributed systems", Summary: "a topic"}},
			Categories:      []string{"computer science"},
		},
		Chunks: []store.Chunk{
			{ID: 100, CatalogID: catalogID, ChunkIndex: 0, Text: "this chunk discusses distributed systems at length"},
		},
	}

	snap := Build([]DocumentRecord{doc})

	if len(snap.Catalog) != 1 {
		t.Fatalf("len(Catalog) = %d, want 1", len(snap.Catalog))
	}
	cat := snap.Catalog[0]
	if len(cat.ConceptIDs) != 1 {
		t.Fatalf("catalog.ConceptIDs = %v, want 1 entry", cat.ConceptIDs)
	}
	conceptID := cat.ConceptIDs[0]

	if len(snap.Concepts) != 1 {
		t.Fatalf("len(Concepts) = %d, want 1", len(snap.Concepts))
	}
	concept := snap.Concepts[0]
	if concept.ID != conceptID {
		t.Fatalf("concept.ID = %d, want %d", concept.ID, conceptID)
	}
	found := false
	for _, id := range concept.CatalogIDs {
		if id == catalogID {
			found = true
		}
	}
	if !found {
		t.Fatal("expected concept.CatalogIDs to contain the catalog id (invariant 1)")
	}
}

func TestBuildPopulatesChunkConceptIDsByLexicalMatch(t *testing.T) {
	catalogID := int64(1)
	doc := DocumentRecord{
		CatalogID: catalogID,
		Source:    "/docs/a.pdf",
		Concepts: llm.ConceptExtractionResult{
			PrimaryConcepts: []llm.ExtractedConcept{{Name: "thermodynamics"}},
		},
		Chunks: []store.Chunk{
			{ID: 1, CatalogID: catalogID, ChunkIndex: 0, Text: "this chunk is about thermodynamics"},
			{ID: 2, CatalogID: catalogID, ChunkIndex: 1, Text: "this chunk is unrelated"},
		},
	}

	snap := Build([]DocumentRecord{doc})

	byID := map[int64]store.Chunk{}
	for _, c := range snap.Chunks {
		byID[c.ID] = c
	}
	if len(byID[1].ConceptIDs) != 1 {
		t.Fatalf("chunk 1 ConceptIDs = %v, want 1 match", byID[1].ConceptIDs)
	}
	if len(byID[2].ConceptIDs) != 0 {
		t.Fatalf("chunk 2 ConceptIDs = %v, want no match", byID[2].ConceptIDs)
	}
	if byID[1].ConceptDensity != 1.0 {
		t.Fatalf("chunk 1 ConceptDensity = %v, want 1.0", byID[1].ConceptDensity)
	}
}

func TestBuildMergesDuplicateConceptsAcrossDocuments(t *testing.T) {
	docA := DocumentRecord{
		CatalogID: 1,
		Source:    "/a.pdf",
		Concepts: llm.ConceptExtractionResult{
			PrimaryConcepts: []llm.ExtractedConcept{{Name: "entropy"}},
		},
	}
	docB := DocumentRecord{
		CatalogID: 2,
		Source:    "/b.pdf",
		Concepts: llm.ConceptExtractionResult{
			PrimaryConcepts: []llm.ExtractedConcept{{Name: "entropy", Summary: "disorder measure"}},
		},
	}

	snap := Build([]DocumentRecord{docA, docB})

	if len(snap.Concepts) != 1 {
		t.Fatalf("len(Concepts) = %d, want 1 merged concept", len(snap.Concepts))
	}
	c := snap.Concepts[0]
	if len(c.CatalogIDs) != 2 {
		t.Fatalf("CatalogIDs = %v, want both catalogs", c.CatalogIDs)
	}
	if c.Summary != "disorder measure" {
		t.Fatalf("Summary = %q, want the later summarized variant to win", c.Summary)
	}
}

func TestBuildCoOccurrenceGraphRanksSharedCatalogs(t *testing.T) {
	doc := DocumentRecord{
		CatalogID: 1,
		Source:    "/a.pdf",
		Concepts: llm.ConceptExtractionResult{
			PrimaryConcepts: []llm.ExtractedConcept{{Name: "alpha"}, {Name: "beta"}},
		},
	}

	snap := Build([]DocumentRecord{doc})
	byName := map[string]store.Concept{}
	for _, c := range snap.Concepts {
		byName[c.Name] = c
	}
	alpha := byName["alpha"]
	if len(alpha.AdjacentIDs) != 1 || alpha.AdjacentIDs[0] != byName["beta"].ID {
		t.Fatalf("alpha.AdjacentIDs = %v, want [beta.ID]", alpha.AdjacentIDs)
	}
}

func TestBuildZeroConceptDocumentStillIndexed(t *testing.T) {
	doc := DocumentRecord{CatalogID: 1, Source: "/empty.pdf"}
	snap := Build([]DocumentRecord{doc})
	if len(snap.Catalog) != 1 {
		t.Fatalf("len(Catalog) = %d, want 1 (spec.md invariant: zero-concept docs still indexed)", len(snap.Catalog))
	}
	if len(snap.Catalog[0].ConceptIDs) != 0 {
		t.Fatalf("ConceptIDs = %v, want empty", snap.Catalog[0].ConceptIDs)
	}
}

func TestBuildCategoryAliasResolvesToCanonicalID(t *testing.T) {
	docCanonical := DocumentRecord{
		CatalogID: 1,
		Source:    "/a.pdf",
		Concepts:  llm.ConceptExtractionResult{Categories: []string{"machine learning"}},
	}
	docAlias := DocumentRecord{
		CatalogID: 2,
		Source:    "/b.pdf",
		Concepts:  llm.ConceptExtractionResult{Categories: []string{"ml"}},
	}

	snap := Build([]DocumentRecord{docCanonical, docAlias})
	// "ml" merges into "machine learning"; its curated parent
	// "computer science" is added alongside it.
	if len(snap.Categories) != 2 {
		t.Fatalf("len(Categories) = %d, want 2 (alias merged into canonical, plus its parent)", len(snap.Categories))
	}
	found := false
	for _, c := range snap.Categories {
		if c.Name != "machine learning" {
			continue
		}
		found = true
		if c.DocumentCount != 2 {
			t.Fatalf("DocumentCount = %d, want 2", c.DocumentCount)
		}
	}
	if !found {
		t.Fatalf("no %q category in %+v", "machine learning", snap.Categories)
	}
}

func TestContainsWholeWordAvoidsSubstringMatch(t *testing.T) {
	if containsWholeWord("this is an article", "art") {
		t.Fatal("expected 'art' not to match inside 'article'")
	}
	if !containsWholeWord("this is an art piece", "art") {
		t.Fatal("expected 'art' to match as a whole word")
	}
}
