package concept

import (
	"sort"
	"strings"

	"github.com/conceptrag/conceptrag/llm"
	"github.com/conceptrag/conceptrag/store"
)

// topK bounds each concept's adjacency and lexical-relation lists
// (spec.md §4.2 steps 4-5).
const topK = 16

// PageInput is the raw per-page text a DocumentRecord contributes, before
// the text preview and concept scan the index build applies.
type PageInput struct {
	PageNumber int
	Text       string
}

// DocumentRecord is one document's accumulated stage-cache output, the
// unit the index build (spec.md §4.2) consumes. CatalogID, Source, and the
// bibliographic fields are filled by the pipeline driver from the loader's
// metadata and the content overview call; Concepts and ContentOverview come
// from the Extractor and OverviewBuilder above.
type DocumentRecord struct {
	CatalogID       int64
	Source          string
	Title           string
	Author          string
	Authors         []string
	Year            int
	Publisher       string
	ISBN            string
	DOI             string
	ArxivID         string
	Venue           string
	Keywords        []string
	Abstract        string
	DocumentType    string
	Vector          []float32
	ContentOverview string
	Concepts        llm.ConceptExtractionResult
	Chunks          []store.Chunk
	Pages           []PageInput
}

// conceptAccumulator merges all mentions of one normalized concept name
// across every document that mentions it (spec.md §4.2 step 3).
type conceptAccumulator struct {
	id         int64
	name       string
	summary    string
	catalogIDs map[int64]bool
	chunkIDs   map[int64]bool
}

// categoryAccumulator merges all mentions of one normalized category name.
type categoryAccumulator struct {
	id         int64
	name       string
	catalogIDs map[int64]bool
}

// curatedCategorySeed is a small curated alias/hierarchy table (spec.md
// §4.2: "seeded from a curated alias list"). It is intentionally short —
// the LLM-discovered category set covers the long tail; this seed only
// disambiguates the handful of categories a reader would expect a fixed
// alias for.
var curatedCategorySeed = map[string]struct {
	aliases []string
	parent  string
}{
	"machine learning":         {aliases: []string{"ml"}, parent: "computer science"},
	"artificial intelligence":  {aliases: []string{"ai"}},
	"software engineering":     {aliases: []string{"swe"}, parent: "computer science"},
	"distributed systems":      {aliases: []string{"distsys"}, parent: "computer science"},
	"computer science":         {aliases: []string{"cs"}},
	"cell biology":             {aliases: []string{"cytology"}, parent: "biology"},
	"molecular biology":        {parent: "biology"},
	"quantum mechanics":        {aliases: []string{"qm"}, parent: "physics"},
	"thermodynamics":           {parent: "physics"},
}

// Build runs the full index build procedure (spec.md §4.2) over every
// document accumulated since the last build and returns the replacement
// snapshot for store.WriteSnapshot.
func Build(docs []DocumentRecord) store.Snapshot {
	concepts := make(map[int64]*conceptAccumulator)
	categories := make(map[int64]*categoryAccumulator)

	catalog := make([]store.CatalogEntry, 0, len(docs))

	for _, doc := range docs {
		conceptIDs, categoryIDs := mergeDocumentConcepts(doc, concepts, categories)

		catalog = append(catalog, store.CatalogEntry{
			ID:           doc.CatalogID,
			Source:       doc.Source,
			Title:        doc.Title,
			Author:       doc.Author,
			Authors:      doc.Authors,
			Year:         doc.Year,
			Publisher:    doc.Publisher,
			ISBN:         doc.ISBN,
			DOI:          doc.DOI,
			ArxivID:      doc.ArxivID,
			Venue:        doc.Venue,
			Keywords:     doc.Keywords,
			Abstract:     doc.Abstract,
			DocumentType: defaultDocumentType(doc.DocumentType),
			Summary:      doc.ContentOverview,
			ConceptIDs:   conceptIDs,
			CategoryIDs:  categoryIDs,
			Vector:       doc.Vector,
		})
	}

	conceptByCatalog := groupConceptsByCatalog(concepts)

	adjacency := coOccurrenceGraph(conceptByCatalog)
	lexical := lexicalGraph(concepts)

	chunks, pages := scanChunksAndPages(docs, concepts, conceptByCatalog)

	conceptRows := buildConceptRows(concepts, adjacency, lexical)

	chunkCountByCatalog := make(map[int64]int, len(catalog))
	for _, c := range chunks {
		chunkCountByCatalog[c.CatalogID]++
	}
	ensureParentCategories(categories)
	categoryRows := buildCategoryRows(categories, catalog, chunkCountByCatalog)

	titleByCatalog := make(map[int64]string, len(catalog))
	for _, c := range catalog {
		titleByCatalog[c.ID] = c.Title
	}
	nameByCategory := make(map[int64]string, len(categoryRows))
	for _, c := range categoryRows {
		nameByCategory[c.ID] = c.Name
	}
	for i := range conceptRows {
		conceptRows[i].CatalogTitles = titlesFor(conceptRows[i].CatalogIDs, titleByCatalog)
	}
	for i := range catalog {
		catalog[i].ConceptNames = namesFor(catalog[i].ConceptIDs, conceptNameIndex(concepts))
		catalog[i].CategoryNames = namesFor(catalog[i].CategoryIDs, nameByCategory)
	}

	return store.Snapshot{
		Catalog:    catalog,
		Chunks:     chunks,
		Concepts:   conceptRows,
		Categories: categoryRows,
		Pages:      pages,
	}
}

func defaultDocumentType(t string) string {
	if t == "" {
		return store.DocumentTypeUnknown
	}
	return t
}

// mergeDocumentConcepts folds one document's extracted concepts and
// categories into the running accumulators (spec.md §4.2 steps 2-3) and
// returns the document's own concept_ids/category_ids.
func mergeDocumentConcepts(doc DocumentRecord, concepts map[int64]*conceptAccumulator, categories map[int64]*categoryAccumulator) ([]int64, []int64) {
	var conceptIDs, categoryIDs []int64
	seenConcept := make(map[int64]bool)
	seenCategory := make(map[int64]bool)

	for _, c := range doc.Concepts.PrimaryConcepts {
		name := store.NormalizeName(c.Name)
		if name == "" {
			continue
		}
		id := store.ConceptID(name)
		acc, ok := concepts[id]
		if !ok {
			acc = &conceptAccumulator{id: id, name: name, catalogIDs: map[int64]bool{}, chunkIDs: map[int64]bool{}}
			concepts[id] = acc
		}
		if acc.summary == "" && c.Summary != "" {
			acc.summary = c.Summary
		}
		acc.catalogIDs[doc.CatalogID] = true
		if !seenConcept[id] {
			seenConcept[id] = true
			conceptIDs = append(conceptIDs, id)
		}
	}

	for _, catName := range doc.Concepts.Categories {
		name, _ := resolveCategoryAlias(store.NormalizeName(catName))
		if name == "" {
			continue
		}
		id := store.CategoryID(name)
		acc, ok := categories[id]
		if !ok {
			acc = &categoryAccumulator{id: id, name: name, catalogIDs: map[int64]bool{}}
			categories[id] = acc
		}
		acc.catalogIDs[doc.CatalogID] = true
		if !seenCategory[id] {
			seenCategory[id] = true
			categoryIDs = append(categoryIDs, id)
		}
	}

	return conceptIDs, categoryIDs
}

// resolveCategoryAlias canonicalizes a raw category name against the
// curated seed table, returning the canonical name (unchanged if the name
// is not a known alias) and the canonical name's parent, if any.
func resolveCategoryAlias(name string) (string, string) {
	for canonical, seed := range curatedCategorySeed {
		if canonical == name {
			return canonical, seed.parent
		}
		for _, a := range seed.aliases {
			if a == name {
				return canonical, seed.parent
			}
		}
	}
	return name, ""
}

func groupConceptsByCatalog(concepts map[int64]*conceptAccumulator) map[int64][]int64 {
	byCatalog := make(map[int64][]int64)
	for id, acc := range concepts {
		for catalogID := range acc.catalogIDs {
			byCatalog[catalogID] = append(byCatalog[catalogID], id)
		}
	}
	return byCatalog
}

// coOccurrenceGraph emits an edge between every pair of concepts sharing a
// catalog, aggregated by co-occurrence count (spec.md §4.2 step 4).
func coOccurrenceGraph(conceptByCatalog map[int64][]int64) map[int64]map[int64]int {
	edges := make(map[int64]map[int64]int)
	addEdge := func(a, b int64) {
		if edges[a] == nil {
			edges[a] = make(map[int64]int)
		}
		edges[a][b]++
	}
	for _, ids := range conceptByCatalog {
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				addEdge(ids[i], ids[j])
				addEdge(ids[j], ids[i])
			}
		}
	}
	return edges
}

// lexicalGraph relates concepts that share a ≥4-char token in their
// normalized names (spec.md §4.2 step 5).
func lexicalGraph(concepts map[int64]*conceptAccumulator) map[int64]map[int64]int {
	tokenIndex := make(map[string][]int64)
	for id, acc := range concepts {
		for _, tok := range conceptTokens(acc.name) {
			tokenIndex[tok] = append(tokenIndex[tok], id)
		}
	}

	edges := make(map[int64]map[int64]int)
	addEdge := func(a, b int64) {
		if edges[a] == nil {
			edges[a] = make(map[int64]int)
		}
		edges[a][b]++
	}
	for _, ids := range tokenIndex {
		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				if ids[i] == ids[j] {
					continue
				}
				addEdge(ids[i], ids[j])
				addEdge(ids[j], ids[i])
			}
		}
	}
	return edges
}

func conceptTokens(name string) []string {
	var out []string
	for _, tok := range strings.Fields(name) {
		if len(tok) >= 4 {
			out = append(out, tok)
		}
	}
	return out
}

// topNeighbors returns, for subject, its top-K neighbors by edge weight,
// breaking ties by id for determinism.
func topNeighbors(edges map[int64]map[int64]int, subject int64, k int) []int64 {
	neighbors := edges[subject]
	if len(neighbors) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(neighbors))
	for id := range neighbors {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if neighbors[ids[i]] != neighbors[ids[j]] {
			return neighbors[ids[i]] > neighbors[ids[j]]
		}
		return ids[i] < ids[j]
	})
	if len(ids) > k {
		ids = ids[:k]
	}
	return ids
}

// scanChunksAndPages lexically matches each catalog's merged concept names
// against its own chunks and pages, populating concept_ids
// and concept_density (spec.md §3.2 invariant 4) and feeding chunk_ids
// back into the concept accumulators.
func scanChunksAndPages(docs []DocumentRecord, concepts map[int64]*conceptAccumulator, conceptByCatalog map[int64][]int64) ([]store.Chunk, []store.Page) {
	var chunks []store.Chunk
	var pages []store.Page

	for _, doc := range docs {
		catalogConceptIDs := conceptByCatalog[doc.CatalogID]
		var names []string
		for _, id := range catalogConceptIDs {
			names = append(names, concepts[id].name)
		}

		for _, chunk := range doc.Chunks {
			matched := matchConcepts(chunk.Text, catalogConceptIDs, names)
			for _, id := range matched {
				concepts[id].chunkIDs[chunk.ID] = true
			}
			chunk.ConceptIDs = matched
			if len(catalogConceptIDs) > 0 {
				chunk.ConceptDensity = float64(len(matched)) / float64(len(catalogConceptIDs))
			}
			chunks = append(chunks, chunk)
		}

		for _, p := range doc.Pages {
			matched := matchConcepts(p.Text, catalogConceptIDs, names)
			preview := p.Text
			if len(preview) > 500 {
				preview = preview[:500]
			}
			pages = append(pages, store.Page{
				ID:          store.PageID(doc.CatalogID, p.PageNumber),
				CatalogID:   doc.CatalogID,
				PageNumber:  p.PageNumber,
				ConceptIDs:  matched,
				TextPreview: preview,
			})
		}
	}

	return chunks, pages
}

// matchConcepts returns the subset of candidateIDs whose concept name
// appears as a whole-word, case-insensitive match in text.
func matchConcepts(text string, candidateIDs []int64, names []string) []int64 {
	if len(candidateIDs) == 0 {
		return nil
	}
	lower := strings.ToLower(text)
	var matched []int64
	for i, id := range candidateIDs {
		if containsWholeWord(lower, names[i]) {
			matched = append(matched, id)
		}
	}
	return matched
}

// containsWholeWord reports whether needle appears in haystack (both
// already lower-cased) bounded by non-alphanumeric characters or string
// edges, avoiding "art" matching inside "article".
func containsWholeWord(haystack, needle string) bool {
	if needle == "" {
		return false
	}
	start := 0
	for {
		idx := strings.Index(haystack[start:], needle)
		if idx < 0 {
			return false
		}
		absIdx := start + idx
		before := absIdx == 0 || !isWordByte(haystack[absIdx-1])
		afterIdx := absIdx + len(needle)
		after := afterIdx >= len(haystack) || !isWordByte(haystack[afterIdx])
		if before && after {
			return true
		}
		start = absIdx + 1
		if start >= len(haystack) {
			return false
		}
	}
}

func isWordByte(b byte) bool {
	return b == '_' ||
		(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// buildConceptRows finalizes each accumulator into a store.Concept,
// including the co-occurrence/lexical top-K lists and the saturating
// weight curve (spec.md §4.2 steps 4, 5, 7).
func buildConceptRows(concepts map[int64]*conceptAccumulator, adjacency, lexical map[int64]map[int64]int) []store.Concept {
	maxDocsPerConcept := percentile95DocCount(concepts)

	rows := make([]store.Concept, 0, len(concepts))
	for id, acc := range concepts {
		catalogIDs := sortedKeys(acc.catalogIDs)
		chunkIDs := sortedKeys(acc.chunkIDs)

		weight := 0.0
		if maxDocsPerConcept > 0 {
			weight = float64(len(catalogIDs)) / float64(maxDocsPerConcept)
			if weight > 1 {
				weight = 1
			}
		}

		rows = append(rows, store.Concept{
			ID:          id,
			Name:        acc.name,
			Summary:     acc.summary,
			ConceptType: store.ConceptThematic,
			CatalogIDs:  catalogIDs,
			ChunkIDs:    chunkIDs,
			AdjacentIDs: topNeighbors(adjacency, id, topK),
			RelatedIDs:  topNeighbors(lexical, id, topK),
			Weight:      weight,
		})
	}
	return rows
}

// percentile95DocCount returns the 95th percentile of catalog-count across
// every concept, the saturating curve's denominator (spec.md §4.2 step 7).
func percentile95DocCount(concepts map[int64]*conceptAccumulator) int {
	if len(concepts) == 0 {
		return 0
	}
	counts := make([]int, 0, len(concepts))
	for _, acc := range concepts {
		counts = append(counts, len(acc.catalogIDs))
	}
	sort.Ints(counts)
	idx := int(0.95*float64(len(counts)-1) + 0.5)
	if idx >= len(counts) {
		idx = len(counts) - 1
	}
	if counts[idx] == 0 {
		return 1
	}
	return counts[idx]
}

// ensureParentCategories walks the curated seed's parent chain for every
// category a document actually produced and adds a zero-count accumulator
// for any ancestor no document tagged, so buildCategoryRows never emits a
// parent_id that resolves to no row (spec.md §4.2's category hierarchy:
// a child's parent must exist in the same snapshot).
func ensureParentCategories(categories map[int64]*categoryAccumulator) {
	for _, acc := range sortedCategoryAccumulators(categories) {
		name := acc.name
		for {
			_, parentName := resolveCategoryAlias(name)
			if parentName == "" {
				break
			}
			parentID := store.CategoryID(parentName)
			if _, ok := categories[parentID]; ok {
				break
			}
			categories[parentID] = &categoryAccumulator{id: parentID, name: parentName, catalogIDs: map[int64]bool{}}
			name = parentName
		}
	}
}

// sortedCategoryAccumulators returns categories' values in a deterministic
// order so ensureParentCategories' map mutation doesn't depend on Go's
// randomized map iteration.
func sortedCategoryAccumulators(categories map[int64]*categoryAccumulator) []*categoryAccumulator {
	ids := make([]int64, 0, len(categories))
	for id := range categories {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	accs := make([]*categoryAccumulator, len(ids))
	for i, id := range ids {
		accs[i] = categories[id]
	}
	return accs
}

// buildCategoryRows finalizes each category accumulator into a
// store.Category, resolving the curated seed's alias/parent data and
// deriving document/chunk/concept counts from the built catalog rows.
func buildCategoryRows(categories map[int64]*categoryAccumulator, catalog []store.CatalogEntry, chunkCountByCatalog map[int64]int) []store.Category {
	conceptsByCategory := make(map[int64]map[int64]bool)
	catalogsByCategory := make(map[int64][]int64)
	chunkCountByCategory := make(map[int64]int)

	for _, c := range catalog {
		for _, catID := range c.CategoryIDs {
			catalogsByCategory[catID] = append(catalogsByCategory[catID], c.ID)
			chunkCountByCategory[catID] += chunkCountByCatalog[c.ID]
			if conceptsByCategory[catID] == nil {
				conceptsByCategory[catID] = make(map[int64]bool)
			}
			for _, conceptID := range c.ConceptIDs {
				conceptsByCategory[catID][conceptID] = true
			}
		}
	}

	rows := make([]store.Category, 0, len(categories))
	for id, acc := range categories {
		_, parentName := resolveCategoryAlias(acc.name)
		var parentID *int64
		if parentName != "" {
			pid := store.CategoryID(parentName)
			parentID = &pid
		}

		rows = append(rows, store.Category{
			ID:            id,
			Name:          acc.name,
			ParentID:      parentID,
			Aliases:       curatedCategorySeed[acc.name].aliases,
			DocumentCount: len(catalogsByCategory[id]),
			ChunkCount:    chunkCountByCategory[id],
			ConceptCount:  len(conceptsByCategory[id]),
		})
	}
	return rows
}

func sortedKeys(m map[int64]bool) []int64 {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func titlesFor(ids []int64, titleByCatalog map[int64]string) []string {
	var titles []string
	for _, id := range ids {
		if t, ok := titleByCatalog[id]; ok && t != "" {
			titles = append(titles, t)
		}
	}
	return titles
}

func namesFor(ids []int64, nameByID map[int64]string) []string {
	var names []string
	for _, id := range ids {
		if n, ok := nameByID[id]; ok {
			names = append(names, n)
		}
	}
	return names
}

func conceptNameIndex(concepts map[int64]*conceptAccumulator) map[int64]string {
	idx := make(map[int64]string, len(concepts))
	for id, acc := range concepts {
		idx[id] = acc.name
	}
	return idx
}
