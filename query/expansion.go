package query

import (
	"context"
	"sort"

	"github.com/conceptrag/conceptrag/llm"
	"github.com/conceptrag/conceptrag/store"
)

// Result is the query expansion outcome (spec.md §4.7 outputs).
type Result struct {
	OriginalTerms []string
	CorpusTerms   []string
	ConceptTerms  []string
	WordNetTerms  []string
	AllTerms      []string
	Weights       map[string]float64

	// WordNetWeights holds each WordNet term's own confidence, separate
	// from its post-merge (x0.6) contribution in Weights, since the
	// scorer needs the un-merged value for wordnet_score (spec.md §4.8
	// step 4's "wordnet_score: overlap of WordNet-derived terms...").
	WordNetWeights map[string]float64
}

// conceptVectorLimit bounds how many nearest concepts the corpus/concept-
// store expansions look at per query.
const conceptVectorLimit = 10

// Expander implements the three-way query expansion algorithm (spec.md
// §4.7), grounded on the teacher's retrieval.Translator term-expansion
// cache shape (retrieval/translations.go) and graph.builder's identifier
// regex idiom for tokenization (generalized here to plain tokenize()).
type Expander struct {
	concepts *store.ConceptRepository
	embed    llm.Provider
	wordnet  WordNetProvider
}

// NewExpander builds an Expander. wordnet may be nil, in which case
// NopWordNet is used.
func NewExpander(concepts *store.ConceptRepository, embed llm.Provider, wordnet WordNetProvider) *Expander {
	if wordnet == nil {
		wordnet = NopWordNet{}
	}
	return &Expander{concepts: concepts, embed: embed, wordnet: wordnet}
}

// Expand runs the tokenize + three-way-expand + max-rule-merge algorithm
// (spec.md §4.7 steps 1-4). It never mutates the query in place; the
// result is purely additive input for the scorer.
func (e *Expander) Expand(ctx context.Context, queryText string) (Result, error) {
	original := tokenize(queryText)

	type wnResult struct {
		weights map[string]float64
		err     error
	}
	type conceptResult struct {
		names   []string
		weights map[string]float64
		err     error
	}
	type corpusResult struct {
		names   []string
		weights map[string]float64
		err     error
	}

	wnCh := make(chan wnResult, 1)
	conceptCh := make(chan conceptResult, 1)
	corpusCh := make(chan corpusResult, 1)

	go func() {
		w, err := e.wordnet.Expand(ctx, original, 5, 2)
		wnCh <- wnResult{weights: w, err: err}
	}()
	go func() {
		names, weights, err := e.expandConceptStore(ctx, queryText, original)
		conceptCh <- conceptResult{names: names, weights: weights, err: err}
	}()
	go func() {
		names, weights, err := e.expandCorpus(ctx, queryText)
		corpusCh <- corpusResult{names: names, weights: weights, err: err}
	}()

	wn := <-wnCh
	concept := <-conceptCh
	corpus := <-corpusCh

	// None of the three expansions being unavailable is fatal: an empty
	// contribution is a documented degenerate case (spec.md §4.7's NopWordNet
	// default; a store with no concepts yet). Only report an error if one
	// of the three lookups genuinely failed (not "zero results").
	if concept.err != nil {
		return Result{}, concept.err
	}
	if corpus.err != nil {
		return Result{}, corpus.err
	}
	if wn.err != nil {
		return Result{}, wn.err
	}

	weights := make(map[string]float64)
	for _, t := range original {
		weights[t] = 1.0
	}
	for term, w := range corpus.weights {
		merged := w * 0.8
		if cur, ok := weights[term]; !ok || merged > cur {
			weights[term] = merged
		}
	}
	for term, w := range concept.weights {
		merged := w * 0.7
		if cur, ok := weights[term]; !ok || merged > cur {
			weights[term] = merged
		}
	}
	for term, w := range wn.weights {
		merged := w * 0.6
		if cur, ok := weights[term]; !ok || merged > cur {
			weights[term] = merged
		}
	}

	allTerms := make([]string, 0, len(weights))
	for t := range weights {
		allTerms = append(allTerms, t)
	}
	sort.Strings(allTerms)

	return Result{
		OriginalTerms:  original,
		CorpusTerms:    corpus.names,
		ConceptTerms:   concept.names,
		WordNetTerms:   mapKeys(wn.weights),
		AllTerms:       allTerms,
		Weights:        weights,
		WordNetWeights: wn.weights,
	}, nil
}

// expandConceptStore vector-searches the concept index for the whole
// query and includes each returned concept's name plus its
// related_ids-resolved names, filtered so at least one whole word
// overlaps a query term (spec.md §4.7 step 2, "concept store").
func (e *Expander) expandConceptStore(ctx context.Context, queryText string, original []string) ([]string, map[string]float64, error) {
	if e.concepts == nil || e.embed == nil {
		return nil, map[string]float64{}, nil
	}
	vecs, err := e.embed.Embed(ctx, []string{queryText})
	if err != nil {
		return nil, nil, err
	}
	if len(vecs) == 0 {
		return nil, map[string]float64{}, nil
	}

	hits, err := e.concepts.VectorSearch(ctx, vecs[0], conceptVectorLimit)
	if err != nil {
		return nil, nil, err
	}

	weights := make(map[string]float64)
	var names []string
	for _, hit := range hits {
		concept, ok, err := e.concepts.FindByID(ctx, hit.ID)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			continue
		}
		candidates := append([]string{concept.Name}, relatedNames(ctx, e.concepts, concept.RelatedIDs)...)
		for _, name := range candidates {
			if !wholeWordOverlap(name, original) {
				continue
			}
			if _, seen := weights[name]; !seen {
				names = append(names, name)
			}
			weights[name] = 1.0
		}
	}
	return names, weights, nil
}

// expandCorpus vector-searches the raw concept table and applies the
// type-aware policy (spec.md §4.7 step 2, "corpus"): thematic concepts
// expand aggressively (weight 0.85 plus up to 4 related at 0.6);
// terminology concepts expand only when similarity > 0.6 and without
// transitive (related) expansion.
func (e *Expander) expandCorpus(ctx context.Context, queryText string) ([]string, map[string]float64, error) {
	if e.concepts == nil || e.embed == nil {
		return nil, map[string]float64{}, nil
	}
	vecs, err := e.embed.Embed(ctx, []string{queryText})
	if err != nil {
		return nil, nil, err
	}
	if len(vecs) == 0 {
		return nil, map[string]float64{}, nil
	}

	hits, err := e.concepts.VectorSearch(ctx, vecs[0], conceptVectorLimit)
	if err != nil {
		return nil, nil, err
	}

	weights := make(map[string]float64)
	var names []string
	add := func(name string, w float64) {
		if _, seen := weights[name]; !seen {
			names = append(names, name)
		}
		if cur, ok := weights[name]; !ok || w > cur {
			weights[name] = w
		}
	}

	for _, hit := range hits {
		concept, ok, err := e.concepts.FindByID(ctx, hit.ID)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			continue
		}
		similarity := clamp01(1 - hit.Distance)

		switch concept.ConceptType {
		case store.ConceptThematic:
			add(concept.Name, 0.85)
			related := relatedNames(ctx, e.concepts, concept.RelatedIDs)
			if len(related) > 4 {
				related = related[:4]
			}
			for _, r := range related {
				add(r, 0.6)
			}
		default: // terminology, or unset
			if similarity > 0.6 {
				add(concept.Name, similarity)
			}
		}
	}
	return names, weights, nil
}

func relatedNames(ctx context.Context, repo *store.ConceptRepository, ids []int64) []string {
	if len(ids) == 0 {
		return nil
	}
	related, err := repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(related))
	for _, r := range related {
		names = append(names, r.Name)
	}
	return names
}

func mapKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
