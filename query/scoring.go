package query

import (
	"math"
	"path/filepath"
	"strings"
)

// normalizeBM25 maps FTS5's raw bm25() output (more negative is more
// relevant, unbounded) into [0, 1), clamped so a perfect match approaches 1
// and a weak one approaches 0. SQLite's bm25() has no fixed upper bound, so
// a direct linear rescale isn't possible; a logistic-style squash is the
// standard way to turn an unbounded relevance score into a comparable
// [0,1] component (spec.md §4.8 step 4's bm25_score).
func normalizeBM25(raw float64) float64 {
	return clamp01(2/(1+math.Exp(raw/2)) - 1)
}

// titleScore counts how many expanded terms appear in the filename-derived
// title, normalized by the number of terms considered (spec.md §4.8 step 4:
// catalog-only; other collections always score 0).
func titleScore(terms []string, source string) float64 {
	if len(terms) == 0 {
		return 0
	}
	title := strings.ToLower(filepath.Base(strings.TrimSuffix(source, filepath.Ext(source))))
	titleWords := make(map[string]bool)
	for _, w := range tokenize(title) {
		titleWords[w] = true
	}

	matched := 0
	for _, t := range terms {
		if titleWords[strings.ToLower(t)] {
			matched++
		}
	}
	return clamp01(float64(matched) / float64(len(terms)))
}

// conceptScore sums the expansion weight of every term in terms that
// appears (case-insensitively) among rowNames, normalized so a row
// matching every considered term scores 1.0 (spec.md §4.8 step 4).
func conceptScore(terms []string, weights map[string]float64, rowNames []string) float64 {
	if len(terms) == 0 {
		return 0
	}
	rowSet := make(map[string]bool, len(rowNames))
	for _, n := range rowNames {
		rowSet[strings.ToLower(n)] = true
	}

	var total, possible float64
	for _, t := range terms {
		w := weights[t]
		if w == 0 {
			w = 1.0
		}
		possible += w
		if rowSet[strings.ToLower(t)] {
			total += w
		}
	}
	if possible == 0 {
		return 0
	}
	return clamp01(total / possible)
}

// wordnetScore sums the confidence of every WordNet-derived term that
// whole-word-overlaps any of textFields, normalized the same way as
// conceptScore (spec.md §4.8 step 4).
func wordnetScore(terms []string, weights map[string]float64, textFields ...string) float64 {
	if len(terms) == 0 {
		return 0
	}
	combined := strings.Join(textFields, " ")

	var total, possible float64
	for _, t := range terms {
		w := weights[t]
		if w == 0 {
			w = 1.0
		}
		possible += w
		if wholeWordOverlap(combined, []string{t}) {
			total += w
		}
	}
	if possible == 0 {
		return 0
	}
	return clamp01(total / possible)
}
