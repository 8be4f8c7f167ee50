// Package query implements query expansion and the hybrid search service
// (spec.md §4.7-§4.8): turning a free-text query into a weighted term set,
// then combining vector, BM25, title, concept, and WordNet signals into a
// single ranked result list per collection.
package query

import "strings"

// tokenize lower-cases text, splits on whitespace, strips punctuation from
// each token's edges, and drops tokens of length <= 2 (spec.md §4.7 step 1).
func tokenize(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	var tokens []string
	for _, f := range fields {
		f = strings.TrimFunc(f, func(r rune) bool {
			return !isWordRune(r)
		})
		if len(f) > 2 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

func isWordRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_'
}

// stopWords mirrors the teacher's retrieval.stopWords set, used by
// wholeWordOverlap to avoid counting noise words as matches.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true,
	"but": true, "in": true, "on": true, "at": true, "to": true,
	"for": true, "of": true, "with": true, "by": true, "from": true,
	"is": true, "are": true, "was": true, "were": true, "be": true,
	"been": true, "being": true, "have": true, "has": true, "had": true,
	"this": true, "that": true, "these": true, "those": true,
	"what": true, "which": true, "who": true, "whom": true,
}

func isStopWord(w string) bool {
	return stopWords[strings.ToLower(w)]
}

// wholeWordOverlap reports whether any term in terms appears as a whole,
// non-stop word inside text (case-insensitive). Used to filter concept-store
// expansion candidates so a substring coincidence ("software" / "war")
// cannot inject noise (spec.md §4.7 step 2).
func wholeWordOverlap(text string, terms []string) bool {
	textTokens := make(map[string]bool)
	for _, t := range tokenize(text) {
		textTokens[t] = true
	}
	for _, term := range terms {
		for _, tt := range tokenize(term) {
			if textTokens[tt] && !isStopWord(tt) {
				return true
			}
		}
	}
	return false
}
