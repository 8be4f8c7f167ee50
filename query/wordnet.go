package query

import (
	"context"
	"sync"
)

// WordNetProvider is the external lexical database contract (spec.md §6):
// expand(terms, max_syns, max_broader) -> map<term, weight>. It is modeled
// as a narrow interface rather than a vendored dictionary, consistent with
// the spec's framing of WordNet as an external collaborator whose
// implementation is out of scope (spec.md §6's "contracts only").
type WordNetProvider interface {
	Expand(ctx context.Context, terms []string, maxSynonyms, maxBroader int) (map[string]float64, error)
}

// NopWordNet is the default WordNetProvider: it returns no expansions,
// letting the engine run fully offline when no lexical database is wired
// in (spec.md §4.7: WordNet is one of three expansions run "in parallel",
// and an empty contribution from it is a valid, documented degenerate
// case rather than an error).
type NopWordNet struct{}

// Expand always returns an empty map.
func (NopWordNet) Expand(ctx context.Context, terms []string, maxSynonyms, maxBroader int) (map[string]float64, error) {
	return map[string]float64{}, nil
}

// CachingWordNet wraps a WordNetProvider with a per-source-term in-memory
// cache, so a term already expanded this process lifetime is never
// requested again. Grounded on the teacher's retrieval.Translator term
// cache (retrieval/translations.go): a mutex-guarded map, populated
// lazily, caching an empty result too so a provider with nothing to say
// about a term isn't asked twice.
type CachingWordNet struct {
	inner WordNetProvider

	mu    sync.RWMutex
	cache map[string]map[string]float64 // source term -> {expanded term: weight}
}

// NewCachingWordNet wraps inner with a term-level cache.
func NewCachingWordNet(inner WordNetProvider) *CachingWordNet {
	return &CachingWordNet{inner: inner, cache: make(map[string]map[string]float64)}
}

// Expand resolves each term against the cache first, only calling inner for
// terms not yet seen, then merges every term's contribution (keeping the
// max weight when two source terms expand to the same word).
func (c *CachingWordNet) Expand(ctx context.Context, terms []string, maxSynonyms, maxBroader int) (map[string]float64, error) {
	c.mu.RLock()
	var uncached []string
	cached := make(map[string]map[string]float64, len(terms))
	for _, t := range terms {
		if exp, ok := c.cache[t]; ok {
			cached[t] = exp
		} else {
			uncached = append(uncached, t)
		}
	}
	c.mu.RUnlock()

	fresh := make(map[string]map[string]float64, len(uncached))
	for _, t := range uncached {
		exp, err := c.inner.Expand(ctx, []string{t}, maxSynonyms, maxBroader)
		if err != nil {
			return nil, err
		}
		fresh[t] = exp
	}

	if len(fresh) > 0 {
		c.mu.Lock()
		for t, exp := range fresh {
			c.cache[t] = exp
		}
		c.mu.Unlock()
	}

	result := make(map[string]float64)
	merge := func(exp map[string]float64) {
		for word, w := range exp {
			if cur, ok := result[word]; !ok || w > cur {
				result[word] = w
			}
		}
	}
	for _, exp := range cached {
		merge(exp)
	}
	for _, exp := range fresh {
		merge(exp)
	}
	return result, nil
}
