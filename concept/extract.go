// Package concept implements the Concept Extraction collaborator contract
// (spec.md §4.4) and the index build procedure that turns accumulated
// per-document LLM output into the four-table snapshot (spec.md §4.2).
package concept

import (
	"context"
	"fmt"
	"strings"

	"github.com/conceptrag/conceptrag/llm"
	"github.com/conceptrag/conceptrag/resilience"
)

// largeDocTokenThreshold is the approximate token count above which a
// document is split into multiple extraction passes (spec.md §4.4: "large
// document threshold ~100 000 tokens"). A multi-pass split still counts as
// one logical extractor call for the stage cache's at-most-once guarantee.
const largeDocTokenThreshold = 100_000

// estimateTokens approximates token count using the teacher's word-based
// heuristic (graph/builder.go's estimateTokens).
func estimateTokens(text string) int {
	words := len(strings.Fields(text))
	return (words*13 + 9) / 10
}

// Extractor calls an LLM provider to produce the concept extraction
// contract's output, splitting oversize documents and merging the pieces.
type Extractor struct {
	chat  llm.Provider
	retry resilience.RetryConfig
}

// NewExtractor creates an Extractor backed by chat.
func NewExtractor(chat llm.Provider) *Extractor {
	return &Extractor{chat: chat, retry: resilience.DefaultRetryConfig()}
}

// Extract runs the concept extraction contract over text, splitting into
// multiple passes for documents above largeDocTokenThreshold and merging
// the results (spec.md §4.4). A single extractor call encompasses every
// pass a large document requires.
func (e *Extractor) Extract(ctx context.Context, text string) (llm.ConceptExtractionResult, error) {
	passes := splitForExtraction(text, largeDocTokenThreshold)

	var merged llm.ConceptExtractionResult
	seenConcepts := make(map[string]int) // name -> index in merged.PrimaryConcepts
	seenCategories := make(map[string]bool)

	for _, pass := range passes {
		result, err := e.extractOnePass(ctx, pass)
		if err != nil {
			return llm.ConceptExtractionResult{}, err
		}
		for _, c := range result.PrimaryConcepts {
			if idx, ok := seenConcepts[c.Name]; ok {
				// Prefer the summarized variant (spec.md §4.4).
				if merged.PrimaryConcepts[idx].Summary == "" && c.Summary != "" {
					merged.PrimaryConcepts[idx].Summary = c.Summary
				}
				continue
			}
			seenConcepts[c.Name] = len(merged.PrimaryConcepts)
			merged.PrimaryConcepts = append(merged.PrimaryConcepts, c)
		}
		for _, cat := range result.Categories {
			if !seenCategories[cat] {
				seenCategories[cat] = true
				merged.Categories = append(merged.Categories, cat)
			}
		}
	}
	return merged, nil
}

// extractOnePass performs a single LLM call under the resilience layer's
// retry policy, classifying content-policy refusals as non-retryable per
// spec.md §4.4's failure-mode enumeration.
func (e *Extractor) extractOnePass(ctx context.Context, text string) (llm.ConceptExtractionResult, error) {
	var result llm.ConceptExtractionResult
	err := resilience.Retry(ctx, e.retry, "concept_extraction", func(ctx context.Context, attempt int) error {
		resp, err := e.chat.Chat(ctx, llm.ChatRequest{
			Messages: []llm.Message{
				{Role: "user", Content: llm.BuildConceptExtractionPrompt(text)},
			},
			Temperature:    0.0,
			ResponseFormat: "json_object",
		})
		if err != nil {
			if isContentPolicyRefusal(err) {
				return resilience.NonRetryable(err)
			}
			return fmt.Errorf("concept extraction chat: %w", err)
		}

		parsed, err := llm.ParseConceptExtractionResult(resp.Content)
		if err != nil {
			// A JSON parse failure is retried like any other transient
			// error, within the surrounding Retry call's attempt budget;
			// there is no separate single-retry limit for it.
			return fmt.Errorf("parsing concept extraction result: %w", err)
		}
		result = parsed
		return nil
	})
	if err != nil {
		return llm.ConceptExtractionResult{}, err
	}
	return result, nil
}

// isContentPolicyRefusal reports whether err looks like a provider content
// policy rejection rather than a transient failure. Providers in this pack
// surface refusals as plain chat errors with no structured code, so this
// is a best-effort text match on the common phrasing.
func isContentPolicyRefusal(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "content policy") || strings.Contains(msg, "content_filter") ||
		strings.Contains(msg, "safety")
}

// OverviewBuilder calls the LLM for a document's content overview
// (spec.md §4.1 step 4a / §4.3's contentOverview field).
type OverviewBuilder struct {
	chat  llm.Provider
	retry resilience.RetryConfig
}

// NewOverviewBuilder creates an OverviewBuilder backed by chat.
func NewOverviewBuilder(chat llm.Provider) *OverviewBuilder {
	return &OverviewBuilder{chat: chat, retry: resilience.DefaultRetryConfig()}
}

// Build produces a short content overview for text, truncated to the
// ≤10 000 char prompt corpus spec.md §4.1 step 4a allows.
func (o *OverviewBuilder) Build(ctx context.Context, text string) (string, error) {
	const maxPromptChars = 10_000
	if len(text) > maxPromptChars {
		text = text[:maxPromptChars]
	}

	var overview string
	err := resilience.Retry(ctx, o.retry, "content_overview", func(ctx context.Context, attempt int) error {
		resp, err := o.chat.Chat(ctx, llm.ChatRequest{
			Messages: []llm.Message{
				{Role: "user", Content: llm.BuildContentOverviewPrompt(text)},
			},
			Temperature: 0.2,
		})
		if err != nil {
			if isContentPolicyRefusal(err) {
				return resilience.NonRetryable(err)
			}
			return fmt.Errorf("content overview chat: %w", err)
		}
		overview = strings.TrimSpace(resp.Content)
		return nil
	})
	if err != nil {
		return "", err
	}
	return overview, nil
}

// splitForExtraction divides text into passes no single one of which
// exceeds tokenThreshold, splitting on paragraph boundaries so a pass never
// starts or ends mid-sentence where avoidable.
func splitForExtraction(text string, tokenThreshold int) []string {
	if estimateTokens(text) <= tokenThreshold {
		return []string{text}
	}

	paragraphs := strings.Split(text, "\n\n")
	var passes []string
	var current strings.Builder
	currentTokens := 0

	flush := func() {
		if current.Len() > 0 {
			passes = append(passes, current.String())
			current.Reset()
			currentTokens = 0
		}
	}

	for _, p := range paragraphs {
		pt := estimateTokens(p)
		if currentTokens > 0 && currentTokens+pt > tokenThreshold {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(p)
		currentTokens += pt
	}
	flush()

	if len(passes) == 0 {
		return []string{text}
	}
	return passes
}
