package concept

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/conceptrag/conceptrag/llm"
)

// scriptedProvider returns queued responses/errors in order, for testing
// Extractor/OverviewBuilder without a real LLM backend.
type scriptedProvider struct {
	responses []string
	errs      []error
	calls     int
}

func (p *scriptedProvider) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	i := p.calls
	p.calls++
	if i < len(p.errs) && p.errs[i] != nil {
		return nil, p.errs[i]
	}
	if i >= len(p.responses) {
		return nil, errors.New("scriptedProvider: no more responses queued")
	}
	return &llm.ChatResponse{Content: p.responses[i]}, nil
}

func (p *scriptedProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, errors.New("not implemented")
}

func TestExtractorParsesSinglePass(t *testing.T) {
	provider := &scriptedProvider{
		responses: []string{`{"primary_concepts": ["entropy"], "categories": ["physics"]}`},
	}
	e := NewExtractor(provider)

	result, err := e.Extract(context.Background(), "a short document about entropy")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(result.PrimaryConcepts) != 1 || result.PrimaryConcepts[0].Name != "entropy" {
		t.Fatalf("PrimaryConcepts = %v, want [entropy]", result.PrimaryConcepts)
	}
	if len(result.Categories) != 1 || result.Categories[0] != "physics" {
		t.Fatalf("Categories = %v, want [physics]", result.Categories)
	}
}

func TestExtractorMergesMultiplePasses(t *testing.T) {
	longText := strings.Repeat("word ", largeDocTokenThreshold) + "\n\n" + strings.Repeat("more ", largeDocTokenThreshold)
	provider := &scriptedProvider{
		responses: []string{
			`{"primary_concepts": ["alpha"], "categories": ["science"]}`,
			`{"primary_concepts": [{"name": "alpha", "summary": "first concept"}, "beta"], "categories": ["science"]}`,
		},
	}
	e := NewExtractor(provider)

	result, err := e.Extract(context.Background(), longText)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(result.PrimaryConcepts) != 2 {
		t.Fatalf("PrimaryConcepts = %v, want 2 merged (alpha, beta)", result.PrimaryConcepts)
	}
	for _, c := range result.PrimaryConcepts {
		if c.Name == "alpha" && c.Summary != "first concept" {
			t.Fatalf("alpha.Summary = %q, want the summarized variant to win", c.Summary)
		}
	}
	if len(result.Categories) != 1 {
		t.Fatalf("Categories = %v, want deduplicated to 1", result.Categories)
	}
}

func TestExtractorNonRetryableOnContentPolicyRefusal(t *testing.T) {
	provider := &scriptedProvider{
		errs: []error{errors.New("request rejected: content policy violation")},
	}
	e := NewExtractor(provider)

	_, err := e.Extract(context.Background(), "some text")
	if err == nil {
		t.Fatal("expected an error")
	}
	if provider.calls != 1 {
		t.Fatalf("calls = %d, want 1 (non-retryable should not retry)", provider.calls)
	}
}

func TestOverviewBuilderTruncatesLongText(t *testing.T) {
	provider := &scriptedProvider{responses: []string{"a short overview"}}
	o := NewOverviewBuilder(provider)

	overview, err := o.Build(context.Background(), strings.Repeat("x", 20_000))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if overview != "a short overview" {
		t.Fatalf("overview = %q, want %q", overview, "a short overview")
	}
}

func TestSplitForExtractionSinglePassForShortText(t *testing.T) {
	passes := splitForExtraction("short text", largeDocTokenThreshold)
	if len(passes) != 1 {
		t.Fatalf("len(passes) = %d, want 1", len(passes))
	}
}

func TestSplitForExtractionMultiplePassesForLongText(t *testing.T) {
	longText := strings.Repeat("word ", largeDocTokenThreshold) + "\n\n" + strings.Repeat("more ", largeDocTokenThreshold)
	passes := splitForExtraction(longText, largeDocTokenThreshold)
	if len(passes) < 2 {
		t.Fatalf("len(passes) = %d, want >= 2", len(passes))
	}
}
