package llm

import (
	"strings"
	"testing"
)

func TestParseConceptExtractionResultBareStrings(t *testing.T) {
	raw := `{"primary_concepts": ["Machine Learning", "Neural Networks"], "categories": ["Computer Science"]}`
	result, err := ParseConceptExtractionResult(raw)
	if err != nil {
		t.Fatalf("ParseConceptExtractionResult: %v", err)
	}
	if len(result.PrimaryConcepts) != 2 {
		t.Fatalf("expected 2 concepts, got %d", len(result.PrimaryConcepts))
	}
	if result.PrimaryConcepts[0].Name != "machine learning" {
		t.Errorf("expected normalized lowercase name, got %q", result.PrimaryConcepts[0].Name)
	}
	if result.Categories[0] != "computer science" {
		t.Errorf("expected normalized lowercase category, got %q", result.Categories[0])
	}
}

func TestParseConceptExtractionResultMixedShape(t *testing.T) {
	raw := `{"primary_concepts": [{"name": "Gradient Descent", "summary": "An optimization algorithm."}, "backpropagation"], "categories": []}`
	result, err := ParseConceptExtractionResult(raw)
	if err != nil {
		t.Fatalf("ParseConceptExtractionResult: %v", err)
	}
	if len(result.PrimaryConcepts) != 2 {
		t.Fatalf("expected 2 concepts, got %d", len(result.PrimaryConcepts))
	}
	if result.PrimaryConcepts[0].Summary == "" {
		t.Error("expected first concept to carry its summary")
	}
	if result.PrimaryConcepts[1].Name != "backpropagation" {
		t.Errorf("expected bare string concept name %q, got %q", "backpropagation", result.PrimaryConcepts[1].Name)
	}
}

func TestParseConceptExtractionResultMarkdownFence(t *testing.T) {
	raw := "```json\n{\"primary_concepts\": [\"testing\"], \"categories\": [\"software\"]}\n```"
	result, err := ParseConceptExtractionResult(raw)
	if err != nil {
		t.Fatalf("ParseConceptExtractionResult: %v", err)
	}
	if len(result.PrimaryConcepts) != 1 || result.PrimaryConcepts[0].Name != "testing" {
		t.Fatalf("expected concept %q, got %+v", "testing", result.PrimaryConcepts)
	}
}

func TestParseConceptExtractionResultNoJSON(t *testing.T) {
	_, err := ParseConceptExtractionResult("I'm sorry, I cannot process this request.")
	if err == nil {
		t.Fatal("expected error when no JSON object is present")
	}
}

func TestBuildConceptExtractionPromptIncludesHints(t *testing.T) {
	prompt := BuildConceptExtractionPrompt("The NASA JPL team published results on ISO 9001 compliance.")
	if len(prompt) == 0 {
		t.Fatal("expected non-empty prompt")
	}
	if !strings.Contains(prompt, "HINTS:") || !strings.Contains(prompt, "NASA, JPL, ISO") {
		t.Fatalf("expected hints NASA, JPL, ISO in prompt, got:\n%s", prompt)
	}
}
