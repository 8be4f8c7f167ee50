package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// ExtractedConcept is one element of the concept extraction contract's
// primary_concepts array (spec.md §4.4): a bare name, or a name with a
// one-sentence summary. Later merges prefer the summarized variant over a
// bare-name mention of the same concept.
type ExtractedConcept struct {
	Name    string `json:"name"`
	Summary string `json:"summary"`
}

// ConceptExtractionResult is the parsed shape of the Concept Extraction
// contract's output (spec.md §4.4).
type ConceptExtractionResult struct {
	PrimaryConcepts []ExtractedConcept `json:"primary_concepts"`
	Categories      []string           `json:"categories"`
}

// conceptExtractionPrompt asks the LLM to identify the primary concepts and
// categories discussed in a document's text, mirroring the teacher's
// entityExtractionPrompt: a fixed few-shot JSON-only instruction, generalized
// from "entities" to "primary_concepts + categories" (spec.md §4.4).
const conceptExtractionPrompt = `You are a concept extraction engine for document indexing.
Given the following document text, identify the primary concepts it discusses and the broad subject categories it belongs to.

A concept is a named idea, topic, method, or subject matter — not a person or organization unless the document is specifically about them as a topic. Concepts should be generalizable (useful for connecting this document to others on the same topic), not one-off details.
A category is a broad subject area (e.g. "machine learning", "distributed systems", "cell biology") that this document would be shelved under.

Return a JSON object with exactly two keys:
  "primary_concepts" : array of either a bare string name, or {"name": string, "summary": string} when you can give a one-sentence description
  "categories" : array of strings

Rules:
- Concept and category names must be normalised to lowercase.
- Include a "summary" only when you have enough context to write one accurately; otherwise return a bare string name.
- Only include concepts and categories clearly supported by the text.
- If there are none, return empty arrays.
- Do NOT include any text outside the JSON object.

%s
TEXT:
%s`

// hintsForConcepts pre-extracts likely concept-bearing identifiers using the
// same style of regex hinting the teacher's preExtractIdentifiers feeds into
// its entity extraction prompt, generalized from part numbers/standards to
// capitalized multi-word phrases and acronyms.
var (
	reAcronym       = regexp.MustCompile(`\b[A-Z]{2,6}\b`)
	reCapitalPhrase = regexp.MustCompile(`\b([A-Z][a-z]+(?:\s[A-Z][a-z]+){1,3})\b`)
)

func hintsForConcepts(text string) []string {
	seen := make(map[string]bool)
	var hints []string
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" {
			return
		}
		key := strings.ToLower(s)
		if !seen[key] {
			seen[key] = true
			hints = append(hints, s)
		}
	}
	for _, m := range reAcronym.FindAllString(text, -1) {
		add(m)
	}
	for _, m := range reCapitalPhrase.FindAllString(text, -1) {
		add(m)
	}
	return hints
}

// BuildConceptExtractionPrompt renders the concept extraction prompt for a
// document's (possibly chunked, per §4.4) text, including identifier hints.
func BuildConceptExtractionPrompt(text string) string {
	hints := hintsForConcepts(text)
	var hintsSection string
	if len(hints) > 0 {
		limit := hints
		if len(limit) > 40 {
			limit = limit[:40]
		}
		hintsSection = fmt.Sprintf(
			"HINTS: the following terms were detected in the text; consider them as candidate concepts:\n%s\n",
			strings.Join(limit, ", "),
		)
	}
	return fmt.Sprintf(conceptExtractionPrompt, hintsSection, text)
}

// contentOverviewPrompt asks for a short descriptive summary of a document,
// used to populate catalog.summary (spec.md §4.2 step 4) and the stage
// cache's contentOverview field (§4.3).
const contentOverviewPrompt = `You are summarizing a document for a reference catalog entry.
Given the following document text (or excerpt), write a 2-4 sentence overview describing what the document covers, its scope, and its intended audience if apparent.
Do not include a title or heading, just the prose summary. Do NOT include any text outside the summary itself.

TEXT:
%s`

// BuildContentOverviewPrompt renders the content overview prompt.
func BuildContentOverviewPrompt(text string) string {
	return fmt.Sprintf(contentOverviewPrompt, text)
}

// categoryDescriptionPrompt asks for a one-sentence description of a
// category, used at most once per new category name (spec.md §4.2's
// incremental summarization cache).
const categoryDescriptionPrompt = `Write a single sentence describing the subject category %q as it would appear in a library catalog's subject index. Return only the sentence, no quotation marks or extra text.`

// BuildCategoryDescriptionPrompt renders the category description prompt.
func BuildCategoryDescriptionPrompt(categoryName string) string {
	return fmt.Sprintf(categoryDescriptionPrompt, categoryName)
}

// codeBlockRe strips markdown code fences from LLM output, identical to the
// teacher's graph.codeBlockRe.
var codeBlockRe = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(.*?)\\n?```")

// ExtractJSON finds a JSON object within raw LLM output, tolerating markdown
// code fences and leading/trailing prose — adapted from the teacher's
// graph.extractJSON.
func ExtractJSON(raw string) (string, error) {
	if m := codeBlockRe.FindStringSubmatch(raw); len(m) > 1 {
		raw = m[1]
	}
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "{") {
		return raw, nil
	}
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1], nil
	}
	return "", fmt.Errorf("no JSON object found in response")
}

// ParseConceptExtractionResult parses an LLM chat response's content into a
// ConceptExtractionResult, tolerating either a bare string or a
// {name, summary} object per primary_concepts element (spec.md §4.4).
func ParseConceptExtractionResult(raw string) (ConceptExtractionResult, error) {
	jsonStr, err := ExtractJSON(raw)
	if err != nil {
		return ConceptExtractionResult{}, err
	}

	var wire struct {
		PrimaryConcepts []json.RawMessage `json:"primary_concepts"`
		Categories      []string          `json:"categories"`
	}
	if err := json.Unmarshal([]byte(jsonStr), &wire); err != nil {
		return ConceptExtractionResult{}, fmt.Errorf("unmarshalling concept extraction result: %w", err)
	}

	result := ConceptExtractionResult{Categories: wire.Categories}
	for _, raw := range wire.PrimaryConcepts {
		var name string
		if err := json.Unmarshal(raw, &name); err == nil {
			result.PrimaryConcepts = append(result.PrimaryConcepts, ExtractedConcept{Name: strings.ToLower(strings.TrimSpace(name))})
			continue
		}
		var obj ExtractedConcept
		if err := json.Unmarshal(raw, &obj); err == nil {
			obj.Name = strings.ToLower(strings.TrimSpace(obj.Name))
			result.PrimaryConcepts = append(result.PrimaryConcepts, obj)
		}
	}
	for i, c := range result.Categories {
		result.Categories[i] = strings.ToLower(strings.TrimSpace(c))
	}
	return result, nil
}
