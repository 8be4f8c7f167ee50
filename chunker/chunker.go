// Package chunker implements the Chunker component (spec.md §4.1 step 2):
// a recursive splitter that produces chunks of approximately 1000
// characters with 100 characters of overlap, never splitting inside a
// word token shorter than the chunk size, carrying page_number from the
// originating parser.Page.
package chunker

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/conceptrag/conceptrag/parser"
	"github.com/conceptrag/conceptrag/store"
)

// Config controls the chunking behaviour (spec.md §4.1: "numbers tunable").
type Config struct {
	MaxChars int // Maximum characters per chunk.
	Overlap  int // Character overlap between consecutive chunks.
}

// DefaultConfig returns the spec's default chunk size (spec.md §4.1).
func DefaultConfig() Config {
	return Config{MaxChars: 1000, Overlap: 100}
}

// Chunker splits loaded document pages into store-ready chunks.
type Chunker struct {
	cfg Config
}

// New returns a Chunker with the given configuration. Zero-value fields
// fall back to DefaultConfig's values.
func New(cfg Config) *Chunker {
	d := DefaultConfig()
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = d.MaxChars
	}
	if cfg.Overlap <= 0 {
		cfg.Overlap = d.Overlap
	}
	return &Chunker{cfg: cfg}
}

// Chunk splits pages into chunks belonging to catalogID. Each page is split
// independently (a page boundary is never crossed, mirroring the teacher's
// per-section splitting in processSection) so page_number stays exact per
// spec.md §3.2's Chunk.page_number attribute. ChunkIndex is assigned
// sequentially across the whole document, which ChunkID uses for identity.
func (c *Chunker) Chunk(catalogID int64, pages []parser.Page) []store.Chunk {
	var chunks []store.Chunk
	index := 0
	for _, page := range pages {
		pageNumber := page.PageNumber
		for _, text := range c.splitText(page.Text) {
			if text == "" {
				continue
			}
			chunks = append(chunks, store.Chunk{
				ID:         store.ChunkID(catalogID, index),
				CatalogID:  catalogID,
				ChunkIndex: index,
				Text:       text,
				Hash:       contentHash(text),
				PageNumber: &pageNumber,
			})
			index++
		}
	}
	return chunks
}

// splitText breaks text into fragments of at most MaxChars characters,
// each consecutive pair overlapping by up to Overlap characters. A cut
// lands at the start of the last heading line (IsHeading) within range,
// otherwise at the last whitespace; a single token longer than MaxChars
// has no boundary in range and is hard-cut at MaxChars.
func (c *Chunker) splitText(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= c.cfg.MaxChars {
		return []string{text}
	}

	var fragments []string
	start := 0
	for start < len(text) {
		end := start + c.cfg.MaxChars
		if end >= len(text) {
			fragments = append(fragments, strings.TrimSpace(text[start:]))
			break
		}

		cut := headingBoundary(text, start, end)
		if cut <= start {
			cut = lastWordBoundary(text, start, end)
		}
		if cut <= start {
			cut = end // no boundary found in range; hard cut rather than loop forever
		}
		fragments = append(fragments, strings.TrimSpace(text[start:cut]))

		next := cut - c.cfg.Overlap
		if next <= start {
			next = cut
		}
		start = nextWordStart(text, next)
	}
	return fragments
}

// headingBoundary returns the offset of the last heading line's start
// within text[start:end], so a chunk boundary lands just before a new
// section rather than splitting a heading away from its body (adapted
// from the teacher's IsHeading structural detector).
func headingBoundary(text string, start, end int) int {
	if end > len(text) {
		end = len(text)
	}
	best := -1
	lineStart := start
	for i := start; i < end; i++ {
		if text[i] != '\n' {
			continue
		}
		line := text[lineStart:i]
		if lineStart > start && IsHeading(line) {
			best = lineStart
		}
		lineStart = i + 1
	}
	return best
}

// lastWordBoundary returns the offset of the last whitespace rune in
// text[start:end], or start if none is found.
func lastWordBoundary(text string, start, end int) int {
	if end > len(text) {
		end = len(text)
	}
	for i := end; i > start; i-- {
		if isBoundaryByte(text[i-1]) {
			return i - 1
		}
	}
	return start
}

// nextWordStart advances from pos to the start of the next whole word,
// so a chunk never begins mid-token.
func nextWordStart(text string, pos int) int {
	for pos < len(text) && isBoundaryByte(text[pos]) {
		pos++
	}
	return pos
}

func isBoundaryByte(b byte) bool {
	return b == ' ' || b == '\n' || b == '\t' || b == '\r'
}

// contentHash returns the SHA-256 hex digest of text, the same technique
// the teacher's chunker uses for ContentHash (spec.md §3.2 invariant 5:
// hash(chunk) = H(chunk.text), stable under re-ingestion of identical bytes).
func contentHash(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}
