package chunker

import (
	"strings"
	"testing"

	"github.com/conceptrag/conceptrag/parser"
)

func TestChunkShortPageProducesOneChunk(t *testing.T) {
	c := New(DefaultConfig())
	pages := []parser.Page{{PageNumber: 1, Text: "a short page of text"}}
	chunks := c.Chunk(42, pages)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != "a short page of text" {
		t.Errorf("expected text preserved verbatim, got %q", chunks[0].Text)
	}
	if chunks[0].PageNumber == nil || *chunks[0].PageNumber != 1 {
		t.Errorf("expected page_number 1, got %v", chunks[0].PageNumber)
	}
}

func TestChunkLongPageSplitsWithOverlap(t *testing.T) {
	cfg := Config{MaxChars: 100, Overlap: 20}
	c := New(cfg)

	word := "lorem "
	var sb strings.Builder
	for i := 0; i < 100; i++ {
		sb.WriteString(word)
	}
	text := strings.TrimSpace(sb.String())

	pages := []parser.Page{{PageNumber: 3, Text: text}}
	chunks := c.Chunk(1, pages)

	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks for long text, got %d", len(chunks))
	}
	for _, ch := range chunks {
		if len(ch.Text) > cfg.MaxChars+10 {
			t.Errorf("chunk exceeds MaxChars by a wide margin: len=%d text=%q", len(ch.Text), ch.Text)
		}
		if ch.PageNumber == nil || *ch.PageNumber != 3 {
			t.Errorf("expected page_number 3 carried to every chunk, got %v", ch.PageNumber)
		}
	}
}

func TestChunkNeverSplitsInsideWord(t *testing.T) {
	cfg := Config{MaxChars: 50, Overlap: 5}
	c := New(cfg)
	text := strings.Repeat("supercalifragilisticexpialidocious ", 10)
	chunks := c.Chunk(1, []parser.Page{{PageNumber: 1, Text: text}})

	for _, ch := range chunks {
		trimmed := strings.TrimSpace(ch.Text)
		for _, word := range strings.Fields(trimmed) {
			if word != "supercalifragilisticexpialidocious" {
				t.Errorf("expected only whole words, found fragment %q in chunk %q", word, trimmed)
			}
		}
	}
}

func TestChunkIDsAreSequentialAndStable(t *testing.T) {
	c := New(DefaultConfig())
	pages := []parser.Page{
		{PageNumber: 1, Text: "first page"},
		{PageNumber: 2, Text: "second page"},
	}
	a := c.Chunk(7, pages)
	b := c.Chunk(7, pages)

	if len(a) != 2 || len(b) != 2 {
		t.Fatalf("expected 2 chunks each run, got %d and %d", len(a), len(b))
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			t.Errorf("expected stable chunk id across runs, got %d and %d", a[i].ID, b[i].ID)
		}
		if a[i].ChunkIndex != i {
			t.Errorf("expected sequential chunk_index %d, got %d", i, a[i].ChunkIndex)
		}
	}
}

func TestChunkHashStableForIdenticalText(t *testing.T) {
	c := New(DefaultConfig())
	pages := []parser.Page{{PageNumber: 1, Text: "identical content"}}
	a := c.Chunk(1, pages)
	b := c.Chunk(2, pages)
	if a[0].Hash != b[0].Hash {
		t.Errorf("expected identical text to hash identically regardless of catalog, got %q and %q", a[0].Hash, b[0].Hash)
	}
}

func TestChunkEmptyPageProducesNoChunks(t *testing.T) {
	c := New(DefaultConfig())
	chunks := c.Chunk(1, []parser.Page{{PageNumber: 1, Text: "   "}})
	if len(chunks) != 0 {
		t.Fatalf("expected no chunks for blank page, got %d", len(chunks))
	}
}
