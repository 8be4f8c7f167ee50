package parser

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestEPUB(t *testing.T, dir string) string {
	t.Helper()
	epubPath := filepath.Join(dir, "book.epub")
	f, err := os.Create(epubPath)
	if err != nil {
		t.Fatalf("creating epub file: %v", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)

	files := map[string]string{
		"META-INF/container.xml": `<?xml version="1.0"?>
<container><rootfiles><rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/></rootfiles></container>`,
		"OEBPS/content.opf": `<?xml version="1.0"?>
<package>
<metadata><title>Test Book</title><creator>Jane Author</creator></metadata>
<manifest>
<item id="ch1" href="chapter1.xhtml"/>
<item id="ch2" href="chapter2.xhtml"/>
</manifest>
<spine><itemref idref="ch1"/><itemref idref="ch2"/></spine>
</package>`,
		"OEBPS/chapter1.xhtml": `<html><body><h1>Chapter One</h1><p>This is the first chapter.</p></body></html>`,
		"OEBPS/chapter2.xhtml": `<html><body><h1>Chapter Two</h1><p>This is the second chapter.</p></body></html>`,
	}

	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("creating zip entry %q: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("writing zip entry %q: %v", name, err)
		}
	}

	if err := zw.Close(); err != nil {
		t.Fatalf("closing epub zip: %v", err)
	}
	return epubPath
}

func TestEPUBLoaderConcatenatesSpineIntoOnePage(t *testing.T) {
	epubPath := writeTestEPUB(t, t.TempDir())

	l := &EPUBLoader{}
	result, err := l.Load(context.Background(), epubPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(result.Pages) != 1 {
		t.Fatalf("expected exactly 1 page (spine concatenated), got %d", len(result.Pages))
	}
	if result.Pages[0].PageNumber != 1 {
		t.Fatalf("expected page number 1, got %d", result.Pages[0].PageNumber)
	}

	text := result.Pages[0].Text
	for _, want := range []string{"Chapter One", "first chapter", "Chapter Two", "second chapter"} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected page text to contain %q, got: %q", want, text)
		}
	}

	if result.Metadata["title"] != "Test Book" {
		t.Fatalf("expected metadata title %q, got %q", "Test Book", result.Metadata["title"])
	}
	if result.Metadata["author"] != "Jane Author" {
		t.Fatalf("expected metadata author %q, got %q", "Jane Author", result.Metadata["author"])
	}
}
