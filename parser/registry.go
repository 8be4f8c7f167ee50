package parser

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Registry maps file extensions to the Loader that handles them, mirroring
// the teacher's Registry but generalized to the narrower Loader interface
// and the spec's PDF/EPUB-only document type set (spec.md §3.1).
type Registry struct {
	loaders map[string]Loader
}

// NewRegistry creates a Registry with the PDFLoader and EPUBLoader
// registered. ocr is optional; when non-nil, PDFLoader falls back to it for
// low-density pages (spec.md §4.1).
func NewRegistry(ocr OCRBackend) *Registry {
	r := &Registry{loaders: make(map[string]Loader)}
	r.Register(&PDFLoader{OCR: ocr})
	r.Register(&EPUBLoader{})
	return r
}

// Register adds or replaces the loader for every extension it supports.
func (r *Registry) Register(l Loader) {
	for _, ext := range l.SupportedExtensions() {
		r.loaders[ext] = l
	}
}

// Get returns the loader registered for path's extension.
func (r *Registry) Get(path string) (Loader, error) {
	ext := strings.ToLower(filepath.Ext(path))
	l, ok := r.loaders[ext]
	if !ok {
		return nil, fmt.Errorf("no loader registered for extension: %s", ext)
	}
	return l, nil
}
