package parser

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// minPrintableDensity is the threshold below which a page's natively
// extracted text is considered too sparse to be real content, triggering
// the OCR fallback (spec.md §4.1).
const minPrintableDensity = 0.15

// PDFLoader implements Loader for PDF files using github.com/ledongthuc/pdf,
// adapted from the teacher's parser.PDFParser (ordered text extraction via
// extractPageTextOrdered). When native extraction yields a low-density or
// empty page and an OCR backend is configured, that page is re-extracted
// via the backend before being accepted.
type PDFLoader struct {
	OCR OCRBackend // optional
}

func (l *PDFLoader) SupportedExtensions() []string { return []string{".pdf"} }

func (l *PDFLoader) Load(ctx context.Context, path string) (*LoadResult, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer f.Close()

	totalPages := reader.NumPage()
	pages := make([]Page, 0, totalPages)

	var docBytes []byte
	if l.OCR != nil {
		docBytes, _ = os.ReadFile(path)
	}

	for i := 1; i <= totalPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := extractPageTextOrdered(page)
		if err != nil {
			text = ""
		}
		text = strings.TrimSpace(text)

		if printableDensity(text) < minPrintableDensity && l.OCR != nil && docBytes != nil {
			ocrText, confidence, err := l.OCR.OCR(ctx, docBytes, i)
			if err != nil {
				slog.Warn("pdf: OCR fallback failed", "page", i, "error", err)
			} else if confidence > 0 && strings.TrimSpace(ocrText) != "" {
				text = strings.TrimSpace(ocrText)
			}
		}

		if text == "" {
			continue
		}

		pages = append(pages, Page{PageNumber: i, Text: text})
	}

	return &LoadResult{
		Pages:    pages,
		Metadata: map[string]string{"total_pages": fmt.Sprintf("%d", totalPages)},
	}, nil
}

// extractPageTextOrdered extracts text from a PDF page sorted by visual
// position (top-to-bottom, left-to-right). The default GetPlainText reads
// text in PDF object order which can differ from visual layout — headings
// may appear after the body text they label.
//
// This function groups Content() elements into visual lines by Y proximity
// (preserving the content-stream order within each line — which GetPlainText
// relies on for correct character sequencing), then sorts the lines by Y so
// the result follows top-to-bottom reading order.
func extractPageTextOrdered(page pdf.Page) (string, error) {
	content := page.Content()
	if len(content.Text) == 0 {
		return page.GetPlainText(nil)
	}

	const lineTolerance = 3.0

	type visualLine struct {
		y   float64
		buf strings.Builder
	}

	var lines []*visualLine
	var cur *visualLine

	for _, t := range content.Text {
		if cur == nil || math.Abs(t.Y-cur.y) > lineTolerance {
			lines = append(lines, &visualLine{y: t.Y})
			cur = lines[len(lines)-1]
		}
		cur.buf.WriteString(t.S)
	}

	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].y > lines[j].y
	})

	var parts []string
	for _, l := range lines {
		text := strings.TrimSpace(l.buf.String())
		if text != "" {
			parts = append(parts, text)
		}
	}

	result := strings.Join(parts, "\n")
	if strings.TrimSpace(result) == "" {
		return page.GetPlainText(nil)
	}

	return result, nil
}
