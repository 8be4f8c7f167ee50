package parser

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/conceptrag/conceptrag/llm"
)

// visionOCR implements OCRBackend by sending the whole source PDF to a
// vision-capable LLM and asking it to transcribe a single page. Adapted
// from the teacher's PDFVisionParser, which sent the entire PDF as a
// base64 data URL rather than a pre-rendered page raster — there is no
// PDF-to-image rasterizer in this codebase's dependency set, so re-sending
// the whole document and naming the target page is the only extraction
// path available to a vision model here.
type visionOCR struct {
	provider llm.VisionProvider
	model    string
}

// NewVisionOCR creates an OCRBackend backed by a vision-capable provider.
func NewVisionOCR(provider llm.VisionProvider, model string) OCRBackend {
	return &visionOCR{provider: provider, model: model}
}

const ocrPrompt = `You are transcribing page %d of the attached PDF document.
Read only that page and return its plain text content, preserving reading
order (headings before body text, top to bottom). Do not summarize,
translate, or add commentary. If the page is blank or contains no
extractable text, respond with an empty string.`

func (o *visionOCR) OCR(ctx context.Context, docBytes []byte, pageNumber int) (string, float64, error) {
	b64 := base64.StdEncoding.EncodeToString(docBytes)

	req := llm.VisionChatRequest{
		Model:       o.model,
		Temperature: 0,
		MaxTokens:   4096,
		Messages: []llm.VisionMessage{
			{
				Role: "user",
				Content: []llm.ContentPart{
					{Type: "text", Text: fmt.Sprintf(ocrPrompt, pageNumber)},
					{Type: "image_url", ImageURL: &llm.ImageURL{
						URL: "data:application/pdf;base64," + b64,
					}},
				},
			},
		},
	}

	resp, err := o.provider.ChatWithImages(ctx, req)
	if err != nil {
		return "", 0, fmt.Errorf("vision OCR for page %d: %w", pageNumber, err)
	}

	text := strings.TrimSpace(resp.Content)
	if text == "" {
		return "", 0, nil
	}
	// The API gives no confidence score; treat any non-empty transcription
	// as usable and let the loader's printable-density check on the result
	// be the final arbiter if the model echoes junk.
	return text, 1.0, nil
}
