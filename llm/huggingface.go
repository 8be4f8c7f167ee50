package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// huggingfaceProvider implements Provider for Hugging Face. Chat routes
// through HF's OpenAI-compatible router (https://router.huggingface.co/v1)
// and reuses openAICompatClient; Embed calls the feature-extraction
// Inference API directly, since that endpoint's request/response shape is
// not OpenAI-compatible (spec.md §4.6 embedding provider enum).
type huggingfaceProvider struct {
	chatBase  openAICompatClient
	embedCfg  Config
	client    *http.Client
}

// NewHuggingFace creates a provider for Hugging Face.
func NewHuggingFace(cfg Config) Provider {
	chatCfg := cfg
	if chatCfg.BaseURL == "" {
		chatCfg.BaseURL = "https://router.huggingface.co"
	}
	embedCfg := cfg
	if embedCfg.BaseURL == "" {
		embedCfg.BaseURL = "https://api-inference.huggingface.co"
	}
	return &huggingfaceProvider{
		chatBase: newOpenAICompatClient(chatCfg),
		embedCfg: embedCfg,
		client:   &http.Client{Timeout: 120 * time.Second},
	}
}

func (p *huggingfaceProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	return p.chatBase.chat(ctx, req)
}

type hfFeatureExtractionRequest struct {
	Inputs []string `json:"inputs"`
	Options struct {
		WaitForModel bool `json:"wait_for_model"`
	} `json:"options"`
}

// Embed calls the feature-extraction pipeline for embedCfg.Model. The API
// returns one vector per input when the model pools internally (the common
// case for sentence-embedding models); a doubly-nested token-level response
// is mean-pooled here to normalize both shapes to one vector per text.
func (p *huggingfaceProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	body := hfFeatureExtractionRequest{Inputs: texts}
	body.Options.WaitForModel = true

	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/pipeline/feature-extraction/%s", p.embedCfg.BaseURL, p.embedCfg.Model)

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			delay := baseRetryDelay * time.Duration(1<<(attempt-1))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		if p.embedCfg.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+p.embedCfg.APIKey)
		}

		resp, err := p.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			continue
		}
		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("huggingface feature-extraction error %d: %s", resp.StatusCode, string(respBody))
			if !retryableStatusCode(resp.StatusCode) {
				return nil, lastErr
			}
			continue
		}

		return parseHFEmbeddings(respBody, len(texts))
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// parseHFEmbeddings handles both the flat ([][]float32, one vector per
// input) and token-level ([][][]float32, mean-pooled here) response shapes
// different feature-extraction models return.
func parseHFEmbeddings(raw []byte, n int) ([][]float32, error) {
	var flat [][]float32
	if err := json.Unmarshal(raw, &flat); err == nil && len(flat) == n {
		return flat, nil
	}

	var nested [][][]float32
	if err := json.Unmarshal(raw, &nested); err != nil {
		return nil, fmt.Errorf("decoding huggingface embedding response: %w", err)
	}
	out := make([][]float32, len(nested))
	for i, tokens := range nested {
		out[i] = meanPool(tokens)
	}
	return out, nil
}

func meanPool(tokens [][]float32) []float32 {
	if len(tokens) == 0 {
		return nil
	}
	dim := len(tokens[0])
	sum := make([]float32, dim)
	for _, t := range tokens {
		for i := 0; i < dim && i < len(t); i++ {
			sum[i] += t[i]
		}
	}
	for i := range sum {
		sum[i] /= float32(len(tokens))
	}
	return sum
}
