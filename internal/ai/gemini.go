// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// geminiProvider implements the Provider interface using the Google
// Gemini REST API (POST /v1beta/models/{model}:generateContent).
// Gemini does not expose an SSE stream here, so it is blocking-only and
// callers fall back to synthetic progress pacing.
type geminiProvider struct {
	config ProviderConfig
	client *http.Client
}

// newGemini creates a new Google Gemini provider.
func newGemini(cfg ProviderConfig) *geminiProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com"
	}
	return &geminiProvider{
		config: cfg,
		client: &http.Client{Timeout: 5 * time.Minute},
	}
}

func (p *geminiProvider) Name() string { return "gemini" }

// TextCompletion sends a generateContent request with a single text part.
func (p *geminiProvider) TextCompletion(ctx context.Context, prompt string, opts Options) (string, error) {
	contents := []geminiContent{{Parts: []geminiPart{{Text: prompt}}}}
	return p.generate(ctx, contents, opts)
}

// ChatCompletion sends structured messages; image parts are decomposed
// from their data URI into inline base64 data.
func (p *geminiProvider) ChatCompletion(ctx context.Context, messages []Message, opts Options) (string, error) {
	contents := make([]geminiContent, 0, len(messages))
	for _, m := range messages {
		var parts []geminiPart
		for _, part := range m.Parts {
			switch part.Type {
			case PartText:
				parts = append(parts, geminiPart{Text: part.Text})
			case PartImage:
				mimeType, data, ok := SplitDataURI(part.ImageURL)
				if !ok {
					return "", fmt.Errorf("gemini: image part is not a data URI")
				}
				parts = append(parts, geminiPart{
					InlineData: &geminiInlineData{MimeType: mimeType, Data: data},
				})
			}
		}
		contents = append(contents, geminiContent{Parts: parts})
	}
	return p.generate(ctx, contents, opts)
}

// generate performs the HTTP call to the generateContent endpoint.
func (p *geminiProvider) generate(ctx context.Context, contents []geminiContent, opts Options) (string, error) {
	model := opts.Model
	if model == "" {
		model = p.config.Model
	}

	body := geminiRequest{Contents: contents}
	if opts.MaxTokens > 0 || opts.Temperature > 0 {
		body.GenerationConfig = &geminiGenerationConfig{
			MaxOutputTokens: opts.MaxTokens,
			Temperature:     opts.Temperature,
		}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("gemini marshal: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", p.config.BaseURL, model)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("gemini request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", p.config.APIKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini http: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("gemini read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var result geminiResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("gemini unmarshal: %w", err)
	}

	if len(result.Candidates) == 0 {
		return "", fmt.Errorf("gemini: no candidates returned")
	}

	// Extract text from the first candidate's parts.
	for _, part := range result.Candidates[0].Content.Parts {
		if part.Text != "" {
			return part.Text, nil
		}
	}

	return "", fmt.Errorf("gemini: no text in response")
}

// --- Gemini API types ---

type geminiInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
	Temperature     float64 `json:"temperature,omitempty"`
}

type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiCandidate struct {
	Content geminiContent `json:"content"`
}

type geminiResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
}
