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

// claudeProvider implements the Provider interface using the Anthropic
// Messages API (POST /v1/messages). Blocking-only.
type claudeProvider struct {
	config ProviderConfig
	client *http.Client
}

// newClaude creates a new Anthropic Claude provider.
func newClaude(cfg ProviderConfig) *claudeProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.anthropic.com"
	}
	return &claudeProvider{
		config: cfg,
		client: &http.Client{Timeout: 5 * time.Minute},
	}
}

func (p *claudeProvider) Name() string { return "claude" }

// TextCompletion sends a single-user-message request.
func (p *claudeProvider) TextCompletion(ctx context.Context, prompt string, opts Options) (string, error) {
	messages := []claudeMessage{{
		Role:    "user",
		Content: []claudeContentBlock{{Type: "text", Text: prompt}},
	}}
	return p.send(ctx, messages, opts)
}

// ChatCompletion sends structured messages; image parts become base64
// source blocks.
func (p *claudeProvider) ChatCompletion(ctx context.Context, messages []Message, opts Options) (string, error) {
	out := make([]claudeMessage, 0, len(messages))
	for _, m := range messages {
		var blocks []claudeContentBlock
		for _, part := range m.Parts {
			switch part.Type {
			case PartText:
				blocks = append(blocks, claudeContentBlock{Type: "text", Text: part.Text})
			case PartImage:
				mimeType, data, ok := SplitDataURI(part.ImageURL)
				if !ok {
					return "", fmt.Errorf("claude: image part is not a data URI")
				}
				blocks = append(blocks, claudeContentBlock{
					Type: "image",
					Source: &claudeImageSource{
						Type:      "base64",
						MediaType: mimeType,
						Data:      data,
					},
				})
			}
		}
		out = append(out, claudeMessage{Role: m.Role, Content: blocks})
	}
	return p.send(ctx, out, opts)
}

// send performs the HTTP call to the messages endpoint.
func (p *claudeProvider) send(ctx context.Context, messages []claudeMessage, opts Options) (string, error) {
	model := opts.Model
	if model == "" {
		model = p.config.Model
	}
	maxTokens := opts.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096 // max_tokens is mandatory for this API
	}

	body := claudeRequest{
		Model:       model,
		MaxTokens:   maxTokens,
		Temperature: opts.Temperature,
		Messages:    messages,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("claude marshal: %w", err)
	}

	url := p.config.BaseURL + "/v1/messages"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("claude request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.config.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("claude http: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("claude read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("claude API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var result claudeResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("claude unmarshal: %w", err)
	}

	// Extract text from the first content block.
	for _, block := range result.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}

	return "", fmt.Errorf("claude: no text content in response")
}

// --- Anthropic Messages API types ---

type claudeImageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type claudeContentBlock struct {
	Type   string             `json:"type"`
	Text   string             `json:"text,omitempty"`
	Source *claudeImageSource `json:"source,omitempty"`
}

type claudeMessage struct {
	Role    string               `json:"role"`
	Content []claudeContentBlock `json:"content"`
}

type claudeRequest struct {
	Model       string          `json:"model"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature float64         `json:"temperature,omitempty"`
	Messages    []claudeMessage `json:"messages"`
}

type claudeResponse struct {
	Content []claudeContentBlock `json:"content"`
}
