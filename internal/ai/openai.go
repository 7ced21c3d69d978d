package ai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// openAIProvider implements Provider and StreamingProvider using the OpenAI
// chat completions API (POST /v1/chat/completions). Any OpenAI-compatible
// endpoint works via BaseURL.
type openAIProvider struct {
	config ProviderConfig
	client *http.Client
}

// newOpenAI creates a new OpenAI provider.
func newOpenAI(cfg ProviderConfig) *openAIProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	return &openAIProvider{
		config: cfg,
		// Streamed template generations can run for minutes.
		client: &http.Client{Timeout: 5 * time.Minute},
	}
}

func (p *openAIProvider) Name() string { return "openai" }

// TextCompletion sends a single-user-message chat completion request.
func (p *openAIProvider) TextCompletion(ctx context.Context, prompt string, opts Options) (string, error) {
	return p.doChat(ctx, []openAIMessage{{Role: "user", Content: prompt}}, opts)
}

// ChatCompletion sends structured messages, encoding image parts in the
// vision content-part format.
func (p *openAIProvider) ChatCompletion(ctx context.Context, messages []Message, opts Options) (string, error) {
	return p.doChat(ctx, toOpenAIMessages(messages), opts)
}

// StreamTextCompletion streams a text completion chunk by chunk.
func (p *openAIProvider) StreamTextCompletion(ctx context.Context, prompt string, opts Options, fn func(chunk string) error) error {
	return p.doStream(ctx, []openAIMessage{{Role: "user", Content: prompt}}, opts, fn)
}

// StreamChatCompletion streams a chat completion chunk by chunk.
func (p *openAIProvider) StreamChatCompletion(ctx context.Context, messages []Message, opts Options, fn func(chunk string) error) error {
	return p.doStream(ctx, toOpenAIMessages(messages), opts, fn)
}

// doChat performs the blocking HTTP call to the chat completions endpoint.
func (p *openAIProvider) doChat(ctx context.Context, messages []openAIMessage, opts Options) (string, error) {
	respBody, err := p.post(ctx, openAIRequest{
		Model:       p.model(opts),
		Messages:    messages,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	})
	if err != nil {
		return "", err
	}

	var result openAIResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("openai unmarshal: %w", err)
	}

	if len(result.Choices) == 0 {
		return "", fmt.Errorf("openai: no choices returned")
	}

	content, _ := result.Choices[0].Message.Content.(string)
	return content, nil
}

// doStream performs the SSE streaming call, invoking fn per content delta.
func (p *openAIProvider) doStream(ctx context.Context, messages []openAIMessage, opts Options, fn func(chunk string) error) error {
	payload, err := json.Marshal(openAIRequest{
		Model:       p.model(opts),
		Messages:    messages,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
		Stream:      true,
	})
	if err != nil {
		return fmt.Errorf("openai marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.config.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("openai request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.config.APIKey)
	req.Header.Set("Accept", "text/event-stream")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("openai http: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("openai API error (status %d): %s", resp.StatusCode, string(body))
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" || data == "[DONE]" {
			continue
		}

		var chunk openAIStreamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			// Skip malformed keep-alive frames rather than failing the stream.
			continue
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		if delta := chunk.Choices[0].Delta.Content; delta != "" {
			if err := fn(delta); err != nil {
				return err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("openai stream read: %w", err)
	}
	return nil
}

// post marshals and sends a blocking request, returning the raw body.
func (p *openAIProvider) post(ctx context.Context, body openAIRequest) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("openai marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.config.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("openai request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.config.APIKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai http: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("openai read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openai API error (status %d): %s", resp.StatusCode, string(respBody))
	}
	return respBody, nil
}

func (p *openAIProvider) model(opts Options) string {
	if opts.Model != "" {
		return opts.Model
	}
	return p.config.Model
}

// toOpenAIMessages converts provider-neutral messages to the OpenAI wire
// shape. Single text parts collapse to a plain string content; multimodal
// messages become content-part arrays.
func toOpenAIMessages(messages []Message) []openAIMessage {
	out := make([]openAIMessage, 0, len(messages))
	for _, m := range messages {
		if len(m.Parts) == 1 && m.Parts[0].Type == PartText {
			out = append(out, openAIMessage{Role: m.Role, Content: m.Parts[0].Text})
			continue
		}

		parts := make([]openAIContentPart, 0, len(m.Parts))
		for _, part := range m.Parts {
			switch part.Type {
			case PartText:
				parts = append(parts, openAIContentPart{Type: "text", Text: part.Text})
			case PartImage:
				parts = append(parts, openAIContentPart{
					Type:     "image_url",
					ImageURL: &openAIImageURL{URL: part.ImageURL},
				})
			}
		}
		out = append(out, openAIMessage{Role: m.Role, Content: parts})
	}
	return out
}

// --- OpenAI-compatible request/response types ---

type openAIMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"` // string or []openAIContentPart
}

type openAIContentPart struct {
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	ImageURL *openAIImageURL `json:"image_url,omitempty"`
}

type openAIImageURL struct {
	URL string `json:"url"`
}

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature float64         `json:"temperature,omitempty"`
	Stream      bool            `json:"stream,omitempty"`
}

type openAIResponse struct {
	Choices []openAIChoice `json:"choices"`
}

type openAIChoice struct {
	Message openAIMessage `json:"message"`
}

type openAIStreamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}
