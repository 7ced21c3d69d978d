// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOpenAIChatCompletion(t *testing.T) {
	var gotReq openAIRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("authorization header: got %q", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatalf("decode request: %v", err)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "<!DOCTYPE html>..."}},
			},
		})
	}))
	defer srv.Close()

	p := newOpenAI(ProviderConfig{APIKey: "sk-test", Model: "gpt-4o", BaseURL: srv.URL})

	result, err := p.TextCompletion(context.Background(), "make a template", Options{MaxTokens: 4096, Temperature: 0.5})
	if err != nil {
		t.Fatalf("text completion: %v", err)
	}
	if result != "<!DOCTYPE html>..." {
		t.Errorf("result: got %q", result)
	}

	if gotReq.Model != "gpt-4o" {
		t.Errorf("model: got %q", gotReq.Model)
	}
	if gotReq.MaxTokens != 4096 {
		t.Errorf("max_tokens: got %d", gotReq.MaxTokens)
	}
	if gotReq.Stream {
		t.Error("blocking call should not set stream")
	}
	if len(gotReq.Messages) != 1 || gotReq.Messages[0].Role != "user" {
		t.Errorf("messages: got %+v", gotReq.Messages)
	}
}

func TestOpenAIMultimodalMessages(t *testing.T) {
	msgs := toOpenAIMessages([]Message{
		UserMessage(TextPart("describe"), ImagePart("data:image/png;base64,aGVsbG8=")),
	})

	if len(msgs) != 1 {
		t.Fatalf("messages: got %d", len(msgs))
	}
	parts, ok := msgs[0].Content.([]openAIContentPart)
	if !ok {
		t.Fatalf("content: got %T, want content parts", msgs[0].Content)
	}
	if parts[0].Type != "text" || parts[1].Type != "image_url" {
		t.Errorf("part types: got %q/%q", parts[0].Type, parts[1].Type)
	}
	if parts[1].ImageURL.URL != "data:image/png;base64,aGVsbG8=" {
		t.Errorf("image url: got %q", parts[1].ImageURL.URL)
	}

	// A single text part collapses to plain string content.
	plain := toOpenAIMessages([]Message{UserMessage(TextPart("hi"))})
	if s, ok := plain[0].Content.(string); !ok || s != "hi" {
		t.Errorf("plain content: got %#v", plain[0].Content)
	}
}

func TestOpenAIStreaming(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req openAIRequest
		json.NewDecoder(r.Body).Decode(&req)
		if !req.Stream {
			t.Error("streaming call should set stream=true")
		}

		w.Header().Set("Content-Type", "text/event-stream")
		frames := []string{
			`data: {"choices":[{"delta":{"content":"<!DOCTYPE "}}]}`,
			``,
			`: keep-alive comment`,
			`data: {"choices":[{"delta":{"content":"html>"}}]}`,
			`data: {"choices":[{"delta":{}}]}`,
			`data: [DONE]`,
		}
		for _, f := range frames {
			w.Write([]byte(f + "\n\n"))
		}
	}))
	defer srv.Close()

	p := newOpenAI(ProviderConfig{APIKey: "sk-test", Model: "gpt-4o", BaseURL: srv.URL})

	var chunks []string
	err := p.StreamTextCompletion(context.Background(), "go", Options{}, func(chunk string) error {
		chunks = append(chunks, chunk)
		return nil
	})
	if err != nil {
		t.Fatalf("stream: %v", err)
	}

	if len(chunks) != 2 {
		t.Fatalf("chunks: got %v, want 2 content deltas", chunks)
	}
	if chunks[0]+chunks[1] != "<!DOCTYPE html>" {
		t.Errorf("assembled: got %q", chunks[0]+chunks[1])
	}
}

func TestClaudeChatCompletion(t *testing.T) {
	var gotReq claudeRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "ck-test" {
			t.Errorf("x-api-key: got %q", r.Header.Get("x-api-key"))
		}
		if r.Header.Get("anthropic-version") == "" {
			t.Error("anthropic-version header missing")
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatalf("decode request: %v", err)
		}

		json.NewEncoder(w).Encode(claudeResponse{
			Content: []claudeContentBlock{{Type: "text", Text: "done"}},
		})
	}))
	defer srv.Close()

	p := newClaude(ProviderConfig{APIKey: "ck-test", Model: "claude-sonnet-4-20250514", BaseURL: srv.URL})

	result, err := p.ChatCompletion(context.Background(), []Message{
		UserMessage(TextPart("replicate this"), ImagePart("data:image/jpeg;base64,ZGF0YQ==")),
	}, Options{})
	if err != nil {
		t.Fatalf("chat completion: %v", err)
	}
	if result != "done" {
		t.Errorf("result: got %q", result)
	}

	// max_tokens is mandatory and defaulted when unset.
	if gotReq.MaxTokens != 4096 {
		t.Errorf("max_tokens: got %d, want default 4096", gotReq.MaxTokens)
	}

	blocks := gotReq.Messages[0].Content
	if len(blocks) != 2 {
		t.Fatalf("content blocks: got %d", len(blocks))
	}
	if blocks[1].Type != "image" || blocks[1].Source == nil {
		t.Fatalf("image block: got %+v", blocks[1])
	}
	if blocks[1].Source.MediaType != "image/jpeg" || blocks[1].Source.Data != "ZGF0YQ==" {
		t.Errorf("image source: got %+v", blocks[1].Source)
	}
}

func TestGeminiChatCompletion(t *testing.T) {
	var gotReq geminiRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-goog-api-key") != "gk-test" {
			t.Errorf("x-goog-api-key: got %q", r.Header.Get("x-goog-api-key"))
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatalf("decode request: %v", err)
		}

		json.NewEncoder(w).Encode(geminiResponse{
			Candidates: []geminiCandidate{{
				Content: geminiContent{Parts: []geminiPart{{Text: "ok"}}},
			}},
		})
	}))
	defer srv.Close()

	p := newGemini(ProviderConfig{APIKey: "gk-test", Model: "gemini-2.0-flash", BaseURL: srv.URL})

	result, err := p.ChatCompletion(context.Background(), []Message{
		UserMessage(TextPart("match this style"), ImagePart("data:image/png;base64,cGl4ZWxz")),
	}, Options{MaxTokens: 2048})
	if err != nil {
		t.Fatalf("chat completion: %v", err)
	}
	if result != "ok" {
		t.Errorf("result: got %q", result)
	}

	parts := gotReq.Contents[0].Parts
	if len(parts) != 2 {
		t.Fatalf("parts: got %d", len(parts))
	}
	if parts[1].InlineData == nil || parts[1].InlineData.MimeType != "image/png" || parts[1].InlineData.Data != "cGl4ZWxz" {
		t.Errorf("inline data: got %+v", parts[1].InlineData)
	}
	if gotReq.GenerationConfig == nil || gotReq.GenerationConfig.MaxOutputTokens != 2048 {
		t.Errorf("generation config: got %+v", gotReq.GenerationConfig)
	}
}

func TestProviderHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := newOpenAI(ProviderConfig{APIKey: "sk", BaseURL: srv.URL})
	if _, err := p.TextCompletion(context.Background(), "x", Options{}); err == nil {
		t.Error("expected error on 429 response")
	}
}
