// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package template

import (
	"context"
	"fmt"
	"strings"
	"time"

	"slideforge/internal/ai"
	"slideforge/internal/models"
)

// StreamEventType discriminates streamed generation events.
type StreamEventType string

const (
	// EventProgress carries a token chunk or a status message.
	EventProgress StreamEventType = "progress"
	// EventComplete is the terminal success event.
	EventComplete StreamEventType = "complete"
	// EventError is the terminal failure event. Streaming never returns
	// errors through any other path.
	EventError StreamEventType = "error"
)

// StreamEvent is one event of a streamed generation or adjustment. On the
// terminal complete event Content carries the extracted HTML, RawResponse
// the unprocessed model output and Message a human-readable summary.
type StreamEvent struct {
	Type        StreamEventType        `json:"type"`
	Content     string                 `json:"content,omitempty"`
	RawResponse string                 `json:"raw_response,omitempty"`
	Message     string                 `json:"message,omitempty"`
	Template    *models.MasterTemplate `json:"template,omitempty"`
}

const (
	// syntheticChunkSize and syntheticChunkDelay pace the fallback stream
	// when the provider cannot deliver real tokens.
	syntheticChunkSize  = 256
	syntheticChunkDelay = 30 * time.Millisecond
)

// GenerateStream runs a single-pass streamed generation. Unlike Generate it
// never retries and never returns an error: every failure surfaces as a
// terminal error event. The channel closes after the terminal event or when
// ctx is cancelled.
func (s *Service) GenerateStream(ctx context.Context, req GenerateRequest) <-chan StreamEvent {
	events := make(chan StreamEvent)

	go func() {
		defer close(events)
		defer s.recoverToEvent(ctx, events)

		name := strings.TrimSpace(req.Name)
		if name == "" {
			emit(ctx, events, errorEvent("template name is required"))
			return
		}
		if strings.TrimSpace(req.Prompt) == "" {
			emit(ctx, events, errorEvent("generation prompt is required"))
			return
		}

		existing, err := s.store.FindByName(name)
		if err != nil {
			emit(ctx, events, errorEvent(err.Error()))
			return
		}
		if existing != nil {
			emit(ctx, events, errorEvent(fmt.Sprintf("template %q already exists", name)))
			return
		}

		provider, settings, err := s.registry.ForRole(templateRole, req.Provider)
		if err != nil {
			emit(ctx, events, errorEvent(err.Error()))
			return
		}

		messages := buildMessages(req.Prompt, req.Mode, req.ReferenceImage, req.ImageMIMEType)

		response, ok := s.streamResponse(ctx, events, provider, settings.Options(), messages)
		if !ok {
			return
		}

		html := ExtractHTML(response)
		if !IsValidHTML(html) {
			emit(ctx, events, errorEvent("generated content is not a valid HTML template"))
			return
		}

		created, err := s.Create(ctx, CreateParams{
			Name:        name,
			Description: fallbackDescription(req.Description, req.Prompt),
			HTMLContent: html,
			Tags:        fallbackTags(req.Tags),
			CreatedBy:   req.CreatedBy,
		})
		if err != nil {
			emit(ctx, events, errorEvent(err.Error()))
			return
		}

		s.logger.Info("template generated via stream",
			"id", created.ID, "name", created.Name, "provider", provider.Name())

		emit(ctx, events, StreamEvent{
			Type:        EventComplete,
			Content:     html,
			RawResponse: response,
			Message:     "Template generated successfully",
			Template:    created,
		})
	}()

	return events
}

// AdjustStream streams a text-only adjustment of existing template HTML.
// The adjusted document is validated but never persisted; the caller
// decides what to do with the complete event's content.
func (s *Service) AdjustStream(ctx context.Context, currentHTML, instruction, providerOverride string) <-chan StreamEvent {
	events := make(chan StreamEvent)

	go func() {
		defer close(events)
		defer s.recoverToEvent(ctx, events)

		if strings.TrimSpace(currentHTML) == "" {
			emit(ctx, events, errorEvent("current template HTML is required"))
			return
		}
		if strings.TrimSpace(instruction) == "" {
			emit(ctx, events, errorEvent("adjustment instruction is required"))
			return
		}

		provider, settings, err := s.registry.ForRole(templateRole, providerOverride)
		if err != nil {
			emit(ctx, events, errorEvent(err.Error()))
			return
		}

		prompt := adjustmentPrompt(currentHTML, instruction)
		messages := []ai.Message{ai.UserMessage(ai.TextPart(prompt))}

		response, ok := s.streamResponse(ctx, events, provider, settings.Options(), messages)
		if !ok {
			return
		}

		html := ExtractHTML(response)
		if !IsValidHTML(html) {
			emit(ctx, events, errorEvent("adjusted content is not a valid HTML template"))
			return
		}

		emit(ctx, events, StreamEvent{
			Type:        EventComplete,
			Content:     html,
			RawResponse: response,
			Message:     "Template adjusted successfully",
		})
	}()

	return events
}

// streamResponse obtains the full provider response while forwarding
// progress events. Providers with streaming support deliver real token
// chunks; others get one blocking call re-paced into synthetic chunks.
// Returns ok=false after emitting an error event or on cancellation.
func (s *Service) streamResponse(ctx context.Context, events chan<- StreamEvent, provider ai.Provider, opts ai.Options, messages []ai.Message) (string, bool) {
	if sp, isStreaming := provider.(ai.StreamingProvider); isStreaming {
		var full strings.Builder
		forward := func(chunk string) error {
			full.WriteString(chunk)
			if !emit(ctx, events, StreamEvent{Type: EventProgress, Content: chunk}) {
				return ctx.Err()
			}
			return nil
		}

		var err error
		if prompt, textOnly := soleTextPrompt(messages); textOnly {
			err = sp.StreamTextCompletion(ctx, prompt, opts, forward)
		} else {
			err = sp.StreamChatCompletion(ctx, messages, opts, forward)
		}
		if err != nil {
			if ctx.Err() != nil {
				return "", false
			}
			s.logger.Warn("streamed generation failed", "provider", provider.Name(), "error", err)
			emit(ctx, events, errorEvent("generation failed: "+err.Error()))
			return "", false
		}
		if full.Len() == 0 {
			emit(ctx, events, errorEvent("provider returned an empty response"))
			return "", false
		}
		return full.String(), true
	}

	if !emit(ctx, events, StreamEvent{Type: EventProgress, Message: "Analyzing design requirements..."}) {
		return "", false
	}

	response, err := complete(ctx, provider, messages, opts)
	if err != nil {
		if ctx.Err() != nil {
			return "", false
		}
		s.logger.Warn("generation failed", "provider", provider.Name(), "error", err)
		emit(ctx, events, errorEvent("generation failed: "+err.Error()))
		return "", false
	}
	if strings.TrimSpace(response) == "" {
		emit(ctx, events, errorEvent("provider returned an empty response"))
		return "", false
	}

	// Re-pace the blocking response so clients still see incremental output.
	for i := 0; i < len(response); i += syntheticChunkSize {
		end := i + syntheticChunkSize
		if end > len(response) {
			end = len(response)
		}
		if !emit(ctx, events, StreamEvent{Type: EventProgress, Content: response[i:end]}) {
			return "", false
		}
		select {
		case <-ctx.Done():
			return "", false
		case <-time.After(syntheticChunkDelay):
		}
	}

	return response, true
}

// recoverToEvent converts a pipeline panic into a terminal error event so
// streaming callers never see a crash.
func (s *Service) recoverToEvent(ctx context.Context, events chan<- StreamEvent) {
	if r := recover(); r != nil {
		s.logger.Error("panic during streamed generation", "panic", r)
		emit(ctx, events, errorEvent(fmt.Sprintf("internal error: %v", r)))
	}
}

// emit sends an event unless the consumer is gone. Returns false when ctx
// is done.
func emit(ctx context.Context, events chan<- StreamEvent, ev StreamEvent) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

func errorEvent(message string) StreamEvent {
	return StreamEvent{Type: EventError, Message: message}
}
