// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package template

import (
	"context"
	"strings"

	"slideforge/internal/ai"
	"slideforge/internal/models"
)

const (
	// maxGenerationAttempts bounds the blocking retry loop.
	maxGenerationAttempts = 5
	// minResponseLength is the soft floor for a plausible template response.
	// Shorter responses trigger a retry, except on the final attempt where
	// they are accepted and left to extraction and validation.
	minResponseLength = 2000
	// maxFallbackDescription caps the prompt-derived description.
	maxFallbackDescription = 100
)

// templateRole is the registry role that selects the generation provider.
const templateRole = "template"

// GenerateRequest describes an AI generation call. Mode selects the prompt
// strategy; ReferenceImage (bare base64 or a full data URI) is required by
// the image-driven modes and its absence degrades them to text-only.
// Provider optionally overrides the configured role provider.
type GenerateRequest struct {
	Prompt         string
	Mode           string
	ReferenceImage string
	ImageMIMEType  string
	Provider       string
	Name           string
	Description    string
	Tags           []string
	CreatedBy      string
}

// GenerationResult is the outcome of a successful generation. RawResponse
// is the winning attempt's unprocessed model output, before extraction.
type GenerationResult struct {
	Template    *models.MasterTemplate
	HTMLContent string
	RawResponse string
	Provider    string
	Attempts    int
}

// Generate runs the blocking generation pipeline: prompt the provider,
// extract the HTML document, validate it, and save the template. Transient
// failures are retried up to maxGenerationAttempts times; the final
// attempt's failure class is reported in the returned GenerationError.
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (*GenerationResult, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, Validationf("template name is required")
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, Validationf("generation prompt is required")
	}

	// Check the name before spending provider tokens.
	existing, err := s.store.FindByName(name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, Validationf("template %q already exists", name)
	}

	provider, settings, err := s.registry.ForRole(templateRole, req.Provider)
	if err != nil {
		return nil, err
	}

	html, raw, attempts, err := s.generateHTML(ctx, provider, settings.Options(), req)
	if err != nil {
		return nil, err
	}

	created, err := s.Create(ctx, CreateParams{
		Name:        name,
		Description: fallbackDescription(req.Description, req.Prompt),
		HTMLContent: html,
		Tags:        fallbackTags(req.Tags),
		CreatedBy:   req.CreatedBy,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("template generated",
		"id", created.ID, "name", created.Name,
		"provider", provider.Name(), "attempts", attempts)

	return &GenerationResult{
		Template:    created,
		HTMLContent: html,
		RawResponse: raw,
		Provider:    provider.Name(),
		Attempts:    attempts,
	}, nil
}

// generateHTML is the retry loop shared with the streaming path's final
// validation. It returns validated HTML, the raw winning response and the
// attempt count.
func (s *Service) generateHTML(ctx context.Context, provider ai.Provider, opts ai.Options, req GenerateRequest) (string, string, int, error) {
	messages := buildMessages(req.Prompt, req.Mode, req.ReferenceImage, req.ImageMIMEType)

	for attempt := 1; attempt <= maxGenerationAttempts; attempt++ {
		last := attempt == maxGenerationAttempts

		response, err := complete(ctx, provider, messages, opts)
		if err != nil {
			if last {
				return "", "", attempt, &GenerationError{Reason: ReasonProviderError, Attempts: attempt, Err: err}
			}
			s.logger.Warn("generation attempt failed", "attempt", attempt, "error", err)
			continue
		}

		if strings.TrimSpace(response) == "" {
			if last {
				return "", "", attempt, &GenerationError{Reason: ReasonEmptyResponse, Attempts: attempt}
			}
			s.logger.Warn("empty generation response", "attempt", attempt)
			continue
		}

		// Suspiciously short responses are usually refusals or truncation.
		// Accepted on the final attempt; validation decides.
		if len(response) < minResponseLength && !last {
			s.logger.Warn("short generation response, retrying",
				"attempt", attempt, "length", len(response))
			continue
		}

		html := ExtractHTML(response)
		if html == "" {
			if last {
				return "", "", attempt, &GenerationError{Reason: ReasonExtractionFailed, Attempts: attempt}
			}
			s.logger.Warn("no HTML extracted from response", "attempt", attempt)
			continue
		}

		if !IsValidHTML(html) {
			if last {
				return "", "", attempt, &GenerationError{Reason: ReasonValidationFailed, Attempts: attempt}
			}
			s.logger.Warn("extracted HTML failed validation", "attempt", attempt)
			continue
		}

		return html, response, attempt, nil
	}

	// Unreachable: the final iteration always returns.
	return "", "", maxGenerationAttempts, &GenerationError{Reason: ReasonProviderError, Attempts: maxGenerationAttempts}
}

// complete picks the provider call for the message shape: a lone text part
// goes through the plain text-completion endpoint, anything multimodal
// through chat.
func complete(ctx context.Context, provider ai.Provider, messages []ai.Message, opts ai.Options) (string, error) {
	if prompt, ok := soleTextPrompt(messages); ok {
		return provider.TextCompletion(ctx, prompt, opts)
	}
	return provider.ChatCompletion(ctx, messages, opts)
}

// soleTextPrompt reports the plain prompt when the messages reduce to a
// single text part.
func soleTextPrompt(messages []ai.Message) (string, bool) {
	if len(messages) == 1 && len(messages[0].Parts) == 1 && messages[0].Parts[0].Type == ai.PartText {
		return messages[0].Parts[0].Text, true
	}
	return "", false
}

// fallbackDescription derives a description from the prompt when none is
// supplied.
func fallbackDescription(description, prompt string) string {
	if description != "" {
		return description
	}
	p := []rune(strings.TrimSpace(prompt))
	if len(p) > maxFallbackDescription {
		p = p[:maxFallbackDescription]
	}
	return "AI-generated template: " + string(p)
}

// fallbackTags ensures generated templates are discoverable by tag.
func fallbackTags(tags []string) []string {
	if len(tags) > 0 {
		return tags
	}
	return []string{"ai-generated"}
}
