// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package template

import "fmt"

// ValidationError reports a rejected CRUD operation: a missing required
// field, a duplicate name, or an attempt to delete the default template.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Validationf builds a ValidationError from a format string.
func Validationf(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// GenerationReason classifies why the AI generation pipeline failed after
// exhausting its retry budget.
type GenerationReason string

const (
	// ReasonEmptyResponse: the provider returned no text.
	ReasonEmptyResponse GenerationReason = "empty_response"
	// ReasonExtractionFailed: no HTML document could be pulled out of the
	// response text.
	ReasonExtractionFailed GenerationReason = "extraction_failed"
	// ReasonValidationFailed: the extracted document is not a complete
	// HTML page.
	ReasonValidationFailed GenerationReason = "validation_failed"
	// ReasonProviderError: the underlying provider call itself failed.
	ReasonProviderError GenerationReason = "provider_error"
)

// GenerationError is returned when blocking generation fails on its final
// attempt. Attempts records how many attempts were consumed.
type GenerationError struct {
	Reason   GenerationReason
	Attempts int
	Err      error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("template generation failed after %d attempts (%s): %v", e.Attempts, e.Reason, e.Err)
	}
	return fmt.Sprintf("template generation failed after %d attempts (%s)", e.Attempts, e.Reason)
}

func (e *GenerationError) Unwrap() error { return e.Err }
