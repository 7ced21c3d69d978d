// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package template

import (
	"fmt"
	"strings"

	"slideforge/internal/ai"
)

// Generation modes. An unknown mode or a missing reference image silently
// degrades to text-only generation.
const (
	ModeTextOnly       = "text_only"
	ModeReferenceStyle = "reference_style"
	ModeExactReplica   = "exact_replica"
	ModeOneToOne       = "one_to_one" // accepted alias for exact_replica
)

// sharedConstraints are embedded in every generation prompt. Templates are
// fixed-canvas 1280x720 slide pages with Jinja-style placeholders that the
// rendering pipeline substitutes per page.
const sharedConstraints = `Technical requirements:
1. The page must be exactly 1280x720 pixels (16:9 aspect ratio), with no scrollbars
2. Produce a complete HTML document: <!DOCTYPE html>, <html>, <head>, <title> and <body>
3. Use inline styles or an embedded <style> block; the document must be self-contained
4. Include these placeholder variables exactly as written:
   - {{ page_title }} for the slide title
   - {{ page_content }} for the slide body content
   - {{ current_page_number }} for the current page number
   - {{ total_page_count }} for the total page count
5. You may use CDN-hosted libraries if helpful: Tailwind CSS, Font Awesome, Chart.js, ECharts, D3.js
6. Ensure content fits the fixed canvas; overflow must be hidden, never scrolled

Return the complete HTML document inside a ` + "```html" + ` code block.`

// textOnlyPrompt builds the prompt for pure text-driven generation.
func textOnlyPrompt(description string) string {
	var b strings.Builder
	b.WriteString("You are a professional web designer creating a master template for presentation slides.\n\n")
	b.WriteString("Design requirements:\n")
	b.WriteString(description)
	b.WriteString("\n\n")
	b.WriteString(sharedConstraints)
	return b.String()
}

// referenceStylePrompt builds the instruction text that accompanies a
// reference image whose visual style should be borrowed, not copied.
func referenceStylePrompt(description string) string {
	var b strings.Builder
	b.WriteString("You are a professional web designer creating a master template for presentation slides.\n\n")
	b.WriteString("Study the attached reference image and borrow its visual style: color palette, typography feel, spacing and overall mood. Do not reproduce its exact layout or content.\n\n")
	b.WriteString("Design requirements:\n")
	b.WriteString(description)
	b.WriteString("\n\n")
	b.WriteString(sharedConstraints)
	return b.String()
}

// exactReplicaPrompt builds the instruction text for reproducing the
// attached image as faithfully as HTML allows.
func exactReplicaPrompt(description string) string {
	var b strings.Builder
	b.WriteString("You are a professional web designer creating a master template for presentation slides.\n\n")
	b.WriteString("Reproduce the attached image as an HTML page as faithfully as possible: match its layout, colors, typography and decorative elements one-to-one. Replace the title and body regions with the placeholder variables listed below.\n\n")
	if description != "" {
		b.WriteString("Additional requirements:\n")
		b.WriteString(description)
		b.WriteString("\n\n")
	}
	b.WriteString(sharedConstraints)
	return b.String()
}

// adjustmentPrompt embeds the current template and the requested change.
// Adjustment is always text-only.
func adjustmentPrompt(currentHTML, instruction string) string {
	var b strings.Builder
	b.WriteString("You are a professional web designer adjusting an existing master template for presentation slides.\n\n")
	b.WriteString("Current template:\n```html\n")
	b.WriteString(currentHTML)
	b.WriteString("\n```\n\n")
	b.WriteString("Requested adjustment:\n")
	b.WriteString(instruction)
	b.WriteString("\n\n")
	b.WriteString("Apply the adjustment while preserving all placeholder variables ({{ page_title }}, {{ page_content }}, {{ current_page_number }}, {{ total_page_count }}) and the 1280x720 (16:9) fixed canvas with no scrollbars.\n\n")
	b.WriteString("Return the complete adjusted HTML document inside a ```html code block.")
	return b.String()
}

// NormalizeDataURI wraps a bare base64 payload into a data URI. Payloads
// that already carry the data: scheme pass through untouched.
func NormalizeDataURI(payload, mimeType string) string {
	if strings.HasPrefix(payload, "data:") {
		return payload
	}
	if mimeType == "" {
		mimeType = "image/png"
	}
	return fmt.Sprintf("data:%s;base64,%s", mimeType, payload)
}

// buildMessages assembles the provider messages for a generation request.
// Image-driven modes without an image fall back to text-only.
func buildMessages(prompt, mode, imageData, imageMIME string) []ai.Message {
	switch mode {
	case ModeReferenceStyle:
		if imageData == "" {
			break
		}
		return []ai.Message{ai.UserMessage(
			ai.TextPart(referenceStylePrompt(prompt)),
			ai.ImagePart(NormalizeDataURI(imageData, imageMIME)),
		)}
	case ModeExactReplica, ModeOneToOne:
		if imageData == "" {
			break
		}
		return []ai.Message{ai.UserMessage(
			ai.TextPart(exactReplicaPrompt(prompt)),
			ai.ImagePart(NormalizeDataURI(imageData, imageMIME)),
		)}
	}
	return []ai.Message{ai.UserMessage(ai.TextPart(textOnlyPrompt(prompt)))}
}
