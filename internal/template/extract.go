// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package template

import (
	"regexp"
	"strings"
)

var (
	htmlFenceRe = regexp.MustCompile("(?s)```html\\s*(.*?)```")
	anyFenceRe  = regexp.MustCompile("(?s)```[a-zA-Z]*\\s*(.*?)```")
	docSpanRe   = regexp.MustCompile(`(?is)<!DOCTYPE\s+html.*?</html>`)
)

// ExtractHTML pulls an HTML document out of a model response. Models wrap
// the document in markdown fences of varying discipline, so this walks a
// ladder of decreasingly strict patterns. When nothing matches the trimmed
// response is returned as-is and left to validation.
func ExtractHTML(response string) string {
	// An explicit ```html fence wins, verbatim.
	if m := htmlFenceRe.FindStringSubmatch(response); m != nil {
		return strings.TrimSpace(m[1])
	}

	// Any fence whose body contains a full document.
	for _, m := range anyFenceRe.FindAllStringSubmatch(response, -1) {
		if doc := docSpanRe.FindString(m[1]); doc != "" {
			return strings.TrimSpace(doc)
		}
	}

	// A bare DOCTYPE..</html> span anywhere in the text.
	if doc := docSpanRe.FindString(response); doc != "" {
		return strings.TrimSpace(doc)
	}

	// Covers both a bare lowercase-doctype document and arbitrary text;
	// validation decides whether the result is usable.
	return strings.TrimSpace(response)
}

// IsValidHTML reports whether content looks like a complete HTML page:
// a DOCTYPE at the front and the structural tags a template needs.
func IsValidHTML(content string) bool {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return false
	}
	lower := strings.ToLower(trimmed)
	if !strings.HasPrefix(lower, "<!doctype html") {
		return false
	}
	for _, tag := range []string{"</html>", "<head", "<body", "<title"} {
		if !strings.Contains(lower, tag) {
			return false
		}
	}
	return true
}
