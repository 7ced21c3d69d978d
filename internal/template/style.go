// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package template

import (
	"regexp"
	"strings"

	"slideforge/internal/models"
)

var (
	colorDeclRe = regexp.MustCompile(`(?:background|color)[^:]*:\s*([^;]+)`)
	fontDeclRe  = regexp.MustCompile(`font-family[^:]*:\s*([^;]+)`)
)

const (
	maxSniffedColors = 10
	maxSniffedFonts  = 5
)

// ExtractStyleConfig sniffs a best-effort style summary out of template
// HTML: canvas dimensions are fixed by contract, the CSS framework is
// detected by CDN reference, and colors/fonts come from inline declarations.
func ExtractStyleConfig(html string) *models.StyleConfig {
	lower := strings.ToLower(html)

	framework := "HTML + CSS"
	if strings.Contains(lower, "tailwind") {
		framework = "Tailwind CSS"
	} else if strings.Contains(lower, "bootstrap") {
		framework = "Bootstrap"
	}

	return &models.StyleConfig{
		Dimensions:  "1280x720",
		AspectRatio: "16:9",
		Framework:   framework,
		Colors:      sniffDeclarations(html, colorDeclRe, maxSniffedColors),
		Fonts:       sniffDeclarations(html, fontDeclRe, maxSniffedFonts),
	}
}

// sniffDeclarations collects distinct declaration values in document order,
// capped at limit.
func sniffDeclarations(html string, re *regexp.Regexp, limit int) []string {
	seen := make(map[string]struct{})
	var values []string
	for _, m := range re.FindAllStringSubmatch(html, -1) {
		v := strings.TrimSpace(m[1])
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
		if len(values) >= limit {
			break
		}
	}
	return values
}
