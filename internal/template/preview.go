// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package template

import (
	"encoding/base64"
	"fmt"
	"html"
)

// placeholderSVG is the preview image used until real screenshot rendering
// is wired up. It mirrors the template canvas at a reduced size.
const placeholderSVG = `<svg xmlns="http://www.w3.org/2000/svg" width="320" height="180" viewBox="0 0 320 180">
  <rect width="320" height="180" fill="#1e293b"/>
  <rect x="20" y="20" width="280" height="28" rx="4" fill="#475569"/>
  <rect x="20" y="64" width="280" height="84" rx="4" fill="#334155"/>
  <text x="160" y="170" text-anchor="middle" font-family="sans-serif" font-size="11" fill="#94a3b8">%s</text>
</svg>`

// GeneratePreviewImage produces a placeholder preview for a template as a
// base64 data URI.
func GeneratePreviewImage(name string) string {
	if r := []rune(name); len(r) > 40 {
		name = string(r[:40])
	}
	svg := fmt.Sprintf(placeholderSVG, html.EscapeString(name))
	return "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(svg))
}
