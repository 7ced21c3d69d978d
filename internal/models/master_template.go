// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package models defines the database record types shared between the
// store, service, and HTTP layers.
package models

import (
	"time"

	"github.com/google/uuid"
)

// MasterTemplate is a reusable 1280x720 HTML slide layout stored in the
// database. The HTML is fully self-contained (inline styles) and carries
// placeholder markers that a downstream renderer substitutes; this service
// never executes the template itself.
type MasterTemplate struct {
	ID           uuid.UUID    `json:"id"`
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	HTMLContent  string       `json:"html_content"`
	PreviewImage string       `json:"preview_image"`
	StyleConfig  *StyleConfig `json:"style_config,omitempty"`
	Tags         []string     `json:"tags"`
	IsDefault    bool         `json:"is_default"`
	IsActive     bool         `json:"is_active"`
	UsageCount   int          `json:"usage_count"`
	CreatedBy    string       `json:"created_by"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// StyleConfig is best-effort metadata sniffed from a template's HTML.
// It is descriptive only — nothing downstream relies on it being complete.
type StyleConfig struct {
	Dimensions  string   `json:"dimensions"`
	AspectRatio string   `json:"aspect_ratio"`
	Framework   string   `json:"framework"`
	Colors      []string `json:"colors,omitempty"`
	Fonts       []string `json:"fonts,omitempty"`
}

// Pagination describes one page of a paginated listing.
type Pagination struct {
	CurrentPage int  `json:"current_page"`
	PageSize    int  `json:"page_size"`
	TotalCount  int  `json:"total_count"`
	TotalPages  int  `json:"total_pages"`
	HasNext     bool `json:"has_next"`
	HasPrev     bool `json:"has_prev"`
}

// NewPagination computes page metadata from a total row count.
func NewPagination(page, pageSize, totalCount int) *Pagination {
	totalPages := (totalCount + pageSize - 1) / pageSize
	return &Pagination{
		CurrentPage: page,
		PageSize:    pageSize,
		TotalCount:  totalCount,
		TotalPages:  totalPages,
		HasNext:     page < totalPages,
		HasPrev:     page > 1,
	}
}
