// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package template implements master-template management: CRUD with
// uniqueness and default-template rules, AI-driven generation with
// extraction and validation, and streamed generation/adjustment.
package template

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"slideforge/internal/ai"
	"slideforge/internal/models"
)

// DefaultPageSize is used when a pagination request carries no page size.
const DefaultPageSize = 6

// Store is the persistence surface the service depends on, satisfied by
// *store.TemplateStore. Missing rows come back as (nil, nil) / (false, nil).
type Store interface {
	Create(t *models.MasterTemplate) (*models.MasterTemplate, error)
	FindByID(id uuid.UUID) (*models.MasterTemplate, error)
	FindByName(name string) (*models.MasterTemplate, error)
	FindDefault() (*models.MasterTemplate, error)
	List(activeOnly bool) ([]models.MasterTemplate, error)
	ListPaginated(activeOnly bool, offset, limit int, search string) ([]models.MasterTemplate, int, error)
	FindByTags(tags []string, activeOnly bool) ([]models.MasterTemplate, error)
	FindByTagsPaginated(tags []string, activeOnly bool, offset, limit int, search string) ([]models.MasterTemplate, int, error)
	Update(t *models.MasterTemplate) error
	Delete(id uuid.UUID) (bool, error)
	SetDefault(id uuid.UUID) error
	IncrementUsage(id uuid.UUID) (bool, error)
	Count() (int, error)
}

// DefaultCache caches the default template lookup. A nil cache is valid and
// disables caching.
type DefaultCache interface {
	GetDefault(ctx context.Context) (*models.MasterTemplate, bool)
	SetDefault(ctx context.Context, t *models.MasterTemplate)
	Invalidate(ctx context.Context)
}

// Service implements the master-template operations on top of a Store, an
// AI provider registry and an optional default-template cache.
type Service struct {
	store    Store
	registry *ai.Registry
	cache    DefaultCache
	logger   *slog.Logger
}

// NewService creates a template service. cache may be nil.
func NewService(store Store, registry *ai.Registry, cache DefaultCache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, registry: registry, cache: cache, logger: logger}
}

// CreateParams carries the fields for creating a template. PreviewImage and
// StyleConfig are derived from the HTML when absent.
type CreateParams struct {
	Name         string
	Description  string
	HTMLContent  string
	PreviewImage string
	StyleConfig  *models.StyleConfig
	Tags         []string
	IsDefault    bool
	CreatedBy    string
}

// Create stores a new template. Names must be unique across active and
// inactive templates.
func (s *Service) Create(ctx context.Context, params CreateParams) (*models.MasterTemplate, error) {
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, Validationf("template name is required")
	}
	if strings.TrimSpace(params.HTMLContent) == "" {
		return nil, Validationf("template HTML content is required")
	}

	existing, err := s.store.FindByName(name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, Validationf("template %q already exists", name)
	}

	preview := params.PreviewImage
	if preview == "" {
		preview = GeneratePreviewImage(name)
	}
	style := params.StyleConfig
	if style == nil {
		style = ExtractStyleConfig(params.HTMLContent)
	}

	created, err := s.store.Create(&models.MasterTemplate{
		Name:         name,
		Description:  params.Description,
		HTMLContent:  params.HTMLContent,
		PreviewImage: preview,
		StyleConfig:  style,
		Tags:         params.Tags,
		IsActive:     true,
		CreatedBy:    params.CreatedBy,
	})
	if err != nil {
		s.logger.Error("create template failed", "name", name, "error", err)
		return nil, err
	}

	// The default flag is applied after the insert so the single-default
	// constraint clears the previous holder first.
	if params.IsDefault {
		if err := s.SetDefault(ctx, created.ID); err != nil {
			return nil, err
		}
		created.IsDefault = true
	}

	s.logger.Info("template created", "id", created.ID, "name", created.Name)
	return created, nil
}

// GetByID returns a template, or nil when it does not exist.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*models.MasterTemplate, error) {
	return s.store.FindByID(id)
}

// GetAll returns all templates, optionally active-only.
func (s *Service) GetAll(ctx context.Context, activeOnly bool) ([]models.MasterTemplate, error) {
	return s.store.List(activeOnly)
}

// GetPaginated returns one page of templates with pagination metadata.
// page starts at 1; pageSize defaults to DefaultPageSize.
func (s *Service) GetPaginated(ctx context.Context, activeOnly bool, page, pageSize int, search string) ([]models.MasterTemplate, *models.Pagination, error) {
	page, pageSize = normalizePage(page, pageSize)

	templates, total, err := s.store.ListPaginated(activeOnly, (page-1)*pageSize, pageSize, search)
	if err != nil {
		return nil, nil, err
	}
	return templates, models.NewPagination(page, pageSize, total), nil
}

// GetByTags returns templates carrying at least one of the given tags.
func (s *Service) GetByTags(ctx context.Context, tags []string, activeOnly bool) ([]models.MasterTemplate, error) {
	return s.store.FindByTags(tags, activeOnly)
}

// GetByTagsPaginated returns one page of tag-matching templates.
func (s *Service) GetByTagsPaginated(ctx context.Context, tags []string, activeOnly bool, page, pageSize int, search string) ([]models.MasterTemplate, *models.Pagination, error) {
	page, pageSize = normalizePage(page, pageSize)

	templates, total, err := s.store.FindByTagsPaginated(tags, activeOnly, (page-1)*pageSize, pageSize, search)
	if err != nil {
		return nil, nil, err
	}
	return templates, models.NewPagination(page, pageSize, total), nil
}

// UpdateParams carries optional field updates; nil pointers leave the field
// unchanged.
type UpdateParams struct {
	Name         *string
	Description  *string
	HTMLContent  *string
	PreviewImage *string
	StyleConfig  *models.StyleConfig
	Tags         *[]string
	IsActive     *bool
}

// Update applies partial changes to a template. Renames are checked against
// the uniqueness rule; changed HTML re-derives the style summary unless an
// explicit one is provided. Returns nil when the template does not exist.
func (s *Service) Update(ctx context.Context, id uuid.UUID, params UpdateParams) (*models.MasterTemplate, error) {
	t, err := s.store.FindByID(id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, nil
	}

	if params.Name != nil {
		name := strings.TrimSpace(*params.Name)
		if name == "" {
			return nil, Validationf("template name is required")
		}
		if name != t.Name {
			existing, err := s.store.FindByName(name)
			if err != nil {
				return nil, err
			}
			if existing != nil {
				return nil, Validationf("template %q already exists", name)
			}
		}
		t.Name = name
	}
	if params.Description != nil {
		t.Description = *params.Description
	}
	if params.HTMLContent != nil {
		if strings.TrimSpace(*params.HTMLContent) == "" {
			return nil, Validationf("template HTML content is required")
		}
		t.HTMLContent = *params.HTMLContent
		if params.StyleConfig == nil {
			t.StyleConfig = ExtractStyleConfig(t.HTMLContent)
		}
	}
	if params.StyleConfig != nil {
		t.StyleConfig = params.StyleConfig
	}
	if params.PreviewImage != nil {
		t.PreviewImage = *params.PreviewImage
	}
	if params.Tags != nil {
		t.Tags = *params.Tags
	}
	if params.IsActive != nil {
		t.IsActive = *params.IsActive
	}

	if err := s.store.Update(t); err != nil {
		s.logger.Error("update template failed", "id", id, "error", err)
		return nil, err
	}

	if t.IsDefault {
		s.invalidateDefault(ctx)
	}

	s.logger.Info("template updated", "id", t.ID, "name", t.Name)
	return t, nil
}

// Delete removes a template. The default template cannot be deleted; the
// guard fires before any store call. Returns false when the template does
// not exist.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	t, err := s.store.FindByID(id)
	if err != nil {
		return false, err
	}
	if t == nil {
		return false, nil
	}
	if t.IsDefault {
		return false, Validationf("the default template cannot be deleted")
	}

	deleted, err := s.store.Delete(id)
	if err != nil {
		s.logger.Error("delete template failed", "id", id, "error", err)
		return false, err
	}
	if deleted {
		s.logger.Info("template deleted", "id", id, "name", t.Name)
	}
	return deleted, nil
}

// SetDefault marks a template as the default and drops the cached entry.
func (s *Service) SetDefault(ctx context.Context, id uuid.UUID) error {
	if err := s.store.SetDefault(id); err != nil {
		s.logger.Error("set default template failed", "id", id, "error", err)
		return err
	}
	s.invalidateDefault(ctx)
	s.logger.Info("default template changed", "id", id)
	return nil
}

// GetDefault returns the default template, consulting the cache first.
// Returns nil when no default is configured.
func (s *Service) GetDefault(ctx context.Context) (*models.MasterTemplate, error) {
	if s.cache != nil {
		if t, ok := s.cache.GetDefault(ctx); ok {
			return t, nil
		}
	}

	t, err := s.store.FindDefault()
	if err != nil {
		return nil, err
	}
	if t != nil && s.cache != nil {
		s.cache.SetDefault(ctx, t)
	}
	return t, nil
}

// IncrementUsage bumps a template's usage counter. Returns false when the
// template does not exist.
func (s *Service) IncrementUsage(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.store.IncrementUsage(id)
}

// Count returns the total number of templates.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.store.Count()
}

func (s *Service) invalidateDefault(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	return page, pageSize
}
