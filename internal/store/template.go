// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package store contains all database access for master templates.
// Methods return (nil, nil) or (false, nil) for missing rows; errors are
// reserved for transport and constraint failures.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"slideforge/internal/models"
)

// templateColumns is the column list shared by every SELECT in this file.
const templateColumns = `id, name, description, html_content, preview_image,
	style_config, tags, is_default, is_active, usage_count, created_by,
	created_at, updated_at`

// TemplateStore handles all master-template database operations.
type TemplateStore struct {
	db *sql.DB
}

// NewTemplateStore creates a new TemplateStore with the given database connection.
func NewTemplateStore(db *sql.DB) *TemplateStore {
	return &TemplateStore{db: db}
}

// scanner abstracts *sql.Row and *sql.Rows for scanTemplate.
type scanner interface {
	Scan(dest ...any) error
}

// scanTemplate reads one row into a MasterTemplate, decoding the JSONB
// style_config and tags columns.
func scanTemplate(s scanner) (*models.MasterTemplate, error) {
	var (
		t         models.MasterTemplate
		styleJSON []byte
		tagsJSON  []byte
	)
	err := s.Scan(
		&t.ID, &t.Name, &t.Description, &t.HTMLContent, &t.PreviewImage,
		&styleJSON, &tagsJSON, &t.IsDefault, &t.IsActive, &t.UsageCount,
		&t.CreatedBy, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(styleJSON) > 0 {
		var sc models.StyleConfig
		if err := json.Unmarshal(styleJSON, &sc); err != nil {
			return nil, fmt.Errorf("decode style_config: %w", err)
		}
		t.StyleConfig = &sc
	}
	if len(tagsJSON) > 0 {
		if err := json.Unmarshal(tagsJSON, &t.Tags); err != nil {
			return nil, fmt.Errorf("decode tags: %w", err)
		}
	}
	return &t, nil
}

// encodeJSON marshals a value for a JSONB column, mapping nil slices to [].
func encodeTags(tags []string) ([]byte, error) {
	if tags == nil {
		tags = []string{}
	}
	return json.Marshal(tags)
}

func encodeStyle(sc *models.StyleConfig) ([]byte, error) {
	if sc == nil {
		return nil, nil
	}
	return json.Marshal(sc)
}

// Create inserts a new master template and returns the stored record.
func (s *TemplateStore) Create(t *models.MasterTemplate) (*models.MasterTemplate, error) {
	tagsJSON, err := encodeTags(t.Tags)
	if err != nil {
		return nil, fmt.Errorf("encode tags: %w", err)
	}
	styleJSON, err := encodeStyle(t.StyleConfig)
	if err != nil {
		return nil, fmt.Errorf("encode style_config: %w", err)
	}

	createdBy := t.CreatedBy
	if createdBy == "" {
		createdBy = "system"
	}

	row := s.db.QueryRow(`
		INSERT INTO master_templates
			(name, description, html_content, preview_image, style_config,
			 tags, is_default, is_active, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+templateColumns,
		t.Name, t.Description, t.HTMLContent, t.PreviewImage, styleJSON,
		tagsJSON, t.IsDefault, t.IsActive, createdBy,
	)

	created, err := scanTemplate(row)
	if err != nil {
		return nil, fmt.Errorf("create template: %w", err)
	}
	return created, nil
}

// FindByID retrieves a template by its UUID. Returns nil if not found.
func (s *TemplateStore) FindByID(id uuid.UUID) (*models.MasterTemplate, error) {
	row := s.db.QueryRow(
		`SELECT `+templateColumns+` FROM master_templates WHERE id = $1`, id)

	t, err := scanTemplate(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find template by id: %w", err)
	}
	return t, nil
}

// FindByName retrieves a template by name, including inactive records —
// the uniqueness rule spans both. Returns nil if not found.
func (s *TemplateStore) FindByName(name string) (*models.MasterTemplate, error) {
	row := s.db.QueryRow(
		`SELECT `+templateColumns+` FROM master_templates WHERE name = $1`, name)

	t, err := scanTemplate(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find template by name: %w", err)
	}
	return t, nil
}

// List returns all templates, newest first.
func (s *TemplateStore) List(activeOnly bool) ([]models.MasterTemplate, error) {
	query := `SELECT ` + templateColumns + ` FROM master_templates`
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	return collectTemplates(rows)
}

// ListPaginated returns one page of templates plus the total matching count.
// search filters on name and description (case-insensitive substring).
func (s *TemplateStore) ListPaginated(activeOnly bool, offset, limit int, search string) ([]models.MasterTemplate, int, error) {
	where, args := buildFilter(activeOnly, nil, search)

	var total int
	countQuery := `SELECT COUNT(*) FROM master_templates` + where
	if err := s.db.QueryRow(countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count templates: %w", err)
	}

	query := fmt.Sprintf(
		`SELECT `+templateColumns+` FROM master_templates%s ORDER BY is_default DESC, created_at DESC OFFSET $%d LIMIT $%d`,
		where, len(args)+1, len(args)+2,
	)
	rows, err := s.db.Query(query, append(args, offset, limit)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list templates paginated: %w", err)
	}
	defer rows.Close()

	templates, err := collectTemplates(rows)
	if err != nil {
		return nil, 0, err
	}
	return templates, total, nil
}

// FindByTags returns templates carrying at least one of the given tags.
func (s *TemplateStore) FindByTags(tags []string, activeOnly bool) ([]models.MasterTemplate, error) {
	where, args := buildFilter(activeOnly, tags, "")

	rows, err := s.db.Query(
		`SELECT `+templateColumns+` FROM master_templates`+where+` ORDER BY created_at DESC`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("find templates by tags: %w", err)
	}
	defer rows.Close()

	return collectTemplates(rows)
}

// FindByTagsPaginated returns one page of tag-matching templates plus the
// total matching count.
func (s *TemplateStore) FindByTagsPaginated(tags []string, activeOnly bool, offset, limit int, search string) ([]models.MasterTemplate, int, error) {
	where, args := buildFilter(activeOnly, tags, search)

	var total int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM master_templates`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count templates by tags: %w", err)
	}

	query := fmt.Sprintf(
		`SELECT `+templateColumns+` FROM master_templates%s ORDER BY is_default DESC, created_at DESC OFFSET $%d LIMIT $%d`,
		where, len(args)+1, len(args)+2,
	)
	rows, err := s.db.Query(query, append(args, offset, limit)...)
	if err != nil {
		return nil, 0, fmt.Errorf("find templates by tags paginated: %w", err)
	}
	defer rows.Close()

	templates, err := collectTemplates(rows)
	if err != nil {
		return nil, 0, err
	}
	return templates, total, nil
}

// Update rewrites a template's mutable fields.
func (s *TemplateStore) Update(t *models.MasterTemplate) error {
	tagsJSON, err := encodeTags(t.Tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}
	styleJSON, err := encodeStyle(t.StyleConfig)
	if err != nil {
		return fmt.Errorf("encode style_config: %w", err)
	}

	_, err = s.db.Exec(`
		UPDATE master_templates SET
			name = $1, description = $2, html_content = $3, preview_image = $4,
			style_config = $5, tags = $6, is_active = $7, updated_at = NOW()
		WHERE id = $8
	`, t.Name, t.Description, t.HTMLContent, t.PreviewImage,
		styleJSON, tagsJSON, t.IsActive, t.ID)
	if err != nil {
		return fmt.Errorf("update template: %w", err)
	}
	return nil
}

// Delete removes a template by ID. Returns false when no row matched.
// The default-template guard lives in the service layer, before this call.
func (s *TemplateStore) Delete(id uuid.UUID) (bool, error) {
	result, err := s.db.Exec(`DELETE FROM master_templates WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete template: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// SetDefault marks one template as the default, clearing the flag from any
// other record. Uses a transaction for atomicity.
func (s *TemplateStore) SetDefault(id uuid.UUID) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	err = tx.QueryRow(`SELECT TRUE FROM master_templates WHERE id = $1`, id).Scan(&exists)
	if err == sql.ErrNoRows {
		return fmt.Errorf("set default: template %s not found", id)
	}
	if err != nil {
		return fmt.Errorf("set default lookup: %w", err)
	}

	if _, err := tx.Exec(`UPDATE master_templates SET is_default = FALSE WHERE is_default`); err != nil {
		return fmt.Errorf("clear default flag: %w", err)
	}

	if _, err := tx.Exec(`UPDATE master_templates SET is_default = TRUE, updated_at = NOW() WHERE id = $1`, id); err != nil {
		return fmt.Errorf("set default flag: %w", err)
	}

	return tx.Commit()
}

// FindDefault returns the template holding the default flag, or nil.
func (s *TemplateStore) FindDefault() (*models.MasterTemplate, error) {
	row := s.db.QueryRow(
		`SELECT ` + templateColumns + ` FROM master_templates WHERE is_default LIMIT 1`)

	t, err := scanTemplate(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find default template: %w", err)
	}
	return t, nil
}

// IncrementUsage bumps a template's usage counter. Returns false when the
// template does not exist.
func (s *TemplateStore) IncrementUsage(id uuid.UUID) (bool, error) {
	result, err := s.db.Exec(
		`UPDATE master_templates SET usage_count = usage_count + 1 WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("increment usage: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// Count returns the total number of templates.
func (s *TemplateStore) Count() (int, error) {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM master_templates`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count templates: %w", err)
	}
	return count, nil
}

// collectTemplates drains a result set into a slice.
func collectTemplates(rows *sql.Rows) ([]models.MasterTemplate, error) {
	var templates []models.MasterTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		templates = append(templates, *t)
	}
	return templates, rows.Err()
}

// buildFilter assembles a WHERE clause and its positional arguments for the
// listing queries. tags matches any overlap via the JSONB ?| operator.
func buildFilter(activeOnly bool, tags []string, search string) (string, []any) {
	var (
		conds []string
		args  []any
	)

	if activeOnly {
		conds = append(conds, "is_active = TRUE")
	}
	if len(tags) > 0 {
		args = append(args, tags)
		// jsonb ?| matches templates carrying any of the given tags.
		conds = append(conds, fmt.Sprintf("tags ?| $%d::text[]", len(args)))
	}
	if search != "" {
		args = append(args, "%"+search+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d)", n, n))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
