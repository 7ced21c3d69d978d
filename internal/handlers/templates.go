// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the JSON API handlers for master templates.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"slideforge/internal/models"
	"slideforge/internal/template"
)

// maxTemplateNameLen caps template names; the column is VARCHAR(200).
const maxTemplateNameLen = 200

// Templates serves the master-template CRUD API.
type Templates struct {
	service *template.Service
}

// NewTemplates creates the template API handler group.
func NewTemplates(service *template.Service) *Templates {
	return &Templates{service: service}
}

// --- request/response shapes ---

type createTemplateRequest struct {
	Name         string              `json:"name"`
	Description  string              `json:"description"`
	HTMLContent  string              `json:"html_content"`
	PreviewImage string              `json:"preview_image"`
	StyleConfig  *models.StyleConfig `json:"style_config"`
	Tags         []string            `json:"tags"`
	IsDefault    bool                `json:"is_default"`
	CreatedBy    string              `json:"created_by"`
}

type updateTemplateRequest struct {
	Name         *string             `json:"name"`
	Description  *string             `json:"description"`
	HTMLContent  *string             `json:"html_content"`
	PreviewImage *string             `json:"preview_image"`
	StyleConfig  *models.StyleConfig `json:"style_config"`
	Tags         *[]string           `json:"tags"`
	IsActive     *bool               `json:"is_active"`
}

type listTemplatesResponse struct {
	Templates  []models.MasterTemplate `json:"templates"`
	Pagination *models.Pagination      `json:"pagination"`
}

// List returns one page of templates. Supports page, page_size, search,
// tags (comma-separated, any-match) and include_inactive query parameters.
func (h *Templates) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("page_size"))
	search := strings.TrimSpace(q.Get("search"))
	activeOnly := q.Get("include_inactive") != "true"

	var tags []string
	if raw := strings.TrimSpace(q.Get("tags")); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
	}

	var (
		templates  []models.MasterTemplate
		pagination *models.Pagination
		err        error
	)
	if len(tags) > 0 {
		templates, pagination, err = h.service.GetByTagsPaginated(r.Context(), tags, activeOnly, page, pageSize, search)
	} else {
		templates, pagination, err = h.service.GetPaginated(r.Context(), activeOnly, page, pageSize, search)
	}
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	if templates == nil {
		templates = []models.MasterTemplate{}
	}
	writeJSON(w, http.StatusOK, listTemplatesResponse{Templates: templates, Pagination: pagination})
}

// Get returns a single template by ID.
func (h *Templates) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := templateID(w, r)
	if !ok {
		return
	}

	t, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if t == nil {
		writeError(w, http.StatusNotFound, "template not found")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// Create stores a new template from caller-provided HTML.
func (h *Templates) Create(w http.ResponseWriter, r *http.Request) {
	var req createTemplateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Name) > maxTemplateNameLen {
		writeError(w, http.StatusBadRequest, "template name is too long")
		return
	}

	t, err := h.service.Create(r.Context(), template.CreateParams{
		Name:         req.Name,
		Description:  req.Description,
		HTMLContent:  req.HTMLContent,
		PreviewImage: req.PreviewImage,
		StyleConfig:  req.StyleConfig,
		Tags:         req.Tags,
		IsDefault:    req.IsDefault,
		CreatedBy:    req.CreatedBy,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// Update applies partial changes to a template.
func (h *Templates) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := templateID(w, r)
	if !ok {
		return
	}

	var req updateTemplateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name != nil && len(*req.Name) > maxTemplateNameLen {
		writeError(w, http.StatusBadRequest, "template name is too long")
		return
	}

	t, err := h.service.Update(r.Context(), id, template.UpdateParams{
		Name:         req.Name,
		Description:  req.Description,
		HTMLContent:  req.HTMLContent,
		PreviewImage: req.PreviewImage,
		StyleConfig:  req.StyleConfig,
		Tags:         req.Tags,
		IsActive:     req.IsActive,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if t == nil {
		writeError(w, http.StatusNotFound, "template not found")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// Delete removes a template. The default template is refused with 400.
func (h *Templates) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := templateID(w, r)
	if !ok {
		return
	}

	deleted, err := h.service.Delete(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "template not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetDefault returns the current default template.
func (h *Templates) GetDefault(w http.ResponseWriter, r *http.Request) {
	t, err := h.service.GetDefault(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if t == nil {
		writeError(w, http.StatusNotFound, "no default template configured")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// SetDefault marks a template as the default.
func (h *Templates) SetDefault(w http.ResponseWriter, r *http.Request) {
	id, ok := templateID(w, r)
	if !ok {
		return
	}

	t, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if t == nil {
		writeError(w, http.StatusNotFound, "template not found")
		return
	}

	if err := h.service.SetDefault(r.Context(), id); err != nil {
		h.writeServiceError(w, err)
		return
	}
	t.IsDefault = true
	writeJSON(w, http.StatusOK, t)
}

// IncrementUsage bumps a template's usage counter.
func (h *Templates) IncrementUsage(w http.ResponseWriter, r *http.Request) {
	id, ok := templateID(w, r)
	if !ok {
		return
	}

	bumped, err := h.service.IncrementUsage(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if !bumped {
		writeError(w, http.StatusNotFound, "template not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// writeServiceError maps service errors onto HTTP statuses.
func (h *Templates) writeServiceError(w http.ResponseWriter, err error) {
	var verr *template.ValidationError
	if errors.As(err, &verr) {
		writeError(w, http.StatusBadRequest, verr.Message)
		return
	}

	var gerr *template.GenerationError
	if errors.As(err, &gerr) {
		slog.Error("template generation failed", "reason", gerr.Reason, "attempts", gerr.Attempts, "error", err)
		writeError(w, http.StatusBadGateway, gerr.Error())
		return
	}

	slog.Error("template request failed", "error", err)
	writeError(w, http.StatusInternalServerError, "internal server error")
}

// --- shared helpers ---

// templateID parses the {id} URL parameter, writing a 400 on garbage.
func templateID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid template id")
		return uuid.Nil, false
	}
	return id, true
}

// decodeJSON decodes a request body, writing a 400 on malformed JSON.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("write json response failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
