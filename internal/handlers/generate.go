// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"slideforge/internal/models"
	"slideforge/internal/template"
)

type generateRequest struct {
	Prompt         string   `json:"prompt"`
	Mode           string   `json:"mode"`
	ReferenceImage string   `json:"reference_image"`
	ImageMIMEType  string   `json:"image_mime_type"`
	Provider       string   `json:"provider"`
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Tags           []string `json:"tags"`
	CreatedBy      string   `json:"created_by"`
}

func (req generateRequest) toServiceRequest() template.GenerateRequest {
	return template.GenerateRequest{
		Prompt:         req.Prompt,
		Mode:           req.Mode,
		ReferenceImage: req.ReferenceImage,
		ImageMIMEType:  req.ImageMIMEType,
		Provider:       req.Provider,
		Name:           req.Name,
		Description:    req.Description,
		Tags:           req.Tags,
		CreatedBy:      req.CreatedBy,
	}
}

type generateResponse struct {
	Template    *models.MasterTemplate `json:"template"`
	HTMLContent string                 `json:"html_content"`
	RawResponse string                 `json:"raw_response"`
	Provider    string                 `json:"provider"`
	Attempts    int                    `json:"attempts"`
}

// Generate runs the blocking generation pipeline and returns the saved
// template.
func (h *Templates) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Name) > maxTemplateNameLen {
		writeError(w, http.StatusBadRequest, "template name is too long")
		return
	}

	result, err := h.service.Generate(r.Context(), req.toServiceRequest())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, generateResponse{
		Template:    result.Template,
		HTMLContent: result.HTMLContent,
		RawResponse: result.RawResponse,
		Provider:    result.Provider,
		Attempts:    result.Attempts,
	})
}

// GenerateStream runs a single-pass generation over Server-Sent Events.
// Each event is a JSON StreamEvent in a data: frame; the stream ends with
// a terminal complete or error event.
func (h *Templates) GenerateStream(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Name) > maxTemplateNameLen {
		writeError(w, http.StatusBadRequest, "template name is too long")
		return
	}

	serveEventStream(w, r, h.service.GenerateStream(r.Context(), req.toServiceRequest()))
}

type adjustRequest struct {
	TemplateID  string `json:"template_id"`
	HTMLContent string `json:"html_content"`
	Instruction string `json:"instruction"`
	Provider    string `json:"provider"`
}

// AdjustStream streams a text-only adjustment of existing template HTML.
// The source document comes either inline (html_content) or from a stored
// template (template_id). Nothing is persisted.
func (h *Templates) AdjustStream(w http.ResponseWriter, r *http.Request) {
	var req adjustRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	html := req.HTMLContent
	if html == "" && req.TemplateID != "" {
		id, err := uuid.Parse(req.TemplateID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid template id")
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
		html = t.HTMLContent
	}
	if strings.TrimSpace(html) == "" {
		writeError(w, http.StatusBadRequest, "html_content or template_id is required")
		return
	}

	serveEventStream(w, r, h.service.AdjustStream(r.Context(), html, req.Instruction, req.Provider))
}

// serveEventStream drains a StreamEvent channel into an SSE response.
// Client disconnects cancel the request context, which the producer
// observes and shuts down on.
func serveEventStream(w http.ResponseWriter, r *http.Request, events <-chan template.StreamEvent) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	enc := json.NewEncoder(w)
	for {
		select {
		case <-r.Context().Done():
			return
		case ev, open := <-events:
			if !open {
				return
			}
			if _, err := w.Write([]byte("data: ")); err != nil {
				return
			}
			if err := enc.Encode(ev); err != nil {
				return
			}
			// Encoder emits a trailing newline; one more ends the frame.
			if _, err := w.Write([]byte("\n")); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
