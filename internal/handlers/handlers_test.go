// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"slideforge/internal/ai"
	"slideforge/internal/handlers"
	"slideforge/internal/middleware"
	"slideforge/internal/models"
	"slideforge/internal/router"
	"slideforge/internal/template"
)

const testDoc = `<!DOCTYPE html>
<html>
<head><title>Slide</title></head>
<body><h1>{{ page_title }}</h1></body>
</html>`

// memStore is an in-memory template.Store for handler tests.
type memStore struct {
	mu        sync.Mutex
	templates map[uuid.UUID]*models.MasterTemplate
}

func newMemStore() *memStore {
	return &memStore{templates: make(map[uuid.UUID]*models.MasterTemplate)}
}

func (m *memStore) Create(t *models.MasterTemplate) (*models.MasterTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *t
	stored.ID = uuid.New()
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	m.templates[stored.ID] = &stored
	out := stored
	return &out, nil
}

func (m *memStore) FindByID(id uuid.UUID) (*models.MasterTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.templates[id]; ok {
		out := *t
		return &out, nil
	}
	return nil, nil
}

func (m *memStore) FindByName(name string) (*models.MasterTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.templates {
		if t.Name == name {
			out := *t
			return &out, nil
		}
	}
	return nil, nil
}

func (m *memStore) FindDefault() (*models.MasterTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.templates {
		if t.IsDefault {
			out := *t
			return &out, nil
		}
	}
	return nil, nil
}

func (m *memStore) all(activeOnly bool) []models.MasterTemplate {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.MasterTemplate
	for _, t := range m.templates {
		if activeOnly && !t.IsActive {
			continue
		}
		out = append(out, *t)
	}
	return out
}

func (m *memStore) List(activeOnly bool) ([]models.MasterTemplate, error) {
	return m.all(activeOnly), nil
}

func (m *memStore) ListPaginated(activeOnly bool, offset, limit int, search string) ([]models.MasterTemplate, int, error) {
	all := m.all(activeOnly)
	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (m *memStore) FindByTags(tags []string, activeOnly bool) ([]models.MasterTemplate, error) {
	var out []models.MasterTemplate
	for _, t := range m.all(activeOnly) {
		for _, have := range t.Tags {
			for _, want := range tags {
				if have == want {
					out = append(out, t)
				}
			}
		}
	}
	return out, nil
}

func (m *memStore) FindByTagsPaginated(tags []string, activeOnly bool, offset, limit int, search string) ([]models.MasterTemplate, int, error) {
	all, _ := m.FindByTags(tags, activeOnly)
	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (m *memStore) Update(t *models.MasterTemplate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *t
	m.templates[t.ID] = &copied
	return nil
}

func (m *memStore) Delete(id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.templates[id]; !ok {
		return false, nil
	}
	delete(m.templates, id)
	return true, nil
}

func (m *memStore) SetDefault(id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.templates {
		t.IsDefault = t.ID == id
	}
	return nil
}

func (m *memStore) IncrementUsage(id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.templates[id]
	if !ok {
		return false, nil
	}
	t.UsageCount++
	return true, nil
}

func (m *memStore) Count() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.templates), nil
}

// scriptedProvider returns a fixed response for every call.
type scriptedProvider struct {
	response string
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) TextCompletion(ctx context.Context, prompt string, opts ai.Options) (string, error) {
	return p.response, nil
}

func (p *scriptedProvider) ChatCompletion(ctx context.Context, messages []ai.Message, opts ai.Options) (string, error) {
	return p.response, nil
}

func goodResponse() string {
	pad := strings.Repeat("<div>slide body content row</div>\n", 70)
	doc := "<!DOCTYPE html>\n<html>\n<head><title>Slide</title></head>\n<body>\n" + pad + "</body>\n</html>"
	return "```html\n" + doc + "\n```"
}

/// newTestRouter wires the full stack: fake store, scripted provider, no
// auth token, generous rate limits.
func newTestRouter(t *testing.T) (http.Handler, *memStore) {
	t.Helper()

	store := newMemStore()
	registry := ai.NewRegistry("scripted", nil)
	registry.Register("scripted", &scriptedProvider{response: goodResponse()})
	registry.SetRole("template", ai.RoleSettings{Provider: "scripted"})

	svc := template.NewService(store, registry, nil, nil)
	h := handlers.NewTemplates(svc)

	apiLimiter := middleware.NewRateLimiter(10000, time.Minute)
	t.Cleanup(apiLimiter.Stop)
	aiLimiter := middleware.NewRateLimiter(10000, time.Minute)
	t.Cleanup(aiLimiter.Stop)

	return router.New(h, "", apiLimiter, aiLimiter), store
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestTemplateCRUDEndpoints(t *testing.T) {
	h, _ := newTestRouter(t)

	// Create.
	rec := doJSON(t, h, http.MethodPost, "/api/templates", map[string]any{
		"name":         "Corporate Dark",
		"html_content": testDoc,
		"tags":         []string{"dark"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: got %d: %s", rec.Code, rec.Body.String())
	}

	var created models.MasterTemplate
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created: %v", err)
	}
	if created.ID == uuid.Nil || created.StyleConfig == nil {
		t.Fatalf("created: %+v", created)
	}

	// Duplicate name is a 400.
	rec = doJSON(t, h, http.MethodPost, "/api/templates", map[string]any{
		"name":         "Corporate Dark",
		"html_content": testDoc,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("duplicate create: got %d, want 400", rec.Code)
	}

	// Get.
	rec = doJSON(t, h, http.MethodGet, "/api/templates/"+created.ID.String(), nil)
	if rec.Code != http.StatusOK {
		t.Errorf("get: got %d", rec.Code)
	}

	// Garbage id.
	rec = doJSON(t, h, http.MethodGet, "/api/templates/not-a-uuid", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad id: got %d, want 400", rec.Code)
	}

	// List carries pagination metadata.
	rec = doJSON(t, h, http.MethodGet, "/api/templates?page=1&page_size=6", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: got %d", rec.Code)
	}
	var listing struct {
		Templates  []models.MasterTemplate `json:"templates"`
		Pagination *models.Pagination      `json:"pagination"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listing); err != nil {
		t.Fatalf("decode listing: %v", err)
	}
	if len(listing.Templates) != 1 || listing.Pagination == nil || listing.Pagination.TotalCount != 1 {
		t.Errorf("listing: %+v", listing)
	}

	// Update.
	rec = doJSON(t, h, http.MethodPut, "/api/templates/"+created.ID.String(), map[string]any{
		"description": "updated",
	})
	if rec.Code != http.StatusOK {
		t.Errorf("update: got %d", rec.Code)
	}

	// Delete, then 404 on repeat.
	rec = doJSON(t, h, http.MethodDelete, "/api/templates/"+created.ID.String(), nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete: got %d, want 204", rec.Code)
	}
	rec = doJSON(t, h, http.MethodDelete, "/api/templates/"+created.ID.String(), nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("repeat delete: got %d, want 404", rec.Code)
	}
}

func TestDefaultTemplateEndpoints(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := doJSON(t, h, http.MethodGet, "/api/templates/default", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("no default yet: got %d, want 404", rec.Code)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/templates", map[string]any{
		"name":         "Base",
		"html_content": testDoc,
	})
	var created models.MasterTemplate
	json.Unmarshal(rec.Body.Bytes(), &created)

	rec = doJSON(t, h, http.MethodPost, "/api/templates/"+created.ID.String()+"/default", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("set default: got %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/templates/default", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get default: got %d", rec.Code)
	}

	// The default cannot be deleted.
	rec = doJSON(t, h, http.MethodDelete, "/api/templates/"+created.ID.String(), nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("delete default: got %d, want 400", rec.Code)
	}
}

func TestGenerateEndpoint(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := doJSON(t, h, http.MethodPost, "/api/templates/generate", map[string]any{
		"name":   "Generated",
		"prompt": "a clean light theme",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("generate: got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Template    *models.MasterTemplate `json:"template"`
		RawResponse string                 `json:"raw_response"`
		Provider    string                 `json:"provider"`
		Attempts    int                    `json:"attempts"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Template == nil || resp.Template.Name != "Generated" {
		t.Errorf("template: %+v", resp.Template)
	}
	if resp.Provider != "scripted" || resp.Attempts != 1 {
		t.Errorf("provider/attempts: %q/%d", resp.Provider, resp.Attempts)
	}
	if resp.RawResponse != goodResponse() {
		t.Error("raw_response does not carry the model output")
	}
}

func TestGenerateStreamEndpoint(t *testing.T) {
	h, store := newTestRouter(t)

	rec := doJSON(t, h, http.MethodPost, "/api/templates/generate/stream", map[string]any{
		"name":   "Streamed",
		"prompt": "p",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("stream: got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content type: got %q", ct)
	}

	events := parseSSE(t, rec.Body.String())
	if len(events) == 0 {
		t.Fatal("no events in stream")
	}
	last := events[len(events)-1]
	if last.Type != template.EventComplete {
		t.Fatalf("terminal event: got %s (%s)", last.Type, last.Message)
	}
	if last.Template == nil {
		t.Error("complete event missing the saved template")
	}
	if n, _ := store.Count(); n != 1 {
		t.Errorf("persisted templates: got %d, want 1", n)
	}
}

func TestAdjustStreamEndpoint(t *testing.T) {
	h, store := newTestRouter(t)

	rec := doJSON(t, h, http.MethodPost, "/api/templates/adjust/stream", map[string]any{
		"html_content": testDoc,
		"instruction":  "make it blue",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("adjust: got %d: %s", rec.Code, rec.Body.String())
	}

	events := parseSSE(t, rec.Body.String())
	last := events[len(events)-1]
	if last.Type != template.EventComplete {
		t.Fatalf("terminal event: got %s (%s)", last.Type, last.Message)
	}
	if !strings.HasPrefix(last.Content, "<!DOCTYPE html") {
		t.Error("complete event does not carry the adjusted document")
	}
	// Adjustment never persists.
	if n, _ := store.Count(); n != 0 {
		t.Errorf("persisted templates: got %d, want 0", n)
	}

	// Neither source provided.
	rec = doJSON(t, h, http.MethodPost, "/api/templates/adjust/stream", map[string]any{
		"instruction": "make it blue",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing source: got %d, want 400", rec.Code)
	}
}

// parseSSE decodes the data frames of an SSE body into stream events.
func parseSSE(t *testing.T, body string) []template.StreamEvent {
	t.Helper()
	var events []template.StreamEvent
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" {
			continue
		}
		var ev template.StreamEvent
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			t.Fatalf("decode SSE frame %q: %v", payload, err)
		}
		events = append(events, ev)
	}
	return events
}
