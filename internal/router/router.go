// Package router sets up all HTTP routes and middleware chains for the
// SlideForge template service. Read endpoints are open; mutating and AI
// endpoints sit behind the bearer token and tighter rate limits.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"slideforge/internal/handlers"
	"slideforge/internal/middleware"
)

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(templates *handlers.Templates, tokenHash string, apiLimiter, aiLimiter *middleware.RateLimiter) chi.Router {
	r := chi.NewRouter()

	// Global middleware — applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)

	// Health check — no auth, no rate limit.
	r.Get("/health", healthHandler)

	requireToken := middleware.RequireToken(tokenHash)

	r.Route("/api/templates", func(r chi.Router) {
		r.Use(apiLimiter.Middleware)

		// Read endpoints.
		r.Get("/", templates.List)
		r.Get("/default", templates.GetDefault)
		r.Get("/{id}", templates.Get)

		// Mutating endpoints.
		r.Group(func(r chi.Router) {
			r.Use(requireToken)

			r.Post("/", templates.Create)
			r.Put("/{id}", templates.Update)
			r.Delete("/{id}", templates.Delete)
			r.Post("/{id}/default", templates.SetDefault)
			r.Post("/{id}/usage", templates.IncrementUsage)
		})

		// AI endpoints — expensive, so tighter limits on top of auth.
		r.Group(func(r chi.Router) {
			r.Use(requireToken)
			r.Use(aiLimiter.Middleware)

			r.Post("/generate", templates.Generate)
			r.Post("/generate/stream", templates.GenerateStream)
			r.Post("/adjust/stream", templates.AdjustStream)
		})
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
