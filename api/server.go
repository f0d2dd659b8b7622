/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the chi router, middleware stack, and route definitions. This
  is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the screening frontend

SECURITY NOTE:
  No authentication middleware. The engine sits behind the application's
  own gateway; authentication and session handling are its concern.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/healthz", h.Healthz)
		r.Get("/programs", h.ListPrograms)

		r.Route("/eligibility", func(r chi.Router) {
			r.Post("/check", h.CheckEligibility)
			r.Post("/benefit", h.CalculateBenefit)
			r.Post("/scan", h.ScanAllPrograms)
		})

		r.Post("/reconcile", h.Reconcile)
		r.Route("/reconciliation", func(r chi.Router) {
			r.Get("/runs", h.ListReconciliationRuns)
		})

		r.Route("/enrollments", func(r chi.Router) {
			r.Post("/", h.CreateEnrollment)
			r.Get("/{householdID}", h.ListEnrollments)
			r.Delete("/{id}", h.TerminateEnrollment)
		})

		r.Post("/unclaimed", h.FindUnclaimedPrograms)
	})

	return r
}
