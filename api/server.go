/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the roster frontend

ROUTE GROUPS:
  /api/allowance/*   Stateless computation and report export
  /api/workers/*     Saved rosters and persisted runs
  /api/runs/*        Run lookup
  /api/holidays/*    Holiday table
  /api/schedule      Rate schedule
  /api/duty-types    Duty types
  /healthz           Liveness
  /metrics           Prometheus

SECURITY NOTE:
  No authentication middleware. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/warp/shift-allowance/metrics"
)

var defaultOrigins = []string{"http://localhost:3000", "http://localhost:8080"}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	origins := h.allowedOrigins
	if len(origins) == 0 {
		origins = defaultOrigins
	}

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", h.Health)
	r.Handle("/metrics", metrics.Handler())

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Route("/allowance", func(r chi.Router) {
			r.Post("/compute", h.Compute)
			r.Post("/report", h.Report)
		})

		r.Get("/workers", h.ListWorkers)
		r.Route("/workers/{id}", func(r chi.Router) {
			r.Get("/roster", h.GetRoster)
			r.Put("/roster", h.PutRoster)
			r.Post("/roster/generate", h.GenerateRoster)
			r.Post("/roster/modify", h.ModifyRoster)
			r.Post("/compute", h.ComputeWorker)
			r.Get("/runs", h.ListRuns)
		})

		r.Get("/runs/{id}", h.GetRun)

		r.Route("/holidays", func(r chi.Router) {
			r.Get("/", h.ListHolidays)
			r.Post("/", h.CreateHoliday)
			r.Get("/check", h.CheckHoliday)
			r.Delete("/{date}", h.DeleteHoliday)
		})

		r.Get("/schedule", h.GetSchedule)
		r.Get("/duty-types", h.ListDutyTypes)
	})

	return r
}
