/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Structured request logging (logging.Middleware, zap)
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for the wizard and admin frontends

ROUTE GROUPS:
  /api/drafts/*           Submission wizard + cash-flow step
  /api/tranche-templates  Template previews per project type
  /api/lock-formats       Lock-time schedule previews
  /api/projects/*         Admin projects and locked schedules
  /api/pipeline/*         Stage board and history
  /api/invoices/*         Invoices against locked tranches
  /api/analytics          Dashboard
  /api/scenarios/*        Demo scenarios
  /healthz                Liveness + database ping

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/serve.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/warp/studio-onboarding/logging"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(logging.Middleware(h.Logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", h.Health)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Wizard drafts
		r.Route("/drafts", func(r chi.Router) {
			r.Get("/", h.ListDrafts)
			r.Post("/", h.CreateDraft)
			r.Get("/{id}", h.GetDraft)
			r.Put("/{id}", h.UpdateDraft)
			r.Put("/{id}/budget", h.SetBudget)
			r.Delete("/{id}", h.DeleteDraft)
			r.Post("/{id}/submit", h.SubmitDraft)

			// Cash-flow step
			r.Get("/{id}/cashflow", h.GetCashFlow)
			r.Put("/{id}/cashflow/project-type", h.SetProjectType)
			r.Post("/{id}/cashflow/tranches", h.AddTranche)
			r.Patch("/{id}/cashflow/tranches/{trancheID}", h.UpdateTranche)
			r.Delete("/{id}/cashflow/tranches/{trancheID}", h.RemoveTranche)
			r.Post("/{id}/cashflow/schedule-dates", h.ScheduleDates)
		})

		// Template previews
		r.Get("/tranche-templates", h.ListProjectTypes)
		r.Get("/tranche-templates/{projectType}", h.GetTemplates)
		r.Get("/lock-formats", h.ListLockFormats)
		r.Get("/lock-formats/{format}", h.GetLockFormat)

		// Admin projects
		r.Route("/projects", func(r chi.Router) {
			r.Get("/", h.ListProjects)
			r.Post("/", h.CreateProject)
			r.Get("/{id}", h.GetProject)
			r.Post("/{id}/lock", h.LockProject)
			r.Patch("/{id}/tranches/{trancheID}", h.UpdateProjectTranche)
		})

		// Pipeline board
		r.Route("/pipeline", func(r chi.Router) {
			r.Get("/", h.GetPipeline)
			r.Post("/{id}/advance", h.AdvanceProject)
			r.Get("/{id}/events", h.ListStageEvents)
		})

		// Invoices
		r.Route("/invoices", func(r chi.Router) {
			r.Get("/", h.ListInvoices)
			r.Post("/", h.RaiseInvoice)
			r.Post("/{id}/paid", h.PayInvoice)
			r.Post("/{id}/cancel", h.CancelInvoice)
		})

		r.Get("/analytics", h.GetAnalytics)

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	return r
}

// Health reports liveness and database reachability.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Ping(r.Context()); err != nil {
		h.fail(w, r, "Database unavailable", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
