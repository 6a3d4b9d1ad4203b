/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Request logging
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for admin frontends
  5. httprate:   Per-IP rate limit on the mutation group only; reads
                 stay unthrottled

ROUTE GROUPS:
  /health               Liveness probe
  /api/tenants/*        Tenant registry, ledger, payments
  /api/backfill         Roster-wide charge catch-up
  /api/payments         Collections
  /api/reports/*        Monthly report, dashboard
  /api/scenarios/*      Demo scenarios

SECURITY NOTE:
  No authentication middleware. The service is meant to sit behind a
  reverse proxy that terminates auth.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
)

// mutationRateLimit caps writes per IP per minute. Reads are unlimited;
// an operator recording rent all day stays far under this.
const mutationRateLimit = 120

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	limitMutations := httprate.LimitByIP(mutationRateLimit, time.Minute)

	r.Get("/health", h.Health)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Tenant routes
		r.Route("/tenants", func(r chi.Router) {
			r.Get("/", h.ListTenants)
			r.Get("/{id}", h.GetTenant)
			r.Get("/{id}/ledger", h.GetLedger)
			r.Get("/{id}/balance", h.GetBalance)
			r.Get("/{id}/projection", h.GetProjection)

			r.Group(func(r chi.Router) {
				r.Use(limitMutations)
				r.Post("/", h.CreateTenant)
				r.Post("/import", h.ImportTenants)
				r.Patch("/{id}", h.UpdateTenant)
				r.Delete("/{id}", h.DeleteTenant)
				r.Post("/{id}/backfill", h.BackfillTenant)
				r.Post("/{id}/payments", h.RecordPayment)
			})
		})

		// Charge routes
		r.With(limitMutations).Post("/backfill", h.BackfillAll)

		// Collection routes
		r.Get("/payments", h.ListCollections)

		// Report routes
		r.Route("/reports", func(r chi.Router) {
			r.Get("/monthly", h.MonthlyReport)
			r.Get("/dashboard", h.Dashboard)
		})

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.With(limitMutations).Post("/load", h.LoadScenario)
		})
	})

	// Landing page for anyone poking the root with a browser.
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Rent Ledger</title></head>
<body style="font-family: system-ui; max-width: 800px; margin: 50px auto; padding: 20px;">
<h1>Rent Ledger API</h1>
<h2>Endpoints</h2>
<ul>
<li><a href="/api/tenants">/api/tenants</a> - List tenants</li>
<li><a href="/api/reports/dashboard">/api/reports/dashboard</a> - Dashboard</li>
<li><a href="/api/payments">/api/payments</a> - This month's collections</li>
<li><a href="/api/scenarios">/api/scenarios</a> - Demo scenarios</li>
</ul>
</body>
</html>`))
	})

	return r
}
