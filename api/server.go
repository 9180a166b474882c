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
  1. RequestID:     Unique ID per request for tracing
  2. CORS:          Cross-origin requests for frontend
  3. RequestLogger: Structured request logging (httplog over slog, ECS schema)
  4. Recoverer:     Panic recovery (500 instead of crash)

ROUTE GROUPS:
  /api/employees/*   Employees, clock taps, status, TIL per employee
  /api/shifts/*      Shift templates and assignments
  /api/til/*         TIL approval workflow
  /api/reports/*     Manager reports
  /api/admin/*       Sweep trigger

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.
  Put the service behind the org gateway in production.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	logFormat := httplog.SchemaECS.Concise(false)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "attendance-engine"),
	)

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))
	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelInfo,
		Schema: httplog.SchemaECS,
	}))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/healthz"))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Employee routes
		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.CreateEmployee)
			r.Get("/{id}", h.GetEmployee)
			r.Post("/{id}/clock", h.ClockTap)
			r.Post("/{id}/manual-clockout", h.ManualClockOut)
			r.Get("/{id}/status", h.GetStatus)
			r.Get("/{id}/taps", h.GetTaps)
			r.Get("/{id}/til", h.GetTILBalance)
			r.Get("/{id}/til/records", h.GetTILRecords)
			r.Post("/{id}/til/usage", h.ApplyLeaveUsage)
		})

		// Shift routes
		r.Route("/shifts", func(r chi.Router) {
			r.Get("/", h.ListShifts)
			r.Post("/", h.CreateShift)
			r.Post("/assignments", h.CreateAssignment)
		})

		// TIL approval routes
		r.Route("/til", func(r chi.Router) {
			r.Get("/pending", h.ListPendingTIL)
			r.Post("/{id}/approve", h.ApproveTIL)
			r.Post("/{id}/reject", h.RejectTIL)
		})

		// Report routes
		r.Route("/reports", func(r chi.Router) {
			r.Get("/early-birds", h.GetEarlyBirds)
			r.Get("/til", h.GetTILReport)
		})

		// Admin routes
		r.Route("/admin", func(r chi.Router) {
			r.Post("/sweep", h.RunSweep)
		})
	})

	return r
}
