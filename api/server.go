/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the frontend

SECURITY NOTE:
  No authentication middleware. Auth and session management are owned by
  the surrounding application, not this engine.

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

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
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
		// User-scoped routes
		r.Route("/users/{userID}", func(r chi.Router) {
			r.Get("/profile", h.GetProfile)
			r.Put("/profile", h.PutProfile)

			r.Get("/gigs", h.ListGigs)
			r.Post("/gigs", h.CreateGig)

			r.Get("/expenses", h.ListExpenses)
			r.Post("/expenses", h.CreateExpense)

			r.Get("/stats", h.GetStats)
		})

		// Gig routes
		r.Route("/gigs/{id}", func(r chi.Router) {
			r.Get("/", h.GetGig)
			r.Delete("/", h.DeleteGig)
			r.Post("/payment", h.StartPayment)
		})

		// Expense routes
		r.Delete("/expenses/{id}", h.DeleteExpense)

		// Period resolution (calendar header arrows)
		r.Get("/periods", h.GetPeriod)

		// Payment wizard sessions
		r.Route("/payment-sessions/{sid}", func(r chi.Router) {
			r.Get("/", h.GetSession)
			r.Delete("/", h.CancelPayment)
			r.Post("/next", h.NextStep)
			r.Post("/back", h.BackStep)
			r.Put("/values", h.UpdateSession)
			r.Post("/calculate-mileage", h.CalculateMileage)
			r.Post("/finalize", h.FinalizePayment)
		})

		// Demo scenarios
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Post("/load", h.LoadScenario)
		})
	})

	return r
}
