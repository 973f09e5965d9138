/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/institutions/*   Institutions, students, cashbook, lessons
  /api/safe/*           The user-level safe
  /api/profile          Display identity

SECURITY NOTE:
  No authentication middleware. The owner is fixed by the Identity the
  service was built with; all endpoints operate on that owner's books.

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
		r.Route("/institutions", func(r chi.Router) {
			r.Get("/", h.ListInstitutions)
			r.Post("/", h.CreateInstitution)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetInstitution)
				r.Put("/", h.UpdateInstitution)
				r.Delete("/", h.DeleteInstitution)
				r.Post("/reset", h.ResetInstitution)
				r.Get("/stats", h.GetStats)

				r.Post("/collect-all", h.CollectAllDebts)
				r.Post("/entries", h.RecordManualEntry)
				r.Post("/transfer-to-safe", h.TransferToSafe)

				r.Route("/students", func(r chi.Router) {
					r.Post("/", h.AddStudent)
					r.Put("/{studentID}", h.UpdateStudent)
					r.Delete("/{studentID}", h.DeleteStudent)
					r.Post("/{studentID}/wallet", h.CreditWallet)
					r.Post("/{studentID}/collect", h.CollectDebt)
					r.Post("/{studentID}/payments", h.CollectPayment)
				})

				r.Route("/lessons", func(r chi.Router) {
					r.Post("/", h.ScheduleLessons)
					r.Post("/{lessonID}/start", h.StartLesson)
					r.Post("/{lessonID}/cancel", h.CancelLesson)
					r.Post("/{lessonID}/absent", h.MarkAbsent)
					r.Post("/{lessonID}/complete", h.CompleteLesson)
				})

				r.Route("/resources", func(r chi.Router) {
					r.Post("/", h.AddResource)
					r.Delete("/{resourceID}", h.DeleteResource)
				})
			})
		})

		r.Route("/safe", func(r chi.Router) {
			r.Get("/", h.GetSafe)
			r.Post("/withdraw", h.WithdrawFromSafe)
			r.Post("/reset", h.ResetSafe)
		})

		r.Put("/profile", h.UpdateProfile)

		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Post("/load", h.LoadScenario)
		})
	})

	return r
}
