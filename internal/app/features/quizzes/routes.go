// internal/app/features/quizzes/routes.go
package quizzes

import (
	"net/http"

	"github.com/dalemusser/placementhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts /api/quizzes.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/", h.ServeList)
	r.Get("/{id}", h.ServeGet)

	r.With(sm.RequireRole(auth.RoleStudent)).Post("/{id}/start", h.ServeStart)

	r.Group(func(r chi.Router) {
		r.Use(sm.RequireRole(auth.RoleAdmin))
		r.Post("/", h.ServeCreate)
		r.Put("/{id}", h.ServeUpdate)
		r.Delete("/{id}", h.ServeDelete)
		r.Get("/{id}/results", h.ServeResults)
	})
	return r
}

// AttemptRoutes mounts /api/attempts. ai throttles the proctoring snapshot route.
func AttemptRoutes(h *Handler, sm *auth.SessionManager, ai func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/{id}", h.ServeGetAttempt)
	r.Group(func(r chi.Router) {
		r.Use(sm.RequireRole(auth.RoleStudent))
		r.Post("/{id}/submit", h.ServeSubmit)
		r.With(ai).Post("/{id}/snapshot", h.ServeSnapshot)
	})
	return r
}

// MountSelfRoutes adds the student's attempt history under /api/me.
func MountSelfRoutes(r chi.Router, h *Handler, sm *auth.SessionManager) {
	r.With(sm.RequireRole(auth.RoleStudent)).Get("/attempts", h.ServeMyAttempts)
}
