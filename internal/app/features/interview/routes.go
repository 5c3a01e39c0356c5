// internal/app/features/interview/routes.go
package interview

import (
	"net/http"

	"github.com/dalemusser/placementhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts /api/interview for students. ai throttles model calls.
func Routes(h *Handler, sm *auth.SessionManager, ai func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireRole(auth.RoleStudent))

	r.Get("/sessions", h.ServeList)
	r.Get("/sessions/{id}", h.ServeGet)
	r.With(ai).Post("/sessions", h.ServeCreate)
	r.With(ai).Post("/sessions/{id}/answers", h.ServeAnswer)
	r.Post("/sessions/{id}/finish", h.ServeFinish)
	return r
}
