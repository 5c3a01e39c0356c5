// internal/app/features/ats/routes.go
package ats

import (
	"net/http"

	"github.com/dalemusser/placementhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts /api/ats for students. ai throttles scans.
func Routes(h *Handler, sm *auth.SessionManager, ai func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireRole(auth.RoleStudent))

	r.With(ai).Post("/scan", h.ServeScan)
	r.Get("/scans", h.ServeHistory)
	return r
}
