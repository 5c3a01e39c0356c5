// internal/app/features/problems/routes.go
package problems

import (
	"net/http"

	"github.com/dalemusser/placementhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts /api/problems. run throttles judging.
func Routes(h *Handler, sm *auth.SessionManager, run func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/", h.ServeList)
	r.Get("/{id}", h.ServeGet)
	r.With(sm.RequireRole(auth.RoleStudent), run).Post("/{id}/submit", h.ServeSubmit)

	r.Group(func(r chi.Router) {
		r.Use(sm.RequireRole(auth.RoleAdmin))
		r.Post("/", h.ServeCreate)
		r.Put("/{id}", h.ServeUpdate)
		r.Delete("/{id}", h.ServeDelete)
		r.Get("/{id}/submissions", h.ServeProblemSubmissions)
	})
	return r
}

// RunRoutes mounts /api/run.
func RunRoutes(h *Handler, sm *auth.SessionManager, run func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/languages", h.ServeLanguages)
	r.With(run).Post("/", h.ServeRun)
	return r
}

// MountSelfRoutes adds the student's submission history under /api/me.
func MountSelfRoutes(r chi.Router, h *Handler, sm *auth.SessionManager) {
	r.With(sm.RequireRole(auth.RoleStudent)).Get("/submissions", h.ServeMySubmissions)
}
