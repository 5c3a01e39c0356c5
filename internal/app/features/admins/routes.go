// internal/app/features/admins/routes.go
package admins

import (
	"github.com/dalemusser/placementhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts /api/admins for superadmins.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSuperAdmin)

	r.Get("/", h.ServeList)
	r.Post("/", h.ServeCreate)
	r.Put("/{id}", h.ServeUpdate)
	r.Delete("/{id}", h.ServeDelete)
	return r
}
