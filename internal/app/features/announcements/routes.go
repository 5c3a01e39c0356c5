// internal/app/features/announcements/routes.go
package announcements

import (
	"github.com/dalemusser/placementhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts /api/announcements. Reading needs a session; writes are admin-only.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/", h.ServeList)
	r.Get("/{id}", h.ServeGet)

	r.Group(func(r chi.Router) {
		r.Use(sm.RequireRole(auth.RoleAdmin))
		r.Post("/", h.ServeCreate)
		r.Put("/{id}", h.ServeUpdate)
		r.Post("/{id}/toggle", h.ServeToggle)
		r.Delete("/{id}", h.ServeDelete)
	})
	return r
}
