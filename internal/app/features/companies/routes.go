// internal/app/features/companies/routes.go
package companies

import (
	"github.com/dalemusser/placementhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts /api/companies. Reads are open to any signed-in user.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/", h.ServeList)
	r.Get("/{id}", h.ServeGet)

	r.Group(func(sr chi.Router) {
		sr.Use(sm.RequireRole(auth.RoleStudent))
		sr.Post("/{id}/apply", h.ServeApply)
	})

	r.Group(func(ar chi.Router) {
		ar.Use(sm.RequireRole(auth.RoleAdmin))
		ar.Post("/", h.ServeCreate)
		ar.Put("/{id}", h.ServeUpdate)
		ar.Delete("/{id}", h.ServeDelete)
		ar.Post("/{id}/logo", h.ServeUploadLogo)
		ar.Get("/{id}/applications", h.ServeCompanyApplications)
	})
	return r
}

// ApplicationRoutes mounts /api/applications for admins.
func ApplicationRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireRole(auth.RoleAdmin))
	r.Put("/{id}", h.ServeUpdateApplication)
	return r
}

// MountSelfRoutes adds GET /applications to an /api/me router.
func MountSelfRoutes(r chi.Router, h *Handler, sm *auth.SessionManager) {
	r.With(sm.RequireRole(auth.RoleStudent)).Get("/applications", h.ServeMyApplications)
}
