// internal/app/features/students/routes.go
package students

import (
	"github.com/dalemusser/placementhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// AdminRoutes mounts /api/students.
func AdminRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireRole(auth.RoleAdmin))

	r.Get("/", h.ServeList)
	r.Get("/{id}", h.ServeGet)
	r.Put("/{id}", h.ServeUpdate)
	r.Delete("/{id}", h.ServeDelete)
	r.Post("/{id}/status", h.ServeSetStatus)
	r.Get("/{id}/logins", h.ServeLogins)
	return r
}

// MountSelfRoutes adds the student's own profile endpoints to an /api/me router.
func MountSelfRoutes(r chi.Router, h *Handler, sm *auth.SessionManager) {
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireRole(auth.RoleStudent))
		pr.Get("/profile", h.ServeMyProfile)
		pr.Put("/profile", h.ServeUpdateMyProfile)
		pr.Post("/profile/image", h.ServeUploadImage)
		pr.Post("/resume", h.ServeUploadResume)
	})
}
