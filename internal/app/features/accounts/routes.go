// internal/app/features/accounts/routes.go
package accounts

import (
	"github.com/dalemusser/placementhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the password-based account endpoints under /api/auth.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Post("/register", h.ServeRegister)
	r.Post("/login", h.ServeLogin)
	r.Post("/logout", h.ServeLogout)
	r.Post("/forgot", h.ServeForgot)
	r.Post("/reset", h.ServeReset)

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/me", h.ServeMe)
		pr.Post("/password", h.ServeChangePassword)
	})
	return r
}
