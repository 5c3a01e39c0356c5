// internal/app/features/dashboard/handler.go
package dashboard

import (
	applicationstore "github.com/dalemusser/placementhub/internal/app/store/applications"
	attemptstore "github.com/dalemusser/placementhub/internal/app/store/attempts"
	companystore "github.com/dalemusser/placementhub/internal/app/store/companies"
	resumescanstore "github.com/dalemusser/placementhub/internal/app/store/resumescans"
	submissionstore "github.com/dalemusser/placementhub/internal/app/store/submissions"
	"github.com/dalemusser/placementhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// upcomingDrives caps the student's upcoming list.
const upcomingDrives = 5

type Handler struct {
	DB  *mongo.Database
	Log *zap.Logger

	Applications *applicationstore.Store
	Attempts     *attemptstore.Store
	Companies    *companystore.Store
	Scans        *resumescanstore.Store
	Submissions  *submissionstore.Store
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		DB:           db,
		Log:          logger,
		Applications: applicationstore.New(db),
		Attempts:     attemptstore.New(db),
		Companies:    companystore.New(db),
		Scans:        resumescanstore.New(db),
		Submissions:  submissionstore.New(db),
	}
}

// Routes mounts /api/dashboard.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.With(sm.RequireRole(auth.RoleAdmin)).Get("/admin", h.ServeAdmin)
	r.With(sm.RequireRole(auth.RoleStudent)).Get("/student", h.ServeStudent)
	return r
}
