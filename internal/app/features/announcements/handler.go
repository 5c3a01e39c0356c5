// internal/app/features/announcements/handler.go
package announcements

import (
	"errors"
	"net/http"

	announcementstore "github.com/dalemusser/placementhub/internal/app/store/announcements"
	"github.com/dalemusser/placementhub/internal/app/system/apiresp"
	"github.com/dalemusser/placementhub/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler owns the announcement endpoints.
type Handler struct {
	DB       *mongo.Database
	Store    *announcementstore.Store
	AuditLog *auditlog.Logger
	Log      *zap.Logger
}

// NewHandler constructs an announcements Handler.
func NewHandler(db *mongo.Database, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:       db,
		Store:    announcementstore.New(db),
		AuditLog: audit,
		Log:      logger,
	}
}

func (h *Handler) writeStoreError(w http.ResponseWriter, r *http.Request, err error) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, announcementstore.ErrNotFound):
		apiresp.NotFound(w, "announcement not found")
	default:
		h.Log.Error("announcement store error", zap.Error(err), zap.String("path", r.URL.Path))
		apiresp.Internal(w)
	}
	return false
}
