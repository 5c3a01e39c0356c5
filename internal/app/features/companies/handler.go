// internal/app/features/companies/handler.go
package companies

import (
	"errors"
	"net/http"
	"strings"

	applicationstore "github.com/dalemusser/placementhub/internal/app/store/applications"
	companystore "github.com/dalemusser/placementhub/internal/app/store/companies"
	studentstore "github.com/dalemusser/placementhub/internal/app/store/students"
	"github.com/dalemusser/placementhub/internal/app/system/apiresp"
	"github.com/dalemusser/placementhub/internal/app/system/auditlog"
	"github.com/dalemusser/placementhub/internal/app/system/filestore"
	"github.com/dalemusser/placementhub/internal/app/system/mailer"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves company drives and the applications made to them.
type Handler struct {
	DB       *mongo.Database
	Log      *zap.Logger
	Files    filestore.Store
	Mailer   mailer.Sender // nil disables status emails
	AuditLog *auditlog.Logger

	Companies    *companystore.Store
	Applications *applicationstore.Store
	Students     *studentstore.Store

	SiteName string
	BaseURL  string
}

func NewHandler(
	db *mongo.Database,
	files filestore.Store,
	sender mailer.Sender,
	audit *auditlog.Logger,
	siteName, baseURL string,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		DB:           db,
		Log:          logger,
		Files:        files,
		Mailer:       sender,
		AuditLog:     audit,
		Companies:    companystore.New(db),
		Applications: applicationstore.New(db),
		Students:     studentstore.New(db),
		SiteName:     siteName,
		BaseURL:      strings.TrimRight(baseURL, "/"),
	}
}

func (h *Handler) writeStoreError(w http.ResponseWriter, r *http.Request, err error) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, companystore.ErrNotFound):
		apiresp.NotFound(w, "company not found")
	case errors.Is(err, applicationstore.ErrNotFound):
		apiresp.NotFound(w, "application not found")
	case errors.Is(err, studentstore.ErrNotFound):
		apiresp.NotFound(w, "student not found")
	case errors.Is(err, applicationstore.ErrAlreadyApplied):
		apiresp.Conflict(w, err.Error())
	case errors.Is(err, applicationstore.ErrBadStatus):
		apiresp.BadRequest(w, err.Error())
	default:
		h.Log.Error("company store error", zap.Error(err), zap.String("path", r.URL.Path))
		apiresp.Internal(w)
	}
	return false
}
