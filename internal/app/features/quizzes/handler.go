// internal/app/features/quizzes/handler.go
package quizzes

import (
	"errors"
	"net/http"

	attemptstore "github.com/dalemusser/placementhub/internal/app/store/attempts"
	quizstore "github.com/dalemusser/placementhub/internal/app/store/quizzes"
	studentstore "github.com/dalemusser/placementhub/internal/app/store/students"
	"github.com/dalemusser/placementhub/internal/app/system/apiresp"
	"github.com/dalemusser/placementhub/internal/app/system/auditlog"
	"github.com/dalemusser/placementhub/internal/app/system/filestore"
	"github.com/dalemusser/placementhub/internal/app/system/llm"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves quizzes, attempts and proctoring snapshots.
type Handler struct {
	DB       *mongo.Database
	Log      *zap.Logger
	LLM      llm.Client
	Files    filestore.Store
	AuditLog *auditlog.Logger

	Quizzes  *quizstore.Store
	Attempts *attemptstore.Store
	Students *studentstore.Store
}

func NewHandler(db *mongo.Database, client llm.Client, files filestore.Store, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:       db,
		Log:      logger,
		LLM:      client,
		Files:    files,
		AuditLog: audit,
		Quizzes:  quizstore.New(db),
		Attempts: attemptstore.New(db),
		Students: studentstore.New(db),
	}
}

func (h *Handler) writeStoreError(w http.ResponseWriter, r *http.Request, err error) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, quizstore.ErrNotFound):
		apiresp.NotFound(w, "quiz not found")
	case errors.Is(err, attemptstore.ErrNotFound):
		apiresp.NotFound(w, "attempt not found")
	case errors.Is(err, attemptstore.ErrAlreadyAttempted), errors.Is(err, attemptstore.ErrAlreadySubmitted):
		apiresp.Conflict(w, err.Error())
	default:
		h.Log.Error("quiz store error", zap.Error(err), zap.String("path", r.URL.Path))
		apiresp.Internal(w)
	}
	return false
}
