// internal/app/features/interview/handler.go
package interview

import (
	"errors"
	"net/http"

	interviewstore "github.com/dalemusser/placementhub/internal/app/store/interviews"
	studentstore "github.com/dalemusser/placementhub/internal/app/store/students"
	"github.com/dalemusser/placementhub/internal/app/system/apiresp"
	"github.com/dalemusser/placementhub/internal/app/system/llm"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the mock interview coach.
type Handler struct {
	DB  *mongo.Database
	Log *zap.Logger
	LLM llm.Client

	Sessions *interviewstore.Store
	Students *studentstore.Store
}

func NewHandler(db *mongo.Database, client llm.Client, logger *zap.Logger) *Handler {
	return &Handler{
		DB:       db,
		Log:      logger,
		LLM:      client,
		Sessions: interviewstore.New(db),
		Students: studentstore.New(db),
	}
}

func (h *Handler) writeStoreError(w http.ResponseWriter, r *http.Request, err error) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, interviewstore.ErrNotFound):
		apiresp.NotFound(w, "interview session not found")
	case errors.Is(err, interviewstore.ErrFinished):
		apiresp.Conflict(w, err.Error())
	default:
		h.Log.Error("interview store error", zap.Error(err), zap.String("path", r.URL.Path))
		apiresp.Internal(w)
	}
	return false
}
