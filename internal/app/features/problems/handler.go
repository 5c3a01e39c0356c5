// internal/app/features/problems/handler.go
package problems

import (
	"context"
	"errors"
	"net/http"

	problemstore "github.com/dalemusser/placementhub/internal/app/store/problems"
	submissionstore "github.com/dalemusser/placementhub/internal/app/store/submissions"
	"github.com/dalemusser/placementhub/internal/app/system/apiresp"
	"github.com/dalemusser/placementhub/internal/app/system/auditlog"
	"github.com/dalemusser/placementhub/internal/app/system/coderunner"
	"github.com/dalemusser/placementhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Runner is the part of *coderunner.Runner the handlers use.
type Runner interface {
	Run(ctx context.Context, req coderunner.RunRequest) (coderunner.Result, error)
	Judge(ctx context.Context, language, code string, cases []models.TestCase) (coderunner.Verdict, error)
	Languages() map[string]coderunner.Language
}

// Handler serves practice problems, submissions and the run endpoint.
type Handler struct {
	DB       *mongo.Database
	Log      *zap.Logger
	Runner   Runner
	AuditLog *auditlog.Logger

	Problems    *problemstore.Store
	Submissions *submissionstore.Store
}

func NewHandler(db *mongo.Database, runner Runner, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:          db,
		Log:         logger,
		Runner:      runner,
		AuditLog:    audit,
		Problems:    problemstore.New(db),
		Submissions: submissionstore.New(db),
	}
}

func (h *Handler) writeStoreError(w http.ResponseWriter, r *http.Request, err error) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, problemstore.ErrNotFound):
		apiresp.NotFound(w, "problem not found")
	case errors.Is(err, problemstore.ErrDuplicateSlug):
		apiresp.Conflict(w, err.Error())
	default:
		h.Log.Error("problem store error", zap.Error(err), zap.String("path", r.URL.Path))
		apiresp.Internal(w)
	}
	return false
}

// writeRunnerError maps code runner failures to 400/503/500.
func (h *Handler) writeRunnerError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, coderunner.ErrUnsupportedLanguage), errors.Is(err, coderunner.ErrEmptyCode):
		apiresp.BadRequest(w, err.Error())
	case errors.Is(err, coderunner.ErrBusy):
		w.Header().Set("Retry-After", "5")
		apiresp.Error(w, http.StatusServiceUnavailable, "code runner is busy, try again shortly")
	case errors.Is(err, coderunner.ErrToolchain):
		h.Log.Error("toolchain unavailable", zap.Error(err), zap.String("path", r.URL.Path))
		apiresp.Error(w, http.StatusServiceUnavailable, "language toolchain unavailable")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		apiresp.Error(w, http.StatusServiceUnavailable, "run did not finish in time")
	default:
		h.Log.Error("code run failed", zap.Error(err), zap.String("path", r.URL.Path))
		apiresp.Internal(w)
	}
}
