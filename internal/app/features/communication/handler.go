// internal/app/features/communication/handler.go
package communication

import (
	"context"
	"math"
	"net/http"
	"strings"

	"github.com/dalemusser/placementhub/internal/app/features/shared"
	communicationstore "github.com/dalemusser/placementhub/internal/app/store/communications"
	"github.com/dalemusser/placementhub/internal/app/system/apiresp"
	"github.com/dalemusser/placementhub/internal/app/system/auth"
	"github.com/dalemusser/placementhub/internal/app/system/llm"
	"github.com/dalemusser/placementhub/internal/app/system/timeouts"
	"github.com/dalemusser/placementhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const (
	minTranscriptChars = 20
	maxTranscriptChars = 10000
	historyLimit       = 50
)

type Handler struct {
	DB    *mongo.Database
	Log   *zap.Logger
	LLM   llm.Client
	Evals *communicationstore.Store
}

func NewHandler(db *mongo.Database, client llm.Client, logger *zap.Logger) *Handler {
	return &Handler{DB: db, Log: logger, LLM: client, Evals: communicationstore.New(db)}
}

// Routes mounts /api/communication for students.
func Routes(h *Handler, sm *auth.SessionManager, ai func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireRole(auth.RoleStudent))
	r.With(ai).Post("/evaluate", h.ServeEvaluate)
	r.Get("/history", h.ServeHistory)
	return r
}

type evaluateRequest struct {
	Topic      string `json:"topic"`
	Transcript string `json:"transcript"`
}

// ServeEvaluate handles POST /api/communication/evaluate.
func (h *Handler) ServeEvaluate(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	var req evaluateRequest
	if err := apiresp.Decode(w, r, &req); err != nil {
		apiresp.BadRequest(w, err.Error())
		return
	}
	req.Topic = strings.TrimSpace(req.Topic)
	req.Transcript = strings.TrimSpace(req.Transcript)
	if req.Topic == "" {
		req.Topic = "General"
	}
	n := len([]rune(req.Transcript))
	switch {
	case n < minTranscriptChars:
		apiresp.BadRequest(w, "transcript is too short to evaluate")
		return
	case n > maxTranscriptChars:
		apiresp.BadRequest(w, "transcript is too long")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.AI())
	defer cancel()

	scores, err := h.score(ctx, req)
	if err != nil {
		shared.WriteLLMError(w, r, h.Log, err)
		return
	}

	ev, err := h.Evals.Create(ctx, models.CommunicationEval{
		StudentID:  u.ObjectID(),
		Topic:      req.Topic,
		Transcript: req.Transcript,
		Scores:     scores,
	})
	if err != nil {
		h.Log.Error("save communication eval", zap.Error(err), zap.String("path", r.URL.Path))
		apiresp.Internal(w)
		return
	}
	apiresp.Created(w, ev)
}

func (h *Handler) score(ctx context.Context, req evaluateRequest) (models.CommunicationScores, error) {
	prompt, err := llm.Render(llm.PromptCommunication, req)
	if err != nil {
		return models.CommunicationScores{}, err
	}
	raw, err := h.LLM.Complete(ctx, llm.Request{System: llm.SystemJSON, Prompt: prompt, Temperature: 0.2, JSON: true})
	if err != nil {
		return models.CommunicationScores{}, err
	}
	s, err := llm.DecodeJSON[models.CommunicationScores](raw)
	if err != nil {
		return models.CommunicationScores{}, err
	}
	return normalize(s), nil
}

// normalize clamps every dimension to 0..10 and fills a missing overall
// with the mean of the others.
func normalize(s models.CommunicationScores) models.CommunicationScores {
	s.Fluency = shared.Clamp(s.Fluency, 0, 10)
	s.Grammar = shared.Clamp(s.Grammar, 0, 10)
	s.Vocabulary = shared.Clamp(s.Vocabulary, 0, 10)
	s.Clarity = shared.Clamp(s.Clarity, 0, 10)
	s.Overall = shared.Clamp(s.Overall, 0, 10)
	if s.Overall == 0 {
		s.Overall = math.Round((s.Fluency+s.Grammar+s.Vocabulary+s.Clarity)/4*10) / 10
	}
	if s.Corrections == nil {
		s.Corrections = []string{}
	}
	if s.Tips == nil {
		s.Tips = []string{}
	}
	return s
}

// ServeHistory handles GET /api/communication/history.
func (h *Handler) ServeHistory(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	items, err := h.Evals.ListByStudent(ctx, u.ObjectID(), historyLimit)
	if err != nil {
		h.Log.Error("list communication evals", zap.Error(err), zap.String("path", r.URL.Path))
		apiresp.Internal(w)
		return
	}
	apiresp.OK(w, map[string]any{"items": items})
}
