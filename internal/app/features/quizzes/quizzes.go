// internal/app/features/quizzes/quizzes.go
package quizzes

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/placementhub/internal/app/features/shared"
	"github.com/dalemusser/placementhub/internal/app/store/audit"
	"github.com/dalemusser/placementhub/internal/app/system/apiresp"
	"github.com/dalemusser/placementhub/internal/app/system/auth"
	"github.com/dalemusser/placementhub/internal/app/system/timeouts"
	"github.com/dalemusser/placementhub/internal/app/system/txn"
	"github.com/dalemusser/placementhub/internal/domain/models"
	"go.uber.org/zap"
)

// quizView is what students receive: no answers, plus their attempt state.
type quizView struct {
	models.Quiz
	QuestionCount int    `json:"question_count"`
	Open          bool   `json:"open"`
	AttemptID     string `json:"attempt_id,omitempty"`
	Submitted     bool   `json:"submitted"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /api/quizzes                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if u.IsAdmin() {
		items, err := h.Quizzes.List(ctx, false)
		if !h.writeStoreError(w, r, err) {
			return
		}
		apiresp.OK(w, map[string]any{"items": items})
		return
	}

	items, err := h.Quizzes.List(ctx, true)
	if !h.writeStoreError(w, r, err) {
		return
	}
	attempts, err := h.Attempts.ListByStudent(ctx, u.ObjectID())
	if !h.writeStoreError(w, r, err) {
		return
	}
	byQuiz := make(map[string]models.Attempt, len(attempts))
	for _, a := range attempts {
		byQuiz[a.QuizID.Hex()] = a
	}

	now := time.Now().UTC()
	out := make([]quizView, 0, len(items))
	for _, q := range items {
		v := quizView{Quiz: q.ForStudent(), QuestionCount: len(q.Questions), Open: q.OpenAt(now)}
		v.Questions = nil
		if a, ok := byQuiz[q.ID.Hex()]; ok {
			v.AttemptID = a.ID.Hex()
			v.Submitted = a.Submitted()
		}
		out = append(out, v)
	}
	apiresp.OK(w, map[string]any{"items": out})
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /api/quizzes/{id}                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	id, ok := shared.ObjectIDParam(r, "id")
	if !ok {
		apiresp.BadRequest(w, "invalid quiz id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	q, err := h.Quizzes.GetByID(ctx, id)
	if !h.writeStoreError(w, r, err) {
		return
	}
	if u.IsAdmin() {
		apiresp.OK(w, q)
		return
	}
	if !q.Active {
		apiresp.NotFound(w, "quiz not found")
		return
	}
	apiresp.OK(w, quizView{Quiz: q.ForStudent(), QuestionCount: len(q.Questions), Open: q.OpenAt(time.Now().UTC())})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /api/quizzes                                                            |
| PUT  /api/quizzes/{id}                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

type quizRequest struct {
	Title           string            `json:"title"`
	Description     string            `json:"description"`
	Topic           string            `json:"topic"`
	DurationMinutes int               `json:"duration_minutes"`
	Questions       []models.Question `json:"questions"`
	Active          *bool             `json:"active"`
	StartsAt        *time.Time        `json:"starts_at"`
	EndsAt          *time.Time        `json:"ends_at"`
}

func (req quizRequest) toModel() (models.Quiz, string) {
	q := models.Quiz{
		Title:           strings.TrimSpace(req.Title),
		Description:     strings.TrimSpace(req.Description),
		Topic:           strings.ToLower(strings.TrimSpace(req.Topic)),
		DurationMinutes: req.DurationMinutes,
		Active:          true,
		StartsAt:        req.StartsAt,
		EndsAt:          req.EndsAt,
	}
	if req.Active != nil {
		q.Active = *req.Active
	}

	switch {
	case q.Title == "":
		return q, "title is required"
	case q.DurationMinutes < 1 || q.DurationMinutes > 300:
		return q, "duration_minutes must be between 1 and 300"
	case len(req.Questions) == 0:
		return q, "at least one question is required"
	case q.StartsAt != nil && q.EndsAt != nil && !q.EndsAt.After(*q.StartsAt):
		return q, "ends_at must be after starts_at"
	}

	q.Questions = make([]models.Question, 0, len(req.Questions))
	for i, qq := range req.Questions {
		text := strings.TrimSpace(qq.Text)
		opts := make([]string, 0, len(qq.Options))
		for _, o := range qq.Options {
			if o = strings.TrimSpace(o); o != "" {
				opts = append(opts, o)
			}
		}
		switch {
		case text == "":
			return q, fmt.Sprintf("question %d: text is required", i+1)
		case len(opts) < 2:
			return q, fmt.Sprintf("question %d: at least two options are required", i+1)
		case qq.Answer == nil || *qq.Answer < 0 || *qq.Answer >= len(opts):
			return q, fmt.Sprintf("question %d: answer must index one of the options", i+1)
		}
		q.Questions = append(q.Questions, models.Question{Text: text, Options: opts, Answer: qq.Answer})
	}
	return q, ""
}

func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.CurrentUser(r)

	var req quizRequest
	if err := apiresp.Decode(w, r, &req); err != nil {
		apiresp.BadRequest(w, err.Error())
		return
	}
	q, msg := req.toModel()
	if msg != "" {
		apiresp.BadRequest(w, msg)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	created, err := h.Quizzes.Create(ctx, q)
	if !h.writeStoreError(w, r, err) {
		return
	}
	h.AuditLog.AdminAction(ctx, r, actor.ObjectID(), audit.EventQuizCreated, nil, map[string]string{
		"quiz_id": created.ID.Hex(),
		"title":   created.Title,
	})
	apiresp.Created(w, created)
}

func (h *Handler) ServeUpdate(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.CurrentUser(r)
	id, ok := shared.ObjectIDParam(r, "id")
	if !ok {
		apiresp.BadRequest(w, "invalid quiz id")
		return
	}

	var req quizRequest
	if err := apiresp.Decode(w, r, &req); err != nil {
		apiresp.BadRequest(w, err.Error())
		return
	}
	q, msg := req.toModel()
	if msg != "" {
		apiresp.BadRequest(w, msg)
		return
	}
	q.ID = id

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	updated, err := h.Quizzes.Replace(ctx, q)
	if !h.writeStoreError(w, r, err) {
		return
	}
	h.AuditLog.AdminAction(ctx, r, actor.ObjectID(), audit.EventQuizUpdated, nil, map[string]string{
		"quiz_id": id.Hex(),
	})
	apiresp.OK(w, updated)
}

/*─────────────────────────────────────────────────────────────────────────────*
| DELETE /api/quizzes/{id}                                                     |
| Attempts go with the quiz.                                                   |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeDelete(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.CurrentUser(r)
	id, ok := shared.ObjectIDParam(r, "id")
	if !ok {
		apiresp.BadRequest(w, "invalid quiz id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	var removed int64
	err := txn.Run(ctx, h.DB, h.Log, func(ctx context.Context) error {
		if _, err := h.Attempts.DeleteByQuiz(ctx, id); err != nil {
			return err
		}
		n, err := h.Quizzes.Delete(ctx, id)
		removed = n
		return err
	})
	if !h.writeStoreError(w, r, err) {
		return
	}
	if removed == 0 {
		apiresp.NotFound(w, "quiz not found")
		return
	}
	h.AuditLog.AdminAction(ctx, r, actor.ObjectID(), audit.EventQuizDeleted, nil, map[string]string{
		"quiz_id": id.Hex(),
	})
	h.Log.Info("quiz deleted", zap.String("quiz_id", id.Hex()))
	apiresp.NoContent(w)
}
