// internal/app/features/quizzes/attempts.go
package quizzes

import (
	"context"
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/dalemusser/placementhub/internal/app/features/shared"
	attemptstore "github.com/dalemusser/placementhub/internal/app/store/attempts"
	"github.com/dalemusser/placementhub/internal/app/system/apiresp"
	"github.com/dalemusser/placementhub/internal/app/system/auth"
	"github.com/dalemusser/placementhub/internal/app/system/timeouts"
	"github.com/dalemusser/placementhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// percentage is score/total as a percentage rounded to two decimals.
func percentage(score, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(score)/float64(total)*10000) / 100
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /api/quizzes/{id}/start                                                 |
| 201 with a new attempt, 200 with the open one, 409 once submitted.           |
*─────────────────────────────────────────────────────────────────────────────*/

type startResponse struct {
	Attempt   models.Attempt `json:"attempt"`
	Quiz      models.Quiz    `json:"quiz"`
	ExpiresAt time.Time      `json:"expires_at"`
}

func (h *Handler) ServeStart(w http.ResponseWriter, r *http.Request) {
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

	respond := func(status int, a models.Attempt) {
		apiresp.JSON(w, status, startResponse{
			Attempt:   a,
			Quiz:      q.ForStudent(),
			ExpiresAt: a.StartedAt.Add(time.Duration(q.DurationMinutes) * time.Minute),
		})
	}

	existing, err := h.Attempts.GetByQuizStudent(ctx, q.ID, u.ObjectID())
	switch {
	case err == nil && existing.Submitted():
		apiresp.Conflict(w, "quiz already submitted")
		return
	case err == nil:
		respond(http.StatusOK, existing)
		return
	case !errors.Is(err, attemptstore.ErrNotFound):
		h.writeStoreError(w, r, err)
		return
	}

	if !q.OpenAt(time.Now().UTC()) {
		apiresp.Forbidden(w, "quiz is not open")
		return
	}

	a, err := h.Attempts.Start(ctx, q.ID, u.ObjectID(), len(q.Questions))
	if errors.Is(err, attemptstore.ErrAlreadyAttempted) {
		// Lost a race with a concurrent start; hand back the winner.
		if a, err = h.Attempts.GetByQuizStudent(ctx, q.ID, u.ObjectID()); err == nil && !a.Submitted() {
			respond(http.StatusOK, a)
			return
		}
		apiresp.Conflict(w, "quiz already submitted")
		return
	}
	if !h.writeStoreError(w, r, err) {
		return
	}
	h.Log.Info("quiz attempt started", zap.String("quiz_id", q.ID.Hex()), zap.String("student_id", u.ID))
	respond(http.StatusCreated, a)
}

// ownAttempt loads an attempt that must belong to the signed-in student.
func (h *Handler) ownAttempt(ctx context.Context, w http.ResponseWriter, r *http.Request, u *auth.SessionUser) (models.Attempt, bool) {
	id, ok := shared.ObjectIDParam(r, "id")
	if !ok {
		apiresp.BadRequest(w, "invalid attempt id")
		return models.Attempt{}, false
	}
	a, err := h.Attempts.GetByID(ctx, id)
	if !h.writeStoreError(w, r, err) {
		return models.Attempt{}, false
	}
	if a.StudentID != u.ObjectID() {
		apiresp.NotFound(w, "attempt not found")
		return models.Attempt{}, false
	}
	return a, true
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /api/attempts/{id}/submit   {answers: [int]}                            |
*─────────────────────────────────────────────────────────────────────────────*/

type submitRequest struct {
	Answers []int `json:"answers"`
}

func (h *Handler) ServeSubmit(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	var req submitRequest
	if err := apiresp.Decode(w, r, &req); err != nil {
		apiresp.BadRequest(w, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	a, ok := h.ownAttempt(ctx, w, r, u)
	if !ok {
		return
	}
	if a.Submitted() {
		apiresp.Conflict(w, attemptstore.ErrAlreadySubmitted.Error())
		return
	}
	q, err := h.Quizzes.GetByID(ctx, a.QuizID)
	if !h.writeStoreError(w, r, err) {
		return
	}

	if len(req.Answers) > len(q.Questions) {
		req.Answers = req.Answers[:len(q.Questions)]
	}
	now := time.Now().UTC()
	score, total := q.Grade(req.Answers)
	out, err := h.Attempts.Submit(ctx, a.ID, attemptstore.Result{
		Answers:     req.Answers,
		Score:       score,
		Total:       total,
		Percentage:  percentage(score, total),
		Late:        q.IsLate(a.StartedAt, now),
		SubmittedAt: now,
	})
	if !h.writeStoreError(w, r, err) {
		return
	}
	h.Log.Info("quiz attempt submitted",
		zap.String("attempt_id", out.ID.Hex()),
		zap.Int("score", out.Score),
		zap.Bool("late", out.Late))
	apiresp.OK(w, out)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /api/attempts/{id}                                                       |
| GET /api/me/attempts                                                         |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeGetAttempt(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if u.IsAdmin() {
		id, ok := shared.ObjectIDParam(r, "id")
		if !ok {
			apiresp.BadRequest(w, "invalid attempt id")
			return
		}
		a, err := h.Attempts.GetByID(ctx, id)
		if !h.writeStoreError(w, r, err) {
			return
		}
		apiresp.OK(w, a)
		return
	}

	a, ok := h.ownAttempt(ctx, w, r, u)
	if !ok {
		return
	}
	apiresp.OK(w, a)
}

type myAttempt struct {
	models.Attempt
	QuizTitle string `json:"quiz_title"`
	Topic     string `json:"topic,omitempty"`
}

func (h *Handler) ServeMyAttempts(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	attempts, err := h.Attempts.ListByStudent(ctx, u.ObjectID())
	if !h.writeStoreError(w, r, err) {
		return
	}
	ids := make([]primitive.ObjectID, 0, len(attempts))
	for _, a := range attempts {
		ids = append(ids, a.QuizID)
	}
	byID, err := h.Quizzes.GetByIDs(ctx, ids)
	if !h.writeStoreError(w, r, err) {
		return
	}

	out := make([]myAttempt, 0, len(attempts))
	for _, a := range attempts {
		q := byID[a.QuizID]
		out = append(out, myAttempt{Attempt: a, QuizTitle: q.Title, Topic: q.Topic})
	}
	apiresp.OK(w, map[string]any{"items": out})
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /api/quizzes/{id}/results                                                |
*─────────────────────────────────────────────────────────────────────────────*/

type leaderboardRow struct {
	Rank         int     `json:"rank"`
	AttemptID    string  `json:"attempt_id"`
	StudentID    string  `json:"student_id"`
	Name         string  `json:"name"`
	RollNo       string  `json:"roll_no"`
	Branch       string  `json:"branch"`
	Score        int     `json:"score"`
	Total        int     `json:"total"`
	Percentage   float64 `json:"percentage"`
	TakenSeconds int64   `json:"taken_seconds"`
	Late         bool    `json:"late"`
	Flagged      bool    `json:"flagged"`
	ProctorFlags int     `json:"proctor_flags"`
}

func (h *Handler) ServeResults(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.ObjectIDParam(r, "id")
	if !ok {
		apiresp.BadRequest(w, "invalid quiz id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	q, err := h.Quizzes.GetByID(ctx, id)
	if !h.writeStoreError(w, r, err) {
		return
	}
	attempts, err := h.Attempts.Leaderboard(ctx, q.ID)
	if !h.writeStoreError(w, r, err) {
		return
	}
	ids := make([]primitive.ObjectID, 0, len(attempts))
	for _, a := range attempts {
		ids = append(ids, a.StudentID)
	}
	students, err := h.Students.GetByIDs(ctx, ids)
	if !h.writeStoreError(w, r, err) {
		return
	}

	rows := make([]leaderboardRow, 0, len(attempts))
	for i, a := range attempts {
		st := students[a.StudentID]
		row := leaderboardRow{
			Rank:         i + 1,
			AttemptID:    a.ID.Hex(),
			StudentID:    a.StudentID.Hex(),
			Name:         st.Name,
			RollNo:       st.RollNo,
			Branch:       st.Branch,
			Score:        a.Score,
			Total:        a.Total,
			Percentage:   a.Percentage,
			Late:         a.Late,
			Flagged:      a.Flagged,
			ProctorFlags: len(a.ProctorLog),
		}
		if a.SubmittedAt != nil {
			row.TakenSeconds = int64(a.SubmittedAt.Sub(a.StartedAt).Seconds())
		}
		rows = append(rows, row)
	}
	apiresp.OK(w, map[string]any{
		"quiz":    map[string]any{"id": q.ID, "title": q.Title, "questions": len(q.Questions)},
		"results": rows,
	})
}
