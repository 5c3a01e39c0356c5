// internal/app/features/interview/sessions.go
package interview

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/placementhub/internal/app/features/shared"
	"github.com/dalemusser/placementhub/internal/app/system/apiresp"
	"github.com/dalemusser/placementhub/internal/app/system/auth"
	"github.com/dalemusser/placementhub/internal/app/system/llm"
	"github.com/dalemusser/placementhub/internal/app/system/timeouts"
	"github.com/dalemusser/placementhub/internal/domain/models"
	"go.uber.org/zap"
)

const (
	minQuestions     = 3
	maxQuestions     = 10
	defaultQuestions = 5
	maxAnswerChars   = 5000
)

var levels = map[string]bool{"fresher": true, "junior": true, "mid": true, "senior": true}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /api/interview/sessions   {role, level, count}                          |
*─────────────────────────────────────────────────────────────────────────────*/

type createRequest struct {
	Role  string `json:"role"`
	Level string `json:"level"`
	Count int    `json:"count"`
}

func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	var req createRequest
	if err := apiresp.Decode(w, r, &req); err != nil {
		apiresp.BadRequest(w, err.Error())
		return
	}
	req.Role = strings.TrimSpace(req.Role)
	req.Level = strings.ToLower(strings.TrimSpace(req.Level))
	if req.Level == "" {
		req.Level = "fresher"
	}
	if req.Count == 0 {
		req.Count = defaultQuestions
	}
	switch {
	case req.Role == "":
		apiresp.BadRequest(w, "role is required")
		return
	case len(req.Role) > 120:
		apiresp.BadRequest(w, "role must be 120 characters or fewer")
		return
	case !levels[req.Level]:
		apiresp.BadRequest(w, "level must be fresher, junior, mid or senior")
		return
	case req.Count < minQuestions || req.Count > maxQuestions:
		apiresp.BadRequest(w, "count must be between 3 and 10")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.AI())
	defer cancel()

	st, err := h.Students.GetByID(ctx, u.ObjectID())
	if err != nil {
		h.Log.Error("load student", zap.Error(err), zap.String("path", r.URL.Path))
		apiresp.Internal(w)
		return
	}

	questions, err := h.generate(ctx, req, st.Skills)
	if err != nil {
		shared.WriteLLMError(w, r, h.Log, err)
		return
	}

	qs := make([]models.InterviewQuestion, len(questions))
	for i, q := range questions {
		qs[i] = models.InterviewQuestion{Question: q}
	}
	sess, err := h.Sessions.Create(ctx, models.InterviewSession{
		StudentID: st.ID,
		Role:      req.Role,
		Level:     req.Level,
		Questions: qs,
	})
	if !h.writeStoreError(w, r, err) {
		return
	}
	apiresp.Created(w, sess)
}

var errNoQuestions = errors.New("interview: model returned no questions")

func (h *Handler) generate(ctx context.Context, req createRequest, skills []string) ([]string, error) {
	prompt, err := llm.Render(llm.PromptInterviewQuestions, map[string]any{
		"Count":  req.Count,
		"Level":  req.Level,
		"Role":   req.Role,
		"Skills": skills,
	})
	if err != nil {
		return nil, err
	}
	raw, err := h.LLM.Complete(ctx, llm.Request{System: llm.SystemJSON, Prompt: prompt, Temperature: 0.7, JSON: true})
	if err != nil {
		return nil, err
	}
	out, err := llm.DecodeJSON[struct {
		Questions []string `json:"questions"`
	}](raw)
	if err != nil {
		return nil, err
	}

	qs := make([]string, 0, req.Count)
	for _, q := range out.Questions {
		if q = strings.TrimSpace(q); q != "" {
			qs = append(qs, q)
		}
		if len(qs) == req.Count {
			break
		}
	}
	if len(qs) == 0 {
		return nil, errNoQuestions
	}
	return qs, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /api/interview/sessions/{id}/answers   {index, answer}                  |
*─────────────────────────────────────────────────────────────────────────────*/

type answerRequest struct {
	Index  int    `json:"index"`
	Answer string `json:"answer"`
}

func (h *Handler) ServeAnswer(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	id, ok := shared.ObjectIDParam(r, "id")
	if !ok {
		apiresp.BadRequest(w, "invalid session id")
		return
	}

	var req answerRequest
	if err := apiresp.Decode(w, r, &req); err != nil {
		apiresp.BadRequest(w, err.Error())
		return
	}
	req.Answer = strings.TrimSpace(req.Answer)
	switch {
	case req.Answer == "":
		apiresp.BadRequest(w, "answer is required")
		return
	case len([]rune(req.Answer)) > maxAnswerChars:
		apiresp.BadRequest(w, "answer is too long")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.AI())
	defer cancel()

	sess, err := h.Sessions.GetOwned(ctx, id, u.ObjectID())
	if !h.writeStoreError(w, r, err) {
		return
	}
	if sess.Finished {
		apiresp.Conflict(w, "interview session already finished")
		return
	}
	if req.Index < 0 || req.Index >= len(sess.Questions) {
		apiresp.BadRequest(w, "index is out of range")
		return
	}

	fb, err := h.evaluate(ctx, sess, sess.Questions[req.Index].Question, req.Answer)
	if err != nil {
		shared.WriteLLMError(w, r, h.Log, err)
		return
	}
	updated, err := h.Sessions.SaveAnswer(ctx, sess.ID, req.Index, req.Answer, fb)
	if !h.writeStoreError(w, r, err) {
		return
	}
	apiresp.OK(w, map[string]any{
		"index":    req.Index,
		"feedback": fb,
		"session":  updated,
	})
}

func (h *Handler) evaluate(ctx context.Context, sess models.InterviewSession, question, answer string) (models.AnswerFeedback, error) {
	prompt, err := llm.Render(llm.PromptInterviewFeedback, map[string]any{
		"Level":    sess.Level,
		"Role":     sess.Role,
		"Question": question,
		"Answer":   answer,
	})
	if err != nil {
		return models.AnswerFeedback{}, err
	}
	raw, err := h.LLM.Complete(ctx, llm.Request{System: llm.SystemJSON, Prompt: prompt, Temperature: 0.3, JSON: true})
	if err != nil {
		return models.AnswerFeedback{}, err
	}
	fb, err := llm.DecodeJSON[models.AnswerFeedback](raw)
	if err != nil {
		return models.AnswerFeedback{}, err
	}
	fb.Score = shared.Clamp(fb.Score, 0, 10)
	if fb.Strengths == nil {
		fb.Strengths = []string{}
	}
	if fb.Improvements == nil {
		fb.Improvements = []string{}
	}
	fb.IdealAnswer = strings.TrimSpace(fb.IdealAnswer)
	return fb, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /api/interview/sessions/{id}/finish                                     |
| The overall score is the mean of the answered questions' scores.             |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeFinish(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	id, ok := shared.ObjectIDParam(r, "id")
	if !ok {
		apiresp.BadRequest(w, "invalid session id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	sess, err := h.Sessions.GetOwned(ctx, id, u.ObjectID())
	if !h.writeStoreError(w, r, err) {
		return
	}
	out, err := h.Sessions.Finish(ctx, sess.ID)
	if !h.writeStoreError(w, r, err) {
		return
	}
	apiresp.OK(w, out)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /api/interview/sessions                                                  |
| GET /api/interview/sessions/{id}                                             |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	items, err := h.Sessions.ListByStudent(ctx, u.ObjectID())
	if !h.writeStoreError(w, r, err) {
		return
	}
	apiresp.OK(w, map[string]any{"items": items})
}

func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	id, ok := shared.ObjectIDParam(r, "id")
	if !ok {
		apiresp.BadRequest(w, "invalid session id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	sess, err := h.Sessions.GetOwned(ctx, id, u.ObjectID())
	if !h.writeStoreError(w, r, err) {
		return
	}
	apiresp.OK(w, sess)
}
