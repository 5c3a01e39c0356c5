// internal/app/features/problems/submissions.go
package problems

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/placementhub/internal/app/features/shared"
	"github.com/dalemusser/placementhub/internal/app/system/apiresp"
	"github.com/dalemusser/placementhub/internal/app/system/auth"
	"github.com/dalemusser/placementhub/internal/app/system/coderunner"
	"github.com/dalemusser/placementhub/internal/app/system/timeouts"
	"github.com/dalemusser/placementhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.uber.org/zap"
)

// runTimeout bounds a whole judge request: queueing, compile and every case.
const runTimeout = 2 * time.Minute

func checkCode(language, code string) string {
	switch {
	case strings.TrimSpace(language) == "":
		return "language is required"
	case strings.TrimSpace(code) == "":
		return "code is required"
	case len(code) > coderunner.MaxCodeBytes:
		return "code is too large"
	}
	return ""
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /api/run   {language, code, stdin}                                      |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeRun(w http.ResponseWriter, r *http.Request) {
	var req coderunner.RunRequest
	if err := apiresp.Decode(w, r, &req); err != nil {
		apiresp.BadRequest(w, err.Error())
		return
	}
	if msg := checkCode(req.Language, req.Code); msg != "" {
		apiresp.BadRequest(w, msg)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), runTimeout)
	defer cancel()

	res, err := h.Runner.Run(ctx, req)
	if err != nil {
		h.writeRunnerError(w, r, err)
		return
	}
	apiresp.OK(w, res)
}

// GET /api/run/languages
func (h *Handler) ServeLanguages(w http.ResponseWriter, r *http.Request) {
	langs := h.Runner.Languages()
	out := make([]coderunner.Language, 0, len(langs))
	for _, id := range coderunner.SortedIDs(langs) {
		out = append(out, langs[id])
	}
	apiresp.OK(w, map[string]any{"languages": out})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /api/problems/{id}/submit   {language, code}                            |
| Samples run first, then hidden tests; judging stops at the first failure.    |
*─────────────────────────────────────────────────────────────────────────────*/

type submitRequest struct {
	Language string `json:"language"`
	Code     string `json:"code"`
}

func (h *Handler) ServeSubmit(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	var req submitRequest
	if err := apiresp.Decode(w, r, &req); err != nil {
		apiresp.BadRequest(w, err.Error())
		return
	}
	if msg := checkCode(req.Language, req.Code); msg != "" {
		apiresp.BadRequest(w, msg)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), runTimeout)
	defer cancel()

	p, ok := h.problem(ctx, w, r)
	if !ok {
		return
	}
	cases := append(append([]models.TestCase{}, p.Samples...), p.Tests...)
	v, err := h.Runner.Judge(ctx, req.Language, req.Code, cases)
	if err != nil {
		h.writeRunnerError(w, r, err)
		return
	}

	saveCtx, saveCancel := context.WithTimeout(context.WithoutCancel(ctx), timeouts.Short())
	defer saveCancel()
	sub, err := h.Submissions.Create(saveCtx, models.Submission{
		ProblemID: p.ID,
		StudentID: u.ObjectID(),
		Language:  strings.ToLower(strings.TrimSpace(req.Language)),
		Code:      req.Code,
		Verdict:   v.Verdict,
		Passed:    v.Passed,
		Total:     v.Total,
		Detail:    v.Detail,
	})
	if !h.writeStoreError(w, r, err) {
		return
	}
	h.Log.Info("submission judged",
		zap.String("problem", p.Slug),
		zap.String("student_id", u.ID),
		zap.String("verdict", v.Verdict),
		zap.Int("passed", v.Passed),
		zap.Int("total", v.Total))
	apiresp.Created(w, sub)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /api/me/submissions?problem_id=                                          |
| GET /api/problems/{id}/submissions                                           |
*─────────────────────────────────────────────────────────────────────────────*/

const submissionLimit = 100

func (h *Handler) ServeMySubmissions(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	problemID, ok := shared.ParseObjectID(query.Get(r, "problem_id"))
	if !ok {
		apiresp.BadRequest(w, "invalid problem_id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	subs, err := h.Submissions.ListByStudent(ctx, u.ObjectID(), problemID, submissionLimit)
	if !h.writeStoreError(w, r, err) {
		return
	}
	apiresp.OK(w, map[string]any{"items": subs})
}

func (h *Handler) ServeProblemSubmissions(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.ObjectIDParam(r, "id")
	if !ok {
		apiresp.BadRequest(w, "invalid problem id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if _, err := h.Problems.GetByID(ctx, id); !h.writeStoreError(w, r, err) {
		return
	}
	subs, err := h.Submissions.ListByProblem(ctx, id, submissionLimit)
	if !h.writeStoreError(w, r, err) {
		return
	}
	apiresp.OK(w, map[string]any{"items": subs})
}

