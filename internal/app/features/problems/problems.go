// internal/app/features/problems/problems.go
package problems

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/placementhub/internal/app/features/shared"
	problemstore "github.com/dalemusser/placementhub/internal/app/store/problems"
	"github.com/dalemusser/placementhub/internal/app/store/audit"
	"github.com/dalemusser/placementhub/internal/app/system/apiresp"
	"github.com/dalemusser/placementhub/internal/app/system/auth"
	"github.com/dalemusser/placementhub/internal/app/system/paging"
	"github.com/dalemusser/placementhub/internal/app/system/timeouts"
	"github.com/dalemusser/placementhub/internal/app/system/txn"
	"github.com/dalemusser/placementhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
)

/*─────────────────────────────────────────────────────────────────────────────*
| GET /api/problems?difficulty=&tag=&page=&limit=                              |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	difficulty := strings.ToLower(query.Get(r, "difficulty"))
	if difficulty != "" && !models.ValidDifficulty(difficulty) {
		apiresp.BadRequest(w, "difficulty must be easy, medium or hard")
		return
	}
	p := paging.Parse(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	rows, err := h.Problems.List(ctx, problemstore.ListFilter{
		Difficulty: difficulty,
		Tag:        query.Get(r, "tag"),
	}, p)
	if !h.writeStoreError(w, r, err) {
		return
	}
	apiresp.OK(w, paging.Trim(rows, p))
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /api/problems/{id}                                                       |
| Hidden tests are only returned to admins.                                    |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, ok := h.problem(ctx, w, r)
	if !ok {
		return
	}
	if !u.IsAdmin() {
		p.Tests = nil
	}
	apiresp.OK(w, p)
}

// problem loads the problem named by {id}, which may be an ObjectID or a slug.
func (h *Handler) problem(ctx context.Context, w http.ResponseWriter, r *http.Request) (models.Problem, bool) {
	var (
		p   models.Problem
		err error
	)
	if id, ok := shared.ObjectIDParam(r, "id"); ok {
		p, err = h.Problems.GetByID(ctx, id)
	} else {
		p, err = h.Problems.GetBySlug(ctx, chi.URLParam(r, "id"))
	}
	if !h.writeStoreError(w, r, err) {
		return models.Problem{}, false
	}
	return p, true
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /api/problems                                                           |
| PUT  /api/problems/{id}                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

type problemRequest struct {
	Title      string            `json:"title"`
	Slug       string            `json:"slug"`
	Difficulty string            `json:"difficulty"`
	Statement  string            `json:"statement"`
	Tags       []string          `json:"tags"`
	Samples    []models.TestCase `json:"samples"`
	Tests      []models.TestCase `json:"tests"`
}

func (req problemRequest) toModel() (models.Problem, string) {
	p := models.Problem{
		Title:      strings.TrimSpace(req.Title),
		Slug:       req.Slug,
		Difficulty: strings.ToLower(strings.TrimSpace(req.Difficulty)),
		Statement:  strings.TrimSpace(req.Statement),
		Tags:       req.Tags,
		Samples:    req.Samples,
		Tests:      req.Tests,
	}
	if p.Difficulty == "" {
		p.Difficulty = models.DifficultyEasy
	}
	switch {
	case p.Title == "":
		return p, "title is required"
	case p.Statement == "":
		return p, "statement is required"
	case !models.ValidDifficulty(p.Difficulty):
		return p, "difficulty must be easy, medium or hard"
	case len(p.Samples)+len(p.Tests) == 0:
		return p, "at least one sample or test case is required"
	}
	return p, ""
}

func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.CurrentUser(r)

	var req problemRequest
	if err := apiresp.Decode(w, r, &req); err != nil {
		apiresp.BadRequest(w, err.Error())
		return
	}
	p, msg := req.toModel()
	if msg != "" {
		apiresp.BadRequest(w, msg)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	created, err := h.Problems.Create(ctx, p)
	if !h.writeStoreError(w, r, err) {
		return
	}
	h.AuditLog.AdminAction(ctx, r, actor.ObjectID(), audit.EventProblemCreated, nil, map[string]string{
		"problem_id": created.ID.Hex(),
		"slug":       created.Slug,
	})
	apiresp.Created(w, created)
}

func (h *Handler) ServeUpdate(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.CurrentUser(r)
	id, ok := shared.ObjectIDParam(r, "id")
	if !ok {
		apiresp.BadRequest(w, "invalid problem id")
		return
	}

	var req problemRequest
	if err := apiresp.Decode(w, r, &req); err != nil {
		apiresp.BadRequest(w, err.Error())
		return
	}
	p, msg := req.toModel()
	if msg != "" {
		apiresp.BadRequest(w, msg)
		return
	}
	p.ID = id

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	updated, err := h.Problems.Replace(ctx, p)
	if !h.writeStoreError(w, r, err) {
		return
	}
	h.AuditLog.AdminAction(ctx, r, actor.ObjectID(), audit.EventProblemUpdated, nil, map[string]string{
		"problem_id": id.Hex(),
	})
	apiresp.OK(w, updated)
}

func (h *Handler) ServeDelete(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.CurrentUser(r)
	id, ok := shared.ObjectIDParam(r, "id")
	if !ok {
		apiresp.BadRequest(w, "invalid problem id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	var removed int64
	err := txn.Run(ctx, h.DB, h.Log, func(ctx context.Context) error {
		if _, err := h.Submissions.DeleteByProblem(ctx, id); err != nil {
			return err
		}
		n, err := h.Problems.Delete(ctx, id)
		removed = n
		return err
	})
	if !h.writeStoreError(w, r, err) {
		return
	}
	if removed == 0 {
		apiresp.NotFound(w, "problem not found")
		return
	}
	h.AuditLog.AdminAction(ctx, r, actor.ObjectID(), audit.EventProblemDeleted, nil, map[string]string{
		"problem_id": id.Hex(),
	})
	apiresp.NoContent(w)
}
