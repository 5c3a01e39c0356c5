// internal/app/features/students/admin.go
package students

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/dalemusser/placementhub/internal/app/features/shared"
	"github.com/dalemusser/placementhub/internal/app/store/audit"
	studentstore "github.com/dalemusser/placementhub/internal/app/store/students"
	"github.com/dalemusser/placementhub/internal/app/system/apiresp"
	"github.com/dalemusser/placementhub/internal/app/system/auth"
	"github.com/dalemusser/placementhub/internal/app/system/paging"
	"github.com/dalemusser/placementhub/internal/app/system/timeouts"
	"github.com/dalemusser/placementhub/internal/app/system/txn"
	"github.com/dalemusser/placementhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| GET /api/students?q=&branch=&year=&placed=&status=&page=&limit=              |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	p := paging.Parse(r)
	f := studentstore.ListFilter{
		Search: query.Get(r, "q"),
		Branch: query.Get(r, "branch"),
		Placed: shared.ParseBool(query.Get(r, "placed")),
	}
	if y, err := strconv.Atoi(query.Get(r, "year")); err == nil {
		f.Year = y
	}
	switch s := query.Get(r, "status"); s {
	case "", studentstore.StatusActive, studentstore.StatusDisabled:
		f.Status = s
	default:
		apiresp.BadRequest(w, "status must be active or disabled")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	rows, err := h.Students.List(ctx, f, p)
	if err != nil {
		h.Log.Error("list students failed", zap.Error(err), zap.String("path", r.URL.Path))
		apiresp.Internal(w)
		return
	}
	apiresp.OK(w, paging.Trim(rows, p))
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /api/students/{id}                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.ObjectIDParam(r, "id")
	if !ok {
		apiresp.BadRequest(w, "invalid student id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	st, err := h.Students.GetByID(ctx, id)
	if errors.Is(err, studentstore.ErrNotFound) {
		apiresp.NotFound(w, "student not found")
		return
	}
	if err != nil {
		h.Log.Error("get student failed", zap.Error(err), zap.String("path", r.URL.Path))
		apiresp.Internal(w)
		return
	}

	counts, err := h.Applications.CountByStatus(ctx, &id)
	if err != nil {
		h.Log.Error("count applications failed", zap.Error(err), zap.String("path", r.URL.Path))
		apiresp.Internal(w)
		return
	}
	apiresp.OK(w, map[string]any{"student": st, "applications": counts})
}

/*─────────────────────────────────────────────────────────────────────────────*
| PUT /api/students/{id}                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

type updateRequest struct {
	Name   *string  `json:"name"`
	Email  *string  `json:"email"`
	RollNo *string  `json:"roll_no"`
	Branch *string  `json:"branch"`
	Year   *int     `json:"year"`
	CGPA   *float64 `json:"cgpa"`
	Phone  *string  `json:"phone"`
	Skills []string `json:"skills"`
}

func (req updateRequest) patch() (studentstore.Patch, string) {
	if req.Name != nil && *req.Name == "" {
		return studentstore.Patch{}, "name cannot be empty"
	}
	if req.Email != nil && *req.Email == "" {
		return studentstore.Patch{}, "email cannot be empty"
	}
	if msg := validateAcademics(req.Year, req.CGPA); msg != "" {
		return studentstore.Patch{}, msg
	}
	return studentstore.Patch{
		Name:   req.Name,
		Email:  req.Email,
		RollNo: req.RollNo,
		Branch: req.Branch,
		Year:   req.Year,
		CGPA:   req.CGPA,
		Phone:  req.Phone,
		Skills: req.Skills,
	}, ""
}

func validateAcademics(year *int, cgpa *float64) string {
	if year != nil && (*year < 1 || *year > 6) {
		return "year must be between 1 and 6"
	}
	if cgpa != nil && (*cgpa < 0 || *cgpa > 10) {
		return "cgpa must be between 0 and 10"
	}
	return ""
}

func (h *Handler) ServeUpdate(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.CurrentUser(r)
	id, ok := shared.ObjectIDParam(r, "id")
	if !ok {
		apiresp.BadRequest(w, "invalid student id")
		return
	}
	var req updateRequest
	if err := apiresp.Decode(w, r, &req); err != nil {
		apiresp.BadRequest(w, err.Error())
		return
	}
	patch, msg := req.patch()
	if msg != "" {
		apiresp.BadRequest(w, msg)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	st, err := h.Students.Update(ctx, id, patch)
	if !h.writeStoreError(w, r, err) {
		return
	}
	h.AuditLog.AdminAction(ctx, r, actor.ObjectID(), audit.EventStudentUpdated, &id, map[string]string{"name": st.Name})
	apiresp.OK(w, st)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /api/students/{id}/status                                               |
*─────────────────────────────────────────────────────────────────────────────*/

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) ServeSetStatus(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.CurrentUser(r)
	id, ok := shared.ObjectIDParam(r, "id")
	if !ok {
		apiresp.BadRequest(w, "invalid student id")
		return
	}
	var req statusRequest
	if err := apiresp.Decode(w, r, &req); err != nil {
		apiresp.BadRequest(w, err.Error())
		return
	}
	event := audit.EventStudentEnabled
	switch req.Status {
	case studentstore.StatusActive:
	case studentstore.StatusDisabled:
		event = audit.EventStudentDisabled
	default:
		apiresp.BadRequest(w, "status must be active or disabled")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if !h.writeStoreError(w, r, h.Students.SetStatus(ctx, id, req.Status)) {
		return
	}
	h.AuditLog.AdminAction(ctx, r, actor.ObjectID(), event, &id, nil)
	apiresp.OK(w, map[string]string{"id": id.Hex(), "status": req.Status})
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /api/students/{id}/logins                                                |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeLogins(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.ObjectIDParam(r, "id")
	if !ok {
		apiresp.BadRequest(w, "invalid student id")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	rows, err := h.Logins.ListByUser(ctx, id, 50)
	if err != nil {
		h.Log.Error("list logins failed", zap.Error(err), zap.String("path", r.URL.Path))
		apiresp.Internal(w)
		return
	}
	if rows == nil {
		rows = []models.LoginRecord{}
	}
	apiresp.OK(w, map[string]any{"items": rows})
}

/*─────────────────────────────────────────────────────────────────────────────*
| DELETE /api/students/{id}                                                    |
| Removes the student and everything they own.                                 |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeDelete(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.CurrentUser(r)
	id, ok := shared.ObjectIDParam(r, "id")
	if !ok {
		apiresp.BadRequest(w, "invalid student id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	st, err := h.Students.GetByID(ctx, id)
	if !h.writeStoreError(w, r, err) {
		return
	}

	if err := txn.Run(ctx, h.DB, h.Log, func(ctx context.Context) error {
		return h.deleteOwned(ctx, id)
	}); err != nil {
		h.Log.Error("delete student failed", zap.Error(err), zap.String("student_id", id.Hex()))
		apiresp.Internal(w)
		return
	}

	for _, key := range []string{st.ResumeKey, st.ProfileImageKey} {
		if key == "" || h.Files == nil {
			continue
		}
		if err := h.Files.Delete(ctx, key); err != nil {
			h.Log.Warn("delete student file failed", zap.Error(err), zap.String("key", key))
		}
	}

	h.AuditLog.AdminAction(ctx, r, actor.ObjectID(), audit.EventStudentDeleted, &id,
		map[string]string{"name": st.Name, "email": st.Email})
	apiresp.NoContent(w)
}

func (h *Handler) deleteOwned(ctx context.Context, id primitive.ObjectID) error {
	for _, del := range []func(context.Context, primitive.ObjectID) (int64, error){
		h.Applications.DeleteByStudent,
		h.Attempts.DeleteByStudent,
		h.Submissions.DeleteByStudent,
		h.Scans.DeleteByStudent,
		h.Interviews.DeleteByStudent,
		h.Comms.DeleteByStudent,
	} {
		if _, err := del(ctx, id); err != nil {
			return err
		}
	}
	if err := h.Logins.DeleteByUser(ctx, id); err != nil {
		return err
	}
	_, err := h.Students.Delete(ctx, id)
	return err
}

// writeStoreError writes the response for a failed store call and reports
// whether err was nil.
func (h *Handler) writeStoreError(w http.ResponseWriter, r *http.Request, err error) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, studentstore.ErrNotFound):
		apiresp.NotFound(w, "student not found")
	case errors.Is(err, studentstore.ErrDuplicateEmail), errors.Is(err, studentstore.ErrDuplicateRollNo):
		apiresp.Conflict(w, err.Error())
	default:
		h.Log.Error("student store error", zap.Error(err), zap.String("path", r.URL.Path))
		apiresp.Internal(w)
	}
	return false
}
