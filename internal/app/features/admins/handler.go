// internal/app/features/admins/handler.go
package admins

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/placementhub/internal/app/features/shared"
	adminstore "github.com/dalemusser/placementhub/internal/app/store/admins"
	"github.com/dalemusser/placementhub/internal/app/store/audit"
	"github.com/dalemusser/placementhub/internal/app/system/apiresp"
	"github.com/dalemusser/placementhub/internal/app/system/auditlog"
	"github.com/dalemusser/placementhub/internal/app/system/auth"
	"github.com/dalemusser/placementhub/internal/app/system/authutil"
	"github.com/dalemusser/placementhub/internal/app/system/normalize"
	"github.com/dalemusser/placementhub/internal/app/system/timeouts"
	"github.com/dalemusser/placementhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler manages placement-cell admin accounts. Every route is superadmin only.
type Handler struct {
	DB       *mongo.Database
	Log      *zap.Logger
	Admins   *adminstore.Store
	AuditLog *auditlog.Logger
}

func NewHandler(db *mongo.Database, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{DB: db, Log: logger, Admins: adminstore.New(db), AuditLog: audit}
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /api/admins                                                              |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	rows, err := h.Admins.List(ctx)
	if err != nil {
		h.Log.Error("list admins failed", zap.Error(err), zap.String("path", r.URL.Path))
		apiresp.Internal(w)
		return
	}
	apiresp.OK(w, map[string]any{"items": rows})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /api/admins                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

type createRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	SuperAdmin bool   `json:"super_admin"`
}

func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.CurrentUser(r)

	var req createRequest
	if err := apiresp.Decode(w, r, &req); err != nil {
		apiresp.BadRequest(w, err.Error())
		return
	}
	if normalize.Name(req.Name) == "" {
		apiresp.BadRequest(w, "name is required")
		return
	}
	if !normalize.ValidEmail(req.Email) {
		apiresp.BadRequest(w, "a valid email is required")
		return
	}
	hash, err := authutil.HashPassword(req.Password)
	if err != nil {
		apiresp.BadRequest(w, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	a, err := h.Admins.Create(ctx, models.Admin{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		SuperAdmin:   req.SuperAdmin,
	})
	if !h.writeStoreError(w, r, err) {
		return
	}
	h.AuditLog.AdminAction(ctx, r, actor.ObjectID(), audit.EventAdminCreated, &a.ID, map[string]string{"email": a.Email})
	apiresp.Created(w, a)
}

/*─────────────────────────────────────────────────────────────────────────────*
| PUT /api/admins/{id}                                                         |
*─────────────────────────────────────────────────────────────────────────────*/

type updateRequest struct {
	Name       *string `json:"name"`
	Email      *string `json:"email"`
	SuperAdmin *bool   `json:"super_admin"`
	Status     *string `json:"status"`
	Password   *string `json:"password"`
}

func (h *Handler) ServeUpdate(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.CurrentUser(r)
	id, ok := shared.ObjectIDParam(r, "id")
	if !ok {
		apiresp.BadRequest(w, "invalid admin id")
		return
	}

	var req updateRequest
	if err := apiresp.Decode(w, r, &req); err != nil {
		apiresp.BadRequest(w, err.Error())
		return
	}
	if req.Email != nil && !normalize.ValidEmail(*req.Email) {
		apiresp.BadRequest(w, "a valid email is required")
		return
	}
	patch := adminstore.Patch{Name: req.Name, Email: req.Email, SuperAdmin: req.SuperAdmin, Status: req.Status}
	if req.Status != nil && *req.Status != "active" && *req.Status != "disabled" {
		apiresp.BadRequest(w, "status must be active or disabled")
		return
	}
	if req.Password != nil {
		hash, err := authutil.HashPassword(*req.Password)
		if err != nil {
			apiresp.BadRequest(w, err.Error())
			return
		}
		patch.PasswordHash = &hash
	}

	demotes := (req.SuperAdmin != nil && !*req.SuperAdmin) || (req.Status != nil && *req.Status == "disabled")
	if demotes && id == actor.ObjectID() {
		apiresp.BadRequest(w, "you cannot demote or disable your own account")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if demotes {
		if ok := h.keepsASuperAdmin(ctx, w, r, id); !ok {
			return
		}
	}

	a, err := h.Admins.Update(ctx, id, patch)
	if !h.writeStoreError(w, r, err) {
		return
	}
	h.AuditLog.AdminAction(ctx, r, actor.ObjectID(), audit.EventAdminUpdated, &id, map[string]string{"email": a.Email})
	apiresp.OK(w, a)
}

/*─────────────────────────────────────────────────────────────────────────────*
| DELETE /api/admins/{id}                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeDelete(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.CurrentUser(r)
	id, ok := shared.ObjectIDParam(r, "id")
	if !ok {
		apiresp.BadRequest(w, "invalid admin id")
		return
	}
	if id == actor.ObjectID() {
		apiresp.BadRequest(w, "you cannot delete your own account")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if ok := h.keepsASuperAdmin(ctx, w, r, id); !ok {
		return
	}
	n, err := h.Admins.Delete(ctx, id)
	if err != nil {
		h.Log.Error("delete admin failed", zap.Error(err), zap.String("path", r.URL.Path))
		apiresp.Internal(w)
		return
	}
	if n == 0 {
		apiresp.NotFound(w, "admin not found")
		return
	}
	h.AuditLog.AdminAction(ctx, r, actor.ObjectID(), audit.EventAdminDeleted, &id, nil)
	apiresp.NoContent(w)
}

// keepsASuperAdmin rejects removing the last active superadmin.
func (h *Handler) keepsASuperAdmin(ctx context.Context, w http.ResponseWriter, r *http.Request, id primitive.ObjectID) bool {
	target, err := h.Admins.GetByID(ctx, id)
	if !h.writeStoreError(w, r, err) {
		return false
	}
	if !target.SuperAdmin || target.Status != "active" {
		return true
	}
	n, err := h.Admins.CountSuperAdmins(ctx)
	if err != nil {
		h.Log.Error("count superadmins failed", zap.Error(err), zap.String("path", r.URL.Path))
		apiresp.Internal(w)
		return false
	}
	if n <= 1 {
		apiresp.Conflict(w, "at least one active superadmin is required")
		return false
	}
	return true
}

func (h *Handler) writeStoreError(w http.ResponseWriter, r *http.Request, err error) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, adminstore.ErrNotFound):
		apiresp.NotFound(w, "admin not found")
	case errors.Is(err, adminstore.ErrDuplicateEmail):
		apiresp.Conflict(w, err.Error())
	default:
		h.Log.Error("admin store error", zap.Error(err), zap.String("path", r.URL.Path))
		apiresp.Internal(w)
	}
	return false
}
