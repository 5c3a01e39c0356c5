// internal/app/features/announcements/announcements.go
package announcements

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/placementhub/internal/app/features/shared"
	"github.com/dalemusser/placementhub/internal/app/store/audit"
	"github.com/dalemusser/placementhub/internal/app/system/apiresp"
	"github.com/dalemusser/placementhub/internal/app/system/auth"
	"github.com/dalemusser/placementhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/placementhub/internal/app/system/timeouts"
	"github.com/dalemusser/placementhub/internal/domain/models"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| GET /api/announcements                                                       |
| Students see active items inside their window; admins see everything.       |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	var visibleAt *time.Time
	if !u.IsAdmin() {
		now := time.Now().UTC()
		visibleAt = &now
	}
	items, err := h.Store.List(ctx, visibleAt)
	if !h.writeStoreError(w, r, err) {
		return
	}
	apiresp.OK(w, map[string]any{"items": items})
}

func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	id, ok := shared.ObjectIDParam(r, "id")
	if !ok {
		apiresp.BadRequest(w, "invalid announcement id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	a, err := h.Store.GetByID(ctx, id)
	if !h.writeStoreError(w, r, err) {
		return
	}
	if !u.IsAdmin() && !a.VisibleAt(time.Now().UTC()) {
		apiresp.NotFound(w, "announcement not found")
		return
	}
	apiresp.OK(w, a)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /api/announcements                                                      |
| PUT  /api/announcements/{id}                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

type announcementRequest struct {
	Title    string     `json:"title"`
	Content  string     `json:"content"`
	Type     string     `json:"type"`
	Pinned   bool       `json:"pinned"`
	Active   *bool      `json:"active"`
	StartsAt *time.Time `json:"starts_at"`
	EndsAt   *time.Time `json:"ends_at"`
}

// toModel validates the request and returns the announcement it describes.
func (req announcementRequest) toModel() (models.Announcement, string) {
	a := models.Announcement{
		Title:    strings.TrimSpace(req.Title),
		Content:  htmlsanitize.Sanitize(req.Content),
		Type:     models.AnnouncementType(strings.ToLower(strings.TrimSpace(req.Type))),
		Pinned:   req.Pinned,
		Active:   true,
		StartsAt: req.StartsAt,
		EndsAt:   req.EndsAt,
	}
	if req.Active != nil {
		a.Active = *req.Active
	}
	if a.Type == "" {
		a.Type = models.AnnouncementInfo
	}

	switch {
	case a.Title == "":
		return a, "title is required"
	case len(a.Title) > 200:
		return a, "title must be 200 characters or fewer"
	case htmlsanitize.PlainText(a.Content) == "":
		return a, "content is required"
	case !a.Type.Valid():
		return a, "type must be info, warning, drive or result"
	case a.StartsAt != nil && a.EndsAt != nil && !a.EndsAt.After(*a.StartsAt):
		return a, "ends_at must be after starts_at"
	}
	return a, ""
}

func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.CurrentUser(r)

	var req announcementRequest
	if err := apiresp.Decode(w, r, &req); err != nil {
		apiresp.BadRequest(w, err.Error())
		return
	}
	a, msg := req.toModel()
	if msg != "" {
		apiresp.BadRequest(w, msg)
		return
	}
	a.CreatedBy = actor.ObjectID()

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	created, err := h.Store.Create(ctx, a)
	if !h.writeStoreError(w, r, err) {
		return
	}
	h.AuditLog.AdminAction(ctx, r, actor.ObjectID(), audit.EventAnnouncementCreated, nil, map[string]string{
		"announcement_id": created.ID.Hex(),
		"title":           created.Title,
	})
	apiresp.Created(w, created)
}

func (h *Handler) ServeUpdate(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.CurrentUser(r)
	id, ok := shared.ObjectIDParam(r, "id")
	if !ok {
		apiresp.BadRequest(w, "invalid announcement id")
		return
	}

	var req announcementRequest
	if err := apiresp.Decode(w, r, &req); err != nil {
		apiresp.BadRequest(w, err.Error())
		return
	}
	a, msg := req.toModel()
	if msg != "" {
		apiresp.BadRequest(w, msg)
		return
	}
	a.ID = id

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	updated, err := h.Store.Replace(ctx, a)
	if !h.writeStoreError(w, r, err) {
		return
	}
	h.AuditLog.AdminAction(ctx, r, actor.ObjectID(), audit.EventAnnouncementUpdated, nil, map[string]string{
		"announcement_id": id.Hex(),
	})
	apiresp.OK(w, updated)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST   /api/announcements/{id}/toggle                                        |
| DELETE /api/announcements/{id}                                               |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeToggle(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.ObjectIDParam(r, "id")
	if !ok {
		apiresp.BadRequest(w, "invalid announcement id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	a, err := h.Store.Toggle(ctx, id)
	if !h.writeStoreError(w, r, err) {
		return
	}
	h.Log.Info("announcement toggled", zap.String("id", id.Hex()), zap.Bool("active", a.Active))
	apiresp.OK(w, a)
}

func (h *Handler) ServeDelete(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.CurrentUser(r)
	id, ok := shared.ObjectIDParam(r, "id")
	if !ok {
		apiresp.BadRequest(w, "invalid announcement id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	n, err := h.Store.Delete(ctx, id)
	if !h.writeStoreError(w, r, err) {
		return
	}
	if n == 0 {
		apiresp.NotFound(w, "announcement not found")
		return
	}
	h.AuditLog.AdminAction(ctx, r, actor.ObjectID(), audit.EventAnnouncementDeleted, nil, map[string]string{
		"announcement_id": id.Hex(),
	})
	apiresp.NoContent(w)
}
