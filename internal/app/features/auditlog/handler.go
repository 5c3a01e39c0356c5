// internal/app/features/auditlog/handler.go
package auditlog

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/placementhub/internal/app/features/shared"
	"github.com/dalemusser/placementhub/internal/app/store/audit"
	"github.com/dalemusser/placementhub/internal/app/system/apiresp"
	"github.com/dalemusser/placementhub/internal/app/system/auth"
	"github.com/dalemusser/placementhub/internal/app/system/paging"
	"github.com/dalemusser/placementhub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

type Handler struct {
	DB     *mongo.Database
	Log    *zap.Logger
	Events *audit.Store
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{DB: db, Log: logger, Events: audit.New(db)}
}

// Routes mounts /api/audit for admins.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireRole(auth.RoleAdmin))
	r.Get("/", h.ServeList)
	return r
}

// parseFilter reads category, event, user_id, from and to. Dates are
// YYYY-MM-DD in UTC; "to" covers the whole day.
func parseFilter(r *http.Request) (audit.QueryFilter, string) {
	var f audit.QueryFilter

	switch c := strings.ToLower(query.Get(r, "category")); c {
	case "", audit.CategoryAuth, audit.CategoryAdmin:
		f.Category = c
	default:
		return f, "category must be auth or admin"
	}
	f.EventType = strings.TrimSpace(query.Get(r, "event"))

	if s := query.Get(r, "user_id"); s != "" {
		oid, ok := shared.ParseObjectID(s)
		if !ok {
			return f, "invalid user_id"
		}
		f.UserID = oid
	}
	if s := query.Get(r, "from"); s != "" {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			return f, "from must be YYYY-MM-DD"
		}
		f.StartTime = &t
	}
	if s := query.Get(r, "to"); s != "" {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			return f, "to must be YYYY-MM-DD"
		}
		end := t.Add(24*time.Hour - time.Nanosecond)
		f.EndTime = &end
	}
	if f.StartTime != nil && f.EndTime != nil && f.EndTime.Before(*f.StartTime) {
		return f, "to must not be before from"
	}
	return f, ""
}

// ServeList handles GET /api/audit.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	f, msg := parseFilter(r)
	if msg != "" {
		apiresp.BadRequest(w, msg)
		return
	}
	p := paging.Parse(r)
	f.Limit = p.LimitPlusOne()
	f.Offset = p.Skip()

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	rows, err := h.Events.Query(ctx, f)
	if err != nil {
		h.Log.Error("audit query", zap.Error(err), zap.String("path", r.URL.Path))
		apiresp.Internal(w)
		return
	}
	apiresp.OK(w, paging.Trim(rows, p))
}
