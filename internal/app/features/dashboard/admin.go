// internal/app/features/dashboard/admin.go
package dashboard

import (
	"context"
	"net/http"
	"time"

	statsstore "github.com/dalemusser/placementhub/internal/app/store/stats"
	"github.com/dalemusser/placementhub/internal/app/system/apiresp"
	"github.com/dalemusser/placementhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// ServeAdmin handles GET /api/dashboard/admin.
func (h *Handler) ServeAdmin(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	stats, err := statsstore.FetchAdminStats(ctx, h.DB, time.Now().UTC())
	if err != nil {
		h.Log.Error("admin stats", zap.Error(err), zap.String("path", r.URL.Path))
		apiresp.Internal(w)
		return
	}
	apiresp.OK(w, stats)
}
