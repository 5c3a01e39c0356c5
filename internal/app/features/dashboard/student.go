// internal/app/features/dashboard/student.go
package dashboard

import (
	"context"
	"errors"
	"net/http"
	"time"

	attemptstore "github.com/dalemusser/placementhub/internal/app/store/attempts"
	resumescanstore "github.com/dalemusser/placementhub/internal/app/store/resumescans"
	statsstore "github.com/dalemusser/placementhub/internal/app/store/stats"
	"github.com/dalemusser/placementhub/internal/app/system/apiresp"
	"github.com/dalemusser/placementhub/internal/app/system/auth"
	"github.com/dalemusser/placementhub/internal/app/system/timeouts"
	"github.com/dalemusser/placementhub/internal/domain/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type studentStats struct {
	ApplicationsByStatus map[string]int64     `json:"applications_by_status"`
	Quizzes              attemptstore.Summary `json:"quizzes"`
	ProblemsSolved       int64                `json:"problems_solved"`
	LatestATSScore       *int                 `json:"latest_ats_score"`
	UpcomingDrives       []models.Company     `json:"upcoming_drives"`
}

// ServeStudent handles GET /api/dashboard/student.
func (h *Handler) ServeStudent(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	sid := u.ObjectID()

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	var out studentStats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.ApplicationsByStatus, err = h.Applications.CountByStatus(gctx, &sid)
		return err
	})
	g.Go(func() (err error) {
		out.Quizzes, err = h.Attempts.Summarize(gctx, &sid)
		return err
	})
	g.Go(func() (err error) {
		out.ProblemsSolved, err = h.Submissions.SolvedCount(gctx, sid)
		return err
	})
	g.Go(func() error {
		scan, err := h.Scans.Latest(gctx, sid)
		if errors.Is(err, resumescanstore.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		out.LatestATSScore = &scan.Result.Score
		return nil
	})
	g.Go(func() (err error) {
		out.UpcomingDrives, err = h.Companies.Upcoming(gctx, time.Now().UTC(), upcomingDrives)
		return err
	})
	if err := g.Wait(); err != nil {
		h.Log.Error("student stats", zap.Error(err), zap.String("path", r.URL.Path))
		apiresp.Internal(w)
		return
	}
	out.Quizzes.Average = statsstore.Round2(out.Quizzes.Average)
	apiresp.OK(w, out)
}
