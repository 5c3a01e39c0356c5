// internal/app/bootstrap/jobs.go
package bootstrap

import (
	"context"
	"time"

	companystore "github.com/dalemusser/placementhub/internal/app/store/companies"
	"github.com/dalemusser/placementhub/internal/app/store/oauthstate"
	"github.com/dalemusser/placementhub/internal/app/store/passwordreset"
	quizstore "github.com/dalemusser/placementhub/internal/app/store/quizzes"
	"github.com/dalemusser/placementhub/internal/app/system/tasks"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newScheduler(db *mongo.Database, logger *zap.Logger) *tasks.Scheduler {
	return tasks.NewScheduler(logger, jobs(db, logger)...)
}

// jobs lists the periodic maintenance work.
func jobs(db *mongo.Database, logger *zap.Logger) []tasks.Job {
	companies := companystore.New(db)
	quizzes := quizstore.New(db)
	resets := passwordreset.New(db, 0)
	states := oauthstate.New(db)

	logCount := func(job string, n int64) {
		if n > 0 {
			logger.Info("job changed documents", zap.String("job", job), zap.Int64("count", n))
		}
	}

	return []tasks.Job{
		{
			Name:     "close-expired-companies",
			Interval: 5 * time.Minute,
			Timeout:  time.Minute,
			Run: func(ctx context.Context) error {
				n, err := companies.CloseExpired(ctx, time.Now().UTC())
				logCount("close-expired-companies", n)
				return err
			},
		},
		{
			Name:     "deactivate-ended-quizzes",
			Interval: 5 * time.Minute,
			Timeout:  time.Minute,
			Run: func(ctx context.Context) error {
				n, err := quizzes.DeactivateEnded(ctx, time.Now().UTC())
				logCount("deactivate-ended-quizzes", n)
				return err
			},
		},
		{
			Name:     "purge-expired-tokens",
			Interval: time.Hour,
			Timeout:  time.Minute,
			Run: func(ctx context.Context) error {
				now := time.Now().UTC()
				n, err := resets.PurgeExpired(ctx, now)
				if err != nil {
					return err
				}
				m, err := states.CleanupExpired(ctx, now)
				logCount("purge-expired-tokens", n+m)
				return err
			},
		},
	}
}
