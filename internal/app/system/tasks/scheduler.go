// internal/app/system/tasks/scheduler.go
package tasks

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Job is a named unit of periodic work.
type Job struct {
	Name     string
	Interval time.Duration
	Timeout  time.Duration // per run; defaults to Interval
	Run      func(ctx context.Context) error
}

// Scheduler runs each Job on its own ticker until Stop is called.
type Scheduler struct {
	jobs   []Job
	log    *zap.Logger
	stopCh chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

// NewScheduler creates a scheduler for jobs.
func NewScheduler(logger *zap.Logger, jobs ...Job) *Scheduler {
	return &Scheduler{
		jobs:   jobs,
		log:    logger,
		stopCh: make(chan struct{}),
	}
}

// Start launches one goroutine per job. Each job also runs once immediately.
func (s *Scheduler) Start() {
	for _, j := range s.jobs {
		if j.Interval <= 0 || j.Run == nil {
			s.log.Warn("skipping invalid job", zap.String("job", j.Name))
			continue
		}
		s.wg.Add(1)
		go s.loop(j)
	}
	s.log.Info("task scheduler started", zap.Int("jobs", len(s.jobs)))
}

// Stop signals every job loop to exit and waits for in-flight runs.
func (s *Scheduler) Stop() {
	s.once.Do(func() { close(s.stopCh) })
	s.wg.Wait()
	s.log.Info("task scheduler stopped")
}

func (s *Scheduler) loop(j Job) {
	defer s.wg.Done()

	ticker := time.NewTicker(j.Interval)
	defer ticker.Stop()

	s.runOnce(j)
	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.runOnce(j)
		}
	}
}

func (s *Scheduler) runOnce(j Job) {
	timeout := j.Timeout
	if timeout <= 0 {
		timeout = j.Interval
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Abort the run if Stop is called mid-flight.
	go func() {
		select {
		case <-s.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	start := time.Now()
	if err := j.Run(ctx); err != nil {
		s.log.Error("job failed",
			zap.String("job", j.Name),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return
	}
	s.log.Debug("job finished", zap.String("job", j.Name), zap.Duration("elapsed", time.Since(start)))
}
