package infra

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"kotvukai/internal/logger"
)

// PollScheduler runs interval jobs on a shared cron instance. It satisfies
// chart.Scheduler.
type PollScheduler struct {
	cron *cron.Cron
}

// NewPollScheduler creates a scheduler. Overlapping runs of the same job are
// skipped rather than queued.
func NewPollScheduler() *PollScheduler {
	cl := cronLogger{}
	return &PollScheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
	}
}

// Every schedules fn at the given interval. The returned stop func removes
// the job without waiting for a running invocation, and is idempotent.
func (s *PollScheduler) Every(interval time.Duration, fn func()) (func(), error) {
	if interval < time.Second {
		return nil, fmt.Errorf("poll interval must be at least 1s, got %s", interval)
	}

	id, err := s.cron.AddFunc("@every "+interval.String(), fn)
	if err != nil {
		return nil, fmt.Errorf("failed to schedule job: %w", err)
	}

	var once sync.Once
	return func() {
		once.Do(func() { s.cron.Remove(id) })
	}, nil
}

// Jobs returns the number of scheduled jobs
func (s *PollScheduler) Jobs() int {
	return len(s.cron.Entries())
}

// Start starts the scheduler
func (s *PollScheduler) Start() {
	s.cron.Start()
	logger.Info(context.Background(), "Scheduler started")
}

// Stop stops the scheduler and waits for running jobs until ctx is done
func (s *PollScheduler) Stop(ctx context.Context) {
	logger.Info(ctx, "Stopping scheduler")
	done := s.cron.Stop()
	select {
	case <-done.Done():
		logger.Info(ctx, "Scheduler stopped")
	case <-ctx.Done():
		logger.Warn(ctx, "Scheduler stop timed out with jobs still running")
	}
}

// cronLogger routes cron's internal logs through zap
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Debug(context.Background(), "cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.ErrorWithErr(context.Background(), "cron: "+msg, err, keysAndValues...)
}
