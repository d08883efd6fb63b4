package scheduler

import (
	"context"
	"log/slog"
	"time"

	"job_ingester/internal/domain"
)

// Runner executes one ingestion batch for the given scrape date.
type Runner interface {
	Run(ctx context.Context, scrapeDate time.Time) (*domain.RunStats, error)
}

type Scheduler struct {
	runner   Runner
	interval time.Duration
	timeout  time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

func NewScheduler(runner Runner, interval, timeout time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		runner:   runner,
		interval: interval,
		timeout:  timeout,
		now:      func() time.Time { return time.Now().UTC() },
		logger:   logger,
	}
}

// RunOnce executes a single batch stamped with the current UTC time.
func (s *Scheduler) RunOnce(ctx context.Context) (*domain.RunStats, error) {
	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return s.runner.Run(runCtx, s.now())
}

// Start runs a batch immediately and then once per interval until ctx is
// cancelled. A failed batch is logged and the next tick proceeds.
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("scheduler started", "interval", s.interval)

	s.runBatch(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.runBatch(ctx)
		}
	}
}

func (s *Scheduler) runBatch(ctx context.Context) {
	if _, err := s.RunOnce(ctx); err != nil {
		s.logger.Error("ingestion failed", "error", err)
	}
}
