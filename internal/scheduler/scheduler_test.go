package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"job_ingester/internal/domain"
)

type recordingRunner struct {
	mu    sync.Mutex
	dates []time.Time
	err   error
	ran   chan struct{}
}

func (r *recordingRunner) Run(ctx context.Context, scrapeDate time.Time) (*domain.RunStats, error) {
	r.mu.Lock()
	r.dates = append(r.dates, scrapeDate)
	r.mu.Unlock()

	if _, ok := ctx.Deadline(); !ok {
		return nil, errors.New("run context has no deadline")
	}
	if r.ran != nil {
		select {
		case r.ran <- struct{}{}:
		default:
		}
	}
	if r.err != nil {
		return nil, r.err
	}
	return &domain.RunStats{ScrapeDate: scrapeDate}, nil
}

func (r *recordingRunner) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.dates)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunOnce_UsesCurrentDate(t *testing.T) {
	runner := &recordingRunner{}
	s := NewScheduler(runner, 0, time.Minute, discardLogger())
	fixed := time.Date(2025, 3, 31, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	stats, err := s.RunOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, fixed, stats.ScrapeDate)
	assert.Equal(t, []time.Time{fixed}, runner.dates)
}

func TestRunOnce_ReturnsRunnerError(t *testing.T) {
	runner := &recordingRunner{err: domain.ErrSourceUnavailable}
	s := NewScheduler(runner, 0, time.Minute, discardLogger())

	_, err := s.RunOnce(context.Background())

	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
}

func TestStart_RepeatsUntilCancelled(t *testing.T) {
	runner := &recordingRunner{err: errors.New("boom"), ran: make(chan struct{}, 1)}
	s := NewScheduler(runner, 10*time.Millisecond, time.Second, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	for i := 0; i < 3; i++ {
		select {
		case <-runner.ran:
		case <-time.After(2 * time.Second):
			t.Fatal("timeout waiting for batch")
		}
	}
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	assert.GreaterOrEqual(t, runner.calls(), 3)
}

func TestNewScheduler_StampsRunsInUTC(t *testing.T) {
	s := NewScheduler(&recordingRunner{}, 0, time.Minute, discardLogger())
	assert.Equal(t, time.UTC, s.now().Location())
}
