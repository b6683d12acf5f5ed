// Package sweeper periodically deletes sessions that are past expiry and grace.
package sweeper

import (
	"context"
	"time"

	"github.com/samber/oops"

	"github.com/dtroode/authd/internal/logger"
)

// SessionSweeper deletes sessions that can no longer become valid.
type SessionSweeper interface {
	Sweep(ctx context.Context) (int64, error)
}

// Observer records the outcome of each sweep run.
type Observer interface {
	ObserveSweep(deleted int64, err error)
}

// Worker runs Sweep on a fixed interval.
type Worker struct {
	sessions SessionSweeper
	interval time.Duration
	observer Observer
	logger   *logger.Logger
}

// NewWorker creates a sweep worker. observer may be nil.
// The interval must be positive.
func NewWorker(sessions SessionSweeper, interval time.Duration, observer Observer, logger *logger.Logger) (*Worker, error) {
	if interval <= 0 {
		return nil, oops.Code("SWEEPER_INVALID_INTERVAL").
			With("interval", interval).
			Errorf("sweep interval must be positive")
	}

	return &Worker{
		sessions: sessions,
		interval: interval,
		observer: observer,
		logger:   logger,
	}, nil
}

// Run sweeps once immediately and then on every tick until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	w.logger.Info("Sweeper: started", "interval", w.interval)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		w.RunOnce(ctx)

		select {
		case <-ctx.Done():
			w.logger.Info("Sweeper: stopped")
			return
		case <-ticker.C:
		}
	}
}

// RunOnce performs a single sweep and reports how many sessions were deleted.
func (w *Worker) RunOnce(ctx context.Context) (int64, error) {
	deleted, err := w.sessions.Sweep(ctx)
	if w.observer != nil {
		w.observer.ObserveSweep(deleted, err)
	}
	if err != nil {
		if ctx.Err() == nil {
			w.logger.Error("Sweeper: sweep failed", "error", err)
		}
		return 0, err
	}

	if deleted > 0 {
		w.logger.Info("Sweeper: deleted expired sessions", "count", deleted)
	}
	return deleted, nil
}
