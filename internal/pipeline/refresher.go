package pipeline

import (
	"context"
	"log/slog"
	"time"
)

// RefreshFunc rebuilds whatever the refresher keeps warm.
type RefreshFunc func(ctx context.Context) error

// Refresher calls a RefreshFunc on a fixed interval so the snapshot cache is
// warm before the first request of each period.
type Refresher struct {
	refresh  RefreshFunc
	interval time.Duration
	logger   *slog.Logger
}

// NewRefresher creates a Refresher.
func NewRefresher(refresh RefreshFunc, interval time.Duration, logger *slog.Logger) *Refresher {
	return &Refresher{
		refresh:  refresh,
		interval: interval,
		logger:   logger.With(slog.String("component", "refresher")),
	}
}

// RunLoop refreshes immediately and then on every tick until ctx is
// cancelled. Failures are logged and do not stop the loop.
func (r *Refresher) RunLoop(ctx context.Context) error {
	r.runOnce(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("refresher loop stopped")
			return ctx.Err()
		case <-ticker.C:
			r.runOnce(ctx)
		}
	}
}

func (r *Refresher) runOnce(ctx context.Context) {
	start := time.Now()
	if err := r.refresh(ctx); err != nil {
		r.logger.Error("refresh failed", slog.String("error", err.Error()))
		return
	}
	r.logger.Debug("refresh complete", slog.Duration("elapsed", time.Since(start)))
}
