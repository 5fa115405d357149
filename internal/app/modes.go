package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/marketfocus/internal/domain"
	"github.com/alanyoungcy/marketfocus/internal/pipeline"
	"github.com/alanyoungcy/marketfocus/internal/report"
	"github.com/alanyoungcy/marketfocus/internal/server"
	"github.com/alanyoungcy/marketfocus/internal/server/handler"
	"github.com/alanyoungcy/marketfocus/internal/tui"
)

// ServerMode serves the HTTP API and, when refresh_interval is set, keeps the
// default snapshot warm in the background.
func (a *App) ServerMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting server mode")

	g, ctx := errgroup.WithContext(ctx)

	a.startHTTPServer(ctx, g, deps)

	if interval := a.cfg.Dashboard.RefreshInterval.Duration; interval > 0 {
		refresher := pipeline.NewRefresher(a.refreshFunc(deps), interval, a.logger)
		g.Go(func() error {
			return refresher.RunLoop(ctx)
		})
	}

	return g.Wait()
}

// refreshFunc rebuilds the default-window snapshot and reports failures
// through the notifier.
func (a *App) refreshFunc(deps *Dependencies) pipeline.RefreshFunc {
	maxHours := a.cfg.Dashboard.MaxHours
	return func(ctx context.Context) error {
		_, err := deps.Dashboard.Snapshot(ctx, maxHours, true)
		if err != nil && errors.Is(err, domain.ErrFetchFailed) {
			if nerr := deps.Notifier.NotifyFetchFailed(ctx, maxHours, err); nerr != nil {
				a.logger.WarnContext(ctx, "refresh: notify failed", slog.String("error", nerr.Error()))
			}
		}
		return err
	}
}

// startHTTPServer adds the HTTP server and its shutdown watcher to g.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	var pinger handler.Pinger
	if deps.Redis != nil {
		pinger = deps.Redis
	}

	handlers := server.Handlers{
		Health:    handler.NewHealthHandler(pinger, a.logger),
		Dashboard: handler.NewDashboardHandler(deps.Dashboard, a.cfg.Dashboard.MaxHours, a.logger),
		Markets:   handler.NewMarketHandler(deps.Markets, deps.Prices, a.logger),
	}
	srv := server.NewServer(server.Config{
		Port:               a.cfg.Server.Port,
		CORSOrigins:        a.cfg.Server.CORSOrigins,
		RateLimitPerMinute: a.cfg.Server.RateLimitPerMinute,
	}, handlers, deps.RateLimiter, a.logger)

	g.Go(srv.Start)

	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout.Duration)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})
}

// TUIMode runs the interactive terminal dashboard.
func (a *App) TUIMode(ctx context.Context, deps *Dependencies) error {
	return tui.Run(ctx, deps.Dashboard, a.cfg.Dashboard.MaxHours)
}

// ReportMode builds one snapshot, prints it and sends the focus digest.
func (a *App) ReportMode(ctx context.Context, deps *Dependencies) error {
	return a.writeReport(ctx, deps, os.Stdout)
}

func (a *App) writeReport(ctx context.Context, deps *Dependencies, w io.Writer) error {
	maxHours := a.cfg.Dashboard.MaxHours
	snap, err := deps.Dashboard.Snapshot(ctx, maxHours, true)
	if err != nil {
		if errors.Is(err, domain.ErrFetchFailed) {
			_ = deps.Notifier.NotifyFetchFailed(ctx, maxHours, err)
		}
		fmt.Fprint(w, report.RenderError(err))
		return fmt.Errorf("report mode: %w", err)
	}

	fmt.Fprint(w, report.Render(snap, report.Options{}))

	if deps.Notifier.Enabled() {
		if err := deps.Notifier.NotifyFocus(ctx, snap); err != nil {
			a.logger.WarnContext(ctx, "report mode: focus digest not delivered",
				slog.String("error", err.Error()),
			)
		}
	}
	return nil
}
