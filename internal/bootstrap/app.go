package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/yanqian/keto-dashboard/internal/infra/config"
)

// Sweeper purges expired sessions from stores that do not expire entries on their own.
type Sweeper interface {
	Sweep(ctx context.Context) int
}

// App encapsulates the HTTP server lifecycle and background maintenance.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	server  *http.Server
	sweeper Sweeper
}

// NewApp is used by Wire to build the runnable app. sweeper may be nil.
func NewApp(cfg *config.Config, logger *slog.Logger, server *http.Server, sweeper Sweeper) *App {
	return &App{cfg: cfg, logger: logger.With("component", "bootstrap"), server: server, sweeper: sweeper}
}

// Run starts the HTTP server and blocks until shutdown.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go a.runSweeper(sweepCtx)

	go func() {
		a.logger.Info("http server starting", "address", a.cfg.HTTP.Address)
		if err := a.server.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		a.logger.Info("shutdown signal received")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (a *App) runSweeper(ctx context.Context) {
	interval := a.cfg.Session.SweepInterval
	if a.sweeper == nil || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := a.sweeper.Sweep(ctx); removed > 0 {
				a.logger.Info("expired sessions swept", "removed", removed)
			}
		}
	}
}
