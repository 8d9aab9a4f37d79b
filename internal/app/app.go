// Package app provides application lifecycle management for the sync daemon.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	gosync "sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lhs-project/libre-health-sync/internal/app/storage"
	"github.com/lhs-project/libre-health-sync/internal/config"
	pkgsync "github.com/lhs-project/libre-health-sync/internal/sync"
	"github.com/lhs-project/libre-health-sync/internal/telemetry"
)

// SyncApp encapsulates all components needed to run the sync daemon.
// It provides lifecycle management and graceful shutdown capabilities.
type SyncApp struct {
	config         *config.Config
	components     *AppComponents
	httpServer     *http.Server
	storageFactory storage.Factory

	mu     gosync.Mutex
	cancel context.CancelFunc
}

// Start runs the coordinator and, when enabled, the HTTP server.
// It blocks until ctx is cancelled, Stop is called or either of them fails.
func (app *SyncApp) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	app.mu.Lock()
	app.cancel = cancel
	app.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := app.components.SyncCoordinator.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("sync coordinator failed: %w", err)
		}
		return nil
	})

	if app.httpServer != nil {
		g.Go(func() error {
			slog.Info("Server listening", "address", app.httpServer.Addr)
			if err := app.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("HTTP server failed: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), defaultRequestTimeout)
			defer cancel()
			return app.httpServer.Shutdown(shutdownCtx)
		})
	}

	return g.Wait()
}

// RunOnce performs a single guarded sync cycle
func (app *SyncApp) RunOnce(ctx context.Context) (*pkgsync.Result, error) {
	return app.components.SyncCoordinator.RunOnce(ctx)
}

// Logout signs the account out. It clears the stored credentials and the
// watermark so the next login starts with a full sync, ends the live
// presentation and forgets the sync status.
func (app *SyncApp) Logout(ctx context.Context) error {
	account := app.config.GetAccountName()
	var errs []error

	if app.components.Session != nil {
		if err := app.components.Session.Logout(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to clear credentials: %w", err))
		}
	}
	if err := app.components.Watermarks.ClearWatermark(ctx, account); err != nil {
		errs = append(errs, fmt.Errorf("failed to clear watermark: %w", err))
	}
	if app.components.Presenter != nil {
		if err := app.components.Presenter.End(ctx); err != nil {
			slog.Warn("Failed to end live presentation", "error", err)
		}
	}
	if err := app.components.Statuses.DeleteStatus(ctx, account); err != nil {
		errs = append(errs, fmt.Errorf("failed to delete sync status: %w", err))
	}

	if len(errs) == 0 {
		slog.Info("Logged out", "account", account)
	}
	return errors.Join(errs...)
}

// Stop gracefully stops the application with the given timeout.
// It stops the coordinator, then the HTTP server, then releases storage and telemetry.
func (app *SyncApp) Stop(timeout time.Duration) error {
	slog.Info("Shutting down...")

	app.mu.Lock()
	if app.cancel != nil {
		app.cancel()
	}
	app.mu.Unlock()

	if err := app.components.SyncCoordinator.Stop(); err != nil {
		slog.Error("Failed to stop sync coordinator", "error", err)
	}
	if app.components.Scheduler != nil {
		app.components.Scheduler.Close()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error
	if app.httpServer != nil {
		if err := app.httpServer.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("server forced to shutdown: %w", err))
		}
	}

	app.storageFactory.Cleanup()

	if app.components.Telemetry != nil {
		if err := app.components.Telemetry.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, err)
		}
	}

	slog.Info("Shutdown complete")
	return errors.Join(errs...)
}

// GetConfig returns the application configuration
func (app *SyncApp) GetConfig() *config.Config {
	return app.config
}

// GetComponents returns the wired components
func (app *SyncApp) GetComponents() *AppComponents {
	return app.components
}

// GetHTTPServer returns the HTTP server, or nil when the presenter is disabled
func (app *SyncApp) GetHTTPServer() *http.Server {
	return app.httpServer
}

func shutdownTelemetry(tel *telemetry.Telemetry) {
	if tel == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), defaultRequestTimeout)
	defer cancel()
	if err := tel.Shutdown(ctx); err != nil {
		slog.Warn("Failed to shut down telemetry", "error", err)
	}
}
