package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lhs-project/libre-health-sync/internal/app"
	"github.com/lhs-project/libre-health-sync/internal/config"
	"github.com/lhs-project/libre-health-sync/internal/sync/coordinator"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the sync daemon",
	Long: `Run sync cycles in the background until interrupted.

In continuous mode a cycle runs every sync.interval. In single-shot mode each
invocation re-arms the next one sync.fallbackDelay ahead and then runs one
cycle bounded by sync.invocationDeadline. With presenter.enabled the live
presentation, the sync status and /metrics are served over HTTP.`,
	RunE: runServe,
}

// defaultGracefulTimeout bounds the shutdown of the HTTP server and the telemetry flush
const defaultGracefulTimeout = 30 * time.Second

func init() {
	serveCmd.Flags().String("address", "", "Address to listen on (overrides presenter.address)")
	serveCmd.Flags().String("mode", "", "Execution mode: auto, continuous or single-shot (overrides sync.mode)")
	serveCmd.Flags().Bool("no-continuous", false, "Deny continuous execution so auto mode runs single-shot")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	mode, err := cmd.Flags().GetString("mode")
	if err != nil {
		return fmt.Errorf("failed to get mode flag: %w", err)
	}
	if mode != "" {
		switch mode {
		case config.SyncModeAuto, config.SyncModeContinuous, config.SyncModeSingleShot:
			cfg.Sync.Mode = mode
		default:
			return fmt.Errorf("invalid mode %q", mode)
		}
	}

	opts := []app.SyncAppOptions{app.WithConfig(cfg)}
	if address, _ := cmd.Flags().GetString("address"); address != "" {
		opts = append(opts, app.WithAddress(address))
	}
	if denied, _ := cmd.Flags().GetBool("no-continuous"); denied {
		opts = append(opts, app.WithExecutionGrant(coordinator.GrantFunc(func() bool { return false })))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	syncApp, err := app.NewSyncApp(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}

	slog.Info("Starting sync daemon",
		"account", cfg.GetAccountName(),
		"mode", cfg.Sync.GetMode(),
		"storage", cfg.Storage.GetType())

	runErr := syncApp.Start(ctx)
	if err := syncApp.Stop(defaultGracefulTimeout); err != nil {
		slog.Error("Shutdown failed", "error", err)
	}
	return runErr
}
