package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/lhs-project/libre-health-sync/internal/app"
	"github.com/lhs-project/libre-health-sync/internal/llu"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run a single sync cycle",
	Long: `Run one sync cycle for the configured account and print a summary.
Fails when another cycle holds the account lock.`,
	RunE: runSync,
}

// syncSummary is the machine readable result of a cycle
type syncSummary struct {
	Account        string `json:"account"`
	ConnectionName string `json:"connectionName,omitempty"`
	Forwarded      int    `json:"forwarded"`
	Accepted       int    `json:"accepted"`
	Watermark      string `json:"watermark,omitempty"`
	CurrentValue   string `json:"currentValue,omitempty"`
}

func init() {
	syncCmd.Flags().Duration("timeout", 2*time.Minute, "Upper bound for the whole cycle")
}

func runSync(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	timeout, err := cmd.Flags().GetDuration("timeout")
	if err != nil {
		return fmt.Errorf("failed to get timeout flag: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	syncApp, err := app.NewSyncApp(ctx, app.WithConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}
	defer func() { _ = syncApp.Stop(defaultGracefulTimeout) }()

	result, err := syncApp.RunOnce(ctx)
	if err != nil {
		return describeSyncError(err)
	}

	summary := syncSummary{
		Account:        cfg.GetAccountName(),
		ConnectionName: result.ConnectionName,
		Forwarded:      result.ForwardedCount,
		Accepted:       result.AcceptedCount,
		Watermark:      result.Watermark,
	}
	if result.CurrentReading != nil {
		if value, ok := result.CurrentReading.MgPerDl(); ok {
			summary.CurrentValue = cfg.Presenter.GetDisplayUnit().Format(value)
		}
	}
	return printJSON(cmd, summary)
}

// describeSyncError adds what the user has to do for errors they can act on
func describeSyncError(err error) error {
	switch {
	case errors.Is(err, llu.ErrTermsRequired):
		return fmt.Errorf("%w: open the LibreLinkUp app, accept the terms, then run 'lhs-sync login' again", err)
	case llu.IsAuthentication(err):
		return fmt.Errorf("%w: run 'lhs-sync login' first", err)
	default:
		return err
	}
}
