package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lhs-project/libre-health-sync/internal/app"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the session, the watermark and the sync status",
	Long: `Remove the stored credentials of the configured account. The watermark is
cleared as well, so the first sync after the next login forwards the full
history window again.`,
	RunE: runLogout,
}

func runLogout(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	syncApp, err := app.NewSyncApp(cmd.Context(), app.WithConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}
	defer func() { _ = syncApp.Stop(defaultGracefulTimeout) }()

	if err := syncApp.Logout(cmd.Context()); err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Logged out %s\n", cfg.GetAccountName())
	return err
}
