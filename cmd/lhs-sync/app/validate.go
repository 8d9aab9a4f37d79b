package app

import (
	"fmt"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file and print the effective settings",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		_, err = fmt.Fprintf(out, `Valid configuration
  Account:     %s (region %s)
  Sync mode:   %s, every %s
  Credentials: %s
  Storage:     %s in %s
  Presenter:   enabled=%t address=%s unit=%s
`,
			cfg.GetAccountName(), cfg.GetRegion(),
			cfg.Sync.GetMode(), cfg.Sync.GetInterval(),
			cfg.Credentials.GetBackend(),
			cfg.Storage.GetType(), cfg.Storage.GetDataDir(),
			cfg.Presenter.Enabled, cfg.Presenter.GetAddress(), cfg.Presenter.GetDisplayUnit())
		return err
	},
}
