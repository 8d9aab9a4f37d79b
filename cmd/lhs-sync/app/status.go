package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lhs-project/libre-health-sync/internal/api"
	"github.com/lhs-project/libre-health-sync/internal/app/storage"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the persisted sync status",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		factory, err := storage.NewStorageFactory(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("failed to open storage: %w", err)
		}
		defer factory.Cleanup()

		statuses, err := factory.CreateStatusPersistence(cmd.Context())
		if err != nil {
			return err
		}
		st, err := statuses.LoadStatus(cmd.Context(), cfg.GetAccountName())
		if err != nil {
			return err
		}
		return printJSON(cmd, api.StatusResponse{Account: cfg.GetAccountName(), Status: st})
	},
}
