package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lhs-project/libre-health-sync/internal/app/storage"
	"github.com/lhs-project/libre-health-sync/internal/config"
	"github.com/lhs-project/libre-health-sync/internal/sync/state"
)

var watermarkCmd = &cobra.Command{
	Use:   "watermark",
	Short: "Inspect or reset the sync watermark",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Usage()
	},
}

var watermarkShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the factory timestamp of the newest forwarded reading",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withWatermarks(cmd, func(cfg *config.Config, watermarks state.WatermarkStore) error {
			watermark, ok, err := watermarks.GetWatermark(cmd.Context(), cfg.GetAccountName())
			if err != nil {
				return err
			}
			if !ok {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), "no watermark recorded")
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), watermark)
			return err
		})
	},
}

var watermarkClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget the watermark so the next cycle forwards the full history window",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withWatermarks(cmd, func(cfg *config.Config, watermarks state.WatermarkStore) error {
			if err := watermarks.ClearWatermark(cmd.Context(), cfg.GetAccountName()); err != nil {
				return err
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "watermark cleared")
			return err
		})
	},
}

func init() {
	watermarkCmd.AddCommand(watermarkShowCmd)
	watermarkCmd.AddCommand(watermarkClearCmd)
}

func withWatermarks(cmd *cobra.Command, fn func(*config.Config, state.WatermarkStore) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	factory, err := storage.NewStorageFactory(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer factory.Cleanup()

	watermarks, err := factory.CreateWatermarkStore(cmd.Context())
	if err != nil {
		return err
	}
	return fn(cfg, watermarks)
}
