package app

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/lhs-project/libre-health-sync/database"
)

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back database migrations",
	Long: `Roll back the most recent migrations, one per --num-steps. Rolling back the
initial migration drops the readings and the watermarks.`,
	RunE: runMigrateDown,
}

func runMigrateDown(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	steps, err := cmd.Flags().GetUint("num-steps")
	if err != nil {
		return fmt.Errorf("failed to get num-steps flag: %w", err)
	}
	if steps == 0 {
		return fmt.Errorf("num-steps must be at least 1")
	}

	sqlDB, dialect, target, err := openMigrationDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeDB(sqlDB)

	ok, err := confirm(cmd, fmt.Sprintf("About to roll back %d %s migration(s) on %s.", steps, dialect, target))
	if err != nil || !ok {
		return err
	}

	for i := uint(0); i < steps; i++ {
		if err := database.MigrateDown(ctx, sqlDB, dialect); err != nil {
			return fmt.Errorf("failed to roll back migration: %w", err)
		}
	}

	version, err := database.Version(ctx, sqlDB, dialect)
	if err != nil {
		slog.Warn("Unable to get migration version", "error", err)
		return nil
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", version)
	return err
}
