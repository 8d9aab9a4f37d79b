package app

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/lhs-project/libre-health-sync/database"
)

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending database migrations",
	Long: `Apply all pending migrations to bring the schema up to date. The sync daemon
does this on startup as well; the command is for preparing a database ahead of time.`,
	RunE: runMigrateUp,
}

func runMigrateUp(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	sqlDB, dialect, target, err := openMigrationDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeDB(sqlDB)

	ok, err := confirm(cmd, fmt.Sprintf("About to apply %s migrations to %s.", dialect, target))
	if err != nil || !ok {
		return err
	}

	if err := database.MigrateUp(ctx, sqlDB, dialect); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, err := database.Version(ctx, sqlDB, dialect)
	if err != nil {
		slog.Warn("Unable to get migration version", "error", err)
		return nil
	}
	slog.Info("Migrations applied successfully", "version", version)
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", version)
	return err
}
