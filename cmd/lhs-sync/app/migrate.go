package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/lhs-project/libre-health-sync/database"
	"github.com/lhs-project/libre-health-sync/internal/config"
	"github.com/lhs-project/libre-health-sync/internal/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Database migration tool",
	Long: `Database migration tool for the sqlite and database storage types.
Use with 'up' or 'down' subcommands.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Usage()
	},
}

func init() {
	migrateCmd.PersistentFlags().BoolP("yes", "y", false, "Answer yes to all questions")
	migrateCmd.PersistentFlags().UintP("num-steps", "n", 1, "Number of migrations to roll back (down only)")

	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
}

// openMigrationDB opens the schema-bearing storage of cfg
func openMigrationDB(ctx context.Context, cfg *config.Config) (*sql.DB, database.Dialect, string, error) {
	switch cfg.Storage.GetType() {
	case config.StorageTypeSQLite:
		path := cfg.Storage.GetSQLitePath()
		sqlDB, err := db.OpenSQLite(ctx, path)
		return sqlDB, database.DialectSQLite, path, err
	case config.StorageTypeDatabase:
		dbCfg := cfg.Storage.Database
		if dbCfg == nil {
			return nil, "", "", fmt.Errorf("database configuration is required")
		}
		sqlDB, err := db.OpenPostgres(ctx, dbCfg)
		target := fmt.Sprintf("%s@%s:%d/%s", dbCfg.User, dbCfg.Host, dbCfg.Port, dbCfg.Database)
		return sqlDB, database.DialectPostgres, target, err
	default:
		return nil, "", "", fmt.Errorf("storage type %q has no schema to migrate", cfg.Storage.GetType())
	}
}

// confirm asks on stdin unless --yes was given
func confirm(cmd *cobra.Command, prompt string) (bool, error) {
	yes, err := cmd.Flags().GetBool("yes")
	if err != nil {
		return false, fmt.Errorf("failed to get yes flag: %w", err)
	}
	if yes {
		return true, nil
	}

	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s Continue? (yes/no): ", prompt); err != nil {
		return false, err
	}
	var response string
	if _, err := fmt.Fscanln(cmd.InOrStdin(), &response); err != nil {
		return false, fmt.Errorf("failed to read user input: %w", err)
	}
	if response != "yes" && response != "y" {
		slog.Info("Migration cancelled by user")
		return false, nil
	}
	return true, nil
}

func closeDB(sqlDB *sql.DB) {
	if err := sqlDB.Close(); err != nil {
		slog.Error("Error closing database connection", "error", err)
	}
}
