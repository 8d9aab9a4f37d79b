// Package app provides the command line interface of the sync daemon.
package app

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lhs-project/libre-health-sync/internal/config"
	"github.com/lhs-project/libre-health-sync/internal/logging"
	"github.com/lhs-project/libre-health-sync/internal/versions"
)

var rootCmd = &cobra.Command{
	Use:               "lhs-sync",
	DisableAutoGenTag: true,
	SilenceUsage:      true,
	Short:             "LibreLinkUp glucose sync",
	Long: `lhs-sync follows a LibreLinkUp connection, forwards glucose readings it has not
seen before to the configured sink and keeps a live presentation of the latest value.`,
	Run: func(cmd *cobra.Command, _ []string) {
		// If no subcommand is provided, print help
		if err := cmd.Help(); err != nil {
			slog.Error("Error displaying help", "error", err)
		}
	},
}

func init() {
	viper.SetEnvPrefix(logging.EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	rootCmd.PersistentFlags().String("config", "", "Path to configuration file (YAML format, or LHS_CONFIG)")
	if err := viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config")); err != nil {
		slog.Error("Error binding config flag", "error", err)
	}

	versionCmd.Flags().String("format", "", "Output format (json)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(watermarkCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(versionCmd)
}

// NewRootCmd returns the root command with every subcommand attached
func NewRootCmd() *cobra.Command {
	return rootCmd
}

// loadConfig loads the file named by --config or LHS_CONFIG
func loadConfig() (*config.Config, error) {
	path := viper.GetString("config")
	if path == "" {
		return nil, fmt.Errorf("a configuration file is required: pass --config or set LHS_CONFIG")
	}

	cfg, err := config.LoadConfig(config.WithConfigPath(path))
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	slog.Debug("Loaded configuration", "path", path, "account", cfg.GetAccountName())
	return cfg, nil
}

// printJSON writes v as indented JSON to the command's stdout
func printJSON(cmd *cobra.Command, v any) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to format output as JSON: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(output))
	return err
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, _ []string) error {
		info := versions.GetVersionInfo()
		format, err := cmd.Flags().GetString("format")
		if err != nil {
			return fmt.Errorf("failed to get format flag: %w", err)
		}

		if format == "json" {
			return printJSON(cmd, info)
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "lhs-sync %s (commit %s, built %s, %s, %s)\n",
			info.Version, info.Commit, info.BuildDate, info.GoVersion, info.Platform)
		return err
	},
}
