// Package main is the entry point for the LibreLinkUp sync daemon.
package main

import (
	"log/slog"
	"os"

	"github.com/lhs-project/libre-health-sync/cmd/lhs-sync/app"
	"github.com/lhs-project/libre-health-sync/internal/logging"
)

func main() {
	// JSON logs go to stderr so stdout stays clean for command output
	logging.Setup(logging.LevelFromEnv())

	if err := app.NewRootCmd().Execute(); err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}
