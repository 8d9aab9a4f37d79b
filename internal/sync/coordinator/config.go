package coordinator

import (
	"time"

	"github.com/lhs-project/libre-health-sync/internal/config"
)

// Execution modes
const (
	ModeAuto       = config.SyncModeAuto
	ModeContinuous = config.SyncModeContinuous
	ModeSingleShot = config.SyncModeSingleShot
)

// Config holds the coordinator settings for one account
type Config struct {
	Account string
	Mode    string

	// Interval is the wait between continuous cycles
	Interval time.Duration

	// FallbackDelay is the earliest start of the next single-shot invocation
	FallbackDelay time.Duration

	// DataDir holds the sync lock files. Empty disables the cross-process lock.
	DataDir string
}

// ConfigFromSync builds the coordinator config from the application config
func ConfigFromSync(cfg *config.Config) Config {
	return Config{
		Account:       cfg.GetAccountName(),
		Mode:          cfg.Sync.GetMode(),
		Interval:      cfg.Sync.GetInterval(),
		FallbackDelay: cfg.Sync.GetFallbackDelay(),
		DataDir:       cfg.Storage.GetDataDir(),
	}
}

// resolveMode picks the mode Start runs in
func resolveMode(mode string, grant ExecutionGrant) string {
	switch mode {
	case ModeContinuous, ModeSingleShot:
		return mode
	}
	if grant == nil || grant.ContinuousAllowed() {
		return ModeContinuous
	}
	return ModeSingleShot
}
