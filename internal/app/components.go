package app

import (
	"github.com/lhs-project/libre-health-sync/internal/presenter"
	"github.com/lhs-project/libre-health-sync/internal/session"
	"github.com/lhs-project/libre-health-sync/internal/status"
	"github.com/lhs-project/libre-health-sync/internal/sync/coordinator"
	"github.com/lhs-project/libre-health-sync/internal/sync/state"
	"github.com/lhs-project/libre-health-sync/internal/telemetry"
)

// AppComponents groups all application components
//
//nolint:revive // This name is fine
type AppComponents struct {
	// SyncCoordinator runs cycles in continuous or single-shot mode
	SyncCoordinator coordinator.Coordinator

	// Scheduler is the in-process host for single-shot invocations
	Scheduler *coordinator.TimerScheduler

	// Session authenticates against the remote service (nil when a sync manager is injected)
	Session *session.Manager

	// Watermarks is the store the pipeline advances
	Watermarks state.WatermarkStore

	// Statuses persists the per-account sync status
	Statuses status.StatusPersistence

	// Presenter is the live presentation (nil when disabled)
	Presenter *presenter.Live

	// Telemetry owns the providers created by the builder (nil when injected)
	Telemetry *telemetry.Telemetry
}
