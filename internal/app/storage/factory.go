// Package storage creates the storage-dependent components of the sync daemon
// as a family, so the watermark store and the reading sink always share one backend.
package storage

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/lhs-project/libre-health-sync/internal/config"
	"github.com/lhs-project/libre-health-sync/internal/status"
	"github.com/lhs-project/libre-health-sync/internal/sync/state"
	"github.com/lhs-project/libre-health-sync/internal/sync/writer"
)

//go:generate mockgen -destination=mocks/mock_factory.go -package=mocks -source=factory.go Factory

// Factory creates storage-dependent components and owns their resources
type Factory interface {
	// CreateWatermarkStore creates the store the pipeline reads and advances the watermark in
	CreateWatermarkStore(ctx context.Context) (state.WatermarkStore, error)

	// CreateReadingWriter creates the sink new readings are forwarded to
	CreateReadingWriter(ctx context.Context) (writer.ReadingWriter, error)

	// CreateStatusPersistence creates the store for per-account sync status
	CreateStatusPersistence(ctx context.Context) (status.StatusPersistence, error)

	// Cleanup releases database handles. It is safe to call more than once.
	Cleanup()
}

// NewStorageFactory creates the factory for the configured storage type
func NewStorageFactory(ctx context.Context, cfg *config.Config) (Factory, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	switch cfg.Storage.GetType() {
	case config.StorageTypeDatabase:
		return NewDatabaseFactory(ctx, cfg)
	case config.StorageTypeSQLite:
		return NewSQLiteFactory(ctx, cfg)
	case config.StorageTypeFile:
		return NewFileFactory(cfg)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Storage.GetType())
	}
}

// statusDir is where every backend keeps status files
func statusDir(cfg *config.Config) string {
	return filepath.Join(cfg.Storage.GetDataDir(), "status")
}
