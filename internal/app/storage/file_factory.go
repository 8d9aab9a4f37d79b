package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/lhs-project/libre-health-sync/internal/config"
	"github.com/lhs-project/libre-health-sync/internal/status"
	"github.com/lhs-project/libre-health-sync/internal/sync/state"
	"github.com/lhs-project/libre-health-sync/internal/sync/writer"
)

// FileFactory creates components persisting to plain files under the data directory
type FileFactory struct {
	config *config.Config
}

var _ Factory = (*FileFactory)(nil)

// NewFileFactory creates a file storage factory, ensuring the data directory exists
func NewFileFactory(cfg *config.Config) (*FileFactory, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	dataDir := cfg.Storage.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", dataDir, err)
	}

	slog.Info("Creating file-based storage factory", "data_dir", dataDir)
	return &FileFactory{config: cfg}, nil
}

// CreateWatermarkStore creates the YAML watermark store
func (f *FileFactory) CreateWatermarkStore(_ context.Context) (state.WatermarkStore, error) {
	return state.NewWatermarkStore(f.config, nil, nil)
}

// CreateReadingWriter creates the JSON lines sink
func (f *FileFactory) CreateReadingWriter(_ context.Context) (writer.ReadingWriter, error) {
	return writer.NewReadingWriter(f.config, nil, nil)
}

// CreateStatusPersistence creates the file status store
func (f *FileFactory) CreateStatusPersistence(_ context.Context) (status.StatusPersistence, error) {
	return status.NewFileStatusPersistence(statusDir(f.config)), nil
}

// Cleanup is a no-op for file storage
func (*FileFactory) Cleanup() {}
