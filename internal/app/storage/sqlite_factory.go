package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	gosync "sync"

	"github.com/lhs-project/libre-health-sync/database"
	"github.com/lhs-project/libre-health-sync/internal/config"
	"github.com/lhs-project/libre-health-sync/internal/db"
	"github.com/lhs-project/libre-health-sync/internal/status"
	"github.com/lhs-project/libre-health-sync/internal/sync/state"
	"github.com/lhs-project/libre-health-sync/internal/sync/writer"
)

// SQLiteFactory creates components backed by one migrated SQLite database
type SQLiteFactory struct {
	config *config.Config
	db     *sql.DB
	once   gosync.Once
}

var _ Factory = (*SQLiteFactory)(nil)

// NewSQLiteFactory opens the SQLite database and applies pending migrations
func NewSQLiteFactory(ctx context.Context, cfg *config.Config) (*SQLiteFactory, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	path := cfg.Storage.GetSQLitePath()
	slog.Info("Creating SQLite storage factory", "path", path)

	sqlDB, err := db.OpenSQLite(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := database.MigrateUp(ctx, sqlDB, database.DialectSQLite); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate sqlite database: %w", err)
	}

	return &SQLiteFactory{config: cfg, db: sqlDB}, nil
}

// DB returns the underlying handle
func (f *SQLiteFactory) DB() *sql.DB {
	return f.db
}

// CreateWatermarkStore creates the SQLite watermark store
func (f *SQLiteFactory) CreateWatermarkStore(_ context.Context) (state.WatermarkStore, error) {
	return state.NewWatermarkStore(f.config, f.db, nil)
}

// CreateReadingWriter creates the SQLite sink
func (f *SQLiteFactory) CreateReadingWriter(_ context.Context) (writer.ReadingWriter, error) {
	return writer.NewReadingWriter(f.config, f.db, nil)
}

// CreateStatusPersistence creates the file status store
func (f *SQLiteFactory) CreateStatusPersistence(_ context.Context) (status.StatusPersistence, error) {
	return status.NewFileStatusPersistence(statusDir(f.config)), nil
}

// Cleanup closes the database
func (f *SQLiteFactory) Cleanup() {
	f.once.Do(func() {
		if err := f.db.Close(); err != nil {
			slog.Error("Failed to close sqlite database", "error", err)
		}
	})
}
