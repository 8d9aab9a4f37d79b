package storage

import (
	"context"
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

// DatabaseFactory creates PostgreSQL-backed components sharing one pgx pool
type DatabaseFactory struct {
	config *config.Config
	pool   db.PgxPool
	once   gosync.Once
}

var _ Factory = (*DatabaseFactory)(nil)

// DatabaseFactoryOption configures the DatabaseFactory
type DatabaseFactoryOption func(*DatabaseFactory)

// WithPool injects the pool instead of connecting (for testing)
func WithPool(pool db.PgxPool) DatabaseFactoryOption {
	return func(f *DatabaseFactory) {
		f.pool = pool
	}
}

// NewDatabaseFactory applies migrations and opens the connection pool
func NewDatabaseFactory(ctx context.Context, cfg *config.Config, opts ...DatabaseFactoryOption) (*DatabaseFactory, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.Storage.Database == nil {
		return nil, fmt.Errorf("database configuration is required for database storage type")
	}

	factory := &DatabaseFactory{config: cfg}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.pool != nil {
		return factory, nil
	}

	slog.Info("Creating database-backed storage factory")

	if err := migrate(ctx, cfg.Storage.Database); err != nil {
		return nil, err
	}

	pool, err := db.NewPool(ctx, cfg.Storage.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection pool: %w", err)
	}
	factory.pool = pool
	return factory, nil
}

func migrate(ctx context.Context, dbCfg *config.DatabaseConfig) error {
	sqlDB, err := db.OpenPostgres(ctx, dbCfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := sqlDB.Close(); err != nil {
			slog.Error("Error closing migration connection", "error", err)
		}
	}()

	if err := database.MigrateUp(ctx, sqlDB, database.DialectPostgres); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// CreateWatermarkStore creates the Postgres watermark store
func (d *DatabaseFactory) CreateWatermarkStore(_ context.Context) (state.WatermarkStore, error) {
	return state.NewWatermarkStore(d.config, nil, d.pool)
}

// CreateReadingWriter creates the Postgres sink
func (d *DatabaseFactory) CreateReadingWriter(_ context.Context) (writer.ReadingWriter, error) {
	return writer.NewReadingWriter(d.config, nil, d.pool)
}

// CreateStatusPersistence creates the file status store
func (d *DatabaseFactory) CreateStatusPersistence(_ context.Context) (status.StatusPersistence, error) {
	return status.NewFileStatusPersistence(statusDir(d.config)), nil
}

// Cleanup closes the connection pool
func (d *DatabaseFactory) Cleanup() {
	d.once.Do(func() {
		slog.Debug("Closing database connection pool")
		d.pool.Close()
	})
}
