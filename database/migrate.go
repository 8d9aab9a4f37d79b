// Package database holds the embedded schema migrations for reading storage.
package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// Dialect selects the migration set
type Dialect string

const (
	// DialectPostgres is the PostgreSQL migration set
	DialectPostgres Dialect = "postgres"
	// DialectSQLite is the SQLite migration set
	DialectSQLite Dialect = "sqlite"
)

func newProvider(db *sql.DB, dialect Dialect) (*goose.Provider, error) {
	var gooseDialect goose.Dialect
	switch dialect {
	case DialectPostgres:
		gooseDialect = goose.DialectPostgres
	case DialectSQLite:
		gooseDialect = goose.DialectSQLite3
	default:
		return nil, fmt.Errorf("unsupported migration dialect %q", dialect)
	}

	fsys, err := fs.Sub(migrationsFS, "migrations/"+string(dialect))
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	return goose.NewProvider(gooseDialect, db, fsys)
}

// MigrateUp applies every pending migration
func MigrateUp(ctx context.Context, db *sql.DB, dialect Dialect) error {
	provider, err := newProvider(db, dialect)
	if err != nil {
		return err
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	for _, r := range results {
		slog.Info("Applied migration", "dialect", dialect, "version", r.Source.Version, "duration", r.Duration)
	}
	return nil
}

// MigrateDown rolls back the most recent migration
func MigrateDown(ctx context.Context, db *sql.DB, dialect Dialect) error {
	provider, err := newProvider(db, dialect)
	if err != nil {
		return err
	}
	result, err := provider.Down(ctx)
	if err != nil {
		return fmt.Errorf("failed to roll back migration: %w", err)
	}
	if result != nil {
		slog.Info("Rolled back migration", "dialect", dialect, "version", result.Source.Version)
	}
	return nil
}

// Version returns the schema version recorded in the database
func Version(ctx context.Context, db *sql.DB, dialect Dialect) (int64, error) {
	provider, err := newProvider(db, dialect)
	if err != nil {
		return 0, err
	}
	return provider.GetDBVersion(ctx)
}
