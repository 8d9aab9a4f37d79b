package state

import (
	"database/sql"
	"fmt"

	"github.com/lhs-project/libre-health-sync/internal/config"
	"github.com/lhs-project/libre-health-sync/internal/db"
)

// NewWatermarkStore creates a WatermarkStore based on the configured storage type.
//
// File storage keeps a YAML file under the data directory. SQLite storage needs
// sqliteDB and database storage needs pool; a nil handle for the configured
// type is an error.
func NewWatermarkStore(cfg *config.Config, sqliteDB *sql.DB, pool db.PgxPool) (WatermarkStore, error) {
	switch cfg.Storage.GetType() {
	case config.StorageTypeDatabase:
		if pool == nil {
			return nil, fmt.Errorf("database pool is required when storage type is database")
		}
		return NewDBWatermarkStore(pool), nil
	case config.StorageTypeSQLite:
		if sqliteDB == nil {
			return nil, fmt.Errorf("sqlite database is required when storage type is sqlite")
		}
		return NewSQLiteWatermarkStore(sqliteDB), nil
	default:
		return NewFileWatermarkStore(cfg.Storage.GetDataDir()), nil
	}
}
