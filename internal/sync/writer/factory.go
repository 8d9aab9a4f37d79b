package writer

import (
	"database/sql"
	"fmt"
	"path/filepath"

	"github.com/lhs-project/libre-health-sync/internal/config"
	"github.com/lhs-project/libre-health-sync/internal/db"
)

// NewReadingWriter creates a ReadingWriter based on the configured storage type.
//
// File storage appends JSON lines under <dataDir>/readings. SQLite storage needs
// sqliteDB and database storage needs pool; a nil handle for the configured type
// is an error.
func NewReadingWriter(cfg *config.Config, sqliteDB *sql.DB, pool db.PgxPool) (ReadingWriter, error) {
	switch cfg.Storage.GetType() {
	case config.StorageTypeDatabase:
		if pool == nil {
			return nil, fmt.Errorf("database pool is required when storage type is database")
		}
		return NewDBReadingWriter(pool)
	case config.StorageTypeSQLite:
		if sqliteDB == nil {
			return nil, fmt.Errorf("sqlite database is required when storage type is sqlite")
		}
		return NewSQLiteReadingWriter(sqliteDB)
	default:
		return NewFileReadingWriter(filepath.Join(cfg.Storage.GetDataDir(), "readings")), nil
	}
}
