package writer

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lhs-project/libre-health-sync/internal/llu"
)

const sqliteInsertReading = `INSERT INTO readings
    (id, account, factory_timestamp, measured_at, value_mg_dl, trend, external_id)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (account, factory_timestamp) DO NOTHING`

// sqliteReadingWriter persists readings to a migrated SQLite database
type sqliteReadingWriter struct {
	db *sql.DB
}

// NewSQLiteReadingWriter creates a SQLite sink
func NewSQLiteReadingWriter(sqlDB *sql.DB) (ReadingWriter, error) {
	if sqlDB == nil {
		return nil, fmt.Errorf("sqlite database is required")
	}
	return &sqliteReadingWriter{db: sqlDB}, nil
}

func (s *sqliteReadingWriter) Write(ctx context.Context, account string, readings []llu.Reading) (int, error) {
	records := toRecords(account, readings)
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, sqliteInsertReading)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, rec := range records {
		res, err := stmt.ExecContext(ctx,
			rec.ID.String(), rec.Account, rec.FactoryTimestamp, rec.MeasuredAt.UTC().Format(time.RFC3339),
			rec.ValueMgPerDl, int(rec.Trend), rec.ExternalID)
		if err != nil {
			return 0, fmt.Errorf("failed to insert reading %s: %w", rec.FactoryTimestamp, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to read insert result: %w", err)
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return inserted, nil
}
