package writer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/lhs-project/libre-health-sync/internal/db"
	"github.com/lhs-project/libre-health-sync/internal/llu"
)

const pgInsertReading = `INSERT INTO readings
    (id, account, factory_timestamp, measured_at, value_mg_dl, trend, external_id)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (account, factory_timestamp) DO NOTHING`

var pgTxOptions = pgx.TxOptions{
	IsoLevel:   pgx.ReadCommitted,
	AccessMode: pgx.ReadWrite,
}

// dbReadingWriter persists readings to PostgreSQL
type dbReadingWriter struct {
	pool db.PgxPool
}

// NewDBReadingWriter creates a PostgreSQL sink over the given pool.
// The caller is responsible for closing the pool when done.
func NewDBReadingWriter(pool db.PgxPool) (ReadingWriter, error) {
	if pool == nil {
		return nil, fmt.Errorf("pgx pool is required")
	}
	return &dbReadingWriter{pool: pool}, nil
}

// Write inserts the readings in a single transaction. Readings already stored
// for the account are left untouched and not counted.
func (d *dbReadingWriter) Write(ctx context.Context, account string, readings []llu.Reading) (int, error) {
	records := toRecords(account, readings)
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := d.pool.BeginTx(ctx, pgTxOptions)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			slog.Debug("Rollback after write", "error", rollbackErr)
		}
	}()

	inserted := 0
	for _, rec := range records {
		tag, err := tx.Exec(ctx, pgInsertReading,
			rec.ID, rec.Account, rec.FactoryTimestamp, rec.MeasuredAt, rec.ValueMgPerDl, int16(rec.Trend), rec.ExternalID)
		if err != nil {
			return 0, fmt.Errorf("failed to insert reading %s: %w", rec.FactoryTimestamp, err)
		}
		inserted += int(tag.RowsAffected())
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return inserted, nil
}
