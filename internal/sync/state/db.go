package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/lhs-project/libre-health-sync/internal/db"
)

const (
	pgSelectWatermark = `SELECT watermark FROM sync_watermarks WHERE account = $1`
	pgUpsertWatermark = `INSERT INTO sync_watermarks (account, watermark, updated_at) VALUES ($1, $2, now())
ON CONFLICT (account) DO UPDATE SET watermark = EXCLUDED.watermark, updated_at = EXCLUDED.updated_at`
	pgDeleteWatermark = `DELETE FROM sync_watermarks WHERE account = $1`
)

type dbWatermarkStore struct {
	pool db.PgxPool
}

// NewDBWatermarkStore creates a PostgreSQL-backed watermark store
func NewDBWatermarkStore(pool db.PgxPool) WatermarkStore {
	return &dbWatermarkStore{pool: pool}
}

func (d *dbWatermarkStore) GetWatermark(ctx context.Context, account string) (string, bool, error) {
	var watermark string
	err := d.pool.QueryRow(ctx, pgSelectWatermark, account).Scan(&watermark)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read watermark: %w", err)
	}
	return watermark, true, nil
}

func (d *dbWatermarkStore) SetWatermark(ctx context.Context, account, watermark string) error {
	if _, err := d.pool.Exec(ctx, pgUpsertWatermark, account, watermark); err != nil {
		return fmt.Errorf("failed to store watermark: %w", err)
	}
	return nil
}

func (d *dbWatermarkStore) ClearWatermark(ctx context.Context, account string) error {
	if _, err := d.pool.Exec(ctx, pgDeleteWatermark, account); err != nil {
		return fmt.Errorf("failed to clear watermark: %w", err)
	}
	return nil
}
