package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const (
	sqliteSelectWatermark = `SELECT watermark FROM sync_watermarks WHERE account = ?`
	sqliteUpsertWatermark = `INSERT INTO sync_watermarks (account, watermark, updated_at) VALUES (?, ?, ?)
ON CONFLICT (account) DO UPDATE SET watermark = excluded.watermark, updated_at = excluded.updated_at`
	sqliteDeleteWatermark = `DELETE FROM sync_watermarks WHERE account = ?`
)

type sqliteWatermarkStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteWatermarkStore creates a watermark store on a migrated SQLite database
func NewSQLiteWatermarkStore(sqlDB *sql.DB) WatermarkStore {
	return &sqliteWatermarkStore{db: sqlDB, now: time.Now}
}

func (s *sqliteWatermarkStore) GetWatermark(ctx context.Context, account string) (string, bool, error) {
	var watermark string
	err := s.db.QueryRowContext(ctx, sqliteSelectWatermark, account).Scan(&watermark)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read watermark: %w", err)
	}
	return watermark, true, nil
}

func (s *sqliteWatermarkStore) SetWatermark(ctx context.Context, account, watermark string) error {
	updatedAt := s.now().UTC().Format(time.RFC3339)
	if _, err := s.db.ExecContext(ctx, sqliteUpsertWatermark, account, watermark, updatedAt); err != nil {
		return fmt.Errorf("failed to store watermark: %w", err)
	}
	return nil
}

func (s *sqliteWatermarkStore) ClearWatermark(ctx context.Context, account string) error {
	if _, err := s.db.ExecContext(ctx, sqliteDeleteWatermark, account); err != nil {
		return fmt.Errorf("failed to clear watermark: %w", err)
	}
	return nil
}
