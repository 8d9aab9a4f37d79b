// Package state contains the persisted sync watermark: the timestamp of the
// most recent reading already forwarded to the sink, kept per account.
package state

import (
	"context"
	"time"
)

// WatermarkStore persists the sync watermark per account.
//
//go:generate mockgen -destination=mocks/mock_watermark_store.go -package=mocks github.com/lhs-project/libre-health-sync/internal/sync/state WatermarkStore
type WatermarkStore interface {
	// GetWatermark returns the stored watermark. ok is false when none has been recorded.
	GetWatermark(ctx context.Context, account string) (watermark string, ok bool, err error)
	// SetWatermark overwrites the watermark of the account.
	SetWatermark(ctx context.Context, account, watermark string) error
	// ClearWatermark forgets the watermark so the next cycle forwards the full window.
	ClearWatermark(ctx context.Context, account string) error
}

// Entry is one stored watermark
type Entry struct {
	Watermark string    `yaml:"watermark"`
	UpdatedAt time.Time `yaml:"updatedAt"`
}
