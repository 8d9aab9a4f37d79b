package state

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileWatermarkStore_RoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := NewFileWatermarkStore(dir)
	ctx := context.Background()

	_, ok, err := store.GetWatermark(ctx, "default")
	require.NoError(t, err)
	assert.False(t, ok, "no watermark before the first cycle")

	require.NoError(t, store.SetWatermark(ctx, "default", "1/2/2024 3:04:05 PM"))
	require.NoError(t, store.SetWatermark(ctx, "other", "1/1/2024 1:00:00 AM"))

	got, ok, err := store.GetWatermark(ctx, "default")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1/2/2024 3:04:05 PM", got)

	// A fresh store on the same directory sees the persisted value.
	reopened := NewFileWatermarkStore(dir)
	got, ok, err = reopened.GetWatermark(ctx, "other")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1/1/2024 1:00:00 AM", got)

	info, err := os.Stat(filepath.Join(dir, WatermarkFileName))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileWatermarkStore_Clear(t *testing.T) {
	t.Parallel()

	store := NewFileWatermarkStore(t.TempDir())
	ctx := context.Background()

	require.NoError(t, store.ClearWatermark(ctx, "default"), "clearing a missing watermark is a no-op")
	require.NoError(t, store.SetWatermark(ctx, "default", "1/2/2024 3:04:05 PM"))
	require.NoError(t, store.SetWatermark(ctx, "other", "1/2/2024 3:04:05 PM"))
	require.NoError(t, store.ClearWatermark(ctx, "default"))

	_, ok, err := store.GetWatermark(ctx, "default")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = store.GetWatermark(ctx, "other")
	require.NoError(t, err)
	assert.True(t, ok, "other accounts are untouched")
}

func TestFileWatermarkStore_UpdatedAt(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fixed := time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC)
	store := &fileWatermarkStore{path: filepath.Join(dir, WatermarkFileName), now: func() time.Time { return fixed }}

	require.NoError(t, store.SetWatermark(context.Background(), "default", "w"))
	entries, err := store.load()
	require.NoError(t, err)
	assert.True(t, fixed.Equal(entries["default"].UpdatedAt))
}

func TestFileWatermarkStore_CorruptFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, WatermarkFileName), []byte("default: [unterminated"), 0o600))

	_, _, err := NewFileWatermarkStore(dir).GetWatermark(context.Background(), "default")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse watermark file")
}

func TestFileWatermarkStore_ConcurrentWriters(t *testing.T) {
	t.Parallel()

	store := NewFileWatermarkStore(t.TempDir())
	ctx := context.Background()

	var wg sync.WaitGroup
	for _, account := range []string{"a", "b", "c", "d"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, store.SetWatermark(ctx, account, account+"-w"))
		}()
	}
	wg.Wait()

	for _, account := range []string{"a", "b", "c", "d"} {
		got, ok, err := store.GetWatermark(ctx, account)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, account+"-w", got)
	}
}
