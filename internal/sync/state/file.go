package state

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// WatermarkFileName is the file the file store writes inside its directory
const WatermarkFileName = "watermarks.yaml"

type fileWatermarkStore struct {
	path string
	now  func() time.Time

	mu sync.Mutex
}

// NewFileWatermarkStore creates a watermark store backed by a YAML file in dir
func NewFileWatermarkStore(dir string) WatermarkStore {
	return &fileWatermarkStore{
		path: filepath.Join(dir, WatermarkFileName),
		now:  time.Now,
	}
}

func (f *fileWatermarkStore) GetWatermark(_ context.Context, account string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := f.load()
	if err != nil {
		return "", false, err
	}
	entry, ok := entries[account]
	if !ok {
		return "", false, nil
	}
	return entry.Watermark, true, nil
}

func (f *fileWatermarkStore) SetWatermark(_ context.Context, account, watermark string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := f.load()
	if err != nil {
		return err
	}
	entries[account] = Entry{Watermark: watermark, UpdatedAt: f.now().UTC()}
	return f.save(entries)
}

func (f *fileWatermarkStore) ClearWatermark(_ context.Context, account string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := f.load()
	if err != nil {
		return err
	}
	if _, ok := entries[account]; !ok {
		return nil
	}
	delete(entries, account)
	return f.save(entries)
}

func (f *fileWatermarkStore) load() (map[string]Entry, error) {
	entries := make(map[string]Entry)

	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return entries, nil
		}
		return nil, fmt.Errorf("failed to read watermark file: %w", err)
	}
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse watermark file: %w", err)
	}
	if entries == nil {
		entries = make(map[string]Entry)
	}
	return entries, nil
}

func (f *fileWatermarkStore) save(entries map[string]Entry) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o750); err != nil {
		return fmt.Errorf("failed to create watermark directory: %w", err)
	}

	data, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to marshal watermarks: %w", err)
	}

	tempPath := f.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write temporary watermark file: %w", err)
	}
	if err := os.Rename(tempPath, f.path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename watermark file: %w", err)
	}
	return nil
}
