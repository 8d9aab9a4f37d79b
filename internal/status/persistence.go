// Package status provides sync status tracking and persistence per account.
package status

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const (
	// StatusFileName is the name of the status file
	StatusFileName = "status.json"
)

// StatusPersistence defines the interface for sync status persistence
//
//nolint:revive // This name is fine
type StatusPersistence interface {
	// SaveStatus saves the sync status for an account
	SaveStatus(ctx context.Context, account string, status *SyncStatus) error

	// LoadStatus loads the sync status for an account.
	// Returns an empty SyncStatus if nothing was saved yet (first run)
	LoadStatus(ctx context.Context, account string) (*SyncStatus, error)

	// DeleteStatus forgets the status of an account
	DeleteStatus(ctx context.Context, account string) error
}

// fileStatusPersistence implements StatusPersistence using local filesystem
type fileStatusPersistence struct {
	basePath string
}

// NewFileStatusPersistence creates a new file-based status persistence.
// basePath is the base directory where per-account status files will be stored
func NewFileStatusPersistence(basePath string) StatusPersistence {
	return &fileStatusPersistence{
		basePath: basePath,
	}
}

func (f *fileStatusPersistence) path(account string) (string, error) {
	if account == "" || account != filepath.Base(account) || account == "." || account == ".." {
		return "", fmt.Errorf("invalid account name %q", account)
	}
	return filepath.Join(f.basePath, account, StatusFileName), nil
}

// SaveStatus saves the sync status to a JSON file in an account-specific directory
func (f *fileStatusPersistence) SaveStatus(_ context.Context, account string, status *SyncStatus) error {
	filePath, err := f.path(account)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0750); err != nil {
		return fmt.Errorf("failed to create status directory for account '%s': %w", account, err)
	}

	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal status data for account '%s': %w", account, err)
	}

	tempPath := filePath + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary status file for account '%s': %w", account, err)
	}

	if err := os.Rename(tempPath, filePath); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename status file for account '%s': %w", account, err)
	}

	return nil
}

// LoadStatus loads the sync status from a JSON file for an account
func (f *fileStatusPersistence) LoadStatus(_ context.Context, account string) (*SyncStatus, error) {
	filePath, err := f.path(account)
	if err != nil {
		return nil, err
	}

	// #nosec G304 -- filePath is basePath plus a validated single path element
	data, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &SyncStatus{}, nil
		}
		return nil, fmt.Errorf("failed to read status file for account '%s': %w", account, err)
	}

	var status SyncStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("failed to unmarshal status data for account '%s': %w", account, err)
	}

	return &status, nil
}

// DeleteStatus removes the account's status directory
func (f *fileStatusPersistence) DeleteStatus(_ context.Context, account string) error {
	filePath, err := f.path(account)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(filepath.Dir(filePath)); err != nil {
		return fmt.Errorf("failed to delete status for account '%s': %w", account, err)
	}
	return nil
}

// memoryStatusPersistence keeps statuses in process memory
type memoryStatusPersistence struct {
	mu       sync.RWMutex
	statuses map[string]*SyncStatus
}

// NewMemoryStatusPersistence creates a status persistence that does not survive the process
func NewMemoryStatusPersistence() StatusPersistence {
	return &memoryStatusPersistence{statuses: make(map[string]*SyncStatus)}
}

func (m *memoryStatusPersistence) SaveStatus(_ context.Context, account string, status *SyncStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses[account] = status.Clone()
	return nil
}

func (m *memoryStatusPersistence) LoadStatus(_ context.Context, account string) (*SyncStatus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.statuses[account]; ok {
		return s.Clone(), nil
	}
	return &SyncStatus{}, nil
}

func (m *memoryStatusPersistence) DeleteStatus(_ context.Context, account string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.statuses, account)
	return nil
}
