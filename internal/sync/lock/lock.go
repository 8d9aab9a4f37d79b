// Package lock provides the single sync authority per account: at most one
// cycle runs for an account at a time, within this process and across
// processes sharing the data directory.
package lock

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
)

// ErrBusy is returned by Acquire when another cycle holds the lock
var ErrBusy = errors.New("another sync cycle is already running for this account")

var (
	processLocksMu sync.Mutex
	processLocks   = make(map[string]*sync.Mutex)
)

// processLock returns the in-process mutex guarding path
func processLock(path string) *sync.Mutex {
	processLocksMu.Lock()
	defer processLocksMu.Unlock()
	mu, ok := processLocks[path]
	if !ok {
		mu = &sync.Mutex{}
		processLocks[path] = mu
	}
	return mu
}

// AccountLock is the sync authority for one account
type AccountLock struct {
	path string
	mu   *sync.Mutex
}

// New returns the lock for account under dataDir
func New(dataDir, account string) *AccountLock {
	sum := sha256.Sum256([]byte(account))
	path := filepath.Join(dataDir, "locks", hex.EncodeToString(sum[:])+".lock")
	return &AccountLock{path: path, mu: processLock(path)}
}

// Path is the lock file location
func (l *AccountLock) Path() string {
	return l.path
}

// TryAcquire takes the lock without waiting. ok is false when another holder
// has it. release must be called exactly once when ok is true.
func (l *AccountLock) TryAcquire() (release func(), ok bool, err error) {
	if !l.mu.TryLock() {
		return nil, false, nil
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0o750); err != nil {
		l.mu.Unlock()
		return nil, false, fmt.Errorf("failed to create lock directory: %w", err)
	}

	fl := flock.New(l.path)
	locked, err := fl.TryLock()
	if err != nil {
		l.mu.Unlock()
		return nil, false, fmt.Errorf("failed to lock %s: %w", l.path, err)
	}
	if !locked {
		l.mu.Unlock()
		return nil, false, nil
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			_ = fl.Unlock()
			l.mu.Unlock()
		})
	}, true, nil
}

// Acquire is TryAcquire returning ErrBusy when the lock is held elsewhere
func (l *AccountLock) Acquire() (func(), error) {
	release, ok, err := l.TryAcquire()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrBusy
	}
	return release, nil
}
