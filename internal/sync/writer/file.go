package writer

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/lhs-project/libre-health-sync/internal/llu"
)

// fileReadingWriter appends readings as JSON lines, one file per account
type fileReadingWriter struct {
	dir string

	mu   sync.Mutex
	seen map[string]map[string]struct{}
}

// NewFileReadingWriter creates a JSONL sink writing <dir>/<account>.jsonl
func NewFileReadingWriter(dir string) ReadingWriter {
	return &fileReadingWriter{
		dir:  dir,
		seen: make(map[string]map[string]struct{}),
	}
}

func (f *fileReadingWriter) path(account string) (string, error) {
	if account == "" || account != filepath.Base(account) || account == "." || account == ".." {
		return "", fmt.Errorf("invalid account name %q", account)
	}
	return filepath.Join(f.dir, account+".jsonl"), nil
}

func (f *fileReadingWriter) Write(_ context.Context, account string, readings []llu.Reading) (int, error) {
	path, err := f.path(account)
	if err != nil {
		return 0, err
	}
	records := toRecords(account, readings)
	if len(records) == 0 {
		return 0, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	seen, err := f.stored(account, path)
	if err != nil {
		return 0, err
	}

	if err := os.MkdirAll(f.dir, 0o750); err != nil {
		return 0, fmt.Errorf("failed to create readings directory: %w", err)
	}
	// #nosec G304 -- path is dir plus a validated single path element
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return 0, fmt.Errorf("failed to open readings file: %w", err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	enc := json.NewEncoder(w)
	var written []string
	for _, rec := range records {
		if _, ok := seen[rec.FactoryTimestamp]; ok {
			continue
		}
		if err := enc.Encode(rec); err != nil {
			return 0, fmt.Errorf("failed to encode reading %s: %w", rec.FactoryTimestamp, err)
		}
		written = append(written, rec.FactoryTimestamp)
	}
	if err := w.Flush(); err != nil {
		return 0, fmt.Errorf("failed to write readings file: %w", err)
	}
	if err := file.Sync(); err != nil {
		return 0, fmt.Errorf("failed to sync readings file: %w", err)
	}

	for _, ts := range written {
		seen[ts] = struct{}{}
	}
	return len(written), nil
}

// stored returns the timestamps already in the account file, reading it once per process
func (f *fileReadingWriter) stored(account, path string) (map[string]struct{}, error) {
	if seen, ok := f.seen[account]; ok {
		return seen, nil
	}

	seen := make(map[string]struct{})
	// #nosec G304 -- path is dir plus a validated single path element
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			f.seen[account] = seen
			return seen, nil
		}
		return nil, fmt.Errorf("failed to open readings file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var rec Record
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			return nil, fmt.Errorf("failed to parse readings file: %w", err)
		}
		seen[rec.FactoryTimestamp] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read readings file: %w", err)
	}

	f.seen[account] = seen
	return seen, nil
}
