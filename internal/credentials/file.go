package credentials

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// DefaultFileName is the credentials file name under the XDG config directory
const DefaultFileName = "lhs-sync/credentials.yaml"

type fileStore struct {
	path    string
	account string
	mu      sync.Mutex
}

// fileContents maps account name to its entries
type fileContents map[string]map[Key]string

// DefaultFilePath returns $XDG_CONFIG_HOME/lhs-sync/credentials.yaml, creating the directory
func DefaultFilePath() (string, error) {
	path, err := xdg.ConfigFile(DefaultFileName)
	if err != nil {
		return "", fmt.Errorf("failed to resolve credentials path: %w", err)
	}
	return path, nil
}

// NewFileStore creates a Store backed by a YAML file readable only by the owner
func NewFileStore(path, account string) Store {
	return &fileStore{path: path, account: account}
}

func (f *fileStore) load() (fileContents, error) {
	// #nosec G304 -- path comes from configuration
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return fileContents{}, nil
		}
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	contents := fileContents{}
	if err := yaml.Unmarshal(data, &contents); err != nil {
		return nil, fmt.Errorf("failed to parse credentials file: %w", err)
	}
	return contents, nil
}

func (f *fileStore) save(contents fileContents) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return fmt.Errorf("failed to create credentials directory: %w", err)
	}

	data, err := yaml.Marshal(contents)
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	tempPath := f.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary credentials file: %w", err)
	}
	if err := os.Rename(tempPath, f.path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename credentials file: %w", err)
	}
	return nil
}

func (f *fileStore) Get(_ context.Context, key Key) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	contents, err := f.load()
	if err != nil {
		return "", err
	}
	value, ok := contents[f.account][key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

func (f *fileStore) Set(_ context.Context, key Key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	contents, err := f.load()
	if err != nil {
		return err
	}
	if contents[f.account] == nil {
		contents[f.account] = map[Key]string{}
	}
	contents[f.account][key] = value
	return f.save(contents)
}

func (f *fileStore) Delete(_ context.Context, key Key) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	contents, err := f.load()
	if err != nil {
		return err
	}
	if _, ok := contents[f.account][key]; !ok {
		return nil
	}
	delete(contents[f.account], key)
	if len(contents[f.account]) == 0 {
		delete(contents, f.account)
	}
	return f.save(contents)
}

func (f *fileStore) Clear(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	contents, err := f.load()
	if err != nil {
		return err
	}
	if _, ok := contents[f.account]; !ok {
		return nil
	}
	delete(contents, f.account)
	return f.save(contents)
}
