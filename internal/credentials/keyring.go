package credentials

import (
	"context"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// DefaultKeyringService is the keyring service name entries are stored under
const DefaultKeyringService = "libre-health-sync"

type keyringStore struct {
	service string
	account string
}

// NewKeyringStore creates a Store backed by the OS keyring.
// Entries are namespaced by account so several accounts can share one keyring service.
func NewKeyringStore(service, account string) Store {
	if service == "" {
		service = DefaultKeyringService
	}
	return &keyringStore{service: service, account: account}
}

func (k *keyringStore) user(key Key) string {
	return k.account + "/" + string(key)
}

func (k *keyringStore) Get(_ context.Context, key Key) (string, error) {
	value, err := keyring.Get(k.service, k.user(key))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to read %s from keyring: %w", key, err)
	}
	return value, nil
}

func (k *keyringStore) Set(_ context.Context, key Key, value string) error {
	if err := keyring.Set(k.service, k.user(key), value); err != nil {
		return fmt.Errorf("failed to write %s to keyring: %w", key, err)
	}
	return nil
}

func (k *keyringStore) Delete(_ context.Context, key Key) error {
	if err := keyring.Delete(k.service, k.user(key)); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete %s from keyring: %w", key, err)
	}
	return nil
}

func (k *keyringStore) Clear(ctx context.Context) error {
	return clearAll(ctx, k)
}
