// Package credentials persists the follower account's login material and session token.
//
// Three backends are provided: the operating system keyring, a 0600 YAML file under the
// XDG config directory, and an in-memory map. All of them survive nothing more than what
// their medium survives; the keyring and file stores persist across restarts.
package credentials

import (
	"context"
	"errors"
)

// Key names an entry in the credential store
type Key string

// Credential entries
const (
	KeyIdentity  Key = "identity"
	KeySecret    Key = "secret"
	KeyToken     Key = "token"
	KeyAccountID Key = "account_id"
	KeyRegion    Key = "region"
)

// AllKeys lists every key a logout must remove
var AllKeys = []Key{KeyIdentity, KeySecret, KeyToken, KeyAccountID, KeyRegion}

// ErrNotFound is returned by Get when the key has no value
var ErrNotFound = errors.New("credential not found")

// Store is a small key-value store for secrets
type Store interface {
	// Get returns the value for key, or ErrNotFound
	Get(ctx context.Context, key Key) (string, error)

	// Set stores value under key
	Set(ctx context.Context, key Key, value string) error

	// Delete removes key; deleting a missing key is not an error
	Delete(ctx context.Context, key Key) error

	// Clear removes every key in AllKeys
	Clear(ctx context.Context) error
}

// clearAll deletes every known key, returning the first error after attempting all of them
func clearAll(ctx context.Context, s Store) error {
	var errs []error
	for _, key := range AllKeys {
		if err := s.Delete(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
