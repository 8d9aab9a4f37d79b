package app

import (
	"fmt"
	"time"

	"github.com/lhs-project/libre-health-sync/internal/config"
	"github.com/lhs-project/libre-health-sync/internal/credentials"
	"github.com/lhs-project/libre-health-sync/internal/httpclient"
	"github.com/lhs-project/libre-health-sync/internal/session"
)

// NewCredentialStore creates the credential store selected by the configuration
func NewCredentialStore(cfg *config.Config) (credentials.Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	account := cfg.GetAccountName()
	switch cfg.Credentials.GetBackend() {
	case config.CredentialsBackendKeyring:
		return credentials.NewKeyringStore(cfg.Credentials.Service, account), nil
	case config.CredentialsBackendFile:
		path := cfg.Credentials.Path
		if path == "" {
			var err error
			if path, err = credentials.DefaultFilePath(); err != nil {
				return nil, err
			}
		}
		return credentials.NewFileStore(path, account), nil
	case config.CredentialsBackendMemory:
		return credentials.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown credentials backend: %s", cfg.Credentials.GetBackend())
	}
}

// NewSessionManager creates the session manager for the configured account.
// A nil client gets the default instrumented HTTP client.
func NewSessionManager(cfg *config.Config, store credentials.Store, client httpclient.Client) *session.Manager {
	if client == nil {
		client = httpclient.NewDefaultClient(cfg.API.GetTimeout())
	}

	opts := []session.Option{
		session.WithClientInfo(cfg.API.GetProduct(), cfg.API.GetClientVersion()),
		session.WithDefaultRegion(cfg.GetRegion()),
		session.WithClock(time.Now),
	}
	if cfg.API.BaseURL != "" {
		opts = append(opts, session.WithEndpoint(session.StaticEndpoint(cfg.API.BaseURL)))
	}
	return session.New(client, store, opts...)
}
