// Package config provides configuration loading and management for the sync daemon.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/lhs-project/libre-health-sync/internal/llu"
	"github.com/lhs-project/libre-health-sync/internal/telemetry"
	"github.com/lhs-project/libre-health-sync/internal/versions"
)

const (
	// StorageTypeFile keeps readings and the watermark in local files
	StorageTypeFile = "file"

	// StorageTypeSQLite keeps readings and the watermark in a SQLite database
	StorageTypeSQLite = "sqlite"

	// StorageTypeDatabase keeps readings and the watermark in PostgreSQL
	StorageTypeDatabase = "database"
)

const (
	// CredentialsBackendKeyring stores credentials in the OS keyring
	CredentialsBackendKeyring = "keyring"

	// CredentialsBackendFile stores credentials in a 0600 YAML file
	CredentialsBackendFile = "file"

	// CredentialsBackendMemory keeps credentials for the lifetime of the process only
	CredentialsBackendMemory = "memory"
)

const (
	// SyncModeAuto runs continuously when the host grants it and falls back to single-shot otherwise
	SyncModeAuto = "auto"

	// SyncModeContinuous always runs the continuous loop
	SyncModeContinuous = "continuous"

	// SyncModeSingleShot always uses self-renewing single-shot invocations
	SyncModeSingleShot = "single-shot"
)

// AppDirName is the directory name used under XDG base directories
const AppDirName = "lhs-sync"

const (
	defaultAccountName        = "default"
	defaultProduct            = "llu.android"
	defaultClientVersion      = "4.16.0"
	defaultInterval           = time.Minute
	defaultFallbackDelay      = 2 * time.Minute
	defaultInvocationDeadline = 30 * time.Second
	defaultPresenterAddress   = ":8080"
)

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks to prevent symlink attacks.
		// Note that this calls filepath.Clean internally.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		if !filepath.IsAbs(realPath) {
			if !filepath.IsLocal(realPath) {
				return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
			}
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	Account     AccountConfig     `yaml:"account"`
	API         APIConfig         `yaml:"api,omitempty"`
	Sync        SyncConfig        `yaml:"sync,omitempty"`
	Credentials CredentialsConfig `yaml:"credentials,omitempty"`
	Storage     StorageConfig     `yaml:"storage,omitempty"`
	Presenter   PresenterConfig   `yaml:"presenter,omitempty"`
	Telemetry   *telemetry.Config `yaml:"telemetry,omitempty"`
}

// AccountConfig identifies the follower account being synced
type AccountConfig struct {
	// Name keys the watermark, the lock and the status of this account.
	// Defaults to "default"
	Name string `yaml:"name,omitempty"`

	// Region is the initial service region; a login redirect may replace it
	Region string `yaml:"region,omitempty"`

	// Email is the login identity used by the login command
	Email string `yaml:"email,omitempty"`

	// PasswordFile is the path to a file containing the account password
	PasswordFile string `yaml:"passwordFile,omitempty"`
}

// APIConfig tunes how the remote service is contacted
type APIConfig struct {
	// BaseURL overrides the per-region base URL (useful behind a proxy)
	BaseURL string `yaml:"baseURL,omitempty"`

	// Product is the value of the "product" header
	Product string `yaml:"product,omitempty"`

	// ClientVersion is the value of the "version" header
	ClientVersion string `yaml:"clientVersion,omitempty"`

	// Timeout bounds each HTTP call (e.g. "30s")
	Timeout string `yaml:"timeout,omitempty"`
}

// SyncConfig controls the background execution coordinator
type SyncConfig struct {
	// Mode is one of auto, continuous or single-shot
	Mode string `yaml:"mode,omitempty"`

	// Interval is the delay between cycles in continuous mode (e.g. "60s")
	Interval string `yaml:"interval,omitempty"`

	// FallbackDelay is the earliest delay of the next single-shot invocation (e.g. "2m")
	FallbackDelay string `yaml:"fallbackDelay,omitempty"`

	// InvocationDeadline bounds a single-shot invocation (e.g. "30s")
	InvocationDeadline string `yaml:"invocationDeadline,omitempty"`
}

// CredentialsConfig selects the credential store backend
type CredentialsConfig struct {
	// Backend is one of keyring, file or memory
	Backend string `yaml:"backend,omitempty"`

	// Path is the credentials file for the file backend
	Path string `yaml:"path,omitempty"`

	// Service is the keyring service name
	Service string `yaml:"service,omitempty"`
}

// StorageConfig selects where readings, the watermark and the sync status are kept
type StorageConfig struct {
	// Type is one of file, sqlite or database
	Type string `yaml:"type,omitempty"`

	// DataDir holds file storage, the SQLite database, lock files and status files
	DataDir string `yaml:"dataDir,omitempty"`

	// SQLitePath overrides the SQLite database location
	SQLitePath string `yaml:"sqlitePath,omitempty"`

	// Database configures PostgreSQL for the database storage type
	Database *DatabaseConfig `yaml:"database,omitempty"`
}

// PresenterConfig controls the live presentation and its HTTP surface
type PresenterConfig struct {
	// Enabled turns on the live presentation and the HTTP server
	Enabled bool `yaml:"enabled"`

	// Address is the HTTP listen address
	Address string `yaml:"address,omitempty"`

	// DisplayUnit is mg/dL or mmol/L
	DisplayUnit string `yaml:"displayUnit,omitempty"`

	// TokenFile holds the bearer token required on /api/v1 routes.
	// Without it (and without LHS_PRESENTER_TOKEN) the API is unauthenticated.
	TokenFile string `yaml:"tokenFile,omitempty"`
}

// DatabaseConfig defines database connection settings
type DatabaseConfig struct {
	// Host is the database server hostname or IP address
	Host string `yaml:"host"`

	// Port is the database server port
	Port int `yaml:"port"`

	// User is the database username
	User string `yaml:"user"`

	// PasswordFile is the path to a file containing the database password
	// The file should contain only the password with optional trailing whitespace
	PasswordFile string `yaml:"passwordFile,omitempty"`

	// Database is the database name
	Database string `yaml:"database"`

	// SSLMode is the SSL mode for the connection (disable, require, verify-ca, verify-full)
	SSLMode string `yaml:"sslMode,omitempty"`

	// MaxOpenConns is the maximum number of open connections to the database
	MaxOpenConns int32 `yaml:"maxOpenConns,omitempty"`

	// ConnMaxLifetime is the maximum lifetime of a connection (e.g., "1h", "30m")
	ConnMaxLifetime string `yaml:"connMaxLifetime,omitempty"`
}

// GetPassword returns the database password using the following priority:
// 1. Read from PasswordFile if specified
// 2. Read from LHS_DATABASE_PASSWORD environment variable
func (d *DatabaseConfig) GetPassword() (string, error) {
	if d.PasswordFile != "" {
		return readSecretFile(d.PasswordFile)
	}

	if envPassword := os.Getenv("LHS_DATABASE_PASSWORD"); envPassword != "" {
		return envPassword, nil
	}

	return "", fmt.Errorf(
		"no database password configured: set passwordFile or LHS_DATABASE_PASSWORD environment variable",
	)
}

// GetConnectionString builds a PostgreSQL connection string with proper password handling.
// The password is URL-escaped to handle special characters safely.
func (d *DatabaseConfig) GetConnectionString() (string, error) {
	password, err := d.GetPassword()
	if err != nil {
		return "", err
	}

	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "require"
	}

	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User,
		url.QueryEscape(password),
		d.Host,
		d.Port,
		d.Database,
		sslMode,
	), nil
}

// GetPassword returns the account password using the following priority:
// 1. Read from PasswordFile if specified
// 2. Read from LHS_ACCOUNT_PASSWORD environment variable
func (a *AccountConfig) GetPassword() (string, error) {
	if a.PasswordFile != "" {
		return readSecretFile(a.PasswordFile)
	}
	if envPassword := os.Getenv("LHS_ACCOUNT_PASSWORD"); envPassword != "" {
		return envPassword, nil
	}
	return "", fmt.Errorf(
		"no account password configured: set account.passwordFile or LHS_ACCOUNT_PASSWORD environment variable",
	)
}

func readSecretFile(path string) (string, error) {
	cleanPath := filepath.Clean(path)
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return "", fmt.Errorf("failed to read password from file %s: %w", path, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// LoadConfig loads and parses configuration from a YAML file
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	if loaderCfg.path == "" {
		return nil, fmt.Errorf("path is required")
	}

	data, err := os.ReadFile(loaderCfg.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// GetAccountName returns the account name, using "default" if not specified
func (c *Config) GetAccountName() string {
	if c.Account.Name == "" {
		return defaultAccountName
	}
	return c.Account.Name
}

// GetRegion returns the configured region, falling back to the default region
func (c *Config) GetRegion() llu.Region {
	if c.Account.Region == "" {
		return llu.DefaultRegion
	}
	region, err := llu.ParseRegion(c.Account.Region)
	if err != nil {
		return llu.DefaultRegion
	}
	return region
}

// GetProduct returns the product header value
func (a *APIConfig) GetProduct() string {
	if a.Product == "" {
		return defaultProduct
	}
	return a.Product
}

// GetClientVersion returns the version header value
func (a *APIConfig) GetClientVersion() string {
	if a.ClientVersion == "" {
		return defaultClientVersion
	}
	return a.ClientVersion
}

// GetTimeout returns the HTTP timeout, or 0 to let the client pick its default
func (a *APIConfig) GetTimeout() time.Duration {
	return parseDurationOr(a.Timeout, 0)
}

// GetMode returns the sync mode, defaulting to auto
func (s *SyncConfig) GetMode() string {
	if s.Mode == "" {
		return SyncModeAuto
	}
	return s.Mode
}

// GetInterval returns the continuous-mode interval
func (s *SyncConfig) GetInterval() time.Duration {
	return parseDurationOr(s.Interval, defaultInterval)
}

// GetFallbackDelay returns the single-shot earliest begin delay
func (s *SyncConfig) GetFallbackDelay() time.Duration {
	return parseDurationOr(s.FallbackDelay, defaultFallbackDelay)
}

// GetInvocationDeadline returns the single-shot deadline
func (s *SyncConfig) GetInvocationDeadline() time.Duration {
	return parseDurationOr(s.InvocationDeadline, defaultInvocationDeadline)
}

// GetBackend returns the credentials backend, defaulting to keyring
func (c *CredentialsConfig) GetBackend() string {
	if c.Backend == "" {
		return CredentialsBackendKeyring
	}
	return c.Backend
}

// GetType returns the storage type, defaulting to file
func (s *StorageConfig) GetType() string {
	if s.Type == "" {
		return StorageTypeFile
	}
	return s.Type
}

// GetDataDir returns the data directory, defaulting to $XDG_DATA_HOME/lhs-sync
func (s *StorageConfig) GetDataDir() string {
	if s.DataDir == "" {
		return filepath.Join(xdg.DataHome, AppDirName)
	}
	return s.DataDir
}

// GetSQLitePath returns the SQLite database path, defaulting to <dataDir>/readings.db
func (s *StorageConfig) GetSQLitePath() string {
	if s.SQLitePath == "" {
		return filepath.Join(s.GetDataDir(), "readings.db")
	}
	return s.SQLitePath
}

// GetAddress returns the presenter listen address
func (p *PresenterConfig) GetAddress() string {
	if p.Address == "" {
		return defaultPresenterAddress
	}
	return p.Address
}

// GetDisplayUnit returns the presentation unit
func (p *PresenterConfig) GetDisplayUnit() llu.DisplayUnit {
	unit, err := llu.ParseDisplayUnit(p.DisplayUnit)
	if err != nil {
		return llu.UnitMgPerDl
	}
	return unit
}

// GetToken returns the API bearer token using the following priority:
// 1. Read from TokenFile if specified
// 2. Read from LHS_PRESENTER_TOKEN environment variable
// An empty token disables API authentication.
func (p *PresenterConfig) GetToken() (string, error) {
	if p.TokenFile != "" {
		token, err := readSecretFile(p.TokenFile)
		if err != nil {
			return "", err
		}
		if token == "" {
			return "", fmt.Errorf("token file %s is empty", p.TokenFile)
		}
		return token, nil
	}
	return os.Getenv("LHS_PRESENTER_TOKEN"), nil
}

func parseDurationOr(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if c.Account.Region != "" {
		if _, err := llu.ParseRegion(c.Account.Region); err != nil {
			return fmt.Errorf("account.region: %w", err)
		}
	}

	if c.API.BaseURL != "" {
		u, err := url.Parse(c.API.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("api.baseURL must be an absolute URL: %q", c.API.BaseURL)
		}
	}

	if err := versions.CheckClientVersion(c.API.GetClientVersion()); err != nil {
		return fmt.Errorf("api.clientVersion: %w", err)
	}

	durations := map[string]string{
		"api.timeout":             c.API.Timeout,
		"sync.interval":           c.Sync.Interval,
		"sync.fallbackDelay":      c.Sync.FallbackDelay,
		"sync.invocationDeadline": c.Sync.InvocationDeadline,
	}
	for field, value := range durations {
		if err := validateDuration(field, value); err != nil {
			return err
		}
	}

	switch c.Sync.GetMode() {
	case SyncModeAuto, SyncModeContinuous, SyncModeSingleShot:
	default:
		return fmt.Errorf("sync.mode must be one of %s, %s, %s: got %q",
			SyncModeAuto, SyncModeContinuous, SyncModeSingleShot, c.Sync.Mode)
	}

	switch c.Credentials.GetBackend() {
	case CredentialsBackendKeyring, CredentialsBackendFile, CredentialsBackendMemory:
	default:
		return fmt.Errorf("credentials.backend must be one of %s, %s, %s: got %q",
			CredentialsBackendKeyring, CredentialsBackendFile, CredentialsBackendMemory, c.Credentials.Backend)
	}

	if err := c.validateStorage(); err != nil {
		return err
	}

	if _, err := llu.ParseDisplayUnit(c.Presenter.DisplayUnit); err != nil {
		return fmt.Errorf("presenter.displayUnit: %w", err)
	}

	return c.Telemetry.Validate()
}

func (c *Config) validateStorage() error {
	switch c.Storage.GetType() {
	case StorageTypeFile, StorageTypeSQLite:
		return nil
	case StorageTypeDatabase:
		db := c.Storage.Database
		if db == nil {
			return fmt.Errorf("storage.database is required when storage.type is %q", StorageTypeDatabase)
		}
		if db.Host == "" || db.Database == "" || db.User == "" {
			return fmt.Errorf("storage.database: host, user and database are required")
		}
		if db.Port <= 0 {
			return fmt.Errorf("storage.database.port must be positive")
		}
		return validateDuration("storage.database.connMaxLifetime", db.ConnMaxLifetime)
	default:
		return fmt.Errorf("storage.type must be one of %s, %s, %s: got %q",
			StorageTypeFile, StorageTypeSQLite, StorageTypeDatabase, c.Storage.Type)
	}
}

func validateDuration(field, value string) error {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("%s must be a valid duration (e.g., '30s', '2m'): %w", field, err)
	}
	if d <= 0 {
		return fmt.Errorf("%s must be positive", field)
	}
	return nil
}
