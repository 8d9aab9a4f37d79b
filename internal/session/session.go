package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/singleflight"

	"github.com/lhs-project/libre-health-sync/internal/credentials"
	"github.com/lhs-project/libre-health-sync/internal/httpclient"
	"github.com/lhs-project/libre-health-sync/internal/llu"
)

const (
	// LoginPath is the unauthenticated login endpoint
	LoginPath = "/llu/auth/login"

	// DefaultMaxRedirects bounds how many region redirects a login follows
	DefaultMaxRedirects = 3

	// DefaultProduct is the value of the "product" header
	DefaultProduct = "llu.android"

	// DefaultClientVersion is the value of the "version" header
	DefaultClientVersion = "4.16.0"
)

// State is the lifecycle state of a session
type State int

const (
	// StateEmpty means no token is held
	StateEmpty State = iota
	// StateAuthenticated means a token is held and has not been rejected
	StateAuthenticated
	// StateExpired means the token was rejected or its expiry has passed
	StateExpired
)

func (s State) String() string {
	switch s {
	case StateAuthenticated:
		return "Authenticated"
	case StateExpired:
		return "Expired"
	default:
		return "Empty"
	}
}

// EndpointFunc resolves the base URL for a region
type EndpointFunc func(region llu.Region) (string, error)

// RegionEndpoint resolves the public base URL of a region
func RegionEndpoint(region llu.Region) (string, error) {
	base := region.BaseURL()
	if base == "" {
		return "", fmt.Errorf("%w: no endpoint for region %q", llu.ErrInvalidURL, region)
	}
	return base, nil
}

// StaticEndpoint sends every region to the same base URL
func StaticEndpoint(baseURL string) EndpointFunc {
	trimmed := strings.TrimRight(baseURL, "/")
	return func(llu.Region) (string, error) {
		if trimmed == "" {
			return "", llu.ErrInvalidURL
		}
		return trimmed, nil
	}
}

// LoginResult describes a successful login
type LoginResult struct {
	AccountID string
	Token     string
	Region    llu.Region
	User      *llu.UserInfo
}

// Manager is the single authority over one account's session
type Manager struct {
	client        httpclient.Client
	store         credentials.Store
	endpoint      EndpointFunc
	product       string
	clientVersion string
	maxRedirects  int
	defaultRegion llu.Region
	now           func() time.Time

	mu        sync.Mutex
	loaded    bool
	region    llu.Region
	token     string
	accountID string
	expired   bool

	relogins singleflight.Group
}

// Option configures a Manager
type Option func(*Manager)

// WithEndpoint overrides region to base URL resolution
func WithEndpoint(fn EndpointFunc) Option {
	return func(m *Manager) {
		m.endpoint = fn
	}
}

// WithClientInfo sets the product and version identification headers
func WithClientInfo(product, version string) Option {
	return func(m *Manager) {
		if product != "" {
			m.product = product
		}
		if version != "" {
			m.clientVersion = version
		}
	}
}

// WithMaxRedirects bounds login redirect following
func WithMaxRedirects(n int) Option {
	return func(m *Manager) {
		m.maxRedirects = n
	}
}

// WithDefaultRegion sets the region used when none has been stored
func WithDefaultRegion(region llu.Region) Option {
	return func(m *Manager) {
		m.defaultRegion = region
	}
}

// WithClock overrides the time source used for token expiry checks
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// New creates a Manager in the Empty state. Persisted credentials are loaded on first use.
func New(client httpclient.Client, store credentials.Store, opts ...Option) *Manager {
	m := &Manager{
		client:        client,
		store:         store,
		endpoint:      RegionEndpoint,
		product:       DefaultProduct,
		clientVersion: DefaultClientVersion,
		maxRedirects:  DefaultMaxRedirects,
		defaultRegion: llu.DefaultRegion,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// loadLocked populates the session from the credential store once. m.mu must be held.
func (m *Manager) loadLocked(ctx context.Context) {
	if m.loaded {
		return
	}
	m.loaded = true
	m.region = m.defaultRegion

	if value, err := m.get(ctx, credentials.KeyRegion); err == nil && value != "" {
		if region, err := llu.ParseRegion(value); err == nil {
			m.region = region
		}
	}
	if value, err := m.get(ctx, credentials.KeyToken); err == nil {
		m.token = value
	}
	if value, err := m.get(ctx, credentials.KeyAccountID); err == nil {
		m.accountID = value
	}
}

func (m *Manager) get(ctx context.Context, key credentials.Key) (string, error) {
	value, err := m.store.Get(ctx, key)
	if err != nil && !errors.Is(err, credentials.ErrNotFound) {
		slog.Warn("Failed to read stored credential", "key", key, "error", err)
	}
	return value, err
}

// State reports the current lifecycle state
func (m *Manager) State(ctx context.Context) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadLocked(ctx)

	switch {
	case m.token == "":
		return StateEmpty
	case m.expired || m.tokenExpiredLocked():
		return StateExpired
	default:
		return StateAuthenticated
	}
}

// tokenExpiredLocked inspects the token's exp claim without verifying its signature.
// Tokens that are not JWTs, or carry no exp claim, are treated as unexpired.
func (m *Manager) tokenExpiredLocked() bool {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(m.token, claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !m.now().Before(claims.ExpiresAt.Time)
}

// Region returns the region the session currently talks to
func (m *Manager) Region(ctx context.Context) llu.Region {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadLocked(ctx)
	return m.region
}

// Login authenticates against region, following region redirects, and persists the session
func (m *Manager) Login(ctx context.Context, identity, secret string, region llu.Region) (*LoginResult, error) {
	if identity == "" || secret == "" {
		return nil, &llu.AuthenticationError{Reason: "email and password are required"}
	}

	m.mu.Lock()
	m.loadLocked(ctx)
	m.mu.Unlock()

	tried := map[llu.Region]bool{}
	current := region
	for redirects := 0; ; redirects++ {
		tried[current] = true

		result, err := m.loginOnce(ctx, identity, secret, current)
		var redirect *llu.RegionRedirectError
		if errors.As(err, &redirect) {
			if redirects >= m.maxRedirects {
				return nil, &llu.AuthenticationError{
					Reason: fmt.Sprintf("too many region redirects (last target %s)", redirect.Region),
				}
			}
			if tried[redirect.Region] {
				return nil, &llu.AuthenticationError{
					Reason: fmt.Sprintf("region redirect loop at %s", redirect.Region),
				}
			}
			slog.Info("Login redirected to another region",
				"from", current,
				"to", redirect.Region)
			current = redirect.Region
			continue
		}
		if err != nil {
			return nil, err
		}

		if err := m.commitLogin(ctx, identity, secret, result); err != nil {
			return nil, err
		}
		slog.Info("Login succeeded", "region", result.Region)
		return result, nil
	}
}

func (m *Manager) loginOnce(ctx context.Context, identity, secret string, region llu.Region) (*LoginResult, error) {
	base, err := m.endpoint(region)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(llu.LoginRequest{Email: identity, Password: secret})
	if err != nil {
		return nil, fmt.Errorf("failed to encode login request: %w", err)
	}

	data, err := m.client.Do(ctx, &httpclient.Request{
		Method: http.MethodPost,
		URL:    base + LoginPath,
		Header: m.baseHeaders(),
		Body:   body,
	})
	if err != nil {
		if code, ok := httpclient.StatusCode(err); ok && code == http.StatusUnauthorized {
			return nil, &llu.AuthenticationError{Reason: "credentials rejected (HTTP 401)"}
		}
		return nil, classify(err)
	}

	result, err := parseLoginResponse(data)
	if err != nil {
		return nil, err
	}
	result.Region = region
	return result, nil
}

// parseLoginResponse interprets a login reply. Status 4 wins over everything, then a
// redirect, then the status check, mirroring the order the service documents.
func parseLoginResponse(data []byte) (*LoginResult, error) {
	var resp llu.LoginResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, &llu.DecodingError{Err: err}
	}

	if resp.Status == llu.StatusTermsRequired {
		return nil, llu.ErrTermsRequired
	}

	if target, ok := redirectTarget(data); ok {
		return nil, &llu.RegionRedirectError{Region: target}
	}

	if resp.Status != llu.StatusOK && resp.Status != llu.StatusOKAlternate {
		return nil, &llu.AuthenticationError{Reason: fmt.Sprintf("status: %d", resp.Status)}
	}

	var ticket *llu.AuthTicket
	if resp.Data != nil && resp.Data.AuthTicket != nil {
		ticket = resp.Data.AuthTicket
	} else {
		ticket = resp.Ticket
	}
	if ticket == nil || ticket.Token == "" {
		return nil, &llu.AuthenticationError{Reason: "no auth ticket in response"}
	}

	if resp.Data == nil || resp.Data.User == nil || resp.Data.User.ID == "" {
		return nil, &llu.AuthenticationError{Reason: "no user info in response"}
	}

	return &LoginResult{
		AccountID: resp.Data.User.ID,
		Token:     ticket.Token,
		User:      resp.Data.User,
	}, nil
}

// redirectTarget finds a redirect instruction nested under data or at the top level.
// A redirect naming an unknown region is ignored and the reply is judged by its status.
func redirectTarget(data []byte) (llu.Region, bool) {
	for _, prefix := range []string{"data.", ""} {
		if !gjson.GetBytes(data, prefix+"redirect").Bool() {
			continue
		}
		name := gjson.GetBytes(data, prefix+"region").String()
		if region, ok := llu.MatchRedirect(name); ok {
			return region, true
		}
		slog.Warn("Ignoring redirect to unknown region", "region", name)
	}
	return "", false
}

func (m *Manager) commitLogin(ctx context.Context, identity, secret string, result *LoginResult) error {
	m.mu.Lock()
	m.token = result.Token
	m.accountID = result.AccountID
	m.region = result.Region
	m.expired = false
	m.loaded = true
	m.mu.Unlock()

	entries := []struct {
		key   credentials.Key
		value string
	}{
		{credentials.KeyIdentity, identity},
		{credentials.KeySecret, secret},
		{credentials.KeyToken, result.Token},
		{credentials.KeyAccountID, result.AccountID},
		{credentials.KeyRegion, string(result.Region)},
	}
	for _, entry := range entries {
		if err := m.store.Set(ctx, entry.key, entry.value); err != nil {
			return fmt.Errorf("failed to persist %s: %w", entry.key, err)
		}
	}
	return nil
}

// Relogin repeats the login with the stored identity and secret against the current region.
// Concurrent callers share one login round trip.
func (m *Manager) Relogin(ctx context.Context) error {
	_, err, shared := m.relogins.Do("relogin", func() (any, error) {
		identity, err := m.store.Get(ctx, credentials.KeyIdentity)
		if err != nil {
			return nil, &llu.AuthenticationError{Reason: "no stored credentials for re-login"}
		}
		secret, err := m.store.Get(ctx, credentials.KeySecret)
		if err != nil {
			return nil, &llu.AuthenticationError{Reason: "no stored credentials for re-login"}
		}
		return m.Login(ctx, identity, secret, m.Region(ctx))
	})
	if shared {
		slog.Debug("Joined an in-flight re-login")
	}
	return err
}

// Logout clears the in-memory session and every stored credential
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	m.token = ""
	m.accountID = ""
	m.region = m.defaultRegion
	m.expired = false
	m.loaded = true
	m.mu.Unlock()

	if err := m.store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear stored credentials: %w", err)
	}
	slog.Info("Logged out")
	return nil
}

// Do performs an authenticated call against the current region and returns the 2xx body.
// A ticket embedded in the reply replaces the bearer token.
func (m *Manager) Do(ctx context.Context, method, path string, body any) ([]byte, error) {
	m.mu.Lock()
	m.loadLocked(ctx)
	region, token, accountID := m.region, m.token, m.accountID
	m.mu.Unlock()

	base, err := m.endpoint(region)
	if err != nil {
		return nil, err
	}

	header := m.baseHeaders()
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	if accountID != "" {
		header.Set("Account-Id", AccountIDHash(accountID))
	}

	var payload []byte
	if body != nil {
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	data, err := m.client.Do(ctx, &httpclient.Request{
		Method: method,
		URL:    base + path,
		Header: header,
		Body:   payload,
	})
	if err != nil {
		if code, ok := httpclient.StatusCode(err); ok && code == http.StatusUnauthorized {
			m.markExpired(token)
			return nil, llu.NewTokenExpiredError()
		}
		return nil, classify(err)
	}

	if ticket := gjson.GetBytes(data, "ticket.token"); ticket.Exists() && ticket.String() != "" {
		m.refreshTicket(ctx, token, &llu.AuthTicket{Token: ticket.String()})
	}
	return data, nil
}

// markExpired flags the session expired unless the token was replaced meanwhile
func (m *Manager) markExpired(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == token {
		m.expired = true
	}
}

// refreshTicket replaces the bearer token with a server-issued ticket. The
// ticket is dropped when the token it was issued for is no longer current,
// so a slow reply cannot undo a newer login.
func (m *Manager) refreshTicket(ctx context.Context, issuedFor string, ticket *llu.AuthTicket) {
	if ticket == nil || ticket.Token == "" {
		return
	}

	m.mu.Lock()
	if m.token != issuedFor || m.token == ticket.Token {
		m.mu.Unlock()
		return
	}
	m.token = ticket.Token
	m.expired = false
	m.mu.Unlock()

	if err := m.store.Set(ctx, credentials.KeyToken, ticket.Token); err != nil {
		slog.Warn("Failed to persist refreshed token", "error", err)
	}
}

func (m *Manager) baseHeaders() http.Header {
	header := http.Header{}
	header.Set("product", m.product)
	header.Set("version", m.clientVersion)
	header.Set("Content-Type", "application/json")
	header.Set("Accept", "application/json")
	return header
}

// AccountIDHash is the hex SHA-256 digest sent in the Account-Id header
func AccountIDHash(accountID string) string {
	sum := sha256.Sum256([]byte(accountID))
	return hex.EncodeToString(sum[:])
}

// classify maps a transport outcome onto the error taxonomy
func classify(err error) error {
	if code, ok := httpclient.StatusCode(err); ok {
		return llu.NewInvalidResponseError(code)
	}
	return &llu.NetworkError{Err: err}
}
