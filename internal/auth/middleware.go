// Package auth guards the HTTP surface of the daemon with a static bearer token.
package auth

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
)

// RFC 6750 Section 3 error codes
const (
	errorCodeInvalidRequest = "invalid_request"
	errorCodeInvalidToken   = "invalid_token"
)

// DefaultRealm is the protection space advertised in WWW-Authenticate
const DefaultRealm = "lhs-sync"

var (
	errMissingAuthorization = errors.New("authorization header is missing")
	errNotBearer            = errors.New("authorization header is not a bearer token")
)

// extractBearerToken returns the token of an "Authorization: Bearer <token>" header
func extractBearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", errMissingAuthorization
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", errNotBearer
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", errNotBearer
	}
	return token, nil
}

// tokenMiddleware compares bearer tokens against the configured one
type tokenMiddleware struct {
	token []byte
	realm string
}

// NewTokenMiddleware returns a middleware rejecting requests whose bearer token
// differs from token. An empty token yields a pass-through middleware.
func NewTokenMiddleware(token, realm string) func(http.Handler) http.Handler {
	if token == "" {
		return func(next http.Handler) http.Handler { return next }
	}
	if realm == "" {
		realm = DefaultRealm
	}
	m := &tokenMiddleware{token: []byte(token), realm: realm}
	return m.Middleware
}

// Middleware returns an HTTP middleware function that performs authentication
func (m *tokenMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := extractBearerToken(r)
		if err != nil {
			slog.Warn("Token extraction failed",
				"error", err,
				"remote_addr", r.RemoteAddr,
				"path", r.URL.Path)
			m.writeError(w, errorCodeInvalidRequest, "missing or malformed authorization header")
			return
		}

		if subtle.ConstantTimeCompare([]byte(token), m.token) != 1 {
			slog.Warn("Token validation failed",
				"remote_addr", r.RemoteAddr,
				"path", r.URL.Path)
			m.writeError(w, errorCodeInvalidToken, "token validation failed")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// sanitizeHeaderValue removes characters that could enable header injection
func sanitizeHeaderValue(s string) string {
	if !strings.ContainsAny(s, "\r\n\"") {
		return s
	}
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", "")
	return strings.ReplaceAll(s, `"`, `\"`)
}

// writeError writes a JSON 401 with an RFC 6750 WWW-Authenticate header
func (m *tokenMiddleware) writeError(w http.ResponseWriter, errCode, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", fmt.Sprintf(`Bearer realm="%s", error="%s", error_description="%s"`,
		sanitizeHeaderValue(m.realm), errCode, sanitizeHeaderValue(description)))
	w.WriteHeader(http.StatusUnauthorized)

	resp := struct {
		Error string `json:"error"`
	}{
		Error: description,
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("Failed to encode error response", "error", err)
	}
}

// WrapWithPublicPaths wraps an auth middleware so that requests for public
// paths bypass it
func WrapWithPublicPaths(
	authMw func(http.Handler) http.Handler,
	publicPaths []string,
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		authWrappedNext := authMw(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if IsPublicPath(r.URL.Path, publicPaths) {
				next.ServeHTTP(w, r)
				return
			}
			authWrappedNext.ServeHTTP(w, r)
		})
	}
}
