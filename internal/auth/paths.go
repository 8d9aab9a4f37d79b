package auth

import (
	"path"
	"strings"
)

// DefaultPublicPaths never require a token. Everything else served by the
// daemon exposes health data.
var DefaultPublicPaths = []string{"/health", "/readiness", "/version"}

// IsPublicPath reports whether requestPath is one of publicPaths or below one of them.
// Encoded separators never match, the path is cleaned before comparison and
// matching respects segment boundaries, so /health matches /health/check
// but not /healthcheck.
func IsPublicPath(requestPath string, publicPaths []string) bool {
	lowerPath := strings.ToLower(requestPath)
	if strings.Contains(lowerPath, "%2f") || strings.Contains(lowerPath, "%2e") {
		return false
	}

	cleanPath := cleanAbs(requestPath)
	for _, publicPath := range publicPaths {
		cleanPublicPath := cleanAbs(publicPath)
		if cleanPublicPath == "/" || cleanPath == cleanPublicPath {
			return true
		}
		if strings.HasPrefix(cleanPath, cleanPublicPath+"/") {
			return true
		}
	}
	return false
}

func cleanAbs(p string) string {
	cleaned := path.Clean(p)
	if !strings.HasPrefix(cleaned, "/") {
		cleaned = "/" + cleaned
	}
	return cleaned
}
