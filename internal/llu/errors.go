package llu

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidURL means an endpoint URL could not be built
	ErrInvalidURL = errors.New("invalid API URL")

	// ErrInvalidResponse means the service replied with an unexpected HTTP status
	ErrInvalidResponse = errors.New("invalid response from server")

	// ErrTermsRequired means the account must accept updated terms in the official app
	ErrTermsRequired = errors.New("terms of use must be accepted in the LibreLinkUp app")

	// ErrNoData means the service returned an envelope without data
	ErrNoData = errors.New("no data available")
)

// AuthenticationError is returned when the service rejects credentials or a token.
// TokenExpired is set when the rejection was an HTTP 401 on an authenticated call.
type AuthenticationError struct {
	Reason       string
	TokenExpired bool
}

func (e *AuthenticationError) Error() string {
	return "authentication failed: " + e.Reason
}

// NewTokenExpiredError builds the error returned for an HTTP 401 on an authenticated call
func NewTokenExpiredError() error {
	return &AuthenticationError{Reason: "Token expired (HTTP 401)", TokenExpired: true}
}

// NetworkError wraps a transport failure
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// DecodingError wraps a payload decoding failure
type DecodingError struct {
	Err error
}

func (e *DecodingError) Error() string {
	return fmt.Sprintf("failed to decode response: %v", e.Err)
}

func (e *DecodingError) Unwrap() error {
	return e.Err
}

// RegionRedirectError asks the caller to repeat the login against another region.
// It never escapes the session package.
type RegionRedirectError struct {
	Region Region
}

func (e *RegionRedirectError) Error() string {
	return fmt.Sprintf("account belongs to region %s", e.Region)
}

// NewInvalidResponseError wraps ErrInvalidResponse with the offending status code
func NewInvalidResponseError(statusCode int) error {
	return fmt.Errorf("%w: HTTP %d", ErrInvalidResponse, statusCode)
}

// IsTokenExpired reports whether err signals that the bearer token is no longer accepted
func IsTokenExpired(err error) bool {
	var authErr *AuthenticationError
	return errors.As(err, &authErr) && authErr.TokenExpired
}

// IsAuthentication reports whether err is any authentication failure
func IsAuthentication(err error) bool {
	var authErr *AuthenticationError
	return errors.As(err, &authErr)
}
