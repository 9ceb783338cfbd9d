package domain

import (
	"errors"
	"fmt"
)

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates the resource already exists
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates authentication failed or missing
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidState indicates the CSRF state token is missing, expired,
	// or already consumed. Callers are told nothing more specific.
	ErrInvalidState = errors.New("invalid or expired state")

	// ErrInvalidGrant indicates the provider permanently rejected a grant:
	// a bad or reused authorization code, or a revoked refresh token.
	ErrInvalidGrant = errors.New("invalid grant")

	// ErrProviderRejected indicates the provider rejected a request for a
	// reason other than an invalid grant (bad client config, bad scope).
	ErrProviderRejected = errors.New("provider rejected request")

	// ErrProviderUnavailable indicates a transient provider failure
	// (network error, 5xx, rate limit) that survived local retries.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrNeedsReauth indicates the connection's refresh token is permanently
	// invalid; only a new authorization flow can recover the connection.
	ErrNeedsReauth = errors.New("connection needs reauthorization")

	// ErrConnectionInactive indicates the connection was deactivated by an
	// explicit disconnect.
	ErrConnectionInactive = errors.New("connection inactive")

	// ErrDecryptionFailed indicates stored ciphertext could not be
	// authenticated: tampered data or the wrong encryption key.
	ErrDecryptionFailed = errors.New("decryption failed")

	// ErrTokenInvalid indicates the API bearer token is malformed or invalid
	ErrTokenInvalid = errors.New("token invalid")

	// ErrTokenExpired indicates the API bearer token has expired
	ErrTokenExpired = errors.New("token expired")
)

// ProviderError carries the provider's response for a failed OAuth
// exchange. It unwraps to one of ErrInvalidGrant, ErrProviderRejected or
// ErrProviderUnavailable so callers classify with errors.Is.
type ProviderError struct {
	Op          string // "exchange_code", "refresh_token", "revoke_token", "userinfo"
	StatusCode  int
	Code        string // provider error code, e.g. "invalid_grant"
	Description string
	Err         error
}

func (e *ProviderError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("provider %s failed: %s (%s)", e.Op, e.Code, e.Description)
	}
	return fmt.Sprintf("provider %s failed: status %d", e.Op, e.StatusCode)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Transient reports whether the failure is safe to retry.
func (e *ProviderError) Transient() bool {
	return errors.Is(e.Err, ErrProviderUnavailable)
}
