package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/mailbridge-core/internal/core/domain"
)

// OAuthService drives the authorization flow: it hands out authorize
// URLs, completes provider callbacks into stored connections, and tears
// connections down again.
type OAuthService interface {
	// BeginAuthorization starts an authorization flow for an end user.
	// It upserts the user, generates the PKCE pair and CSRF state, and
	// returns the URL to redirect the user's browser to. No network
	// call is made.
	BeginAuthorization(ctx context.Context, req BeginAuthRequest) (*BeginAuthResponse, error)

	// CompleteAuthorization handles the provider redirect. The state is
	// consumed first and exactly once - replays fail with
	// domain.ErrInvalidState regardless of what happens afterwards.
	CompleteAuthorization(ctx context.Context, req CallbackRequest) (*CallbackResult, error)

	// Disconnect revokes the connection's tokens upstream (best-effort
	// when revokeRemote is set) and deactivates it locally. The local
	// deactivation happens regardless of revoke outcome.
	Disconnect(ctx context.Context, connectionID string, revokeRemote bool) error

	// RemoveConnection deletes the connection row entirely.
	RemoveConnection(ctx context.Context, connectionID string) error
}

// BeginAuthRequest starts an authorization flow.
// @Description Request to start a Gmail authorization flow for an end user
type BeginAuthRequest struct {
	// ExternalUserID is the application's opaque id for its end user.
	ExternalUserID string `json:"external_user_id" example:"app-user-42"`

	// Email optionally records the user's email on their profile.
	Email string `json:"email,omitempty" example:"alice@example.com"`

	// Scopes to request; defaults to gmail.readonly when empty.
	Scopes []string `json:"scopes,omitempty"`

	// RedirectURI overrides the configured callback URL.
	RedirectURI string `json:"redirect_uri,omitempty" example:"https://app.example.com/oauth/callback"`
}

// BeginAuthResponse contains the authorization URL and state.
// @Description Response containing the authorization URL to redirect the user to
type BeginAuthResponse struct {
	// AuthorizationURL is the URL to redirect the user to for consent.
	AuthorizationURL string `json:"authorization_url" example:"https://accounts.google.com/o/oauth2/v2/auth?client_id=..."`

	// State is the CSRF token that will come back in the callback.
	State string `json:"state" example:"abc123xyz"`

	// ExpiresAt is when the pending authorization expires.
	ExpiresAt time.Time `json:"expires_at"`
}

// CallbackRequest carries the provider redirect parameters.
// @Description OAuth callback parameters from the provider redirect
type CallbackRequest struct {
	// Code is the authorization code from the provider.
	Code string `json:"code" example:"4/0AbCd..."`

	// State is the CSRF token returned by the provider.
	State string `json:"state" example:"abc123xyz"`

	// Error is set when the provider redirected back with an error,
	// e.g. the user denied consent.
	Error string `json:"error,omitempty" example:"access_denied"`

	// ErrorDescription provides provider detail about the error.
	ErrorDescription string `json:"error_description,omitempty"`
}

// CallbackResult is the outcome of a completed authorization.
// @Description Response after a successful authorization callback
type CallbackResult struct {
	// Connection is the stored connection, without ciphertext.
	Connection *domain.ConnectionSummary `json:"connection"`

	// Created is true for a first-time connection, false when an
	// existing user+address connection was re-authorized.
	Created bool `json:"created"`

	// Message provides a human-readable status message.
	Message string `json:"message" example:"Connected alice@gmail.com"`
}
