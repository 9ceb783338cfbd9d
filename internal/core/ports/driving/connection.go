package driving

import (
	"context"

	"github.com/custodia-labs/mailbridge-core/internal/core/domain"
)

// ConnectionService exposes read access to stored connections.
type ConnectionService interface {
	// List returns a user's connections by external user id, newest
	// first. Inactive connections are included only on request.
	List(ctx context.Context, externalUserID string, includeInactive bool) ([]*domain.ConnectionSummary, error)

	// Get returns one connection summary.
	Get(ctx context.Context, connectionID string) (*domain.ConnectionSummary, error)

	// Status checks whether the connection can currently produce a
	// valid access token. This is a routine polled check: failures land
	// in the returned struct, not in the error value.
	Status(ctx context.Context, connectionID string) (*ConnectionStatus, error)
}

// ConnectionStatus reports the health of one connection.
// @Description Health of a Gmail connection
type ConnectionStatus struct {
	ConnectionID string `json:"connection_id"`

	// Valid is true when a usable access token is available right now.
	Valid bool `json:"valid"`

	GmailAddress string   `json:"gmail_address,omitempty" example:"alice@gmail.com"`
	Scopes       []string `json:"scopes,omitempty"`

	// TokenExpiresIn is the remaining access-token lifetime in seconds.
	TokenExpiresIn int64 `json:"token_expires_in,omitempty" example:"3112"`

	// NeedsReauth is true when only a new authorization flow can
	// recover the connection.
	NeedsReauth bool `json:"needs_reauth"`

	// Error carries the failure class when Valid is false.
	Error string `json:"error,omitempty" example:"needs_reauth"`
}
