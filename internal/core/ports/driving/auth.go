package driving

import (
	"context"

	"github.com/custodia-labs/mailbridge-core/internal/core/domain"
)

// AuthService verifies API bearer tokens. Tokens are minted by the
// embedding application with the shared secret; this side only
// validates and extracts the caller identity.
type AuthService interface {
	// ValidateToken validates a JWT token and returns the auth context.
	ValidateToken(ctx context.Context, token string) (*domain.AuthContext, error)
}
