package driven

import (
	"context"

	"github.com/custodia-labs/mailbridge-core/internal/core/domain"
)

// StateStore persists pending authorization states for CSRF protection
// and PKCE verifier storage. States are single-use and expire after a
// short period.
type StateStore interface {
	// Save stores a new authorization state.
	Save(ctx context.Context, state *domain.AuthState) error

	// GetAndDelete atomically retrieves and deletes a state by its
	// token, ensuring single-use semantics: concurrent or repeated
	// calls with the same token cannot both succeed. Returns nil, nil
	// if the token does not exist or has expired; callers cannot tell
	// the two apart.
	GetAndDelete(ctx context.Context, token string) (*domain.AuthState, error)

	// DeleteExpired removes states past their TTL and reports how many
	// were removed. Safe to run concurrently with Save and GetAndDelete.
	DeleteExpired(ctx context.Context) (int64, error)
}
