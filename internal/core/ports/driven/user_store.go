package driven

import (
	"context"

	"github.com/custodia-labs/mailbridge-core/internal/core/domain"
)

// UserStore handles user persistence.
type UserStore interface {
	// Upsert creates the user for an external id on first sight and
	// returns the existing row afterwards. A non-empty email refreshes
	// the stored one; an empty email leaves it untouched.
	Upsert(ctx context.Context, externalUserID, email string) (*domain.User, error)

	// Get retrieves a user by internal ID.
	Get(ctx context.Context, id string) (*domain.User, error)

	// GetByExternalID retrieves a user by the application-supplied id.
	GetByExternalID(ctx context.Context, externalUserID string) (*domain.User, error)

	// List retrieves all users.
	List(ctx context.Context) ([]*domain.User, error)

	// Delete deletes a user; their connections go with them.
	Delete(ctx context.Context, id string) error
}
