package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/mailbridge-core/internal/core/domain"
)

// ConnectionStore persists Gmail connections. Token fields are opaque
// ciphertext; the store never sees plaintext credentials.
type ConnectionStore interface {
	// Save inserts the connection or, when a row for the same
	// (user_id, gmail_address) pair exists, updates that row in place:
	// tokens, expiry, scopes and both status flags. After an upsert the
	// connection's ID reflects the stored row.
	Save(ctx context.Context, conn *domain.Connection) error

	// Get retrieves a connection by ID.
	// Returns domain.ErrNotFound if the connection doesn't exist.
	Get(ctx context.Context, id string) (*domain.Connection, error)

	// GetByUserAndAddress retrieves the connection for a user and Gmail
	// address. Returns nil, nil when no such connection exists.
	GetByUserAndAddress(ctx context.Context, userID, gmailAddress string) (*domain.Connection, error)

	// ListByUser retrieves a user's connections, newest first,
	// optionally including inactive ones.
	ListByUser(ctx context.Context, userID string, includeInactive bool) ([]*domain.Connection, error)

	// ListExpiring retrieves active connections whose access token
	// expires before the given instant, excluding those flagged
	// needs_reauth. A limit of 0 means no limit.
	ListExpiring(ctx context.Context, before time.Time, limit int) ([]*domain.Connection, error)

	// UpdateTokens persists a refreshed access token with its new
	// expiry. An empty encryptedRefreshToken keeps the stored refresh
	// token; a non-empty one replaces it (provider-side rotation).
	UpdateTokens(ctx context.Context, id, encryptedAccessToken, encryptedRefreshToken string, expiresAt time.Time) error

	// MarkNeedsReauth deactivates the connection and flags it for
	// reauthorization after a permanent refresh failure.
	MarkNeedsReauth(ctx context.Context, id string) error

	// Deactivate clears the active flag without flagging reauth.
	Deactivate(ctx context.Context, id string) error

	// TouchLastUsed updates the last_used_at timestamp.
	TouchLastUsed(ctx context.Context, id string) error

	// Delete removes the connection row.
	// Returns domain.ErrNotFound if the connection doesn't exist.
	Delete(ctx context.Context, id string) error
}
