package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/custodia-labs/mailbridge-core/internal/core/domain"
	"github.com/custodia-labs/mailbridge-core/internal/core/ports/driven"
)

// Ensure StateStore implements the interface.
var _ driven.StateStore = (*StateStore)(nil)

// StateStore implements driven.StateStore using PostgreSQL.
type StateStore struct {
	db *DB
}

// NewStateStore creates a new PostgreSQL-backed authorization state store.
func NewStateStore(db *DB) *StateStore {
	return &StateStore{db: db}
}

// Save stores a new authorization state.
func (s *StateStore) Save(ctx context.Context, state *domain.AuthState) error {
	query := `
		INSERT INTO oauth_states (id, state, user_id, scopes, redirect_uri, code_verifier, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := s.db.ExecContext(ctx, query,
		state.ID,
		state.State,
		state.UserID,
		pq.Array(state.Scopes),
		state.RedirectURI,
		state.CodeVerifier,
		state.CreatedAt,
		state.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("save auth state: %w", err)
	}

	return nil
}

// GetAndDelete atomically retrieves and deletes the state.
// DELETE ... RETURNING gives the single-use guarantee: of any number of
// concurrent calls with the same token, at most one gets the row back.
// Expired rows are filtered in the same statement, so an expired token
// is indistinguishable from one that never existed.
func (s *StateStore) GetAndDelete(ctx context.Context, token string) (*domain.AuthState, error) {
	query := `
		DELETE FROM oauth_states
		WHERE state = $1 AND expires_at > NOW()
		RETURNING id, state, user_id, scopes, redirect_uri, code_verifier, created_at, expires_at
	`

	var authState domain.AuthState
	var scopes []string
	err := s.db.QueryRowContext(ctx, query, token).Scan(
		&authState.ID,
		&authState.State,
		&authState.UserID,
		pq.Array(&scopes),
		&authState.RedirectURI,
		&authState.CodeVerifier,
		&authState.CreatedAt,
		&authState.ExpiresAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil // Not found or expired
	}
	if err != nil {
		return nil, fmt.Errorf("get and delete auth state: %w", err)
	}

	authState.Scopes = scopes
	return &authState, nil
}

// DeleteExpired removes states past their TTL and reports the count.
func (s *StateStore) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM oauth_states WHERE expires_at < NOW()`)
	if err != nil {
		return 0, fmt.Errorf("delete expired auth states: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check rows affected: %w", err)
	}

	return removed, nil
}
