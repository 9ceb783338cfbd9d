package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/custodia-labs/mailbridge-core/internal/core/domain"
	"github.com/custodia-labs/mailbridge-core/internal/core/ports/driven"
)

// Ensure StateStore implements the interface.
var _ driven.StateStore = (*StateStore)(nil)

// StateStore implements driven.StateStore using SQLite.
type StateStore struct {
	db *DB
}

// NewStateStore creates a new SQLite-backed authorization state store.
func NewStateStore(db *DB) *StateStore {
	return &StateStore{db: db}
}

// Save stores a new authorization state.
func (s *StateStore) Save(ctx context.Context, state *domain.AuthState) error {
	query := `
		INSERT INTO oauth_states (id, state, user_id, scopes, redirect_uri, code_verifier, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		state.ID,
		state.State,
		state.UserID,
		joinScopes(state.Scopes),
		state.RedirectURI,
		state.CodeVerifier,
		toMillis(state.CreatedAt),
		toMillis(state.ExpiresAt),
	)
	if err != nil {
		return fmt.Errorf("save auth state: %w", err)
	}

	return nil
}

// GetAndDelete atomically retrieves and deletes the state.
// SQLite serializes writers, so the DELETE ... RETURNING hands the row
// to at most one caller. Expired rows are filtered in the same
// statement, indistinguishable from rows that never existed.
func (s *StateStore) GetAndDelete(ctx context.Context, token string) (*domain.AuthState, error) {
	query := `
		DELETE FROM oauth_states
		WHERE state = ? AND expires_at > ?
		RETURNING id, state, user_id, scopes, redirect_uri, code_verifier, created_at, expires_at
	`

	var authState domain.AuthState
	var scopes string
	var createdAt, expiresAt int64
	err := s.db.QueryRowContext(ctx, query, token, toMillis(time.Now())).Scan(
		&authState.ID,
		&authState.State,
		&authState.UserID,
		&scopes,
		&authState.RedirectURI,
		&authState.CodeVerifier,
		&createdAt,
		&expiresAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil // Not found or expired
	}
	if err != nil {
		return nil, fmt.Errorf("get and delete auth state: %w", err)
	}

	authState.Scopes = splitScopes(scopes)
	authState.CreatedAt = fromMillis(createdAt)
	authState.ExpiresAt = fromMillis(expiresAt)
	return &authState, nil
}

// DeleteExpired removes states past their TTL and reports the count.
func (s *StateStore) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM oauth_states WHERE expires_at < ?`, toMillis(time.Now()))
	if err != nil {
		return 0, fmt.Errorf("delete expired auth states: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check rows affected: %w", err)
	}

	return removed, nil
}
