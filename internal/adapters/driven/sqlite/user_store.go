package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/mailbridge-core/internal/core/domain"
	"github.com/custodia-labs/mailbridge-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.UserStore = (*UserStore)(nil)

// UserStore implements driven.UserStore using SQLite
type UserStore struct {
	db *DB
}

// NewUserStore creates a new UserStore
func NewUserStore(db *DB) *UserStore {
	return &UserStore{db: db}
}

// Upsert creates the user for an external id on first sight and returns
// the stored row afterwards. A non-empty email refreshes the stored one.
func (s *UserStore) Upsert(ctx context.Context, externalUserID, email string) (*domain.User, error) {
	now := toMillis(time.Now())
	query := `
		INSERT INTO users (id, external_user_id, email, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (external_user_id) DO UPDATE SET
			email = CASE WHEN excluded.email = '' THEN users.email ELSE excluded.email END,
			updated_at = excluded.updated_at
		RETURNING id, external_user_id, email, created_at, updated_at
	`

	return scanUser(s.db.QueryRowContext(ctx, query, uuid.NewString(), externalUserID, email, now, now))
}

// Get retrieves a user by internal ID
func (s *UserStore) Get(ctx context.Context, id string) (*domain.User, error) {
	query := `
		SELECT id, external_user_id, email, created_at, updated_at
		FROM users
		WHERE id = ?
	`

	user, err := scanUser(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	return user, err
}

// GetByExternalID retrieves a user by the application-supplied id
func (s *UserStore) GetByExternalID(ctx context.Context, externalUserID string) (*domain.User, error) {
	query := `
		SELECT id, external_user_id, email, created_at, updated_at
		FROM users
		WHERE external_user_id = ?
	`

	user, err := scanUser(s.db.QueryRowContext(ctx, query, externalUserID))
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	return user, err
}

// List retrieves all users
func (s *UserStore) List(ctx context.Context) ([]*domain.User, error) {
	query := `
		SELECT id, external_user_id, email, created_at, updated_at
		FROM users
		ORDER BY created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return users, nil
}

// Delete deletes a user; their connections cascade with them
func (s *UserStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(result)
}

func scanUser(row scanner) (*domain.User, error) {
	var user domain.User
	var createdAt, updatedAt int64

	err := row.Scan(
		&user.ID,
		&user.ExternalUserID,
		&user.Email,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	user.CreatedAt = fromMillis(createdAt)
	user.UpdatedAt = fromMillis(updatedAt)
	return &user, nil
}
