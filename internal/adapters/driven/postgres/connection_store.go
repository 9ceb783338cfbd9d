package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/custodia-labs/mailbridge-core/internal/core/domain"
	"github.com/custodia-labs/mailbridge-core/internal/core/ports/driven"
)

// Ensure ConnectionStore implements the interface.
var _ driven.ConnectionStore = (*ConnectionStore)(nil)

// ConnectionStore implements driven.ConnectionStore using PostgreSQL.
// Token columns hold ciphertext produced upstream; this store never
// sees plaintext credentials.
type ConnectionStore struct {
	db *DB
}

// NewConnectionStore creates a new PostgreSQL-backed connection store.
func NewConnectionStore(db *DB) *ConnectionStore {
	return &ConnectionStore{db: db}
}

const connectionColumns = `
	id, user_id, gmail_address, encrypted_access_token, encrypted_refresh_token,
	token_expires_at, scopes, active, needs_reauth, created_at, updated_at, last_used_at
`

// Save inserts the connection or updates the row for the same
// (user_id, gmail_address) pair. After the upsert the connection's ID
// and CreatedAt reflect the stored row.
func (s *ConnectionStore) Save(ctx context.Context, conn *domain.Connection) error {
	if conn.ID == "" {
		conn.ID = uuid.NewString()
	}
	now := time.Now()
	if conn.CreatedAt.IsZero() {
		conn.CreatedAt = now
	}
	conn.UpdatedAt = now

	query := `
		INSERT INTO gmail_connections (
			id, user_id, gmail_address, encrypted_access_token, encrypted_refresh_token,
			token_expires_at, scopes, active, needs_reauth, created_at, updated_at, last_used_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (user_id, gmail_address) DO UPDATE SET
			encrypted_access_token = EXCLUDED.encrypted_access_token,
			encrypted_refresh_token = EXCLUDED.encrypted_refresh_token,
			token_expires_at = EXCLUDED.token_expires_at,
			scopes = EXCLUDED.scopes,
			active = EXCLUDED.active,
			needs_reauth = EXCLUDED.needs_reauth,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at
	`

	err := s.db.QueryRowContext(ctx, query,
		conn.ID,
		conn.UserID,
		conn.GmailAddress,
		conn.EncryptedAccessToken,
		conn.EncryptedRefreshToken,
		conn.TokenExpiresAt,
		pq.Array(conn.Scopes),
		conn.Active,
		conn.NeedsReauth,
		conn.CreatedAt,
		conn.UpdatedAt,
		NullTime(conn.LastUsedAt),
	).Scan(&conn.ID, &conn.CreatedAt)
	if err != nil {
		return fmt.Errorf("save connection: %w", err)
	}

	return nil
}

// Get retrieves a connection by ID.
func (s *ConnectionStore) Get(ctx context.Context, id string) (*domain.Connection, error) {
	query := `SELECT ` + connectionColumns + ` FROM gmail_connections WHERE id = $1`

	conn, err := scanConnection(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get connection: %w", err)
	}
	return conn, nil
}

// GetByUserAndAddress retrieves the connection for a user and Gmail
// address.
func (s *ConnectionStore) GetByUserAndAddress(ctx context.Context, userID, gmailAddress string) (*domain.Connection, error) {
	query := `SELECT ` + connectionColumns + ` FROM gmail_connections WHERE user_id = $1 AND gmail_address = $2`

	conn, err := scanConnection(s.db.QueryRowContext(ctx, query, userID, gmailAddress))
	if err == sql.ErrNoRows {
		return nil, nil // Not found is not an error for this method
	}
	if err != nil {
		return nil, fmt.Errorf("get connection by address: %w", err)
	}
	return conn, nil
}

// ListByUser retrieves a user's connections, newest first.
func (s *ConnectionStore) ListByUser(ctx context.Context, userID string, includeInactive bool) ([]*domain.Connection, error) {
	query := `SELECT ` + connectionColumns + ` FROM gmail_connections WHERE user_id = $1`
	if !includeInactive {
		query += ` AND active`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}
	defer rows.Close()

	return collectConnections(rows)
}

// ListExpiring retrieves active connections whose access token expires
// before the given instant, soonest first. Demoted connections are
// excluded; refreshing them is pointless until reauthorized.
func (s *ConnectionStore) ListExpiring(ctx context.Context, before time.Time, limit int) ([]*domain.Connection, error) {
	query := `
		SELECT ` + connectionColumns + `
		FROM gmail_connections
		WHERE active AND NOT needs_reauth AND token_expires_at < $1
		ORDER BY token_expires_at ASC
	`
	args := []any{before}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list expiring connections: %w", err)
	}
	defer rows.Close()

	return collectConnections(rows)
}

// UpdateTokens persists a refreshed access token and expiry. An empty
// encryptedRefreshToken keeps the stored refresh token.
func (s *ConnectionStore) UpdateTokens(ctx context.Context, id, encryptedAccessToken, encryptedRefreshToken string, expiresAt time.Time) error {
	query := `
		UPDATE gmail_connections
		SET encrypted_access_token = $2,
			encrypted_refresh_token = CASE WHEN $3 = '' THEN encrypted_refresh_token ELSE $3 END,
			token_expires_at = $4,
			updated_at = NOW()
		WHERE id = $1
	`

	result, err := s.db.ExecContext(ctx, query, id, encryptedAccessToken, encryptedRefreshToken, expiresAt)
	if err != nil {
		return fmt.Errorf("update tokens: %w", err)
	}
	return requireRow(result)
}

// MarkNeedsReauth deactivates the connection and flags it for
// reauthorization.
func (s *ConnectionStore) MarkNeedsReauth(ctx context.Context, id string) error {
	query := `
		UPDATE gmail_connections
		SET active = FALSE, needs_reauth = TRUE, updated_at = NOW()
		WHERE id = $1
	`

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("mark needs_reauth: %w", err)
	}
	return requireRow(result)
}

// Deactivate clears the active flag without flagging reauth.
func (s *ConnectionStore) Deactivate(ctx context.Context, id string) error {
	query := `
		UPDATE gmail_connections
		SET active = FALSE, updated_at = NOW()
		WHERE id = $1
	`

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("deactivate connection: %w", err)
	}
	return requireRow(result)
}

// TouchLastUsed updates the last_used_at timestamp.
func (s *ConnectionStore) TouchLastUsed(ctx context.Context, id string) error {
	query := `UPDATE gmail_connections SET last_used_at = NOW() WHERE id = $1`

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("touch last_used: %w", err)
	}
	return requireRow(result)
}

// Delete removes the connection row.
func (s *ConnectionStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM gmail_connections WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete connection: %w", err)
	}
	return requireRow(result)
}

// scanner covers *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanConnection(row scanner) (*domain.Connection, error) {
	var conn domain.Connection
	var scopes []string
	var lastUsedAt sql.NullTime

	err := row.Scan(
		&conn.ID,
		&conn.UserID,
		&conn.GmailAddress,
		&conn.EncryptedAccessToken,
		&conn.EncryptedRefreshToken,
		&conn.TokenExpiresAt,
		pq.Array(&scopes),
		&conn.Active,
		&conn.NeedsReauth,
		&conn.CreatedAt,
		&conn.UpdatedAt,
		&lastUsedAt,
	)
	if err != nil {
		return nil, err
	}

	conn.Scopes = scopes
	conn.LastUsedAt = TimePtr(lastUsedAt)
	return &conn, nil
}

func collectConnections(rows *sql.Rows) ([]*domain.Connection, error) {
	var conns []*domain.Connection
	for rows.Next() {
		conn, err := scanConnection(rows)
		if err != nil {
			return nil, fmt.Errorf("scan connection: %w", err)
		}
		conns = append(conns, conn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate connections: %w", err)
	}
	return conns, nil
}

func requireRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
