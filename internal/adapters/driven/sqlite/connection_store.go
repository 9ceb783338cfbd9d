package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/mailbridge-core/internal/core/domain"
	"github.com/custodia-labs/mailbridge-core/internal/core/ports/driven"
)

// Ensure ConnectionStore implements the interface.
var _ driven.ConnectionStore = (*ConnectionStore)(nil)

// ConnectionStore implements driven.ConnectionStore using SQLite.
// Token columns hold ciphertext produced upstream; this store never
// sees plaintext credentials.
type ConnectionStore struct {
	db *DB
}

// NewConnectionStore creates a new SQLite-backed connection store.
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

	var lastUsedAt sql.NullInt64
	if conn.LastUsedAt != nil {
		lastUsedAt = sql.NullInt64{Int64: toMillis(*conn.LastUsedAt), Valid: true}
	}

	query := `
		INSERT INTO gmail_connections (
			id, user_id, gmail_address, encrypted_access_token, encrypted_refresh_token,
			token_expires_at, scopes, active, needs_reauth, created_at, updated_at, last_used_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, gmail_address) DO UPDATE SET
			encrypted_access_token = excluded.encrypted_access_token,
			encrypted_refresh_token = excluded.encrypted_refresh_token,
			token_expires_at = excluded.token_expires_at,
			scopes = excluded.scopes,
			active = excluded.active,
			needs_reauth = excluded.needs_reauth,
			updated_at = excluded.updated_at
		RETURNING id, created_at
	`

	var createdAt int64
	err := s.db.QueryRowContext(ctx, query,
		conn.ID,
		conn.UserID,
		conn.GmailAddress,
		conn.EncryptedAccessToken,
		conn.EncryptedRefreshToken,
		toMillis(conn.TokenExpiresAt),
		joinScopes(conn.Scopes),
		conn.Active,
		conn.NeedsReauth,
		toMillis(conn.CreatedAt),
		toMillis(conn.UpdatedAt),
		lastUsedAt,
	).Scan(&conn.ID, &createdAt)
	if err != nil {
		return fmt.Errorf("save connection: %w", err)
	}

	conn.CreatedAt = fromMillis(createdAt)
	return nil
}

// Get retrieves a connection by ID.
func (s *ConnectionStore) Get(ctx context.Context, id string) (*domain.Connection, error) {
	query := `SELECT ` + connectionColumns + ` FROM gmail_connections WHERE id = ?`

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
	query := `SELECT ` + connectionColumns + ` FROM gmail_connections WHERE user_id = ? AND gmail_address = ?`

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
	query := `SELECT ` + connectionColumns + ` FROM gmail_connections WHERE user_id = ?`
	if !includeInactive {
		query += ` AND active = 1`
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
		WHERE active = 1 AND needs_reauth = 0 AND token_expires_at < ?
		ORDER BY token_expires_at ASC
	`
	args := []any{toMillis(before)}
	if limit > 0 {
		query += ` LIMIT ?`
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
		SET encrypted_access_token = ?,
			encrypted_refresh_token = CASE WHEN ? = '' THEN encrypted_refresh_token ELSE ? END,
			token_expires_at = ?,
			updated_at = ?
		WHERE id = ?
	`

	result, err := s.db.ExecContext(ctx, query,
		encryptedAccessToken,
		encryptedRefreshToken,
		encryptedRefreshToken,
		toMillis(expiresAt),
		toMillis(time.Now()),
		id,
	)
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
		SET active = 0, needs_reauth = 1, updated_at = ?
		WHERE id = ?
	`

	result, err := s.db.ExecContext(ctx, query, toMillis(time.Now()), id)
	if err != nil {
		return fmt.Errorf("mark needs_reauth: %w", err)
	}
	return requireRow(result)
}

// Deactivate clears the active flag without flagging reauth.
func (s *ConnectionStore) Deactivate(ctx context.Context, id string) error {
	query := `
		UPDATE gmail_connections
		SET active = 0, updated_at = ?
		WHERE id = ?
	`

	result, err := s.db.ExecContext(ctx, query, toMillis(time.Now()), id)
	if err != nil {
		return fmt.Errorf("deactivate connection: %w", err)
	}
	return requireRow(result)
}

// TouchLastUsed updates the last_used_at timestamp.
func (s *ConnectionStore) TouchLastUsed(ctx context.Context, id string) error {
	query := `UPDATE gmail_connections SET last_used_at = ? WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query, toMillis(time.Now()), id)
	if err != nil {
		return fmt.Errorf("touch last_used: %w", err)
	}
	return requireRow(result)
}

// Delete removes the connection row.
func (s *ConnectionStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM gmail_connections WHERE id = ?`, id)
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
	var scopes string
	var tokenExpiresAt, createdAt, updatedAt int64
	var lastUsedAt sql.NullInt64

	err := row.Scan(
		&conn.ID,
		&conn.UserID,
		&conn.GmailAddress,
		&conn.EncryptedAccessToken,
		&conn.EncryptedRefreshToken,
		&tokenExpiresAt,
		&scopes,
		&conn.Active,
		&conn.NeedsReauth,
		&createdAt,
		&updatedAt,
		&lastUsedAt,
	)
	if err != nil {
		return nil, err
	}

	conn.Scopes = splitScopes(scopes)
	conn.TokenExpiresAt = fromMillis(tokenExpiresAt)
	conn.CreatedAt = fromMillis(createdAt)
	conn.UpdatedAt = fromMillis(updatedAt)
	if lastUsedAt.Valid {
		t := fromMillis(lastUsedAt.Int64)
		conn.LastUsedAt = &t
	}
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
