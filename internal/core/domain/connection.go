package domain

import "time"

// Connection is one authorized Gmail account belonging to a user. The
// token fields hold ciphertext only; plaintext tokens exist in memory
// just long enough to be used or re-encrypted. A user holds at most one
// connection per Gmail address.
//
// Active and NeedsReauth are independent: a disconnect leaves
// active=false, needs_reauth=false, while a permanently failed refresh
// leaves active=false, needs_reauth=true.
type Connection struct {
	ID                    string     `json:"id"`
	UserID                string     `json:"user_id"`
	GmailAddress          string     `json:"gmail_address"`
	EncryptedAccessToken  string     `json:"-"`
	EncryptedRefreshToken string     `json:"-"`
	TokenExpiresAt        time.Time  `json:"token_expires_at"`
	Scopes                []string   `json:"scopes"`
	Active                bool       `json:"active"`
	NeedsReauth           bool       `json:"needs_reauth"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
	LastUsedAt            *time.Time `json:"last_used_at,omitempty"`
}

// NeedsRefresh reports whether the access token is inside the refresh
// buffer window and must be refreshed before use.
func (c *Connection) NeedsRefresh(now time.Time, buffer time.Duration) bool {
	return c.TokenExpiresAt.Sub(now) < buffer
}

// ConnectionSummary is a safe view of a connection without ciphertext.
type ConnectionSummary struct {
	ID             string     `json:"id"`
	UserID         string     `json:"user_id"`
	GmailAddress   string     `json:"gmail_address"`
	TokenExpiresAt time.Time  `json:"token_expires_at"`
	Scopes         []string   `json:"scopes"`
	Active         bool       `json:"active"`
	NeedsReauth    bool       `json:"needs_reauth"`
	CreatedAt      time.Time  `json:"created_at"`
	LastUsedAt     *time.Time `json:"last_used_at,omitempty"`
}

// ToSummary converts a Connection to ConnectionSummary.
func (c *Connection) ToSummary() *ConnectionSummary {
	return &ConnectionSummary{
		ID:             c.ID,
		UserID:         c.UserID,
		GmailAddress:   c.GmailAddress,
		TokenExpiresAt: c.TokenExpiresAt,
		Scopes:         c.Scopes,
		Active:         c.Active,
		NeedsReauth:    c.NeedsReauth,
		CreatedAt:      c.CreatedAt,
		LastUsedAt:     c.LastUsedAt,
	}
}
