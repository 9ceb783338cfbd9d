package driving

import (
	"context"
	"time"
)

// TokenService is the token lifecycle manager: it produces valid access
// tokens on demand, refreshing through the provider when the stored one
// is close to expiry.
type TokenService interface {
	// GetValidAccessToken returns a usable access token for the
	// connection, refreshing it first when the stored token is inside
	// the refresh buffer. At most one refresh runs per connection at a
	// time; concurrent callers share its outcome. A permanently failed
	// refresh demotes the connection and fails with
	// domain.ErrNeedsReauth.
	GetValidAccessToken(ctx context.Context, connectionID string) (*AccessToken, error)

	// RefreshExpiring proactively refreshes active connections whose
	// access token expires within the given window. Individual failures
	// are counted, not fatal to the sweep.
	RefreshExpiring(ctx context.Context, within time.Duration, limit int) (*RefreshReport, error)
}

// AccessToken is a decrypted, ready-to-use access token. It stays
// in-process; the HTTP surface never returns one.
type AccessToken struct {
	Token        string    `json:"access_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	ConnectionID string    `json:"connection_id"`
	GmailAddress string    `json:"gmail_address"`
}

// RefreshReport summarizes one proactive refresh sweep.
// @Description Summary of a background token refresh sweep
type RefreshReport struct {
	// Scanned is how many expiring connections were considered.
	Scanned int `json:"scanned"`

	// Refreshed is how many tokens were renewed.
	Refreshed int `json:"refreshed"`

	// Demoted is how many connections were flagged needs_reauth.
	Demoted int `json:"demoted"`

	// Failed is how many refreshes failed transiently; they are
	// retried on the next sweep.
	Failed int `json:"failed"`
}
