package domain

import "time"

// AuthState is the ephemeral record behind one authorization redirect:
// the CSRF state token, the PKCE verifier that must accompany the later
// code exchange, and the parameters the flow was started with. A state
// is consumed exactly once by a matching callback, or purged after its
// TTL elapses.
type AuthState struct {
	ID           string    `json:"id"`
	State        string    `json:"state"`
	UserID       string    `json:"user_id"`
	Scopes       []string  `json:"scopes"`
	RedirectURI  string    `json:"redirect_uri"`
	CodeVerifier string    `json:"code_verifier"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
}

// IsExpired reports whether the state's TTL has elapsed.
func (s *AuthState) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}
