package domain

import "time"

// TokenSet is the plaintext result of a provider token exchange. Both
// tokens are encrypted immediately after receipt; a TokenSet is never
// persisted as-is and never logged.
type TokenSet struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresAt    time.Time
	Scopes       []string
}

// ProviderIdentity describes the Gmail account behind an access token,
// as reported by the provider's userinfo endpoint.
type ProviderIdentity struct {
	AccountID     string
	Email         string
	VerifiedEmail bool
	Name          string
	Picture       string
}
