package driven

import (
	"context"

	"github.com/custodia-labs/mailbridge-core/internal/core/domain"
)

// AuthCodeURLParams are the inputs to authorize-URL construction.
type AuthCodeURLParams struct {
	RedirectURI   string
	Scopes        []string
	State         string
	CodeChallenge string
}

// ProviderClient performs the OAuth exchanges against the identity
// provider. Implementations are stateless; every remote call takes a
// context and observes its deadline. Transient failures are retried
// internally with bounded exponential backoff; errors come back as
// *domain.ProviderError so callers can classify them with errors.Is.
type ProviderClient interface {
	// AuthCodeURL builds the authorize redirect URL. It requests
	// offline access and forces the consent screen - without both the
	// provider silently omits the refresh token and the connection can
	// never be refreshed. No network call.
	AuthCodeURL(p AuthCodeURLParams) string

	// ExchangeCode redeems an authorization code, together with the
	// PKCE verifier, for a token set. A bad or reused code fails with
	// domain.ErrInvalidGrant.
	ExchangeCode(ctx context.Context, code, codeVerifier, redirectURI string) (*domain.TokenSet, error)

	// RefreshToken obtains a fresh access token. A revoked or expired
	// refresh token fails with domain.ErrInvalidGrant - the permanent
	// failure signal the token service acts on.
	RefreshToken(ctx context.Context, refreshToken string) (*domain.TokenSet, error)

	// RevokeToken invalidates a token upstream. Callers treat failures
	// as best-effort.
	RevokeToken(ctx context.Context, token string) error

	// FetchIdentity resolves the account behind an access token via the
	// userinfo endpoint.
	FetchIdentity(ctx context.Context, accessToken string) (*domain.ProviderIdentity, error)
}
