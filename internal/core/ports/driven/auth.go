package driven

import "github.com/custodia-labs/mailbridge-core/internal/core/domain"

// AuthAdapter handles API token cryptographic operations. Tokens are
// stateless - the embedding application signs them with the shared
// secret and this side only verifies.
type AuthAdapter interface {
	GenerateToken(claims *domain.TokenClaims) (string, error)
	ParseToken(token string) (*domain.TokenClaims, error)
}
