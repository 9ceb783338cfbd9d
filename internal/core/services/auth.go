package services

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/mailbridge-core/internal/core/domain"
	"github.com/custodia-labs/mailbridge-core/internal/core/ports/driven"
	"github.com/custodia-labs/mailbridge-core/internal/core/ports/driving"
)

// Ensure authService implements AuthService
var _ driving.AuthService = (*authService)(nil)

// authService implements the AuthService interface. It is deliberately
// thin: tokens are stateless, so validation is signature plus expiry,
// with no session lookup.
type authService struct {
	authAdapter driven.AuthAdapter
}

// NewAuthService creates a new AuthService
func NewAuthService(authAdapter driven.AuthAdapter) driving.AuthService {
	return &authService{
		authAdapter: authAdapter,
	}
}

// ValidateToken validates a JWT token and returns the auth context.
func (s *authService) ValidateToken(ctx context.Context, token string) (*domain.AuthContext, error) {
	claims, err := s.authAdapter.ParseToken(token)
	if err != nil {
		return nil, err
	}

	// The adapter enforces exp; a stale clock on the minting side is
	// still worth rejecting explicitly.
	if claims.ExpiresAt <= time.Now().Unix() {
		return nil, domain.ErrTokenExpired
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", domain.ErrTokenInvalid)
	}

	return &domain.AuthContext{
		Subject:        claims.Subject,
		ExternalUserID: claims.ExternalUserID,
	}, nil
}
