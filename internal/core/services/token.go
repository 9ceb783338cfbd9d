package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/custodia-labs/mailbridge-core/internal/core/domain"
	"github.com/custodia-labs/mailbridge-core/internal/core/ports/driven"
	"github.com/custodia-labs/mailbridge-core/internal/core/ports/driving"
	"github.com/custodia-labs/mailbridge-core/internal/metrics"
)

// Ensure tokenService implements TokenService
var _ driving.TokenService = (*tokenService)(nil)

// DefaultRefreshBuffer is how close to expiry an access token may get
// before it is refreshed instead of returned.
const DefaultRefreshBuffer = 5 * time.Minute

// TokenServiceConfig holds configuration for the token service.
type TokenServiceConfig struct {
	// Connections persists Gmail connections.
	Connections driven.ConnectionStore

	// Provider performs the refresh grant.
	Provider driven.ProviderClient

	// Cipher opens and seals stored tokens.
	Cipher driven.TokenCipher

	// RefreshBuffer is the remaining-lifetime threshold below which a
	// token is refreshed. Zero means DefaultRefreshBuffer.
	RefreshBuffer time.Duration

	Logger *slog.Logger
}

// tokenService implements the TokenService interface. Refreshes are
// serialized per connection id through a singleflight group: concurrent
// callers for the same connection share one provider call and its
// outcome, while different connections refresh independently.
type tokenService struct {
	connections driven.ConnectionStore
	provider    driven.ProviderClient
	cipher      driven.TokenCipher
	buffer      time.Duration
	flights     singleflight.Group
	logger      *slog.Logger
}

// NewTokenService creates a new token service.
func NewTokenService(cfg TokenServiceConfig) driving.TokenService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	buffer := cfg.RefreshBuffer
	if buffer <= 0 {
		buffer = DefaultRefreshBuffer
	}

	return &tokenService{
		connections: cfg.Connections,
		provider:    cfg.Provider,
		cipher:      cfg.Cipher,
		buffer:      buffer,
		logger:      logger,
	}
}

// refreshOutcome is what a refresh flight hands back to its callers.
type refreshOutcome struct {
	token *driving.AccessToken
	// refreshed is false when the flight found the stored token already
	// fresh and skipped the provider.
	refreshed bool
}

// GetValidAccessToken returns a usable access token for the connection,
// refreshing through the provider when the stored one is inside the
// refresh buffer.
func (s *tokenService) GetValidAccessToken(ctx context.Context, connectionID string) (*driving.AccessToken, error) {
	conn, err := s.connections.Get(ctx, connectionID)
	if err != nil {
		return nil, fmt.Errorf("get connection: %w", err)
	}

	// A demoted connection is terminal until reauthorized; the provider
	// is not contacted again.
	if conn.NeedsReauth {
		return nil, domain.ErrNeedsReauth
	}
	if !conn.Active {
		return nil, domain.ErrConnectionInactive
	}

	var token *driving.AccessToken
	if conn.NeedsRefresh(time.Now(), s.buffer) {
		outcome, err := s.refresh(ctx, connectionID, s.buffer)
		if err != nil {
			return nil, err
		}
		token = outcome.token
	} else {
		token, err = s.decryptAccessToken(conn)
		if err != nil {
			return nil, err
		}
	}

	if err := s.connections.TouchLastUsed(ctx, connectionID); err != nil {
		s.logger.Warn("touch last_used failed", "connection_id", connectionID, "error", err)
	}
	return token, nil
}

// RefreshExpiring refreshes active connections whose access token
// expires within the window. Individual failures are counted and the
// sweep moves on.
func (s *tokenService) RefreshExpiring(ctx context.Context, within time.Duration, limit int) (*driving.RefreshReport, error) {
	before := time.Now().Add(within)
	conns, err := s.connections.ListExpiring(ctx, before, limit)
	if err != nil {
		return nil, fmt.Errorf("list expiring connections: %w", err)
	}

	report := &driving.RefreshReport{Scanned: len(conns)}
	for _, conn := range conns {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		outcome, err := s.refresh(ctx, conn.ID, within)
		switch {
		case err == nil:
			if outcome.refreshed {
				report.Refreshed++
			}
		case errors.Is(err, domain.ErrNeedsReauth):
			report.Demoted++
		default:
			report.Failed++
			s.logger.Warn("proactive refresh failed", "connection_id", conn.ID, "error", err)
		}
	}
	return report, nil
}

// refresh runs the refresh procedure inside a per-connection flight.
// The flight re-reads the connection so late joiners that raced a
// completed flight see the already-renewed token instead of triggering
// a second provider call.
func (s *tokenService) refresh(ctx context.Context, connectionID string, buffer time.Duration) (*refreshOutcome, error) {
	v, err, _ := s.flights.Do(connectionID, func() (any, error) {
		conn, err := s.connections.Get(ctx, connectionID)
		if err != nil {
			return nil, fmt.Errorf("get connection: %w", err)
		}
		if conn.NeedsReauth {
			return nil, domain.ErrNeedsReauth
		}
		if !conn.Active {
			return nil, domain.ErrConnectionInactive
		}

		// Another flight may have refreshed while we queued.
		if !conn.NeedsRefresh(time.Now(), buffer) {
			token, err := s.decryptAccessToken(conn)
			if err != nil {
				return nil, err
			}
			return &refreshOutcome{token: token}, nil
		}

		refreshToken, err := s.cipher.Decrypt(conn.EncryptedRefreshToken)
		if err != nil {
			return nil, fmt.Errorf("decrypt refresh token: %w", err)
		}

		tokens, err := s.provider.RefreshToken(ctx, refreshToken)
		if err != nil {
			if errors.Is(err, domain.ErrInvalidGrant) {
				// The refresh token is permanently dead. Demote the
				// connection; only a new authorization flow revives it.
				if markErr := s.connections.MarkNeedsReauth(ctx, conn.ID); markErr != nil {
					s.logger.Error("mark needs_reauth failed",
						"connection_id", conn.ID, "error", markErr)
				}
				metrics.TokenRefreshes.WithLabelValues("invalid_grant").Inc()
				s.logger.Warn("refresh token rejected, connection demoted",
					"connection_id", conn.ID)
				return nil, fmt.Errorf("refresh rejected: %w", domain.ErrNeedsReauth)
			}
			// Transient failure: stored tokens stay untouched and the
			// next caller retries.
			metrics.TokenRefreshes.WithLabelValues("transient").Inc()
			return nil, fmt.Errorf("refresh token: %w", err)
		}

		encAccess, err := s.cipher.Encrypt(tokens.AccessToken)
		if err != nil {
			return nil, fmt.Errorf("encrypt access token: %w", err)
		}
		// The provider may rotate the refresh token; empty means keep
		// the stored one.
		var encRefresh string
		if tokens.RefreshToken != "" {
			encRefresh, err = s.cipher.Encrypt(tokens.RefreshToken)
			if err != nil {
				return nil, fmt.Errorf("encrypt refresh token: %w", err)
			}
		}

		// Refresh succeeded, then persist. A failure before this point
		// leaves the stored state exactly as it was.
		if err := s.connections.UpdateTokens(ctx, conn.ID, encAccess, encRefresh, tokens.ExpiresAt); err != nil {
			return nil, fmt.Errorf("persist refreshed tokens: %w", err)
		}

		metrics.TokenRefreshes.WithLabelValues("success").Inc()
		s.logger.Info("access token refreshed",
			"connection_id", conn.ID, "expires_at", tokens.ExpiresAt)

		return &refreshOutcome{
			token: &driving.AccessToken{
				Token:        tokens.AccessToken,
				ExpiresAt:    tokens.ExpiresAt,
				ConnectionID: conn.ID,
				GmailAddress: conn.GmailAddress,
			},
			refreshed: true,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*refreshOutcome), nil
}

func (s *tokenService) decryptAccessToken(conn *domain.Connection) (*driving.AccessToken, error) {
	plaintext, err := s.cipher.Decrypt(conn.EncryptedAccessToken)
	if err != nil {
		return nil, fmt.Errorf("decrypt access token: %w", err)
	}
	return &driving.AccessToken{
		Token:        plaintext,
		ExpiresAt:    conn.TokenExpiresAt,
		ConnectionID: conn.ID,
		GmailAddress: conn.GmailAddress,
	}, nil
}
