package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/custodia-labs/mailbridge-core/internal/core/domain"
	"github.com/custodia-labs/mailbridge-core/internal/core/ports/driven"
	"github.com/custodia-labs/mailbridge-core/internal/core/ports/driving"
)

// Ensure connectionService implements ConnectionService
var _ driving.ConnectionService = (*connectionService)(nil)

// ConnectionServiceConfig holds configuration for the connection service.
type ConnectionServiceConfig struct {
	// Users resolves external user ids.
	Users driven.UserStore

	// Connections persists Gmail connections.
	Connections driven.ConnectionStore

	// Tokens produces valid access tokens for status checks.
	Tokens driving.TokenService

	Logger *slog.Logger
}

// connectionService implements the ConnectionService interface.
type connectionService struct {
	users       driven.UserStore
	connections driven.ConnectionStore
	tokens      driving.TokenService
	logger      *slog.Logger
}

// NewConnectionService creates a new connection service.
func NewConnectionService(cfg ConnectionServiceConfig) driving.ConnectionService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &connectionService{
		users:       cfg.Users,
		connections: cfg.Connections,
		tokens:      cfg.Tokens,
		logger:      logger,
	}
}

// List returns a user's connections by external user id. Users are
// created lazily by the authorization flow, so an unknown id simply has
// no connections yet.
func (s *connectionService) List(ctx context.Context, externalUserID string, includeInactive bool) ([]*domain.ConnectionSummary, error) {
	if externalUserID == "" {
		return nil, fmt.Errorf("%w: external_user_id is required", domain.ErrInvalidInput)
	}

	user, err := s.users.GetByExternalID(ctx, externalUserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return []*domain.ConnectionSummary{}, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	conns, err := s.connections.ListByUser(ctx, user.ID, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}

	summaries := make([]*domain.ConnectionSummary, 0, len(conns))
	for _, conn := range conns {
		summaries = append(summaries, conn.ToSummary())
	}
	return summaries, nil
}

// Get returns one connection summary.
func (s *connectionService) Get(ctx context.Context, connectionID string) (*domain.ConnectionSummary, error) {
	conn, err := s.connections.Get(ctx, connectionID)
	if err != nil {
		return nil, fmt.Errorf("get connection: %w", err)
	}
	return conn.ToSummary(), nil
}

// Status reports whether the connection can produce a valid access
// token right now. This is a routine polled check: token failures are
// folded into the status object, only lookup failures surface as
// errors.
func (s *connectionService) Status(ctx context.Context, connectionID string) (*driving.ConnectionStatus, error) {
	conn, err := s.connections.Get(ctx, connectionID)
	if err != nil {
		return nil, fmt.Errorf("get connection: %w", err)
	}

	status := &driving.ConnectionStatus{
		ConnectionID: conn.ID,
		GmailAddress: conn.GmailAddress,
		Scopes:       conn.Scopes,
		NeedsReauth:  conn.NeedsReauth,
	}

	token, err := s.tokens.GetValidAccessToken(ctx, connectionID)
	switch {
	case err == nil:
		status.Valid = true
		status.TokenExpiresIn = int64(time.Until(token.ExpiresAt).Seconds())
	case errors.Is(err, domain.ErrNeedsReauth):
		status.NeedsReauth = true
		status.Error = "needs_reauth"
	case errors.Is(err, domain.ErrConnectionInactive):
		status.Error = "inactive"
	case errors.Is(err, domain.ErrProviderUnavailable):
		status.Error = "provider_unavailable"
	case errors.Is(err, domain.ErrDecryptionFailed):
		status.Error = "decryption_failed"
	default:
		status.Error = "error"
		s.logger.Warn("status check failed", "connection_id", connectionID, "error", err)
	}
	return status, nil
}
