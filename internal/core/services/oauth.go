package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/mailbridge-core/internal/core/domain"
	"github.com/custodia-labs/mailbridge-core/internal/core/ports/driven"
	"github.com/custodia-labs/mailbridge-core/internal/core/ports/driving"
	"github.com/custodia-labs/mailbridge-core/internal/metrics"
	"github.com/custodia-labs/mailbridge-core/internal/pkce"
)

// Ensure oauthService implements OAuthService
var _ driving.OAuthService = (*oauthService)(nil)

// DefaultStateTTL is how long an issued authorization state stays
// redeemable.
const DefaultStateTTL = 10 * time.Minute

// DefaultScopes is requested when the caller doesn't name any.
var DefaultScopes = []string{"https://www.googleapis.com/auth/gmail.readonly"}

// OAuthServiceConfig holds configuration for the OAuth service.
type OAuthServiceConfig struct {
	// Users persists user records.
	Users driven.UserStore

	// States manages pending authorization state.
	States driven.StateStore

	// Connections persists Gmail connections.
	Connections driven.ConnectionStore

	// Provider performs the OAuth exchanges.
	Provider driven.ProviderClient

	// Cipher encrypts tokens before they reach a store.
	Cipher driven.TokenCipher

	// RedirectURI is the callback URL registered with the provider.
	// Example: "http://localhost:8080/oauth/callback"
	RedirectURI string

	// StateTTL bounds how long a pending authorization stays
	// redeemable. Zero means DefaultStateTTL.
	StateTTL time.Duration

	// VerifierLength is the PKCE verifier length in characters.
	// Zero means pkce.DefaultVerifierLength.
	VerifierLength int

	// Scopes requested when a begin request doesn't name any.
	// Nil means DefaultScopes.
	Scopes []string

	Logger *slog.Logger
}

// oauthService implements the OAuthService interface.
type oauthService struct {
	users          driven.UserStore
	states         driven.StateStore
	connections    driven.ConnectionStore
	provider       driven.ProviderClient
	cipher         driven.TokenCipher
	redirectURI    string
	stateTTL       time.Duration
	verifierLength int
	defaultScopes  []string
	logger         *slog.Logger
}

// NewOAuthService creates a new OAuth service.
func NewOAuthService(cfg OAuthServiceConfig) driving.OAuthService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	stateTTL := cfg.StateTTL
	if stateTTL <= 0 {
		stateTTL = DefaultStateTTL
	}
	verifierLength := cfg.VerifierLength
	if verifierLength == 0 {
		verifierLength = pkce.DefaultVerifierLength
	}
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}

	return &oauthService{
		users:          cfg.Users,
		states:         cfg.States,
		connections:    cfg.Connections,
		provider:       cfg.Provider,
		cipher:         cfg.Cipher,
		redirectURI:    cfg.RedirectURI,
		stateTTL:       stateTTL,
		verifierLength: verifierLength,
		defaultScopes:  scopes,
		logger:         logger,
	}
}

// BeginAuthorization starts an authorization flow.
// It upserts the user, generates PKCE credentials, stores state, and
// returns the authorization URL. No provider call is made.
func (s *oauthService) BeginAuthorization(ctx context.Context, req driving.BeginAuthRequest) (*driving.BeginAuthResponse, error) {
	if req.ExternalUserID == "" {
		return nil, fmt.Errorf("%w: external_user_id is required", domain.ErrInvalidInput)
	}

	user, err := s.users.Upsert(ctx, req.ExternalUserID, req.Email)
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}

	// Generate state (CSRF protection)
	state, err := generateStateToken()
	if err != nil {
		return nil, fmt.Errorf("generate state: %w", err)
	}

	// Generate PKCE code verifier and challenge
	codeVerifier, err := pkce.NewVerifier(s.verifierLength)
	if err != nil {
		return nil, fmt.Errorf("generate code verifier: %w", err)
	}
	codeChallenge := pkce.ChallengeS256(codeVerifier)

	redirectURI := req.RedirectURI
	if redirectURI == "" {
		redirectURI = s.redirectURI
	}
	scopes := req.Scopes
	if len(scopes) == 0 {
		scopes = s.defaultScopes
	}

	// Store state for validation during callback
	now := time.Now()
	expiresAt := now.Add(s.stateTTL)
	authState := &domain.AuthState{
		ID:           uuid.NewString(),
		State:        state,
		UserID:       user.ID,
		Scopes:       scopes,
		RedirectURI:  redirectURI,
		CodeVerifier: codeVerifier,
		CreatedAt:    now,
		ExpiresAt:    expiresAt,
	}
	if err := s.states.Save(ctx, authState); err != nil {
		return nil, fmt.Errorf("save auth state: %w", err)
	}

	authURL := s.provider.AuthCodeURL(driven.AuthCodeURLParams{
		RedirectURI:   redirectURI,
		Scopes:        scopes,
		State:         state,
		CodeChallenge: codeChallenge,
	})

	metrics.AuthFlowsStarted.Inc()
	s.logger.Info("authorization flow started", "user_id", user.ID, "expires_at", expiresAt)

	return &driving.BeginAuthResponse{
		AuthorizationURL: authURL,
		State:            state,
		ExpiresAt:        expiresAt,
	}, nil
}

// CompleteAuthorization handles the OAuth callback from the provider.
// State is validated and consumed before anything else; whatever
// happens next, the same state can never be redeemed again.
func (s *oauthService) CompleteAuthorization(ctx context.Context, req driving.CallbackRequest) (*driving.CallbackResult, error) {
	if req.State == "" {
		metrics.AuthCallbacks.WithLabelValues("invalid_state").Inc()
		return nil, fmt.Errorf("%w: state is required", domain.ErrInvalidState)
	}

	// Validate and consume state (single-use)
	authState, err := s.states.GetAndDelete(ctx, req.State)
	if err != nil {
		return nil, fmt.Errorf("get auth state: %w", err)
	}
	if authState == nil {
		metrics.AuthCallbacks.WithLabelValues("invalid_state").Inc()
		return nil, domain.ErrInvalidState
	}

	// The provider can redirect back with an error instead of a code,
	// e.g. the user denied consent. The state is already burned.
	if req.Error != "" {
		metrics.AuthCallbacks.WithLabelValues("provider_denied").Inc()
		return nil, &domain.ProviderError{
			Op:          "callback",
			Code:        req.Error,
			Description: req.ErrorDescription,
			Err:         domain.ErrProviderRejected,
		}
	}
	if req.Code == "" {
		metrics.AuthCallbacks.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: code is required", domain.ErrInvalidInput)
	}

	// Exchange code for tokens
	tokens, err := s.provider.ExchangeCode(ctx, req.Code, authState.CodeVerifier, authState.RedirectURI)
	if err != nil {
		metrics.AuthCallbacks.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	// Without a refresh token the connection would die with its first
	// access token. The authorize URL requests offline access, so a
	// missing refresh token is a provider-side anomaly worth failing.
	if tokens.RefreshToken == "" {
		metrics.AuthCallbacks.WithLabelValues("error").Inc()
		return nil, &domain.ProviderError{
			Op:          "exchange_code",
			Code:        "missing_refresh_token",
			Description: "provider did not issue a refresh token",
			Err:         domain.ErrProviderRejected,
		}
	}

	// Resolve which Gmail account was just authorized
	identity, err := s.provider.FetchIdentity(ctx, tokens.AccessToken)
	if err != nil {
		metrics.AuthCallbacks.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("fetch identity: %w", err)
	}

	encAccess, err := s.cipher.Encrypt(tokens.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("encrypt access token: %w", err)
	}
	encRefresh, err := s.cipher.Encrypt(tokens.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("encrypt refresh token: %w", err)
	}

	// Reconnecting the same account updates the existing row
	existing, err := s.connections.GetByUserAndAddress(ctx, authState.UserID, identity.Email)
	if err != nil {
		return nil, fmt.Errorf("check existing connection: %w", err)
	}

	scopes := tokens.Scopes
	if len(scopes) == 0 {
		scopes = authState.Scopes
	}

	now := time.Now()
	conn := &domain.Connection{
		UserID:                authState.UserID,
		GmailAddress:          identity.Email,
		EncryptedAccessToken:  encAccess,
		EncryptedRefreshToken: encRefresh,
		TokenExpiresAt:        tokens.ExpiresAt,
		Scopes:                scopes,
		Active:                true,
		NeedsReauth:           false,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if existing != nil {
		conn.ID = existing.ID
		conn.CreatedAt = existing.CreatedAt
	}

	if err := s.connections.Save(ctx, conn); err != nil {
		return nil, fmt.Errorf("save connection: %w", err)
	}

	created := existing == nil
	metrics.AuthCallbacks.WithLabelValues("connected").Inc()
	s.logger.Info("connection authorized",
		"connection_id", conn.ID,
		"user_id", conn.UserID,
		"created", created)

	return &driving.CallbackResult{
		Connection: conn.ToSummary(),
		Created:    created,
		Message:    fmt.Sprintf("Connected %s", identity.Email),
	}, nil
}

// Disconnect revokes the connection's tokens upstream and deactivates
// it locally. Revocation is best-effort: its failure is logged, never
// allowed to block the local deactivation.
func (s *oauthService) Disconnect(ctx context.Context, connectionID string, revokeRemote bool) error {
	conn, err := s.connections.Get(ctx, connectionID)
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}

	if revokeRemote {
		s.revokeTokens(ctx, conn)
	}

	if err := s.connections.Deactivate(ctx, connectionID); err != nil {
		return fmt.Errorf("deactivate connection: %w", err)
	}

	s.logger.Info("connection disconnected", "connection_id", connectionID, "revoked_remote", revokeRemote)
	return nil
}

// RemoveConnection deletes the connection row after a best-effort
// remote revoke.
func (s *oauthService) RemoveConnection(ctx context.Context, connectionID string) error {
	conn, err := s.connections.Get(ctx, connectionID)
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}

	s.revokeTokens(ctx, conn)

	if err := s.connections.Delete(ctx, connectionID); err != nil {
		return fmt.Errorf("delete connection: %w", err)
	}

	s.logger.Info("connection removed", "connection_id", connectionID)
	return nil
}

// revokeTokens revokes the refresh token upstream, falling back to the
// access token when the refresh token can't be decrypted. Revoking the
// refresh token invalidates the whole grant on the provider side.
func (s *oauthService) revokeTokens(ctx context.Context, conn *domain.Connection) {
	token, err := s.cipher.Decrypt(conn.EncryptedRefreshToken)
	if err != nil {
		s.logger.Warn("decrypt refresh token for revoke failed",
			"connection_id", conn.ID, "error", err)
		token, err = s.cipher.Decrypt(conn.EncryptedAccessToken)
		if err != nil {
			s.logger.Warn("decrypt access token for revoke failed",
				"connection_id", conn.ID, "error", err)
			return
		}
	}

	if err := s.provider.RevokeToken(ctx, token); err != nil {
		s.logger.Warn("remote token revoke failed",
			"connection_id", conn.ID, "error", err)
	}
}

// generateStateToken returns a 256-bit random token, base64url encoded.
func generateStateToken() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
