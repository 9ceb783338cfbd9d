package mocks

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/custodia-labs/mailbridge-core/internal/core/domain"
	"github.com/custodia-labs/mailbridge-core/internal/core/ports/driven"
)

// Ensure MockProviderClient implements ProviderClient
var _ driven.ProviderClient = (*MockProviderClient)(nil)

// MockProviderClient is a mock implementation of ProviderClient for
// testing. Defaults return canned successful responses; hooks inject
// failures and capture calls.
type MockProviderClient struct {
	mu sync.Mutex

	// Custom behavior hooks (optional)
	ExchangeCodeFn  func(code, codeVerifier, redirectURI string) (*domain.TokenSet, error)
	RefreshTokenFn  func(refreshToken string) (*domain.TokenSet, error)
	RevokeTokenFn   func(token string) error
	FetchIdentityFn func(accessToken string) (*domain.ProviderIdentity, error)

	// Identity returned by FetchIdentity when FetchIdentityFn is unset.
	Identity *domain.ProviderIdentity

	// Call counters (for test assertions)
	ExchangeCodeCalls int
	RefreshTokenCalls int
	RevokeTokenCalls  int

	// RevokedTokens records every token passed to RevokeToken.
	RevokedTokens []string
}

// NewMockProviderClient creates a new MockProviderClient
func NewMockProviderClient() *MockProviderClient {
	return &MockProviderClient{
		Identity: &domain.ProviderIdentity{
			AccountID:     "mock-account-1",
			Email:         "user@gmail.com",
			VerifiedEmail: true,
		},
	}
}

func (m *MockProviderClient) AuthCodeURL(p driven.AuthCodeURLParams) string {
	q := url.Values{}
	q.Set("state", p.State)
	q.Set("redirect_uri", p.RedirectURI)
	q.Set("code_challenge", p.CodeChallenge)
	return "https://mock.example.com/auth?" + q.Encode()
}

func (m *MockProviderClient) ExchangeCode(ctx context.Context, code, codeVerifier, redirectURI string) (*domain.TokenSet, error) {
	m.mu.Lock()
	m.ExchangeCodeCalls++
	fn := m.ExchangeCodeFn
	m.mu.Unlock()

	if fn != nil {
		return fn(code, codeVerifier, redirectURI)
	}
	return &domain.TokenSet{
		AccessToken:  "access-" + code,
		RefreshToken: "refresh-" + code,
		TokenType:    "Bearer",
		ExpiresAt:    time.Now().Add(time.Hour),
		Scopes:       []string{"https://www.googleapis.com/auth/gmail.readonly"},
	}, nil
}

func (m *MockProviderClient) RefreshToken(ctx context.Context, refreshToken string) (*domain.TokenSet, error) {
	m.mu.Lock()
	m.RefreshTokenCalls++
	n := m.RefreshTokenCalls
	fn := m.RefreshTokenFn
	m.mu.Unlock()

	if fn != nil {
		return fn(refreshToken)
	}
	return &domain.TokenSet{
		AccessToken: fmt.Sprintf("refreshed-access-%d", n),
		TokenType:   "Bearer",
		ExpiresAt:   time.Now().Add(time.Hour),
	}, nil
}

func (m *MockProviderClient) RevokeToken(ctx context.Context, token string) error {
	m.mu.Lock()
	m.RevokeTokenCalls++
	m.RevokedTokens = append(m.RevokedTokens, token)
	fn := m.RevokeTokenFn
	m.mu.Unlock()

	if fn != nil {
		return fn(token)
	}
	return nil
}

func (m *MockProviderClient) FetchIdentity(ctx context.Context, accessToken string) (*domain.ProviderIdentity, error) {
	if m.FetchIdentityFn != nil {
		return m.FetchIdentityFn(accessToken)
	}
	return m.Identity, nil
}

// Calls reports counters under the mutex (for concurrent test assertions).
func (m *MockProviderClient) Calls() (exchanges, refreshes, revokes int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ExchangeCodeCalls, m.RefreshTokenCalls, m.RevokeTokenCalls
}
