// Package google implements the OAuth provider port against Google's
// OAuth 2.0 endpoints: the authorize redirect, the token endpoint for
// code exchange and refresh, token revocation and the userinfo lookup.
package google

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/custodia-labs/mailbridge-core/internal/core/domain"
	"github.com/custodia-labs/mailbridge-core/internal/core/ports/driven"
	"github.com/custodia-labs/mailbridge-core/internal/metrics"
)

// Ensure Client implements the interface.
var _ driven.ProviderClient = (*Client)(nil)

// Google OAuth 2.0 endpoints.
const (
	defaultAuthURL     = "https://accounts.google.com/o/oauth2/v2/auth"
	defaultTokenURL    = "https://oauth2.googleapis.com/token"
	defaultRevokeURL   = "https://oauth2.googleapis.com/revoke"
	defaultUserinfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
)

const defaultMaxAttempts = 3

// Config holds the settings for the Google OAuth client.
type Config struct {
	// ClientID is the OAuth application client ID. Required.
	ClientID string

	// ClientSecret is the OAuth application client secret. Required.
	ClientSecret string

	// Endpoint overrides, used by tests. Empty values select Google's
	// production endpoints.
	AuthURL     string
	TokenURL    string
	RevokeURL   string
	UserinfoURL string

	// HTTPClient overrides the default HTTP client (30s timeout).
	HTTPClient *http.Client

	// MaxAttempts bounds retries of transient failures per call.
	// Defaults to 3.
	MaxAttempts uint

	// RetryInterval is the initial backoff delay. Defaults to 500ms.
	RetryInterval time.Duration

	// Logger for structured logging. If nil, uses slog.Default().
	Logger *slog.Logger
}

// Client performs OAuth exchanges against Google.
type Client struct {
	clientID     string
	clientSecret string
	authURL      string
	tokenURL     string
	revokeURL    string
	userinfoURL  string
	httpClient   *http.Client
	maxAttempts  uint
	retryAfter   time.Duration
	logger       *slog.Logger
}

// NewClient creates a new Google OAuth client.
func NewClient(cfg Config) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts == 0 {
		maxAttempts = defaultMaxAttempts
	}
	retryAfter := cfg.RetryInterval
	if retryAfter == 0 {
		retryAfter = 500 * time.Millisecond
	}
	return &Client{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		authURL:      orDefault(cfg.AuthURL, defaultAuthURL),
		tokenURL:     orDefault(cfg.TokenURL, defaultTokenURL),
		revokeURL:    orDefault(cfg.RevokeURL, defaultRevokeURL),
		userinfoURL:  orDefault(cfg.UserinfoURL, defaultUserinfoURL),
		httpClient:   httpClient,
		maxAttempts:  maxAttempts,
		retryAfter:   retryAfter,
		logger:       logger.With("component", "google"),
	}
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// AuthCodeURL constructs the Google authorization URL.
// access_type=offline and prompt=consent are mandatory: without both
// Google omits the refresh token and the connection could never outlive
// its first access token.
func (c *Client) AuthCodeURL(p driven.AuthCodeURLParams) string {
	params := url.Values{
		"client_id":             {c.clientID},
		"redirect_uri":          {p.RedirectURI},
		"response_type":         {"code"},
		"scope":                 {strings.Join(p.Scopes, " ")},
		"state":                 {p.State},
		"code_challenge":        {p.CodeChallenge},
		"code_challenge_method": {"S256"},
		"access_type":           {"offline"},
		"prompt":                {"consent"},
	}
	return c.authURL + "?" + params.Encode()
}

// ExchangeCode exchanges an authorization code for tokens.
func (c *Client) ExchangeCode(ctx context.Context, code, codeVerifier, redirectURI string) (*domain.TokenSet, error) {
	params := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"code_verifier": {codeVerifier},
		"redirect_uri":  {redirectURI},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
	}
	return c.postToken(ctx, "exchange_code", params)
}

// RefreshToken obtains a fresh access token from a refresh token.
// Google usually returns no new refresh token; the stored one stays
// valid. When one does come back the caller must persist the rotation.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*domain.TokenSet, error) {
	params := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
	}
	return c.postToken(ctx, "refresh_token", params)
}

// RevokeToken invalidates a token upstream. Either the access or the
// refresh token works; revoking one revokes the pair.
func (c *Client) RevokeToken(ctx context.Context, token string) error {
	const op = "revoke_token"
	params := url.Values{"token": {token}}

	_, err := c.withRetry(ctx, op, func() (*http.Response, []byte, error) {
		return c.postForm(ctx, c.revokeURL, params)
	})
	return err
}

// FetchIdentity resolves the account behind an access token via the
// userinfo endpoint.
func (c *Client) FetchIdentity(ctx context.Context, accessToken string) (*domain.ProviderIdentity, error) {
	const op = "userinfo"

	body, err := c.withRetry(ctx, op, func() (*http.Response, []byte, error) {
		req, err := http.NewRequestWithContext(ctx, "GET", c.userinfoURL, nil)
		if err != nil {
			return nil, nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+accessToken)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, nil, err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, nil, fmt.Errorf("read response: %w", err)
		}
		return resp, data, nil
	})
	if err != nil {
		return nil, err
	}

	var info struct {
		ID            string `json:"id"`
		Email         string `json:"email"`
		VerifiedEmail bool   `json:"verified_email"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
	}
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("decode userinfo: %w", err)
	}
	if info.Email == "" {
		return nil, &domain.ProviderError{
			Op:          op,
			Code:        "missing_email",
			Description: "userinfo response carried no email address",
			Err:         domain.ErrProviderRejected,
		}
	}

	return &domain.ProviderIdentity{
		AccountID:     info.ID,
		Email:         info.Email,
		VerifiedEmail: info.VerifiedEmail,
		Name:          info.Name,
		Picture:       info.Picture,
	}, nil
}

// postToken posts to the token endpoint and parses the token response.
func (c *Client) postToken(ctx context.Context, op string, params url.Values) (*domain.TokenSet, error) {
	body, err := c.withRetry(ctx, op, func() (*http.Response, []byte, error) {
		return c.postForm(ctx, c.tokenURL, params)
	})
	if err != nil {
		return nil, err
	}

	var tokenResp struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		TokenType    string `json:"token_type"`
		ExpiresIn    int64  `json:"expires_in"`
		Scope        string `json:"scope"`
	}
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return nil, &domain.ProviderError{
			Op:          op,
			Code:        "missing_access_token",
			Description: "token response carried no access token",
			Err:         domain.ErrProviderRejected,
		}
	}

	var scopes []string
	if tokenResp.Scope != "" {
		scopes = strings.Fields(tokenResp.Scope)
	}

	return &domain.TokenSet{
		AccessToken:  tokenResp.AccessToken,
		RefreshToken: tokenResp.RefreshToken,
		TokenType:    tokenResp.TokenType,
		ExpiresAt:    time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second),
		Scopes:       scopes,
	}, nil
}

// postForm sends a form-encoded POST and reads the full body.
func (c *Client) postForm(ctx context.Context, endpoint string, params url.Values) (*http.Response, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, strings.NewReader(params.Encode()))
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read response: %w", err)
	}
	return resp, body, nil
}

// withRetry runs one provider call with bounded exponential backoff.
// Only transient failures (network errors, 5xx, 429) are retried;
// anything the provider decided on purpose fails immediately.
func (c *Client) withRetry(ctx context.Context, op string, call func() (*http.Response, []byte, error)) ([]byte, error) {
	operation := func() ([]byte, error) {
		resp, body, err := call()
		if err != nil {
			if ctx.Err() != nil {
				return nil, backoff.Permanent(ctx.Err())
			}
			return nil, &domain.ProviderError{
				Op:          op,
				Description: err.Error(),
				Err:         domain.ErrProviderUnavailable,
			}
		}
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return body, nil
		}

		provErr := c.classify(op, resp.StatusCode, body)
		if provErr.Transient() {
			return nil, provErr
		}
		return nil, backoff.Permanent(provErr)
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.retryAfter

	body, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(c.maxAttempts),
	)
	if err != nil {
		metrics.ProviderRequests.WithLabelValues(op, "error").Inc()
		c.logger.Warn("provider request failed", "op", op, "error", err)
		return nil, err
	}

	metrics.ProviderRequests.WithLabelValues(op, "success").Inc()
	return body, nil
}

// classify turns a non-2xx provider response into a ProviderError.
// invalid_grant is the permanent signal the token service demotes
// connections on; other 4xx mean the request itself was rejected; 5xx
// and 429 are transient.
func (c *Client) classify(op string, status int, body []byte) *domain.ProviderError {
	var errResp struct {
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	_ = json.Unmarshal(body, &errResp)

	provErr := &domain.ProviderError{
		Op:          op,
		StatusCode:  status,
		Code:        errResp.Error,
		Description: errResp.ErrorDescription,
	}

	switch {
	case errResp.Error == "invalid_grant":
		provErr.Err = domain.ErrInvalidGrant
	case status == http.StatusTooManyRequests || status >= 500:
		provErr.Err = domain.ErrProviderUnavailable
	default:
		provErr.Err = domain.ErrProviderRejected
	}
	return provErr
}
