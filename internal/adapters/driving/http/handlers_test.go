package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	_ "github.com/custodia-labs/mailbridge-core/docs"
	"github.com/custodia-labs/mailbridge-core/internal/core/domain"
	"github.com/custodia-labs/mailbridge-core/internal/core/ports/driving"
)

// Mock services for testing

type mockAuthService struct {
	validateTokenFn func(ctx context.Context, token string) (*domain.AuthContext, error)
}

func (m *mockAuthService) ValidateToken(ctx context.Context, token string) (*domain.AuthContext, error) {
	if m.validateTokenFn != nil {
		return m.validateTokenFn(ctx, token)
	}
	return nil, errors.New("not implemented")
}

type mockOAuthService struct {
	beginAuthorizationFn    func(ctx context.Context, req driving.BeginAuthRequest) (*driving.BeginAuthResponse, error)
	completeAuthorizationFn func(ctx context.Context, req driving.CallbackRequest) (*driving.CallbackResult, error)
	disconnectFn            func(ctx context.Context, connectionID string, revokeRemote bool) error
	removeConnectionFn      func(ctx context.Context, connectionID string) error
}

func (m *mockOAuthService) BeginAuthorization(ctx context.Context, req driving.BeginAuthRequest) (*driving.BeginAuthResponse, error) {
	if m.beginAuthorizationFn != nil {
		return m.beginAuthorizationFn(ctx, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockOAuthService) CompleteAuthorization(ctx context.Context, req driving.CallbackRequest) (*driving.CallbackResult, error) {
	if m.completeAuthorizationFn != nil {
		return m.completeAuthorizationFn(ctx, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockOAuthService) Disconnect(ctx context.Context, connectionID string, revokeRemote bool) error {
	if m.disconnectFn != nil {
		return m.disconnectFn(ctx, connectionID, revokeRemote)
	}
	return errors.New("not implemented")
}

func (m *mockOAuthService) RemoveConnection(ctx context.Context, connectionID string) error {
	if m.removeConnectionFn != nil {
		return m.removeConnectionFn(ctx, connectionID)
	}
	return errors.New("not implemented")
}

type mockConnectionService struct {
	listFn   func(ctx context.Context, externalUserID string, includeInactive bool) ([]*domain.ConnectionSummary, error)
	getFn    func(ctx context.Context, connectionID string) (*domain.ConnectionSummary, error)
	statusFn func(ctx context.Context, connectionID string) (*driving.ConnectionStatus, error)
}

func (m *mockConnectionService) List(ctx context.Context, externalUserID string, includeInactive bool) ([]*domain.ConnectionSummary, error) {
	if m.listFn != nil {
		return m.listFn(ctx, externalUserID, includeInactive)
	}
	return nil, errors.New("not implemented")
}

func (m *mockConnectionService) Get(ctx context.Context, connectionID string) (*domain.ConnectionSummary, error) {
	if m.getFn != nil {
		return m.getFn(ctx, connectionID)
	}
	return nil, errors.New("not implemented")
}

func (m *mockConnectionService) Status(ctx context.Context, connectionID string) (*driving.ConnectionStatus, error) {
	if m.statusFn != nil {
		return m.statusFn(ctx, connectionID)
	}
	return nil, errors.New("not implemented")
}

type mockMailService struct {
	profileFn    func(ctx context.Context, connectionID string) (*domain.GmailProfile, error)
	searchFn     func(ctx context.Context, connectionID string, req driving.SearchRequest) (*domain.GmailMessageList, error)
	getMessageFn func(ctx context.Context, connectionID, messageID, format string) (*domain.GmailMessage, error)
	sendFn       func(ctx context.Context, connectionID string, req driving.SendRequest) (*domain.GmailMessageRef, error)
	modifyFn     func(ctx context.Context, connectionID, messageID string, req driving.ModifyRequest) (*domain.GmailMessage, error)
	labelsFn     func(ctx context.Context, connectionID string) ([]domain.GmailLabel, error)
}

func (m *mockMailService) Profile(ctx context.Context, connectionID string) (*domain.GmailProfile, error) {
	if m.profileFn != nil {
		return m.profileFn(ctx, connectionID)
	}
	return nil, errors.New("not implemented")
}

func (m *mockMailService) Search(ctx context.Context, connectionID string, req driving.SearchRequest) (*domain.GmailMessageList, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, connectionID, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockMailService) GetMessage(ctx context.Context, connectionID, messageID, format string) (*domain.GmailMessage, error) {
	if m.getMessageFn != nil {
		return m.getMessageFn(ctx, connectionID, messageID, format)
	}
	return nil, errors.New("not implemented")
}

func (m *mockMailService) Send(ctx context.Context, connectionID string, req driving.SendRequest) (*domain.GmailMessageRef, error) {
	if m.sendFn != nil {
		return m.sendFn(ctx, connectionID, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockMailService) Modify(ctx context.Context, connectionID, messageID string, req driving.ModifyRequest) (*domain.GmailMessage, error) {
	if m.modifyFn != nil {
		return m.modifyFn(ctx, connectionID, messageID, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockMailService) Labels(ctx context.Context, connectionID string) ([]domain.GmailLabel, error) {
	if m.labelsFn != nil {
		return m.labelsFn(ctx, connectionID)
	}
	return nil, errors.New("not implemented")
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Health handler tests

func TestHandleHealth(t *testing.T) {
	server := &Server{}

	req := httptest.NewRequest("GET", "/health", nil)
	rr := httptest.NewRecorder()

	server.handleHealth(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}

	var response StatusResponse
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Status != "ok" {
		t.Errorf("expected status 'ok', got %s", response.Status)
	}
}

type fakePinger struct {
	err error
}

func (p *fakePinger) Ping(ctx context.Context) error {
	return p.err
}

func TestHandleReady_AllHealthy(t *testing.T) {
	server := &Server{
		db:          &fakePinger{},
		redisClient: &fakePinger{},
	}

	req := httptest.NewRequest("GET", "/ready", nil)
	rr := httptest.NewRecorder()

	server.handleReady(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}

	var response ReadyResponse
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Status != "ready" {
		t.Errorf("expected status 'ready', got %s", response.Status)
	}
	if response.Components["database"] != "ok" {
		t.Errorf("expected database 'ok', got %s", response.Components["database"])
	}
	if response.Components["redis"] != "ok" {
		t.Errorf("expected redis 'ok', got %s", response.Components["redis"])
	}
}

func TestHandleReady_DatabaseDown(t *testing.T) {
	server := &Server{
		db: &fakePinger{err: errors.New("connection refused")},
	}

	req := httptest.NewRequest("GET", "/ready", nil)
	rr := httptest.NewRecorder()

	server.handleReady(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", rr.Code)
	}

	var response ReadyResponse
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Status != "not ready" {
		t.Errorf("expected status 'not ready', got %s", response.Status)
	}
}

func TestHandleReady_WithoutRedis(t *testing.T) {
	server := &Server{
		db: &fakePinger{},
	}

	req := httptest.NewRequest("GET", "/ready", nil)
	rr := httptest.NewRecorder()

	server.handleReady(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}

	var response ReadyResponse
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if _, ok := response.Components["redis"]; ok {
		t.Error("expected no redis component when redis is not configured")
	}
}

func TestHandleVersion(t *testing.T) {
	server := &Server{version: "1.2.3"}

	req := httptest.NewRequest("GET", "/version", nil)
	rr := httptest.NewRecorder()

	server.handleVersion(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}

	var response VersionResponse
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Version != "1.2.3" {
		t.Errorf("expected version '1.2.3', got %s", response.Version)
	}
}

func TestHandleOpenAPI(t *testing.T) {
	server := &Server{}

	req := httptest.NewRequest("GET", "/openapi.json", nil)
	rr := httptest.NewRecorder()

	server.handleOpenAPI(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}
	if !json.Valid(rr.Body.Bytes()) {
		t.Fatal("expected valid JSON document")
	}
	if !strings.Contains(rr.Body.String(), `"swagger"`) {
		t.Error("expected a swagger document")
	}
}

// Authorization flow handler tests

func TestHandleBeginAuth_InvalidJSON(t *testing.T) {
	server := &Server{}

	req := httptest.NewRequest("POST", "/api/v1/auth/url", bytes.NewBufferString("invalid json"))
	rr := httptest.NewRecorder()

	server.handleBeginAuth(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}
}

func TestHandleBeginAuth_MissingExternalUserID(t *testing.T) {
	mockOAuth := &mockOAuthService{
		beginAuthorizationFn: func(ctx context.Context, req driving.BeginAuthRequest) (*driving.BeginAuthResponse, error) {
			// The service wraps the sentinel; the handler classifies
			// with errors.Is.
			return nil, fmt.Errorf("%w: external_user_id is required", domain.ErrInvalidInput)
		},
	}

	server := &Server{oauthService: mockOAuth, logger: testLogger()}

	body, _ := json.Marshal(driving.BeginAuthRequest{})
	req := httptest.NewRequest("POST", "/api/v1/auth/url", bytes.NewBuffer(body))
	rr := httptest.NewRecorder()

	server.handleBeginAuth(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}
}

func TestHandleBeginAuth_Success(t *testing.T) {
	expiresAt := time.Now().Add(10 * time.Minute)
	var gotReq driving.BeginAuthRequest
	mockOAuth := &mockOAuthService{
		beginAuthorizationFn: func(ctx context.Context, req driving.BeginAuthRequest) (*driving.BeginAuthResponse, error) {
			gotReq = req
			return &driving.BeginAuthResponse{
				AuthorizationURL: "https://accounts.google.com/o/oauth2/v2/auth?client_id=test",
				State:            "state-token",
				ExpiresAt:        expiresAt,
			}, nil
		},
	}

	server := &Server{oauthService: mockOAuth, logger: testLogger()}

	body, _ := json.Marshal(driving.BeginAuthRequest{
		ExternalUserID: "app-user-42",
		Email:          "alice@example.com",
	})
	req := httptest.NewRequest("POST", "/api/v1/auth/url", bytes.NewBuffer(body))
	ctx := context.WithValue(req.Context(), authContextKey, &domain.AuthContext{Subject: "acme-backend"})
	rr := httptest.NewRecorder()

	server.handleBeginAuth(rr, req.WithContext(ctx))

	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}
	if gotReq.ExternalUserID != "app-user-42" {
		t.Errorf("expected external user id 'app-user-42', got %s", gotReq.ExternalUserID)
	}

	var response driving.BeginAuthResponse
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.AuthorizationURL == "" {
		t.Error("expected an authorization URL")
	}
	if response.State != "state-token" {
		t.Errorf("expected state 'state-token', got %s", response.State)
	}
}

func TestHandleOAuthCallback_Success(t *testing.T) {
	var gotReq driving.CallbackRequest
	mockOAuth := &mockOAuthService{
		completeAuthorizationFn: func(ctx context.Context, req driving.CallbackRequest) (*driving.CallbackResult, error) {
			gotReq = req
			return &driving.CallbackResult{
				Connection: &domain.ConnectionSummary{
					ID:           "conn-1",
					GmailAddress: "alice@gmail.com",
					Active:       true,
				},
				Created: true,
				Message: "Connected alice@gmail.com",
			}, nil
		},
	}

	server := &Server{oauthService: mockOAuth}

	req := httptest.NewRequest("GET", "/oauth/callback?code=auth-code&state=state-token", nil)
	rr := httptest.NewRecorder()

	server.handleOAuthCallback(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}
	if gotReq.Code != "auth-code" {
		t.Errorf("expected code 'auth-code', got %s", gotReq.Code)
	}
	if gotReq.State != "state-token" {
		t.Errorf("expected state 'state-token', got %s", gotReq.State)
	}

	var response driving.CallbackResult
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !response.Created {
		t.Error("expected created to be true")
	}
	if response.Connection.GmailAddress != "alice@gmail.com" {
		t.Errorf("expected gmail address 'alice@gmail.com', got %s", response.Connection.GmailAddress)
	}
}

func TestHandleOAuthCallback_InvalidState(t *testing.T) {
	mockOAuth := &mockOAuthService{
		completeAuthorizationFn: func(ctx context.Context, req driving.CallbackRequest) (*driving.CallbackResult, error) {
			return nil, domain.ErrInvalidState
		},
	}

	server := &Server{oauthService: mockOAuth}

	req := httptest.NewRequest("GET", "/oauth/callback?code=auth-code&state=bad-state", nil)
	rr := httptest.NewRecorder()

	server.handleOAuthCallback(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}

	var response ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	// Replayed and never-issued states read the same.
	if response.Error != "invalid or expired state" {
		t.Errorf("expected generic state error, got %s", response.Error)
	}
}

func TestHandleOAuthCallback_ProviderDenied(t *testing.T) {
	mockOAuth := &mockOAuthService{
		completeAuthorizationFn: func(ctx context.Context, req driving.CallbackRequest) (*driving.CallbackResult, error) {
			return nil, &domain.ProviderError{
				Op:   "callback",
				Code: req.Error,
				Err:  domain.ErrProviderRejected,
			}
		},
	}

	server := &Server{oauthService: mockOAuth}

	req := httptest.NewRequest("GET", "/oauth/callback?state=state-token&error=access_denied", nil)
	rr := httptest.NewRecorder()

	server.handleOAuthCallback(rr, req)

	if rr.Code != http.StatusBadGateway {
		t.Errorf("expected status 502, got %d", rr.Code)
	}

	var response ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Code != "access_denied" {
		t.Errorf("expected code 'access_denied', got %s", response.Code)
	}
}

func TestHandleOAuthCallback_ProviderUnavailable(t *testing.T) {
	mockOAuth := &mockOAuthService{
		completeAuthorizationFn: func(ctx context.Context, req driving.CallbackRequest) (*driving.CallbackResult, error) {
			return nil, &domain.ProviderError{
				Op:         "exchange_code",
				StatusCode: 503,
				Err:        domain.ErrProviderUnavailable,
			}
		},
	}

	server := &Server{oauthService: mockOAuth}

	req := httptest.NewRequest("GET", "/oauth/callback?code=auth-code&state=state-token", nil)
	rr := httptest.NewRecorder()

	server.handleOAuthCallback(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", rr.Code)
	}
}

func TestHandleOAuthCallback_MissingCode(t *testing.T) {
	mockOAuth := &mockOAuthService{
		completeAuthorizationFn: func(ctx context.Context, req driving.CallbackRequest) (*driving.CallbackResult, error) {
			return nil, domain.ErrInvalidInput
		},
	}

	server := &Server{oauthService: mockOAuth}

	req := httptest.NewRequest("GET", "/oauth/callback?state=state-token", nil)
	rr := httptest.NewRecorder()

	server.handleOAuthCallback(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}
}

// Connection handler tests

func TestHandleListConnections_MissingUser(t *testing.T) {
	server := &Server{}

	req := httptest.NewRequest("GET", "/api/v1/connections", nil)
	rr := httptest.NewRecorder()

	server.handleListConnections(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}

	var response ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Error != "user is required" {
		t.Errorf("expected error 'user is required', got %s", response.Error)
	}
}

func TestHandleListConnections_InvalidIncludeInactive(t *testing.T) {
	server := &Server{}

	req := httptest.NewRequest("GET", "/api/v1/connections?user=ext-1&include_inactive=maybe", nil)
	rr := httptest.NewRecorder()

	server.handleListConnections(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}
}

func TestHandleListConnections_Success(t *testing.T) {
	var gotUser string
	var gotIncludeInactive bool
	mockConns := &mockConnectionService{
		listFn: func(ctx context.Context, externalUserID string, includeInactive bool) ([]*domain.ConnectionSummary, error) {
			gotUser = externalUserID
			gotIncludeInactive = includeInactive
			return []*domain.ConnectionSummary{
				{ID: "conn-2", GmailAddress: "work@gmail.com", Active: true},
				{ID: "conn-1", GmailAddress: "alice@gmail.com", Active: false},
			}, nil
		},
	}

	server := &Server{connectionService: mockConns}

	req := httptest.NewRequest("GET", "/api/v1/connections?user=ext-1&include_inactive=true", nil)
	rr := httptest.NewRecorder()

	server.handleListConnections(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}
	if gotUser != "ext-1" {
		t.Errorf("expected user 'ext-1', got %s", gotUser)
	}
	if !gotIncludeInactive {
		t.Error("expected include_inactive to be true")
	}

	var response []*domain.ConnectionSummary
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(response) != 2 {
		t.Errorf("expected 2 connections, got %d", len(response))
	}
}

func TestHandleGetConnection_NotFound(t *testing.T) {
	mockConns := &mockConnectionService{
		getFn: func(ctx context.Context, connectionID string) (*domain.ConnectionSummary, error) {
			return nil, domain.ErrNotFound
		},
	}

	server := &Server{connectionService: mockConns}

	req := httptest.NewRequest("GET", "/api/v1/connections/nonexistent", nil)
	req.SetPathValue("id", "nonexistent")
	rr := httptest.NewRecorder()

	server.handleGetConnection(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rr.Code)
	}
}

func TestHandleGetConnection_Success(t *testing.T) {
	mockConns := &mockConnectionService{
		getFn: func(ctx context.Context, connectionID string) (*domain.ConnectionSummary, error) {
			return &domain.ConnectionSummary{
				ID:           connectionID,
				GmailAddress: "alice@gmail.com",
				Active:       true,
			}, nil
		},
	}

	server := &Server{connectionService: mockConns}

	req := httptest.NewRequest("GET", "/api/v1/connections/conn-1", nil)
	req.SetPathValue("id", "conn-1")
	rr := httptest.NewRecorder()

	server.handleGetConnection(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}

	var response domain.ConnectionSummary
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.ID != "conn-1" {
		t.Errorf("expected id 'conn-1', got %s", response.ID)
	}
}

func TestHandleConnectionStatus_Success(t *testing.T) {
	mockConns := &mockConnectionService{
		statusFn: func(ctx context.Context, connectionID string) (*driving.ConnectionStatus, error) {
			return &driving.ConnectionStatus{
				ConnectionID:   connectionID,
				Valid:          true,
				GmailAddress:   "alice@gmail.com",
				TokenExpiresIn: 3100,
			}, nil
		},
	}

	server := &Server{connectionService: mockConns}

	req := httptest.NewRequest("GET", "/api/v1/connections/conn-1/status", nil)
	req.SetPathValue("id", "conn-1")
	rr := httptest.NewRecorder()

	server.handleConnectionStatus(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}

	var response driving.ConnectionStatus
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !response.Valid {
		t.Error("expected valid to be true")
	}
	if response.TokenExpiresIn != 3100 {
		t.Errorf("expected token_expires_in 3100, got %d", response.TokenExpiresIn)
	}
}

func TestHandleDisconnect_DefaultsToRevoke(t *testing.T) {
	var gotRevoke bool
	mockOAuth := &mockOAuthService{
		disconnectFn: func(ctx context.Context, connectionID string, revokeRemote bool) error {
			gotRevoke = revokeRemote
			return nil
		},
	}

	server := &Server{oauthService: mockOAuth}

	req := httptest.NewRequest("POST", "/api/v1/connections/conn-1/disconnect", nil)
	req.SetPathValue("id", "conn-1")
	rr := httptest.NewRecorder()

	server.handleDisconnect(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}
	if !gotRevoke {
		t.Error("expected revoke_remote to default to true")
	}

	var response StatusResponse
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Status != "disconnected" {
		t.Errorf("expected status 'disconnected', got %s", response.Status)
	}
}

func TestHandleDisconnect_RevokeFalse(t *testing.T) {
	var gotRevoke bool
	mockOAuth := &mockOAuthService{
		disconnectFn: func(ctx context.Context, connectionID string, revokeRemote bool) error {
			gotRevoke = revokeRemote
			return nil
		},
	}

	server := &Server{oauthService: mockOAuth}

	req := httptest.NewRequest("POST", "/api/v1/connections/conn-1/disconnect",
		bytes.NewBufferString(`{"revoke_remote": false}`))
	req.SetPathValue("id", "conn-1")
	rr := httptest.NewRecorder()

	server.handleDisconnect(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}
	if gotRevoke {
		t.Error("expected revoke_remote to be false")
	}
}

func TestHandleDisconnect_NotFound(t *testing.T) {
	mockOAuth := &mockOAuthService{
		disconnectFn: func(ctx context.Context, connectionID string, revokeRemote bool) error {
			return domain.ErrNotFound
		},
	}

	server := &Server{oauthService: mockOAuth}

	req := httptest.NewRequest("POST", "/api/v1/connections/nonexistent/disconnect", nil)
	req.SetPathValue("id", "nonexistent")
	rr := httptest.NewRecorder()

	server.handleDisconnect(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rr.Code)
	}
}

func TestHandleRemoveConnection_Success(t *testing.T) {
	var gotID string
	mockOAuth := &mockOAuthService{
		removeConnectionFn: func(ctx context.Context, connectionID string) error {
			gotID = connectionID
			return nil
		},
	}

	server := &Server{oauthService: mockOAuth}

	req := httptest.NewRequest("DELETE", "/api/v1/connections/conn-1", nil)
	req.SetPathValue("id", "conn-1")
	rr := httptest.NewRecorder()

	server.handleRemoveConnection(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}
	if gotID != "conn-1" {
		t.Errorf("expected id 'conn-1', got %s", gotID)
	}

	var response StatusResponse
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Status != "deleted" {
		t.Errorf("expected status 'deleted', got %s", response.Status)
	}
}

// Mailbox handler tests

func TestHandleGetProfile_Success(t *testing.T) {
	mockMail := &mockMailService{
		profileFn: func(ctx context.Context, connectionID string) (*domain.GmailProfile, error) {
			return &domain.GmailProfile{
				EmailAddress:  "alice@gmail.com",
				MessagesTotal: 1200,
				HistoryID:     "987654",
			}, nil
		},
	}

	server := &Server{mailService: mockMail}

	req := httptest.NewRequest("GET", "/api/v1/connections/conn-1/profile", nil)
	req.SetPathValue("id", "conn-1")
	rr := httptest.NewRecorder()

	server.handleGetProfile(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}

	var response domain.GmailProfile
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.EmailAddress != "alice@gmail.com" {
		t.Errorf("expected email 'alice@gmail.com', got %s", response.EmailAddress)
	}
}

func TestHandleGetProfile_NeedsReauth(t *testing.T) {
	mockMail := &mockMailService{
		profileFn: func(ctx context.Context, connectionID string) (*domain.GmailProfile, error) {
			return nil, domain.ErrNeedsReauth
		},
	}

	server := &Server{mailService: mockMail}

	req := httptest.NewRequest("GET", "/api/v1/connections/conn-1/profile", nil)
	req.SetPathValue("id", "conn-1")
	rr := httptest.NewRecorder()

	server.handleGetProfile(rr, req)

	if rr.Code != http.StatusConflict {
		t.Errorf("expected status 409, got %d", rr.Code)
	}

	var response ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Code != "needs_reauth" {
		t.Errorf("expected code 'needs_reauth', got %s", response.Code)
	}
}

func TestHandleGetProfile_ConnectionInactive(t *testing.T) {
	mockMail := &mockMailService{
		profileFn: func(ctx context.Context, connectionID string) (*domain.GmailProfile, error) {
			return nil, domain.ErrConnectionInactive
		},
	}

	server := &Server{mailService: mockMail}

	req := httptest.NewRequest("GET", "/api/v1/connections/conn-1/profile", nil)
	req.SetPathValue("id", "conn-1")
	rr := httptest.NewRecorder()

	server.handleGetProfile(rr, req)

	if rr.Code != http.StatusConflict {
		t.Errorf("expected status 409, got %d", rr.Code)
	}
}

func TestHandleListMessages_PassesQueryParams(t *testing.T) {
	var gotReq driving.SearchRequest
	mockMail := &mockMailService{
		searchFn: func(ctx context.Context, connectionID string, req driving.SearchRequest) (*domain.GmailMessageList, error) {
			gotReq = req
			return &domain.GmailMessageList{
				Messages: []domain.GmailMessageRef{{ID: "msg-1", ThreadID: "thread-1"}},
			}, nil
		},
	}

	server := &Server{mailService: mockMail}

	req := httptest.NewRequest("GET",
		"/api/v1/connections/conn-1/messages?q=is%3Aunread&max_results=10&page_token=next&label_ids=INBOX&label_ids=IMPORTANT", nil)
	req.SetPathValue("id", "conn-1")
	rr := httptest.NewRecorder()

	server.handleListMessages(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}
	if gotReq.Q != "is:unread" {
		t.Errorf("expected q 'is:unread', got %s", gotReq.Q)
	}
	if gotReq.MaxResults != 10 {
		t.Errorf("expected max_results 10, got %d", gotReq.MaxResults)
	}
	if gotReq.PageToken != "next" {
		t.Errorf("expected page_token 'next', got %s", gotReq.PageToken)
	}
	if len(gotReq.LabelIDs) != 2 || gotReq.LabelIDs[0] != "INBOX" {
		t.Errorf("expected label_ids [INBOX IMPORTANT], got %v", gotReq.LabelIDs)
	}
}

func TestHandleListMessages_InvalidMaxResults(t *testing.T) {
	server := &Server{}

	req := httptest.NewRequest("GET", "/api/v1/connections/conn-1/messages?max_results=lots", nil)
	req.SetPathValue("id", "conn-1")
	rr := httptest.NewRecorder()

	server.handleListMessages(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}
}

func TestHandleGetMessage_Success(t *testing.T) {
	var gotFormat string
	mockMail := &mockMailService{
		getMessageFn: func(ctx context.Context, connectionID, messageID, format string) (*domain.GmailMessage, error) {
			gotFormat = format
			return &domain.GmailMessage{ID: messageID, ThreadID: "thread-1", Raw: "dGVzdA"}, nil
		},
	}

	server := &Server{mailService: mockMail}

	req := httptest.NewRequest("GET", "/api/v1/connections/conn-1/messages/msg-1?format=raw", nil)
	req.SetPathValue("id", "conn-1")
	req.SetPathValue("mid", "msg-1")
	rr := httptest.NewRecorder()

	server.handleGetMessage(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}
	if gotFormat != "raw" {
		t.Errorf("expected format 'raw', got %s", gotFormat)
	}

	var response domain.GmailMessage
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.ID != "msg-1" {
		t.Errorf("expected id 'msg-1', got %s", response.ID)
	}
}

func TestHandleGetMessage_NotFound(t *testing.T) {
	mockMail := &mockMailService{
		getMessageFn: func(ctx context.Context, connectionID, messageID, format string) (*domain.GmailMessage, error) {
			return nil, &domain.ProviderError{
				Op:         "gmail_get_message",
				StatusCode: 404,
				Err:        domain.ErrNotFound,
			}
		},
	}

	server := &Server{mailService: mockMail}

	req := httptest.NewRequest("GET", "/api/v1/connections/conn-1/messages/nonexistent", nil)
	req.SetPathValue("id", "conn-1")
	req.SetPathValue("mid", "nonexistent")
	rr := httptest.NewRecorder()

	server.handleGetMessage(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rr.Code)
	}
}

func TestHandleSendMessage_InvalidJSON(t *testing.T) {
	server := &Server{}

	req := httptest.NewRequest("POST", "/api/v1/connections/conn-1/messages",
		bytes.NewBufferString("invalid json"))
	req.SetPathValue("id", "conn-1")
	rr := httptest.NewRecorder()

	server.handleSendMessage(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}
}

func TestHandleSendMessage_Success(t *testing.T) {
	mockMail := &mockMailService{
		sendFn: func(ctx context.Context, connectionID string, req driving.SendRequest) (*domain.GmailMessageRef, error) {
			return &domain.GmailMessageRef{ID: "sent-1", ThreadID: "thread-9"}, nil
		},
	}

	server := &Server{mailService: mockMail}

	body, _ := json.Marshal(driving.SendRequest{Raw: "dGVzdCBtZXNzYWdl"})
	req := httptest.NewRequest("POST", "/api/v1/connections/conn-1/messages", bytes.NewBuffer(body))
	req.SetPathValue("id", "conn-1")
	rr := httptest.NewRecorder()

	server.handleSendMessage(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}

	var response domain.GmailMessageRef
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.ID != "sent-1" {
		t.Errorf("expected id 'sent-1', got %s", response.ID)
	}
}

func TestHandleModifyMessage_Success(t *testing.T) {
	var gotReq driving.ModifyRequest
	mockMail := &mockMailService{
		modifyFn: func(ctx context.Context, connectionID, messageID string, req driving.ModifyRequest) (*domain.GmailMessage, error) {
			gotReq = req
			return &domain.GmailMessage{ID: messageID, LabelIDs: []string{"INBOX"}}, nil
		},
	}

	server := &Server{mailService: mockMail}

	body, _ := json.Marshal(driving.ModifyRequest{
		AddLabelIDs:    []string{"INBOX"},
		RemoveLabelIDs: []string{"UNREAD"},
	})
	req := httptest.NewRequest("POST", "/api/v1/connections/conn-1/messages/msg-1/modify", bytes.NewBuffer(body))
	req.SetPathValue("id", "conn-1")
	req.SetPathValue("mid", "msg-1")
	rr := httptest.NewRecorder()

	server.handleModifyMessage(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}
	if len(gotReq.AddLabelIDs) != 1 || gotReq.AddLabelIDs[0] != "INBOX" {
		t.Errorf("expected add_label_ids [INBOX], got %v", gotReq.AddLabelIDs)
	}
	if len(gotReq.RemoveLabelIDs) != 1 || gotReq.RemoveLabelIDs[0] != "UNREAD" {
		t.Errorf("expected remove_label_ids [UNREAD], got %v", gotReq.RemoveLabelIDs)
	}
}

func TestHandleListLabels_Success(t *testing.T) {
	mockMail := &mockMailService{
		labelsFn: func(ctx context.Context, connectionID string) ([]domain.GmailLabel, error) {
			return []domain.GmailLabel{
				{ID: "INBOX", Name: "INBOX", Type: "system"},
				{ID: "Label_1", Name: "Receipts", Type: "user"},
			}, nil
		},
	}

	server := &Server{mailService: mockMail}

	req := httptest.NewRequest("GET", "/api/v1/connections/conn-1/labels", nil)
	req.SetPathValue("id", "conn-1")
	rr := httptest.NewRecorder()

	server.handleListLabels(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}

	var response []domain.GmailLabel
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(response) != 2 {
		t.Errorf("expected 2 labels, got %d", len(response))
	}
}

// Error mapping tests

func TestWriteServiceError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "invalid input",
			err:        domain.ErrInvalidInput,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "wrapped invalid input",
			err:        &domain.ProviderError{Op: "callback", Err: domain.ErrInvalidGrant},
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "not found",
			err:        domain.ErrNotFound,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "needs reauth",
			err:        domain.ErrNeedsReauth,
			wantStatus: http.StatusConflict,
			wantCode:   "needs_reauth",
		},
		{
			name:       "connection inactive",
			err:        domain.ErrConnectionInactive,
			wantStatus: http.StatusConflict,
		},
		{
			name:       "provider rejected",
			err:        domain.ErrProviderRejected,
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "upstream unauthorized",
			err:        domain.ErrUnauthorized,
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "provider unavailable",
			err:        domain.ErrProviderUnavailable,
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "decryption failed",
			err:        domain.ErrDecryptionFailed,
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "unknown error",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()

			writeServiceError(rr, tt.err)

			if rr.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rr.Code)
			}
			var response ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if response.Code != tt.wantCode {
				t.Errorf("expected code %q, got %q", tt.wantCode, response.Code)
			}
		})
	}
}
