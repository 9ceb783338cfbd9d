package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/mailbridge-core/internal/core/domain"
	"github.com/custodia-labs/mailbridge-core/internal/core/ports/driven"
)

// Ensure MockGmailClient implements GmailClient
var _ driven.GmailClient = (*MockGmailClient)(nil)

// MockGmailClient is a mock implementation of GmailClient for testing
type MockGmailClient struct {
	mu sync.Mutex

	// Custom behavior hooks (optional)
	GetProfileFn   func(accessToken string) (*domain.GmailProfile, error)
	ListMessagesFn func(accessToken string, q driven.ListMessagesQuery) (*domain.GmailMessageList, error)
	GetMessageFn   func(accessToken, id, format string) (*domain.GmailMessage, error)
	SendMessageFn  func(accessToken, raw string) (*domain.GmailMessageRef, error)

	// SeenTokens records the access token of every call, in order.
	SeenTokens []string
}

// NewMockGmailClient creates a new MockGmailClient
func NewMockGmailClient() *MockGmailClient {
	return &MockGmailClient{}
}

func (m *MockGmailClient) record(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SeenTokens = append(m.SeenTokens, token)
}

func (m *MockGmailClient) GetProfile(ctx context.Context, accessToken string) (*domain.GmailProfile, error) {
	m.record(accessToken)
	if m.GetProfileFn != nil {
		return m.GetProfileFn(accessToken)
	}
	return &domain.GmailProfile{EmailAddress: "user@gmail.com", MessagesTotal: 42}, nil
}

func (m *MockGmailClient) ListMessages(ctx context.Context, accessToken string, q driven.ListMessagesQuery) (*domain.GmailMessageList, error) {
	m.record(accessToken)
	if m.ListMessagesFn != nil {
		return m.ListMessagesFn(accessToken, q)
	}
	return &domain.GmailMessageList{
		Messages: []domain.GmailMessageRef{{ID: "m1", ThreadID: "t1"}},
	}, nil
}

func (m *MockGmailClient) GetMessage(ctx context.Context, accessToken, id, format string) (*domain.GmailMessage, error) {
	m.record(accessToken)
	if m.GetMessageFn != nil {
		return m.GetMessageFn(accessToken, id, format)
	}
	return &domain.GmailMessage{ID: id, ThreadID: "t1", Snippet: "hello"}, nil
}

func (m *MockGmailClient) SendMessage(ctx context.Context, accessToken, raw string) (*domain.GmailMessageRef, error) {
	m.record(accessToken)
	if m.SendMessageFn != nil {
		return m.SendMessageFn(accessToken, raw)
	}
	return &domain.GmailMessageRef{ID: "sent-1", ThreadID: "t-sent-1"}, nil
}

func (m *MockGmailClient) ModifyMessage(ctx context.Context, accessToken, id string, addLabelIDs, removeLabelIDs []string) (*domain.GmailMessage, error) {
	m.record(accessToken)
	return &domain.GmailMessage{ID: id, LabelIDs: addLabelIDs}, nil
}

func (m *MockGmailClient) ListLabels(ctx context.Context, accessToken string) ([]domain.GmailLabel, error) {
	m.record(accessToken)
	return []domain.GmailLabel{
		{ID: "INBOX", Name: "INBOX", Type: "system"},
		{ID: "Label_1", Name: "receipts", Type: "user"},
	}, nil
}
