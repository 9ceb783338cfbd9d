package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/mailbridge-core/internal/core/domain"
	"github.com/custodia-labs/mailbridge-core/internal/core/ports/driven"
)

// Ensure MockConnectionStore implements ConnectionStore
var _ driven.ConnectionStore = (*MockConnectionStore)(nil)

// MockConnectionStore is a mock implementation of ConnectionStore for testing
type MockConnectionStore struct {
	mu          sync.RWMutex
	connections map[string]*domain.Connection

	// Custom behavior hooks (optional)
	GetFn          func(id string) (*domain.Connection, error)
	UpdateTokensFn func(id, encryptedAccessToken, encryptedRefreshToken string, expiresAt time.Time) error

	// Call counters (for test assertions)
	UpdateTokensCalls int
}

// NewMockConnectionStore creates a new MockConnectionStore
func NewMockConnectionStore() *MockConnectionStore {
	return &MockConnectionStore{
		connections: make(map[string]*domain.Connection),
	}
}

func (m *MockConnectionStore) Save(ctx context.Context, conn *domain.Connection) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.connections {
		if existing.UserID == conn.UserID && existing.GmailAddress == conn.GmailAddress {
			conn.ID = existing.ID
			conn.CreatedAt = existing.CreatedAt
			conn.UpdatedAt = time.Now()
			m.connections[existing.ID] = cloneConnection(conn)
			return nil
		}
	}

	if conn.ID == "" {
		conn.ID = uuid.NewString()
	}
	if conn.CreatedAt.IsZero() {
		conn.CreatedAt = time.Now()
	}
	conn.UpdatedAt = time.Now()
	m.connections[conn.ID] = cloneConnection(conn)
	return nil
}

func (m *MockConnectionStore) Get(ctx context.Context, id string) (*domain.Connection, error) {
	if m.GetFn != nil {
		return m.GetFn(id)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	conn, ok := m.connections[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneConnection(conn), nil
}

func (m *MockConnectionStore) GetByUserAndAddress(ctx context.Context, userID, gmailAddress string) (*domain.Connection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, conn := range m.connections {
		if conn.UserID == userID && conn.GmailAddress == gmailAddress {
			return cloneConnection(conn), nil
		}
	}
	return nil, nil
}

func (m *MockConnectionStore) ListByUser(ctx context.Context, userID string, includeInactive bool) ([]*domain.Connection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Connection
	for _, conn := range m.connections {
		if conn.UserID != userID {
			continue
		}
		if !includeInactive && !conn.Active {
			continue
		}
		result = append(result, cloneConnection(conn))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (m *MockConnectionStore) ListExpiring(ctx context.Context, before time.Time, limit int) ([]*domain.Connection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Connection
	for _, conn := range m.connections {
		if !conn.Active || conn.NeedsReauth {
			continue
		}
		if conn.TokenExpiresAt.Before(before) {
			result = append(result, cloneConnection(conn))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].TokenExpiresAt.Before(result[j].TokenExpiresAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *MockConnectionStore) UpdateTokens(ctx context.Context, id, encryptedAccessToken, encryptedRefreshToken string, expiresAt time.Time) error {
	if m.UpdateTokensFn != nil {
		return m.UpdateTokensFn(id, encryptedAccessToken, encryptedRefreshToken, expiresAt)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateTokensCalls++

	conn, ok := m.connections[id]
	if !ok {
		return domain.ErrNotFound
	}
	conn.EncryptedAccessToken = encryptedAccessToken
	if encryptedRefreshToken != "" {
		conn.EncryptedRefreshToken = encryptedRefreshToken
	}
	conn.TokenExpiresAt = expiresAt
	conn.UpdatedAt = time.Now()
	return nil
}

func (m *MockConnectionStore) MarkNeedsReauth(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	conn, ok := m.connections[id]
	if !ok {
		return domain.ErrNotFound
	}
	conn.Active = false
	conn.NeedsReauth = true
	conn.UpdatedAt = time.Now()
	return nil
}

func (m *MockConnectionStore) Deactivate(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	conn, ok := m.connections[id]
	if !ok {
		return domain.ErrNotFound
	}
	conn.Active = false
	conn.UpdatedAt = time.Now()
	return nil
}

func (m *MockConnectionStore) TouchLastUsed(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	conn, ok := m.connections[id]
	if !ok {
		return domain.ErrNotFound
	}
	now := time.Now()
	conn.LastUsedAt = &now
	return nil
}

func (m *MockConnectionStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.connections[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.connections, id)
	return nil
}

func cloneConnection(conn *domain.Connection) *domain.Connection {
	c := *conn
	c.Scopes = append([]string(nil), conn.Scopes...)
	if conn.LastUsedAt != nil {
		t := *conn.LastUsedAt
		c.LastUsedAt = &t
	}
	return &c
}
