package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/mailbridge-core/internal/core/domain"
	"github.com/custodia-labs/mailbridge-core/internal/core/ports/driven"
)

// Ensure MockUserStore implements UserStore
var _ driven.UserStore = (*MockUserStore)(nil)

// MockUserStore is a mock implementation of UserStore for testing
type MockUserStore struct {
	mu         sync.RWMutex
	users      map[string]*domain.User
	byExternal map[string]*domain.User

	// Custom behavior hooks (optional)
	UpsertFn func(externalUserID, email string) (*domain.User, error)
}

// NewMockUserStore creates a new MockUserStore
func NewMockUserStore() *MockUserStore {
	return &MockUserStore{
		users:      make(map[string]*domain.User),
		byExternal: make(map[string]*domain.User),
	}
}

func (m *MockUserStore) Upsert(ctx context.Context, externalUserID, email string) (*domain.User, error) {
	if m.UpsertFn != nil {
		return m.UpsertFn(externalUserID, email)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if user, ok := m.byExternal[externalUserID]; ok {
		if email != "" {
			user.Email = email
			user.UpdatedAt = time.Now()
		}
		return user, nil
	}

	now := time.Now()
	user := &domain.User{
		ID:             uuid.NewString(),
		ExternalUserID: externalUserID,
		Email:          email,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	m.users[user.ID] = user
	m.byExternal[externalUserID] = user
	return user, nil
}

func (m *MockUserStore) Get(ctx context.Context, id string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return user, nil
}

func (m *MockUserStore) GetByExternalID(ctx context.Context, externalUserID string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.byExternal[externalUserID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return user, nil
}

func (m *MockUserStore) List(ctx context.Context) ([]*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.User, 0, len(m.users))
	for _, user := range m.users {
		result = append(result, user)
	}
	return result, nil
}

func (m *MockUserStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	delete(m.byExternal, user.ExternalUserID)
	delete(m.users, id)
	return nil
}
