package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/mailbridge-core/internal/core/domain"
	"github.com/custodia-labs/mailbridge-core/internal/core/ports/driven"
)

// Ensure MockStateStore implements StateStore
var _ driven.StateStore = (*MockStateStore)(nil)

// MockStateStore is a mock implementation of StateStore for testing.
// GetAndDelete is atomic under the store mutex, matching the single-use
// guarantee of the real backends.
type MockStateStore struct {
	mu     sync.Mutex
	states map[string]*domain.AuthState

	// Custom behavior hooks (optional)
	SaveFn          func(state *domain.AuthState) error
	GetAndDeleteFn  func(token string) (*domain.AuthState, error)
	DeleteExpiredFn func() (int64, error)
}

// NewMockStateStore creates a new MockStateStore
func NewMockStateStore() *MockStateStore {
	return &MockStateStore{
		states: make(map[string]*domain.AuthState),
	}
}

func (m *MockStateStore) Save(ctx context.Context, state *domain.AuthState) error {
	if m.SaveFn != nil {
		return m.SaveFn(state)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[state.State] = state
	return nil
}

func (m *MockStateStore) GetAndDelete(ctx context.Context, token string) (*domain.AuthState, error) {
	if m.GetAndDeleteFn != nil {
		return m.GetAndDeleteFn(token)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.states[token]
	if !ok {
		return nil, nil
	}
	delete(m.states, token)
	if state.IsExpired() {
		return nil, nil
	}
	return state, nil
}

func (m *MockStateStore) DeleteExpired(ctx context.Context) (int64, error) {
	if m.DeleteExpiredFn != nil {
		return m.DeleteExpiredFn()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var removed int64
	now := time.Now()
	for token, state := range m.states {
		if now.After(state.ExpiresAt) {
			delete(m.states, token)
			removed++
		}
	}
	return removed, nil
}

// Len reports how many states are currently stored (for test assertions).
func (m *MockStateStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.states)
}
