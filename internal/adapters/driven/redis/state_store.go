package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/mailbridge-core/internal/core/domain"
	"github.com/custodia-labs/mailbridge-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.StateStore = (*StateStore)(nil)

const statePrefix = "oauth:state:"

// StateStore implements driven.StateStore using Redis.
// States use Redis TTL for automatic expiration, keyed by the state
// token itself; GETDEL gives the single-use guarantee.
type StateStore struct {
	client *redis.Client
}

// NewStateStore creates a new Redis-backed StateStore
func NewStateStore(client *redis.Client) *StateStore {
	return &StateStore{client: client}
}

// Save stores an authorization state with TTL based on ExpiresAt
func (s *StateStore) Save(ctx context.Context, state *domain.AuthState) error {
	ttl := time.Until(state.ExpiresAt)
	if ttl <= 0 {
		// State already expired, don't save
		return nil
	}

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal auth state: %w", err)
	}

	if err := s.client.Set(ctx, statePrefix+state.State, data, ttl).Err(); err != nil {
		return fmt.Errorf("save auth state: %w", err)
	}

	return nil
}

// GetAndDelete atomically retrieves and deletes the state.
// GETDEL hands the value to at most one of any concurrent callers with
// the same token; Redis TTL makes an expired token indistinguishable
// from one that never existed.
func (s *StateStore) GetAndDelete(ctx context.Context, token string) (*domain.AuthState, error) {
	data, err := s.client.GetDel(ctx, statePrefix+token).Bytes()
	if err == redis.Nil {
		return nil, nil // Not found or expired
	}
	if err != nil {
		return nil, fmt.Errorf("get and delete auth state: %w", err)
	}

	var state domain.AuthState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("unmarshal auth state: %w", err)
	}

	// Double-check expiration; the key TTL normally handles this.
	if state.IsExpired() {
		return nil, nil
	}

	return &state, nil
}

// DeleteExpired is a no-op for Redis: keys carry a TTL and the server
// evicts them itself. It always reports zero removals.
func (s *StateStore) DeleteExpired(ctx context.Context) (int64, error) {
	return 0, nil
}
