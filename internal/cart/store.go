package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/dessy-cafe/storefront-backend/pkg/redis"
)

// Store persists cart snapshots keyed by user.
type Store interface {
	Load(ctx context.Context, userID string) (Snapshot, error)
	Save(ctx context.Context, userID string, snap Snapshot) error
	Delete(ctx context.Context, userID string) error
}

// RedisStore keeps cart snapshots in Redis with a sliding TTL. A cache miss
// loads as an empty cart.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore wires the snapshot store onto the shared Redis client.
func NewRedisStore(client *redis.Client, ttl time.Duration) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	return &RedisStore{client: client, ttl: ttl}, nil
}

func (s *RedisStore) Load(ctx context.Context, userID string) (Snapshot, error) {
	raw, err := s.client.Get(ctx, s.client.CartKey(userID))
	if err != nil {
		if redis.IsNil(err) {
			return Snapshot{}, nil
		}
		return Snapshot{}, fmt.Errorf("loading cart snapshot: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return Snapshot{}, fmt.Errorf("decoding cart snapshot: %w", err)
	}
	return snap, nil
}

func (s *RedisStore) Save(ctx context.Context, userID string, snap Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding cart snapshot: %w", err)
	}
	if err := s.client.Set(ctx, s.client.CartKey(userID), raw, s.ttl); err != nil {
		return fmt.Errorf("saving cart snapshot: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, s.client.CartKey(userID)); err != nil {
		return fmt.Errorf("deleting cart snapshot: %w", err)
	}
	return nil
}

// MemoryStore is an in-process Store used by tests.
type MemoryStore struct {
	mu    sync.RWMutex
	carts map[string]Snapshot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{carts: make(map[string]Snapshot)}
}

func (s *MemoryStore) Load(_ context.Context, userID string) (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.carts[userID], nil
}

func (s *MemoryStore) Save(_ context.Context, userID string, snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[userID] = snap
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, userID)
	return nil
}
