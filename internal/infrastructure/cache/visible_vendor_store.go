package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultVisibleVendorKey is the redis key holding the visible vendor ID set
const DefaultVisibleVendorKey = "gate:vendors:visible"

// VisibleVendorStore caches the resolved visible vendor ID set.
// A miss is reported with ok=false; an empty cached set is a hit.
type VisibleVendorStore interface {
	Load(ctx context.Context) (ids []uuid.UUID, ok bool, err error)
	Store(ctx context.Context, ids []uuid.UUID, ttl time.Duration) error
	Invalidate(ctx context.Context) error
}

// redisKV is the slice of the redis client the store needs
type redisKV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisVisibleVendorStore keeps the set as a JSON array under one key
type RedisVisibleVendorStore struct {
	client redisKV
	key    string
}

// NewRedisVisibleVendorStore creates a store over an existing client
func NewRedisVisibleVendorStore(client redisKV, key string) *RedisVisibleVendorStore {
	if key == "" {
		key = DefaultVisibleVendorKey
	}
	return &RedisVisibleVendorStore{client: client, key: key}
}

// Load returns the cached set
func (s *RedisVisibleVendorStore) Load(ctx context.Context) ([]uuid.UUID, bool, error) {
	raw, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read visible vendors: %w", err)
	}
	var ids []uuid.UUID
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, false, fmt.Errorf("failed to decode visible vendors: %w", err)
	}
	return ids, true, nil
}

// Store replaces the cached set
func (s *RedisVisibleVendorStore) Store(ctx context.Context, ids []uuid.UUID, ttl time.Duration) error {
	if ids == nil {
		ids = []uuid.UUID{}
	}
	raw, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("failed to encode visible vendors: %w", err)
	}
	if err := s.client.Set(ctx, s.key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write visible vendors: %w", err)
	}
	return nil
}

// Invalidate drops the cached set
func (s *RedisVisibleVendorStore) Invalidate(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("failed to invalidate visible vendors: %w", err)
	}
	return nil
}

// InMemoryVisibleVendorStore is a single-process VisibleVendorStore
type InMemoryVisibleVendorStore struct {
	mu        sync.RWMutex
	ids       []uuid.UUID
	expiresAt time.Time
	present   bool
	now       func() time.Time
}

// NewInMemoryVisibleVendorStore creates an empty in-memory store
func NewInMemoryVisibleVendorStore() *InMemoryVisibleVendorStore {
	return &InMemoryVisibleVendorStore{now: time.Now}
}

// Load returns the cached set unless it has expired
func (s *InMemoryVisibleVendorStore) Load(context.Context) ([]uuid.UUID, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.present || !s.now().Before(s.expiresAt) {
		return nil, false, nil
	}
	return append([]uuid.UUID(nil), s.ids...), true, nil
}

// Store replaces the cached set
func (s *InMemoryVisibleVendorStore) Store(_ context.Context, ids []uuid.UUID, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = append([]uuid.UUID(nil), ids...)
	s.expiresAt = s.now().Add(ttl)
	s.present = true
	return nil
}

// Invalidate drops the cached set
func (s *InMemoryVisibleVendorStore) Invalidate(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = nil
	s.present = false
	return nil
}

var (
	_ VisibleVendorStore = (*RedisVisibleVendorStore)(nil)
	_ VisibleVendorStore = (*InMemoryVisibleVendorStore)(nil)
)
