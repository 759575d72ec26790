package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/safarhub/backend/internal/domain/vendor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeRedis implements redisKV over a map
type fakeRedis struct {
	data    map[string]string
	ttls    map[string]time.Duration
	failGet error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if f.failGet != nil {
		return redis.NewStringResult("", f.failGet)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, ttl time.Duration) *redis.StatusCmd {
	f.data[key] = string(value.([]byte))
	f.ttls[key] = ttl
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

type countingSource struct {
	ids   []uuid.UUID
	calls int
	err   error
}

func (s *countingSource) FindVisibleIDs(context.Context) ([]uuid.UUID, error) {
	s.calls++
	return s.ids, s.err
}

func TestRedisVisibleVendorStore(t *testing.T) {
	ctx := context.Background()
	client := newFakeRedis()
	store := NewRedisVisibleVendorStore(client, "")

	_, ok, err := store.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	ids := []uuid.UUID{uuid.New(), uuid.New()}
	require.NoError(t, store.Store(ctx, ids, time.Minute))
	assert.Equal(t, time.Minute, client.ttls[DefaultVisibleVendorKey])

	got, ok, err := store.Load(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, ids, got)

	t.Run("empty set is a hit", func(t *testing.T) {
		require.NoError(t, store.Store(ctx, nil, time.Minute))
		got, ok, err := store.Load(ctx)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Empty(t, got)
	})

	t.Run("invalidate", func(t *testing.T) {
		require.NoError(t, store.Invalidate(ctx))
		_, ok, err := store.Load(ctx)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestInMemoryVisibleVendorStore_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	store := NewInMemoryVisibleVendorStore()
	store.now = func() time.Time { return now }

	require.NoError(t, store.Store(ctx, []uuid.UUID{uuid.New()}, time.Minute))
	_, ok, _ := store.Load(ctx)
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok, _ = store.Load(ctx)
	assert.False(t, ok)
}

func TestCachedVisibleVendors(t *testing.T) {
	ctx := context.Background()
	visible := uuid.New()
	source := &countingSource{ids: []uuid.UUID{visible}}
	cached := NewCachedVisibleVendors(source, NewRedisVisibleVendorStore(newFakeRedis(), ""), time.Minute, zap.NewNop())

	for i := 0; i < 3; i++ {
		ids, err := cached.FindVisibleIDs(ctx)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{visible}, ids)
	}
	assert.Equal(t, 1, source.calls)

	t.Run("vendor transition invalidates", func(t *testing.T) {
		assert.ElementsMatch(t, vendor.VisibilityEventTypes, cached.EventTypes())

		v, err := vendor.NewVendor("Skardu Treks", "treks@example.com", vendor.ServiceTours)
		require.NoError(t, err)
		v.Accept()
		require.NoError(t, cached.Handle(ctx, vendor.NewVendorApprovedEvent(v)))

		source.ids = []uuid.UUID{visible, v.ID}
		ids, err := cached.FindVisibleIDs(ctx)
		require.NoError(t, err)
		assert.Len(t, ids, 2)
		assert.Equal(t, 2, source.calls)
	})

	t.Run("source error is returned and not cached", func(t *testing.T) {
		source := &countingSource{err: errors.New("db down")}
		cached := NewCachedVisibleVendors(source, NewInMemoryVisibleVendorStore(), time.Minute, zap.NewNop())
		_, err := cached.FindVisibleIDs(ctx)
		assert.Error(t, err)
		_, err = cached.FindVisibleIDs(ctx)
		assert.Error(t, err)
		assert.Equal(t, 2, source.calls)
	})

	t.Run("broken cache falls through to source", func(t *testing.T) {
		client := newFakeRedis()
		client.failGet = errors.New("connection refused")
		source := &countingSource{ids: []uuid.UUID{visible}}
		cached := NewCachedVisibleVendors(source, NewRedisVisibleVendorStore(client, ""), time.Minute, zap.NewNop())

		ids, err := cached.FindVisibleIDs(ctx)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{visible}, ids)
	})
}
