package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/safarhub/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// NewRedisClient connects to redis and checks the connection
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// NewVisibleVendorStore picks the redis store when redis is enabled and
// reachable, and the in-memory store otherwise. The returned client is nil
// for the in-memory store; the caller closes it on shutdown.
//
// WARNING: the in-memory store is per process. With several instances a
// vendor transition only invalidates the instance that handled it, and the
// others serve the old set until the TTL expires.
func NewVisibleVendorStore(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) (VisibleVendorStore, *redis.Client) {
	if !cfg.Enabled {
		logger.Info("redis disabled, caching visible vendors in memory")
		return NewInMemoryVisibleVendorStore(), nil
	}

	client, err := NewRedisClient(ctx, cfg)
	if err != nil {
		logger.Warn("Redis unavailable, falling back to in-memory visible vendor cache", zap.Error(err))
		return NewInMemoryVisibleVendorStore(), nil
	}

	logger.Info("using Redis visible vendor cache", zap.String("addr", cfg.Addr()))
	return NewRedisVisibleVendorStore(client, DefaultVisibleVendorKey), client
}
