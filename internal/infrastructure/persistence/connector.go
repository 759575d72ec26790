package persistence

import (
	"context"
	"fmt"
	"sync"

	"github.com/safarhub/backend/internal/infrastructure/config"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// OpenFunc establishes a new database handle
type OpenFunc func(ctx context.Context) (*gorm.DB, error)

// ConnectorOption configures a Connector
type ConnectorOption func(*Connector)

// WithOnConnect registers a hook run once on the freshly opened handle,
// before any caller sees it. Tracing and metrics plugins attach here.
func WithOnConnect(fn func(*gorm.DB) error) ConnectorOption {
	return func(c *Connector) {
		c.onConnect = append(c.onConnect, fn)
	}
}

// Connector is the shared, lazily established database handle. The first
// caller opens the connection; concurrent callers during establishment
// wait on the same attempt. A failed attempt is not cached, so the next
// caller retries.
type Connector struct {
	open      OpenFunc
	onConnect []func(*gorm.DB) error

	group singleflight.Group
	mu    sync.RWMutex
	db    *gorm.DB
}

// NewConnector creates a connector that opens its handle with open
func NewConnector(open OpenFunc, opts ...ConnectorOption) *Connector {
	c := &Connector{open: open}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewPostgresConnector creates a connector for the configured PostgreSQL database
func NewPostgresConnector(cfg *config.DatabaseConfig, zapLogger *zap.Logger, level gormlogger.LogLevel, opts ...ConnectorOption) *Connector {
	return NewConnector(func(ctx context.Context) (*gorm.DB, error) {
		if cfg.ConnectTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
			defer cancel()
		}
		return OpenPostgres(ctx, cfg, zapLogger, level)
	}, opts...)
}

// NewStaticConnector wraps an already open handle
func NewStaticConnector(db *gorm.DB) *Connector {
	return &Connector{db: db}
}

type txKey struct{}

// DB returns the handle bound to ctx. Inside Transaction it is the
// transaction; otherwise the shared connection, opened on first use.
func (c *Connector) DB(ctx context.Context) (*gorm.DB, error) {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx), nil
	}

	c.mu.RLock()
	db := c.db
	c.mu.RUnlock()
	if db != nil {
		return db.WithContext(ctx), nil
	}

	if c.open == nil {
		return nil, fmt.Errorf("database connector has no opener")
	}

	// The in-flight attempt is shared, so it must not die with the
	// context of whichever caller happened to start it.
	v, err, _ := c.group.Do("connect", func() (any, error) {
		c.mu.RLock()
		existing := c.db
		c.mu.RUnlock()
		if existing != nil {
			return existing, nil
		}

		opened, err := c.open(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		for _, hook := range c.onConnect {
			if err := hook(opened); err != nil {
				if sqlDB, dbErr := opened.DB(); dbErr == nil {
					_ = sqlDB.Close()
				}
				return nil, fmt.Errorf("failed to initialize database handle: %w", err)
			}
		}

		c.mu.Lock()
		c.db = opened
		c.mu.Unlock()
		return opened, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*gorm.DB).WithContext(ctx), nil
}

// Transaction runs fn inside a database transaction. Repositories resolving
// their handle from the ctx passed to fn join the transaction.
func (c *Connector) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	db, err := c.DB(ctx)
	if err != nil {
		return err
	}
	return db.Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// Ping checks that the connection can be established and is alive
func (c *Connector) Ping(ctx context.Context) error {
	db, err := c.DB(ctx)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Connected reports whether the handle has been established
func (c *Connector) Connected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.db != nil
}

// Stats returns pool statistics; ok is false before the first connection
func (c *Connector) Stats() (stats ConnectionStats, ok bool, err error) {
	c.mu.RLock()
	db := c.db
	c.mu.RUnlock()
	if db == nil {
		return ConnectionStats{}, false, nil
	}
	stats, err = statsFor(db)
	return stats, err == nil, err
}

// Close closes the connection if it was ever opened
func (c *Connector) Close() error {
	c.mu.Lock()
	db := c.db
	c.db = nil
	c.mu.Unlock()
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}
