package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/safarhub/backend/internal/domain/shared"
	"github.com/safarhub/backend/internal/domain/vendor"
	"go.uber.org/zap"
)

// VisibleIDSource resolves visible vendor IDs from the system of record
type VisibleIDSource interface {
	FindVisibleIDs(ctx context.Context) ([]uuid.UUID, error)
}

// CachedVisibleVendors serves the gate's visible vendor set from a cache.
// It subscribes to vendor transitions and drops the cached set whenever one
// of them could change visibility. Cache failures fall through to the source.
type CachedVisibleVendors struct {
	source VisibleIDSource
	store  VisibleVendorStore
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedVisibleVendors creates the cached gate source
func NewCachedVisibleVendors(source VisibleIDSource, store VisibleVendorStore, ttl time.Duration, logger *zap.Logger) *CachedVisibleVendors {
	return &CachedVisibleVendors{
		source: source,
		store:  store,
		ttl:    ttl,
		logger: logger,
	}
}

// FindVisibleIDs returns the cached set, loading it from the source on a miss
func (c *CachedVisibleVendors) FindVisibleIDs(ctx context.Context) ([]uuid.UUID, error) {
	ids, ok, err := c.store.Load(ctx)
	if err != nil {
		c.logger.Warn("visible vendor cache read failed", zap.Error(err))
	}
	if ok {
		return ids, nil
	}

	ids, err = c.source.FindVisibleIDs(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.store.Store(ctx, ids, c.ttl); err != nil {
		c.logger.Warn("visible vendor cache write failed", zap.Error(err))
	}
	return ids, nil
}

// EventTypes returns the vendor transitions that change visibility
func (c *CachedVisibleVendors) EventTypes() []string {
	return vendor.VisibilityEventTypes
}

// Handle invalidates the cached set
func (c *CachedVisibleVendors) Handle(ctx context.Context, event shared.DomainEvent) error {
	if err := c.store.Invalidate(ctx); err != nil {
		c.logger.Error("visible vendor cache invalidation failed",
			zap.String("event_type", event.EventType()),
			zap.String("vendor_id", event.AggregateID().String()),
			zap.Error(err),
		)
		return err
	}
	c.logger.Debug("visible vendor cache invalidated",
		zap.String("event_type", event.EventType()),
		zap.String("vendor_id", event.AggregateID().String()),
	)
	return nil
}

var _ shared.EventHandler = (*CachedVisibleVendors)(nil)
