package coupon

import (
	"context"

	"github.com/google/uuid"
	"github.com/safarhub/backend/internal/domain/shared"
)

// CouponFilter extends the shared filter with coupon criteria
type CouponFilter struct {
	shared.Filter
	IsActive *bool
}

// CouponRepository persists coupons
type CouponRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Coupon, error)

	// FindByCode looks up a coupon by its normalized code
	FindByCode(ctx context.Context, code string) (*Coupon, error)

	FindAll(ctx context.Context, filter CouponFilter) ([]Coupon, int64, error)

	// ExistsByCode checks code uniqueness
	ExistsByCode(ctx context.Context, code string) (bool, error)

	Create(ctx context.Context, c *Coupon) error

	// SaveWithLock persists edits, failing if the version moved
	SaveWithLock(ctx context.Context, c *Coupon) error

	// IncrementUsage bumps usage_count only while it is below usage_limit.
	// Returns ErrCouponUsageLimit when no row qualified.
	IncrementUsage(ctx context.Context, id uuid.UUID) error

	Delete(ctx context.Context, id uuid.UUID) error
}
