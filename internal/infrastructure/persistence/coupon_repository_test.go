package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/safarhub/backend/internal/domain/coupon"
	"github.com/safarhub/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCoupon(t *testing.T, code string, limit *int) *coupon.Coupon {
	t.Helper()
	maxDiscount := decimal.NewFromInt(100)
	c, err := coupon.NewCoupon(coupon.NewCouponInput{
		Code:           code,
		DiscountType:   coupon.DiscountTypePercentage,
		DiscountAmount: decimal.NewFromInt(10),
		MinPurchase:    decimal.NewFromInt(500),
		MaxDiscount:    &maxDiscount,
		StartDate:      time.Now().Add(-24 * time.Hour),
		ExpiryDate:     time.Now().Add(24 * time.Hour),
		UsageLimit:     limit,
	})
	require.NoError(t, err)
	return c
}

func TestGormCouponRepository_CreateAndFind(t *testing.T) {
	conn := setupTestDB(t)
	repo := NewGormCouponRepository(conn)
	ctx := context.Background()

	c := newTestCoupon(t, "save10", nil)
	require.NoError(t, repo.Create(ctx, c))

	t.Run("lookup is case-insensitive on input", func(t *testing.T) {
		found, err := repo.FindByCode(ctx, " Save10 ")
		require.NoError(t, err)
		assert.Equal(t, "SAVE10", found.Code)
		require.NotNil(t, found.MaxDiscount)
		assert.True(t, decimal.NewFromInt(100).Equal(*found.MaxDiscount))
		assert.Nil(t, found.UsageLimit)
	})

	t.Run("duplicate code", func(t *testing.T) {
		exists, err := repo.ExistsByCode(ctx, "save10")
		require.NoError(t, err)
		assert.True(t, exists)

		err = repo.Create(ctx, newTestCoupon(t, "SAVE10", nil))
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	})

	t.Run("unknown code", func(t *testing.T) {
		_, err := repo.FindByCode(ctx, "NOPE")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormCouponRepository_SaveWithLock(t *testing.T) {
	conn := setupTestDB(t)
	repo := NewGormCouponRepository(conn)
	ctx := context.Background()

	c := newTestCoupon(t, "FLASH", nil)
	require.NoError(t, repo.Create(ctx, c))

	inactive := false
	require.NoError(t, c.Apply(coupon.Update{IsActive: &inactive}))
	require.NoError(t, repo.SaveWithLock(ctx, c))

	found, err := repo.FindByID(ctx, c.ID)
	require.NoError(t, err)
	assert.False(t, found.IsActive)
	assert.Equal(t, 2, found.Version)

	// Saving the same in-memory edit twice means the second write is stale
	active := true
	require.NoError(t, found.Apply(coupon.Update{IsActive: &active}))
	require.NoError(t, repo.SaveWithLock(ctx, found))

	err = repo.SaveWithLock(ctx, found)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "OPTIMISTIC_LOCK_ERROR", domainErr.Code)
}

func TestGormCouponRepository_IncrementUsage(t *testing.T) {
	conn := setupTestDB(t)
	repo := NewGormCouponRepository(conn)
	ctx := context.Background()

	limit := 2
	limited := newTestCoupon(t, "TWICE", &limit)
	require.NoError(t, repo.Create(ctx, limited))

	require.NoError(t, repo.IncrementUsage(ctx, limited.ID))
	require.NoError(t, repo.IncrementUsage(ctx, limited.ID))
	assert.ErrorIs(t, repo.IncrementUsage(ctx, limited.ID), coupon.ErrCouponUsageLimit)

	found, err := repo.FindByID(ctx, limited.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, found.UsageCount)

	unlimited := newTestCoupon(t, "ALWAYS", nil)
	require.NoError(t, repo.Create(ctx, unlimited))
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.IncrementUsage(ctx, unlimited.ID))
	}

	assert.ErrorIs(t, repo.IncrementUsage(ctx, uuid.New()), shared.ErrNotFound)
}

func TestGormCouponRepository_FindAllAndDelete(t *testing.T) {
	conn := setupTestDB(t)
	repo := NewGormCouponRepository(conn)
	ctx := context.Background()

	a := newTestCoupon(t, "ALPHA", nil)
	b := newTestCoupon(t, "BETA", nil)
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, b))

	inactive := false
	require.NoError(t, b.Apply(coupon.Update{IsActive: &inactive}))
	require.NoError(t, repo.SaveWithLock(ctx, b))

	active := true
	coupons, total, err := repo.FindAll(ctx, coupon.CouponFilter{Filter: shared.DefaultFilter(), IsActive: &active})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "ALPHA", coupons[0].Code)

	require.NoError(t, repo.Delete(ctx, a.ID))
	assert.ErrorIs(t, repo.Delete(ctx, a.ID), shared.ErrNotFound)
}
