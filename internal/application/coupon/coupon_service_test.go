package coupon

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/safarhub/backend/internal/domain/coupon"
	"github.com/safarhub/backend/internal/domain/identity"
	"github.com/safarhub/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockCouponRepository struct {
	mock.Mock
}

func (m *MockCouponRepository) FindByID(ctx context.Context, id uuid.UUID) (*coupon.Coupon, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*coupon.Coupon), args.Error(1)
}

func (m *MockCouponRepository) FindByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*coupon.Coupon), args.Error(1)
}

func (m *MockCouponRepository) FindAll(ctx context.Context, filter coupon.CouponFilter) ([]coupon.Coupon, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]coupon.Coupon), args.Get(1).(int64), args.Error(2)
}

func (m *MockCouponRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockCouponRepository) Create(ctx context.Context, c *coupon.Coupon) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockCouponRepository) SaveWithLock(ctx context.Context, c *coupon.Coupon) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockCouponRepository) IncrementUsage(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockCouponRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type resultLog struct {
	results []string
}

func (r *resultLog) RecordCouponEvaluation(_ context.Context, result string) {
	r.results = append(r.results, result)
}

var (
	admin = identity.Principal{ID: uuid.New(), AccountType: identity.AccountTypeAdmin}
	buyer = identity.Principal{ID: uuid.New(), AccountType: identity.AccountTypeUser}
)

func save10(t *testing.T, now time.Time) *coupon.Coupon {
	t.Helper()
	maxDiscount := decimal.NewFromInt(100)
	c, err := coupon.NewCoupon(coupon.NewCouponInput{
		Code:           "SAVE10",
		DiscountType:   coupon.DiscountTypePercentage,
		DiscountAmount: decimal.NewFromInt(10),
		MinPurchase:    decimal.NewFromInt(500),
		MaxDiscount:    &maxDiscount,
		StartDate:      now.Add(-time.Hour),
		ExpiryDate:     now.Add(time.Hour),
	})
	require.NoError(t, err)
	return c
}

func newService(repo *MockCouponRepository, now time.Time) (*CouponService, *resultLog) {
	svc := NewCouponService(repo, nil)
	svc.now = func() time.Time { return now }
	log := &resultLog{}
	svc.SetRecorder(log)
	return svc, log
}

func TestCouponService_Validate(t *testing.T) {
	now := time.Now()

	t.Run("SAVE10 on 2000 takes 100 off", func(t *testing.T) {
		repo := new(MockCouponRepository)
		svc, log := newService(repo, now)
		repo.On("FindByCode", mock.Anything, "SAVE10").Return(save10(t, now), nil)

		resp, err := svc.Validate(context.Background(), buyer, ApplyCouponRequest{Code: " save10", Subtotal: decimal.NewFromInt(2000)})
		require.NoError(t, err)
		assert.True(t, resp.Accepted)
		assert.False(t, resp.Redeemed)
		assert.Equal(t, "100", resp.DiscountAmount.String())
		assert.Equal(t, "1900", resp.FinalTotal.String())
		assert.Equal(t, []string{ResultAccepted}, log.results)
		repo.AssertNotCalled(t, "IncrementUsage", mock.Anything, mock.Anything)
	})

	t.Run("SAVE10 on 400 is below minimum", func(t *testing.T) {
		repo := new(MockCouponRepository)
		svc, log := newService(repo, now)
		repo.On("FindByCode", mock.Anything, "SAVE10").Return(save10(t, now), nil)

		_, err := svc.Validate(context.Background(), buyer, ApplyCouponRequest{Code: "SAVE10", Subtotal: decimal.NewFromInt(400)})
		assert.ErrorIs(t, err, coupon.ErrCouponMinPurchase)
		assert.Equal(t, []string{"COUPON_MIN_PURCHASE"}, log.results)
	})

	t.Run("unknown code", func(t *testing.T) {
		repo := new(MockCouponRepository)
		svc, log := newService(repo, now)
		repo.On("FindByCode", mock.Anything, "NOPE").Return(nil, shared.ErrNotFound)

		_, err := svc.Validate(context.Background(), buyer, ApplyCouponRequest{Code: "nope", Subtotal: decimal.NewFromInt(100)})
		assert.ErrorIs(t, err, coupon.ErrCouponNotFound)
		assert.Equal(t, []string{"COUPON_NOT_FOUND"}, log.results)
	})

	t.Run("blank code", func(t *testing.T) {
		repo := new(MockCouponRepository)
		svc, _ := newService(repo, now)

		_, err := svc.Validate(context.Background(), buyer, ApplyCouponRequest{Code: "   "})
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "INVALID_CODE", de.Code)
		repo.AssertNotCalled(t, "FindByCode", mock.Anything, mock.Anything)
	})

	t.Run("anonymous caller", func(t *testing.T) {
		repo := new(MockCouponRepository)
		svc, _ := newService(repo, now)

		_, err := svc.Validate(context.Background(), identity.Principal{}, ApplyCouponRequest{Code: "SAVE10"})
		assert.ErrorIs(t, err, shared.ErrUnauthorized)
	})
}

func TestCouponService_Redeem(t *testing.T) {
	now := time.Now()

	t.Run("consumes one use", func(t *testing.T) {
		repo := new(MockCouponRepository)
		svc, log := newService(repo, now)
		c := save10(t, now)
		repo.On("FindByCode", mock.Anything, "SAVE10").Return(c, nil)
		repo.On("IncrementUsage", mock.Anything, c.ID).Return(nil).Once()

		resp, err := svc.Redeem(context.Background(), buyer, ApplyCouponRequest{Code: "SAVE10", Subtotal: decimal.NewFromInt(700)})
		require.NoError(t, err)
		assert.True(t, resp.Redeemed)
		assert.Equal(t, "70", resp.DiscountAmount.String())
		assert.Equal(t, []string{ResultRedeemed}, log.results)
		repo.AssertExpectations(t)
	})

	t.Run("lost the race for the last use", func(t *testing.T) {
		repo := new(MockCouponRepository)
		svc, log := newService(repo, now)
		c := save10(t, now)
		repo.On("FindByCode", mock.Anything, "SAVE10").Return(c, nil)
		repo.On("IncrementUsage", mock.Anything, c.ID).Return(coupon.ErrCouponUsageLimit)

		_, err := svc.Redeem(context.Background(), buyer, ApplyCouponRequest{Code: "SAVE10", Subtotal: decimal.NewFromInt(700)})
		assert.ErrorIs(t, err, coupon.ErrCouponUsageLimit)
		assert.Equal(t, []string{"COUPON_USAGE_LIMIT"}, log.results)
	})

	t.Run("rejected evaluation never touches usage", func(t *testing.T) {
		repo := new(MockCouponRepository)
		svc, _ := newService(repo, now)
		c := save10(t, now)
		c.IsActive = false
		repo.On("FindByCode", mock.Anything, "SAVE10").Return(c, nil)

		_, err := svc.Redeem(context.Background(), buyer, ApplyCouponRequest{Code: "SAVE10", Subtotal: decimal.NewFromInt(700)})
		assert.ErrorIs(t, err, coupon.ErrCouponInactive)
		repo.AssertNotCalled(t, "IncrementUsage", mock.Anything, mock.Anything)
	})
}

func TestCouponService_Create(t *testing.T) {
	now := time.Now()
	req := CreateCouponRequest{
		Code:           "summer25",
		DiscountType:   "fixed",
		DiscountAmount: decimal.NewFromInt(25),
		StartDate:      now,
		ExpiryDate:     now.Add(30 * 24 * time.Hour),
	}

	t.Run("stores normalized code", func(t *testing.T) {
		repo := new(MockCouponRepository)
		svc, _ := newService(repo, now)
		repo.On("ExistsByCode", mock.Anything, "SUMMER25").Return(false, nil)
		repo.On("Create", mock.Anything, mock.MatchedBy(func(c *coupon.Coupon) bool {
			return c.Code == "SUMMER25" && c.IsActive
		})).Return(nil)

		resp, err := svc.Create(context.Background(), admin, req)
		require.NoError(t, err)
		assert.Equal(t, "SUMMER25", resp.Code)
		assert.Equal(t, "fixed", resp.DiscountType)
		repo.AssertExpectations(t)
	})

	t.Run("duplicate code", func(t *testing.T) {
		repo := new(MockCouponRepository)
		svc, _ := newService(repo, now)
		repo.On("ExistsByCode", mock.Anything, "SUMMER25").Return(true, nil)

		_, err := svc.Create(context.Background(), admin, req)
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "ALREADY_EXISTS", de.Code)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("invalid input is rejected before lookup", func(t *testing.T) {
		repo := new(MockCouponRepository)
		svc, _ := newService(repo, now)
		bad := req
		bad.ExpiryDate = now.Add(-time.Hour)

		_, err := svc.Create(context.Background(), admin, bad)
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "INVALID_DATES", de.Code)
		repo.AssertNotCalled(t, "ExistsByCode", mock.Anything, mock.Anything)
	})

	t.Run("admin only", func(t *testing.T) {
		repo := new(MockCouponRepository)
		svc, _ := newService(repo, now)

		_, err := svc.Create(context.Background(), buyer, req)
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})
}

func TestCouponService_Update(t *testing.T) {
	now := time.Now()

	t.Run("deactivates", func(t *testing.T) {
		repo := new(MockCouponRepository)
		svc, _ := newService(repo, now)
		c := save10(t, now)
		repo.On("FindByID", mock.Anything, c.ID).Return(c, nil)
		repo.On("SaveWithLock", mock.Anything, c).Return(nil)

		inactive := false
		resp, err := svc.Update(context.Background(), admin, c.ID, UpdateCouponRequest{IsActive: &inactive})
		require.NoError(t, err)
		assert.False(t, resp.IsActive)
	})

	t.Run("empty update", func(t *testing.T) {
		repo := new(MockCouponRepository)
		svc, _ := newService(repo, now)
		c := save10(t, now)
		repo.On("FindByID", mock.Anything, c.ID).Return(c, nil)

		_, err := svc.Update(context.Background(), admin, c.ID, UpdateCouponRequest{})
		assert.ErrorIs(t, err, shared.ErrNoFieldsToUpdate)
		repo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})

	t.Run("limit below usage is rejected before saving", func(t *testing.T) {
		repo := new(MockCouponRepository)
		svc, _ := newService(repo, now)
		c := save10(t, now)
		c.UsageCount = 6
		repo.On("FindByID", mock.Anything, c.ID).Return(c, nil)

		limit := 5
		_, err := svc.Update(context.Background(), admin, c.ID, UpdateCouponRequest{UsageLimit: &limit})
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "INVALID_USAGE_LIMIT", de.Code)
		repo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})

	t.Run("version conflict", func(t *testing.T) {
		repo := new(MockCouponRepository)
		svc, _ := newService(repo, now)
		c := save10(t, now)
		repo.On("FindByID", mock.Anything, c.ID).Return(c, nil)
		repo.On("SaveWithLock", mock.Anything, c).Return(shared.ErrConcurrencyConflict)

		desc := "ten off"
		_, err := svc.Update(context.Background(), admin, c.ID, UpdateCouponRequest{Description: &desc})
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	})
}

func TestCouponService_List(t *testing.T) {
	repo := new(MockCouponRepository)
	svc, _ := newService(repo, time.Now())
	active := true
	repo.On("FindAll", mock.Anything, mock.MatchedBy(func(f coupon.CouponFilter) bool {
		return f.Page == 2 && f.PageSize == 5 && f.IsActive != nil && *f.IsActive
	})).Return([]coupon.Coupon{*save10(t, time.Now())}, int64(6), nil)

	items, total, filter, err := svc.List(context.Background(), admin, CouponListFilter{IsActive: &active, Page: 2, PageSize: 5})
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, int64(6), total)
	assert.Equal(t, 2, filter.Page)
}

func TestCouponService_Delete(t *testing.T) {
	repo := new(MockCouponRepository)
	svc, _ := newService(repo, time.Now())
	id := uuid.New()
	repo.On("Delete", mock.Anything, id).Return(errors.New("db down"))

	err := svc.Delete(context.Background(), admin, id)
	assert.EqualError(t, err, "db down")
}
