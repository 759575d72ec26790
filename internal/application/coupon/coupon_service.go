// Package coupon manages discount codes and applies them to cart subtotals.
package coupon

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/safarhub/backend/internal/domain/coupon"
	"github.com/safarhub/backend/internal/domain/identity"
	"github.com/safarhub/backend/internal/domain/shared"
	"github.com/safarhub/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Evaluation outcomes reported to the recorder
const (
	ResultAccepted = "accepted"
	ResultRedeemed = "redeemed"
)

// EvaluationRecorder observes coupon evaluations by outcome
type EvaluationRecorder interface {
	RecordCouponEvaluation(ctx context.Context, result string)
}

// CouponService handles coupon administration and evaluation
type CouponService struct {
	repo     coupon.CouponRepository
	recorder EvaluationRecorder
	now      func() time.Time
	logger   *zap.Logger
}

// NewCouponService creates a new CouponService
func NewCouponService(repo coupon.CouponRepository, logger *zap.Logger) *CouponService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CouponService{
		repo:   repo,
		now:    time.Now,
		logger: logger,
	}
}

// SetRecorder sets the metrics recorder
func (s *CouponService) SetRecorder(recorder EvaluationRecorder) {
	s.recorder = recorder
}

// Create adds a new active coupon
func (s *CouponService) Create(ctx context.Context, actor identity.Principal, req CreateCouponRequest) (*CouponResponse, error) {
	if err := actor.RequireAdmin(); err != nil {
		return nil, err
	}

	c, err := coupon.NewCoupon(coupon.NewCouponInput{
		Code:           req.Code,
		Description:    req.Description,
		DiscountType:   coupon.DiscountType(req.DiscountType),
		DiscountAmount: req.DiscountAmount,
		MinPurchase:    req.MinPurchase,
		MaxDiscount:    req.MaxDiscount,
		StartDate:      req.StartDate,
		ExpiryDate:     req.ExpiryDate,
		UsageLimit:     req.UsageLimit,
	})
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByCode(ctx, c.Code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Coupon with this code already exists")
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	s.logger.Info("coupon created", zap.String("code", c.Code), zap.String("actor_id", actor.ID.String()))

	response := ToCouponResponse(c)
	return &response, nil
}

// GetByID returns one coupon
func (s *CouponService) GetByID(ctx context.Context, actor identity.Principal, id uuid.UUID) (*CouponResponse, error) {
	if err := actor.RequireAdmin(); err != nil {
		return nil, err
	}
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToCouponResponse(c)
	return &response, nil
}

// List returns coupons matching the filter
func (s *CouponService) List(ctx context.Context, actor identity.Principal, filter CouponListFilter) ([]CouponResponse, int64, shared.Filter, error) {
	if err := actor.RequireAdmin(); err != nil {
		return nil, 0, shared.Filter{}, err
	}

	query := coupon.CouponFilter{Filter: shared.DefaultFilter(), IsActive: filter.IsActive}
	query.Search = filter.Search
	if filter.Page > 0 {
		query.Page = filter.Page
	}
	if filter.PageSize > 0 {
		query.PageSize = filter.PageSize
	}
	if filter.OrderBy != "" {
		query.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		query.OrderDir = filter.OrderDir
	}

	coupons, total, err := s.repo.FindAll(ctx, query)
	if err != nil {
		return nil, 0, shared.Filter{}, err
	}
	responses := make([]CouponResponse, len(coupons))
	for i := range coupons {
		responses[i] = ToCouponResponse(&coupons[i])
	}
	return responses, total, query.Filter, nil
}

// Update edits a coupon. An empty request fails with NO_FIELDS_TO_UPDATE.
func (s *CouponService) Update(ctx context.Context, actor identity.Principal, id uuid.UUID, req UpdateCouponRequest) (*CouponResponse, error) {
	if err := actor.RequireAdmin(); err != nil {
		return nil, err
	}
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := c.Apply(req.toUpdate()); err != nil {
		return nil, err
	}
	if err := s.repo.SaveWithLock(ctx, c); err != nil {
		return nil, err
	}
	response := ToCouponResponse(c)
	return &response, nil
}

// Delete removes a coupon
func (s *CouponService) Delete(ctx context.Context, actor identity.Principal, id uuid.UUID) error {
	if err := actor.RequireAdmin(); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("coupon deleted", zap.String("coupon_id", id.String()), zap.String("actor_id", actor.ID.String()))
	return nil
}

// Validate evaluates a code against a subtotal without consuming it
func (s *CouponService) Validate(ctx context.Context, actor identity.Principal, req ApplyCouponRequest) (*EvaluationResponse, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	ctx, span := telemetry.StartServiceSpan(ctx, "coupon", "validate",
		telemetry.WithAttribute(telemetry.SpanAttrCouponCode, coupon.NormalizeCode(req.Code)))
	defer span.End()

	_, eval, err := s.evaluate(ctx, req)
	if err != nil {
		return nil, err
	}
	s.record(ctx, ResultAccepted)

	response := toEvaluationResponse(eval, false)
	return &response, nil
}

// Redeem evaluates a code and consumes one use of it. The usage count is
// bumped by a conditional update, so concurrent redemptions cannot exceed
// the usage limit.
func (s *CouponService) Redeem(ctx context.Context, actor identity.Principal, req ApplyCouponRequest) (*EvaluationResponse, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	ctx, span := telemetry.StartServiceSpan(ctx, "coupon", "redeem",
		telemetry.WithAttribute(telemetry.SpanAttrCouponCode, coupon.NormalizeCode(req.Code)))
	defer span.End()

	c, eval, err := s.evaluate(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.IncrementUsage(ctx, c.ID); err != nil {
		if errors.Is(err, coupon.ErrCouponUsageLimit) {
			s.record(ctx, coupon.ErrCouponUsageLimit.Code)
		}
		return nil, err
	}
	s.record(ctx, ResultRedeemed)
	s.logger.Info("coupon redeemed",
		zap.String("code", c.Code),
		zap.String("user_id", actor.ID.String()),
		zap.String("discount", eval.DiscountAmount.String()),
	)

	response := toEvaluationResponse(eval, true)
	return &response, nil
}

func (s *CouponService) evaluate(ctx context.Context, req ApplyCouponRequest) (*coupon.Coupon, *coupon.Evaluation, error) {
	code := coupon.NormalizeCode(req.Code)
	if code == "" {
		return nil, nil, shared.NewDomainError("INVALID_CODE", "Coupon code cannot be empty")
	}

	c, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.record(ctx, coupon.ErrCouponNotFound.Code)
			return nil, nil, coupon.ErrCouponNotFound
		}
		return nil, nil, err
	}

	eval, err := c.Evaluate(req.Subtotal, s.now())
	if err != nil {
		var domainErr *shared.DomainError
		if errors.As(err, &domainErr) {
			s.record(ctx, domainErr.Code)
		}
		return nil, nil, err
	}
	return c, eval, nil
}

func (s *CouponService) record(ctx context.Context, result string) {
	if s.recorder != nil {
		s.recorder.RecordCouponEvaluation(ctx, result)
	}
}
