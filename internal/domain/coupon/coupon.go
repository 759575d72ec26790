// Package coupon holds discount codes and the evaluator that decides whether
// a code applies to a cart subtotal and for how much.
package coupon

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/safarhub/backend/internal/domain/shared"
)

// DiscountType is how a coupon's discount amount is interpreted
type DiscountType string

const (
	DiscountTypePercentage DiscountType = "percentage"
	DiscountTypeFixed      DiscountType = "fixed"
)

// IsValid checks if the discount type is recognized
func (t DiscountType) IsValid() bool {
	return t == DiscountTypePercentage || t == DiscountTypeFixed
}

// Evaluation rejections, in check order
var (
	ErrCouponNotFound    = shared.NewDomainError("COUPON_NOT_FOUND", "Invalid coupon code")
	ErrCouponInactive    = shared.NewDomainError("COUPON_INACTIVE", "Coupon is not active")
	ErrCouponNotStarted  = shared.NewDomainError("COUPON_NOT_STARTED", "Coupon is not valid yet")
	ErrCouponExpired     = shared.NewDomainError("COUPON_EXPIRED", "Coupon has expired")
	ErrCouponUsageLimit  = shared.NewDomainError("COUPON_USAGE_LIMIT", "Coupon usage limit reached")
	ErrCouponMinPurchase = shared.NewDomainError("COUPON_MIN_PURCHASE", "Cart total is below the coupon minimum purchase")
)

var hundred = decimal.NewFromInt(100)

// NormalizeCode upper-cases and trims a coupon code before lookup or storage
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Coupon is a discount code
type Coupon struct {
	shared.BaseAggregateRoot
	Code           string
	Description    string
	DiscountType   DiscountType
	DiscountAmount decimal.Decimal
	MinPurchase    decimal.Decimal
	MaxDiscount    *decimal.Decimal
	StartDate      time.Time
	ExpiryDate     time.Time
	UsageLimit     *int
	UsageCount     int
	IsActive       bool
}

// NewCouponInput are the fields required to create a coupon
type NewCouponInput struct {
	Code           string
	Description    string
	DiscountType   DiscountType
	DiscountAmount decimal.Decimal
	MinPurchase    decimal.Decimal
	MaxDiscount    *decimal.Decimal
	StartDate      time.Time
	ExpiryDate     time.Time
	UsageLimit     *int
}

// NewCoupon creates an active coupon
func NewCoupon(in NewCouponInput) (*Coupon, error) {
	c := &Coupon{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              NormalizeCode(in.Code),
		Description:       strings.TrimSpace(in.Description),
		DiscountType:      in.DiscountType,
		DiscountAmount:    in.DiscountAmount,
		MinPurchase:       in.MinPurchase,
		MaxDiscount:       in.MaxDiscount,
		StartDate:         in.StartDate,
		ExpiryDate:        in.ExpiryDate,
		UsageLimit:        in.UsageLimit,
		IsActive:          true,
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Coupon) validate() error {
	if c.Code == "" {
		return shared.NewDomainError("INVALID_CODE", "Coupon code cannot be empty")
	}
	if len(c.Code) > 50 {
		return shared.NewDomainError("INVALID_CODE", "Coupon code cannot exceed 50 characters")
	}
	if !c.DiscountType.IsValid() {
		return shared.NewDomainError("INVALID_DISCOUNT_TYPE", "Discount type must be percentage or fixed")
	}
	if !c.DiscountAmount.IsPositive() {
		return shared.NewDomainError("INVALID_DISCOUNT", "Discount amount must be positive")
	}
	if c.DiscountType == DiscountTypePercentage && c.DiscountAmount.GreaterThan(hundred) {
		return shared.NewDomainError("INVALID_DISCOUNT", "Percentage discount cannot exceed 100")
	}
	if c.MinPurchase.IsNegative() {
		return shared.NewDomainError("INVALID_MIN_PURCHASE", "Minimum purchase cannot be negative")
	}
	if c.MaxDiscount != nil && !c.MaxDiscount.IsPositive() {
		return shared.NewDomainError("INVALID_MAX_DISCOUNT", "Maximum discount must be positive")
	}
	if c.StartDate.IsZero() || c.ExpiryDate.IsZero() {
		return shared.NewDomainError("INVALID_DATES", "Start date and expiry date are required")
	}
	if !c.ExpiryDate.After(c.StartDate) {
		return shared.NewDomainError("INVALID_DATES", "Expiry date must be after start date")
	}
	if c.UsageLimit != nil && *c.UsageLimit < 0 {
		return shared.NewDomainError("INVALID_USAGE_LIMIT", "Usage limit cannot be negative")
	}
	if c.UsageLimit != nil && *c.UsageLimit < c.UsageCount {
		return shared.NewDomainError("INVALID_USAGE_LIMIT", "Usage limit cannot be below the current usage count")
	}
	return nil
}

// Evaluation is the outcome of applying a coupon to a subtotal
type Evaluation struct {
	CouponID       uuid.UUID
	Code           string
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	FinalTotal     decimal.Decimal
}

// Evaluate checks the coupon against a subtotal at the given instant.
// The first failing check wins: active, date window, usage limit, minimum
// purchase. It never mutates the coupon.
func (c *Coupon) Evaluate(subtotal decimal.Decimal, now time.Time) (*Evaluation, error) {
	if !c.IsActive {
		return nil, ErrCouponInactive
	}
	if now.Before(c.StartDate) {
		return nil, ErrCouponNotStarted
	}
	if now.After(c.ExpiryDate) {
		return nil, ErrCouponExpired
	}
	if c.LimitReached() {
		return nil, ErrCouponUsageLimit
	}
	if subtotal.IsNegative() {
		return nil, shared.NewDomainError("INVALID_SUBTOTAL", "Subtotal cannot be negative")
	}
	if subtotal.LessThan(c.MinPurchase) {
		return nil, ErrCouponMinPurchase
	}

	discount := c.Discount(subtotal)
	return &Evaluation{
		CouponID:       c.ID,
		Code:           c.Code,
		Subtotal:       subtotal,
		DiscountAmount: discount,
		FinalTotal:     subtotal.Sub(discount),
	}, nil
}

// Discount computes the discount for a subtotal without eligibility checks.
// Percentage discounts are capped at MaxDiscount; both kinds are capped at
// the subtotal.
func (c *Coupon) Discount(subtotal decimal.Decimal) decimal.Decimal {
	var discount decimal.Decimal
	switch c.DiscountType {
	case DiscountTypePercentage:
		discount = subtotal.Mul(c.DiscountAmount).Div(hundred).Round(2)
		if c.MaxDiscount != nil && discount.GreaterThan(*c.MaxDiscount) {
			discount = *c.MaxDiscount
		}
	case DiscountTypeFixed:
		discount = c.DiscountAmount
	default:
		return decimal.Zero
	}
	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}
	return discount
}

// LimitReached reports whether a usage limit is set and exhausted
func (c *Coupon) LimitReached() bool {
	return c.UsageLimit != nil && c.UsageCount >= *c.UsageLimit
}

// Update holds the optional fields of a coupon edit
type Update struct {
	Description      *string
	DiscountType     *DiscountType
	DiscountAmount   *decimal.Decimal
	MinPurchase      *decimal.Decimal
	MaxDiscount      *decimal.Decimal
	ClearMaxDiscount bool
	StartDate        *time.Time
	ExpiryDate       *time.Time
	UsageLimit       *int
	IsActive         *bool
}

// IsEmpty reports whether the update changes nothing
func (u Update) IsEmpty() bool {
	return u.Description == nil && u.DiscountType == nil && u.DiscountAmount == nil &&
		u.MinPurchase == nil && u.MaxDiscount == nil && !u.ClearMaxDiscount &&
		u.StartDate == nil && u.ExpiryDate == nil && u.UsageLimit == nil && u.IsActive == nil
}

// Apply edits the coupon. The code itself is immutable.
func (c *Coupon) Apply(u Update) error {
	if u.IsEmpty() {
		return shared.ErrNoFieldsToUpdate
	}

	next := *c
	if u.Description != nil {
		next.Description = strings.TrimSpace(*u.Description)
	}
	if u.DiscountType != nil {
		next.DiscountType = *u.DiscountType
	}
	if u.DiscountAmount != nil {
		next.DiscountAmount = *u.DiscountAmount
	}
	if u.MinPurchase != nil {
		next.MinPurchase = *u.MinPurchase
	}
	if u.ClearMaxDiscount {
		next.MaxDiscount = nil
	} else if u.MaxDiscount != nil {
		next.MaxDiscount = u.MaxDiscount
	}
	if u.StartDate != nil {
		next.StartDate = *u.StartDate
	}
	if u.ExpiryDate != nil {
		next.ExpiryDate = *u.ExpiryDate
	}
	if u.UsageLimit != nil {
		next.UsageLimit = u.UsageLimit
	}
	if u.IsActive != nil {
		next.IsActive = *u.IsActive
	}
	if err := next.validate(); err != nil {
		return err
	}

	*c = next
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
	return nil
}
