package coupon

import (
	"time"

	"github.com/google/uuid"
	"github.com/safarhub/backend/internal/domain/coupon"
	"github.com/shopspring/decimal"
)

// CreateCouponRequest creates a discount code
type CreateCouponRequest struct {
	Code           string           `json:"code" binding:"required,min=1,max=50"`
	Description    string           `json:"description" binding:"max=500"`
	DiscountType   string           `json:"discountType" binding:"required,oneof=percentage fixed"`
	DiscountAmount decimal.Decimal  `json:"discountAmount" binding:"required"`
	MinPurchase    decimal.Decimal  `json:"minPurchase"`
	MaxDiscount    *decimal.Decimal `json:"maxDiscount"`
	StartDate      time.Time        `json:"startDate" binding:"required"`
	ExpiryDate     time.Time        `json:"expiryDate" binding:"required"`
	UsageLimit     *int             `json:"usageLimit" binding:"omitempty,min=0"`
}

// UpdateCouponRequest edits a coupon; omitted fields are left as is
type UpdateCouponRequest struct {
	Description      *string          `json:"description" binding:"omitempty,max=500"`
	DiscountType     *string          `json:"discountType" binding:"omitempty,oneof=percentage fixed"`
	DiscountAmount   *decimal.Decimal `json:"discountAmount"`
	MinPurchase      *decimal.Decimal `json:"minPurchase"`
	MaxDiscount      *decimal.Decimal `json:"maxDiscount"`
	ClearMaxDiscount bool             `json:"clearMaxDiscount"`
	StartDate        *time.Time       `json:"startDate"`
	ExpiryDate       *time.Time       `json:"expiryDate"`
	UsageLimit       *int             `json:"usageLimit" binding:"omitempty,min=0"`
	IsActive         *bool            `json:"isActive"`
}

func (r UpdateCouponRequest) toUpdate() coupon.Update {
	u := coupon.Update{
		Description:      r.Description,
		DiscountAmount:   r.DiscountAmount,
		MinPurchase:      r.MinPurchase,
		MaxDiscount:      r.MaxDiscount,
		ClearMaxDiscount: r.ClearMaxDiscount,
		StartDate:        r.StartDate,
		ExpiryDate:       r.ExpiryDate,
		UsageLimit:       r.UsageLimit,
		IsActive:         r.IsActive,
	}
	if r.DiscountType != nil {
		t := coupon.DiscountType(*r.DiscountType)
		u.DiscountType = &t
	}
	return u
}

// ApplyCouponRequest checks or redeems a code against a cart subtotal
type ApplyCouponRequest struct {
	Code     string          `json:"code" binding:"required,min=1,max=50"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// CouponListFilter is the admin coupon listing query
type CouponListFilter struct {
	Search   string `form:"search"`
	IsActive *bool  `form:"active"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"pageSize" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"orderBy"`
	OrderDir string `form:"orderDir" binding:"omitempty,oneof=asc desc"`
}

// CouponResponse is the admin view of a coupon
type CouponResponse struct {
	ID             uuid.UUID        `json:"id"`
	Code           string           `json:"code"`
	Description    string           `json:"description,omitempty"`
	DiscountType   string           `json:"discountType"`
	DiscountAmount decimal.Decimal  `json:"discountAmount"`
	MinPurchase    decimal.Decimal  `json:"minPurchase"`
	MaxDiscount    *decimal.Decimal `json:"maxDiscount,omitempty"`
	StartDate      time.Time        `json:"startDate"`
	ExpiryDate     time.Time        `json:"expiryDate"`
	UsageLimit     *int             `json:"usageLimit,omitempty"`
	UsageCount     int              `json:"usageCount"`
	IsActive       bool             `json:"isActive"`
	CreatedAt      time.Time        `json:"createdAt"`
	UpdatedAt      time.Time        `json:"updatedAt"`
}

// ToCouponResponse converts a coupon to its response
func ToCouponResponse(c *coupon.Coupon) CouponResponse {
	return CouponResponse{
		ID:             c.ID,
		Code:           c.Code,
		Description:    c.Description,
		DiscountType:   string(c.DiscountType),
		DiscountAmount: c.DiscountAmount,
		MinPurchase:    c.MinPurchase,
		MaxDiscount:    c.MaxDiscount,
		StartDate:      c.StartDate,
		ExpiryDate:     c.ExpiryDate,
		UsageLimit:     c.UsageLimit,
		UsageCount:     c.UsageCount,
		IsActive:       c.IsActive,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

// EvaluationResponse is an accepted coupon's effect on a subtotal
type EvaluationResponse struct {
	Code           string          `json:"code"`
	Accepted       bool            `json:"accepted"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	FinalTotal     decimal.Decimal `json:"finalTotal"`
	Redeemed       bool            `json:"redeemed"`
}

func toEvaluationResponse(e *coupon.Evaluation, redeemed bool) EvaluationResponse {
	return EvaluationResponse{
		Code:           e.Code,
		Accepted:       true,
		Subtotal:       e.Subtotal,
		DiscountAmount: e.DiscountAmount,
		FinalTotal:     e.FinalTotal,
		Redeemed:       redeemed,
	}
}
