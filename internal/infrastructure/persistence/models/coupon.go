package models

import (
	"time"

	"github.com/safarhub/backend/internal/domain/coupon"
	"github.com/shopspring/decimal"
)

// CouponModel is the persistence model for the Coupon aggregate root.
type CouponModel struct {
	AggregateModel
	Code           string              `gorm:"type:varchar(50);not null;uniqueIndex"`
	Description    string              `gorm:"type:varchar(500)"`
	DiscountType   coupon.DiscountType `gorm:"type:varchar(20);not null"`
	DiscountAmount decimal.Decimal     `gorm:"type:decimal(18,2);not null"`
	MinPurchase    decimal.Decimal     `gorm:"type:decimal(18,2);not null;default:0"`
	MaxDiscount    *decimal.Decimal    `gorm:"type:decimal(18,2)"`
	StartDate      time.Time           `gorm:"not null"`
	ExpiryDate     time.Time           `gorm:"not null;index"`
	UsageLimit     *int
	UsageCount     int  `gorm:"not null;default:0"`
	IsActive       bool `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (CouponModel) TableName() string {
	return "coupons"
}

// ToDomain converts the persistence model to a domain Coupon
func (m *CouponModel) ToDomain() *coupon.Coupon {
	return &coupon.Coupon{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Code:              m.Code,
		Description:       m.Description,
		DiscountType:      m.DiscountType,
		DiscountAmount:    m.DiscountAmount,
		MinPurchase:       m.MinPurchase,
		MaxDiscount:       m.MaxDiscount,
		StartDate:         m.StartDate,
		ExpiryDate:        m.ExpiryDate,
		UsageLimit:        m.UsageLimit,
		UsageCount:        m.UsageCount,
		IsActive:          m.IsActive,
	}
}

// CouponModelFromDomain creates a persistence model from a domain Coupon
func CouponModelFromDomain(c *coupon.Coupon) *CouponModel {
	m := &CouponModel{
		Code:           c.Code,
		Description:    c.Description,
		DiscountType:   c.DiscountType,
		DiscountAmount: c.DiscountAmount,
		MinPurchase:    c.MinPurchase,
		MaxDiscount:    c.MaxDiscount,
		StartDate:      c.StartDate,
		ExpiryDate:     c.ExpiryDate,
		UsageLimit:     c.UsageLimit,
		UsageCount:     c.UsageCount,
		IsActive:       c.IsActive,
	}
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	return m
}
