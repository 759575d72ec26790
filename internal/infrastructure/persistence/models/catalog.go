package models

import (
	"github.com/google/uuid"
	"github.com/safarhub/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// ProductModel is the persistence model for catalog products.
// Variants are stored inline as a JSON array.
type ProductModel struct {
	BaseModel
	SellerID  *uuid.UUID                `gorm:"type:uuid;index"`
	Name      string                    `gorm:"type:varchar(200);not null"`
	BasePrice decimal.Decimal           `gorm:"type:decimal(18,2);not null;default:0"`
	Stock     int                       `gorm:"not null;default:0"`
	Images    JSONList[string]          `gorm:"type:jsonb"`
	Photos    JSONList[string]          `gorm:"type:jsonb"`
	Variants  JSONList[catalog.Variant] `gorm:"type:jsonb"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product
func (m *ProductModel) ToDomain() catalog.Product {
	return catalog.Product{
		ID:        m.ID,
		SellerID:  m.SellerID,
		Name:      m.Name,
		BasePrice: m.BasePrice,
		Stock:     m.Stock,
		Images:    m.Images,
		Photos:    m.Photos,
		Variants:  m.Variants,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// ProductModelFromDomain creates a persistence model from a domain Product
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	return &ProductModel{
		BaseModel: BaseModel{ID: p.ID, CreatedAt: p.CreatedAt, UpdatedAt: p.UpdatedAt},
		SellerID:  p.SellerID,
		Name:      p.Name,
		BasePrice: p.BasePrice,
		Stock:     p.Stock,
		Images:    p.Images,
		Photos:    p.Photos,
		Variants:  p.Variants,
	}
}
