// Package catalog holds sellable products and their variants.
package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/safarhub/backend/internal/domain/shared"
)

// Variant is a purchasable variation of a product with its own price and stock
type Variant struct {
	ID     uuid.UUID       `json:"id"`
	Color  string          `json:"color,omitempty"`
	Size   string          `json:"size,omitempty"`
	Price  decimal.Decimal `json:"price"`
	Stock  int             `json:"stock"`
	Photos []string        `json:"photos,omitempty"`
}

// Product is a catalog item. A nil SellerID means the marketplace itself
// (an admin) owns it.
type Product struct {
	ID        uuid.UUID
	SellerID  *uuid.UUID
	Name      string
	BasePrice decimal.Decimal
	Stock     int
	Images    []string
	Photos    []string
	Variants  []Variant
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsOwnedBy reports whether vendorID sold this product
func (p *Product) IsOwnedBy(vendorID uuid.UUID) bool {
	return p.SellerID != nil && *p.SellerID == vendorID
}

// IsAdminOwned reports whether the product has no vendor owner
func (p *Product) IsAdminOwned() bool {
	return p.SellerID == nil
}

// FindVariant returns the catalog variant with the given ID
func (p *Product) FindVariant(id uuid.UUID) (*Variant, bool) {
	for i := range p.Variants {
		if p.Variants[i].ID == id {
			return &p.Variants[i], true
		}
	}
	return nil, false
}

// CurrentPrice returns the catalog price for an optional variant:
// the variant's price when it exists, otherwise the base price.
func (p *Product) CurrentPrice(variantID *uuid.UUID) decimal.Decimal {
	if variantID != nil {
		if v, ok := p.FindVariant(*variantID); ok {
			return v.Price
		}
	}
	return p.BasePrice
}

// VariantPhoto returns the first photo of a catalog variant, if any
func (p *Product) VariantPhoto(variantID *uuid.UUID) string {
	if variantID == nil {
		return ""
	}
	if v, ok := p.FindVariant(*variantID); ok && len(v.Photos) > 0 {
		return v.Photos[0]
	}
	return ""
}

// CoverImage returns the first product image, then the first product photo
func (p *Product) CoverImage() string {
	if len(p.Images) > 0 && p.Images[0] != "" {
		return p.Images[0]
	}
	if len(p.Photos) > 0 && p.Photos[0] != "" {
		return p.Photos[0]
	}
	return ""
}

// ProductFilter restricts a product query
type ProductFilter struct {
	shared.Filter
	SellerID *uuid.UUID
}

// ProductRepository reads products
type ProductRepository interface {
	// FindByID finds a product by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindByIDs returns products keyed by ID; unknown IDs are absent
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]Product, error)

	// FindIDsBySeller returns the IDs of every product owned by sellerID
	FindIDsBySeller(ctx context.Context, sellerID uuid.UUID) ([]uuid.UUID, error)

	// FindPublic lists products whose seller is in sellerIDs, plus
	// admin-owned products when includeAdminOwned is set
	FindPublic(ctx context.Context, sellerIDs []uuid.UUID, includeAdminOwned bool, filter ProductFilter) ([]Product, int64, error)
}
