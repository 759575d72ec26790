package listing

import (
	"time"

	"github.com/google/uuid"
	"github.com/safarhub/backend/internal/domain/catalog"
	"github.com/safarhub/backend/internal/domain/listing"
	"github.com/shopspring/decimal"
)

// ListingQuery is the public listing query string
type ListingQuery struct {
	Search   string `form:"search" binding:"max=100"`
	Location string `form:"location" binding:"max=100"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"pageSize" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"orderBy"`
	OrderDir string `form:"orderDir" binding:"omitempty,oneof=asc desc"`
}

// ListingResponse is a publicly visible listing
type ListingResponse struct {
	ID        uuid.UUID       `json:"id"`
	VendorID  uuid.UUID       `json:"vendorId"`
	Kind      string          `json:"kind"`
	Title     string          `json:"title"`
	Location  string          `json:"location"`
	Price     decimal.Decimal `json:"price"`
	Images    []string        `json:"images"`
	CreatedAt time.Time       `json:"createdAt"`
}

// ToListingResponse converts a listing to its response
func ToListingResponse(l *listing.Listing) ListingResponse {
	images := l.Images
	if images == nil {
		images = []string{}
	}
	return ListingResponse{
		ID:        l.ID,
		VendorID:  l.VendorID,
		Kind:      string(l.Kind),
		Title:     l.Title,
		Location:  l.Location,
		Price:     l.Price,
		Images:    images,
		CreatedAt: l.CreatedAt,
	}
}

// ProductResponse is a publicly visible product
type ProductResponse struct {
	ID        uuid.UUID         `json:"id"`
	SellerID  *uuid.UUID        `json:"sellerId"`
	Name      string            `json:"name"`
	BasePrice decimal.Decimal   `json:"basePrice"`
	Stock     int               `json:"stock"`
	Image     string            `json:"image,omitempty"`
	Variants  []catalog.Variant `json:"variants"`
	CreatedAt time.Time         `json:"createdAt"`
}

// ToProductResponse converts a product to its response
func ToProductResponse(p *catalog.Product) ProductResponse {
	variants := p.Variants
	if variants == nil {
		variants = []catalog.Variant{}
	}
	return ProductResponse{
		ID:        p.ID,
		SellerID:  p.SellerID,
		Name:      p.Name,
		BasePrice: p.BasePrice,
		Stock:     p.Stock,
		Image:     p.CoverImage(),
		Variants:  variants,
		CreatedAt: p.CreatedAt,
	}
}
