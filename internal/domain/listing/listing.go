// Package listing describes vendor-owned bookable listings.
package listing

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/safarhub/backend/internal/domain/shared"
)

// Kind is the listing collection a record belongs to
type Kind string

const (
	KindStay          Kind = "stay"
	KindTour          Kind = "tour"
	KindAdventure     Kind = "adventure"
	KindVehicleRental Kind = "vehicle_rental"
)

// AllKinds lists every vendor-owned listing kind, in cascade order
var AllKinds = []Kind{KindStay, KindTour, KindAdventure, KindVehicleRental}

// IsValid checks if the kind is recognized
func (k Kind) IsValid() bool {
	switch k {
	case KindStay, KindTour, KindAdventure, KindVehicleRental:
		return true
	}
	return false
}

// ParseKind accepts the plural path forms used by the public API
// ("stays", "vehicle-rentals") as well as the stored singular values.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.TrimSuffix(s, "s")
	k := Kind(s)
	if !k.IsValid() {
		return "", shared.NewDomainError("INVALID_LISTING_KIND", "Listing kind must be one of stays, tours, adventures, vehicle-rentals")
	}
	return k, nil
}

// Listing is a stay, tour, adventure or vehicle rental offered by a vendor
type Listing struct {
	ID        uuid.UUID
	VendorID  uuid.UUID
	Kind      Kind
	Title     string
	Location  string
	Price     decimal.Decimal
	Images    []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ListingFilter restricts a listing query
type ListingFilter struct {
	shared.Filter
	Location string
}

// ListingRepository queries and removes listings
type ListingRepository interface {
	// FindByOwners lists listings of one kind whose owner is in vendorIDs.
	// An empty vendorIDs slice matches nothing.
	FindByOwners(ctx context.Context, kind Kind, vendorIDs []uuid.UUID, filter ListingFilter) ([]Listing, int64, error)

	// DeleteByVendor removes every listing of one kind owned by vendorID
	DeleteByVendor(ctx context.Context, kind Kind, vendorID uuid.UUID) (int64, error)

	// CountByVendor counts listings of one kind owned by vendorID
	CountByVendor(ctx context.Context, kind Kind, vendorID uuid.UUID) (int64, error)
}
