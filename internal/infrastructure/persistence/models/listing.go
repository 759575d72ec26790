package models

import (
	"github.com/google/uuid"
	"github.com/safarhub/backend/internal/domain/listing"
	"github.com/shopspring/decimal"
)

// ListingModel is the shared shape of the stays, tours, adventures and
// vehicle_rentals tables. It has no TableName; repositories pick the table
// with ListingTable.
type ListingModel struct {
	BaseModel
	VendorID uuid.UUID        `gorm:"type:uuid;not null"`
	Title    string           `gorm:"type:varchar(200);not null"`
	Location string           `gorm:"type:varchar(200)"`
	Price    decimal.Decimal  `gorm:"type:decimal(18,2);not null;default:0"`
	Images   JSONList[string] `gorm:"type:jsonb"`
}

var listingTables = map[listing.Kind]string{
	listing.KindStay:          "stays",
	listing.KindTour:          "tours",
	listing.KindAdventure:     "adventures",
	listing.KindVehicleRental: "vehicle_rentals",
}

// ListingTable returns the table holding listings of the given kind
func ListingTable(kind listing.Kind) (string, bool) {
	t, ok := listingTables[kind]
	return t, ok
}

// ToDomain converts the persistence model to a domain Listing
func (m *ListingModel) ToDomain(kind listing.Kind) listing.Listing {
	return listing.Listing{
		ID:        m.ID,
		VendorID:  m.VendorID,
		Kind:      kind,
		Title:     m.Title,
		Location:  m.Location,
		Price:     m.Price,
		Images:    m.Images,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// ListingModelFromDomain creates a persistence model from a domain Listing
func ListingModelFromDomain(l *listing.Listing) *ListingModel {
	return &ListingModel{
		BaseModel: BaseModel{ID: l.ID, CreatedAt: l.CreatedAt, UpdatedAt: l.UpdatedAt},
		VendorID:  l.VendorID,
		Title:     l.Title,
		Location:  l.Location,
		Price:     l.Price,
		Images:    l.Images,
	}
}
