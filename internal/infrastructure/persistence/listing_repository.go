package persistence

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/safarhub/backend/internal/domain/listing"
	"github.com/safarhub/backend/internal/domain/shared"
	"github.com/safarhub/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormListingRepository implements listing.ListingRepository. Each kind
// lives in its own table with the same shape.
type GormListingRepository struct {
	conn *Connector
}

// NewGormListingRepository creates a new GormListingRepository
func NewGormListingRepository(conn *Connector) *GormListingRepository {
	return &GormListingRepository{conn: conn}
}

func (r *GormListingRepository) table(ctx context.Context, kind listing.Kind) (*gorm.DB, error) {
	name, ok := models.ListingTable(kind)
	if !ok {
		return nil, shared.NewDomainError("INVALID_LISTING_KIND", fmt.Sprintf("Unknown listing kind: %s", kind))
	}
	db, err := r.conn.DB(ctx)
	if err != nil {
		return nil, err
	}
	return db.Table(name), nil
}

// FindByOwners lists listings of one kind whose owner is in vendorIDs.
// An empty vendorIDs slice matches nothing and issues no query.
func (r *GormListingRepository) FindByOwners(ctx context.Context, kind listing.Kind, vendorIDs []uuid.UUID, filter listing.ListingFilter) ([]listing.Listing, int64, error) {
	if len(vendorIDs) == 0 {
		return []listing.Listing{}, 0, nil
	}
	query, err := r.table(ctx, kind)
	if err != nil {
		return nil, 0, err
	}
	query = query.Where("vendor_id IN ?", vendorIDs)
	if filter.Search != "" {
		query = query.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(filter.Search)+"%")
	}
	if filter.Location != "" {
		query = query.Where("LOWER(location) LIKE ?", "%"+strings.ToLower(filter.Location)+"%")
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count listings: %w", err)
	}

	var rows []models.ListingModel
	if err := applyPage(applyOrder(query, filter.Filter, ListingSortFields, "created_at"), filter.Filter).
		Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list listings: %w", err)
	}
	listings := make([]listing.Listing, len(rows))
	for i := range rows {
		listings[i] = rows[i].ToDomain(kind)
	}
	return listings, total, nil
}

// DeleteByVendor removes every listing of one kind owned by vendorID
func (r *GormListingRepository) DeleteByVendor(ctx context.Context, kind listing.Kind, vendorID uuid.UUID) (int64, error) {
	query, err := r.table(ctx, kind)
	if err != nil {
		return 0, err
	}
	result := query.Where("vendor_id = ?", vendorID).Delete(&models.ListingModel{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete %s listings: %w", kind, result.Error)
	}
	return result.RowsAffected, nil
}

// CountByVendor counts listings of one kind owned by vendorID
func (r *GormListingRepository) CountByVendor(ctx context.Context, kind listing.Kind, vendorID uuid.UUID) (int64, error) {
	query, err := r.table(ctx, kind)
	if err != nil {
		return 0, err
	}
	var count int64
	if err := query.Where("vendor_id = ?", vendorID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count %s listings: %w", kind, err)
	}
	return count, nil
}

// Create inserts a listing into its kind's table
func (r *GormListingRepository) Create(ctx context.Context, l *listing.Listing) error {
	query, err := r.table(ctx, l.Kind)
	if err != nil {
		return err
	}
	if err := query.Create(models.ListingModelFromDomain(l)).Error; err != nil {
		return fmt.Errorf("failed to create listing: %w", err)
	}
	return nil
}
