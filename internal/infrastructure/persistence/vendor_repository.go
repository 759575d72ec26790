package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/safarhub/backend/internal/domain/identity"
	"github.com/safarhub/backend/internal/domain/shared"
	"github.com/safarhub/backend/internal/domain/vendor"
	"github.com/safarhub/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// vendorColumns are the users columns a vendor aggregate owns
var vendorColumns = []string{
	"name", "email", "phone",
	"is_vendor_approved", "is_vendor_locked", "is_seller", "vendor_services",
	"approved_at", "locked_at", "version", "updated_at",
}

// GormVendorRepository implements vendor.VendorRepository over the users table
type GormVendorRepository struct {
	conn *Connector
}

// NewGormVendorRepository creates a new GormVendorRepository
func NewGormVendorRepository(conn *Connector) *GormVendorRepository {
	return &GormVendorRepository{conn: conn}
}

func (r *GormVendorRepository) vendors(ctx context.Context) (*gorm.DB, error) {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return nil, err
	}
	return db.Model(&models.UserModel{}).Where("account_type = ?", identity.AccountTypeVendor), nil
}

// FindByID finds a vendor by ID
func (r *GormVendorRepository) FindByID(ctx context.Context, id uuid.UUID) (*vendor.Vendor, error) {
	query, err := r.vendors(ctx)
	if err != nil {
		return nil, err
	}
	var model models.UserModel
	if err := query.Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find vendor: %w", err)
	}
	return model.ToVendor(), nil
}

// FindAll lists vendors matching the filter
func (r *GormVendorRepository) FindAll(ctx context.Context, filter vendor.VendorFilter) ([]vendor.Vendor, error) {
	query, err := r.vendors(ctx)
	if err != nil {
		return nil, err
	}
	query = applyPage(applyOrder(r.applyFilter(query, filter), filter.Filter, VendorSortFields, "created_at"), filter.Filter)

	var rows []models.UserModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list vendors: %w", err)
	}
	vendors := make([]vendor.Vendor, len(rows))
	for i := range rows {
		vendors[i] = *rows[i].ToVendor()
	}
	return vendors, nil
}

// Count counts vendors matching the filter
func (r *GormVendorRepository) Count(ctx context.Context, filter vendor.VendorFilter) (int64, error) {
	query, err := r.vendors(ctx)
	if err != nil {
		return 0, err
	}
	var count int64
	if err := r.applyFilter(query, filter).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count vendors: %w", err)
	}
	return count, nil
}

// FindVisibleIDs returns the IDs of approved, unlocked vendors
func (r *GormVendorRepository) FindVisibleIDs(ctx context.Context) ([]uuid.UUID, error) {
	query, err := r.vendors(ctx)
	if err != nil {
		return nil, err
	}
	var ids []uuid.UUID
	if err := query.
		Where("is_vendor_approved = ? AND is_vendor_locked = ?", true, false).
		Order("id").
		Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to resolve visible vendors: %w", err)
	}
	return ids, nil
}

// SaveWithLock saves a vendor with optimistic locking (version check).
// Only vendor-owned columns are written.
func (r *GormVendorRepository) SaveWithLock(ctx context.Context, v *vendor.Vendor) error {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return err
	}
	model := models.UserModelFromVendor(v)
	result := db.Model(&models.UserModel{}).
		Where("id = ? AND version = ? AND account_type = ?", v.ID, v.Version-1, identity.AccountTypeVendor).
		Select(vendorColumns).
		Updates(model)
	if result.Error != nil {
		return fmt.Errorf("failed to save vendor: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("OPTIMISTIC_LOCK_ERROR", "The vendor record has been modified by another transaction")
	}
	return nil
}

// Delete removes the vendor record
func (r *GormVendorRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return err
	}
	result := db.Where("id = ? AND account_type = ?", id, identity.AccountTypeVendor).Delete(&models.UserModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete vendor: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormVendorRepository) applyFilter(query *gorm.DB, filter vendor.VendorFilter) *gorm.DB {
	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", like, like)
	}
	if filter.IsApproved != nil {
		query = query.Where("is_vendor_approved = ?", *filter.IsApproved)
	}
	if filter.IsLocked != nil {
		query = query.Where("is_vendor_locked = ?", *filter.IsLocked)
	}
	return query
}
