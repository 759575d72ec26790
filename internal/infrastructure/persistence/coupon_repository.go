package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/safarhub/backend/internal/domain/coupon"
	"github.com/safarhub/backend/internal/domain/shared"
	"github.com/safarhub/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormCouponRepository implements coupon.CouponRepository using GORM
type GormCouponRepository struct {
	conn *Connector
}

// NewGormCouponRepository creates a new GormCouponRepository
func NewGormCouponRepository(conn *Connector) *GormCouponRepository {
	return &GormCouponRepository{conn: conn}
}

// FindByID finds a coupon by ID
func (r *GormCouponRepository) FindByID(ctx context.Context, id uuid.UUID) (*coupon.Coupon, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByCode looks up a coupon by its normalized code
func (r *GormCouponRepository) FindByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	return r.findOne(ctx, "code = ?", coupon.NormalizeCode(code))
}

func (r *GormCouponRepository) findOne(ctx context.Context, cond string, arg any) (*coupon.Coupon, error) {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return nil, err
	}
	var model models.CouponModel
	if err := db.Where(cond, arg).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find coupon: %w", err)
	}
	return model.ToDomain(), nil
}

// FindAll lists coupons matching the filter with the total count
func (r *GormCouponRepository) FindAll(ctx context.Context, filter coupon.CouponFilter) ([]coupon.Coupon, int64, error) {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return nil, 0, err
	}
	query := db.Model(&models.CouponModel{})
	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(code) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count coupons: %w", err)
	}

	var rows []models.CouponModel
	if err := applyPage(applyOrder(query, filter.Filter, CouponSortFields, "created_at"), filter.Filter).
		Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list coupons: %w", err)
	}
	coupons := make([]coupon.Coupon, len(rows))
	for i := range rows {
		coupons[i] = *rows[i].ToDomain()
	}
	return coupons, total, nil
}

// ExistsByCode checks code uniqueness
func (r *GormCouponRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return false, err
	}
	var count int64
	if err := db.Model(&models.CouponModel{}).
		Where("code = ?", coupon.NormalizeCode(code)).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check coupon code: %w", err)
	}
	return count > 0, nil
}

// Create inserts a coupon
func (r *GormCouponRepository) Create(ctx context.Context, c *coupon.Coupon) error {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return err
	}
	if err := db.Create(models.CouponModelFromDomain(c)).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return fmt.Errorf("failed to create coupon: %w", err)
	}
	return nil
}

// SaveWithLock saves a coupon with optimistic locking (version check).
// usage_count is owned by IncrementUsage and never written here.
func (r *GormCouponRepository) SaveWithLock(ctx context.Context, c *coupon.Coupon) error {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return err
	}
	model := models.CouponModelFromDomain(c)
	result := db.Model(&models.CouponModel{}).
		Where("id = ? AND version = ?", c.ID, c.Version-1).
		Select("*").
		Omit("id", "created_at", "usage_count").
		Updates(model)
	if result.Error != nil {
		return fmt.Errorf("failed to save coupon: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("OPTIMISTIC_LOCK_ERROR", "The coupon record has been modified by another transaction")
	}
	return nil
}

// IncrementUsage bumps usage_count in a single update-if-match statement so
// concurrent redemptions cannot overshoot usage_limit.
func (r *GormCouponRepository) IncrementUsage(ctx context.Context, id uuid.UUID) error {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return err
	}
	result := db.Model(&models.CouponModel{}).
		Where("id = ? AND (usage_limit IS NULL OR usage_count < usage_limit)", id).
		UpdateColumn("usage_count", gorm.Expr("usage_count + 1"))
	if result.Error != nil {
		return fmt.Errorf("failed to increment coupon usage: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		if _, err := r.FindByID(ctx, id); err != nil {
			return err
		}
		return coupon.ErrCouponUsageLimit
	}
	return nil
}

// Delete removes a coupon
func (r *GormCouponRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return err
	}
	result := db.Delete(&models.CouponModel{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete coupon: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}
