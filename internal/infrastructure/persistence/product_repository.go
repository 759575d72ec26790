package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/safarhub/backend/internal/domain/catalog"
	"github.com/safarhub/backend/internal/domain/shared"
	"github.com/safarhub/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormProductRepository implements catalog.ProductRepository using GORM
type GormProductRepository struct {
	conn *Connector
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(conn *Connector) *GormProductRepository {
	return &GormProductRepository{conn: conn}
}

// FindByID finds a product by its ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return nil, err
	}
	var model models.ProductModel
	if err := db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	product := model.ToDomain()
	return &product, nil
}

// FindByIDs returns products keyed by ID; unknown IDs are absent
func (r *GormProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]catalog.Product, error) {
	result := make(map[uuid.UUID]catalog.Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	db, err := r.conn.DB(ctx)
	if err != nil {
		return nil, err
	}
	var rows []models.ProductModel
	if err := db.Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	for i := range rows {
		result[rows[i].ID] = rows[i].ToDomain()
	}
	return result, nil
}

// FindIDsBySeller returns the IDs of every product owned by sellerID
func (r *GormProductRepository) FindIDsBySeller(ctx context.Context, sellerID uuid.UUID) ([]uuid.UUID, error) {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return nil, err
	}
	var ids []uuid.UUID
	if err := db.Model(&models.ProductModel{}).
		Where("seller_id = ?", sellerID).
		Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to load seller products: %w", err)
	}
	return ids, nil
}

// FindPublic lists products whose seller is in sellerIDs, plus admin-owned
// products (no seller) when includeAdminOwned is set
func (r *GormProductRepository) FindPublic(ctx context.Context, sellerIDs []uuid.UUID, includeAdminOwned bool, filter catalog.ProductFilter) ([]catalog.Product, int64, error) {
	if len(sellerIDs) == 0 && !includeAdminOwned {
		return []catalog.Product{}, 0, nil
	}
	db, err := r.conn.DB(ctx)
	if err != nil {
		return nil, 0, err
	}

	query := db.Model(&models.ProductModel{})
	switch {
	case len(sellerIDs) > 0 && includeAdminOwned:
		query = query.Where("seller_id IN ? OR seller_id IS NULL", sellerIDs)
	case len(sellerIDs) > 0:
		query = query.Where("seller_id IN ?", sellerIDs)
	default:
		query = query.Where("seller_id IS NULL")
	}
	if filter.SellerID != nil {
		query = query.Where("seller_id = ?", *filter.SellerID)
	}
	if filter.Search != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(filter.Search)+"%")
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	var rows []models.ProductModel
	if err := applyPage(applyOrder(query, filter.Filter, ProductSortFields, "created_at"), filter.Filter).
		Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	products := make([]catalog.Product, len(rows))
	for i := range rows {
		products[i] = rows[i].ToDomain()
	}
	return products, total, nil
}

// Create inserts a product
func (r *GormProductRepository) Create(ctx context.Context, p *catalog.Product) error {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return err
	}
	if err := db.Create(models.ProductModelFromDomain(p)).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// DeleteBySeller removes every product owned by sellerID and returns how many
// rows went
func (r *GormProductRepository) DeleteBySeller(ctx context.Context, sellerID uuid.UUID) (int64, error) {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return 0, err
	}
	result := db.Where("seller_id = ?", sellerID).Delete(&models.ProductModel{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete seller products: %w", result.Error)
	}
	return result.RowsAffected, nil
}
