package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/safarhub/backend/internal/domain/order"
	"github.com/safarhub/backend/internal/domain/shared"
	"github.com/safarhub/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormOrderRepository implements order.OrderRepository using GORM
type GormOrderRepository struct {
	conn *Connector
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(conn *Connector) *GormOrderRepository {
	return &GormOrderRepository{conn: conn}
}

func itemsByPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

// FindByID loads an order with its items in checkout order
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return nil, err
	}
	var model models.OrderModel
	if err := db.Preload("Items", itemsByPosition).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find order: %w", err)
	}
	return model.ToDomain(), nil
}

// FindContainingProducts loads every order having at least one Product item
// whose item ID is in productIDs. The membership test runs as an IN
// subquery over order_items; items of other vendors are still loaded and
// left for the aggregator to drop.
func (r *GormOrderRepository) FindContainingProducts(ctx context.Context, productIDs []uuid.UUID) ([]order.Order, error) {
	if len(productIDs) == 0 {
		return []order.Order{}, nil
	}
	db, err := r.conn.DB(ctx)
	if err != nil {
		return nil, err
	}

	sub := db.Model(&models.OrderItemModel{}).
		Select("order_id").
		Where("item_type = ? AND item_id IN ?", order.ItemTypeProduct, productIDs)

	var rows []models.OrderModel
	if err := db.Preload("Items", itemsByPosition).
		Where("id IN (?)", sub).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load vendor orders: %w", err)
	}

	orders := make([]order.Order, len(rows))
	for i := range rows {
		orders[i] = *rows[i].ToDomain()
	}
	return orders, nil
}

// UpdateItem writes the item's status and cancellation fields in one
// statement, only if the stored status still equals change.ExpectedStatus.
func (r *GormOrderRepository) UpdateItem(ctx context.Context, change order.ItemChange) error {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return err
	}

	item := models.OrderItemModelFromDomain(&change.Item)
	values := map[string]any{
		"status":              item.Status,
		"cancellation_reason": item.CancellationReason,
		"cancelled_by":        item.CancelledBy,
		"cancelled_at":        item.CancelledAt,
		"cancelled_by_role":   item.CancelledByRole,
		"updated_at":          item.UpdatedAt,
	}

	result := db.Model(&models.OrderItemModel{}).
		Where("id = ? AND order_id = ? AND status = ?", item.ID, item.OrderID, change.ExpectedStatus).
		Updates(values)
	if result.Error != nil {
		return fmt.Errorf("failed to update order item: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("OPTIMISTIC_LOCK_ERROR", "The order item has been modified by another transaction")
	}
	return nil
}

// Create inserts an order together with its items
func (r *GormOrderRepository) Create(ctx context.Context, o *order.Order) error {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return err
	}
	if err := db.Create(models.OrderModelFromDomain(o)).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}
