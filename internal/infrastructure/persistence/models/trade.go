package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/safarhub/backend/internal/domain/identity"
	"github.com/safarhub/backend/internal/domain/order"
	"github.com/safarhub/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// OrderModel is the persistence model for the Order aggregate root.
type OrderModel struct {
	AggregateModel
	UserID             uuid.UUID            `gorm:"type:uuid;not null;index"`
	Items              []OrderItemModel     `gorm:"foreignKey:OrderID;references:ID"`
	Status             order.Status         `gorm:"type:varchar(20);not null"`
	Address            valueobject.Address  `gorm:"type:jsonb"`
	TotalAmount        decimal.Decimal      `gorm:"type:decimal(18,2);not null;default:0"`
	DeliveryCharge     decimal.Decimal      `gorm:"type:decimal(18,2);not null;default:0"`
	CouponCode         string               `gorm:"type:varchar(50)"`
	DiscountAmount     decimal.Decimal      `gorm:"type:decimal(18,2);not null;default:0"`
	DeliveryDate       *time.Time
	CancellationReason string               `gorm:"type:varchar(500)"`
	CancelledBy        *uuid.UUID           `gorm:"type:uuid"`
	CancelledAt        *time.Time
	CancelledByRole    identity.AccountType `gorm:"type:varchar(20)"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order
func (m *OrderModel) ToDomain() *order.Order {
	o := &order.Order{
		BaseAggregateRoot: m.ToAggregateRoot(),
		UserID:            m.UserID,
		Status:            m.Status,
		Address:           m.Address,
		TotalAmount:       m.TotalAmount,
		DeliveryCharge:    m.DeliveryCharge,
		CouponCode:        m.CouponCode,
		DiscountAmount:    m.DiscountAmount,
		DeliveryDate:      m.DeliveryDate,
		Cancellation:      cancellationFromColumns(m.CancellationReason, m.CancelledBy, m.CancelledAt, m.CancelledByRole),
		Items:             make([]order.OrderItem, 0, len(m.Items)),
	}
	for i := range m.Items {
		o.Items = append(o.Items, m.Items[i].ToDomain())
	}
	return o
}

// OrderModelFromDomain creates a persistence model from a domain Order
func OrderModelFromDomain(o *order.Order) *OrderModel {
	m := &OrderModel{
		UserID:         o.UserID,
		Status:         o.Status,
		Address:        o.Address,
		TotalAmount:    o.TotalAmount,
		DeliveryCharge: o.DeliveryCharge,
		CouponCode:     o.CouponCode,
		DiscountAmount: o.DiscountAmount,
		DeliveryDate:   o.DeliveryDate,
	}
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	if c := o.Cancellation; c != nil {
		m.CancellationReason = c.Reason
		m.CancelledBy = &c.CancelledBy
		m.CancelledAt = &c.CancelledAt
		m.CancelledByRole = c.CancelledByRole
	}
	m.Items = make([]OrderItemModel, 0, len(o.Items))
	for i := range o.Items {
		item := OrderItemModelFromDomain(&o.Items[i])
		item.OrderID = o.ID
		item.Position = i
		m.Items = append(m.Items, *item)
	}
	return m
}

// OrderItemModel is the persistence model for order lines.
type OrderItemModel struct {
	ID                 uuid.UUID                       `gorm:"type:uuid;primary_key"`
	OrderID            uuid.UUID                       `gorm:"type:uuid;not null;index"`
	Position           int                             `gorm:"not null;default:0"`
	ItemID             uuid.UUID                       `gorm:"type:uuid;not null;index:idx_order_items_item,priority:2"`
	ItemType           order.ItemType                  `gorm:"type:varchar(20);not null;index:idx_order_items_item,priority:1"`
	Quantity           int                             `gorm:"not null;default:1"`
	VariantID          *uuid.UUID                      `gorm:"type:uuid"`
	Variant            NullJSON[order.VariantSnapshot] `gorm:"type:jsonb"`
	Status             order.Status                    `gorm:"type:varchar(20);not null"`
	CancellationReason string                          `gorm:"type:varchar(500)"`
	CancelledBy        *uuid.UUID                      `gorm:"type:uuid"`
	CancelledAt        *time.Time
	CancelledByRole    identity.AccountType `gorm:"type:varchar(20)"`
	UpdatedAt          time.Time            `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderItemModel) TableName() string {
	return "order_items"
}

// ToDomain converts the persistence model to a domain OrderItem
func (m *OrderItemModel) ToDomain() order.OrderItem {
	return order.OrderItem{
		ID:           m.ID,
		OrderID:      m.OrderID,
		ItemID:       m.ItemID,
		ItemType:     m.ItemType,
		Quantity:     m.Quantity,
		VariantID:    m.VariantID,
		Variant:      m.Variant.Val,
		Status:       m.Status,
		Cancellation: cancellationFromColumns(m.CancellationReason, m.CancelledBy, m.CancelledAt, m.CancelledByRole),
		UpdatedAt:    m.UpdatedAt,
	}
}

// OrderItemModelFromDomain creates a persistence model from a domain OrderItem
func OrderItemModelFromDomain(i *order.OrderItem) *OrderItemModel {
	m := &OrderItemModel{
		ID:        i.ID,
		OrderID:   i.OrderID,
		ItemID:    i.ItemID,
		ItemType:  i.ItemType,
		Quantity:  i.Quantity,
		VariantID: i.VariantID,
		Variant:   NullJSON[order.VariantSnapshot]{Val: i.Variant},
		Status:    i.Status,
		UpdatedAt: i.UpdatedAt,
	}
	if c := i.Cancellation; c != nil {
		m.CancellationReason = c.Reason
		m.CancelledBy = &c.CancelledBy
		m.CancelledAt = &c.CancelledAt
		m.CancelledByRole = c.CancelledByRole
	}
	return m
}

// cancellationFromColumns rebuilds cancellation metadata. A row without a
// cancellation timestamp carries none.
func cancellationFromColumns(reason string, by *uuid.UUID, at *time.Time, role identity.AccountType) *order.Cancellation {
	if at == nil {
		return nil
	}
	c := &order.Cancellation{
		Reason:          reason,
		CancelledAt:     *at,
		CancelledByRole: role,
	}
	if by != nil {
		c.CancelledBy = *by
	}
	return c
}
