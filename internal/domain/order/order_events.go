package order

import (
	"github.com/google/uuid"
	"github.com/safarhub/backend/internal/domain/identity"
	"github.com/safarhub/backend/internal/domain/shared"
)

// AggregateTypeOrder is the aggregate type name for orders
const AggregateTypeOrder = "Order"

// Event type constants for Order
const (
	EventTypeOrderItemStatusChanged = "OrderItemStatusChanged"
	EventTypeOrderItemCancelled     = "OrderItemCancelled"
)

// OrderItemStatusChangedEvent is published when a vendor advances an item
type OrderItemStatusChangedEvent struct {
	shared.BaseDomainEvent
	OrderID   uuid.UUID            `json:"order_id"`
	ItemID    uuid.UUID            `json:"item_id"`
	BuyerID   uuid.UUID            `json:"buyer_id"`
	OldStatus Status               `json:"old_status"`
	NewStatus Status               `json:"new_status"`
	ActorID   uuid.UUID            `json:"actor_id"`
	ActorRole identity.AccountType `json:"actor_role"`
}

// NewOrderItemStatusChangedEvent creates a new OrderItemStatusChangedEvent
func NewOrderItemStatusChangedEvent(o *Order, item *OrderItem, oldStatus Status, actor identity.Principal) *OrderItemStatusChangedEvent {
	return &OrderItemStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderItemStatusChanged, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		ItemID:          item.ID,
		BuyerID:         o.UserID,
		OldStatus:       oldStatus,
		NewStatus:       item.Status,
		ActorID:         actor.ID,
		ActorRole:       actor.AccountType,
	}
}

// OrderItemCancelledEvent is published when an item is cancelled
type OrderItemCancelledEvent struct {
	shared.BaseDomainEvent
	OrderID      uuid.UUID    `json:"order_id"`
	ItemID       uuid.UUID    `json:"item_id"`
	BuyerID      uuid.UUID    `json:"buyer_id"`
	Cancellation Cancellation `json:"cancellation"`
}

// NewOrderItemCancelledEvent creates a new OrderItemCancelledEvent
func NewOrderItemCancelledEvent(o *Order, item *OrderItem) *OrderItemCancelledEvent {
	e := &OrderItemCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderItemCancelled, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		ItemID:          item.ID,
		BuyerID:         o.UserID,
	}
	if item.Cancellation != nil {
		e.Cancellation = *item.Cancellation
	}
	return e
}
