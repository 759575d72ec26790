// Package order models customer orders and the vendor fulfillment view
// derived from them.
package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/safarhub/backend/internal/domain/identity"
	"github.com/safarhub/backend/internal/domain/shared"
	"github.com/safarhub/backend/internal/domain/shared/valueobject"
)

// ItemType tags what an order line references
type ItemType string

const (
	ItemTypeProduct       ItemType = "Product"
	ItemTypeStay          ItemType = "Stay"
	ItemTypeTour          ItemType = "Tour"
	ItemTypeAdventure     ItemType = "Adventure"
	ItemTypeVehicleRental ItemType = "VehicleRental"
)

// IsValid checks if the item type is recognized
func (t ItemType) IsValid() bool {
	switch t {
	case ItemTypeProduct, ItemTypeStay, ItemTypeTour, ItemTypeAdventure, ItemTypeVehicleRental:
		return true
	}
	return false
}

// VariantSnapshot is the variant as it was when the order was placed
type VariantSnapshot struct {
	Color  string           `json:"color,omitempty"`
	Size   string           `json:"size,omitempty"`
	Price  *decimal.Decimal `json:"price,omitempty"`
	Photos []string         `json:"photos,omitempty"`
}

// Cancellation records who cancelled and why. All fields are written together.
type Cancellation struct {
	Reason          string               `json:"reason"`
	CancelledBy     uuid.UUID            `json:"cancelledBy"`
	CancelledAt     time.Time            `json:"cancelledAt"`
	CancelledByRole identity.AccountType `json:"cancelledByRole"`
}

// NewCancellation validates and builds a cancellation record
func NewCancellation(reason string, actor identity.Principal, at time.Time) (*Cancellation, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, shared.NewDomainError("INVALID_REASON", "Cancellation reason is required")
	}
	if len(reason) > 500 {
		return nil, shared.NewDomainError("INVALID_REASON", "Cancellation reason cannot exceed 500 characters")
	}
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	return &Cancellation{
		Reason:          reason,
		CancelledBy:     actor.ID,
		CancelledAt:     at,
		CancelledByRole: actor.AccountType,
	}, nil
}

// OrderItem is one line of an order. Its status is tracked independently
// of the order-level status and may diverge from it.
type OrderItem struct {
	ID           uuid.UUID
	OrderID      uuid.UUID
	ItemID       uuid.UUID
	ItemType     ItemType
	Quantity     int
	VariantID    *uuid.UUID
	Variant      *VariantSnapshot
	Status       Status
	Cancellation *Cancellation
	UpdatedAt    time.Time
}

// EffectiveStatus returns the normalized status for this item within its order
func (i *OrderItem) EffectiveStatus(orderStatus Status) Status {
	return EffectiveStatus(i.Status, orderStatus)
}

// Order is a customer order. Its structure is fixed at checkout; only item
// statuses change afterwards.
type Order struct {
	shared.BaseAggregateRoot
	UserID         uuid.UUID
	Items          []OrderItem
	Status         Status
	Address        valueobject.Address
	TotalAmount    decimal.Decimal
	DeliveryCharge decimal.Decimal
	CouponCode     string
	DiscountAmount decimal.Decimal
	DeliveryDate   *time.Time
	Cancellation   *Cancellation
}

// FindItem returns the item with the given ID
func (o *Order) FindItem(itemID uuid.UUID) (*OrderItem, bool) {
	for i := range o.Items {
		if o.Items[i].ID == itemID {
			return &o.Items[i], true
		}
	}
	return nil, false
}

// ItemChange describes a single item write, including the stored status the
// write must still match.
type ItemChange struct {
	Item           OrderItem
	ExpectedStatus Status
}

// UpdateItemStatus moves one item forward in the fulfillment flow.
// Cancellation goes through CancelItem so its metadata is always recorded.
func (o *Order) UpdateItemStatus(itemID uuid.UUID, target Status, actor identity.Principal) (*ItemChange, error) {
	if target == StatusCancelled {
		return nil, shared.NewDomainError("CANCELLATION_REASON_REQUIRED", "Use cancel to cancel an item")
	}
	item, ok := o.FindItem(itemID)
	if !ok {
		return nil, shared.ErrNotFound
	}

	current := item.EffectiveStatus(o.Status)
	if !current.CanTransitionTo(target) {
		return nil, shared.NewDomainError("INVALID_STATUS_TRANSITION",
			fmt.Sprintf("Cannot move item from %s to %s", current, target))
	}

	expected := item.Status
	now := time.Now()
	item.Status = target
	item.UpdatedAt = now
	o.UpdatedAt = now

	o.AddDomainEvent(NewOrderItemStatusChangedEvent(o, item, current, actor))
	return &ItemChange{Item: *item, ExpectedStatus: expected}, nil
}

// CancelItem cancels a single item, recording reason, actor, role and time
// in the same write as the status.
func (o *Order) CancelItem(itemID uuid.UUID, reason string, actor identity.Principal) (*ItemChange, error) {
	item, ok := o.FindItem(itemID)
	if !ok {
		return nil, shared.ErrNotFound
	}

	current := item.EffectiveStatus(o.Status)
	if !current.CanTransitionTo(StatusCancelled) {
		return nil, shared.NewDomainError("INVALID_STATUS_TRANSITION",
			fmt.Sprintf("Cannot cancel item in %s status", current))
	}

	now := time.Now()
	cancellation, err := NewCancellation(reason, actor, now)
	if err != nil {
		return nil, err
	}

	expected := item.Status
	item.Status = StatusCancelled
	item.Cancellation = cancellation
	item.UpdatedAt = now
	o.UpdatedAt = now

	o.AddDomainEvent(NewOrderItemCancelledEvent(o, item))
	return &ItemChange{Item: *item, ExpectedStatus: expected}, nil
}
