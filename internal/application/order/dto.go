package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/safarhub/backend/internal/domain/order"
	"github.com/safarhub/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// VendorOrderQuery filters the vendor fulfillment view
type VendorOrderQuery struct {
	Status string `form:"status" binding:"omitempty,order_status"`
}

// UpdateItemStatusRequest moves an item forward in fulfillment
type UpdateItemStatusRequest struct {
	Status string `json:"status" binding:"required,order_status"`
}

// CancelItemRequest cancels an item with a reason
type CancelItemRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// BuyerResponse is the buyer contact shown to the vendor
type BuyerResponse struct {
	ID      uuid.UUID           `json:"id"`
	Name    string              `json:"name"`
	Email   string              `json:"email"`
	Phone   string              `json:"phone"`
	Address valueobject.Address `json:"address"`
}

// CancellationResponse is who cancelled, when and why
type CancellationResponse struct {
	Reason          string    `json:"cancellationReason"`
	CancelledBy     uuid.UUID `json:"cancelledBy"`
	CancelledAt     time.Time `json:"cancelledAt"`
	CancelledByRole string    `json:"cancelledByRole"`
}

func toCancellationResponse(c *order.Cancellation) *CancellationResponse {
	if c == nil {
		return nil
	}
	return &CancellationResponse{
		Reason:          c.Reason,
		CancelledBy:     c.CancelledBy,
		CancelledAt:     c.CancelledAt,
		CancelledByRole: string(c.CancelledByRole),
	}
}

// FulfillmentRowResponse is one sold item in the vendor's order list
type FulfillmentRowResponse struct {
	OrderID      uuid.UUID             `json:"orderId"`
	ItemID       uuid.UUID             `json:"itemId"`
	ProductID    uuid.UUID             `json:"productId"`
	VariantID    *uuid.UUID            `json:"variantId,omitempty"`
	ProductName  string                `json:"productName"`
	ProductImage string                `json:"productImage,omitempty"`
	Color        string                `json:"color,omitempty"`
	Size         string                `json:"size,omitempty"`
	Quantity     int                   `json:"quantity"`
	UnitPrice    decimal.Decimal       `json:"unitPrice"`
	SoldAmount   decimal.Decimal       `json:"soldAmount"`
	Buyer        BuyerResponse         `json:"buyer"`
	DeliveryDate *time.Time            `json:"deliveryDate,omitempty"`
	ItemStatus   string                `json:"itemStatus"`
	OrderStatus  string                `json:"orderStatus"`
	Cancellation *CancellationResponse `json:"cancellation,omitempty"`
	CreatedAt    time.Time             `json:"createdAt"`
}

// ToFulfillmentRowResponse converts an aggregated row to its response
func ToFulfillmentRowResponse(r *order.FulfillmentRow) FulfillmentRowResponse {
	return FulfillmentRowResponse{
		OrderID:      r.OrderID,
		ItemID:       r.ItemID,
		ProductID:    r.ProductID,
		VariantID:    r.VariantID,
		ProductName:  r.ProductName,
		ProductImage: r.ProductImage,
		Color:        r.Color,
		Size:         r.Size,
		Quantity:     r.Quantity,
		UnitPrice:    r.UnitPrice,
		SoldAmount:   r.SoldAmount,
		Buyer: BuyerResponse{
			ID:      r.BuyerID,
			Name:    r.BuyerName,
			Email:   r.BuyerEmail,
			Phone:   r.BuyerPhone,
			Address: r.Address,
		},
		DeliveryDate: r.DeliveryDate,
		ItemStatus:   r.ItemStatus.String(),
		OrderStatus:  r.OrderStatus.String(),
		Cancellation: toCancellationResponse(r.Cancellation),
		CreatedAt:    r.CreatedAt,
	}
}

// StatusSummaryResponse is the count and sold total for one status
type StatusSummaryResponse struct {
	Status     string          `json:"status"`
	Count      int             `json:"count"`
	SoldAmount decimal.Decimal `json:"soldAmount"`
}

// VendorSummaryResponse is the vendor's fulfillment dashboard
type VendorSummaryResponse struct {
	TotalItems int                     `json:"totalItems"`
	TotalSold  decimal.Decimal         `json:"totalSold"`
	ByStatus   []StatusSummaryResponse `json:"byStatus"`
}

// ItemResponse is an order item after a fulfillment command
type ItemResponse struct {
	OrderID      uuid.UUID             `json:"orderId"`
	ItemID       uuid.UUID             `json:"itemId"`
	Status       string                `json:"status"`
	Cancellation *CancellationResponse `json:"cancellation,omitempty"`
	UpdatedAt    time.Time             `json:"updatedAt"`
}

func toItemResponse(item *order.OrderItem) ItemResponse {
	return ItemResponse{
		OrderID:      item.OrderID,
		ItemID:       item.ID,
		Status:       order.NormalizeStatus(item.Status).String(),
		Cancellation: toCancellationResponse(item.Cancellation),
		UpdatedAt:    item.UpdatedAt,
	}
}
