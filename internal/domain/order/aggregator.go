package order

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/safarhub/backend/internal/domain/catalog"
	"github.com/safarhub/backend/internal/domain/identity"
	"github.com/safarhub/backend/internal/domain/shared/valueobject"
)

// FulfillmentRow is one order item as seen by the vendor who sold it
type FulfillmentRow struct {
	OrderID      uuid.UUID
	ItemID       uuid.UUID
	ProductID    uuid.UUID
	VariantID    *uuid.UUID
	ProductName  string
	ProductImage string
	Color        string
	Size         string
	Quantity     int
	UnitPrice    decimal.Decimal
	SoldAmount   decimal.Decimal
	BuyerID      uuid.UUID
	BuyerName    string
	BuyerEmail   string
	BuyerPhone   string
	Address      valueobject.Address
	DeliveryDate *time.Time
	ItemStatus   Status
	OrderStatus  Status
	Cancellation *Cancellation
	CreatedAt    time.Time
}

// AggregateInput is everything the fulfillment view is computed from.
// Products and Buyers are lookups keyed by ID; missing entries are tolerated.
type AggregateInput struct {
	Orders   []Order
	Products map[uuid.UUID]catalog.Product
	Buyers   map[uuid.UUID]identity.User
	VendorID uuid.UUID
	// Status, when set, keeps rows whose item status or order status matches
	Status *Status
}

// Aggregate fans orders out into one row per item and keeps only the
// Product items sold by the requesting vendor. Rows whose product cannot be
// resolved are dropped rather than failing the whole view.
func Aggregate(in AggregateInput) []FulfillmentRow {
	orders := make([]Order, len(in.Orders))
	copy(orders, in.Orders)
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})

	var filter Status
	if in.Status != nil {
		filter = NormalizeStatus(*in.Status)
	}

	rows := make([]FulfillmentRow, 0)
	for oi := range orders {
		o := &orders[oi]
		orderStatus := NormalizeStatus(o.Status)

		for ii := range o.Items {
			item := &o.Items[ii]
			if item.ItemType != ItemTypeProduct {
				continue
			}

			product, ok := in.Products[item.ItemID]
			if !ok || !product.IsOwnedBy(in.VendorID) {
				continue
			}

			itemStatus := item.EffectiveStatus(o.Status)
			if filter != "" && itemStatus != filter && orderStatus != filter {
				continue
			}

			unitPrice := UnitPrice(item, &product)
			row := FulfillmentRow{
				OrderID:      o.ID,
				ItemID:       item.ID,
				ProductID:    product.ID,
				VariantID:    item.VariantID,
				ProductName:  product.Name,
				ProductImage: ItemImage(item, &product),
				Quantity:     item.Quantity,
				UnitPrice:    unitPrice,
				SoldAmount:   unitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))),
				BuyerID:      o.UserID,
				DeliveryDate: o.DeliveryDate,
				ItemStatus:   itemStatus,
				OrderStatus:  orderStatus,
				Cancellation: item.Cancellation,
				CreatedAt:    o.CreatedAt,
			}
			if item.Variant != nil {
				row.Color = item.Variant.Color
				row.Size = item.Variant.Size
			}
			if row.Cancellation == nil {
				row.Cancellation = o.Cancellation
			}

			buyer, hasBuyer := in.Buyers[o.UserID]
			if hasBuyer {
				row.BuyerName = buyer.Name
				row.BuyerEmail = buyer.Email
				row.BuyerPhone = buyer.Phone
			}
			switch {
			case !o.Address.IsEmpty():
				row.Address = o.Address
				if o.Address.FullName != "" {
					row.BuyerName = o.Address.FullName
				}
				if o.Address.Phone != "" {
					row.BuyerPhone = o.Address.Phone
				}
			case hasBuyer:
				row.Address = buyer.Address
			}

			rows = append(rows, row)
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].CreatedAt.After(rows[j].CreatedAt)
	})
	return rows
}

// UnitPrice resolves the price paid for an item: the variant snapshot price,
// then the catalog variant or base price, then zero.
func UnitPrice(item *OrderItem, product *catalog.Product) decimal.Decimal {
	if item.Variant != nil && item.Variant.Price != nil {
		return *item.Variant.Price
	}
	if product != nil {
		return product.CurrentPrice(item.VariantID)
	}
	return decimal.Zero
}

// ItemImage picks the image shown for an item: variant photo, then product
// images, then product photos. Empty when none exist.
func ItemImage(item *OrderItem, product *catalog.Product) string {
	if item.Variant != nil {
		for _, p := range item.Variant.Photos {
			if p != "" {
				return p
			}
		}
	}
	if product == nil {
		return ""
	}
	if photo := product.VariantPhoto(item.VariantID); photo != "" {
		return photo
	}
	return product.CoverImage()
}

// StatusSummary is the row count and sold total for one effective status
type StatusSummary struct {
	Status     Status
	Count      int
	SoldAmount decimal.Decimal
}

// Summarize groups rows by item status in fulfillment order
func Summarize(rows []FulfillmentRow) []StatusSummary {
	order := []Status{StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled}
	byStatus := make(map[Status]*StatusSummary, len(order))
	for _, s := range order {
		byStatus[s] = &StatusSummary{Status: s, SoldAmount: decimal.Zero}
	}

	var extra []Status
	for _, r := range rows {
		sum, ok := byStatus[r.ItemStatus]
		if !ok {
			sum = &StatusSummary{Status: r.ItemStatus, SoldAmount: decimal.Zero}
			byStatus[r.ItemStatus] = sum
			extra = append(extra, r.ItemStatus)
		}
		sum.Count++
		sum.SoldAmount = sum.SoldAmount.Add(r.SoldAmount)
	}

	result := make([]StatusSummary, 0, len(order)+len(extra))
	for _, s := range append(order, extra...) {
		result = append(result, *byStatus[s])
	}
	return result
}
