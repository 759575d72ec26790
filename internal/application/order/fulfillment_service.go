// Package order serves the vendor-side fulfillment of customer orders.
package order

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/safarhub/backend/internal/domain/catalog"
	"github.com/safarhub/backend/internal/domain/identity"
	"github.com/safarhub/backend/internal/domain/order"
	"github.com/safarhub/backend/internal/domain/shared"
	"github.com/safarhub/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SummaryRecorder observes how long the vendor summary takes to build
type SummaryRecorder interface {
	RecordSummaryDuration(ctx context.Context, d time.Duration)
}

// FulfillmentService builds vendor views over orders and applies
// item-level fulfillment commands
type FulfillmentService struct {
	orderRepo      order.OrderRepository
	productRepo    catalog.ProductRepository
	users          identity.UserReader
	eventPublisher shared.EventPublisher
	recorder       SummaryRecorder
	logger         *zap.Logger
}

// NewFulfillmentService creates a new FulfillmentService
func NewFulfillmentService(
	orderRepo order.OrderRepository,
	productRepo catalog.ProductRepository,
	users identity.UserReader,
	logger *zap.Logger,
) *FulfillmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FulfillmentService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		users:       users,
		logger:      logger,
	}
}

// SetEventPublisher sets the publisher that receives item events
func (s *FulfillmentService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetRecorder sets the metrics recorder
func (s *FulfillmentService) SetRecorder(recorder SummaryRecorder) {
	s.recorder = recorder
}

// ListVendorOrders returns one row per item the calling vendor sold,
// newest order first. statusParam is case-insensitive and may be empty.
func (s *FulfillmentService) ListVendorOrders(ctx context.Context, actor identity.Principal, statusParam string) ([]FulfillmentRowResponse, error) {
	if err := actor.RequireVendor(); err != nil {
		return nil, err
	}

	var status *order.Status
	if statusParam != "" {
		parsed, err := order.ParseStatus(statusParam)
		if err != nil {
			return nil, err
		}
		status = &parsed
	}

	rows, err := s.rows(ctx, actor.ID, status)
	if err != nil {
		return nil, err
	}

	responses := make([]FulfillmentRowResponse, len(rows))
	for i := range rows {
		responses[i] = ToFulfillmentRowResponse(&rows[i])
	}
	return responses, nil
}

// Summary counts the vendor's sold items and totals per effective status
func (s *FulfillmentService) Summary(ctx context.Context, actor identity.Principal) (*VendorSummaryResponse, error) {
	if err := actor.RequireVendor(); err != nil {
		return nil, err
	}

	start := time.Now()
	rows, err := s.rows(ctx, actor.ID, nil)
	if err != nil {
		return nil, err
	}

	summaries := order.Summarize(rows)
	response := &VendorSummaryResponse{
		TotalItems: len(rows),
		TotalSold:  decimal.Zero,
		ByStatus:   make([]StatusSummaryResponse, len(summaries)),
	}
	for i, sum := range summaries {
		response.ByStatus[i] = StatusSummaryResponse{
			Status:     sum.Status.String(),
			Count:      sum.Count,
			SoldAmount: sum.SoldAmount,
		}
		if sum.Status != order.StatusCancelled {
			response.TotalSold = response.TotalSold.Add(sum.SoldAmount)
		}
	}

	if s.recorder != nil {
		s.recorder.RecordSummaryDuration(ctx, time.Since(start))
	}
	return response, nil
}

// rows loads everything the aggregator needs for one vendor
func (s *FulfillmentService) rows(ctx context.Context, vendorID uuid.UUID, status *order.Status) ([]order.FulfillmentRow, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "order", "aggregate",
		telemetry.WithAttribute(telemetry.SpanAttrVendorID, vendorID.String()))
	defer span.End()

	productIDs, err := s.productRepo.FindIDsBySeller(ctx, vendorID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if len(productIDs) == 0 {
		return []order.FulfillmentRow{}, nil
	}

	orders, err := s.orderRepo.FindContainingProducts(ctx, productIDs)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if len(orders) == 0 {
		return []order.FulfillmentRow{}, nil
	}

	products, err := s.productRepo.FindByIDs(ctx, productIDs)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	buyerIDs := make([]uuid.UUID, 0, len(orders))
	seen := make(map[uuid.UUID]struct{}, len(orders))
	for i := range orders {
		if _, ok := seen[orders[i].UserID]; ok {
			continue
		}
		seen[orders[i].UserID] = struct{}{}
		buyerIDs = append(buyerIDs, orders[i].UserID)
	}
	buyers, err := s.users.FindByIDs(ctx, buyerIDs)
	if err != nil {
		// Contact details are optional in the view
		s.logger.Warn("failed to load buyer profiles", zap.Error(err))
		buyers = map[uuid.UUID]identity.User{}
	}

	rows := order.Aggregate(order.AggregateInput{
		Orders:   orders,
		Products: products,
		Buyers:   buyers,
		VendorID: vendorID,
		Status:   status,
	})
	telemetry.SetAttribute(span, "rows", len(rows))
	return rows, nil
}

// UpdateItemStatus advances an item the actor sold. Admins may act on any item.
func (s *FulfillmentService) UpdateItemStatus(ctx context.Context, actor identity.Principal, orderID, itemID uuid.UUID, statusParam string) (*ItemResponse, error) {
	target, err := order.ParseStatus(statusParam)
	if err != nil {
		return nil, err
	}
	return s.applyItemChange(ctx, actor, orderID, itemID, "update_item_status", func(o *order.Order) (*order.ItemChange, error) {
		return o.UpdateItemStatus(itemID, target, actor)
	})
}

// CancelItem cancels an item the actor sold, recording reason, actor and role
func (s *FulfillmentService) CancelItem(ctx context.Context, actor identity.Principal, orderID, itemID uuid.UUID, reason string) (*ItemResponse, error) {
	return s.applyItemChange(ctx, actor, orderID, itemID, "cancel_item", func(o *order.Order) (*order.ItemChange, error) {
		return o.CancelItem(itemID, reason, actor)
	})
}

func (s *FulfillmentService) applyItemChange(
	ctx context.Context,
	actor identity.Principal,
	orderID, itemID uuid.UUID,
	method string,
	apply func(*order.Order) (*order.ItemChange, error),
) (*ItemResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "order", method,
		telemetry.WithAttribute(telemetry.SpanAttrOrderID, orderID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrItemID, itemID.String()))
	defer span.End()

	if err := actor.RequireAny(identity.AccountTypeVendor, identity.AccountTypeAdmin); err != nil {
		return nil, err
	}

	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	item, ok := o.FindItem(itemID)
	if !ok {
		return nil, shared.ErrNotFound
	}
	if err := s.checkSeller(ctx, actor, item); err != nil {
		return nil, err
	}

	change, err := apply(o)
	if err != nil {
		return nil, err
	}
	if err := s.orderRepo.UpdateItem(ctx, *change); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.publish(ctx, o)
	s.logger.Info("order item updated",
		zap.String("order_id", orderID.String()),
		zap.String("item_id", itemID.String()),
		zap.String("status", change.Item.Status.String()),
		zap.String("actor_id", actor.ID.String()),
	)

	response := toItemResponse(&change.Item)
	return &response, nil
}

// checkSeller allows vendors to touch only Product items they sold
func (s *FulfillmentService) checkSeller(ctx context.Context, actor identity.Principal, item *order.OrderItem) error {
	if actor.IsAdmin() {
		return nil
	}
	if item.ItemType != order.ItemTypeProduct {
		return shared.ErrForbidden
	}
	product, err := s.productRepo.FindByID(ctx, item.ItemID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.ErrForbidden
		}
		return err
	}
	if !product.IsOwnedBy(actor.ID) {
		return shared.ErrForbidden
	}
	return nil
}

func (s *FulfillmentService) publish(ctx context.Context, o *order.Order) {
	defer o.ClearDomainEvents()
	if s.eventPublisher == nil {
		return
	}
	for _, event := range o.GetDomainEvents() {
		if err := s.eventPublisher.Publish(ctx, event); err != nil {
			s.logger.Warn("failed to publish order event",
				zap.String("event_type", event.EventType()),
				zap.String("order_id", o.ID.String()),
				zap.Error(err),
			)
		}
	}
}
