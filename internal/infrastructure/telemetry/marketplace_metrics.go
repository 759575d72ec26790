package telemetry

import (
	"context"
	"time"

	"github.com/safarhub/backend/internal/domain/ledger"
	"github.com/safarhub/backend/internal/domain/order"
	"github.com/safarhub/backend/internal/domain/shared"
	"github.com/safarhub/backend/internal/domain/vendor"
	"go.opentelemetry.io/otel/metric"
)

// MarketplaceMetrics holds the business counters of the marketplace core.
// It records state transitions by listening on the event bus, and coupon and
// listing activity through direct calls from the application services.
type MarketplaceMetrics struct {
	vendorTransitions *Counter
	ledgerTransitions *Counter
	itemUpdates       *Counter
	couponEvaluations *Counter
	listingQueries    *Counter
	visibleVendors    *Gauge
	summaryDuration   *Histogram
}

// NewMarketplaceMetrics registers the marketplace instruments on meter
func NewMarketplaceMetrics(meter metric.Meter) (*MarketplaceMetrics, error) {
	var (
		m   MarketplaceMetrics
		err error
	)
	if m.vendorTransitions, err = NewCounter(meter, "safar_vendor_transitions_total",
		"Vendor visibility gate transitions by action", "{transition}"); err != nil {
		return nil, err
	}
	if m.ledgerTransitions, err = NewCounter(meter, "safar_ledger_transitions_total",
		"Settlement and transaction status changes", "{transition}"); err != nil {
		return nil, err
	}
	if m.itemUpdates, err = NewCounter(meter, "safar_order_item_updates_total",
		"Vendor updates to order items by resulting status", "{update}"); err != nil {
		return nil, err
	}
	if m.couponEvaluations, err = NewCounter(meter, "safar_coupon_evaluations_total",
		"Coupon evaluations by outcome", "{evaluation}"); err != nil {
		return nil, err
	}
	if m.listingQueries, err = NewCounter(meter, "safar_listing_queries_total",
		"Public listing queries by kind", "{query}"); err != nil {
		return nil, err
	}
	if m.visibleVendors, err = NewGauge(meter, "safar_visible_vendors",
		"Vendors currently passing the visibility gate", "{vendor}"); err != nil {
		return nil, err
	}
	if m.summaryDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "safar_vendor_order_summary_duration_seconds",
		Description: "Time to aggregate a vendor's order summary",
		Unit:        "s",
		Boundaries:  DBDurationBuckets,
	}); err != nil {
		return nil, err
	}
	return &m, nil
}

// RecordCouponEvaluation counts one coupon evaluation. result is "applied" or
// the rejection code.
func (m *MarketplaceMetrics) RecordCouponEvaluation(ctx context.Context, result string) {
	if m == nil {
		return
	}
	m.couponEvaluations.Inc(ctx, AttrCouponResult.String(result))
}

// RecordListingQuery counts a gated listing query and the size of the visible set it used
func (m *MarketplaceMetrics) RecordListingQuery(ctx context.Context, kind string, visibleVendors int) {
	if m == nil {
		return
	}
	m.listingQueries.Inc(ctx, AttrListingKind.String(kind))
	m.visibleVendors.Record(ctx, int64(visibleVendors))
}

// RecordSummaryDuration records how long a vendor order summary took
func (m *MarketplaceMetrics) RecordSummaryDuration(ctx context.Context, d time.Duration) {
	if m == nil {
		return
	}
	m.summaryDuration.RecordDuration(ctx, d)
}

// EventTypes returns the events counted by Handle
func (m *MarketplaceMetrics) EventTypes() []string {
	types := append([]string{}, vendor.VisibilityEventTypes...)
	return append(types,
		ledger.EventTypeSettlementStatusChanged,
		ledger.EventTypeTransactionStatusChanged,
		order.EventTypeOrderItemStatusChanged,
		order.EventTypeOrderItemCancelled,
	)
}

// Handle counts a domain event
func (m *MarketplaceMetrics) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *vendor.VendorStatusChangedEvent, *vendor.VendorDeletedEvent:
		m.vendorTransitions.Inc(ctx, AttrVendorAction.String(e.EventType()))
	case *ledger.SettlementStatusChangedEvent:
		m.ledgerTransitions.Inc(ctx,
			AttrRecordKind.String(ledger.AggregateTypeSettlement),
			AttrFromStatus.String(string(e.OldStatus)),
			AttrToStatus.String(string(e.NewStatus)),
		)
	case *ledger.TransactionStatusChangedEvent:
		m.ledgerTransitions.Inc(ctx,
			AttrRecordKind.String(ledger.AggregateTypeTransaction),
			AttrFromStatus.String(string(e.OldStatus)),
			AttrToStatus.String(string(e.NewStatus)),
		)
	case *order.OrderItemStatusChangedEvent:
		m.itemUpdates.Inc(ctx, AttrItemStatus.String(string(e.NewStatus)))
	case *order.OrderItemCancelledEvent:
		m.itemUpdates.Inc(ctx, AttrItemStatus.String(string(order.StatusCancelled)))
	}
	return nil
}
