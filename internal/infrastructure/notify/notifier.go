package notify

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/safarhub/backend/internal/domain/identity"
	"github.com/safarhub/backend/internal/domain/ledger"
	"github.com/safarhub/backend/internal/domain/order"
	"github.com/safarhub/backend/internal/domain/shared"
	"github.com/safarhub/backend/internal/domain/support"
	"github.com/safarhub/backend/internal/domain/vendor"
	"go.uber.org/zap"
)

// Email kinds
const (
	KindVendorStatus       = "vendor_status"
	KindSettlementPaid     = "settlement_paid"
	KindTransactionCreated = "transaction_created"
	KindTransactionDone    = "transaction_completed"
	KindSupportReceived    = "support_received"
	KindSupportReply       = "support_reply"
	KindItemStatus         = "order_item_status"
	KindItemCancelled      = "order_item_cancelled"
)

// VendorDirectory resolves a vendor's contact address
type VendorDirectory interface {
	FindByID(ctx context.Context, id uuid.UUID) (*vendor.Vendor, error)
}

// BuyerDirectory resolves a buyer's contact address
type BuyerDirectory interface {
	FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error)
}

// EmailNotifier turns domain events into emails. Delivery is best effort:
// failures are logged at Warn and never returned to the bus.
type EmailNotifier struct {
	mailer     Mailer
	vendors    VendorDirectory
	buyers     BuyerDirectory
	adminEmail string
	logger     *zap.Logger
}

// NewEmailNotifier creates an EmailNotifier. adminEmail may be empty, in
// which case new support messages are not forwarded.
func NewEmailNotifier(mailer Mailer, vendors VendorDirectory, buyers BuyerDirectory, adminEmail string, logger *zap.Logger) *EmailNotifier {
	return &EmailNotifier{
		mailer:     mailer,
		vendors:    vendors,
		buyers:     buyers,
		adminEmail: adminEmail,
		logger:     logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (n *EmailNotifier) EventTypes() []string {
	return []string{
		vendor.EventTypeVendorApproved,
		vendor.EventTypeVendorRejected,
		vendor.EventTypeVendorLocked,
		vendor.EventTypeVendorUnlocked,
		ledger.EventTypeSettlementStatusChanged,
		ledger.EventTypeTransactionCreated,
		ledger.EventTypeTransactionStatusChanged,
		support.EventTypeMessageReceived,
		support.EventTypeMessageReplied,
		order.EventTypeOrderItemStatusChanged,
		order.EventTypeOrderItemCancelled,
	}
}

// Handle builds and sends the email for an event
func (n *EmailNotifier) Handle(ctx context.Context, event shared.DomainEvent) error {
	email, ok, err := n.compose(ctx, event)
	if err == nil && ok {
		err = n.mailer.Send(ctx, email)
	}
	if err != nil {
		n.logger.Warn("notification not sent",
			zap.String("event_type", event.EventType()),
			zap.String("aggregate_id", event.AggregateID().String()),
			zap.Error(err),
		)
	}
	return nil
}

// compose returns ok=false for events that need no email
func (n *EmailNotifier) compose(ctx context.Context, event shared.DomainEvent) (Email, bool, error) {
	switch e := event.(type) {
	case *vendor.VendorStatusChangedEvent:
		return Email{
			Kind:    KindVendorStatus,
			To:      e.Email,
			Subject: vendorSubject(e.EventType()),
			Body:    fmt.Sprintf("Hello %s, your vendor account is now %s.", e.Name, vendorState(e)),
		}, true, nil

	case *ledger.SettlementStatusChangedEvent:
		if e.NewStatus != ledger.StatusPaid {
			return Email{}, false, nil
		}
		to, err := n.vendorEmail(ctx, e.VendorID)
		if err != nil {
			return Email{}, false, err
		}
		return Email{
			Kind:    KindSettlementPaid,
			To:      to,
			Subject: "Settlement paid",
			Body:    fmt.Sprintf("Settlement %s for booking %s was paid: %s.", e.SettlementID, e.BookingID, e.AmountPaid.StringFixed(2)),
		}, true, nil

	case *ledger.TransactionCreatedEvent:
		to, err := n.vendorEmail(ctx, e.VendorID)
		if err != nil {
			return Email{}, false, err
		}
		return Email{
			Kind:    KindTransactionCreated,
			To:      to,
			Subject: "Payout scheduled",
			Body:    fmt.Sprintf("A payout of %s is scheduled for %s. %s", e.Amount.StringFixed(2), e.ScheduledDate.Format("2006-01-02"), e.Message),
		}, true, nil

	case *ledger.TransactionStatusChangedEvent:
		if e.NewStatus != ledger.StatusCompleted {
			return Email{}, false, nil
		}
		to, err := n.vendorEmail(ctx, e.VendorID)
		if err != nil {
			return Email{}, false, err
		}
		return Email{
			Kind:    KindTransactionDone,
			To:      to,
			Subject: "Payout completed",
			Body:    fmt.Sprintf("Your payout of %s has been completed.", e.Amount.StringFixed(2)),
		}, true, nil

	case *support.MessageEvent:
		if e.EventType() == support.EventTypeMessageReplied {
			return Email{
				Kind:    KindSupportReply,
				To:      e.Email,
				Subject: "Re: " + e.Subject,
				Body:    e.Reply,
			}, true, nil
		}
		if n.adminEmail == "" {
			return Email{}, false, nil
		}
		return Email{
			Kind:    KindSupportReceived,
			To:      n.adminEmail,
			Subject: "New contact message: " + e.Subject,
			Body:    fmt.Sprintf("%s <%s> wrote in.", e.Name, e.Email),
		}, true, nil

	case *order.OrderItemStatusChangedEvent:
		to, err := n.buyerEmail(ctx, e.BuyerID)
		if err != nil {
			return Email{}, false, err
		}
		return Email{
			Kind:    KindItemStatus,
			To:      to,
			Subject: "Order update",
			Body:    fmt.Sprintf("An item in order %s is now %s.", e.OrderID, e.NewStatus),
		}, true, nil

	case *order.OrderItemCancelledEvent:
		to, err := n.buyerEmail(ctx, e.BuyerID)
		if err != nil {
			return Email{}, false, err
		}
		return Email{
			Kind:    KindItemCancelled,
			To:      to,
			Subject: "Item cancelled",
			Body:    fmt.Sprintf("An item in order %s was cancelled: %s", e.OrderID, e.Cancellation.Reason),
		}, true, nil
	}
	return Email{}, false, nil
}

func (n *EmailNotifier) vendorEmail(ctx context.Context, id uuid.UUID) (string, error) {
	v, err := n.vendors.FindByID(ctx, id)
	if err != nil {
		return "", fmt.Errorf("resolve vendor %s: %w", id, err)
	}
	return v.Email, nil
}

func (n *EmailNotifier) buyerEmail(ctx context.Context, id uuid.UUID) (string, error) {
	u, err := n.buyers.FindByID(ctx, id)
	if err != nil {
		return "", fmt.Errorf("resolve buyer %s: %w", id, err)
	}
	return u.Email, nil
}

func vendorSubject(eventType string) string {
	switch eventType {
	case vendor.EventTypeVendorApproved:
		return "Your vendor account was approved"
	case vendor.EventTypeVendorRejected:
		return "Your vendor account was not approved"
	case vendor.EventTypeVendorLocked:
		return "Your vendor account was locked"
	default:
		return "Your vendor account was unlocked"
	}
}

func vendorState(e *vendor.VendorStatusChangedEvent) string {
	switch {
	case e.IsLocked:
		return "locked"
	case e.IsApproved:
		return "approved and visible"
	default:
		return "pending approval"
	}
}

var _ shared.EventHandler = (*EmailNotifier)(nil)
