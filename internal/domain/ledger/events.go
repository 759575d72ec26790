package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/safarhub/backend/internal/domain/shared"
)

// Aggregate type names
const (
	AggregateTypeSettlement  = "Settlement"
	AggregateTypeTransaction = "Transaction"
)

// Event type constants for the ledger
const (
	EventTypeSettlementCreated        = "SettlementCreated"
	EventTypeSettlementStatusChanged  = "SettlementStatusChanged"
	EventTypeTransactionCreated       = "TransactionCreated"
	EventTypeTransactionStatusChanged = "TransactionStatusChanged"
)

// SettlementCreatedEvent is raised when a completed booking produces a settlement
type SettlementCreatedEvent struct {
	shared.BaseDomainEvent
	SettlementID  uuid.UUID       `json:"settlement_id"`
	BookingID     uuid.UUID       `json:"booking_id"`
	VendorID      uuid.UUID       `json:"vendor_id"`
	AmountDue     decimal.Decimal `json:"amount_due"`
	ScheduledDate time.Time       `json:"scheduled_date"`
}

// NewSettlementCreatedEvent creates a SettlementCreated event
func NewSettlementCreatedEvent(s *Settlement) *SettlementCreatedEvent {
	return &SettlementCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSettlementCreated, AggregateTypeSettlement, s.ID),
		SettlementID:    s.ID,
		BookingID:       s.BookingID,
		VendorID:        s.VendorID,
		AmountDue:       s.AmountDue,
		ScheduledDate:   s.ScheduledDate,
	}
}

// SettlementStatusChangedEvent is raised on every settlement status move
type SettlementStatusChangedEvent struct {
	shared.BaseDomainEvent
	SettlementID uuid.UUID       `json:"settlement_id"`
	BookingID    uuid.UUID       `json:"booking_id"`
	VendorID     uuid.UUID       `json:"vendor_id"`
	OldStatus    Status          `json:"old_status"`
	NewStatus    Status          `json:"new_status"`
	AmountPaid   decimal.Decimal `json:"amount_paid"`
	PaidAt       *time.Time      `json:"paid_at,omitempty"`
}

// NewSettlementStatusChangedEvent creates a SettlementStatusChanged event
func NewSettlementStatusChangedEvent(s *Settlement, old Status) *SettlementStatusChangedEvent {
	return &SettlementStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSettlementStatusChanged, AggregateTypeSettlement, s.ID),
		SettlementID:    s.ID,
		BookingID:       s.BookingID,
		VendorID:        s.VendorID,
		OldStatus:       old,
		NewStatus:       s.Status,
		AmountPaid:      s.AmountPaid,
		PaidAt:          s.PaidAt,
	}
}

// TransactionCreatedEvent is raised when an admin schedules a payout
type TransactionCreatedEvent struct {
	shared.BaseDomainEvent
	TransactionID uuid.UUID       `json:"transaction_id"`
	VendorID      uuid.UUID       `json:"vendor_id"`
	Message       string          `json:"message"`
	Amount        decimal.Decimal `json:"amount"`
	ScheduledDate time.Time       `json:"scheduled_date"`
}

// NewTransactionCreatedEvent creates a TransactionCreated event
func NewTransactionCreatedEvent(t *Transaction) *TransactionCreatedEvent {
	return &TransactionCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTransactionCreated, AggregateTypeTransaction, t.ID),
		TransactionID:   t.ID,
		VendorID:        t.VendorID,
		Message:         t.Message,
		Amount:          t.Amount,
		ScheduledDate:   t.ScheduledDate,
	}
}

// TransactionStatusChangedEvent is raised on every transaction status move
type TransactionStatusChangedEvent struct {
	shared.BaseDomainEvent
	TransactionID uuid.UUID       `json:"transaction_id"`
	VendorID      uuid.UUID       `json:"vendor_id"`
	OldStatus     Status          `json:"old_status"`
	NewStatus     Status          `json:"new_status"`
	Amount        decimal.Decimal `json:"amount"`
	CompletedAt   *time.Time      `json:"completed_at,omitempty"`
}

// NewTransactionStatusChangedEvent creates a TransactionStatusChanged event
func NewTransactionStatusChangedEvent(t *Transaction, old Status) *TransactionStatusChangedEvent {
	return &TransactionStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTransactionStatusChanged, AggregateTypeTransaction, t.ID),
		TransactionID:   t.ID,
		VendorID:        t.VendorID,
		OldStatus:       old,
		NewStatus:       t.Status,
		Amount:          t.Amount,
		CompletedAt:     t.CompletedAt,
	}
}
