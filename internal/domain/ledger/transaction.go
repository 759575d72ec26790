package ledger

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/safarhub/backend/internal/domain/identity"
	"github.com/safarhub/backend/internal/domain/shared"
)

// Transaction is an admin-initiated payout to a vendor, unrelated to any booking
type Transaction struct {
	shared.BaseAggregateRoot
	VendorID      uuid.UUID
	CreatedBy     uuid.UUID
	Message       string
	Amount        decimal.Decimal
	Status        Status
	ScheduledDate time.Time
	CompletedAt   *time.Time
}

// NewTransactionInput are the fields needed to schedule a payout
type NewTransactionInput struct {
	VendorID      uuid.UUID
	Message       string
	Amount        decimal.Decimal
	ScheduledDate time.Time
}

// NewTransaction schedules a pending payout. Only admins may create one.
func NewTransaction(in NewTransactionInput, actor identity.Principal) (*Transaction, error) {
	if err := actor.RequireAdmin(); err != nil {
		return nil, err
	}
	if in.VendorID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_VENDOR", "Vendor ID is required")
	}
	message := strings.TrimSpace(in.Message)
	if message == "" {
		return nil, shared.NewDomainError("INVALID_MESSAGE", "Message is required")
	}
	if len(message) > 1000 {
		return nil, shared.NewDomainError("INVALID_MESSAGE", "Message cannot exceed 1000 characters")
	}
	if in.Amount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Amount cannot be negative")
	}
	if in.ScheduledDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_SCHEDULED_DATE", "Scheduled date is required")
	}

	t := &Transaction{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		VendorID:          in.VendorID,
		CreatedBy:         actor.ID,
		Message:           message,
		Amount:            in.Amount,
		Status:            StatusPending,
		ScheduledDate:     in.ScheduledDate,
	}
	t.AddDomainEvent(NewTransactionCreatedEvent(t))
	return t, nil
}

// TransitionTo moves the payout along its lifecycle.
// CompletedAt is stamped exactly when the transaction enters completed.
func (t *Transaction) TransitionTo(target Status) error {
	if err := transactionLifecycle.check(t.Status, target); err != nil {
		return err
	}

	now := time.Now()
	old := t.Status
	t.Status = target
	if target == StatusCompleted {
		t.CompletedAt = &now
	}
	t.UpdatedAt = now
	t.IncrementVersion()

	t.AddDomainEvent(NewTransactionStatusChangedEvent(t, old))
	return nil
}

// TransactionUpdate holds the optional fields of a transaction edit
type TransactionUpdate struct {
	Status        *Status
	Message       *string
	Amount        *decimal.Decimal
	ScheduledDate *time.Time
}

// IsEmpty reports whether the update changes nothing
func (u TransactionUpdate) IsEmpty() bool {
	return u.Status == nil && u.Message == nil && u.Amount == nil && u.ScheduledDate == nil
}

// Apply edits the transaction. Admin only.
func (t *Transaction) Apply(u TransactionUpdate, actor identity.Principal) error {
	if err := actor.RequireAdmin(); err != nil {
		return err
	}
	if u.IsEmpty() {
		return shared.ErrNoFieldsToUpdate
	}
	if u.Message != nil && strings.TrimSpace(*u.Message) == "" {
		return shared.NewDomainError("INVALID_MESSAGE", "Message is required")
	}
	if u.Amount != nil && u.Amount.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "Amount cannot be negative")
	}
	if u.ScheduledDate != nil && u.ScheduledDate.IsZero() {
		return shared.NewDomainError("INVALID_SCHEDULED_DATE", "Scheduled date is required")
	}
	if (u.Status != nil || u.Amount != nil || u.ScheduledDate != nil) && t.Status.IsTerminal() {
		return ErrTerminalState
	}

	// One edit bumps the version once, even with a status change
	transitioned := false
	if u.Status != nil && *u.Status != t.Status {
		if err := t.TransitionTo(*u.Status); err != nil {
			return err
		}
		transitioned = true
	}

	changed := false
	if u.Message != nil {
		t.Message = strings.TrimSpace(*u.Message)
		changed = true
	}
	if u.Amount != nil {
		t.Amount = *u.Amount
		changed = true
	}
	if u.ScheduledDate != nil {
		t.ScheduledDate = *u.ScheduledDate
		changed = true
	}
	switch {
	case !changed && !transitioned:
		return shared.ErrNoFieldsToUpdate
	case changed && !transitioned:
		t.UpdatedAt = time.Now()
		t.IncrementVersion()
	}
	return nil
}
