package ledger

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/safarhub/backend/internal/domain/identity"
	"github.com/safarhub/backend/internal/domain/shared"
)

// BookingCompleted is what the booking process reports when a stay is
// completed and the vendor is owed money
type BookingCompleted struct {
	BookingID     uuid.UUID       `json:"bookingId"`
	StayID        uuid.UUID       `json:"stayId"`
	VendorID      uuid.UUID       `json:"vendorId"`
	AmountDue     decimal.Decimal `json:"amountDue"`
	ScheduledDate time.Time       `json:"scheduledDate"`
	CompletedAt   time.Time       `json:"completedAt"`
}

// Validate checks the payload before a settlement is derived from it
func (b BookingCompleted) Validate() error {
	if b.BookingID == uuid.Nil {
		return shared.NewDomainError("INVALID_BOOKING", "Booking ID is required")
	}
	if b.StayID == uuid.Nil {
		return shared.NewDomainError("INVALID_STAY", "Stay ID is required")
	}
	if b.VendorID == uuid.Nil {
		return shared.NewDomainError("INVALID_VENDOR", "Vendor ID is required")
	}
	if b.AmountDue.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "Amount due cannot be negative")
	}
	if b.ScheduledDate.IsZero() {
		return shared.NewDomainError("INVALID_SCHEDULED_DATE", "Scheduled date is required")
	}
	return nil
}

// Settlement is the money owed to a vendor for one completed booking
type Settlement struct {
	shared.BaseAggregateRoot
	BookingID     uuid.UUID
	StayID        uuid.UUID
	VendorID      uuid.UUID
	AmountDue     decimal.Decimal
	AmountPaid    decimal.Decimal
	Status        Status
	ScheduledDate time.Time
	PaidAt        *time.Time
	Notes         string
}

// NewSettlementFromBooking derives a pending settlement from a completed booking
func NewSettlementFromBooking(b BookingCompleted) (*Settlement, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	s := &Settlement{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		BookingID:         b.BookingID,
		StayID:            b.StayID,
		VendorID:          b.VendorID,
		AmountDue:         b.AmountDue,
		AmountPaid:        decimal.Zero,
		Status:            StatusPending,
		ScheduledDate:     b.ScheduledDate,
	}
	s.AddDomainEvent(NewSettlementCreatedEvent(s))
	return s, nil
}

// TransitionTo moves the settlement along the payout lifecycle.
// PaidAt is stamped exactly when the settlement enters paid.
func (s *Settlement) TransitionTo(target Status) error {
	if err := settlementLifecycle.check(s.Status, target); err != nil {
		return err
	}

	now := time.Now()
	old := s.Status
	s.Status = target
	if target == StatusPaid {
		s.PaidAt = &now
	}
	s.UpdatedAt = now
	s.IncrementVersion()

	s.AddDomainEvent(NewSettlementStatusChangedEvent(s, old))
	return nil
}

// SettlementUpdate holds the optional fields of a settlement edit
type SettlementUpdate struct {
	Status        *Status
	AmountPaid    *decimal.Decimal
	ScheduledDate *time.Time
	Notes         *string
}

// IsEmpty reports whether the update changes nothing
func (u SettlementUpdate) IsEmpty() bool {
	return u.Status == nil && u.AmountPaid == nil && u.ScheduledDate == nil && u.Notes == nil
}

// Apply edits the settlement on behalf of actor. Vendors may only annotate
// their own settlements; status, amountPaid and scheduledDate are admin only.
func (s *Settlement) Apply(u SettlementUpdate, actor identity.Principal) error {
	if err := actor.Validate(); err != nil {
		return err
	}
	if u.IsEmpty() {
		return shared.ErrNoFieldsToUpdate
	}
	if !CanView(actor, s.VendorID) {
		return shared.ErrForbidden
	}
	if !actor.IsAdmin() && (u.Status != nil || u.AmountPaid != nil || u.ScheduledDate != nil) {
		return shared.ErrForbidden
	}
	if u.AmountPaid != nil && u.AmountPaid.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "Amount paid cannot be negative")
	}
	if u.Notes != nil && len(strings.TrimSpace(*u.Notes)) > 1000 {
		return shared.NewDomainError("INVALID_NOTES", "Notes cannot exceed 1000 characters")
	}
	if u.Status != nil && s.Status.IsTerminal() {
		return ErrTerminalState
	}

	// One edit bumps the version once, even with a status change
	transitioned := false
	if u.Status != nil && *u.Status != s.Status {
		if err := s.TransitionTo(*u.Status); err != nil {
			return err
		}
		transitioned = true
	}

	changed := false
	if u.AmountPaid != nil {
		s.AmountPaid = *u.AmountPaid
		changed = true
	}
	if u.ScheduledDate != nil {
		s.ScheduledDate = *u.ScheduledDate
		changed = true
	}
	if u.Notes != nil {
		s.Notes = strings.TrimSpace(*u.Notes)
		changed = true
	}
	switch {
	case !changed && !transitioned:
		// status already current and nothing else to write
		return shared.ErrNoFieldsToUpdate
	case changed && !transitioned:
		s.UpdatedAt = time.Now()
		s.IncrementVersion()
	}
	return nil
}

// Outstanding is the amount still owed
func (s *Settlement) Outstanding() decimal.Decimal {
	rest := s.AmountDue.Sub(s.AmountPaid)
	if rest.IsNegative() {
		return decimal.Zero
	}
	return rest
}
