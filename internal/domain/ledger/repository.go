package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/safarhub/backend/internal/domain/shared"
)

// LedgerFilter narrows settlement and transaction listings
type LedgerFilter struct {
	shared.Filter
	VendorID *uuid.UUID
	Status   *Status
	From     *time.Time
	To       *time.Time
}

// SettlementRepository persists settlements
type SettlementRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Settlement, error)

	// FindByBookingID returns the settlement derived from a booking
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*Settlement, error)

	FindAll(ctx context.Context, filter LedgerFilter) ([]Settlement, int64, error)

	// Create inserts a settlement. A second settlement for the same booking
	// fails with shared.ErrAlreadyExists.
	Create(ctx context.Context, s *Settlement) error

	// SaveWithLock persists changes, failing if the version moved
	SaveWithLock(ctx context.Context, s *Settlement) error
}

// TransactionRepository persists payout transactions
type TransactionRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Transaction, error)
	FindAll(ctx context.Context, filter LedgerFilter) ([]Transaction, int64, error)
	Create(ctx context.Context, t *Transaction) error
	SaveWithLock(ctx context.Context, t *Transaction) error
}
