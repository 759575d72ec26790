package identity

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/safarhub/backend/internal/domain/shared/valueobject"
)

// User is the read-only profile of a marketplace account.
// Vendor approval state lives on the vendor aggregate; this view only
// carries what fulfillment needs to contact a buyer.
type User struct {
	ID          uuid.UUID
	Name        string
	Email       string
	Phone       string
	AccountType AccountType
	Address     valueobject.Address
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// UserReader loads profiles for read models
type UserReader interface {
	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	// FindByIDs returns users keyed by ID; unknown IDs are absent from the map
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]User, error)
}
