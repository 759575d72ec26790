package ledger

import (
	"github.com/google/uuid"
	"github.com/safarhub/backend/internal/domain/identity"
	"github.com/safarhub/backend/internal/domain/shared"
)

// ScopeVendor resolves which vendor's records a principal may list.
// Admins get the requested vendor (nil means all). Vendors are always
// pinned to themselves whatever they asked for. Anyone else is forbidden.
func ScopeVendor(actor identity.Principal, requested *uuid.UUID) (*uuid.UUID, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	switch {
	case actor.IsAdmin():
		return requested, nil
	case actor.IsVendor():
		own := actor.ID
		return &own, nil
	}
	return nil, shared.ErrForbidden
}

// CanView reports whether the principal may read a record owned by vendorID
func CanView(actor identity.Principal, vendorID uuid.UUID) bool {
	return actor.IsAdmin() || (actor.IsVendor() && actor.ID == vendorID)
}
