// Package identity holds the caller identity model and buyer profiles.
package identity

import (
	"strings"

	"github.com/google/uuid"
	"github.com/safarhub/backend/internal/domain/shared"
)

// AccountType is the role claim carried by every verified principal
type AccountType string

const (
	AccountTypeUser   AccountType = "user"
	AccountTypeVendor AccountType = "vendor"
	AccountTypeAdmin  AccountType = "admin"
)

// IsValid checks if the account type is recognized
func (t AccountType) IsValid() bool {
	switch t {
	case AccountTypeUser, AccountTypeVendor, AccountTypeAdmin:
		return true
	}
	return false
}

// String returns the string representation
func (t AccountType) String() string {
	return string(t)
}

// ParseAccountType parses a case-insensitive account type
func ParseAccountType(s string) (AccountType, error) {
	t := AccountType(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", shared.NewDomainError("INVALID_ACCOUNT_TYPE", "Account type must be one of user, vendor, admin")
	}
	return t, nil
}

// Principal is the verified caller of a command or query
type Principal struct {
	ID          uuid.UUID
	AccountType AccountType
	Email       string
}

// IsAdmin reports whether the principal has the admin role
func (p Principal) IsAdmin() bool {
	return p.AccountType == AccountTypeAdmin
}

// IsVendor reports whether the principal has the vendor role
func (p Principal) IsVendor() bool {
	return p.AccountType == AccountTypeVendor
}

// Validate rejects principals that could not have come from a verified token
func (p Principal) Validate() error {
	if p.ID == uuid.Nil || !p.AccountType.IsValid() {
		return shared.ErrUnauthorized
	}
	return nil
}

// RequireAdmin returns Forbidden unless the principal is an admin
func (p Principal) RequireAdmin() error {
	if err := p.Validate(); err != nil {
		return err
	}
	if !p.IsAdmin() {
		return shared.ErrForbidden
	}
	return nil
}

// RequireVendor returns Forbidden unless the principal is a vendor
func (p Principal) RequireVendor() error {
	if err := p.Validate(); err != nil {
		return err
	}
	if !p.IsVendor() {
		return shared.ErrForbidden
	}
	return nil
}

// RequireAny returns Forbidden unless the principal has one of the given types
func (p Principal) RequireAny(types ...AccountType) error {
	if err := p.Validate(); err != nil {
		return err
	}
	for _, t := range types {
		if p.AccountType == t {
			return nil
		}
	}
	return shared.ErrForbidden
}
