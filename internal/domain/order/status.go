package order

import (
	"strings"

	"github.com/safarhub/backend/internal/domain/shared"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Status is the fulfillment status of an order or of a single order item
type Status string

const (
	StatusPending    Status = "Pending"
	StatusProcessing Status = "Processing"
	StatusShipped    Status = "Shipped"
	StatusDelivered  Status = "Delivered"
	StatusCancelled  Status = "Cancelled"
	// StatusPlaced is the legacy default written by older checkouts.
	// It is never returned from a read path.
	StatusPlaced Status = "Placed"
)

// IsValid checks if the status is part of the stored domain
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled, StatusPlaced:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsTerminal returns true for statuses that admit no further transition
func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanTransitionTo checks if an item in status s may move to target.
// s is expected to be normalized.
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusPending:
		return target == StatusProcessing || target == StatusCancelled
	case StatusProcessing:
		return target == StatusShipped || target == StatusCancelled
	case StatusShipped:
		return target == StatusDelivered
	case StatusDelivered, StatusCancelled:
		return false
	}
	return false
}

// NormalizeStatus maps "Placed" and missing values to Pending.
// Every other value passes through unchanged.
func NormalizeStatus(s Status) Status {
	if s == "" || s == StatusPlaced {
		return StatusPending
	}
	return s
}

// EffectiveStatus resolves the status shown for an item: the item's own
// status when present, otherwise the order-level status. Both are normalized.
func EffectiveStatus(itemStatus, orderStatus Status) Status {
	if itemStatus != "" {
		return NormalizeStatus(itemStatus)
	}
	return NormalizeStatus(orderStatus)
}

// ParseStatus case-normalizes client input ("shipped", "SHIPPED") to the
// stored form ("Shipped") and validates it. "placed" parses as Pending.
func ParseStatus(input string) (Status, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", shared.NewDomainError("INVALID_STATUS", "Status cannot be empty")
	}
	s := Status(cases.Title(language.Und).String(trimmed))
	if !s.IsValid() {
		return "", shared.NewDomainError("INVALID_STATUS", "Unknown order status: "+input)
	}
	return NormalizeStatus(s), nil
}
