// Package ledger tracks money owed to vendors: per-booking settlements and
// admin-initiated payout transactions. Both follow the same payout lifecycle
// and are independent of order and booking state.
package ledger

import (
	"strings"

	"github.com/safarhub/backend/internal/domain/shared"
)

// Status is a payout lifecycle state
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusPaid       Status = "paid"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// ErrInvalidTransition is returned for a move the lifecycle does not allow
var ErrInvalidTransition = shared.NewDomainError("INVALID_STATUS_TRANSITION", "Status transition is not allowed")

// ErrUnknownVendor is returned when a payout names a vendor that does not exist
var ErrUnknownVendor = shared.NewDomainError("INVALID_VENDOR", "Vendor does not exist")

// ErrTerminalState is returned when changing the status of a finished payout
var ErrTerminalState = shared.NewDomainError("TERMINAL_STATE", "Payout is already finalized")

// String returns the string representation
func (s Status) String() string {
	return string(s)
}

// IsTerminal reports whether no further status change is allowed
func (s Status) IsTerminal() bool {
	return s == StatusPaid || s == StatusCompleted || s == StatusCancelled
}

// lifecycle is the payout state machine parameterized by its success state
type lifecycle struct {
	success Status
}

var (
	settlementLifecycle  = lifecycle{success: StatusPaid}
	transactionLifecycle = lifecycle{success: StatusCompleted}
)

func (l lifecycle) valid(s Status) bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCancelled, l.success:
		return true
	}
	return false
}

func (l lifecycle) parse(input string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(input)))
	if !l.valid(s) {
		return "", shared.NewDomainError("INVALID_STATUS", "Invalid status: "+input)
	}
	return s, nil
}

// check validates from -> to. Pending may skip straight to the success state.
func (l lifecycle) check(from, to Status) error {
	if !l.valid(to) {
		return shared.NewDomainError("INVALID_STATUS", "Invalid status: "+string(to))
	}
	if from.IsTerminal() {
		return ErrTerminalState
	}
	switch {
	case from == StatusPending && (to == StatusProcessing || to == l.success || to == StatusCancelled):
		return nil
	case from == StatusProcessing && (to == l.success || to == StatusCancelled):
		return nil
	}
	return ErrInvalidTransition
}

// ParseSettlementStatus case-normalizes a settlement status
func ParseSettlementStatus(input string) (Status, error) {
	return settlementLifecycle.parse(input)
}

// ParseTransactionStatus case-normalizes a transaction status
func ParseTransactionStatus(input string) (Status, error) {
	return transactionLifecycle.parse(input)
}
