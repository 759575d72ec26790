package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/safarhub/backend/internal/domain/ledger"
	"github.com/shopspring/decimal"
)

// LedgerQuery filters settlement and transaction listings. VendorID is
// honoured for admins only; vendors always see their own records.
type LedgerQuery struct {
	VendorID *uuid.UUID `form:"vendorId"`
	Status   string     `form:"status"`
	From     *time.Time `form:"from" time_format:"2006-01-02"`
	To       *time.Time `form:"to" time_format:"2006-01-02"`
	Page     int        `form:"page" binding:"omitempty,min=1"`
	PageSize int        `form:"pageSize" binding:"omitempty,min=1,max=100"`
	OrderBy  string     `form:"orderBy"`
	OrderDir string     `form:"orderDir" binding:"omitempty,oneof=asc desc"`
}

// UpdateSettlementRequest edits a settlement; omitted fields are left as is
type UpdateSettlementRequest struct {
	Status        *string          `json:"status"`
	AmountPaid    *decimal.Decimal `json:"amountPaid"`
	ScheduledDate *time.Time       `json:"scheduledDate"`
	Notes         *string          `json:"notes" binding:"omitempty,max=1000"`
}

// CreateTransactionRequest schedules a payout to a vendor
type CreateTransactionRequest struct {
	VendorID      uuid.UUID       `json:"vendorId" binding:"required"`
	Message       string          `json:"message" binding:"required,min=1,max=1000"`
	Amount        decimal.Decimal `json:"amount"`
	ScheduledDate time.Time       `json:"scheduledDate" binding:"required"`
}

// UpdateTransactionRequest edits a payout; omitted fields are left as is
type UpdateTransactionRequest struct {
	Status        *string          `json:"status"`
	Message       *string          `json:"message" binding:"omitempty,max=1000"`
	Amount        *decimal.Decimal `json:"amount"`
	ScheduledDate *time.Time       `json:"scheduledDate"`
}

// SettlementResponse represents a settlement in API responses
type SettlementResponse struct {
	ID            uuid.UUID       `json:"id"`
	BookingID     uuid.UUID       `json:"bookingId"`
	StayID        uuid.UUID       `json:"stayId"`
	VendorID      uuid.UUID       `json:"vendorId"`
	AmountDue     decimal.Decimal `json:"amountDue"`
	AmountPaid    decimal.Decimal `json:"amountPaid"`
	Outstanding   decimal.Decimal `json:"outstanding"`
	Status        string          `json:"status"`
	ScheduledDate time.Time       `json:"scheduledDate"`
	PaidAt        *time.Time      `json:"paidAt,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
	Version       int             `json:"version"`
}

// ToSettlementResponse converts a settlement to its response
func ToSettlementResponse(s *ledger.Settlement) SettlementResponse {
	return SettlementResponse{
		ID:            s.ID,
		BookingID:     s.BookingID,
		StayID:        s.StayID,
		VendorID:      s.VendorID,
		AmountDue:     s.AmountDue,
		AmountPaid:    s.AmountPaid,
		Outstanding:   s.Outstanding(),
		Status:        s.Status.String(),
		ScheduledDate: s.ScheduledDate,
		PaidAt:        s.PaidAt,
		Notes:         s.Notes,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
		Version:       s.GetVersion(),
	}
}

// TransactionResponse represents a payout transaction in API responses
type TransactionResponse struct {
	ID            uuid.UUID       `json:"id"`
	VendorID      uuid.UUID       `json:"vendorId"`
	CreatedBy     uuid.UUID       `json:"createdBy"`
	Message       string          `json:"message"`
	Amount        decimal.Decimal `json:"amount"`
	Status        string          `json:"status"`
	ScheduledDate time.Time       `json:"scheduledDate"`
	CompletedAt   *time.Time      `json:"completedAt,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
	Version       int             `json:"version"`
}

// ToTransactionResponse converts a transaction to its response
func ToTransactionResponse(t *ledger.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:            t.ID,
		VendorID:      t.VendorID,
		CreatedBy:     t.CreatedBy,
		Message:       t.Message,
		Amount:        t.Amount,
		Status:        t.Status.String(),
		ScheduledDate: t.ScheduledDate,
		CompletedAt:   t.CompletedAt,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
		Version:       t.GetVersion(),
	}
}

// StatementResponse describes an exported settlement statement. When object
// storage is configured URL points at the stored file; otherwise Content
// carries the CSV itself.
type StatementResponse struct {
	FileName  string     `json:"fileName"`
	Rows      int        `json:"rows"`
	URL       string     `json:"url,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	Content   []byte     `json:"-"`
}
