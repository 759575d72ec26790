package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/safarhub/backend/internal/domain/ledger"
	"github.com/shopspring/decimal"
)

// SettlementModel is the persistence model for the Settlement aggregate root.
type SettlementModel struct {
	AggregateModel
	BookingID     uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	StayID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	VendorID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	AmountDue     decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	AmountPaid    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Status        ledger.Status   `gorm:"type:varchar(20);not null;default:'pending';index"`
	ScheduledDate time.Time       `gorm:"not null;index"`
	PaidAt        *time.Time
	Notes         string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (SettlementModel) TableName() string {
	return "settlements"
}

// ToDomain converts the persistence model to a domain Settlement
func (m *SettlementModel) ToDomain() *ledger.Settlement {
	return &ledger.Settlement{
		BaseAggregateRoot: m.ToAggregateRoot(),
		BookingID:         m.BookingID,
		StayID:            m.StayID,
		VendorID:          m.VendorID,
		AmountDue:         m.AmountDue,
		AmountPaid:        m.AmountPaid,
		Status:            m.Status,
		ScheduledDate:     m.ScheduledDate,
		PaidAt:            m.PaidAt,
		Notes:             m.Notes,
	}
}

// SettlementModelFromDomain creates a persistence model from a domain Settlement
func SettlementModelFromDomain(s *ledger.Settlement) *SettlementModel {
	m := &SettlementModel{
		BookingID:     s.BookingID,
		StayID:        s.StayID,
		VendorID:      s.VendorID,
		AmountDue:     s.AmountDue,
		AmountPaid:    s.AmountPaid,
		Status:        s.Status,
		ScheduledDate: s.ScheduledDate,
		PaidAt:        s.PaidAt,
		Notes:         s.Notes,
	}
	m.FromDomainAggregateRoot(s.BaseAggregateRoot)
	return m
}

// TransactionModel is the persistence model for payout transactions.
type TransactionModel struct {
	AggregateModel
	VendorID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	CreatedBy     uuid.UUID       `gorm:"type:uuid;not null"`
	Message       string          `gorm:"type:text;not null"`
	Amount        decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Status        ledger.Status   `gorm:"type:varchar(20);not null;default:'pending';index"`
	ScheduledDate time.Time       `gorm:"not null;index"`
	CompletedAt   *time.Time
}

// TableName returns the table name for GORM
func (TransactionModel) TableName() string {
	return "transactions"
}

// ToDomain converts the persistence model to a domain Transaction
func (m *TransactionModel) ToDomain() *ledger.Transaction {
	return &ledger.Transaction{
		BaseAggregateRoot: m.ToAggregateRoot(),
		VendorID:          m.VendorID,
		CreatedBy:         m.CreatedBy,
		Message:           m.Message,
		Amount:            m.Amount,
		Status:            m.Status,
		ScheduledDate:     m.ScheduledDate,
		CompletedAt:       m.CompletedAt,
	}
}

// TransactionModelFromDomain creates a persistence model from a domain Transaction
func TransactionModelFromDomain(t *ledger.Transaction) *TransactionModel {
	m := &TransactionModel{
		VendorID:      t.VendorID,
		CreatedBy:     t.CreatedBy,
		Message:       t.Message,
		Amount:        t.Amount,
		Status:        t.Status,
		ScheduledDate: t.ScheduledDate,
		CompletedAt:   t.CompletedAt,
	}
	m.FromDomainAggregateRoot(t.BaseAggregateRoot)
	return m
}
