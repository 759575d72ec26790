package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/safarhub/backend/internal/domain/ledger"
	"github.com/safarhub/backend/internal/domain/shared"
	"github.com/safarhub/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// applyLedgerFilter narrows settlements or transactions by vendor, status
// and scheduled date window
func applyLedgerFilter(query *gorm.DB, filter ledger.LedgerFilter) *gorm.DB {
	if filter.VendorID != nil {
		query = query.Where("vendor_id = ?", *filter.VendorID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.From != nil {
		query = query.Where("scheduled_date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("scheduled_date <= ?", *filter.To)
	}
	return query
}

// GormSettlementRepository implements ledger.SettlementRepository using GORM
type GormSettlementRepository struct {
	conn *Connector
}

// NewGormSettlementRepository creates a new GormSettlementRepository
func NewGormSettlementRepository(conn *Connector) *GormSettlementRepository {
	return &GormSettlementRepository{conn: conn}
}

// FindByID finds a settlement by ID
func (r *GormSettlementRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Settlement, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByBookingID returns the settlement derived from a booking
func (r *GormSettlementRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*ledger.Settlement, error) {
	return r.findOne(ctx, "booking_id = ?", bookingID)
}

func (r *GormSettlementRepository) findOne(ctx context.Context, cond string, arg any) (*ledger.Settlement, error) {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return nil, err
	}
	var model models.SettlementModel
	if err := db.Where(cond, arg).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find settlement: %w", err)
	}
	return model.ToDomain(), nil
}

// FindAll lists settlements matching the filter with the total count
func (r *GormSettlementRepository) FindAll(ctx context.Context, filter ledger.LedgerFilter) ([]ledger.Settlement, int64, error) {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return nil, 0, err
	}
	query := applyLedgerFilter(db.Model(&models.SettlementModel{}), filter)

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count settlements: %w", err)
	}

	var rows []models.SettlementModel
	if err := applyPage(applyOrder(query, filter.Filter, SettlementSortFields, "scheduled_date"), filter.Filter).
		Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list settlements: %w", err)
	}
	settlements := make([]ledger.Settlement, len(rows))
	for i := range rows {
		settlements[i] = *rows[i].ToDomain()
	}
	return settlements, total, nil
}

// Create inserts a settlement. A second settlement for the same booking
// violates the unique index and fails with shared.ErrAlreadyExists.
func (r *GormSettlementRepository) Create(ctx context.Context, s *ledger.Settlement) error {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return err
	}
	if err := db.Create(models.SettlementModelFromDomain(s)).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return fmt.Errorf("failed to create settlement: %w", err)
	}
	return nil
}

// SaveWithLock saves a settlement with optimistic locking (version check).
// Status and paid_at are written in the same statement.
func (r *GormSettlementRepository) SaveWithLock(ctx context.Context, s *ledger.Settlement) error {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return err
	}
	model := models.SettlementModelFromDomain(s)
	result := db.Model(&models.SettlementModel{}).
		Where("id = ? AND version = ?", s.ID, s.Version-1).
		Select("*").
		Omit("id", "created_at", "booking_id", "stay_id", "vendor_id").
		Updates(model)
	if result.Error != nil {
		return fmt.Errorf("failed to save settlement: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("OPTIMISTIC_LOCK_ERROR", "The settlement record has been modified by another transaction")
	}
	return nil
}

// GormTransactionRepository implements ledger.TransactionRepository using GORM
type GormTransactionRepository struct {
	conn *Connector
}

// NewGormTransactionRepository creates a new GormTransactionRepository
func NewGormTransactionRepository(conn *Connector) *GormTransactionRepository {
	return &GormTransactionRepository{conn: conn}
}

// FindByID finds a payout transaction by ID
func (r *GormTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Transaction, error) {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return nil, err
	}
	var model models.TransactionModel
	if err := db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find transaction: %w", err)
	}
	return model.ToDomain(), nil
}

// FindAll lists payout transactions matching the filter with the total count
func (r *GormTransactionRepository) FindAll(ctx context.Context, filter ledger.LedgerFilter) ([]ledger.Transaction, int64, error) {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return nil, 0, err
	}
	query := applyLedgerFilter(db.Model(&models.TransactionModel{}), filter)

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	var rows []models.TransactionModel
	if err := applyPage(applyOrder(query, filter.Filter, TransactionSortFields, "scheduled_date"), filter.Filter).
		Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list transactions: %w", err)
	}
	transactions := make([]ledger.Transaction, len(rows))
	for i := range rows {
		transactions[i] = *rows[i].ToDomain()
	}
	return transactions, total, nil
}

// Create inserts a payout transaction
func (r *GormTransactionRepository) Create(ctx context.Context, t *ledger.Transaction) error {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return err
	}
	if err := db.Create(models.TransactionModelFromDomain(t)).Error; err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// SaveWithLock saves a payout transaction with optimistic locking (version check)
func (r *GormTransactionRepository) SaveWithLock(ctx context.Context, t *ledger.Transaction) error {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return err
	}
	model := models.TransactionModelFromDomain(t)
	result := db.Model(&models.TransactionModel{}).
		Where("id = ? AND version = ?", t.ID, t.Version-1).
		Select("*").
		Omit("id", "created_at", "vendor_id", "created_by").
		Updates(model)
	if result.Error != nil {
		return fmt.Errorf("failed to save transaction: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("OPTIMISTIC_LOCK_ERROR", "The transaction record has been modified by another transaction")
	}
	return nil
}
