package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/safarhub/backend/internal/domain/identity"
	"github.com/safarhub/backend/internal/domain/ledger"
	"github.com/safarhub/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSettlement(t *testing.T, vendorID uuid.UUID, scheduled time.Time) *ledger.Settlement {
	t.Helper()
	s, err := ledger.NewSettlementFromBooking(ledger.BookingCompleted{
		BookingID:     uuid.New(),
		StayID:        uuid.New(),
		VendorID:      vendorID,
		AmountDue:     decimal.NewFromInt(5000),
		ScheduledDate: scheduled,
	})
	require.NoError(t, err)
	return s
}

func testAdmin() identity.Principal {
	return identity.Principal{ID: uuid.New(), AccountType: identity.AccountTypeAdmin, Email: "admin@example.com"}
}

func TestGormSettlementRepository_Create(t *testing.T) {
	conn := setupTestDB(t)
	repo := NewGormSettlementRepository(conn)
	ctx := context.Background()

	s := newTestSettlement(t, uuid.New(), time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Create(ctx, s))

	t.Run("found by booking", func(t *testing.T) {
		found, err := repo.FindByBookingID(ctx, s.BookingID)
		require.NoError(t, err)
		assert.Equal(t, s.ID, found.ID)
		assert.Equal(t, ledger.StatusPending, found.Status)
		assert.True(t, decimal.NewFromInt(5000).Equal(found.AmountDue))
		assert.True(t, found.AmountPaid.IsZero())
		assert.Nil(t, found.PaidAt)
	})

	t.Run("second settlement for the same booking", func(t *testing.T) {
		dup := newTestSettlement(t, s.VendorID, s.ScheduledDate)
		dup.BookingID = s.BookingID
		assert.ErrorIs(t, repo.Create(ctx, dup), shared.ErrAlreadyExists)
	})

	t.Run("unknown booking", func(t *testing.T) {
		_, err := repo.FindByBookingID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormSettlementRepository_FindAll(t *testing.T) {
	conn := setupTestDB(t)
	repo := NewGormSettlementRepository(conn)
	ctx := context.Background()

	vendorA := uuid.New()
	vendorB := uuid.New()
	march := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	april := time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC)

	first := newTestSettlement(t, vendorA, march)
	second := newTestSettlement(t, vendorA, april)
	third := newTestSettlement(t, vendorB, april)
	for _, s := range []*ledger.Settlement{first, second, third} {
		require.NoError(t, repo.Create(ctx, s))
	}

	t.Run("by vendor", func(t *testing.T) {
		rows, total, err := repo.FindAll(ctx, ledger.LedgerFilter{Filter: shared.DefaultFilter(), VendorID: &vendorA})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Len(t, rows, 2)
	})

	t.Run("by scheduled window", func(t *testing.T) {
		from := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2025, 4, 30, 0, 0, 0, 0, time.UTC)
		rows, total, err := repo.FindAll(ctx, ledger.LedgerFilter{Filter: shared.DefaultFilter(), From: &from, To: &to})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		for _, s := range rows {
			assert.NotEqual(t, first.ID, s.ID)
		}
	})

	t.Run("by status", func(t *testing.T) {
		require.NoError(t, second.TransitionTo(ledger.StatusProcessing))
		require.NoError(t, repo.SaveWithLock(ctx, second))

		status := ledger.StatusProcessing
		rows, total, err := repo.FindAll(ctx, ledger.LedgerFilter{Filter: shared.DefaultFilter(), Status: &status})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, second.ID, rows[0].ID)
	})
}

func TestGormSettlementRepository_SaveWithLock(t *testing.T) {
	conn := setupTestDB(t)
	repo := NewGormSettlementRepository(conn)
	ctx := context.Background()

	s := newTestSettlement(t, uuid.New(), time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Create(ctx, s))

	paid := ledger.StatusPaid
	amount := decimal.NewFromInt(5000)
	notes := "wired"
	require.NoError(t, s.Apply(ledger.SettlementUpdate{Status: &paid, AmountPaid: &amount, Notes: &notes}, testAdmin()))
	require.NoError(t, repo.SaveWithLock(ctx, s))

	found, err := repo.FindByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusPaid, found.Status)
	assert.NotNil(t, found.PaidAt)
	assert.True(t, amount.Equal(found.AmountPaid))
	assert.Equal(t, "wired", found.Notes)
	assert.Equal(t, 2, found.Version)

	// A copy still at the old version loses
	stale := newTestSettlement(t, s.VendorID, s.ScheduledDate)
	stale.ID = s.ID
	require.NoError(t, stale.TransitionTo(ledger.StatusCancelled))
	err = repo.SaveWithLock(ctx, stale)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "OPTIMISTIC_LOCK_ERROR", domainErr.Code)
}

func TestGormTransactionRepository(t *testing.T) {
	conn := setupTestDB(t)
	repo := NewGormTransactionRepository(conn)
	ctx := context.Background()

	admin := testAdmin()
	vendorID := uuid.New()
	tx, err := ledger.NewTransaction(ledger.NewTransactionInput{
		VendorID:      vendorID,
		Message:       "Quarterly bonus",
		Amount:        decimal.NewFromInt(1200),
		ScheduledDate: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}, admin)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, tx))

	t.Run("round trip", func(t *testing.T) {
		found, err := repo.FindByID(ctx, tx.ID)
		require.NoError(t, err)
		assert.Equal(t, admin.ID, found.CreatedBy)
		assert.Equal(t, "Quarterly bonus", found.Message)
		assert.Nil(t, found.CompletedAt)
	})

	t.Run("completion stamps completed_at", func(t *testing.T) {
		completed := ledger.StatusCompleted
		require.NoError(t, tx.Apply(ledger.TransactionUpdate{Status: &completed}, admin))
		require.NoError(t, repo.SaveWithLock(ctx, tx))

		found, err := repo.FindByID(ctx, tx.ID)
		require.NoError(t, err)
		assert.Equal(t, ledger.StatusCompleted, found.Status)
		assert.NotNil(t, found.CompletedAt)
	})

	t.Run("listing pinned to a vendor", func(t *testing.T) {
		other := uuid.New()
		rows, total, err := repo.FindAll(ctx, ledger.LedgerFilter{Filter: shared.DefaultFilter(), VendorID: &other})
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, rows)

		rows, total, err = repo.FindAll(ctx, ledger.LedgerFilter{Filter: shared.DefaultFilter(), VendorID: &vendorID})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, tx.ID, rows[0].ID)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
