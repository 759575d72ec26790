package ledger

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/safarhub/backend/internal/domain/identity"
	"github.com/safarhub/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func admin() identity.Principal {
	return identity.Principal{ID: uuid.New(), AccountType: identity.AccountTypeAdmin, Email: "ops@example.com"}
}

func vendorPrincipal(id uuid.UUID) identity.Principal {
	return identity.Principal{ID: id, AccountType: identity.AccountTypeVendor, Email: "v@example.com"}
}

func statusPtr(s Status) *Status { return &s }

func newSettlement(t *testing.T) *Settlement {
	t.Helper()
	s, err := NewSettlementFromBooking(BookingCompleted{
		BookingID:     uuid.New(),
		StayID:        uuid.New(),
		VendorID:      uuid.New(),
		AmountDue:     decimal.NewFromInt(4200),
		ScheduledDate: time.Now().Add(72 * time.Hour),
		CompletedAt:   time.Now(),
	})
	require.NoError(t, err)
	return s
}

func newTransaction(t *testing.T) *Transaction {
	t.Helper()
	tx, err := NewTransaction(NewTransactionInput{
		VendorID:      uuid.New(),
		Message:       " March bonus ",
		Amount:        decimal.NewFromInt(500),
		ScheduledDate: time.Now().Add(24 * time.Hour),
	}, admin())
	require.NoError(t, err)
	return tx
}

func TestNewSettlementFromBooking(t *testing.T) {
	s := newSettlement(t)
	assert.Equal(t, StatusPending, s.Status)
	assert.True(t, s.AmountPaid.IsZero())
	assert.Nil(t, s.PaidAt)
	require.Len(t, s.GetDomainEvents(), 1)
	assert.Equal(t, EventTypeSettlementCreated, s.GetDomainEvents()[0].EventType())

	_, err := NewSettlementFromBooking(BookingCompleted{StayID: uuid.New(), VendorID: uuid.New(), ScheduledDate: time.Now()})
	assert.Error(t, err)
	_, err = NewSettlementFromBooking(BookingCompleted{BookingID: uuid.New(), StayID: uuid.New(), VendorID: uuid.New()})
	assert.Error(t, err)
}

func TestSettlementTransitions(t *testing.T) {
	tests := []struct {
		name    string
		path    []Status
		wantErr error
		paid    bool
	}{
		{"pending to processing", []Status{StatusProcessing}, nil, false},
		{"processing to paid", []Status{StatusProcessing, StatusPaid}, nil, true},
		{"pending straight to paid", []Status{StatusPaid}, nil, true},
		{"pending to cancelled", []Status{StatusCancelled}, nil, false},
		{"processing to cancelled", []Status{StatusProcessing, StatusCancelled}, nil, false},
		{"out of paid rejected", []Status{StatusPaid, StatusProcessing}, ErrTerminalState, true},
		{"out of cancelled rejected", []Status{StatusCancelled, StatusPaid}, ErrTerminalState, false},
		{"backwards rejected", []Status{StatusProcessing, StatusPending}, ErrInvalidTransition, false},
		{"self transition rejected", []Status{StatusPending}, ErrInvalidTransition, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSettlement(t)
			var err error
			for _, step := range tt.path {
				if err = s.TransitionTo(step); err != nil {
					break
				}
			}
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.paid, s.PaidAt != nil)
			assert.Equal(t, s.Status == StatusPaid, s.PaidAt != nil)
		})
	}
}

func TestSettlementRejectsTransactionSuccessState(t *testing.T) {
	s := newSettlement(t)
	err := s.TransitionTo(StatusCompleted)
	require.Error(t, err)
	assert.Equal(t, StatusPending, s.Status)
}

func TestSettlementApply(t *testing.T) {
	t.Run("no fields", func(t *testing.T) {
		s := newSettlement(t)
		assert.ErrorIs(t, s.Apply(SettlementUpdate{}, admin()), shared.ErrNoFieldsToUpdate)
	})

	t.Run("admin marks paid with amount", func(t *testing.T) {
		s := newSettlement(t)
		paid := decimal.NewFromInt(4200)
		require.NoError(t, s.Apply(SettlementUpdate{Status: statusPtr(StatusPaid), AmountPaid: &paid}, admin()))
		assert.Equal(t, StatusPaid, s.Status)
		assert.NotNil(t, s.PaidAt)
		assert.True(t, s.Outstanding().IsZero())
	})

	t.Run("vendor annotates own settlement", func(t *testing.T) {
		s := newSettlement(t)
		notes := " bank holiday "
		require.NoError(t, s.Apply(SettlementUpdate{Notes: &notes}, vendorPrincipal(s.VendorID)))
		assert.Equal(t, "bank holiday", s.Notes)
	})

	t.Run("vendor cannot change status", func(t *testing.T) {
		s := newSettlement(t)
		err := s.Apply(SettlementUpdate{Status: statusPtr(StatusPaid)}, vendorPrincipal(s.VendorID))
		assert.ErrorIs(t, err, shared.ErrForbidden)
		assert.Equal(t, StatusPending, s.Status)
		assert.Nil(t, s.PaidAt)
	})

	t.Run("vendor cannot touch another vendor", func(t *testing.T) {
		s := newSettlement(t)
		notes := "mine now"
		assert.ErrorIs(t, s.Apply(SettlementUpdate{Notes: &notes}, vendorPrincipal(uuid.New())), shared.ErrForbidden)
	})

	t.Run("buyer forbidden", func(t *testing.T) {
		s := newSettlement(t)
		notes := "x"
		buyer := identity.Principal{ID: uuid.New(), AccountType: identity.AccountTypeUser}
		assert.ErrorIs(t, s.Apply(SettlementUpdate{Notes: &notes}, buyer), shared.ErrForbidden)
	})

	t.Run("negative amount rejected before transition", func(t *testing.T) {
		s := newSettlement(t)
		neg := decimal.NewFromInt(-1)
		err := s.Apply(SettlementUpdate{Status: statusPtr(StatusPaid), AmountPaid: &neg}, admin())
		require.Error(t, err)
		assert.Equal(t, StatusPending, s.Status)
	})

	t.Run("same status with nothing else is a no-op update", func(t *testing.T) {
		s := newSettlement(t)
		version := s.Version
		err := s.Apply(SettlementUpdate{Status: statusPtr(StatusPending)}, admin())
		assert.ErrorIs(t, err, shared.ErrNoFieldsToUpdate)
		assert.Equal(t, version, s.Version)
	})

	t.Run("same status with notes bumps the version once", func(t *testing.T) {
		s := newSettlement(t)
		version := s.Version
		notes := "checked"
		require.NoError(t, s.Apply(SettlementUpdate{Status: statusPtr(StatusPending), Notes: &notes}, admin()))
		assert.Equal(t, version+1, s.Version)
		assert.Equal(t, StatusPending, s.Status)
	})

	t.Run("status on a paid settlement is final", func(t *testing.T) {
		s := newSettlement(t)
		require.NoError(t, s.Apply(SettlementUpdate{Status: statusPtr(StatusPaid)}, admin()))
		paidAt := *s.PaidAt
		version := s.Version

		assert.ErrorIs(t, s.Apply(SettlementUpdate{Status: statusPtr(StatusPaid)}, admin()), ErrTerminalState)
		assert.ErrorIs(t, s.Apply(SettlementUpdate{Status: statusPtr(StatusCancelled)}, admin()), ErrTerminalState)
		assert.Equal(t, version, s.Version)
		assert.Equal(t, paidAt, *s.PaidAt)
	})

	t.Run("notes allowed after paid", func(t *testing.T) {
		s := newSettlement(t)
		require.NoError(t, s.TransitionTo(StatusPaid))
		notes := "wired"
		require.NoError(t, s.Apply(SettlementUpdate{Notes: &notes}, admin()))
		assert.Equal(t, "wired", s.Notes)
	})
}

func TestNewTransaction(t *testing.T) {
	tx := newTransaction(t)
	assert.Equal(t, "March bonus", tx.Message)
	assert.Equal(t, StatusPending, tx.Status)
	assert.Nil(t, tx.CompletedAt)
	require.Len(t, tx.GetDomainEvents(), 1)
	assert.Equal(t, EventTypeTransactionCreated, tx.GetDomainEvents()[0].EventType())

	valid := NewTransactionInput{
		VendorID:      uuid.New(),
		Message:       "payout",
		Amount:        decimal.NewFromInt(10),
		ScheduledDate: time.Now(),
	}

	tests := []struct {
		name     string
		mutate   func(in *NewTransactionInput)
		actor    identity.Principal
		wantCode string
	}{
		{"vendor cannot create", func(in *NewTransactionInput) {}, vendorPrincipal(uuid.New()), "FORBIDDEN"},
		{"anonymous cannot create", func(in *NewTransactionInput) {}, identity.Principal{}, "UNAUTHORIZED"},
		{"missing vendor", func(in *NewTransactionInput) { in.VendorID = uuid.Nil }, admin(), "INVALID_VENDOR"},
		{"blank message", func(in *NewTransactionInput) { in.Message = "   " }, admin(), "INVALID_MESSAGE"},
		{"missing date", func(in *NewTransactionInput) { in.ScheduledDate = time.Time{} }, admin(), "INVALID_SCHEDULED_DATE"},
		{"negative amount", func(in *NewTransactionInput) { in.Amount = decimal.NewFromInt(-5) }, admin(), "INVALID_AMOUNT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			_, err := NewTransaction(in, tt.actor)
			var de *shared.DomainError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, tt.wantCode, de.Code)
		})
	}
}

func TestTransactionTransitions(t *testing.T) {
	tx := newTransaction(t)
	require.NoError(t, tx.TransitionTo(StatusProcessing))
	assert.Nil(t, tx.CompletedAt)

	require.NoError(t, tx.TransitionTo(StatusCompleted))
	require.NotNil(t, tx.CompletedAt)
	completedAt := *tx.CompletedAt

	assert.ErrorIs(t, tx.TransitionTo(StatusCancelled), ErrTerminalState)
	assert.Equal(t, completedAt, *tx.CompletedAt)
	assert.Equal(t, StatusCompleted, tx.Status)

	cancelled := newTransaction(t)
	require.NoError(t, cancelled.TransitionTo(StatusCancelled))
	assert.Nil(t, cancelled.CompletedAt)

	wrongSuccess := newTransaction(t)
	assert.Error(t, wrongSuccess.TransitionTo(StatusPaid))
}

func TestTransactionApply(t *testing.T) {
	t.Run("admin only", func(t *testing.T) {
		tx := newTransaction(t)
		msg := "changed"
		assert.ErrorIs(t, tx.Apply(TransactionUpdate{Message: &msg}, vendorPrincipal(tx.VendorID)), shared.ErrForbidden)
	})

	t.Run("no fields", func(t *testing.T) {
		tx := newTransaction(t)
		assert.ErrorIs(t, tx.Apply(TransactionUpdate{}, admin()), shared.ErrNoFieldsToUpdate)
	})

	t.Run("complete", func(t *testing.T) {
		tx := newTransaction(t)
		require.NoError(t, tx.Apply(TransactionUpdate{Status: statusPtr(StatusCompleted)}, admin()))
		assert.NotNil(t, tx.CompletedAt)
		events := tx.GetDomainEvents()
		assert.Equal(t, EventTypeTransactionStatusChanged, events[len(events)-1].EventType())
	})

	t.Run("same status with nothing else is a no-op update", func(t *testing.T) {
		tx := newTransaction(t)
		version := tx.Version
		assert.ErrorIs(t, tx.Apply(TransactionUpdate{Status: statusPtr(StatusPending)}, admin()), shared.ErrNoFieldsToUpdate)
		assert.Equal(t, version, tx.Version)
	})

	t.Run("status on a completed transaction is final", func(t *testing.T) {
		tx := newTransaction(t)
		require.NoError(t, tx.Apply(TransactionUpdate{Status: statusPtr(StatusCompleted)}, admin()))
		assert.ErrorIs(t, tx.Apply(TransactionUpdate{Status: statusPtr(StatusCompleted)}, admin()), ErrTerminalState)
	})

	t.Run("amount frozen once final", func(t *testing.T) {
		tx := newTransaction(t)
		require.NoError(t, tx.TransitionTo(StatusCancelled))
		amount := decimal.NewFromInt(1)
		assert.ErrorIs(t, tx.Apply(TransactionUpdate{Amount: &amount}, admin()), ErrTerminalState)
	})
}

func TestScopeVendor(t *testing.T) {
	requested := uuid.New()

	scoped, err := ScopeVendor(admin(), &requested)
	require.NoError(t, err)
	assert.Equal(t, requested, *scoped)

	scoped, err = ScopeVendor(admin(), nil)
	require.NoError(t, err)
	assert.Nil(t, scoped)

	self := uuid.New()
	scoped, err = ScopeVendor(vendorPrincipal(self), &requested)
	require.NoError(t, err)
	assert.Equal(t, self, *scoped)

	scoped, err = ScopeVendor(vendorPrincipal(self), nil)
	require.NoError(t, err)
	assert.Equal(t, self, *scoped)

	_, err = ScopeVendor(identity.Principal{ID: uuid.New(), AccountType: identity.AccountTypeUser}, nil)
	assert.ErrorIs(t, err, shared.ErrForbidden)

	_, err = ScopeVendor(identity.Principal{}, nil)
	assert.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestParseStatus(t *testing.T) {
	s, err := ParseSettlementStatus(" PAID ")
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, s)

	_, err = ParseSettlementStatus("completed")
	assert.Error(t, err)

	s, err = ParseTransactionStatus("Completed")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, s)

	_, err = ParseTransactionStatus("paid")
	assert.Error(t, err)
}
