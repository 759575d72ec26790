package handler

import (
	"context"
	"encoding/csv"
	"net/http"
	"strings"
	"testing"
	"time"

	ledgerapp "github.com/safarhub/backend/internal/application/ledger"
	"github.com/google/uuid"
	"github.com/safarhub/backend/internal/domain/ledger"
	"github.com/safarhub/backend/internal/domain/vendor"
	"github.com/safarhub/backend/internal/infrastructure/persistence"
	"github.com/safarhub/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStatementStore struct {
	name string
	body []byte
}

func (s *fakeStatementStore) SaveStatement(_ context.Context, name string, body []byte) (string, time.Time, error) {
	s.name = name
	s.body = body
	return "https://statements.example.com/" + name + "?sig=abc", time.Now().Add(15 * time.Minute), nil
}

type ledgerFixture struct {
	server      *testServer
	settlements *ledgerapp.SettlementService
	vendorA     uuid.UUID
	vendorB     uuid.UUID
	settleA     uuid.UUID
	settleB     uuid.UUID
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	conn, db := setupTestDB(t)
	settlements := ledgerapp.NewSettlementService(persistence.NewGormSettlementRepository(conn), nil)
	transactions := ledgerapp.NewTransactionService(persistence.NewGormTransactionRepository(conn), persistence.NewGormVendorRepository(conn), nil)
	sh := NewSettlementHandler(settlements)
	th := NewTransactionHandler(transactions)

	s := newTestServer(t)
	s.engine.GET("/settlements", sh.List)
	s.engine.GET("/settlements/export", sh.Export)
	s.engine.GET("/settlements/:id", sh.GetByID)
	s.engine.PATCH("/settlements/:id", sh.Update)
	s.engine.POST("/transactions", th.Create)
	s.engine.GET("/transactions", th.List)
	s.engine.GET("/transactions/:id", th.GetByID)
	s.engine.PATCH("/transactions/:id", th.Update)

	f := &ledgerFixture{server: s, settlements: settlements}
	for _, target := range []*uuid.UUID{&f.vendorA, &f.vendorB} {
		v, err := vendor.NewVendor("Host "+uuid.NewString()[:8], uuid.NewString()+"@example.com", vendor.ServiceStays)
		require.NoError(t, err)
		v.IsApproved = true
		createRow(t, db, models.UserModelFromVendor(v))
		*target = v.ID
	}
	f.settleA = f.seedSettlement(t, f.vendorA, 5000)
	f.settleB = f.seedSettlement(t, f.vendorB, 7000)
	return f
}

func (f *ledgerFixture) seedSettlement(t *testing.T, vendorID uuid.UUID, amount int64) uuid.UUID {
	t.Helper()
	created, err := f.settlements.CreateFromBooking(t.Context(), ledger.BookingCompleted{
		BookingID:     uuid.New(),
		StayID:        uuid.New(),
		VendorID:      vendorID,
		AmountDue:     decimal.NewFromInt(amount),
		ScheduledDate: time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC),
		CompletedAt:   time.Date(2025, 7, 25, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return created.ID
}

func TestSettlementHandler_VendorScope(t *testing.T) {
	f := newLedgerFixture(t)
	s := f.server.as(vendorCaller(f.vendorA))

	t.Run("list is forced to the caller", func(t *testing.T) {
		w := s.do(http.MethodGet, "/settlements?vendorId="+f.vendorB.String(), nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		list := decodeData[[]ledgerapp.SettlementResponse](t, w)
		require.Len(t, list, 1)
		assert.Equal(t, f.settleA, list[0].ID)
	})

	t.Run("another vendor's settlement reads as missing", func(t *testing.T) {
		w := s.do(http.MethodGet, "/settlements/"+f.settleB.String(), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("vendor may edit notes", func(t *testing.T) {
		w := s.do(http.MethodPatch, "/settlements/"+f.settleA.String(), map[string]string{"notes": "  bank details updated  "})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "bank details updated", decodeData[ledgerapp.SettlementResponse](t, w).Notes)
	})

	t.Run("vendor may not change status", func(t *testing.T) {
		w := s.do(http.MethodPatch, "/settlements/"+f.settleA.String(), map[string]string{"status": "paid"})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("buyers are forbidden", func(t *testing.T) {
		defer s.as(vendorCaller(f.vendorA))
		w := s.as(userCaller).do(http.MethodGet, "/settlements", nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestSettlementHandler_AdminLifecycle(t *testing.T) {
	f := newLedgerFixture(t)
	s := f.server.as(adminCaller)
	path := "/settlements/" + f.settleA.String()

	t.Run("admin sees every vendor", func(t *testing.T) {
		w := s.do(http.MethodGet, "/settlements", nil)
		assert.Len(t, decodeData[[]ledgerapp.SettlementResponse](t, w), 2)
	})

	t.Run("status filter is case-insensitive", func(t *testing.T) {
		w := s.do(http.MethodGet, "/settlements?status=PENDING&vendorId="+f.vendorB.String(), nil)
		list := decodeData[[]ledgerapp.SettlementResponse](t, w)
		require.Len(t, list, 1)
		assert.Equal(t, f.settleB, list[0].ID)
	})

	t.Run("empty update", func(t *testing.T) {
		w := s.do(http.MethodPatch, path, map[string]any{})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, "NO_FIELDS_TO_UPDATE", errorCode(t, w))
	})

	t.Run("paid stamps paidAt", func(t *testing.T) {
		w := s.do(http.MethodPatch, path, map[string]string{"status": "Paid", "amountPaid": "5000"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		got := decodeData[ledgerapp.SettlementResponse](t, w)
		assert.Equal(t, "paid", got.Status)
		require.NotNil(t, got.PaidAt)
		assert.True(t, got.Outstanding.IsZero())
	})

	t.Run("paid is final", func(t *testing.T) {
		w := s.do(http.MethodPatch, path, map[string]string{"status": "cancelled"})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, "TERMINAL_STATE", errorCode(t, w))
	})

	t.Run("paying twice reports the final state", func(t *testing.T) {
		w := s.do(http.MethodPatch, path, map[string]string{"status": "PAID"})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, "TERMINAL_STATE", errorCode(t, w))
	})

	t.Run("current status alone changes nothing", func(t *testing.T) {
		other := "/settlements/" + f.settleB.String()
		w := s.do(http.MethodPatch, other, map[string]string{"status": "pending"})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, "NO_FIELDS_TO_UPDATE", errorCode(t, w))

		w = s.do(http.MethodPatch, other, map[string]string{"status": "pending", "notes": "awaiting bank"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "awaiting bank", decodeData[ledgerapp.SettlementResponse](t, w).Notes)
	})

	t.Run("unknown status", func(t *testing.T) {
		w := s.do(http.MethodPatch, "/settlements/"+f.settleB.String(), map[string]string{"status": "refunded"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "INVALID_STATUS", errorCode(t, w))
	})

	t.Run("inverted date range", func(t *testing.T) {
		w := s.do(http.MethodGet, "/settlements?from=2025-09-01&to=2025-08-01", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "INVALID_DATE_RANGE", errorCode(t, w))
	})
}

func TestSettlementHandler_Export(t *testing.T) {
	t.Run("inline csv without object storage", func(t *testing.T) {
		f := newLedgerFixture(t)
		w := f.server.as(vendorCaller(f.vendorA)).do(http.MethodGet, "/settlements/export", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, csvContentType, w.Header().Get("Content-Type"))
		assert.Contains(t, w.Header().Get("Content-Disposition"), "settlements-"+f.vendorA.String())

		records, err := csv.NewReader(strings.NewReader(w.Body.String())).ReadAll()
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "settlement_id", records[0][0])
		assert.Equal(t, f.settleA.String(), records[1][0])
		assert.Equal(t, "5000.00", records[1][5])
	})

	t.Run("presigned link with object storage", func(t *testing.T) {
		f := newLedgerFixture(t)
		store := &fakeStatementStore{}
		f.settlements.SetStatementStore(store)

		w := f.server.as(adminCaller).do(http.MethodGet, "/settlements/export", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		statement := decodeData[ledgerapp.StatementResponse](t, w)
		assert.Equal(t, 2, statement.Rows)
		assert.Contains(t, statement.URL, store.name)
		assert.NotNil(t, statement.ExpiresAt)
		assert.True(t, strings.HasPrefix(statement.FileName, "settlements-all-"))
		assert.Equal(t, 3, strings.Count(string(store.body), "\n"))
	})
}

func TestTransactionHandler(t *testing.T) {
	f := newLedgerFixture(t)
	s := f.server.as(adminCaller)
	create := map[string]string{
		"vendorId":      f.vendorA.String(),
		"message":       "July payout",
		"amount":        "4200.50",
		"scheduledDate": "2025-08-05T00:00:00Z",
	}

	w := s.do(http.MethodPost, "/transactions", create)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decodeData[ledgerapp.TransactionResponse](t, w)
	assert.Equal(t, "pending", created.Status)
	assert.Equal(t, adminCaller.ID, created.CreatedBy)
	assert.Nil(t, created.CompletedAt)
	path := "/transactions/" + created.ID.String()

	t.Run("vendors cannot create", func(t *testing.T) {
		defer s.as(adminCaller)
		w := s.as(vendorCaller(f.vendorA)).do(http.MethodPost, "/transactions", create)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("unknown vendor", func(t *testing.T) {
		stranger := map[string]string{
			"vendorId":      uuid.NewString(),
			"message":       "July payout",
			"amount":        "10",
			"scheduledDate": "2025-08-05T00:00:00Z",
		}
		w := s.do(http.MethodPost, "/transactions", stranger)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "INVALID_VENDOR", errorCode(t, w))
	})

	t.Run("missing message", func(t *testing.T) {
		w := s.do(http.MethodPost, "/transactions", map[string]string{"vendorId": f.vendorA.String(), "scheduledDate": "2025-08-05T00:00:00Z"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w))
	})

	t.Run("owning vendor can read", func(t *testing.T) {
		defer s.as(adminCaller)
		w := s.as(vendorCaller(f.vendorA)).do(http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		w = s.as(vendorCaller(f.vendorB)).do(http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		w = s.as(vendorCaller(f.vendorB)).do(http.MethodGet, "/transactions", nil)
		assert.Empty(t, decodeData[[]ledgerapp.TransactionResponse](t, w))
	})

	t.Run("vendors cannot update", func(t *testing.T) {
		defer s.as(adminCaller)
		w := s.as(vendorCaller(f.vendorA)).do(http.MethodPatch, path, map[string]string{"status": "completed"})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("completion stamps completedAt", func(t *testing.T) {
		w := s.do(http.MethodPatch, path, map[string]string{"status": "processing"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Nil(t, decodeData[ledgerapp.TransactionResponse](t, w).CompletedAt)

		w = s.do(http.MethodPatch, path, map[string]string{"status": "completed"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		done := decodeData[ledgerapp.TransactionResponse](t, w)
		assert.Equal(t, "completed", done.Status)
		assert.NotNil(t, done.CompletedAt)

		w = s.do(http.MethodPatch, path, map[string]string{"status": "completed"})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, "TERMINAL_STATE", errorCode(t, w))
	})

	t.Run("settlement success state is invalid for transactions", func(t *testing.T) {
		w := s.do(http.MethodPost, "/transactions", create)
		require.Equal(t, http.StatusCreated, w.Code)
		other := decodeData[ledgerapp.TransactionResponse](t, w)
		w = s.do(http.MethodPatch, "/transactions/"+other.ID.String(), map[string]string{"status": "paid"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "INVALID_STATUS", errorCode(t, w))
	})
}
