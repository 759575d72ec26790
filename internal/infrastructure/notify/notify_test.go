package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/safarhub/backend/internal/domain/identity"
	"github.com/safarhub/backend/internal/domain/ledger"
	"github.com/safarhub/backend/internal/domain/order"
	"github.com/safarhub/backend/internal/domain/shared"
	"github.com/safarhub/backend/internal/domain/support"
	"github.com/safarhub/backend/internal/domain/vendor"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) Send(ctx context.Context, email Email) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

type mockVendors struct {
	mock.Mock
}

func (m *mockVendors) FindByID(ctx context.Context, id uuid.UUID) (*vendor.Vendor, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*vendor.Vendor), args.Error(1)
}

type mockBuyers struct {
	mock.Mock
}

func (m *mockBuyers) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func newTestVendor(t *testing.T) *vendor.Vendor {
	t.Helper()
	v, err := vendor.NewVendor("Karakoram Stays", "owner@karakoram.example", vendor.ServiceStays)
	require.NoError(t, err)
	return v
}

func TestEmailNotifier_VendorTransitions(t *testing.T) {
	mailer := new(mockMailer)
	n := NewEmailNotifier(mailer, new(mockVendors), new(mockBuyers), "", zap.NewNop())

	v := newTestVendor(t)
	v.Accept()
	require.NoError(t, v.Lock())

	mailer.On("Send", mock.Anything, mock.MatchedBy(func(e Email) bool {
		return e.To == "owner@karakoram.example" && e.Kind == KindVendorStatus && e.Subject == "Your vendor account was locked"
	})).Return(nil).Once()

	require.NoError(t, n.Handle(context.Background(), vendor.NewVendorLockedEvent(v)))
	mailer.AssertExpectations(t)
}

func TestEmailNotifier_SettlementPaidOnly(t *testing.T) {
	mailer := new(mockMailer)
	vendors := new(mockVendors)
	n := NewEmailNotifier(mailer, vendors, new(mockBuyers), "", zap.NewNop())

	v := newTestVendor(t)
	s, err := ledger.NewSettlementFromBooking(ledger.BookingCompleted{
		BookingID:     uuid.New(),
		StayID:        uuid.New(),
		VendorID:      v.ID,
		AmountDue:     decimal.NewFromInt(300),
		ScheduledDate: time.Now(),
	})
	require.NoError(t, err)

	// processing is not worth an email
	require.NoError(t, s.TransitionTo(ledger.StatusProcessing))
	require.NoError(t, n.Handle(context.Background(), ledger.NewSettlementStatusChangedEvent(s, ledger.StatusPending)))
	mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)

	vendors.On("FindByID", mock.Anything, v.ID).Return(v, nil)
	mailer.On("Send", mock.Anything, mock.MatchedBy(func(e Email) bool {
		return e.Kind == KindSettlementPaid && e.To == v.Email
	})).Return(nil).Once()

	require.NoError(t, s.TransitionTo(ledger.StatusPaid))
	require.NoError(t, n.Handle(context.Background(), ledger.NewSettlementStatusChangedEvent(s, ledger.StatusProcessing)))
	mailer.AssertExpectations(t)
}

func TestEmailNotifier_FailuresAreSwallowed(t *testing.T) {
	t.Run("mailer error", func(t *testing.T) {
		mailer := new(mockMailer)
		n := NewEmailNotifier(mailer, new(mockVendors), new(mockBuyers), "", zap.NewNop())
		mailer.On("Send", mock.Anything, mock.Anything).Return(errors.New("broker down"))

		m, err := support.NewContactMessage("Sana", "sana@example.com", "Refund", "Please help")
		require.NoError(t, err)
		require.NoError(t, m.Answer("Done", identity.Principal{ID: uuid.New(), AccountType: identity.AccountTypeAdmin}))

		assert.NoError(t, n.Handle(context.Background(), support.NewMessageRepliedEvent(m)))
		mailer.AssertNumberOfCalls(t, "Send", 1)
	})

	t.Run("recipient lookup error", func(t *testing.T) {
		mailer := new(mockMailer)
		buyers := new(mockBuyers)
		n := NewEmailNotifier(mailer, new(mockVendors), buyers, "", zap.NewNop())
		buyers.On("FindByID", mock.Anything, mock.Anything).Return(nil, shared.ErrNotFound)

		o := &order.Order{BaseAggregateRoot: shared.NewBaseAggregateRoot(), UserID: uuid.New()}
		item := &order.OrderItem{ID: uuid.New(), Status: order.StatusCancelled}

		assert.NoError(t, n.Handle(context.Background(), order.NewOrderItemCancelledEvent(o, item)))
		mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	})
}

func TestEmailNotifier_SupportReceived(t *testing.T) {
	m, err := support.NewContactMessage("Sana", "sana@example.com", "Refund", "Please help")
	require.NoError(t, err)

	t.Run("no admin address configured", func(t *testing.T) {
		mailer := new(mockMailer)
		n := NewEmailNotifier(mailer, new(mockVendors), new(mockBuyers), "", zap.NewNop())
		require.NoError(t, n.Handle(context.Background(), support.NewMessageReceivedEvent(m)))
		mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	})

	t.Run("forwarded to admin", func(t *testing.T) {
		mailer := new(mockMailer)
		n := NewEmailNotifier(mailer, new(mockVendors), new(mockBuyers), "ops@example.com", zap.NewNop())
		mailer.On("Send", mock.Anything, mock.MatchedBy(func(e Email) bool {
			return e.To == "ops@example.com" && e.Kind == KindSupportReceived
		})).Return(nil).Once()
		require.NoError(t, n.Handle(context.Background(), support.NewMessageReceivedEvent(m)))
		mailer.AssertExpectations(t)
	})
}

func TestKafkaMailer_Send(t *testing.T) {
	w := &fakeWriter{}
	m := NewKafkaMailer(w, "no-reply@example.com")

	err := m.Send(context.Background(), Email{Kind: KindSupportReply, To: "sana@example.com", Subject: "Re: Refund", Body: "Done"})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "sana@example.com", string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, KindSupportReply, string(msg.Headers[0].Value))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "no-reply@example.com", decoded["from"])
	assert.Equal(t, "Re: Refund", decoded["subject"])
	assert.Contains(t, decoded, "requested_at")

	t.Run("writer error is wrapped", func(t *testing.T) {
		broken := NewKafkaMailer(&fakeWriter{err: errors.New("leader not available")}, "x@example.com")
		err := broken.Send(context.Background(), Email{To: "a@example.com"})
		assert.ErrorContains(t, err, "publish email request")
	})
}
