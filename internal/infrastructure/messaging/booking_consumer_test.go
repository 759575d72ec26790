package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/safarhub/backend/internal/domain/ledger"
	"github.com/safarhub/backend/internal/domain/shared"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	committed []int64
	drained   chan struct{}
	once      sync.Once
	closed    bool
	fetchErr  error
}

func newFakeReader(msgs ...kafka.Message) *fakeReader {
	for i := range msgs {
		msgs[i].Offset = int64(i)
	}
	return &fakeReader{queue: msgs, drained: make(chan struct{})}
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if r.fetchErr != nil {
		r.mu.Unlock()
		return kafka.Message{}, r.fetchErr
	}
	if len(r.queue) > 0 {
		msg := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()
	r.once.Do(func() { close(r.drained) })
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func bookingMessage(t *testing.T, b ledger.BookingCompleted) kafka.Message {
	t.Helper()
	value, err := json.Marshal(b)
	require.NoError(t, err)
	return kafka.Message{Key: []byte(b.BookingID.String()), Value: value}
}

func validBooking() ledger.BookingCompleted {
	return ledger.BookingCompleted{
		BookingID:     uuid.New(),
		StayID:        uuid.New(),
		VendorID:      uuid.New(),
		AmountDue:     decimal.RequireFromString("1250.50"),
		ScheduledDate: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		CompletedAt:   time.Date(2025, 6, 20, 12, 0, 0, 0, time.UTC),
	}
}

// runUntilDrained runs the consumer until the reader has nothing left
func runUntilDrained(t *testing.T, c *BookingConsumer, r *fakeReader) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	select {
	case <-r.drained:
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not drain the reader")
	}
	cancel()
	require.NoError(t, <-done)
	assert.True(t, r.closed)
}

func TestBookingConsumer_HandlesAndCommits(t *testing.T) {
	booking := validBooking()
	r := newFakeReader(bookingMessage(t, booking))

	var got []ledger.BookingCompleted
	c := NewBookingConsumer(r, func(_ context.Context, b ledger.BookingCompleted) error {
		got = append(got, b)
		return nil
	}, zap.NewNop())

	runUntilDrained(t, c, r)

	require.Len(t, got, 1)
	assert.Equal(t, booking.BookingID, got[0].BookingID)
	assert.True(t, booking.AmountDue.Equal(got[0].AmountDue))
	assert.Equal(t, []int64{0}, r.committed)
}

func TestBookingConsumer_SkipsPoisonMessages(t *testing.T) {
	invalid := validBooking()
	invalid.VendorID = uuid.Nil

	r := newFakeReader(
		kafka.Message{Value: []byte("{not json")},
		bookingMessage(t, invalid),
		bookingMessage(t, validBooking()),
	)

	calls := 0
	c := NewBookingConsumer(r, func(context.Context, ledger.BookingCompleted) error {
		calls++
		return nil
	}, zap.NewNop())

	runUntilDrained(t, c, r)

	assert.Equal(t, 1, calls)
	assert.Equal(t, []int64{0, 1, 2}, r.committed)
}

func TestBookingConsumer_DomainRejectionIsCommitted(t *testing.T) {
	r := newFakeReader(bookingMessage(t, validBooking()))
	calls := 0
	c := NewBookingConsumer(r, func(context.Context, ledger.BookingCompleted) error {
		calls++
		return shared.ErrInvalidInput
	}, zap.NewNop(), WithRetry(3, 0))

	runUntilDrained(t, c, r)

	assert.Equal(t, 1, calls)
	assert.Equal(t, []int64{0}, r.committed)
}

func TestBookingConsumer_TransientFailure(t *testing.T) {
	t.Run("recovers on retry", func(t *testing.T) {
		r := newFakeReader(bookingMessage(t, validBooking()))
		calls := 0
		c := NewBookingConsumer(r, func(context.Context, ledger.BookingCompleted) error {
			calls++
			if calls < 2 {
				return errors.New("connection reset")
			}
			return nil
		}, zap.NewNop(), WithRetry(3, 0))

		runUntilDrained(t, c, r)

		assert.Equal(t, 2, calls)
		assert.Equal(t, []int64{0}, r.committed)
	})

	t.Run("left uncommitted after last attempt", func(t *testing.T) {
		r := newFakeReader(bookingMessage(t, validBooking()))
		calls := 0
		c := NewBookingConsumer(r, func(context.Context, ledger.BookingCompleted) error {
			calls++
			return errors.New("database unavailable")
		}, zap.NewNop(), WithRetry(3, 0))

		runUntilDrained(t, c, r)

		assert.Equal(t, 3, calls)
		assert.Empty(t, r.committed)
	})
}

func TestBookingConsumer_ReaderError(t *testing.T) {
	r := newFakeReader()
	r.fetchErr = errors.New("broker gone")
	c := NewBookingConsumer(r, func(context.Context, ledger.BookingCompleted) error { return nil }, zap.NewNop())

	err := c.Run(context.Background())
	assert.ErrorContains(t, err, "broker gone")
	assert.True(t, r.closed)
}
