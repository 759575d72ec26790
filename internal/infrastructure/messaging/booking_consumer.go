// Package messaging consumes booking lifecycle messages from Kafka.
package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/safarhub/backend/internal/domain/ledger"
	"github.com/safarhub/backend/internal/domain/shared"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageReader is the subset of *kafka.Reader used by BookingConsumer
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewKafkaReader creates a consumer-group reader with manual commits
func NewKafkaReader(brokers []string, groupID, topic string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        groupID,
		Topic:          topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0,
	})
}

// BookingHandler records one completed booking
type BookingHandler func(ctx context.Context, b ledger.BookingCompleted) error

// ConsumerOption configures a BookingConsumer
type ConsumerOption func(*BookingConsumer)

// WithRetry sets how often a transient failure is retried and the pause between tries
func WithRetry(attempts int, backoff time.Duration) ConsumerOption {
	return func(c *BookingConsumer) {
		if attempts > 0 {
			c.attempts = attempts
		}
		c.backoff = backoff
	}
}

// BookingConsumer turns bookings.completed messages into settlements.
//
// A message is committed once it is handled, and also when it can never be
// handled (bad JSON, invalid payload, domain rejection). Storage failures are
// retried in place; after the last attempt the message is left uncommitted so
// the group redelivers it after a restart or rebalance.
type BookingConsumer struct {
	reader   MessageReader
	handle   BookingHandler
	logger   *zap.Logger
	attempts int
	backoff  time.Duration
}

// NewBookingConsumer creates a BookingConsumer
func NewBookingConsumer(reader MessageReader, handle BookingHandler, logger *zap.Logger, opts ...ConsumerOption) *BookingConsumer {
	c := &BookingConsumer{
		reader:   reader,
		handle:   handle,
		logger:   logger,
		attempts: 3,
		backoff:  500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run consumes until ctx is cancelled. It returns nil on cancellation and
// the reader error otherwise.
func (c *BookingConsumer) Run(ctx context.Context) error {
	defer func() {
		if err := c.reader.Close(); err != nil {
			c.logger.Warn("failed to close booking reader", zap.Error(err))
		}
	}()

	c.logger.Info("booking consumer started")
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("booking consumer stopped")
				return nil
			}
			return fmt.Errorf("fetch booking message: %w", err)
		}

		if !c.process(ctx, msg) {
			continue
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			c.logger.Error("failed to commit booking message",
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
		}
	}
}

// process reports whether the message should be committed
func (c *BookingConsumer) process(ctx context.Context, msg kafka.Message) bool {
	log := c.logger.With(
		zap.Int("partition", msg.Partition),
		zap.Int64("offset", msg.Offset),
	)

	var booking ledger.BookingCompleted
	if err := json.Unmarshal(msg.Value, &booking); err != nil {
		log.Warn("skipping undecodable booking message", zap.Error(err))
		return true
	}
	if err := booking.Validate(); err != nil {
		log.Warn("skipping invalid booking message",
			zap.String("booking_id", booking.BookingID.String()),
			zap.Error(err),
		)
		return true
	}

	for attempt := 1; ; attempt++ {
		err := c.handle(ctx, booking)
		if err == nil {
			return true
		}
		var domainErr *shared.DomainError
		if errors.As(err, &domainErr) {
			log.Warn("booking rejected",
				zap.String("booking_id", booking.BookingID.String()),
				zap.String("code", domainErr.Code),
			)
			return true
		}
		if attempt >= c.attempts {
			log.Error("giving up on booking message",
				zap.String("booking_id", booking.BookingID.String()),
				zap.Int("attempts", attempt),
				zap.Error(err),
			)
			return false
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(c.backoff):
		}
	}
}
