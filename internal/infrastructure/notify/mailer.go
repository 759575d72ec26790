// Package notify delivers transactional email for domain events.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Email is one outbound message
type Email struct {
	Kind    string `json:"kind"`
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Mailer sends a single email
type Mailer interface {
	Send(ctx context.Context, email Email) error
}

// LogMailer writes emails to the log instead of sending them
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer creates a LogMailer
func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// Send logs the email
func (m *LogMailer) Send(_ context.Context, email Email) error {
	m.logger.Info("email",
		zap.String("kind", email.Kind),
		zap.String("to", email.To),
		zap.String("subject", email.Subject),
	)
	return nil
}

// MessageWriter is the subset of *kafka.Writer used by KafkaMailer
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewKafkaWriter creates a writer for the email request topic
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}
}

// emailRequest is the message a mail worker consumes
type emailRequest struct {
	Email
	RequestedAt time.Time `json:"requested_at"`
}

// KafkaMailer publishes email requests to a topic for a separate sender.
// Messages are keyed by recipient so one inbox sees them in order.
type KafkaMailer struct {
	writer MessageWriter
	from   string
}

// NewKafkaMailer creates a KafkaMailer. from fills Email.From when empty.
func NewKafkaMailer(writer MessageWriter, from string) *KafkaMailer {
	return &KafkaMailer{writer: writer, from: from}
}

// Send publishes the email request
func (m *KafkaMailer) Send(ctx context.Context, email Email) error {
	if email.From == "" {
		email.From = m.from
	}
	payload, err := json.Marshal(emailRequest{Email: email, RequestedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("encode email request: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(email.To),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "kind", Value: []byte(email.Kind)},
		},
	}
	if err := m.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish email request: %w", err)
	}
	return nil
}

// Close closes the underlying writer
func (m *KafkaMailer) Close() error {
	return m.writer.Close()
}

var (
	_ Mailer = (*LogMailer)(nil)
	_ Mailer = (*KafkaMailer)(nil)
)
