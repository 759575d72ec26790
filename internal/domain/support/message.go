// Package support is the contact inbox: public messages answered by admins.
package support

import (
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/safarhub/backend/internal/domain/identity"
	"github.com/safarhub/backend/internal/domain/shared"
)

// Status is the state of a contact message
type Status string

const (
	StatusOpen    Status = "open"
	StatusReplied Status = "replied"
	StatusClosed  Status = "closed"
)

// IsValid checks if the status is recognized
func (s Status) IsValid() bool {
	return s == StatusOpen || s == StatusReplied || s == StatusClosed
}

// ErrMessageClosed is returned when replying to a closed thread
var ErrMessageClosed = shared.NewDomainError("MESSAGE_CLOSED", "Message is already closed")

// ContactMessage is a message submitted through the public contact form
type ContactMessage struct {
	shared.BaseAggregateRoot
	Name      string
	Email     string
	Subject   string
	Body      string
	Status    Status
	Reply     string
	RepliedBy *uuid.UUID
	RepliedAt *time.Time
	ClosedAt  *time.Time
}

// NewContactMessage validates and opens a message
func NewContactMessage(name, email, subject, body string) (*ContactMessage, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	subject = strings.TrimSpace(subject)
	body = strings.TrimSpace(body)

	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Name is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, shared.NewDomainError("INVALID_EMAIL", "Email is invalid")
	}
	if body == "" {
		return nil, shared.NewDomainError("INVALID_MESSAGE", "Message is required")
	}
	if len(body) > 5000 {
		return nil, shared.NewDomainError("INVALID_MESSAGE", "Message cannot exceed 5000 characters")
	}
	if len(subject) > 200 {
		return nil, shared.NewDomainError("INVALID_SUBJECT", "Subject cannot exceed 200 characters")
	}

	m := &ContactMessage{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Email:             email,
		Subject:           subject,
		Body:              body,
		Status:            StatusOpen,
	}
	m.AddDomainEvent(NewMessageReceivedEvent(m))
	return m, nil
}

// Answer records an admin reply. Replying again overwrites the previous
// answer; a closed message cannot be answered.
func (m *ContactMessage) Answer(reply string, actor identity.Principal) error {
	if err := actor.RequireAdmin(); err != nil {
		return err
	}
	if m.Status == StatusClosed {
		return ErrMessageClosed
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return shared.NewDomainError("INVALID_REPLY", "Reply is required")
	}

	now := time.Now()
	by := actor.ID
	m.Reply = reply
	m.RepliedBy = &by
	m.RepliedAt = &now
	m.Status = StatusReplied
	m.UpdatedAt = now
	m.IncrementVersion()

	m.AddDomainEvent(NewMessageRepliedEvent(m))
	return nil
}

// Close ends the thread. Closing twice is rejected.
func (m *ContactMessage) Close(actor identity.Principal) error {
	if err := actor.RequireAdmin(); err != nil {
		return err
	}
	if m.Status == StatusClosed {
		return ErrMessageClosed
	}

	now := time.Now()
	m.Status = StatusClosed
	m.ClosedAt = &now
	m.UpdatedAt = now
	m.IncrementVersion()
	return nil
}
