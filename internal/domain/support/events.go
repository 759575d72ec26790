package support

import (
	"github.com/google/uuid"
	"github.com/safarhub/backend/internal/domain/shared"
)

// AggregateTypeContactMessage is the aggregate type name for contact messages
const AggregateTypeContactMessage = "ContactMessage"

const (
	EventTypeMessageReceived = "ContactMessageReceived"
	EventTypeMessageReplied  = "ContactMessageReplied"
)

// MessageEvent carries what the notifier needs to email the sender
type MessageEvent struct {
	shared.BaseDomainEvent
	MessageID uuid.UUID `json:"message_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Reply     string    `json:"reply,omitempty"`
}

func newMessageEvent(eventType string, m *ContactMessage) *MessageEvent {
	return &MessageEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeContactMessage, m.ID),
		MessageID:       m.ID,
		Name:            m.Name,
		Email:           m.Email,
		Subject:         m.Subject,
		Reply:           m.Reply,
	}
}

// NewMessageReceivedEvent creates a ContactMessageReceived event
func NewMessageReceivedEvent(m *ContactMessage) *MessageEvent {
	return newMessageEvent(EventTypeMessageReceived, m)
}

// NewMessageRepliedEvent creates a ContactMessageReplied event
func NewMessageRepliedEvent(m *ContactMessage) *MessageEvent {
	return newMessageEvent(EventTypeMessageReplied, m)
}
