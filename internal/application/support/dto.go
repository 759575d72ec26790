package support

import (
	"time"

	"github.com/google/uuid"
	"github.com/safarhub/backend/internal/domain/support"
)

// SubmitMessageRequest is the public contact form
type SubmitMessageRequest struct {
	Name    string `json:"name" binding:"required,min=1,max=100"`
	Email   string `json:"email" binding:"required,email"`
	Subject string `json:"subject" binding:"max=200"`
	Message string `json:"message" binding:"required,min=1,max=5000"`
}

// ReplyRequest answers a contact message
type ReplyRequest struct {
	Reply string `json:"reply" binding:"required,min=1,max=5000"`
}

// MessageQuery filters the admin inbox
type MessageQuery struct {
	Status   string `form:"status" binding:"omitempty,oneof=open replied closed"`
	Search   string `form:"search"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"pageSize" binding:"omitempty,min=1,max=100"`
}

// MessageResponse represents a contact message
type MessageResponse struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Subject   string     `json:"subject,omitempty"`
	Message   string     `json:"message"`
	Status    string     `json:"status"`
	Reply     string     `json:"reply,omitempty"`
	RepliedBy *uuid.UUID `json:"repliedBy,omitempty"`
	RepliedAt *time.Time `json:"repliedAt,omitempty"`
	ClosedAt  *time.Time `json:"closedAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// ToMessageResponse converts a contact message to its response
func ToMessageResponse(m *support.ContactMessage) MessageResponse {
	return MessageResponse{
		ID:        m.ID,
		Name:      m.Name,
		Email:     m.Email,
		Subject:   m.Subject,
		Message:   m.Body,
		Status:    string(m.Status),
		Reply:     m.Reply,
		RepliedBy: m.RepliedBy,
		RepliedAt: m.RepliedAt,
		ClosedAt:  m.ClosedAt,
		CreatedAt: m.CreatedAt,
	}
}
