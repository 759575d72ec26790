package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/safarhub/backend/internal/domain/support"
)

// ContactMessageModel is the persistence model for support inbox messages.
type ContactMessageModel struct {
	AggregateModel
	Name      string         `gorm:"type:varchar(200);not null"`
	Email     string         `gorm:"type:varchar(200);not null;index"`
	Subject   string         `gorm:"type:varchar(200)"`
	Body      string         `gorm:"type:text;not null"`
	Status    support.Status `gorm:"type:varchar(20);not null;default:'open';index"`
	Reply     string         `gorm:"type:text"`
	RepliedBy *uuid.UUID     `gorm:"type:uuid"`
	RepliedAt *time.Time
	ClosedAt  *time.Time
}

// TableName returns the table name for GORM
func (ContactMessageModel) TableName() string {
	return "contact_messages"
}

// ToDomain converts the persistence model to a domain ContactMessage
func (m *ContactMessageModel) ToDomain() *support.ContactMessage {
	return &support.ContactMessage{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Name:              m.Name,
		Email:             m.Email,
		Subject:           m.Subject,
		Body:              m.Body,
		Status:            m.Status,
		Reply:             m.Reply,
		RepliedBy:         m.RepliedBy,
		RepliedAt:         m.RepliedAt,
		ClosedAt:          m.ClosedAt,
	}
}

// ContactMessageModelFromDomain creates a persistence model from a domain ContactMessage
func ContactMessageModelFromDomain(c *support.ContactMessage) *ContactMessageModel {
	m := &ContactMessageModel{
		Name:      c.Name,
		Email:     c.Email,
		Subject:   c.Subject,
		Body:      c.Body,
		Status:    c.Status,
		Reply:     c.Reply,
		RepliedBy: c.RepliedBy,
		RepliedAt: c.RepliedAt,
		ClosedAt:  c.ClosedAt,
	}
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	return m
}
