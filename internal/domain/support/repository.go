package support

import (
	"context"

	"github.com/google/uuid"
	"github.com/safarhub/backend/internal/domain/shared"
)

// MessageFilter narrows inbox listings
type MessageFilter struct {
	shared.Filter
	Status *Status
}

// MessageRepository persists contact messages
type MessageRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*ContactMessage, error)
	FindAll(ctx context.Context, filter MessageFilter) ([]ContactMessage, int64, error)
	Create(ctx context.Context, m *ContactMessage) error
	SaveWithLock(ctx context.Context, m *ContactMessage) error
}
