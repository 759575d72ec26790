// Package support serves the public contact form and the admin inbox.
package support

import (
	"context"

	"github.com/google/uuid"
	"github.com/safarhub/backend/internal/domain/identity"
	"github.com/safarhub/backend/internal/domain/shared"
	"github.com/safarhub/backend/internal/domain/support"
	"go.uber.org/zap"
)

// InboxService handles contact messages
type InboxService struct {
	repo           support.MessageRepository
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewInboxService creates a new InboxService
func NewInboxService(repo support.MessageRepository, logger *zap.Logger) *InboxService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InboxService{repo: repo, logger: logger}
}

// SetEventPublisher sets the event publisher for the service
func (s *InboxService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Submit stores a message from the public form. No login is required.
func (s *InboxService) Submit(ctx context.Context, req SubmitMessageRequest) (*MessageResponse, error) {
	m, err := support.NewContactMessage(req.Name, req.Email, req.Subject, req.Message)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}
	s.publish(ctx, m)
	s.logger.Info("contact message received", zap.String("message_id", m.ID.String()))

	response := ToMessageResponse(m)
	return &response, nil
}

// List returns inbox messages, newest first
func (s *InboxService) List(ctx context.Context, actor identity.Principal, q MessageQuery) ([]MessageResponse, int64, shared.Filter, error) {
	if err := actor.RequireAdmin(); err != nil {
		return nil, 0, shared.Filter{}, err
	}

	filter := support.MessageFilter{Filter: shared.DefaultFilter()}
	filter.Search = q.Search
	if q.Status != "" {
		status := support.Status(q.Status)
		if !status.IsValid() {
			return nil, 0, shared.Filter{}, shared.NewDomainError("INVALID_STATUS", "Invalid status: "+q.Status)
		}
		filter.Status = &status
	}
	if q.Page > 0 {
		filter.Page = q.Page
	}
	if q.PageSize > 0 {
		filter.PageSize = q.PageSize
	}

	messages, total, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return nil, 0, shared.Filter{}, err
	}
	responses := make([]MessageResponse, len(messages))
	for i := range messages {
		responses[i] = ToMessageResponse(&messages[i])
	}
	return responses, total, filter.Filter, nil
}

// GetByID returns one message
func (s *InboxService) GetByID(ctx context.Context, actor identity.Principal, id uuid.UUID) (*MessageResponse, error) {
	if err := actor.RequireAdmin(); err != nil {
		return nil, err
	}
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToMessageResponse(m)
	return &response, nil
}

// Reply answers a message; the sender is emailed asynchronously
func (s *InboxService) Reply(ctx context.Context, actor identity.Principal, id uuid.UUID, req ReplyRequest) (*MessageResponse, error) {
	return s.change(ctx, actor, id, "replied", func(m *support.ContactMessage) error {
		return m.Answer(req.Reply, actor)
	})
}

// Close ends a thread
func (s *InboxService) Close(ctx context.Context, actor identity.Principal, id uuid.UUID) (*MessageResponse, error) {
	return s.change(ctx, actor, id, "closed", func(m *support.ContactMessage) error {
		return m.Close(actor)
	})
}

func (s *InboxService) change(ctx context.Context, actor identity.Principal, id uuid.UUID, action string, apply func(*support.ContactMessage) error) (*MessageResponse, error) {
	if err := actor.RequireAdmin(); err != nil {
		return nil, err
	}
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := apply(m); err != nil {
		return nil, err
	}
	if err := s.repo.SaveWithLock(ctx, m); err != nil {
		return nil, err
	}
	s.publish(ctx, m)
	s.logger.Info("contact message "+action,
		zap.String("message_id", id.String()),
		zap.String("actor_id", actor.ID.String()),
	)

	response := ToMessageResponse(m)
	return &response, nil
}

func (s *InboxService) publish(ctx context.Context, m *support.ContactMessage) {
	defer m.ClearDomainEvents()
	if s.eventPublisher == nil {
		return
	}
	for _, event := range m.GetDomainEvents() {
		if err := s.eventPublisher.Publish(ctx, event); err != nil {
			s.logger.Warn("failed to publish contact message event",
				zap.String("event_type", event.EventType()),
				zap.Error(err),
			)
		}
	}
}
