package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/safarhub/backend/internal/domain/identity"
	"github.com/safarhub/backend/internal/domain/ledger"
	"github.com/safarhub/backend/internal/domain/shared"
	"github.com/safarhub/backend/internal/domain/vendor"
	"github.com/safarhub/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// VendorLookup resolves payout targets
type VendorLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*vendor.Vendor, error)
}

// TransactionService handles admin-scheduled payouts
type TransactionService struct {
	repo           ledger.TransactionRepository
	vendors        VendorLookup
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewTransactionService creates a new TransactionService
func NewTransactionService(repo ledger.TransactionRepository, vendors VendorLookup, logger *zap.Logger) *TransactionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TransactionService{repo: repo, vendors: vendors, logger: logger}
}

// SetEventPublisher sets the event publisher for the service
func (s *TransactionService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create schedules a pending payout
func (s *TransactionService) Create(ctx context.Context, actor identity.Principal, req CreateTransactionRequest) (*TransactionResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "transaction", "create",
		telemetry.WithAttribute(telemetry.SpanAttrVendorID, req.VendorID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrAmount, req.Amount.String()))
	defer span.End()

	tx, err := ledger.NewTransaction(ledger.NewTransactionInput{
		VendorID:      req.VendorID,
		Message:       req.Message,
		Amount:        req.Amount,
		ScheduledDate: req.ScheduledDate,
	}, actor)
	if err != nil {
		return nil, err
	}
	if _, err := s.vendors.FindByID(ctx, tx.VendorID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ledger.ErrUnknownVendor
		}
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.repo.Create(ctx, tx); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.publish(ctx, tx)
	s.logger.Info("transaction created",
		zap.String("transaction_id", tx.ID.String()),
		zap.String("vendor_id", tx.VendorID.String()),
		zap.String("amount", tx.Amount.String()),
		zap.String("actor_id", actor.ID.String()),
	)

	response := ToTransactionResponse(tx)
	return &response, nil
}

// List returns transactions visible to the actor
func (s *TransactionService) List(ctx context.Context, actor identity.Principal, q LedgerQuery) ([]TransactionResponse, int64, shared.Filter, error) {
	filter, err := toLedgerFilter(actor, q, ledger.ParseTransactionStatus)
	if err != nil {
		return nil, 0, shared.Filter{}, err
	}

	txs, total, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return nil, 0, shared.Filter{}, err
	}
	responses := make([]TransactionResponse, len(txs))
	for i := range txs {
		responses[i] = ToTransactionResponse(&txs[i])
	}
	return responses, total, filter.Filter, nil
}

// GetByID returns one transaction. Another vendor's payout reads as not found.
func (s *TransactionService) GetByID(ctx context.Context, actor identity.Principal, id uuid.UUID) (*TransactionResponse, error) {
	if err := actor.RequireAny(identity.AccountTypeAdmin, identity.AccountTypeVendor); err != nil {
		return nil, err
	}
	tx, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ledger.CanView(actor, tx.VendorID) {
		return nil, shared.ErrNotFound
	}
	response := ToTransactionResponse(tx)
	return &response, nil
}

// Update edits a payout. Admin only.
func (s *TransactionService) Update(ctx context.Context, actor identity.Principal, id uuid.UUID, req UpdateTransactionRequest) (*TransactionResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "transaction", "update",
		telemetry.WithAttribute(telemetry.SpanAttrRecordID, id.String()))
	defer span.End()

	if err := actor.RequireAdmin(); err != nil {
		return nil, err
	}

	update := ledger.TransactionUpdate{
		Message:       req.Message,
		Amount:        req.Amount,
		ScheduledDate: req.ScheduledDate,
	}
	if req.Status != nil {
		status, err := ledger.ParseTransactionStatus(*req.Status)
		if err != nil {
			return nil, err
		}
		update.Status = &status
	}

	tx, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Apply(update, actor); err != nil {
		return nil, err
	}
	if err := s.repo.SaveWithLock(ctx, tx); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.publish(ctx, tx)
	s.logger.Info("transaction updated",
		zap.String("transaction_id", id.String()),
		zap.String("status", tx.Status.String()),
		zap.String("actor_id", actor.ID.String()),
	)

	response := ToTransactionResponse(tx)
	return &response, nil
}

func (s *TransactionService) publish(ctx context.Context, tx *ledger.Transaction) {
	defer tx.ClearDomainEvents()
	if s.eventPublisher == nil {
		return
	}
	for _, event := range tx.GetDomainEvents() {
		if err := s.eventPublisher.Publish(ctx, event); err != nil {
			s.logger.Warn("failed to publish transaction event",
				zap.String("event_type", event.EventType()),
				zap.String("transaction_id", tx.ID.String()),
				zap.Error(err),
			)
		}
	}
}
