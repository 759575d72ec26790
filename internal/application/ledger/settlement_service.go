// Package ledger serves vendor settlements and payout transactions.
package ledger

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/safarhub/backend/internal/domain/identity"
	"github.com/safarhub/backend/internal/domain/ledger"
	"github.com/safarhub/backend/internal/domain/shared"
	"github.com/safarhub/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// StatementStore keeps exported statements and hands back a download link
type StatementStore interface {
	SaveStatement(ctx context.Context, name string, body []byte) (string, time.Time, error)
}

// SettlementService handles settlement creation, listing and payout updates
type SettlementService struct {
	repo           ledger.SettlementRepository
	store          StatementStore
	eventPublisher shared.EventPublisher
	now            func() time.Time
	logger         *zap.Logger
}

// NewSettlementService creates a new SettlementService
func NewSettlementService(repo ledger.SettlementRepository, logger *zap.Logger) *SettlementService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettlementService{
		repo:   repo,
		now:    time.Now,
		logger: logger,
	}
}

// SetEventPublisher sets the event publisher for the service
func (s *SettlementService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetStatementStore enables uploading exports instead of returning them inline
func (s *SettlementService) SetStatementStore(store StatementStore) {
	s.store = store
}

// CreateFromBooking derives a pending settlement from a completed booking.
// Redelivery of the same booking returns the settlement created the first time.
func (s *SettlementService) CreateFromBooking(ctx context.Context, b ledger.BookingCompleted) (*SettlementResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "settlement", "create_from_booking",
		telemetry.WithAttribute(telemetry.SpanAttrBookingID, b.BookingID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrVendorID, b.VendorID.String()))
	defer span.End()

	settlement, err := ledger.NewSettlementFromBooking(b)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, settlement); err != nil {
		if !errors.Is(err, shared.ErrAlreadyExists) {
			telemetry.RecordError(span, err)
			return nil, err
		}
		existing, findErr := s.repo.FindByBookingID(ctx, b.BookingID)
		if findErr != nil {
			return nil, findErr
		}
		s.logger.Debug("settlement already recorded for booking",
			zap.String("booking_id", b.BookingID.String()),
			zap.String("settlement_id", existing.ID.String()),
		)
		response := ToSettlementResponse(existing)
		return &response, nil
	}

	s.publish(ctx, settlement)
	s.logger.Info("settlement created",
		zap.String("settlement_id", settlement.ID.String()),
		zap.String("booking_id", b.BookingID.String()),
		zap.String("vendor_id", b.VendorID.String()),
		zap.String("amount_due", b.AmountDue.String()),
	)

	response := ToSettlementResponse(settlement)
	return &response, nil
}

// HandleBooking adapts CreateFromBooking to the booking consumer callback
func (s *SettlementService) HandleBooking(ctx context.Context, b ledger.BookingCompleted) error {
	_, err := s.CreateFromBooking(ctx, b)
	return err
}

// List returns settlements visible to the actor
func (s *SettlementService) List(ctx context.Context, actor identity.Principal, q LedgerQuery) ([]SettlementResponse, int64, shared.Filter, error) {
	filter, err := toLedgerFilter(actor, q, ledger.ParseSettlementStatus)
	if err != nil {
		return nil, 0, shared.Filter{}, err
	}

	settlements, total, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return nil, 0, shared.Filter{}, err
	}
	responses := make([]SettlementResponse, len(settlements))
	for i := range settlements {
		responses[i] = ToSettlementResponse(&settlements[i])
	}
	return responses, total, filter.Filter, nil
}

// GetByID returns one settlement. Another vendor's settlement reads as not found.
func (s *SettlementService) GetByID(ctx context.Context, actor identity.Principal, id uuid.UUID) (*SettlementResponse, error) {
	if err := actor.RequireAny(identity.AccountTypeAdmin, identity.AccountTypeVendor); err != nil {
		return nil, err
	}
	settlement, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ledger.CanView(actor, settlement.VendorID) {
		return nil, shared.ErrNotFound
	}
	response := ToSettlementResponse(settlement)
	return &response, nil
}

// Update applies an edit. Vendors may only change notes on their own settlements.
func (s *SettlementService) Update(ctx context.Context, actor identity.Principal, id uuid.UUID, req UpdateSettlementRequest) (*SettlementResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "settlement", "update",
		telemetry.WithAttribute(telemetry.SpanAttrRecordID, id.String()))
	defer span.End()

	if err := actor.RequireAny(identity.AccountTypeAdmin, identity.AccountTypeVendor); err != nil {
		return nil, err
	}

	update := ledger.SettlementUpdate{
		AmountPaid:    req.AmountPaid,
		ScheduledDate: req.ScheduledDate,
		Notes:         req.Notes,
	}
	if req.Status != nil {
		status, err := ledger.ParseSettlementStatus(*req.Status)
		if err != nil {
			return nil, err
		}
		update.Status = &status
	}

	settlement, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ledger.CanView(actor, settlement.VendorID) {
		return nil, shared.ErrNotFound
	}
	if err := settlement.Apply(update, actor); err != nil {
		return nil, err
	}
	if err := s.repo.SaveWithLock(ctx, settlement); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.publish(ctx, settlement)
	s.logger.Info("settlement updated",
		zap.String("settlement_id", id.String()),
		zap.String("status", settlement.Status.String()),
		zap.String("actor_id", actor.ID.String()),
	)

	response := ToSettlementResponse(settlement)
	return &response, nil
}

var statementHeader = []string{
	"settlement_id", "booking_id", "stay_id", "vendor_id", "status",
	"amount_due", "amount_paid", "outstanding", "scheduled_date", "paid_at", "notes",
}

// Export renders the settlements matching q as a CSV statement. Paging is
// ignored so the statement covers every matching row.
func (s *SettlementService) Export(ctx context.Context, actor identity.Principal, q LedgerQuery) (*StatementResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "settlement", "export")
	defer span.End()

	filter, err := toLedgerFilter(actor, q, ledger.ParseSettlementStatus)
	if err != nil {
		return nil, err
	}
	filter.Page = 0
	filter.OrderBy = "scheduled_date"
	filter.OrderDir = "asc"

	settlements, _, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	body, err := renderStatement(settlements)
	if err != nil {
		return nil, err
	}

	scope := "all"
	if filter.VendorID != nil {
		scope = filter.VendorID.String()
	}
	statement := &StatementResponse{
		FileName: fmt.Sprintf("settlements-%s-%s.csv", scope, s.now().UTC().Format("20060102-150405")),
		Rows:     len(settlements),
	}

	if s.store == nil {
		statement.Content = body
		return statement, nil
	}
	url, expiresAt, err := s.store.SaveStatement(ctx, statement.FileName, body)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	statement.URL = url
	statement.ExpiresAt = &expiresAt
	return statement, nil
}

func renderStatement(settlements []ledger.Settlement) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(statementHeader); err != nil {
		return nil, err
	}
	for i := range settlements {
		st := &settlements[i]
		paidAt := ""
		if st.PaidAt != nil {
			paidAt = st.PaidAt.UTC().Format(time.RFC3339)
		}
		record := []string{
			st.ID.String(),
			st.BookingID.String(),
			st.StayID.String(),
			st.VendorID.String(),
			st.Status.String(),
			st.AmountDue.StringFixed(2),
			st.AmountPaid.StringFixed(2),
			st.Outstanding().StringFixed(2),
			st.ScheduledDate.UTC().Format("2006-01-02"),
			paidAt,
			st.Notes,
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *SettlementService) publish(ctx context.Context, settlement *ledger.Settlement) {
	defer settlement.ClearDomainEvents()
	if s.eventPublisher == nil {
		return
	}
	for _, event := range settlement.GetDomainEvents() {
		if err := s.eventPublisher.Publish(ctx, event); err != nil {
			s.logger.Warn("failed to publish settlement event",
				zap.String("event_type", event.EventType()),
				zap.String("settlement_id", settlement.ID.String()),
				zap.Error(err),
			)
		}
	}
}

// toLedgerFilter scopes a listing query to what the actor may see
func toLedgerFilter(actor identity.Principal, q LedgerQuery, parse func(string) (ledger.Status, error)) (ledger.LedgerFilter, error) {
	vendorID, err := ledger.ScopeVendor(actor, q.VendorID)
	if err != nil {
		return ledger.LedgerFilter{}, err
	}

	filter := ledger.LedgerFilter{
		Filter:   shared.DefaultFilter(),
		VendorID: vendorID,
		From:     q.From,
		To:       q.To,
	}
	if q.Status != "" {
		status, err := parse(q.Status)
		if err != nil {
			return ledger.LedgerFilter{}, err
		}
		filter.Status = &status
	}
	if q.From != nil && q.To != nil && q.To.Before(*q.From) {
		return ledger.LedgerFilter{}, shared.NewDomainError("INVALID_DATE_RANGE", "End date must not be before start date")
	}
	if q.Page > 0 {
		filter.Page = q.Page
	}
	if q.PageSize > 0 {
		filter.PageSize = q.PageSize
	}
	if q.OrderBy != "" {
		filter.OrderBy = q.OrderBy
	}
	if q.OrderDir != "" {
		filter.OrderDir = q.OrderDir
	}
	return filter, nil
}
