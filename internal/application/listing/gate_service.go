// Package listing serves the public listing and product queries behind the
// vendor visibility gate.
package listing

import (
	"context"

	"github.com/google/uuid"
	"github.com/safarhub/backend/internal/domain/catalog"
	"github.com/safarhub/backend/internal/domain/listing"
	"github.com/safarhub/backend/internal/domain/shared"
	"github.com/safarhub/backend/internal/domain/vendor"
	"github.com/safarhub/backend/internal/infrastructure/telemetry"
)

// productsKind labels product queries in metrics
const productsKind = "product"

// VisibleVendorSource resolves the IDs of approved, unlocked vendors
type VisibleVendorSource interface {
	FindVisibleIDs(ctx context.Context) ([]uuid.UUID, error)
}

// QueryRecorder observes gated queries
type QueryRecorder interface {
	RecordListingQuery(ctx context.Context, kind string, visibleVendors int)
}

// GateService answers public listing queries. Every query first resolves the
// visible vendor set, then restricts the owner field to it.
type GateService struct {
	visible     VisibleVendorSource
	listingRepo listing.ListingRepository
	productRepo catalog.ProductRepository
	recorder    QueryRecorder
}

// NewGateService creates a new GateService
func NewGateService(visible VisibleVendorSource, listingRepo listing.ListingRepository, productRepo catalog.ProductRepository) *GateService {
	return &GateService{
		visible:     visible,
		listingRepo: listingRepo,
		productRepo: productRepo,
	}
}

// SetRecorder sets the metrics recorder
func (s *GateService) SetRecorder(recorder QueryRecorder) {
	s.recorder = recorder
}

// VisibleSet resolves the current visible vendor set
func (s *GateService) VisibleSet(ctx context.Context) (vendor.VisibleSet, error) {
	ids, err := s.visible.FindVisibleIDs(ctx)
	if err != nil {
		return vendor.VisibleSet{}, err
	}
	return vendor.NewVisibleSet(ids), nil
}

// ListListings lists visible listings of one kind. kind accepts the plural
// path form ("vehicle-rentals") or the stored value.
func (s *GateService) ListListings(ctx context.Context, kindParam string, q ListingQuery) ([]ListingResponse, int64, shared.Filter, error) {
	kind, err := listing.ParseKind(kindParam)
	if err != nil {
		return nil, 0, shared.Filter{}, err
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "listing", "list",
		telemetry.WithAttribute(telemetry.SpanAttrListingKind, string(kind)))
	defer span.End()

	set, err := s.VisibleSet(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, 0, shared.Filter{}, err
	}
	s.record(ctx, string(kind), set.Len())

	filter := listing.ListingFilter{Filter: toFilter(q), Location: q.Location}
	listings, total, err := s.listingRepo.FindByOwners(ctx, kind, set.IDs(), filter)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, 0, shared.Filter{}, err
	}

	responses := make([]ListingResponse, len(listings))
	for i := range listings {
		responses[i] = ToListingResponse(&listings[i])
	}
	return responses, total, filter.Filter, nil
}

// ListProducts lists products sold by visible vendors plus every
// admin-owned product.
func (s *GateService) ListProducts(ctx context.Context, q ListingQuery) ([]ProductResponse, int64, shared.Filter, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "listing", "list_products")
	defer span.End()

	set, err := s.VisibleSet(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, 0, shared.Filter{}, err
	}
	s.record(ctx, productsKind, set.Len())

	filter := catalog.ProductFilter{Filter: toFilter(q)}
	products, total, err := s.productRepo.FindPublic(ctx, set.IDs(), true, filter)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, 0, shared.Filter{}, err
	}

	responses := make([]ProductResponse, len(products))
	for i := range products {
		responses[i] = ToProductResponse(&products[i])
	}
	return responses, total, filter.Filter, nil
}

// GetProduct returns a product if its seller passes the gate
func (s *GateService) GetProduct(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !product.IsAdminOwned() {
		set, err := s.VisibleSet(ctx)
		if err != nil {
			return nil, err
		}
		if !set.Contains(*product.SellerID) {
			// Hidden products are indistinguishable from missing ones
			return nil, shared.ErrNotFound
		}
	}
	response := ToProductResponse(product)
	return &response, nil
}

func (s *GateService) record(ctx context.Context, kind string, visible int) {
	if s.recorder != nil {
		s.recorder.RecordListingQuery(ctx, kind, visible)
	}
}

func toFilter(q ListingQuery) shared.Filter {
	f := shared.DefaultFilter()
	f.Search = q.Search
	if q.Page > 0 {
		f.Page = q.Page
	}
	if q.PageSize > 0 {
		f.PageSize = q.PageSize
	}
	if q.OrderBy != "" {
		f.OrderBy = q.OrderBy
	}
	if q.OrderDir != "" {
		f.OrderDir = q.OrderDir
	}
	return f
}
