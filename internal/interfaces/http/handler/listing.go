package handler

import (
	listingapp "github.com/safarhub/backend/internal/application/listing"
	"github.com/gin-gonic/gin"
)

// ListingHandler serves the public catalog. Every query is restricted to
// listings owned by approved, unlocked vendors.
type ListingHandler struct {
	BaseHandler
	gateService *listingapp.GateService
}

// NewListingHandler creates a new ListingHandler
func NewListingHandler(gateService *listingapp.GateService) *ListingHandler {
	return &ListingHandler{
		gateService: gateService,
	}
}

// ListListings returns visible listings of one kind
//
//	GET /listings/:kind
func (h *ListingHandler) ListListings(c *gin.Context) {
	var q listingapp.ListingQuery
	if !h.BindQuery(c, &q) {
		return
	}

	listings, total, filter, err := h.gateService.ListListings(c.Request.Context(), c.Param("kind"), q)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, listings, total, filter.Page, filter.PageSize)
}

// ListProducts returns products from visible vendors and the marketplace
//
//	GET /products
func (h *ListingHandler) ListProducts(c *gin.Context) {
	var q listingapp.ListingQuery
	if !h.BindQuery(c, &q) {
		return
	}

	products, total, filter, err := h.gateService.ListProducts(c.Request.Context(), q)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, products, total, filter.Page, filter.PageSize)
}

// GetProduct returns one product; products of hidden vendors read as missing
//
//	GET /products/:id
func (h *ListingHandler) GetProduct(c *gin.Context) {
	id, ok := h.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	product, err := h.gateService.GetProduct(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, product)
}
