package handler

import (
	"context"

	vendorapp "github.com/safarhub/backend/internal/application/vendor"
	"github.com/safarhub/backend/internal/domain/identity"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// VendorHandler handles the admin vendor moderation endpoints
type VendorHandler struct {
	BaseHandler
	vendorService *vendorapp.VendorService
}

// NewVendorHandler creates a new VendorHandler
func NewVendorHandler(vendorService *vendorapp.VendorService) *VendorHandler {
	return &VendorHandler{
		vendorService: vendorService,
	}
}

// List returns vendors filtered by approval and lock state
//
//	GET /admin/vendors
func (h *VendorHandler) List(c *gin.Context) {
	var filter vendorapp.VendorListFilter
	if !h.BindQuery(c, &filter) {
		return
	}

	vendors, total, err := h.vendorService.List(c.Request.Context(), principal(c), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	h.SuccessWithMeta(c, vendors, total, filter.Page, filter.PageSize)
}

// GetByID returns one vendor
//
//	GET /admin/vendors/:id
func (h *VendorHandler) GetByID(c *gin.Context) {
	h.withVendor(c, h.vendorService.GetByID)
}

// Accept approves a vendor and clears any lock
//
//	POST /admin/vendors/:id/accept
func (h *VendorHandler) Accept(c *gin.Context) {
	h.withVendor(c, h.vendorService.Accept)
}

// Reject withdraws a vendor's approval
//
//	POST /admin/vendors/:id/reject
func (h *VendorHandler) Reject(c *gin.Context) {
	h.withVendor(c, h.vendorService.Reject)
}

// Lock hides an approved vendor's listings
//
//	POST /admin/vendors/:id/lock
func (h *VendorHandler) Lock(c *gin.Context) {
	h.withVendor(c, h.vendorService.Lock)
}

// Unlock lifts a vendor lock
//
//	POST /admin/vendors/:id/unlock
func (h *VendorHandler) Unlock(c *gin.Context) {
	h.withVendor(c, h.vendorService.Unlock)
}

// Delete removes a vendor together with all of its listings
//
//	DELETE /admin/vendors/:id
func (h *VendorHandler) Delete(c *gin.Context) {
	id, ok := h.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	result, err := h.vendorService.Delete(c.Request.Context(), principal(c), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

type vendorAction func(ctx context.Context, actor identity.Principal, id uuid.UUID) (*vendorapp.VendorResponse, error)

func (h *VendorHandler) withVendor(c *gin.Context, action vendorAction) {
	id, ok := h.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	vendor, err := action(c.Request.Context(), principal(c), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, vendor)
}
