package handler

import (
	couponapp "github.com/safarhub/backend/internal/application/coupon"
	"github.com/gin-gonic/gin"
)

// CouponHandler handles coupon administration and checkout evaluation
type CouponHandler struct {
	BaseHandler
	couponService *couponapp.CouponService
}

// NewCouponHandler creates a new CouponHandler
func NewCouponHandler(couponService *couponapp.CouponService) *CouponHandler {
	return &CouponHandler{
		couponService: couponService,
	}
}

// Create adds a coupon
//
//	POST /admin/coupons
func (h *CouponHandler) Create(c *gin.Context) {
	var req couponapp.CreateCouponRequest
	if !h.BindJSON(c, &req) {
		return
	}

	coupon, err := h.couponService.Create(c.Request.Context(), principal(c), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, coupon)
}

// List returns coupons
//
//	GET /admin/coupons
func (h *CouponHandler) List(c *gin.Context) {
	var filter couponapp.CouponListFilter
	if !h.BindQuery(c, &filter) {
		return
	}

	coupons, total, applied, err := h.couponService.List(c.Request.Context(), principal(c), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, coupons, total, applied.Page, applied.PageSize)
}

// GetByID returns a coupon
//
//	GET /admin/coupons/:id
func (h *CouponHandler) GetByID(c *gin.Context) {
	id, ok := h.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	coupon, err := h.couponService.GetByID(c.Request.Context(), principal(c), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, coupon)
}

// Update edits a coupon
//
//	PATCH /admin/coupons/:id
func (h *CouponHandler) Update(c *gin.Context) {
	id, ok := h.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req couponapp.UpdateCouponRequest
	if !h.BindJSON(c, &req) {
		return
	}

	coupon, err := h.couponService.Update(c.Request.Context(), principal(c), id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, coupon)
}

// Delete removes a coupon
//
//	DELETE /admin/coupons/:id
func (h *CouponHandler) Delete(c *gin.Context) {
	id, ok := h.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.couponService.Delete(c.Request.Context(), principal(c), id); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// Validate checks a code against a subtotal without consuming it
//
//	POST /coupons/validate
func (h *CouponHandler) Validate(c *gin.Context) {
	var req couponapp.ApplyCouponRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.couponService.Validate(c.Request.Context(), principal(c), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// Redeem evaluates a code and consumes one use
//
//	POST /coupons/redeem
func (h *CouponHandler) Redeem(c *gin.Context) {
	var req couponapp.ApplyCouponRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.couponService.Redeem(c.Request.Context(), principal(c), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}
