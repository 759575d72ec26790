package handler

import (
	orderapp "github.com/safarhub/backend/internal/application/order"
	"github.com/gin-gonic/gin"
)

// FulfillmentHandler exposes the vendor's view of orders containing its
// products and the item-level fulfillment commands
type FulfillmentHandler struct {
	BaseHandler
	fulfillmentService *orderapp.FulfillmentService
}

// NewFulfillmentHandler creates a new FulfillmentHandler
func NewFulfillmentHandler(fulfillmentService *orderapp.FulfillmentService) *FulfillmentHandler {
	return &FulfillmentHandler{
		fulfillmentService: fulfillmentService,
	}
}

// ListOrders returns one row per sold item, newest order first
//
//	GET /vendor/orders?status=
func (h *FulfillmentHandler) ListOrders(c *gin.Context) {
	var q orderapp.VendorOrderQuery
	if !h.BindQuery(c, &q) {
		return
	}

	rows, err := h.fulfillmentService.ListVendorOrders(c.Request.Context(), principal(c), q.Status)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, rows)
}

// Summary returns item counts and sold totals per status
//
//	GET /vendor/orders/summary
func (h *FulfillmentHandler) Summary(c *gin.Context) {
	summary, err := h.fulfillmentService.Summary(c.Request.Context(), principal(c))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, summary)
}

// UpdateItemStatus advances a sold item
//
//	PATCH /vendor/orders/:orderId/items/:itemId/status
func (h *FulfillmentHandler) UpdateItemStatus(c *gin.Context) {
	orderID, ok := h.ParseUUIDParam(c, "orderId")
	if !ok {
		return
	}
	itemID, ok := h.ParseUUIDParam(c, "itemId")
	if !ok {
		return
	}

	var req orderapp.UpdateItemStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}

	item, err := h.fulfillmentService.UpdateItemStatus(c.Request.Context(), principal(c), orderID, itemID, req.Status)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, item)
}

// CancelItem cancels a sold item with a reason
//
//	POST /vendor/orders/:orderId/items/:itemId/cancel
func (h *FulfillmentHandler) CancelItem(c *gin.Context) {
	orderID, ok := h.ParseUUIDParam(c, "orderId")
	if !ok {
		return
	}
	itemID, ok := h.ParseUUIDParam(c, "itemId")
	if !ok {
		return
	}

	var req orderapp.CancelItemRequest
	if !h.BindJSON(c, &req) {
		return
	}

	item, err := h.fulfillmentService.CancelItem(c.Request.Context(), principal(c), orderID, itemID, req.Reason)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, item)
}
