package handler

import (
	supportapp "github.com/safarhub/backend/internal/application/support"
	"github.com/gin-gonic/gin"
)

// SupportHandler handles the public contact form and the admin inbox
type SupportHandler struct {
	BaseHandler
	inboxService *supportapp.InboxService
}

// NewSupportHandler creates a new SupportHandler
func NewSupportHandler(inboxService *supportapp.InboxService) *SupportHandler {
	return &SupportHandler{
		inboxService: inboxService,
	}
}

// Submit stores a contact message. No authentication required.
//
//	POST /support/messages
func (h *SupportHandler) Submit(c *gin.Context) {
	var req supportapp.SubmitMessageRequest
	if !h.BindJSON(c, &req) {
		return
	}

	msg, err := h.inboxService.Submit(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, msg)
}

// List returns inbox messages
//
//	GET /admin/support/messages
func (h *SupportHandler) List(c *gin.Context) {
	var q supportapp.MessageQuery
	if !h.BindQuery(c, &q) {
		return
	}

	msgs, total, filter, err := h.inboxService.List(c.Request.Context(), principal(c), q)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, msgs, total, filter.Page, filter.PageSize)
}

// GetByID returns one message
//
//	GET /admin/support/messages/:id
func (h *SupportHandler) GetByID(c *gin.Context) {
	id, ok := h.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	msg, err := h.inboxService.GetByID(c.Request.Context(), principal(c), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, msg)
}

// Reply answers a message and emails the sender
//
//	POST /admin/support/messages/:id/reply
func (h *SupportHandler) Reply(c *gin.Context) {
	id, ok := h.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req supportapp.ReplyRequest
	if !h.BindJSON(c, &req) {
		return
	}

	msg, err := h.inboxService.Reply(c.Request.Context(), principal(c), id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, msg)
}

// Close archives a message
//
//	POST /admin/support/messages/:id/close
func (h *SupportHandler) Close(c *gin.Context) {
	id, ok := h.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	msg, err := h.inboxService.Close(c.Request.Context(), principal(c), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, msg)
}
