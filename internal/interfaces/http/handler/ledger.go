package handler

import (
	"net/http"

	ledgerapp "github.com/safarhub/backend/internal/application/ledger"
	"github.com/gin-gonic/gin"
)

// csvContentType is the media type of inline statement downloads
const csvContentType = "text/csv; charset=utf-8"

// SettlementHandler serves settlements to admins and to the owning vendor
type SettlementHandler struct {
	BaseHandler
	settlementService *ledgerapp.SettlementService
}

// NewSettlementHandler creates a new SettlementHandler
func NewSettlementHandler(settlementService *ledgerapp.SettlementService) *SettlementHandler {
	return &SettlementHandler{
		settlementService: settlementService,
	}
}

// List returns settlements. Vendors only ever see their own.
//
//	GET /settlements
func (h *SettlementHandler) List(c *gin.Context) {
	var q ledgerapp.LedgerQuery
	if !h.BindQuery(c, &q) {
		return
	}

	settlements, total, filter, err := h.settlementService.List(c.Request.Context(), principal(c), q)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, settlements, total, filter.Page, filter.PageSize)
}

// GetByID returns one settlement
//
//	GET /settlements/:id
func (h *SettlementHandler) GetByID(c *gin.Context) {
	id, ok := h.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	settlement, err := h.settlementService.GetByID(c.Request.Context(), principal(c), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, settlement)
}

// Update changes status, paid amount, schedule or notes
//
//	PATCH /settlements/:id
func (h *SettlementHandler) Update(c *gin.Context) {
	id, ok := h.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req ledgerapp.UpdateSettlementRequest
	if !h.BindJSON(c, &req) {
		return
	}

	settlement, err := h.settlementService.Update(c.Request.Context(), principal(c), id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, settlement)
}

// Export renders matching settlements as a CSV statement. With object
// storage configured the response carries a presigned link; otherwise the
// file itself is returned.
//
//	GET /settlements/export
func (h *SettlementHandler) Export(c *gin.Context) {
	var q ledgerapp.LedgerQuery
	if !h.BindQuery(c, &q) {
		return
	}

	statement, err := h.settlementService.Export(c.Request.Context(), principal(c), q)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	if statement.URL == "" {
		c.Header("Content-Disposition", `attachment; filename="`+statement.FileName+`"`)
		c.Data(http.StatusOK, csvContentType, statement.Content)
		return
	}
	h.Success(c, statement)
}

// TransactionHandler serves payout transactions
type TransactionHandler struct {
	BaseHandler
	transactionService *ledgerapp.TransactionService
}

// NewTransactionHandler creates a new TransactionHandler
func NewTransactionHandler(transactionService *ledgerapp.TransactionService) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
	}
}

// Create schedules a payout. Admin only.
//
//	POST /transactions
func (h *TransactionHandler) Create(c *gin.Context) {
	var req ledgerapp.CreateTransactionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	tx, err := h.transactionService.Create(c.Request.Context(), principal(c), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, tx)
}

// List returns transactions. Vendors only ever see their own.
//
//	GET /transactions
func (h *TransactionHandler) List(c *gin.Context) {
	var q ledgerapp.LedgerQuery
	if !h.BindQuery(c, &q) {
		return
	}

	txs, total, filter, err := h.transactionService.List(c.Request.Context(), principal(c), q)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, txs, total, filter.Page, filter.PageSize)
}

// GetByID returns one transaction
//
//	GET /transactions/:id
func (h *TransactionHandler) GetByID(c *gin.Context) {
	id, ok := h.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	tx, err := h.transactionService.GetByID(c.Request.Context(), principal(c), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, tx)
}

// Update changes a payout. Admin only.
//
//	PATCH /transactions/:id
func (h *TransactionHandler) Update(c *gin.Context) {
	id, ok := h.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req ledgerapp.UpdateTransactionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	tx, err := h.transactionService.Update(c.Request.Context(), principal(c), id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, tx)
}
