package handler

import (
	appbilling "github.com/costledger/backend/internal/application/billing"
	"github.com/costledger/backend/internal/application/split"
	"github.com/costledger/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// BillHandler serves original and ledger bill endpoints. Bills are
// created and listed through their period; single-bill reads and
// updates address the bill directly.
type BillHandler struct {
	BaseHandler
	billService  *appbilling.BillService
	splitService *split.SplitService
}

// NewBillHandler creates a new BillHandler
func NewBillHandler(billService *appbilling.BillService, splitService *split.SplitService) *BillHandler {
	return &BillHandler{
		billService:  billService,
		splitService: splitService,
	}
}

// RegisterRoutes registers bill routes
func (h *BillHandler) RegisterRoutes(rg *gin.RouterGroup) {
	periods := rg.Group("/periods/:id")
	{
		periods.GET("/original-bills", h.ListOriginalBills)
		periods.POST("/original-bills", h.CreateOriginalBill)
		periods.GET("/ledger-bills", h.ListLedgerBills)
	}

	originals := rg.Group("/original-bills")
	{
		originals.GET("/:id", h.GetOriginalBill)
		originals.PUT("/:id", h.UpdateOriginalBill)
	}

	ledgers := rg.Group("/ledger-bills")
	{
		ledgers.GET("/:id", h.GetLedgerBill)
		ledgers.PUT("/:id", h.UpdateLedgerBill)
		ledgers.POST("/:id/split", h.SplitLedgerBill)
	}
}

// ListOriginalBills returns a paginated list of original bills in a period
func (h *BillHandler) ListOriginalBills(c *gin.Context) {
	periodID, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid period ID")
		return
	}

	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	result, err := h.billService.ListOriginalBills(c.Request.Context(), periodID, req.ToFilter())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// CreateOriginalBill adds an original bill to a period
func (h *BillHandler) CreateOriginalBill(c *gin.Context) {
	periodID, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid period ID")
		return
	}

	var payload appbilling.BillPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	bill, err := h.billService.CreateOriginalBill(c.Request.Context(), periodID, payload)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, bill)
}

// GetOriginalBill returns a single original bill by ID
func (h *BillHandler) GetOriginalBill(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid bill ID")
		return
	}

	bill, err := h.billService.GetOriginalBill(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, bill)
}

// UpdateOriginalBill replaces the attributes of an original bill
func (h *BillHandler) UpdateOriginalBill(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid bill ID")
		return
	}

	var payload appbilling.BillPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	bill, err := h.billService.UpdateOriginalBill(c.Request.Context(), id, payload)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, bill)
}

// ListLedgerBills returns a paginated list of ledger bills in a period
func (h *BillHandler) ListLedgerBills(c *gin.Context) {
	periodID, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid period ID")
		return
	}

	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	result, err := h.billService.ListLedgerBills(c.Request.Context(), periodID, req.ToFilter())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// GetLedgerBill returns a single ledger bill by ID
func (h *BillHandler) GetLedgerBill(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid bill ID")
		return
	}

	bill, err := h.billService.GetLedgerBill(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, bill)
}

// UpdateLedgerBill replaces the attributes of a ledger bill
func (h *BillHandler) UpdateLedgerBill(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid bill ID")
		return
	}

	var payload appbilling.BillPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	bill, err := h.billService.UpdateLedgerBill(c.Request.Context(), id, payload)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, bill)
}

// SplitLedgerBill replaces one ledger bill with the given replacement
// bills, which must preserve its actually paid amount.
func (h *BillHandler) SplitLedgerBill(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid bill ID")
		return
	}

	var payloads []appbilling.BillPayload
	if err := c.ShouldBindJSON(&payloads); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	if err := h.splitService.SplitLedgerBill(c.Request.Context(), id, payloads); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
