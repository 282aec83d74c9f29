package handler

import (
	appbilling "github.com/costledger/backend/internal/application/billing"
	"github.com/costledger/backend/internal/application/split"
	"github.com/costledger/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// BillPeriodHandler serves the billing period lifecycle endpoints
type BillPeriodHandler struct {
	BaseHandler
	periodService *appbilling.BillPeriodService
	splitService  *split.SplitService
}

// NewBillPeriodHandler creates a new BillPeriodHandler
func NewBillPeriodHandler(periodService *appbilling.BillPeriodService, splitService *split.SplitService) *BillPeriodHandler {
	return &BillPeriodHandler{
		periodService: periodService,
		splitService:  splitService,
	}
}

// RegisterRoutes registers billing period routes
func (h *BillPeriodHandler) RegisterRoutes(rg *gin.RouterGroup) {
	periods := rg.Group("/periods")
	{
		periods.GET("", h.List)
		periods.POST("", h.Create)
		periods.GET("/:id", h.Get)
		periods.PATCH("/:id", h.Patch)
		periods.DELETE("/:id", h.Delete)
		periods.POST("/:id/lock", h.Lock)
		periods.POST("/:id/unlock", h.Unlock)
		periods.POST("/:id/split", h.Split)
	}
}

// List returns a paginated list of billing periods
func (h *BillPeriodHandler) List(c *gin.Context) {
	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	result, err := h.periodService.List(c.Request.Context(), req.ToFilter())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// Get returns a single billing period by ID
func (h *BillPeriodHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid period ID")
		return
	}

	period, err := h.periodService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, period)
}

// Create opens a new billing period
func (h *BillPeriodHandler) Create(c *gin.Context) {
	var req appbilling.CreateBillPeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	period, err := h.periodService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, period)
}

// Patch partially updates a billing period
func (h *BillPeriodHandler) Patch(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid period ID")
		return
	}

	var req appbilling.PatchBillPeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	period, err := h.periodService.Patch(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, period)
}

// Delete removes a billing period and everything it contains
func (h *BillPeriodHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid period ID")
		return
	}

	if err := h.periodService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// Lock freezes a billing period against further mutation
func (h *BillPeriodHandler) Lock(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid period ID")
		return
	}

	period, err := h.periodService.Lock(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, period)
}

// Unlock reopens a locked billing period
func (h *BillPeriodHandler) Unlock(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid period ID")
		return
	}

	period, err := h.periodService.Unlock(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, period)
}

// Split runs the split engine over all original bills of the period,
// replacing its ledger bills.
func (h *BillPeriodHandler) Split(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid period ID")
		return
	}

	if err := h.splitService.SplitPeriod(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	period, err := h.periodService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, period)
}
