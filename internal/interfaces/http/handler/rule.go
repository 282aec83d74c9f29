package handler

import (
	appbilling "github.com/costledger/backend/internal/application/billing"
	"github.com/costledger/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// SplitRuleHandler serves split rule endpoints
type SplitRuleHandler struct {
	BaseHandler
	ruleService *appbilling.SplitRuleService
}

// NewSplitRuleHandler creates a new SplitRuleHandler
func NewSplitRuleHandler(ruleService *appbilling.SplitRuleService) *SplitRuleHandler {
	return &SplitRuleHandler{ruleService: ruleService}
}

// RegisterRoutes registers split rule routes
func (h *SplitRuleHandler) RegisterRoutes(rg *gin.RouterGroup) {
	periods := rg.Group("/periods/:id/split-rules")
	{
		periods.GET("", h.List)
		periods.POST("", h.Create)
		periods.PUT("", h.Set)
	}

	rules := rg.Group("/split-rules")
	{
		rules.GET("/:id", h.Get)
		rules.PUT("/:id", h.Update)
	}
}

// List returns a paginated list of split rules in a period
func (h *SplitRuleHandler) List(c *gin.Context) {
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

	result, err := h.ruleService.List(c.Request.Context(), periodID, req.ToFilter())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// Get returns a single split rule by ID
func (h *SplitRuleHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid rule ID")
		return
	}

	rule, err := h.ruleService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, rule)
}

// Create adds a split rule to a period
func (h *SplitRuleHandler) Create(c *gin.Context) {
	periodID, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid period ID")
		return
	}

	var req appbilling.SplitRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	rule, err := h.ruleService.Create(c.Request.Context(), periodID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, rule)
}

// Update replaces the matcher, policy and description of a split rule
func (h *SplitRuleHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid rule ID")
		return
	}

	var req appbilling.SplitRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	rule, err := h.ruleService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, rule)
}

// Set replaces the full ordered rule list of a period
func (h *SplitRuleHandler) Set(c *gin.Context) {
	periodID, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid period ID")
		return
	}

	var reqs []appbilling.SplitRuleRequest
	if err := c.ShouldBindJSON(&reqs); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	rules, err := h.ruleService.Set(c.Request.Context(), periodID, reqs)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, rules)
}
