package handler

import (
	appreport "github.com/costledger/backend/internal/application/report"
	"github.com/gin-gonic/gin"
)

// ReportHandler serves the cost report read model
type ReportHandler struct {
	BaseHandler
	reportService *appreport.ReportService
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(reportService *appreport.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// RegisterRoutes registers report routes
func (h *ReportHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/periods/:id/report", h.PeriodReport)
	rg.GET("/reports/trend", h.Trend)
}

// PeriodReport returns the cost distribution report of one period
func (h *ReportHandler) PeriodReport(c *gin.Context) {
	periodID, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid period ID")
		return
	}

	report, err := h.reportService.PeriodReport(c.Request.Context(), periodID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, report)
}

// Trend returns the actually-paid trend across all periods
func (h *ReportHandler) Trend(c *gin.Context) {
	trend, err := h.reportService.Trend(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, trend)
}
