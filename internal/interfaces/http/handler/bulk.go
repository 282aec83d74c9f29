package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/costledger/backend/internal/application/bulk"
	"github.com/costledger/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// BulkHandler serves CSV import and export endpoints for bills and
// split rules. Uploads arrive either as a multipart "file" field or as
// a raw request body.
type BulkHandler struct {
	BaseHandler
	billImport  *bulk.BillImportService
	ruleImport  *bulk.RuleImportService
	maxFileSize int64
}

// NewBulkHandler creates a new BulkHandler
func NewBulkHandler(billImport *bulk.BillImportService, ruleImport *bulk.RuleImportService, maxFileSize int64) *BulkHandler {
	return &BulkHandler{
		billImport:  billImport,
		ruleImport:  ruleImport,
		maxFileSize: maxFileSize,
	}
}

// RegisterRoutes registers bulk import/export routes
func (h *BulkHandler) RegisterRoutes(rg *gin.RouterGroup) {
	periods := rg.Group("/periods/:id")
	{
		periods.POST("/original-bills/import", h.ImportOriginalBills)
		periods.GET("/original-bills/export", h.ExportOriginalBills)
		periods.GET("/ledger-bills/export", h.ExportLedgerBills)
		periods.POST("/split-rules/import", h.ImportSplitRules)
	}
}

// readUpload reads the uploaded CSV payload, preferring a multipart
// "file" field and falling back to the raw body.
func (h *BulkHandler) readUpload(c *gin.Context) ([]byte, error) {
	if file, err := c.FormFile("file"); err == nil {
		if file.Size > h.maxFileSize {
			return nil, fmt.Errorf("file exceeds the %d byte limit", h.maxFileSize)
		}
		f, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("open uploaded file: %w", err)
		}
		defer f.Close()
		return io.ReadAll(io.LimitReader(f, h.maxFileSize))
	}

	data, err := io.ReadAll(io.LimitReader(c.Request.Body, h.maxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("read request body: %w", err)
	}
	if int64(len(data)) > h.maxFileSize {
		return nil, fmt.Errorf("file exceeds the %d byte limit", h.maxFileSize)
	}
	return data, nil
}

// ImportOriginalBills imports original bills from an uploaded CSV file
func (h *BulkHandler) ImportOriginalBills(c *gin.Context) {
	periodID, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid period ID")
		return
	}

	data, err := h.readUpload(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeImportFile, err.Error(), getRequestID(c)))
		return
	}

	result, err := h.billImport.ImportOriginalBills(c.Request.Context(), periodID, data)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// ImportSplitRules imports split rules from an uploaded CSV file
func (h *BulkHandler) ImportSplitRules(c *gin.Context) {
	periodID, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid period ID")
		return
	}

	data, err := h.readUpload(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeImportFile, err.Error(), getRequestID(c)))
		return
	}

	result, err := h.ruleImport.ImportSplitRules(c.Request.Context(), periodID, data)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// ExportOriginalBills streams the original bills of a period as CSV
func (h *BulkHandler) ExportOriginalBills(c *gin.Context) {
	h.exportCSV(c, "original-bills", h.billImport.ExportOriginalBills)
}

// ExportLedgerBills streams the ledger bills of a period as CSV
func (h *BulkHandler) ExportLedgerBills(c *gin.Context) {
	h.exportCSV(c, "ledger-bills", h.billImport.ExportLedgerBills)
}

func (h *BulkHandler) exportCSV(c *gin.Context, name string, export func(ctx context.Context, periodID uuid.UUID) ([]byte, error)) {
	periodID, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid period ID")
		return
	}

	data, err := export(c.Request.Context(), periodID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	filename := fmt.Sprintf("%s-%s.csv", name, periodID)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}
