package handler

import (
	appmeta "github.com/costledger/backend/internal/application/meta"
	"github.com/costledger/backend/internal/domain/meta"
	"github.com/gin-gonic/gin"
)

// MetaHandler serves the reference catalog endpoints
type MetaHandler struct {
	BaseHandler
	metaService *appmeta.MetaService
}

// NewMetaHandler creates a new MetaHandler
func NewMetaHandler(metaService *appmeta.MetaService) *MetaHandler {
	return &MetaHandler{metaService: metaService}
}

// RegisterRoutes registers catalog routes
func (h *MetaHandler) RegisterRoutes(rg *gin.RouterGroup) {
	metas := rg.Group("/metas")
	{
		metas.GET("", h.List)
		metas.POST("", h.Create)
		metas.DELETE("/:id", h.Delete)
	}
	rg.PUT("/metas/businesses", h.SyncBusinesses)
}

// List returns all catalog entries of one kind
func (h *MetaHandler) List(c *gin.Context) {
	kind := meta.Kind(c.Query("kind"))
	if !kind.IsValid() {
		h.BadRequest(c, "Query parameter 'kind' must be one of BUSINESS, BILL_SUBJECT, PROVIDER")
		return
	}

	entries, err := h.metaService.List(c.Request.Context(), kind)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, entries)
}

// Create adds a new catalog entry
func (h *MetaHandler) Create(c *gin.Context) {
	var req appmeta.CreateMetaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	entry, err := h.metaService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, entry)
}

// Delete removes a catalog entry
func (h *MetaHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid meta ID")
		return
	}

	if err := h.metaService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// SyncBusinesses reconciles the business catalog against the given
// authoritative record list
func (h *MetaHandler) SyncBusinesses(c *gin.Context) {
	var records []appmeta.BusinessRecord
	if err := c.ShouldBindJSON(&records); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	if err := h.metaService.SyncBusinesses(c.Request.Context(), records); err != nil {
		h.HandleError(c, err)
		return
	}

	entries, err := h.metaService.List(c.Request.Context(), meta.KindBusiness)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, entries)
}
