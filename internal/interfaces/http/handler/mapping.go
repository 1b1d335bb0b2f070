package handler

import (
	"github.com/gin-gonic/gin"

	catalogapp "github.com/catalogportal/backend/internal/application/catalog"
)

// MappingHandler handles field mapping endpoints
type MappingHandler struct {
	BaseHandler
	mappingService *catalogapp.FieldMappingService
}

// NewMappingHandler creates a new MappingHandler
func NewMappingHandler(mappingService *catalogapp.FieldMappingService) *MappingHandler {
	return &MappingHandler{mappingService: mappingService}
}

// GetFields returns the canonical field list offered for mapping
func (h *MappingHandler) GetFields(c *gin.Context) {
	h.Success(c, h.mappingService.DefaultFields())
}

// GetMapping returns the tenant's stored mapping, empty if never saved
func (h *MappingHandler) GetMapping(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant identity")
		return
	}

	mapping, err := h.mappingService.LoadMapping(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, mapping)
}

// SaveMapping replaces the tenant's mapping wholesale
func (h *MappingHandler) SaveMapping(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant identity")
		return
	}

	var req catalogapp.SaveMappingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	if err := h.mappingService.SaveMapping(c.Request.Context(), tenantID, req); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, catalogapp.MappingResponse{Mapping: req.Mapping})
}

// RegisterRoutes registers all mapping routes
func (h *MappingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	mapping := rg.Group("/mapping")
	{
		mapping.GET("", h.GetMapping)
		mapping.POST("", h.SaveMapping)
		mapping.GET("/fields", h.GetFields)
	}
}
