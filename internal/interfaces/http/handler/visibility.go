package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	catalogapp "github.com/catalogportal/backend/internal/application/catalog"
)

// VisibilityHandler handles retailer field visibility endpoints
type VisibilityHandler struct {
	BaseHandler
	visibilityService *catalogapp.VisibilityService
}

// NewVisibilityHandler creates a new VisibilityHandler
func NewVisibilityHandler(visibilityService *catalogapp.VisibilityService) *VisibilityHandler {
	return &VisibilityHandler{visibilityService: visibilityService}
}

// visibilityAllResponse is the customization page payload: every retailer
// with stored or pending state, plus the default rule for absent retailers
type visibilityAllResponse struct {
	Retailers []catalogapp.VisibilityResponse `json:"retailers"`
	Default   any                             `json:"default"`
}

// GetAll returns resolved visibility for every retailer with state
func (h *VisibilityHandler) GetAll(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant identity")
		return
	}

	retailers, defaults, err := h.visibilityService.ResolveAll(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, visibilityAllResponse{Retailers: retailers, Default: defaults})
}

// GetForRetailer returns resolved visibility for one retailer
func (h *VisibilityHandler) GetForRetailer(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant identity")
		return
	}

	retailerID, err := uuid.Parse(c.Param("retailerId"))
	if err != nil {
		h.BadRequest(c, "Invalid retailer ID format")
		return
	}

	resolved, err := h.visibilityService.Resolve(c.Request.Context(), tenantID, retailerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resolved)
}

// ToggleField flips a boolean field in the retailer's edit session
func (h *VisibilityHandler) ToggleField(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant identity")
		return
	}

	retailerID, err := uuid.Parse(c.Param("retailerId"))
	if err != nil {
		h.BadRequest(c, "Invalid retailer ID format")
		return
	}
	field := c.Param("field")
	if field == "" {
		h.BadRequest(c, "Field name is required")
		return
	}

	resolved, err := h.visibilityService.ToggleField(c.Request.Context(), tenantID, retailerID, field)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resolved)
}

// SetAccountFilter stores the retailer's external account filter
func (h *VisibilityHandler) SetAccountFilter(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant identity")
		return
	}

	retailerID, err := uuid.Parse(c.Param("retailerId"))
	if err != nil {
		h.BadRequest(c, "Invalid retailer ID format")
		return
	}

	var req catalogapp.AccountFilterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	resolved, err := h.visibilityService.SetAccountFilter(c.Request.Context(), tenantID, retailerID, req.Raw)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resolved)
}

// Commit persists the named retailers that carry pending edits
func (h *VisibilityHandler) Commit(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant identity")
		return
	}

	var req catalogapp.CommitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	retailerIDs := make([]uuid.UUID, 0, len(req.RetailerIDs))
	for _, raw := range req.RetailerIDs {
		retailerID, parseErr := uuid.Parse(raw)
		if parseErr != nil {
			h.BadRequest(c, "Invalid retailer ID format")
			return
		}
		retailerIDs = append(retailerIDs, retailerID)
	}

	result, err := h.visibilityService.CommitChanges(c.Request.Context(), tenantID, retailerIDs)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// RegisterRoutes registers all visibility routes
func (h *VisibilityHandler) RegisterRoutes(rg *gin.RouterGroup) {
	visibility := rg.Group("/visibility")
	{
		visibility.GET("", h.GetAll)
		visibility.GET("/:retailerId", h.GetForRetailer)
		visibility.POST("/:retailerId/field/:field", h.ToggleField)
		visibility.POST("/:retailerId/account-filter", h.SetAccountFilter)
		visibility.POST("/commit", h.Commit)
	}
}
