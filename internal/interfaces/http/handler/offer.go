package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	catalogapp "github.com/catalogportal/backend/internal/application/catalog"
)

// OfferHandler handles offer endpoints
type OfferHandler struct {
	BaseHandler
	offerService *catalogapp.OfferService
}

// NewOfferHandler creates a new OfferHandler
func NewOfferHandler(offerService *catalogapp.OfferService) *OfferHandler {
	return &OfferHandler{offerService: offerService}
}

// Create creates a new offer
func (h *OfferHandler) Create(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant identity")
		return
	}

	var req catalogapp.CreateOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	offer, err := h.offerService.CreateOffer(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, offer)
}

// List returns every offer for the tenant
func (h *OfferHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant identity")
		return
	}

	offers, err := h.offerService.ListOffers(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, offers)
}

// Delete removes an offer
func (h *OfferHandler) Delete(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant identity")
		return
	}

	offerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid offer ID format")
		return
	}

	if err := h.offerService.DeleteOffer(c.Request.Context(), tenantID, offerID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// VisibleForRetailer returns the offers currently active for a retailer.
// An optional base_price query computes the clamped sale price per offer.
func (h *OfferHandler) VisibleForRetailer(c *gin.Context) {
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

	var basePrice *decimal.Decimal
	if raw := c.Query("base_price"); raw != "" {
		price, parseErr := decimal.NewFromString(raw)
		if parseErr != nil || price.IsNegative() {
			h.BadRequest(c, "Invalid base price")
			return
		}
		basePrice = &price
	}

	offers, err := h.offerService.VisibleOffers(c.Request.Context(), tenantID, retailerID, basePrice)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, offers)
}

// RegisterRoutes registers all offer routes
func (h *OfferHandler) RegisterRoutes(rg *gin.RouterGroup) {
	offers := rg.Group("/offers")
	{
		offers.POST("", h.Create)
		offers.GET("", h.List)
		offers.DELETE("/:id", h.Delete)
		offers.GET("/retailer/:retailerId", h.VisibleForRetailer)
	}
}
