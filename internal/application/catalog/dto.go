package catalog

import (
	"time"

	"github.com/shopspring/decimal"

	catalogdomain "github.com/catalogportal/backend/internal/domain/catalog"
)

// SaveMappingRequest is the input for replacing a tenant's field mapping
type SaveMappingRequest struct {
	Mapping map[string]string `json:"mapping" binding:"required"`
}

// MappingResponse is a tenant's stored field mapping. An empty mapping
// means nothing has been saved yet.
type MappingResponse struct {
	Mapping map[string]string `json:"mapping"`
}

// FieldListResponse is the ordered canonical field list offered for editing
type FieldListResponse struct {
	Fields []string `json:"fields"`
}

// AccountFilterRequest carries the raw account filter input as typed
type AccountFilterRequest struct {
	Raw string `json:"raw"`
}

// CommitRequest names the retailers edited in this session
type CommitRequest struct {
	RetailerIDs []string `json:"retailerIds"`
}

// CommitResponse distinguishes a persisted save from a no-op
type CommitResponse struct {
	Saved []string `json:"saved"`
	NoOp  bool     `json:"noOp"`
}

// VisibilityResponse is the resolved per-field visibility for one retailer
type VisibilityResponse struct {
	RetailerID string                      `json:"retailerId"`
	Fields     catalogdomain.VisibilityMap `json:"fields"`
}

// CreateOfferRequest is the input for creating an offer
type CreateOfferRequest struct {
	ProductID       string          `json:"productId" binding:"required,uuid"`
	Title           string          `json:"title" binding:"required"`
	Description     string          `json:"description"`
	OfferType       string          `json:"offerType" binding:"required,oneof=percentage flat manual"`
	OfferValue      decimal.Decimal `json:"offerValue" binding:"required"`
	ApplyTo         string          `json:"applyTo" binding:"required,oneof=all custom"`
	TargetRetailers []string        `json:"targetRetailers" binding:"omitempty,dive,uuid"`
	ValidFrom       time.Time       `json:"validFrom" binding:"required"`
	ValidTo         time.Time       `json:"validTo" binding:"required"`
}

// OfferResponse represents an offer
type OfferResponse struct {
	ID              string           `json:"id"`
	ProductID       string           `json:"productId"`
	Title           string           `json:"title"`
	Description     string           `json:"description,omitempty"`
	OfferType       string           `json:"offerType"`
	OfferValue      decimal.Decimal  `json:"offerValue"`
	ApplyTo         string           `json:"applyTo"`
	TargetRetailers []string         `json:"targetRetailers,omitempty"`
	ValidFrom       time.Time        `json:"validFrom"`
	ValidTo         time.Time        `json:"validTo"`
	SalePrice       *decimal.Decimal `json:"salePrice,omitempty"`
}

// ToOfferResponse converts a domain offer to its response form
func ToOfferResponse(offer *catalogdomain.Offer) *OfferResponse {
	targets := make([]string, 0, len(offer.TargetRetailers))
	for _, id := range offer.TargetRetailers {
		targets = append(targets, id.String())
	}

	return &OfferResponse{
		ID:              offer.ID.String(),
		ProductID:       offer.ProductID.String(),
		Title:           offer.Title,
		Description:     offer.Description,
		OfferType:       string(offer.OfferType),
		OfferValue:      offer.OfferValue,
		ApplyTo:         string(offer.ApplyTo),
		TargetRetailers: targets,
		ValidFrom:       offer.ValidFrom,
		ValidTo:         offer.ValidTo,
	}
}
