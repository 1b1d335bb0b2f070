package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	catalogdomain "github.com/catalogportal/backend/internal/domain/catalog"
	"github.com/catalogportal/backend/internal/domain/shared"
)

// OfferService manages product offers and per-retailer offer resolution
type OfferService struct {
	offerRepo catalogdomain.OfferRepository
	now       func() time.Time
}

// NewOfferService creates a new OfferService
func NewOfferService(offerRepo catalogdomain.OfferRepository) *OfferService {
	return &OfferService{offerRepo: offerRepo, now: time.Now}
}

// CreateOffer validates and persists a new offer
func (s *OfferService) CreateOffer(ctx context.Context, tenantID uuid.UUID, req CreateOfferRequest) (*OfferResponse, error) {
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Invalid product ID")
	}

	var targets catalogdomain.RetailerIDList
	for _, raw := range req.TargetRetailers {
		retailerID, parseErr := uuid.Parse(raw)
		if parseErr != nil {
			return nil, shared.NewDomainError("VALIDATION_ERROR", "Invalid target retailer ID")
		}
		targets = append(targets, retailerID)
	}

	offer, err := catalogdomain.NewOffer(
		tenantID,
		productID,
		req.Title,
		catalogdomain.OfferType(req.OfferType),
		req.OfferValue,
		catalogdomain.ApplyTo(req.ApplyTo),
		targets,
		req.ValidFrom,
		req.ValidTo,
	)
	if err != nil {
		return nil, err
	}
	offer.Description = req.Description

	if err := s.offerRepo.Save(ctx, offer); err != nil {
		return nil, err
	}

	return ToOfferResponse(offer), nil
}

// ListOffers returns every offer for the tenant
func (s *OfferService) ListOffers(ctx context.Context, tenantID uuid.UUID) ([]OfferResponse, error) {
	offers, err := s.offerRepo.FindAllForTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	responses := make([]OfferResponse, 0, len(offers))
	for i := range offers {
		responses = append(responses, *ToOfferResponse(&offers[i]))
	}
	return responses, nil
}

// DeleteOffer removes an offer within the tenant
func (s *OfferService) DeleteOffer(ctx context.Context, tenantID, offerID uuid.UUID) error {
	return s.offerRepo.DeleteForTenant(ctx, tenantID, offerID)
}

// VisibleOffers returns the offers currently active for a retailer. When a
// base price is supplied each response carries the derived sale price,
// clamped at zero.
func (s *OfferService) VisibleOffers(ctx context.Context, tenantID, retailerID uuid.UUID, basePrice *decimal.Decimal) ([]OfferResponse, error) {
	offers, err := s.offerRepo.FindActiveForTenant(ctx, tenantID, s.now())
	if err != nil {
		return nil, err
	}

	responses := make([]OfferResponse, 0, len(offers))
	for i := range offers {
		offer := &offers[i]
		if !offer.AppliesTo(retailerID) {
			continue
		}

		response := ToOfferResponse(offer)
		if basePrice != nil {
			sale := offer.SalePrice(*basePrice)
			response.SalePrice = &sale
		}
		responses = append(responses, *response)
	}
	return responses, nil
}
