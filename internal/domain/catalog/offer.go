package catalog

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/catalogportal/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OfferType determines how an offer changes the product price
type OfferType string

const (
	OfferTypePercentage OfferType = "percentage"
	OfferTypeFlat       OfferType = "flat"
	OfferTypeManual     OfferType = "manual"
)

// ApplyTo determines which retailers an offer targets
type ApplyTo string

const (
	ApplyToAll    ApplyTo = "all"
	ApplyToCustom ApplyTo = "custom"
)

// RetailerIDList is a set of retailer IDs stored as JSONB
type RetailerIDList []uuid.UUID

// Value implements driver.Valuer for GORM
func (l RetailerIDList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner for GORM
func (l *RetailerIDList) Scan(value any) error {
	if value == nil {
		*l = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		if s, isString := value.(string); isString {
			bytes = []byte(s)
		} else {
			return fmt.Errorf("cannot scan %T into RetailerIDList", value)
		}
	}
	return json.Unmarshal(bytes, l)
}

// Contains reports whether the list contains the given retailer
func (l RetailerIDList) Contains(retailerID uuid.UUID) bool {
	for _, id := range l {
		if id == retailerID {
			return true
		}
	}
	return false
}

// Offer is a time-bounded discount attached to a product, targeting either
// every retailer or an enumerated set
type Offer struct {
	shared.TenantEntity
	ProductID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	Title           string          `gorm:"type:varchar(255);not null"`
	Description     string          `gorm:"type:text"`
	OfferType       OfferType       `gorm:"type:varchar(20);not null"`
	OfferValue      decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	ApplyTo         ApplyTo         `gorm:"type:varchar(10);not null;default:'all'"`
	TargetRetailers RetailerIDList  `gorm:"type:jsonb"`
	ValidFrom       time.Time       `gorm:"not null"`
	ValidTo         time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (Offer) TableName() string {
	return "offers"
}

// NewOffer creates an offer after validating targeting and the time window
func NewOffer(tenantID, productID uuid.UUID, title string, offerType OfferType, value decimal.Decimal, applyTo ApplyTo, targets RetailerIDList, validFrom, validTo time.Time) (*Offer, error) {
	if title == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Offer title cannot be empty")
	}
	switch offerType {
	case OfferTypePercentage, OfferTypeFlat, OfferTypeManual:
	default:
		return nil, shared.NewDomainError("VALIDATION_ERROR", fmt.Sprintf("Unknown offer type %q", offerType))
	}
	if value.IsNegative() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Offer value cannot be negative")
	}
	if validTo.Before(validFrom) {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Offer validity window ends before it starts")
	}
	switch applyTo {
	case ApplyToAll:
		if len(targets) > 0 {
			return nil, shared.NewDomainError("VALIDATION_ERROR", "Target retailers must be empty when the offer applies to all")
		}
	case ApplyToCustom:
		if len(targets) == 0 {
			return nil, shared.NewDomainError("VALIDATION_ERROR", "Custom offers require at least one target retailer")
		}
	default:
		return nil, shared.NewDomainError("VALIDATION_ERROR", fmt.Sprintf("Unknown apply_to %q", applyTo))
	}

	return &Offer{
		TenantEntity:    shared.NewTenantEntity(tenantID),
		ProductID:       productID,
		Title:           title,
		OfferType:       offerType,
		OfferValue:      value,
		ApplyTo:         applyTo,
		TargetRetailers: targets,
		ValidFrom:       validFrom,
		ValidTo:         validTo,
	}, nil
}

// AppliesTo reports whether the offer targets the given retailer
func (o *Offer) AppliesTo(retailerID uuid.UUID) bool {
	if o.ApplyTo == ApplyToAll {
		return true
	}
	return o.TargetRetailers.Contains(retailerID)
}

// ActiveAt reports whether the offer's validity window covers the given time
func (o *Offer) ActiveAt(t time.Time) bool {
	return !t.Before(o.ValidFrom) && !t.After(o.ValidTo)
}

// SalePrice derives the discounted price from a base price. Percentage
// values are interpreted as 0-100; the result is clamped at zero. Manual
// offers do not change the price.
func (o *Offer) SalePrice(basePrice decimal.Decimal) decimal.Decimal {
	var sale decimal.Decimal
	switch o.OfferType {
	case OfferTypePercentage:
		savings := basePrice.Mul(o.OfferValue).Div(decimal.NewFromInt(100))
		sale = basePrice.Sub(savings)
	case OfferTypeFlat:
		sale = basePrice.Sub(o.OfferValue)
	default:
		sale = basePrice
	}

	if sale.IsNegative() {
		return decimal.Zero
	}
	return sale
}

// OfferRepository defines persistence for offers
type OfferRepository interface {
	// Save persists a new or updated offer
	Save(ctx context.Context, offer *Offer) error

	// FindByIDForTenant returns an offer by ID within a tenant, or shared.ErrNotFound
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Offer, error)

	// FindAllForTenant returns every offer for a tenant
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]Offer, error)

	// FindActiveForTenant returns offers whose validity window covers now
	FindActiveForTenant(ctx context.Context, tenantID uuid.UUID, now time.Time) ([]Offer, error)

	// DeleteForTenant removes an offer within a tenant
	DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error
}
