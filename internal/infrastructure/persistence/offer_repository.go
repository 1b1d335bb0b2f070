package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/catalogportal/backend/internal/domain/catalog"
	"github.com/catalogportal/backend/internal/domain/shared"
)

// GormOfferRepository implements catalog.OfferRepository using GORM
type GormOfferRepository struct {
	db *gorm.DB
}

// NewGormOfferRepository creates a new GormOfferRepository
func NewGormOfferRepository(db *gorm.DB) *GormOfferRepository {
	return &GormOfferRepository{db: db}
}

// Save persists a new or updated offer
func (r *GormOfferRepository) Save(ctx context.Context, offer *catalog.Offer) error {
	return r.db.WithContext(ctx).Save(offer).Error
}

// FindByIDForTenant returns an offer by ID within a tenant, or shared.ErrNotFound
func (r *GormOfferRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*catalog.Offer, error) {
	var offer catalog.Offer
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&offer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &offer, nil
}

// FindAllForTenant returns every offer for a tenant
func (r *GormOfferRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]catalog.Offer, error) {
	var offers []catalog.Offer
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Find(&offers).Error; err != nil {
		return nil, err
	}
	return offers, nil
}

// FindActiveForTenant returns offers whose validity window covers now
func (r *GormOfferRepository) FindActiveForTenant(ctx context.Context, tenantID uuid.UUID, now time.Time) ([]catalog.Offer, error) {
	var offers []catalog.Offer
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND valid_from <= ? AND valid_to >= ?", tenantID, now, now).
		Order("created_at DESC").
		Find(&offers).Error; err != nil {
		return nil, err
	}
	return offers, nil
}

// DeleteForTenant removes an offer, returning shared.ErrNotFound when
// no row matched
func (r *GormOfferRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Delete(&catalog.Offer{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormOfferRepository implements OfferRepository
var _ catalog.OfferRepository = (*GormOfferRepository)(nil)
