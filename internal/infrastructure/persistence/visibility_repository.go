package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/catalogportal/backend/internal/domain/catalog"
	"github.com/catalogportal/backend/internal/domain/shared"
)

// GormVisibilityRepository implements catalog.VisibilityRepository using GORM
type GormVisibilityRepository struct {
	db *gorm.DB
}

// NewGormVisibilityRepository creates a new GormVisibilityRepository
func NewGormVisibilityRepository(db *gorm.DB) *GormVisibilityRepository {
	return &GormVisibilityRepository{db: db}
}

// FindForRetailer returns the record for (tenant, retailer), or shared.ErrNotFound
func (r *GormVisibilityRepository) FindForRetailer(ctx context.Context, tenantID, retailerID uuid.UUID) (*catalog.RetailerFieldVisibility, error) {
	var record catalog.RetailerFieldVisibility
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND retailer_id = ?", tenantID, retailerID).
		First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// FindAllForTenant returns every stored record for a tenant
func (r *GormVisibilityRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]catalog.RetailerFieldVisibility, error) {
	var records []catalog.RetailerFieldVisibility
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// Save upserts a record keyed by (tenant, retailer)
func (r *GormVisibilityRepository) Save(ctx context.Context, record *catalog.RetailerFieldVisibility) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "retailer_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"fields", "updated_at"}),
		}).
		Create(record).Error
}

// Ensure GormVisibilityRepository implements VisibilityRepository
var _ catalog.VisibilityRepository = (*GormVisibilityRepository)(nil)
