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

// GormFieldMappingRepository implements catalog.FieldMappingRepository using GORM
type GormFieldMappingRepository struct {
	db *gorm.DB
}

// NewGormFieldMappingRepository creates a new GormFieldMappingRepository
func NewGormFieldMappingRepository(db *gorm.DB) *GormFieldMappingRepository {
	return &GormFieldMappingRepository{db: db}
}

// Replace stores the mapping wholesale for the tenant. One row per tenant;
// a second Replace overwrites the first.
func (r *GormFieldMappingRepository) Replace(ctx context.Context, mapping *catalog.FieldMapping) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"mapping", "updated_at"}),
		}).
		Create(mapping).Error
}

// LoadForTenant returns the tenant's mapping, or shared.ErrNotFound
func (r *GormFieldMappingRepository) LoadForTenant(ctx context.Context, tenantID uuid.UUID) (*catalog.FieldMapping, error) {
	var mapping catalog.FieldMapping
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		First(&mapping).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &mapping, nil
}

// Ensure GormFieldMappingRepository implements FieldMappingRepository
var _ catalog.FieldMappingRepository = (*GormFieldMappingRepository)(nil)
