package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	syncdomain "github.com/catalogportal/backend/internal/domain/sync"
)

// GormCompanyRepository implements sync.CompanyRepository using GORM
type GormCompanyRepository struct {
	db *gorm.DB
}

// NewGormCompanyRepository creates a new GormCompanyRepository
func NewGormCompanyRepository(db *gorm.DB) *GormCompanyRepository {
	return &GormCompanyRepository{db: db}
}

// Save persists a new registration. A unique violation on
// (tenant_id, company_name) reports ErrCompanyExists, so a registration
// racing past the pre-insert check still surfaces as a duplicate.
func (r *GormCompanyRepository) Save(ctx context.Context, registration *syncdomain.CompanyRegistration) error {
	err := r.db.WithContext(ctx).Create(registration).Error
	if err != nil && isUniqueViolation(err) {
		return syncdomain.ErrCompanyExists
	}
	return err
}

// isUniqueViolation matches Postgres error 23505 (unique_violation)
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// ExistsByName checks for an exact-match name within a tenant
func (r *GormCompanyRepository) ExistsByName(ctx context.Context, tenantID uuid.UUID, companyName string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&syncdomain.CompanyRegistration{}).
		Where("tenant_id = ? AND company_name = ?", tenantID, companyName).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListForTenant returns all registrations for a tenant in insertion order
func (r *GormCompanyRepository) ListForTenant(ctx context.Context, tenantID uuid.UUID) ([]syncdomain.CompanyRegistration, error) {
	var registrations []syncdomain.CompanyRegistration
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at ASC").
		Find(&registrations).Error
	if err != nil {
		return nil, err
	}
	return registrations, nil
}

// Ensure GormCompanyRepository implements CompanyRepository
var _ syncdomain.CompanyRepository = (*GormCompanyRepository)(nil)
