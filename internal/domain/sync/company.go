package sync

import (
	"context"
	"strings"

	"github.com/catalogportal/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// CompanyRegistration is an ERP company name a tenant has registered as a
// valid synchronization target. Names are matched case-sensitively against
// the name configured inside the accounting software, so no normalization
// is applied beyond trimming.
type CompanyRegistration struct {
	shared.TenantEntity
	CompanyName string `gorm:"type:varchar(255);not null;uniqueIndex:idx_company_tenant_name,priority:2"`
}

// TableName returns the table name for GORM
func (CompanyRegistration) TableName() string {
	return "sync_companies"
}

// NewCompanyRegistration creates a registration after validating the name
func NewCompanyRegistration(tenantID uuid.UUID, companyName string) (*CompanyRegistration, error) {
	name := strings.TrimSpace(companyName)
	if name == "" {
		return nil, ErrCompanyNameEmpty
	}

	return &CompanyRegistration{
		TenantEntity: shared.NewTenantEntity(tenantID),
		CompanyName:  name,
	}, nil
}

// CompanyRepository defines persistence for company registrations
type CompanyRepository interface {
	// Save persists a new registration
	Save(ctx context.Context, registration *CompanyRegistration) error

	// ExistsByName checks for an exact-match name within a tenant
	ExistsByName(ctx context.Context, tenantID uuid.UUID, companyName string) (bool, error)

	// ListForTenant returns all registrations for a tenant in insertion order
	ListForTenant(ctx context.Context, tenantID uuid.UUID) ([]CompanyRegistration, error)
}
