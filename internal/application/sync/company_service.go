package sync

import (
	"context"
	"strings"

	"github.com/google/uuid"

	syncdomain "github.com/catalogportal/backend/internal/domain/sync"
)

// CompanyService handles company registration for synchronization
type CompanyService struct {
	companyRepo syncdomain.CompanyRepository
}

// NewCompanyService creates a new CompanyService
func NewCompanyService(companyRepo syncdomain.CompanyRepository) *CompanyService {
	return &CompanyService{companyRepo: companyRepo}
}

// Register registers a company name for synchronization. Names are
// whitespace-trimmed; a name already registered for the tenant is a
// duplicate regardless of surrounding whitespace.
func (s *CompanyService) Register(ctx context.Context, tenantID uuid.UUID, req RegisterCompanyRequest) (*CompanyResponse, error) {
	registration, err := syncdomain.NewCompanyRegistration(tenantID, req.CompanyName)
	if err != nil {
		return nil, err
	}

	exists, err := s.companyRepo.ExistsByName(ctx, tenantID, registration.CompanyName)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, syncdomain.ErrCompanyExists
	}

	if err := s.companyRepo.Save(ctx, registration); err != nil {
		return nil, err
	}

	return ToCompanyResponse(registration), nil
}

// List returns all registered companies for the tenant in registration order
func (s *CompanyService) List(ctx context.Context, tenantID uuid.UUID) ([]CompanyResponse, error) {
	registrations, err := s.companyRepo.ListForTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	responses := make([]CompanyResponse, 0, len(registrations))
	for i := range registrations {
		responses = append(responses, *ToCompanyResponse(&registrations[i]))
	}
	return responses, nil
}

// IsRegistered checks whether the exact company name is registered for the tenant
func (s *CompanyService) IsRegistered(ctx context.Context, tenantID uuid.UUID, companyName string) (bool, error) {
	return s.companyRepo.ExistsByName(ctx, tenantID, strings.TrimSpace(companyName))
}
