package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"

	catalogdomain "github.com/catalogportal/backend/internal/domain/catalog"
	"github.com/catalogportal/backend/internal/domain/shared"
)

// Schema is the canonical catalog field schema consumed from the catalog
// collaborator. Field order is presentation order.
type Schema struct {
	ProductFields   []string
	InventoryFields []string
}

// DefaultSchema returns the portal's built-in catalog schema
func DefaultSchema() Schema {
	return Schema{
		ProductFields: []string{
			"id", "name", "description", "category", "brand", "unit",
			"price", "mrp", "hsn_code", "gst_rate",
			"image_blob", "party_id", "created_at", "updated_at",
		},
		InventoryFields: []string{
			"id", "name", "quantity", "rate", "godown", "batch",
			"tally_account", "party_id", "created_at", "updated_at",
		},
	}
}

// FieldMappingService manages per-tenant field mappings against the
// canonical schema
type FieldMappingService struct {
	mappingRepo catalogdomain.FieldMappingRepository
	fields      []string
}

// NewFieldMappingService creates a new FieldMappingService
func NewFieldMappingService(mappingRepo catalogdomain.FieldMappingRepository, schema Schema) *FieldMappingService {
	return &FieldMappingService{
		mappingRepo: mappingRepo,
		fields: catalogdomain.ComputeDefaultFields(
			schema.ProductFields,
			schema.InventoryFields,
			catalogdomain.DefaultFieldDenylist(),
		),
	}
}

// DefaultFields returns the ordered canonical field list offered for
// mapping and visibility editing
func (s *FieldMappingService) DefaultFields() FieldListResponse {
	fields := make([]string, len(s.fields))
	copy(fields, s.fields)
	return FieldListResponse{Fields: fields}
}

// SaveMapping replaces the tenant's mapping wholesale. There is no partial
// merge; the caller sends the complete mapping every time.
func (s *FieldMappingService) SaveMapping(ctx context.Context, tenantID uuid.UUID, req SaveMappingRequest) error {
	mapping, err := catalogdomain.NewFieldMapping(tenantID, req.Mapping)
	if err != nil {
		return err
	}
	if err := mapping.ValidateAgainst(s.fields); err != nil {
		return err
	}

	return s.mappingRepo.Replace(ctx, mapping)
}

// LoadMapping returns the tenant's stored mapping. A tenant that has never
// saved one gets an empty mapping, not an error.
func (s *FieldMappingService) LoadMapping(ctx context.Context, tenantID uuid.UUID) (*MappingResponse, error) {
	mapping, err := s.mappingRepo.LoadForTenant(ctx, tenantID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return &MappingResponse{Mapping: map[string]string{}}, nil
		}
		return nil, err
	}

	return &MappingResponse{Mapping: mapping.Mapping}, nil
}
