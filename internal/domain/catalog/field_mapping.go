package catalog

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/catalogportal/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ExternalAccountField is the distinguished field carrying the retailer's
// external account filter instead of a plain visibility flag
const ExternalAccountField = "tally_account"

// DefaultFieldDenylist lists internal-only fields excluded from mapping and
// visibility editing: timestamps, binary blobs and the internal tenant key
func DefaultFieldDenylist() []string {
	return []string{"created_at", "updated_at", "image_blob", "party_id"}
}

// FieldMap is a canonical-field to external-field dictionary stored as JSONB
type FieldMap map[string]string

// Value implements driver.Valuer for GORM
func (m FieldMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner for GORM
func (m *FieldMap) Scan(value any) error {
	if value == nil {
		*m = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		if s, isString := value.(string); isString {
			bytes = []byte(s)
		} else {
			return fmt.Errorf("cannot scan %T into FieldMap", value)
		}
	}
	return json.Unmarshal(bytes, m)
}

// FieldMapping holds a tenant's mapping from canonical catalog field names
// to the names the external accounting system uses
type FieldMapping struct {
	shared.TenantEntity
	Mapping FieldMap `gorm:"type:jsonb;not null"`
}

// TableName returns the table name for GORM
func (FieldMapping) TableName() string {
	return "field_mappings"
}

// NewFieldMapping creates a mapping for a tenant. An empty mapping is
// rejected: saving nothing would silently disable synchronization.
func NewFieldMapping(tenantID uuid.UUID, mapping FieldMap) (*FieldMapping, error) {
	if len(mapping) == 0 {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Field mapping cannot be empty")
	}

	return &FieldMapping{
		TenantEntity: shared.NewTenantEntity(tenantID),
		Mapping:      mapping,
	}, nil
}

// ValidateAgainst checks that every mapped key belongs to the canonical
// field set (post-denylist)
func (f *FieldMapping) ValidateAgainst(canonicalFields []string) error {
	allowed := make(map[string]struct{}, len(canonicalFields))
	for _, field := range canonicalFields {
		allowed[field] = struct{}{}
	}
	for key := range f.Mapping {
		if _, ok := allowed[key]; !ok {
			return shared.NewDomainError("VALIDATION_ERROR", fmt.Sprintf("Unknown field %q in mapping", key))
		}
	}
	return nil
}

// ComputeDefaultFields builds the editable canonical field list: the union
// of the product and inventory schemas in first-seen order, minus the
// denylist, with the external account field appended if absent
func ComputeDefaultFields(productFields, inventoryFields, denylist []string) []string {
	denied := make(map[string]struct{}, len(denylist))
	for _, field := range denylist {
		denied[field] = struct{}{}
	}

	seen := make(map[string]struct{})
	fields := make([]string, 0, len(productFields)+len(inventoryFields))
	for _, field := range append(append([]string{}, productFields...), inventoryFields...) {
		if _, dup := seen[field]; dup {
			continue
		}
		seen[field] = struct{}{}
		if _, excluded := denied[field]; excluded {
			continue
		}
		fields = append(fields, field)
	}

	if _, ok := seen[ExternalAccountField]; !ok {
		fields = append(fields, ExternalAccountField)
	} else {
		// The schema may carry the field under denylist rules; make sure it
		// survives even if a denylist entry named it.
		found := false
		for _, field := range fields {
			if field == ExternalAccountField {
				found = true
				break
			}
		}
		if !found {
			fields = append(fields, ExternalAccountField)
		}
	}

	return fields
}

// FieldMappingRepository defines persistence for tenant field mappings
type FieldMappingRepository interface {
	// Replace stores the mapping wholesale for the tenant (last-write-wins)
	Replace(ctx context.Context, mapping *FieldMapping) error

	// LoadForTenant returns the tenant's mapping, or shared.ErrNotFound
	LoadForTenant(ctx context.Context, tenantID uuid.UUID) (*FieldMapping, error)
}
