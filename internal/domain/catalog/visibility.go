package catalog

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/catalogportal/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// AccountFilterAll is the wildcard account filter: every external account
// code is considered when resolving data for the retailer
const AccountFilterAll = "all"

// VisibilityMap holds per-field visibility values. Ordinary fields map to a
// bool; the external account field maps to a filter string ("all" or a
// comma-joined list of account codes).
type VisibilityMap map[string]any

// Value implements driver.Valuer for GORM
func (m VisibilityMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner for GORM
func (m *VisibilityMap) Scan(value any) error {
	if value == nil {
		*m = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		if s, isString := value.(string); isString {
			bytes = []byte(s)
		} else {
			return fmt.Errorf("cannot scan %T into VisibilityMap", value)
		}
	}
	return json.Unmarshal(bytes, m)
}

// RetailerFieldVisibility stores which canonical fields a retailer may see
// and its external account filter. Records are created lazily on first edit
// and never deleted automatically; absence means the default rule applies.
type RetailerFieldVisibility struct {
	shared.TenantEntity
	RetailerID uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:idx_visibility_tenant_retailer,priority:2"`
	Fields     VisibilityMap `gorm:"type:jsonb;not null"`
}

// TableName returns the table name for GORM
func (RetailerFieldVisibility) TableName() string {
	return "retailer_field_visibility"
}

// NewRetailerFieldVisibility creates a visibility record seeded with the
// default rule over the given canonical fields
func NewRetailerFieldVisibility(tenantID, retailerID uuid.UUID, canonicalFields []string) *RetailerFieldVisibility {
	return &RetailerFieldVisibility{
		TenantEntity: shared.NewTenantEntity(tenantID),
		RetailerID:   retailerID,
		Fields:       DefaultVisibility(canonicalFields),
	}
}

// Clone returns a copy whose Fields map is not shared with the receiver
func (v *RetailerFieldVisibility) Clone() *RetailerFieldVisibility {
	clone := *v
	clone.Fields = make(VisibilityMap, len(v.Fields))
	for field, value := range v.Fields {
		clone.Fields[field] = value
	}
	return &clone
}

// DefaultVisibility is the rule applied when no record exists: every
// ordinary field visible, external account filter wildcard
func DefaultVisibility(canonicalFields []string) VisibilityMap {
	fields := make(VisibilityMap, len(canonicalFields))
	for _, field := range canonicalFields {
		if field == ExternalAccountField {
			fields[field] = AccountFilterAll
		} else {
			fields[field] = true
		}
	}
	return fields
}

// ToggleField flips an ordinary boolean field. Unknown fields start from
// the default (visible) and toggle to hidden.
func (v *RetailerFieldVisibility) ToggleField(field string) error {
	if field == ExternalAccountField {
		return shared.NewDomainError("VALIDATION_ERROR", "External account filter is not a toggleable field")
	}

	current := true
	if raw, ok := v.Fields[field]; ok {
		if b, isBool := raw.(bool); isBool {
			current = b
		}
	}
	v.Fields[field] = !current
	v.Touch()
	return nil
}

// SetAccountFilter stores a normalized account filter
func (v *RetailerFieldVisibility) SetAccountFilter(raw string) {
	v.Fields[ExternalAccountField] = NormalizeAccountFilter(raw)
	v.Touch()
}

// AccountFilter returns the stored filter, defaulting to the wildcard
func (v *RetailerFieldVisibility) AccountFilter() string {
	if raw, ok := v.Fields[ExternalAccountField]; ok {
		if s, isString := raw.(string); isString && s != "" {
			return s
		}
	}
	return AccountFilterAll
}

// NormalizeAccountFilter reduces free-form input to the stored filter form:
// every character that is not a digit or comma is stripped, empty groups
// are dropped, and an input that ends up empty falls back to the wildcard.
// The result is always exactly "all" or a string matching ^\d+(,\d+)*$.
func NormalizeAccountFilter(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == ',' {
			b.WriteRune(r)
		}
	}

	groups := make([]string, 0)
	for _, group := range strings.Split(b.String(), ",") {
		if group != "" {
			groups = append(groups, group)
		}
	}
	if len(groups) == 0 {
		return AccountFilterAll
	}
	return strings.Join(groups, ",")
}

// ParseAccountFilter expands a stored filter into account codes.
// wildcard=true means every account is allowed and codes is nil.
func ParseAccountFilter(filter string) (codes []int, wildcard bool, err error) {
	if filter == "" || filter == AccountFilterAll {
		return nil, true, nil
	}
	parts := strings.Split(filter, ",")
	codes = make([]int, 0, len(parts))
	for _, part := range parts {
		code, convErr := strconv.Atoi(part)
		if convErr != nil {
			return nil, false, shared.NewDomainError("VALIDATION_ERROR", fmt.Sprintf("Malformed account filter %q", filter))
		}
		codes = append(codes, code)
	}
	return codes, false, nil
}

// ResolveVisibility merges a stored record (possibly nil) with the default
// rule over the canonical field set
func ResolveVisibility(record *RetailerFieldVisibility, canonicalFields []string) VisibilityMap {
	resolved := DefaultVisibility(canonicalFields)
	if record == nil {
		return resolved
	}
	for _, field := range canonicalFields {
		if raw, ok := record.Fields[field]; ok {
			resolved[field] = raw
		}
	}
	return resolved
}

// VisibilityRepository defines persistence for retailer field visibility
type VisibilityRepository interface {
	// FindForRetailer returns the record for (tenant, retailer), or shared.ErrNotFound
	FindForRetailer(ctx context.Context, tenantID, retailerID uuid.UUID) (*RetailerFieldVisibility, error)

	// FindAllForTenant returns every stored record for a tenant
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]RetailerFieldVisibility, error)

	// Save upserts a record keyed by (tenant, retailer)
	Save(ctx context.Context, record *RetailerFieldVisibility) error
}
