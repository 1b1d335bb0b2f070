package catalog

import (
	"context"
	"errors"
	"sort"
	gosync "sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	catalogdomain "github.com/catalogportal/backend/internal/domain/catalog"
	"github.com/catalogportal/backend/internal/domain/shared"
)

// VisibilityService resolves and edits per-retailer field visibility.
//
// Edits accumulate in an in-memory session keyed by (tenant, retailer) and
// reach storage only through CommitChanges with an explicit changed set.
// Retailers another admin session edited concurrently are untouched because
// only the named retailers are written.
type VisibilityService struct {
	visibilityRepo catalogdomain.VisibilityRepository
	fields         []string
	logger         *zap.Logger

	mu       gosync.Mutex
	sessions map[uuid.UUID]map[uuid.UUID]*catalogdomain.RetailerFieldVisibility
	changed  map[uuid.UUID]map[uuid.UUID]struct{}
}

// NewVisibilityService creates a new VisibilityService over the canonical
// field set derived from the schema
func NewVisibilityService(visibilityRepo catalogdomain.VisibilityRepository, schema Schema, logger *zap.Logger) *VisibilityService {
	return &VisibilityService{
		visibilityRepo: visibilityRepo,
		fields: catalogdomain.ComputeDefaultFields(
			schema.ProductFields,
			schema.InventoryFields,
			catalogdomain.DefaultFieldDenylist(),
		),
		logger:   logger.Named("visibility"),
		sessions: make(map[uuid.UUID]map[uuid.UUID]*catalogdomain.RetailerFieldVisibility),
		changed:  make(map[uuid.UUID]map[uuid.UUID]struct{}),
	}
}

// Resolve returns the effective visibility for one retailer. Pending
// session edits win over stored state; a retailer with neither gets the
// default rule.
func (s *VisibilityService) Resolve(ctx context.Context, tenantID, retailerID uuid.UUID) (*VisibilityResponse, error) {
	// Session records are shared with concurrent edits; resolving copies
	// their fields into a fresh map while the lock is held.
	s.mu.Lock()
	if pending, ok := s.sessions[tenantID][retailerID]; ok {
		resolved := catalogdomain.ResolveVisibility(pending, s.fields)
		s.mu.Unlock()
		return &VisibilityResponse{
			RetailerID: retailerID.String(),
			Fields:     resolved,
		}, nil
	}
	s.mu.Unlock()

	stored, err := s.visibilityRepo.FindForRetailer(ctx, tenantID, retailerID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	return &VisibilityResponse{
		RetailerID: retailerID.String(),
		Fields:     catalogdomain.ResolveVisibility(stored, s.fields),
	}, nil
}

// ResolveAll returns resolved visibility for every retailer with stored or
// pending state, plus the default rule callers apply to retailers absent
// from the result
func (s *VisibilityService) ResolveAll(ctx context.Context, tenantID uuid.UUID) ([]VisibilityResponse, catalogdomain.VisibilityMap, error) {
	records, err := s.visibilityRepo.FindAllForTenant(ctx, tenantID)
	if err != nil {
		return nil, nil, err
	}

	resolved := make(map[uuid.UUID]catalogdomain.VisibilityMap, len(records))
	for i := range records {
		resolved[records[i].RetailerID] = catalogdomain.ResolveVisibility(&records[i], s.fields)
	}

	// Pending edits win over stored state; their fields are copied out
	// under the lock, never read through the shared record afterwards.
	s.mu.Lock()
	for retailerID, pending := range s.sessions[tenantID] {
		resolved[retailerID] = catalogdomain.ResolveVisibility(pending, s.fields)
	}
	s.mu.Unlock()

	responses := make([]VisibilityResponse, 0, len(resolved))
	for retailerID, fields := range resolved {
		responses = append(responses, VisibilityResponse{
			RetailerID: retailerID.String(),
			Fields:     fields,
		})
	}
	sort.Slice(responses, func(i, j int) bool { return responses[i].RetailerID < responses[j].RetailerID })

	return responses, catalogdomain.DefaultVisibility(s.fields), nil
}

// ToggleField flips a boolean field in the retailer's edit session and
// marks the retailer changed
func (s *VisibilityService) ToggleField(ctx context.Context, tenantID, retailerID uuid.UUID, field string) (*VisibilityResponse, error) {
	record, err := s.sessionRecord(ctx, tenantID, retailerID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := record.ToggleField(field); err != nil {
		return nil, err
	}
	s.markChangedLocked(tenantID, retailerID)

	return &VisibilityResponse{
		RetailerID: retailerID.String(),
		Fields:     catalogdomain.ResolveVisibility(record, s.fields),
	}, nil
}

// SetAccountFilter normalizes and stores the account filter in the
// retailer's edit session and marks the retailer changed
func (s *VisibilityService) SetAccountFilter(ctx context.Context, tenantID, retailerID uuid.UUID, raw string) (*VisibilityResponse, error) {
	record, err := s.sessionRecord(ctx, tenantID, retailerID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	record.SetAccountFilter(raw)
	s.markChangedLocked(tenantID, retailerID)

	return &VisibilityResponse{
		RetailerID: retailerID.String(),
		Fields:     catalogdomain.ResolveVisibility(record, s.fields),
	}, nil
}

// CommitChanges persists the named retailers that carry pending edits.
// Retailers in the request without pending edits are skipped. An empty
// effective set is reported as a no-op so callers can tell "nothing to do"
// from a persisted save.
func (s *VisibilityService) CommitChanges(ctx context.Context, tenantID uuid.UUID, retailerIDs []uuid.UUID) (*CommitResponse, error) {
	// Snapshots are persisted instead of the live session records, so a
	// concurrent edit cannot mutate a record mid-write.
	s.mu.Lock()
	pending := make([]*catalogdomain.RetailerFieldVisibility, 0, len(retailerIDs))
	for _, retailerID := range retailerIDs {
		if _, isChanged := s.changed[tenantID][retailerID]; !isChanged {
			continue
		}
		if record, ok := s.sessions[tenantID][retailerID]; ok {
			pending = append(pending, record.Clone())
		}
	}
	s.mu.Unlock()

	if len(pending) == 0 {
		return &CommitResponse{Saved: []string{}, NoOp: true}, nil
	}

	saved := make([]string, 0, len(pending))
	for _, record := range pending {
		if err := s.visibilityRepo.Save(ctx, record); err != nil {
			s.logger.Error("Failed to commit retailer visibility",
				zap.String("tenant_id", tenantID.String()),
				zap.String("retailer_id", record.RetailerID.String()),
				zap.Error(err),
			)
			return &CommitResponse{Saved: saved, NoOp: false}, err
		}

		s.mu.Lock()
		delete(s.changed[tenantID], record.RetailerID)
		delete(s.sessions[tenantID], record.RetailerID)
		s.mu.Unlock()
		saved = append(saved, record.RetailerID.String())
	}

	return &CommitResponse{Saved: saved, NoOp: false}, nil
}

// sessionRecord returns the retailer's pending record, loading stored state
// or seeding the default rule on first edit
func (s *VisibilityService) sessionRecord(ctx context.Context, tenantID, retailerID uuid.UUID) (*catalogdomain.RetailerFieldVisibility, error) {
	s.mu.Lock()
	if record, ok := s.sessions[tenantID][retailerID]; ok {
		s.mu.Unlock()
		return record, nil
	}
	s.mu.Unlock()

	record, err := s.visibilityRepo.FindForRetailer(ctx, tenantID, retailerID)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
		record = catalogdomain.NewRetailerFieldVisibility(tenantID, retailerID, s.fields)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Another request may have seeded the session between the two
	// critical sections; keep the first one.
	if existing, ok := s.sessions[tenantID][retailerID]; ok {
		return existing, nil
	}
	if s.sessions[tenantID] == nil {
		s.sessions[tenantID] = make(map[uuid.UUID]*catalogdomain.RetailerFieldVisibility)
	}
	s.sessions[tenantID][retailerID] = record
	return record, nil
}

func (s *VisibilityService) markChangedLocked(tenantID, retailerID uuid.UUID) {
	if s.changed[tenantID] == nil {
		s.changed[tenantID] = make(map[uuid.UUID]struct{})
	}
	s.changed[tenantID][retailerID] = struct{}{}
}
