package cache

import (
	"context"
	gosync "sync"

	"github.com/google/uuid"

	syncdomain "github.com/catalogportal/backend/internal/domain/sync"
)

// InMemoryAgentStatusStore implements AgentStatusStore with a process-local
// map. Suitable for single-instance deployments and tests.
type InMemoryAgentStatusStore struct {
	mu       gosync.RWMutex
	statuses map[uuid.UUID]syncdomain.AgentStatus
}

// NewInMemoryAgentStatusStore creates an empty in-memory store
func NewInMemoryAgentStatusStore() *InMemoryAgentStatusStore {
	return &InMemoryAgentStatusStore{
		statuses: make(map[uuid.UUID]syncdomain.AgentStatus),
	}
}

// SetStatus records the tenant's agent status
func (s *InMemoryAgentStatusStore) SetStatus(_ context.Context, tenantID uuid.UUID, status syncdomain.AgentStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[tenantID] = status
	return nil
}

// GetStatus returns the stored status, or checking when nothing is stored
func (s *InMemoryAgentStatusStore) GetStatus(_ context.Context, tenantID uuid.UUID) (syncdomain.AgentStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if status, ok := s.statuses[tenantID]; ok {
		return status, nil
	}
	return syncdomain.AgentStatusChecking, nil
}

// Ensure InMemoryAgentStatusStore implements AgentStatusStore
var _ AgentStatusStore = (*InMemoryAgentStatusStore)(nil)
