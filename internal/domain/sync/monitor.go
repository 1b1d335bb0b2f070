package sync

import (
	gosync "sync"

	"github.com/google/uuid"
)

// AgentStatus is the tri-state liveness of a tenant's on-premises agent
type AgentStatus string

const (
	// AgentStatusChecking means no dispatch attempt has completed yet
	AgentStatusChecking AgentStatus = "checking"
	// AgentStatusOnline means the most recent attempt was answered
	AgentStatusOnline AgentStatus = "online"
	// AgentStatusOffline means the most recent attempt failed in transport
	AgentStatusOffline AgentStatus = "offline"
)

// AgentMonitor derives agent liveness from dispatch outcomes. It starts in
// checking and thereafter always reflects the most recent outcome: stale
// status is worse than a momentarily flapping indicator, so there is no
// debounce. Once a real attempt has completed it never reverts to checking.
type AgentMonitor struct {
	mu       gosync.RWMutex
	statuses map[uuid.UUID]AgentStatus
}

// NewAgentMonitor creates an empty monitor
func NewAgentMonitor() *AgentMonitor {
	return &AgentMonitor{
		statuses: make(map[uuid.UUID]AgentStatus),
	}
}

// Status returns the current liveness for a tenant's agent
func (m *AgentMonitor) Status(tenantID uuid.UUID) AgentStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if status, ok := m.statuses[tenantID]; ok {
		return status
	}
	return AgentStatusChecking
}

// RecordOutcome records the outcome of a completed dispatch attempt.
// A successful result marks the agent online; a transport failure or an
// agent-reported failure marks it offline.
func (m *AgentMonitor) RecordOutcome(tenantID uuid.UUID, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if success {
		m.statuses[tenantID] = AgentStatusOnline
	} else {
		m.statuses[tenantID] = AgentStatusOffline
	}
}
