package cache

import (
	"context"

	"github.com/google/uuid"

	syncdomain "github.com/catalogportal/backend/internal/domain/sync"
)

// AgentStatusStore mirrors agent liveness so that any portal instance can
// answer status queries, not just the one that dispatched the last command.
type AgentStatusStore interface {
	// SetStatus records the tenant's agent status
	SetStatus(ctx context.Context, tenantID uuid.UUID, status syncdomain.AgentStatus) error

	// GetStatus returns the stored status. A tenant with no stored entry
	// reports AgentStatusChecking.
	GetStatus(ctx context.Context, tenantID uuid.UUID) (syncdomain.AgentStatus, error)
}
