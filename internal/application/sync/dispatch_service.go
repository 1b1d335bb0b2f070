package sync

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	syncdomain "github.com/catalogportal/backend/internal/domain/sync"
)

// CommandTransport delivers a signed command to the on-premise agent
type CommandTransport interface {
	Send(ctx context.Context, cmd *syncdomain.SyncCommand) (*syncdomain.SyncResult, error)
}

// StatusMirror shares agent liveness across portal instances. Optional;
// a nil mirror keeps liveness process-local.
type StatusMirror interface {
	SetStatus(ctx context.Context, tenantID uuid.UUID, status syncdomain.AgentStatus) error
	GetStatus(ctx context.Context, tenantID uuid.UUID) (syncdomain.AgentStatus, error)
}

// DispatchService is the command issuer: it validates the target against
// the company registry, signs a fresh command per attempt, transmits it,
// and folds the outcome into agent liveness.
type DispatchService struct {
	companyRepo syncdomain.CompanyRepository
	signer      syncdomain.Signer
	transport   CommandTransport
	monitor     *syncdomain.AgentMonitor
	mirror      StatusMirror
	logger      *zap.Logger
}

// NewDispatchService creates a new DispatchService. mirror may be nil.
func NewDispatchService(
	companyRepo syncdomain.CompanyRepository,
	signer syncdomain.Signer,
	transport CommandTransport,
	monitor *syncdomain.AgentMonitor,
	mirror StatusMirror,
	logger *zap.Logger,
) *DispatchService {
	return &DispatchService{
		companyRepo: companyRepo,
		signer:      signer,
		transport:   transport,
		monitor:     monitor,
		mirror:      mirror,
		logger:      logger.Named("dispatch"),
	}
}

// Dispatch issues one signed command to the tenant's agent. The company
// must be registered; a fresh request ID is generated per attempt and
// never reused across retries. Every completed attempt updates liveness:
// a successful result marks the agent online, a transport failure or an
// agent-reported failure marks it offline. A DispatchError is returned
// as-is and never retried here; retry cadence belongs to the scheduler.
func (s *DispatchService) Dispatch(ctx context.Context, tenantID uuid.UUID, action syncdomain.Action, companyName string, port int) (*syncdomain.SyncResult, error) {
	companyName = strings.TrimSpace(companyName)

	registered, err := s.companyRepo.ExistsByName(ctx, tenantID, companyName)
	if err != nil {
		return nil, err
	}
	if !registered {
		return nil, syncdomain.ErrCompanyNotRegistered
	}

	cmd, err := syncdomain.NewSyncCommand(action, companyName, port)
	if err != nil {
		return nil, err
	}
	signature, err := s.signer.Sign(tenantID, cmd)
	if err != nil {
		return nil, err
	}
	cmd.Signature = signature

	s.logger.Info("Dispatching sync command",
		zap.String("tenant_id", tenantID.String()),
		zap.String("request_id", cmd.RequestID),
		zap.String("action", string(action)),
		zap.String("company", companyName),
	)

	result, err := s.transport.Send(ctx, cmd)
	if err != nil {
		var dispatchErr *syncdomain.DispatchError
		if errors.As(err, &dispatchErr) {
			s.recordStatus(ctx, tenantID, false)
			return nil, err
		}
		// A stale or undecodable answer says nothing about the agent;
		// liveness stays as it was.
		s.logger.Warn("Dispatch produced no usable result",
			zap.String("tenant_id", tenantID.String()),
			zap.String("request_id", cmd.RequestID),
			zap.Error(err),
		)
		return nil, syncdomain.ErrNoResult
	}

	s.recordStatus(ctx, tenantID, result.Success)
	return result, nil
}

// RunSync performs a full data sync run. This is the entry point the
// scheduler drives.
func (s *DispatchService) RunSync(ctx context.Context, tenantID uuid.UUID, companyName string, port int) (*syncdomain.SyncResult, error) {
	return s.Dispatch(ctx, tenantID, syncdomain.ActionFetchTally, companyName, port)
}

// TestConnection probes the agent without transferring data
func (s *DispatchService) TestConnection(ctx context.Context, tenantID uuid.UUID, companyName string, port int) (*syncdomain.SyncResult, error) {
	return s.Dispatch(ctx, tenantID, syncdomain.ActionTest, companyName, port)
}

// AgentStatus returns the tenant's agent liveness. When this instance has
// not completed an attempt itself it consults the shared mirror, so any
// instance can answer for a fleet.
func (s *DispatchService) AgentStatus(ctx context.Context, tenantID uuid.UUID) syncdomain.AgentStatus {
	status := s.monitor.Status(tenantID)
	if status != syncdomain.AgentStatusChecking || s.mirror == nil {
		return status
	}

	mirrored, err := s.mirror.GetStatus(ctx, tenantID)
	if err != nil {
		s.logger.Warn("Failed to read mirrored agent status", zap.Error(err))
		return status
	}
	return mirrored
}

// recordStatus folds one completed attempt into local and mirrored liveness
func (s *DispatchService) recordStatus(ctx context.Context, tenantID uuid.UUID, success bool) {
	s.monitor.RecordOutcome(tenantID, success)

	if s.mirror == nil {
		return
	}
	status := syncdomain.AgentStatusOffline
	if success {
		status = syncdomain.AgentStatusOnline
	}
	if err := s.mirror.SetStatus(ctx, tenantID, status); err != nil {
		s.logger.Warn("Failed to mirror agent status", zap.Error(err))
	}
}
