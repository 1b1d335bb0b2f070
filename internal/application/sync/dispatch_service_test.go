package sync

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	syncdomain "github.com/catalogportal/backend/internal/domain/sync"
)

type fakeCompanyRepo struct {
	companies map[string]bool
	saveErr   error
	saved     []*syncdomain.CompanyRegistration
}

func newFakeCompanyRepo(names ...string) *fakeCompanyRepo {
	repo := &fakeCompanyRepo{companies: make(map[string]bool)}
	for _, name := range names {
		repo.companies[name] = true
	}
	return repo
}

func (r *fakeCompanyRepo) Save(_ context.Context, registration *syncdomain.CompanyRegistration) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.companies[registration.CompanyName] = true
	r.saved = append(r.saved, registration)
	return nil
}

func (r *fakeCompanyRepo) ExistsByName(_ context.Context, _ uuid.UUID, companyName string) (bool, error) {
	return r.companies[companyName], nil
}

func (r *fakeCompanyRepo) ListForTenant(_ context.Context, _ uuid.UUID) ([]syncdomain.CompanyRegistration, error) {
	registrations := make([]syncdomain.CompanyRegistration, 0, len(r.saved))
	for _, registration := range r.saved {
		registrations = append(registrations, *registration)
	}
	return registrations, nil
}

type fakeTransport struct {
	sent   []*syncdomain.SyncCommand
	result *syncdomain.SyncResult
	err    error
}

func (t *fakeTransport) Send(_ context.Context, cmd *syncdomain.SyncCommand) (*syncdomain.SyncResult, error) {
	t.sent = append(t.sent, cmd)
	if t.err != nil {
		return nil, t.err
	}
	if t.result != nil {
		result := *t.result
		result.RequestID = cmd.RequestID
		return &result, nil
	}
	return &syncdomain.SyncResult{RequestID: cmd.RequestID, Success: true, Message: "ok"}, nil
}

type fakeMirror struct {
	statuses map[uuid.UUID]syncdomain.AgentStatus
	setErr   error
	getErr   error
}

func newFakeMirror() *fakeMirror {
	return &fakeMirror{statuses: make(map[uuid.UUID]syncdomain.AgentStatus)}
}

func (m *fakeMirror) SetStatus(_ context.Context, tenantID uuid.UUID, status syncdomain.AgentStatus) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.statuses[tenantID] = status
	return nil
}

func (m *fakeMirror) GetStatus(_ context.Context, tenantID uuid.UUID) (syncdomain.AgentStatus, error) {
	if m.getErr != nil {
		return syncdomain.AgentStatusChecking, m.getErr
	}
	if status, ok := m.statuses[tenantID]; ok {
		return status, nil
	}
	return syncdomain.AgentStatusChecking, nil
}

func newDispatchService(t *testing.T, repo *fakeCompanyRepo, transport *fakeTransport, mirror StatusMirror) (*DispatchService, *syncdomain.AgentMonitor) {
	t.Helper()
	signer, err := syncdomain.NewHMACSigner("test-master-secret-at-least-32-bytes!")
	require.NoError(t, err)
	monitor := syncdomain.NewAgentMonitor()
	return NewDispatchService(repo, signer, transport, monitor, mirror, zap.NewNop()), monitor
}

func TestDispatchService_Dispatch_Success(t *testing.T) {
	tenantID := uuid.New()
	transport := &fakeTransport{}
	service, monitor := newDispatchService(t, newFakeCompanyRepo("Acme Traders"), transport, nil)

	result, err := service.RunSync(context.Background(), tenantID, "Acme Traders", 9000)

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, syncdomain.AgentStatusOnline, monitor.Status(tenantID))

	require.Len(t, transport.sent, 1)
	cmd := transport.sent[0]
	assert.Equal(t, syncdomain.ActionFetchTally, cmd.Action)
	assert.Equal(t, "Acme Traders", cmd.Payload.CompanyName)
	assert.Equal(t, 9000, cmd.Payload.Port)
	assert.NotEmpty(t, cmd.Signature)
	assert.NotEmpty(t, cmd.RequestID)
}

func TestDispatchService_Dispatch_SignatureVerifies(t *testing.T) {
	tenantID := uuid.New()
	transport := &fakeTransport{}
	repo := newFakeCompanyRepo("Acme")
	signer, err := syncdomain.NewHMACSigner("test-master-secret-at-least-32-bytes!")
	require.NoError(t, err)
	service := NewDispatchService(repo, signer, transport, syncdomain.NewAgentMonitor(), nil, zap.NewNop())

	_, err = service.TestConnection(context.Background(), tenantID, "Acme", 9000)
	require.NoError(t, err)

	require.Len(t, transport.sent, 1)
	assert.NoError(t, signer.Verify(tenantID, transport.sent[0]))
}

func TestDispatchService_Dispatch_UnregisteredCompany(t *testing.T) {
	transport := &fakeTransport{}
	service, monitor := newDispatchService(t, newFakeCompanyRepo("Acme"), transport, nil)
	tenantID := uuid.New()

	_, err := service.RunSync(context.Background(), tenantID, "Unknown Co", 9000)

	assert.ErrorIs(t, err, syncdomain.ErrCompanyNotRegistered)
	assert.Empty(t, transport.sent)
	assert.Equal(t, syncdomain.AgentStatusChecking, monitor.Status(tenantID))
}

func TestDispatchService_Dispatch_TrimsCompanyName(t *testing.T) {
	transport := &fakeTransport{}
	service, _ := newDispatchService(t, newFakeCompanyRepo("Acme"), transport, nil)

	_, err := service.RunSync(context.Background(), uuid.New(), "  Acme  ", 9000)

	require.NoError(t, err)
	require.Len(t, transport.sent, 1)
	assert.Equal(t, "Acme", transport.sent[0].Payload.CompanyName)
}

func TestDispatchService_Dispatch_FreshRequestIDPerAttempt(t *testing.T) {
	transport := &fakeTransport{}
	service, _ := newDispatchService(t, newFakeCompanyRepo("Acme"), transport, nil)
	tenantID := uuid.New()

	_, err := service.RunSync(context.Background(), tenantID, "Acme", 9000)
	require.NoError(t, err)
	_, err = service.RunSync(context.Background(), tenantID, "Acme", 9000)
	require.NoError(t, err)

	require.Len(t, transport.sent, 2)
	assert.NotEqual(t, transport.sent[0].RequestID, transport.sent[1].RequestID)
}

func TestDispatchService_Dispatch_TransportFailureMarksOffline(t *testing.T) {
	tenantID := uuid.New()
	transport := &fakeTransport{
		err: syncdomain.NewDispatchError(syncdomain.DispatchReasonOffline, errors.New("connection refused")),
	}
	service, monitor := newDispatchService(t, newFakeCompanyRepo("Acme"), transport, nil)

	_, err := service.RunSync(context.Background(), tenantID, "Acme", 9000)

	var dispatchErr *syncdomain.DispatchError
	require.ErrorAs(t, err, &dispatchErr)
	assert.Equal(t, syncdomain.DispatchReasonOffline, dispatchErr.Reason)
	assert.Equal(t, syncdomain.AgentStatusOffline, monitor.Status(tenantID))

	// No automatic retry on a failed attempt.
	assert.Len(t, transport.sent, 1)
}

func TestDispatchService_Dispatch_TimeoutMarksOffline(t *testing.T) {
	tenantID := uuid.New()
	transport := &fakeTransport{
		err: syncdomain.NewDispatchError(syncdomain.DispatchReasonTimeout, context.DeadlineExceeded),
	}
	service, monitor := newDispatchService(t, newFakeCompanyRepo("Acme"), transport, nil)

	_, err := service.RunSync(context.Background(), tenantID, "Acme", 9000)

	var dispatchErr *syncdomain.DispatchError
	require.ErrorAs(t, err, &dispatchErr)
	assert.Equal(t, syncdomain.DispatchReasonTimeout, dispatchErr.Reason)
	assert.Equal(t, syncdomain.AgentStatusOffline, monitor.Status(tenantID))
}

func TestDispatchService_Dispatch_AgentReportedFailureMarksOffline(t *testing.T) {
	tenantID := uuid.New()
	transport := &fakeTransport{
		result: &syncdomain.SyncResult{Success: false, Message: "company closed in Tally"},
	}
	service, monitor := newDispatchService(t, newFakeCompanyRepo("Acme"), transport, nil)

	result, err := service.RunSync(context.Background(), tenantID, "Acme", 9000)

	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, syncdomain.AgentStatusOffline, monitor.Status(tenantID))
}

func TestDispatchService_Dispatch_StaleResultLeavesLivenessUntouched(t *testing.T) {
	tenantID := uuid.New()

	// Establish online liveness, then a stale answer must not disturb it.
	transport := &fakeTransport{}
	service, monitor := newDispatchService(t, newFakeCompanyRepo("Acme"), transport, nil)
	_, err := service.RunSync(context.Background(), tenantID, "Acme", 9000)
	require.NoError(t, err)
	require.Equal(t, syncdomain.AgentStatusOnline, monitor.Status(tenantID))

	transport.err = errors.New("response does not answer this request")
	_, err = service.RunSync(context.Background(), tenantID, "Acme", 9000)

	assert.ErrorIs(t, err, syncdomain.ErrNoResult)
	assert.Equal(t, syncdomain.AgentStatusOnline, monitor.Status(tenantID))
}

func TestDispatchService_Dispatch_WritesMirror(t *testing.T) {
	tenantID := uuid.New()
	mirror := newFakeMirror()
	service, _ := newDispatchService(t, newFakeCompanyRepo("Acme"), &fakeTransport{}, mirror)

	_, err := service.RunSync(context.Background(), tenantID, "Acme", 9000)

	require.NoError(t, err)
	assert.Equal(t, syncdomain.AgentStatusOnline, mirror.statuses[tenantID])
}

func TestDispatchService_AgentStatus_FallsBackToMirror(t *testing.T) {
	tenantID := uuid.New()
	mirror := newFakeMirror()
	mirror.statuses[tenantID] = syncdomain.AgentStatusOnline
	service, _ := newDispatchService(t, newFakeCompanyRepo("Acme"), &fakeTransport{}, mirror)

	assert.Equal(t, syncdomain.AgentStatusOnline, service.AgentStatus(context.Background(), tenantID))
}

func TestDispatchService_AgentStatus_LocalOutcomeWins(t *testing.T) {
	tenantID := uuid.New()
	mirror := newFakeMirror()
	mirror.statuses[tenantID] = syncdomain.AgentStatusOnline
	transport := &fakeTransport{
		err: syncdomain.NewDispatchError(syncdomain.DispatchReasonOffline, errors.New("unreachable")),
	}
	service, _ := newDispatchService(t, newFakeCompanyRepo("Acme"), transport, mirror)

	_, err := service.RunSync(context.Background(), tenantID, "Acme", 9000)
	require.Error(t, err)

	assert.Equal(t, syncdomain.AgentStatusOffline, service.AgentStatus(context.Background(), tenantID))
}

func TestDispatchService_AgentStatus_MirrorErrorDegradesToChecking(t *testing.T) {
	mirror := newFakeMirror()
	mirror.getErr = errors.New("redis down")
	service, _ := newDispatchService(t, newFakeCompanyRepo("Acme"), &fakeTransport{}, mirror)

	assert.Equal(t, syncdomain.AgentStatusChecking, service.AgentStatus(context.Background(), uuid.New()))
}
