package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	syncapp "github.com/catalogportal/backend/internal/application/sync"
	syncdomain "github.com/catalogportal/backend/internal/domain/sync"
	"github.com/catalogportal/backend/internal/infrastructure/scheduler"
	"github.com/catalogportal/backend/internal/interfaces/http/dto"
	"github.com/catalogportal/backend/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubCompanyRepo struct {
	companies map[string]bool
	order     []syncdomain.CompanyRegistration
}

func newStubCompanyRepo(names ...string) *stubCompanyRepo {
	repo := &stubCompanyRepo{companies: make(map[string]bool)}
	for _, name := range names {
		repo.companies[name] = true
	}
	return repo
}

func (r *stubCompanyRepo) Save(_ context.Context, registration *syncdomain.CompanyRegistration) error {
	r.companies[registration.CompanyName] = true
	r.order = append(r.order, *registration)
	return nil
}

func (r *stubCompanyRepo) ExistsByName(_ context.Context, _ uuid.UUID, companyName string) (bool, error) {
	return r.companies[companyName], nil
}

func (r *stubCompanyRepo) ListForTenant(_ context.Context, _ uuid.UUID) ([]syncdomain.CompanyRegistration, error) {
	return r.order, nil
}

type stubTransport struct {
	err     error
	success bool
	message string
	block   chan struct{}
}

func (t *stubTransport) Send(_ context.Context, cmd *syncdomain.SyncCommand) (*syncdomain.SyncResult, error) {
	if t.block != nil {
		<-t.block
	}
	if t.err != nil {
		return nil, t.err
	}
	return &syncdomain.SyncResult{RequestID: cmd.RequestID, Success: t.success, Message: t.message}, nil
}

type syncFixture struct {
	router    *gin.Engine
	tenantID  uuid.UUID
	transport *stubTransport
	repo      *stubCompanyRepo
	scheduler *scheduler.SyncScheduler
}

func newSyncFixture(t *testing.T, registered ...string) *syncFixture {
	t.Helper()

	repo := newStubCompanyRepo(registered...)
	transport := &stubTransport{success: true, message: "synced"}
	signer, err := syncdomain.NewHMACSigner("handler-test-master-secret-0123456789ab")
	require.NoError(t, err)

	dispatchService := syncapp.NewDispatchService(repo, signer, transport, syncdomain.NewAgentMonitor(), nil, zap.NewNop())
	syncScheduler, err := scheduler.NewSyncScheduler(dispatchService, time.Minute, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = syncScheduler.Shutdown(context.Background()) })

	tenantID := uuid.New()
	engine := gin.New()
	engine.Use(func(c *gin.Context) {
		c.Set(middleware.JWTTenantIDKey, tenantID.String())
	})

	handler := NewSyncHandler(syncapp.NewCompanyService(repo), dispatchService, syncScheduler)
	api := engine.Group("/api/v1")
	handler.RegisterRoutes(api)

	return &syncFixture{
		router:    engine,
		tenantID:  tenantID,
		transport: transport,
		repo:      repo,
		scheduler: syncScheduler,
	}
}

func (f *syncFixture) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, dto.Response) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	var resp dto.Response
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func TestSyncHandler_RegisterCompany(t *testing.T) {
	f := newSyncFixture(t)

	w, resp := f.do(t, http.MethodPost, "/api/v1/sync/companies", gin.H{"companyName": "Acme Traders"})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, resp.Success)
	assert.True(t, f.repo.companies["Acme Traders"])
}

func TestSyncHandler_RegisterCompany_Duplicate(t *testing.T) {
	f := newSyncFixture(t, "Acme")

	w, resp := f.do(t, http.MethodPost, "/api/v1/sync/companies", gin.H{"companyName": "Acme"})

	assert.Equal(t, http.StatusConflict, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "DUPLICATE_COMPANY", resp.Error.Code)
}

func TestSyncHandler_RegisterCompany_MissingName(t *testing.T) {
	f := newSyncFixture(t)

	w, _ := f.do(t, http.MethodPost, "/api/v1/sync/companies", gin.H{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSyncHandler_ListCompanies(t *testing.T) {
	f := newSyncFixture(t)

	_, _ = f.do(t, http.MethodPost, "/api/v1/sync/companies", gin.H{"companyName": "First"})
	_, _ = f.do(t, http.MethodPost, "/api/v1/sync/companies", gin.H{"companyName": "Second"})
	w, resp := f.do(t, http.MethodGet, "/api/v1/sync/companies", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	companies, ok := resp.Data.([]any)
	require.True(t, ok)
	assert.Len(t, companies, 2)
}

func TestSyncHandler_Run(t *testing.T) {
	f := newSyncFixture(t, "Acme")

	w, resp := f.do(t, http.MethodPost, "/api/v1/sync/run", gin.H{"companyName": "Acme", "port": 9000})

	assert.Equal(t, http.StatusOK, w.Code)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, data["success"])
	assert.Equal(t, "synced", data["message"])
}

func TestSyncHandler_Run_UnregisteredCompany(t *testing.T) {
	f := newSyncFixture(t)

	w, resp := f.do(t, http.MethodPost, "/api/v1/sync/run", gin.H{"companyName": "Ghost", "port": 9000})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
}

func TestSyncHandler_Run_AgentOffline(t *testing.T) {
	f := newSyncFixture(t, "Acme")
	f.transport.err = syncdomain.NewDispatchError(syncdomain.DispatchReasonOffline, errors.New("connection refused"))

	w, resp := f.do(t, http.MethodPost, "/api/v1/sync/run", gin.H{"companyName": "Acme", "port": 9000})

	assert.Equal(t, http.StatusBadGateway, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "AGENT_OFFLINE", resp.Error.Code)
}

func TestSyncHandler_Run_AgentTimeout(t *testing.T) {
	f := newSyncFixture(t, "Acme")
	f.transport.err = syncdomain.NewDispatchError(syncdomain.DispatchReasonTimeout, context.DeadlineExceeded)

	w, resp := f.do(t, http.MethodPost, "/api/v1/sync/run", gin.H{"companyName": "Acme", "port": 9000})

	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "AGENT_TIMEOUT", resp.Error.Code)
}

func TestSyncHandler_Run_RejectedWhileInFlight(t *testing.T) {
	f := newSyncFixture(t, "Acme")
	f.transport.block = make(chan struct{})

	firstDone := make(chan struct{})
	go func() {
		defer close(firstDone)
		_, _ = f.do(t, http.MethodPost, "/api/v1/sync/run", gin.H{"companyName": "Acme", "port": 9000})
	}()

	// Second run while the first is still outstanding.
	require.Eventually(t, func() bool {
		w, resp := f.do(t, http.MethodPost, "/api/v1/sync/run", gin.H{"companyName": "Acme", "port": 9000})
		return w.Code == http.StatusConflict && resp.Error != nil && resp.Error.Code == "SYNC_IN_PROGRESS"
	}, time.Second, 5*time.Millisecond)

	close(f.transport.block)
	<-firstDone
}

func TestSyncHandler_Run_InvalidPort(t *testing.T) {
	f := newSyncFixture(t, "Acme")

	w, _ := f.do(t, http.MethodPost, "/api/v1/sync/run", gin.H{"companyName": "Acme", "port": 70000})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSyncHandler_ScheduleLifecycle(t *testing.T) {
	f := newSyncFixture(t, "Acme")

	w, resp := f.do(t, http.MethodPost, "/api/v1/sync/schedule/start",
		gin.H{"companyName": "Acme", "port": 9000, "intervalSeconds": 300})
	assert.Equal(t, http.StatusOK, w.Code)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, data["active"])
	assert.Equal(t, float64(300), data["intervalSeconds"])

	w, resp = f.do(t, http.MethodPost, "/api/v1/sync/schedule/stop", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	data, ok = resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, false, data["active"])
}

func TestSyncHandler_Status(t *testing.T) {
	f := newSyncFixture(t, "Acme")

	_, _ = f.do(t, http.MethodPost, "/api/v1/sync/run", gin.H{"companyName": "Acme", "port": 9000})
	w, resp := f.do(t, http.MethodGet, "/api/v1/sync/status", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "online", data["agentStatus"])
	lastRun, ok := data["lastRun"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, lastRun["success"])
}

func TestSyncHandler_Status_BeforeFirstRun(t *testing.T) {
	f := newSyncFixture(t)

	w, resp := f.do(t, http.MethodGet, "/api/v1/sync/status", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "checking", data["agentStatus"])
	assert.Nil(t, data["lastRun"])
}

func TestSyncHandler_TestConnection(t *testing.T) {
	f := newSyncFixture(t, "Acme")
	f.transport.message = "agent reachable"

	w, resp := f.do(t, http.MethodPost, "/api/v1/sync/test-connection", gin.H{"companyName": "Acme", "port": 9000})

	assert.Equal(t, http.StatusOK, w.Code)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "agent reachable", data["message"])
}
