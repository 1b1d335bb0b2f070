package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	syncapp "github.com/catalogportal/backend/internal/application/sync"
	"github.com/catalogportal/backend/internal/infrastructure/scheduler"
)

// SyncHandler handles ERP synchronization endpoints: company registration,
// manual runs, the automatic schedule and the combined status view
type SyncHandler struct {
	BaseHandler
	companyService  *syncapp.CompanyService
	dispatchService *syncapp.DispatchService
	syncScheduler   *scheduler.SyncScheduler
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(
	companyService *syncapp.CompanyService,
	dispatchService *syncapp.DispatchService,
	syncScheduler *scheduler.SyncScheduler,
) *SyncHandler {
	return &SyncHandler{
		companyService:  companyService,
		dispatchService: dispatchService,
		syncScheduler:   syncScheduler,
	}
}

// RegisterCompany registers an ERP company name as a sync target
func (h *SyncHandler) RegisterCompany(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant identity")
		return
	}

	var req syncapp.RegisterCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	company, err := h.companyService.Register(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, company)
}

// ListCompanies returns the tenant's registered companies in registration order
func (h *SyncHandler) ListCompanies(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant identity")
		return
	}

	companies, err := h.companyService.List(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, companies)
}

// Run triggers a manual sync run. It shares the per-tenant in-flight slot
// with the schedule, so a run overlapping an outstanding one is rejected.
func (h *SyncHandler) Run(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant identity")
		return
	}

	var req syncapp.RunSyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	result, err := h.syncScheduler.RunOnce(c.Request.Context(), tenantID, req.CompanyName, req.Port)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, syncapp.ToSyncRunResponse(result))
}

// TestConnection probes the tenant's agent without transferring data
func (h *SyncHandler) TestConnection(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant identity")
		return
	}

	var req syncapp.RunSyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	result, err := h.dispatchService.TestConnection(c.Request.Context(), tenantID, req.CompanyName, req.Port)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, syncapp.ToSyncRunResponse(result))
}

// StartSchedule arms automatic sync for the tenant. Starting an already
// armed schedule is a no-op.
func (h *SyncHandler) StartSchedule(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant identity")
		return
	}

	var req syncapp.StartScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	interval := time.Duration(req.IntervalSeconds) * time.Second
	if err := h.syncScheduler.Start(c.Request.Context(), tenantID, req.CompanyName, req.Port, interval); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, h.scheduleResponse(c))
}

// StopSchedule disarms automatic sync. Stopping when nothing is armed is a
// no-op.
func (h *SyncHandler) StopSchedule(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant identity")
		return
	}

	if err := h.syncScheduler.Stop(tenantID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, h.scheduleResponse(c))
}

// Status returns the combined agent liveness, schedule and last-run view
func (h *SyncHandler) Status(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant identity")
		return
	}

	status := syncapp.SyncStatusResponse{
		AgentStatus: string(h.dispatchService.AgentStatus(c.Request.Context(), tenantID)),
	}
	if sched, ok := h.syncScheduler.ScheduleFor(tenantID); ok {
		status.Schedule = syncapp.ScheduleResponse{
			Active:          true,
			CompanyName:     sched.CompanyName,
			Port:            sched.Port,
			IntervalSeconds: int(sched.Interval / time.Second),
		}
	}
	if outcome, ok := h.syncScheduler.LastOutcome(tenantID); ok {
		status.LastRun = &syncapp.LastRunResponse{
			Time:    outcome.Time,
			Success: outcome.Success,
			Message: outcome.Message,
		}
	}

	h.Success(c, status)
}

func (h *SyncHandler) scheduleResponse(c *gin.Context) syncapp.ScheduleResponse {
	tenantID, err := getTenantID(c)
	if err != nil {
		return syncapp.ScheduleResponse{}
	}

	sched, ok := h.syncScheduler.ScheduleFor(tenantID)
	if !ok {
		return syncapp.ScheduleResponse{Active: false}
	}
	return syncapp.ScheduleResponse{
		Active:          true,
		CompanyName:     sched.CompanyName,
		Port:            sched.Port,
		IntervalSeconds: int(sched.Interval / time.Second),
	}
}

// RegisterRoutes registers all sync routes
func (h *SyncHandler) RegisterRoutes(rg *gin.RouterGroup) {
	sync := rg.Group("/sync")
	{
		sync.POST("/companies", h.RegisterCompany)
		sync.GET("/companies", h.ListCompanies)
		sync.POST("/run", h.Run)
		sync.POST("/test-connection", h.TestConnection)
		sync.POST("/schedule/start", h.StartSchedule)
		sync.POST("/schedule/stop", h.StopSchedule)
		sync.GET("/status", h.Status)
	}
}
