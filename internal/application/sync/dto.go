package sync

import (
	"time"

	syncdomain "github.com/catalogportal/backend/internal/domain/sync"
)

// RegisterCompanyRequest is the input for registering a company for sync
type RegisterCompanyRequest struct {
	CompanyName string `json:"companyName" binding:"required"`
}

// CompanyResponse represents a registered company
type CompanyResponse struct {
	ID          string    `json:"id"`
	CompanyName string    `json:"companyName"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ToCompanyResponse converts a domain registration to its response form
func ToCompanyResponse(registration *syncdomain.CompanyRegistration) *CompanyResponse {
	return &CompanyResponse{
		ID:          registration.ID.String(),
		CompanyName: registration.CompanyName,
		CreatedAt:   registration.CreatedAt,
	}
}

// RunSyncRequest is the input for a user-triggered sync run
type RunSyncRequest struct {
	CompanyName string `json:"companyName" binding:"required"`
	Port        int    `json:"port" binding:"required,min=1,max=65535"`
}

// StartScheduleRequest is the input for arming automatic sync
type StartScheduleRequest struct {
	CompanyName     string `json:"companyName" binding:"required"`
	Port            int    `json:"port" binding:"required,min=1,max=65535"`
	IntervalSeconds int    `json:"intervalSeconds" binding:"omitempty,min=1"`
}

// SyncRunResponse reports the outcome of a single sync run
type SyncRunResponse struct {
	RequestID string         `json:"requestId"`
	Success   bool           `json:"success"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
}

// ToSyncRunResponse converts an agent result to its response form
func ToSyncRunResponse(result *syncdomain.SyncResult) *SyncRunResponse {
	return &SyncRunResponse{
		RequestID: result.RequestID,
		Success:   result.Success,
		Message:   result.Message,
		Details:   result.Details,
	}
}

// LastRunResponse reports the most recently completed run
type LastRunResponse struct {
	Time    time.Time `json:"time"`
	Success bool      `json:"success"`
	Message string    `json:"message"`
}

// ScheduleResponse reports the tenant's automatic sync state
type ScheduleResponse struct {
	Active          bool   `json:"active"`
	CompanyName     string `json:"companyName,omitempty"`
	Port            int    `json:"port,omitempty"`
	IntervalSeconds int    `json:"intervalSeconds,omitempty"`
}

// SyncStatusResponse is the combined liveness and schedule view
type SyncStatusResponse struct {
	AgentStatus string           `json:"agentStatus"`
	Schedule    ScheduleResponse `json:"schedule"`
	LastRun     *LastRunResponse `json:"lastRun,omitempty"`
}
