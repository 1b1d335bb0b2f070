package sync

import (
	"fmt"

	"github.com/catalogportal/backend/internal/domain/shared"
)

// Common sync domain errors
var (
	// ErrCompanyNameEmpty is returned when a company name is empty or whitespace-only
	ErrCompanyNameEmpty = shared.NewDomainError("VALIDATION_ERROR", "Company name cannot be empty")

	// ErrCompanyExists is returned when registering a company name already registered for the tenant
	ErrCompanyExists = shared.NewDomainError("DUPLICATE_COMPANY", "Company is already registered")

	// ErrCompanyNotRegistered is returned when dispatching for a company the tenant never registered
	ErrCompanyNotRegistered = shared.NewDomainError("VALIDATION_ERROR", "Company is not registered for synchronization")

	// ErrInvalidPort is returned when the agent port is outside 1-65535
	ErrInvalidPort = shared.NewDomainError("VALIDATION_ERROR", "Port must be between 1 and 65535")

	// ErrNoResult is returned when a dispatch attempt completed without a
	// usable result, e.g. the only answer carried a stale request ID.
	// Liveness is left untouched: nothing was learned about the agent.
	ErrNoResult = shared.NewDomainError("SYNC_NO_RESULT", "Sync attempt produced no result, please retry")
)

// DispatchReason classifies why a dispatch attempt failed before the agent answered
type DispatchReason string

const (
	DispatchReasonOffline DispatchReason = "offline"
	DispatchReasonTimeout DispatchReason = "timeout"
)

// DispatchError indicates the agent could not be reached: the command was
// never answered. An agent-reported failure is NOT a DispatchError; it
// arrives as an unsuccessful SyncResult.
type DispatchError struct {
	Reason DispatchReason
	Err    error
}

// Error implements the error interface
func (e *DispatchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("agent dispatch failed (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("agent dispatch failed (%s)", e.Reason)
}

// Unwrap returns the underlying transport error
func (e *DispatchError) Unwrap() error {
	return e.Err
}

// NewDispatchError creates a DispatchError with the given reason
func NewDispatchError(reason DispatchReason, err error) *DispatchError {
	return &DispatchError{Reason: reason, Err: err}
}
