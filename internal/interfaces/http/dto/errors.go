package dto

import "net/http"

// General error codes
const (
	ErrCodeInternal   = "INTERNAL_ERROR"
	ErrCodeBadRequest = "BAD_REQUEST"
	ErrCodeValidation = "VALIDATION_ERROR"
)

// Authentication error codes
const (
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeForbidden    = "FORBIDDEN"
)

// Resource error codes
const (
	ErrCodeNotFound = "NOT_FOUND"
	ErrCodeConflict = "CONFLICT"
)

// Synchronization error codes. Gateway-style codes distinguish the portal
// being broken from the tenant's on-premises agent being unreachable.
const (
	ErrCodeDuplicateCompany = "DUPLICATE_COMPANY"
	ErrCodeAgentOffline     = "AGENT_OFFLINE"
	ErrCodeAgentTimeout     = "AGENT_TIMEOUT"
	ErrCodeSyncNoResult     = "SYNC_NO_RESULT"
	ErrCodeSyncInProgress   = "SYNC_IN_PROGRESS"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:   http.StatusInternalServerError,
	ErrCodeBadRequest: http.StatusBadRequest,
	ErrCodeValidation: http.StatusBadRequest,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,

	ErrCodeNotFound: http.StatusNotFound,
	ErrCodeConflict: http.StatusConflict,

	ErrCodeDuplicateCompany: http.StatusConflict,
	ErrCodeAgentOffline:     http.StatusBadGateway,
	ErrCodeAgentTimeout:     http.StatusGatewayTimeout,
	ErrCodeSyncNoResult:     http.StatusBadGateway,
	ErrCodeSyncInProgress:   http.StatusConflict,
}

// GetHTTPStatus returns the HTTP status code for an error code, defaulting
// to 500 for unknown codes
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
