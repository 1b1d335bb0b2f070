package scheduler

import "errors"

var (
	// ErrSchedulerClosed is returned when scheduling on a scheduler that has been shut down
	ErrSchedulerClosed = errors.New("scheduler has been shut down")

	// ErrInvalidInterval is returned when the configured interval is not positive
	ErrInvalidInterval = errors.New("scheduler interval must be positive")

	// ErrRunInFlight is returned when a manual run is requested while another
	// run for the same tenant is still outstanding
	ErrRunInFlight = errors.New("a sync run is already in flight for this tenant")
)
