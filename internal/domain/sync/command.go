package sync

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Action identifies what the agent should do with a command
type Action string

const (
	// ActionFetchTally instructs the agent to pull company and stock data from the ERP installation
	ActionFetchTally Action = "FETCH_TALLY"
	// ActionTest is a connectivity probe that performs no data transfer
	ActionTest Action = "TEST"
)

// CommandPayload carries the ERP target parameters for a sync command
type CommandPayload struct {
	CompanyName string `json:"companyName"`
	Port        int    `json:"port"`
}

// SyncCommand is the signed envelope transmitted to the on-premises agent.
// RequestID is generated fresh per attempt and never reused across retries;
// the signature covers everything else and is verified by the agent before
// it acts.
type SyncCommand struct {
	RequestID string         `json:"requestId"`
	Action    Action         `json:"action"`
	Payload   CommandPayload `json:"payload"`
	Signature string         `json:"signature"`
}

// NewSyncCommand builds an unsigned command with a fresh request ID.
// The caller signs it via a Signer before transmission.
func NewSyncCommand(action Action, companyName string, port int) (*SyncCommand, error) {
	if companyName == "" {
		return nil, ErrCompanyNameEmpty
	}
	if port < 1 || port > 65535 {
		return nil, ErrInvalidPort
	}

	return &SyncCommand{
		RequestID: uuid.New().String(),
		Action:    action,
		Payload: CommandPayload{
			CompanyName: companyName,
			Port:        port,
		},
	}, nil
}

// CanonicalString returns the deterministic serialization the signature is
// computed over. Field order is fixed; changing it breaks verification on
// every deployed agent.
func (c *SyncCommand) CanonicalString() string {
	return c.RequestID + "|" + string(c.Action) + "|" + c.Payload.CompanyName + "|" + strconv.Itoa(c.Payload.Port)
}

// SyncResult is the agent's answer to a SyncCommand. A result whose
// RequestID does not match an outstanding command is stale and must be
// discarded.
type SyncResult struct {
	RequestID string         `json:"requestId"`
	Success   bool           `json:"success"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
}

// Matches reports whether this result answers the given command
func (r *SyncResult) Matches(cmd *SyncCommand) bool {
	return cmd != nil && r.RequestID == cmd.RequestID
}

// RunOutcome records the completion of a sync run for observability.
// The scheduler overwrites it on every run, success or failure.
type RunOutcome struct {
	Time    time.Time `json:"time"`
	Success bool      `json:"success"`
	Message string    `json:"message"`
}

// String returns a short human-readable summary of the outcome
func (o RunOutcome) String() string {
	status := "failure"
	if o.Success {
		status = "success"
	}
	return fmt.Sprintf("%s at %s: %s", status, o.Time.Format(time.RFC3339), o.Message)
}
