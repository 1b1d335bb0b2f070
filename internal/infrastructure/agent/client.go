package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	syncdomain "github.com/catalogportal/backend/internal/domain/sync"
)

// maxResponseSize limits the response body size to prevent memory exhaustion
const maxResponseSize = 1 * 1024 * 1024 // 1MB max response

// ErrStaleResult indicates the agent answered for a request that is no
// longer outstanding. Stale results carry no liveness signal and must
// be discarded without acting on them.
var ErrStaleResult = errors.New("stale result for unknown request")

// Transport delivers a signed command to the on-premise agent and
// returns its result.
type Transport interface {
	Send(ctx context.Context, cmd *syncdomain.SyncCommand) (*syncdomain.SyncResult, error)
}

// Client talks to the desktop sync agent over HTTP. The agent listens on
// a per-company port carried in the command payload.
type Client struct {
	host       string
	timeout    time.Duration
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new agent client
func NewClient(host string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		host:    host,
		timeout: timeout,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger.Named("agent"),
	}
}

// Send delivers the command to the agent and waits for its result.
// Failures are classified as DispatchError: unreachable agents report
// ReasonOffline, expired deadlines report ReasonTimeout. A result whose
// requestId does not match the command is reported as ErrStaleResult.
func (c *Client) Send(ctx context.Context, cmd *syncdomain.SyncCommand) (*syncdomain.SyncResult, error) {
	body, err := json.Marshal(cmd)
	if err != nil {
		return nil, fmt.Errorf("agent: failed to marshal command: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	url := fmt.Sprintf("http://%s:%d/sync", c.host, cmd.Payload.Port)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("agent: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", cmd.RequestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.classify(cmd, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, c.classify(cmd, err)
	}

	if resp.StatusCode >= 400 {
		return nil, syncdomain.NewDispatchError(syncdomain.DispatchReasonOffline,
			fmt.Errorf("agent: HTTP %d", resp.StatusCode))
	}

	var result syncdomain.SyncResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("agent: failed to decode result: %w", err)
	}

	if !result.Matches(cmd) {
		c.logger.Warn("Discarding stale agent result",
			zap.String("expected_request_id", cmd.RequestID),
			zap.String("got_request_id", result.RequestID),
		)
		return nil, ErrStaleResult
	}

	return &result, nil
}

// classify maps transport failures onto dispatch reasons
func (c *Client) classify(cmd *syncdomain.SyncCommand, err error) error {
	reason := syncdomain.DispatchReasonOffline
	if errors.Is(err, context.DeadlineExceeded) {
		reason = syncdomain.DispatchReasonTimeout
	} else {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			reason = syncdomain.DispatchReasonTimeout
		}
	}

	c.logger.Warn("Agent dispatch failed",
		zap.String("request_id", cmd.RequestID),
		zap.String("company", cmd.Payload.CompanyName),
		zap.Int("port", cmd.Payload.Port),
		zap.String("reason", string(reason)),
		zap.Error(err),
	)
	return syncdomain.NewDispatchError(reason, err)
}

var _ Transport = (*Client)(nil)
