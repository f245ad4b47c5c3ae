// Package service talks to the remote detection service's session API.
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lazyvibe/axial/internal/model"
)

const (
	startPath = "/start"
	stopPath  = "/stop"
)

// StatusError is returned when the service answers with a non-2xx status.
type StatusError struct {
	Op     string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s: service returned %d", e.Op, e.Status)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// StartResponse is the service's answer to a start request.
type StartResponse struct {
	SessionID string    `json:"sessionId"`
	StartTime time.Time `json:"startTime"`
}

// StopResponse is the service's answer to a stop request.
type StopResponse struct {
	SessionID string    `json:"sessionId"`
	EndTime   time.Time `json:"endTime"`
	// Duration is reported by the service in seconds.
	Duration float64 `json:"duration"`
}

// API is the remote session API used by the controller.
type API interface {
	Start(ctx context.Context, cfg model.SessionConfig) (StartResponse, error)
	Stop(ctx context.Context, sessionID string) (StopResponse, error)
}

// Client implements API over HTTP.
type Client struct {
	baseURL string
	client  *http.Client
	now     func() time.Time
}

// NewClient creates a Client for the service at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		now:     time.Now,
	}
}

// Start asks the service to begin monitoring with cfg.
func (c *Client) Start(ctx context.Context, cfg model.SessionConfig) (StartResponse, error) {
	var resp StartResponse
	if err := c.post(ctx, "start session", startPath, cfg, &resp); err != nil {
		return StartResponse{}, err
	}
	// The reference service answers with a bare status object.
	if resp.SessionID == "" {
		resp.SessionID = uuid.NewString()
	}
	if resp.StartTime.IsZero() {
		resp.StartTime = c.now()
	}
	return resp, nil
}

// Stop asks the service to end the session.
func (c *Client) Stop(ctx context.Context, sessionID string) (StopResponse, error) {
	var body any
	if sessionID != "" {
		body = map[string]string{"sessionId": sessionID}
	}
	var resp StopResponse
	if err := c.post(ctx, "stop session", stopPath, body, &resp); err != nil {
		return StopResponse{}, err
	}
	if resp.SessionID == "" {
		resp.SessionID = sessionID
	}
	if resp.EndTime.IsZero() {
		resp.EndTime = c.now()
	}
	return resp, nil
}

func (c *Client) post(ctx context.Context, op, path string, in, out any) error {
	var reader io.Reader = http.NoBody
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s: read response: %w", op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Op: op, Status: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}
