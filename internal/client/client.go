package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/phrazzld/taskwatch/internal/monitor"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "taskwatch-client"

	// maxErrorBody bounds how much of an error response is read.
	maxErrorBody = 4 << 10

	cancelledMessage = "job was cancelled"
)

// Config configures a Client.
type Config struct {
	// BaseURL is the server root, for example http://localhost:8080
	BaseURL string

	// Token is sent as a bearer token when not empty
	Token string

	// Timeout bounds each HTTP request. Zero uses 30s.
	Timeout time.Duration

	UserAgent string
}

// StatusError is returned for unexpected HTTP responses.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Message)
}

// Unwrap reports monitor.ErrJobUnavailable for responses that will not change
// on retry: the job does not exist or the caller may not see it.
func (e *StatusError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return monitor.ErrJobUnavailable
	default:
		return nil
	}
}

// Client calls the taskwatch job API.
type Client struct {
	baseURL   *url.URL
	token     string
	userAgent string
	http      *http.Client
	logger    *slog.Logger
}

// Ensure Client implements monitor.StatusService
var _ monitor.StatusService = (*Client)(nil)

// New creates a Client. It fails if BaseURL is not an absolute http(s) URL.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid server url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid server url %q: must be an absolute http(s) url", cfg.BaseURL)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:   u,
		token:     cfg.Token,
		userAgent: cfg.UserAgent,
		http:      &http.Client{Timeout: cfg.Timeout},
		logger:    logger.With("component", "job_client"),
	}, nil
}

type submitRequest struct {
	Type   string          `json:"type"`
	Params json.RawMessage `json:"params,omitempty"`
}

type submitResponse struct {
	TaskID string `json:"task_id"`
}

type cancelResponse struct {
	Cancelled bool `json:"cancelled"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Failed  bool   `json:"failed"`
	TraceID string `json:"trace_id"`
}

// Submit starts a job and returns its handle.
func (c *Client) Submit(ctx context.Context, jobType string, params json.RawMessage) (monitor.Handle, error) {
	body, err := json.Marshal(submitRequest{Type: jobType, Params: params})
	if err != nil {
		return "", fmt.Errorf("failed to encode submit request: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, "/api/jobs", body)
	if err != nil {
		return "", err
	}
	defer closeBody(resp)

	if resp.StatusCode != http.StatusCreated {
		return "", readStatusError(resp)
	}

	var out submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode submit response: %w", err)
	}
	if out.TaskID == "" {
		return "", errors.New("server returned an empty task id")
	}

	c.logger.Debug("job submitted", "task_id", out.TaskID, "job_type", jobType)
	return monitor.Handle(out.TaskID), nil
}

// PollStatus implements monitor.StatusService.
func (c *Client) PollStatus(ctx context.Context, h monitor.Handle) ([]monitor.StatusUpdate, error) {
	resp, err := c.do(ctx, http.MethodGet, jobPath(h, "progress"), nil)
	if err != nil {
		return nil, err
	}
	defer closeBody(resp)

	if resp.StatusCode != http.StatusOK {
		return nil, readStatusError(resp)
	}

	var updates []monitor.StatusUpdate
	if err := json.NewDecoder(resp.Body).Decode(&updates); err != nil {
		return nil, fmt.Errorf("failed to decode progress: %w", err)
	}
	return updates, nil
}

// FetchResult implements monitor.StatusService. A 202 response maps to
// monitor.ErrResultNotReady; 409 and 410 map to *monitor.JobFailedError.
func (c *Client) FetchResult(ctx context.Context, h monitor.Handle) (json.RawMessage, error) {
	resp, err := c.do(ctx, http.MethodGet, jobPath(h, "result"), nil)
	if err != nil {
		return nil, err
	}
	defer closeBody(resp)

	switch resp.StatusCode {
	case http.StatusOK:
		payload, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read result: %w", err)
		}
		return json.RawMessage(payload), nil

	case http.StatusAccepted:
		return nil, monitor.ErrResultNotReady

	case http.StatusConflict:
		var body errorResponse
		if err := json.NewDecoder(io.LimitReader(resp.Body, maxErrorBody)).Decode(&body); err != nil || !body.Failed {
			return nil, &StatusError{StatusCode: resp.StatusCode, Message: body.Error}
		}
		return nil, &monitor.JobFailedError{Message: body.Error}

	case http.StatusGone:
		return nil, &monitor.JobFailedError{Message: cancelledMessage}

	default:
		return nil, readStatusError(resp)
	}
}

// RequestCancel implements monitor.StatusService.
func (c *Client) RequestCancel(ctx context.Context, h monitor.Handle) (bool, error) {
	resp, err := c.do(ctx, http.MethodPost, jobPath(h, "cancel"), nil)
	if err != nil {
		return false, err
	}
	defer closeBody(resp)

	if resp.StatusCode != http.StatusOK {
		return false, readStatusError(resp)
	}

	var out cancelResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, fmt.Errorf("failed to decode cancel response: %w", err)
	}
	return out.Cancelled, nil
}

// AddEmailAlert implements monitor.StatusService.
func (c *Client) AddEmailAlert(ctx context.Context, h monitor.Handle) error {
	resp, err := c.do(ctx, http.MethodPost, jobPath(h, "email-alert"), nil)
	if err != nil {
		return err
	}
	defer closeBody(resp)

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return readStatusError(resp)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	u := c.baseURL.JoinPath(path)

	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), rdr)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}

	c.logger.Debug("request completed",
		"method", method,
		"path", path,
		"status", resp.StatusCode)
	return resp, nil
}

func jobPath(h monitor.Handle, action string) string {
	return "/api/jobs/" + url.PathEscape(string(h)) + "/" + action
}

func readStatusError(resp *http.Response) error {
	serr := &StatusError{StatusCode: resp.StatusCode}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var body errorResponse
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		serr.Message = body.Error
	} else {
		serr.Message = strings.TrimSpace(string(raw))
	}
	return serr
}

func closeBody(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
	_ = resp.Body.Close()
}
