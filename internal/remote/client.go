package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fleet-console/fleet-console-pro/internal/models"
)

// DefaultTimeout bounds every REST call to the backend
const DefaultTimeout = 10 * time.Second

// Client is the typed REST client for the automation backend. All errors
// returned by its methods are *APIError.
type Client struct {
	baseURL       string
	activationKey string
	httpClient    *http.Client
}

// Option configures a Client
type Option func(*Client)

// WithTimeout overrides the default request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithActivationKey attaches the key as a bearer token on every request
func WithActivationKey(key string) Option {
	return func(c *Client) {
		c.activationKey = key
	}
}

// NewClient creates a backend client for the given base URL
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured backend base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// errorBody is the backend's error envelope; detail takes precedence
// over message, matching what the backend actually emits
type errorBody struct {
	Detail  string `json:"detail"`
	Message string `json:"message"`
}

// do performs one request and normalizes every failure to *APIError
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &APIError{Kind: KindClient, Message: fmt.Sprintf("encode request: %v", err), Err: err}
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return &APIError{Kind: KindClient, Message: fmt.Sprintf("build request: %v", err), Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.activationKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.activationKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &APIError{Kind: KindConnectivity, Message: connectivityMessage, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.normalizeStatus(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &APIError{
				Kind:       KindServer,
				StatusCode: resp.StatusCode,
				Message:    fmt.Sprintf("Server error: malformed response: %v", err),
				Err:        err,
			}
		}
	}

	return nil
}

// normalizeStatus converts a non-2xx response into the error taxonomy
func (c *Client) normalizeStatus(resp *http.Response) *APIError {
	var eb errorBody
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(data, &eb); err != nil {
		log.Debug().Int("status", resp.StatusCode).Msg("non-JSON error body from backend")
	}

	detail := eb.Detail
	if detail == "" {
		detail = eb.Message
	}
	if detail == "" {
		detail = http.StatusText(resp.StatusCode)
	}

	if resp.StatusCode >= 500 {
		return &APIError{
			Kind:       KindServer,
			StatusCode: resp.StatusCode,
			Message:    "Server error: " + detail,
		}
	}

	return &APIError{
		Kind:       KindClient,
		StatusCode: resp.StatusCode,
		Message:    detail,
	}
}

// ========== Automation endpoints ==========

// AutomationStatus fetches the full fleet snapshot
func (c *Client) AutomationStatus(ctx context.Context) (*models.AutomationStatus, error) {
	var status models.AutomationStatus
	if err := c.do(ctx, http.MethodGet, "/automation/status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// StartAutomation starts automation for the given scope
func (c *Client) StartAutomation(ctx context.Context, sel models.DeviceSelection) (*models.AutomationStatus, error) {
	var status models.AutomationStatus
	if err := c.do(ctx, http.MethodPost, "/automation/start", sel, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// StopAutomation stops automation for the given scope. An empty scope
// stops the entire fleet.
func (c *Client) StopAutomation(ctx context.Context, sel models.DeviceSelection) (*models.AutomationStatus, error) {
	var status models.AutomationStatus
	if err := c.do(ctx, http.MethodPost, "/automation/stop", sel, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// ========== Account endpoints ==========

// EnableAccount enables a single device
func (c *Client) EnableAccount(ctx context.Context, deviceID string) (*models.DeviceRecord, error) {
	var record models.DeviceRecord
	path := "/accounts/" + url.PathEscape(deviceID) + "/enable"
	if err := c.do(ctx, http.MethodPatch, path, nil, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// DisableAccount disables a single device
func (c *Client) DisableAccount(ctx context.Context, deviceID string) (*models.DeviceRecord, error) {
	var record models.DeviceRecord
	path := "/accounts/" + url.PathEscape(deviceID) + "/disable"
	if err := c.do(ctx, http.MethodPatch, path, nil, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// AccountStats fetches the rolling counters for one device
func (c *Client) AccountStats(ctx context.Context, deviceID string) (*models.DeviceStats, error) {
	var stats models.DeviceStats
	path := "/accounts/" + url.PathEscape(deviceID) + "/stats"
	if err := c.do(ctx, http.MethodGet, path, nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// ========== Config endpoints ==========

// GetConfig fetches the follow-automation session config
func (c *Client) GetConfig(ctx context.Context) (*models.SessionConfig, error) {
	var cfg models.SessionConfig
	if err := c.do(ctx, http.MethodGet, "/config", nil, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// UpdateConfig sends the whole session config draft to the backend
func (c *Client) UpdateConfig(ctx context.Context, cfg models.SessionConfig) (*models.SessionConfig, error) {
	var updated models.SessionConfig
	if err := c.do(ctx, http.MethodPatch, "/config", cfg, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// ========== Target endpoints ==========

// TargetListParams narrows a target listing
type TargetListParams struct {
	Page   int
	Limit  int
	Status string
}

// ListTargets lists queued targets
func (c *Client) ListTargets(ctx context.Context, params TargetListParams) ([]models.Target, error) {
	q := url.Values{}
	if params.Page > 0 {
		q.Set("page", strconv.Itoa(params.Page))
	}
	if params.Limit > 0 {
		q.Set("limit", strconv.Itoa(params.Limit))
	}
	if params.Status != "" {
		q.Set("status", params.Status)
	}

	path := "/targets"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var targets []models.Target
	if err := c.do(ctx, http.MethodGet, path, nil, &targets); err != nil {
		return nil, err
	}
	return targets, nil
}

// AddTargets appends targets to the pending queue
func (c *Client) AddTargets(ctx context.Context, targets []models.TargetBase) (string, error) {
	var resp struct {
		Message string `json:"message"`
	}
	if err := c.do(ctx, http.MethodPost, "/targets", targets, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// TargetStats fetches the target queue summary
func (c *Client) TargetStats(ctx context.Context) (*models.TargetStats, error) {
	var stats models.TargetStats
	if err := c.do(ctx, http.MethodGet, "/targets/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// ========== Log endpoints ==========

// ListLogs fetches the recent log backlog, optionally for one device
func (c *Client) ListLogs(ctx context.Context, limit int, deviceID string) ([]models.LogEvent, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if deviceID != "" {
		q.Set("device_id", deviceID)
	}

	path := "/logs"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var logs []models.LogEvent
	if err := c.do(ctx, http.MethodGet, path, nil, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}
