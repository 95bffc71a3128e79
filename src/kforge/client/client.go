// Package client talks to a running kforge server.
package client

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

	"github.com/bitswalk/kforge/src/kforge/api"
	"github.com/bitswalk/kforge/src/kforge/db"
)

// DefaultTimeout bounds every request; plan creation can probe the
// server's toolchain
const DefaultTimeout = 60 * time.Second

// Client is an HTTP client for the kforge API
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	UserAgent  string
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// APIError represents a structured API error
type APIError struct {
	StatusCode int
	ErrorCode  string
	Message    string
}

func (e *APIError) Error() string {
	var base string
	if e.ErrorCode != "" {
		base = fmt.Sprintf("%s: %s (HTTP %d)", e.ErrorCode, e.Message, e.StatusCode)
	} else {
		base = fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
	}

	switch e.StatusCode {
	case http.StatusNotFound:
		return base + "\nHint: Plan not found. List saved plans with 'kforge remote history'."
	case http.StatusServiceUnavailable:
		return base + "\nHint: The server has no history or storage configured."
	}
	return base
}

// ListOptions holds optional query parameters for the plan list
type ListOptions struct {
	Limit   int
	Version string
}

// QueryString builds a URL query string from the options
func (o *ListOptions) QueryString() string {
	if o == nil {
		return ""
	}
	params := url.Values{}
	if o.Limit > 0 {
		params.Set("limit", strconv.Itoa(o.Limit))
	}
	if o.Version != "" {
		params.Set("version", o.Version)
	}
	if len(params) == 0 {
		return ""
	}
	return "?" + params.Encode()
}

// New creates a new API client
func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// Health returns the server's health report. A degraded server answers
// 503 with a report; that report is returned along with the error.
func (c *Client) Health(ctx context.Context) (*api.HealthResponse, error) {
	var resp api.HealthResponse
	err := c.get(ctx, "/v1/health", &resp)
	if apiErr, ok := err.(*APIError); ok && apiErr.StatusCode == http.StatusServiceUnavailable && resp.Status != "" {
		return &resp, err
	}
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Versions lists kernel versions known to the server
func (c *Client) Versions(ctx context.Context, refresh bool) (*api.VersionListResponse, error) {
	path := "/v1/versions"
	if refresh {
		path += "?refresh=true"
	}
	var resp api.VersionListResponse
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Patches lists the patches the server knows for version
func (c *Client) Patches(ctx context.Context, version string, external bool) (*api.PatchListResponse, error) {
	path := "/v1/versions/" + url.PathEscape(version) + "/patches"
	if external {
		path += "?external=true"
	}
	var resp api.PatchListResponse
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreatePlan asks the server to plan a build
func (c *Client) CreatePlan(ctx context.Context, req api.CreatePlanRequest) (*api.PlanResponse, error) {
	var resp api.PlanResponse
	if err := c.do(ctx, http.MethodPost, "/v1/plans", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListPlans lists saved plans, newest first
func (c *Client) ListPlans(ctx context.Context, opts *ListOptions) (*api.PlanListResponse, error) {
	var resp api.PlanListResponse
	if err := c.get(ctx, "/v1/plans"+opts.QueryString(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetPlan fetches one saved plan, config included
func (c *Client) GetPlan(ctx context.Context, id string) (*db.PlanRecord, error) {
	var resp db.PlanRecord
	if err := c.get(ctx, "/v1/plans/"+url.PathEscape(id), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) get(ctx context.Context, path string, result any) error {
	return c.do(ctx, http.MethodGet, path, nil, result)
}

func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	return c.handleResponse(resp, result)
}

// handleResponse decodes a success body into result. Error bodies that
// look like a report of result's type (health) are decoded too.
func (c *Client) handleResponse(resp *http.Response, result any) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp ErrorResponse
		if json.Unmarshal(body, &errResp) == nil && errResp.Message != "" {
			return &APIError{
				StatusCode: resp.StatusCode,
				ErrorCode:  errResp.Error,
				Message:    errResp.Message,
			}
		}
		if result != nil {
			_ = json.Unmarshal(body, result)
		}
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
		}
	}

	if result != nil && len(body) > 0 {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
