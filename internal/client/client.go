package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"podbench/internal/api"
)

const defaultTimeout = 10 * time.Minute

// Client talks to a running podbench daemon over its HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// New builds a client for the daemon listening at baseURL. A bare host:port
// is treated as plain HTTP.
func New(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		return nil, errors.New("podbench client: base url required")
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("podbench client: parse base url: %w", err)
	}

	c := &Client{
		baseURL:    strings.TrimRight(parsed.String(), "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL reports the normalized daemon address the client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// APIError is a non-2xx daemon response, decoded from its JSON error body
// when one is present. Status carries the observed job status on stage gate
// and conflict responses.
type APIError struct {
	StatusCode int
	Message    string
	Status     string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("daemon returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("daemon returned %d", e.StatusCode)
}

// Status fetches the daemon runtime snapshot.
func (c *Client) Status(ctx context.Context) (*api.DaemonStatus, error) {
	var status api.DaemonStatus
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/status", nil, "", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("podbench client: build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("podbench client: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("podbench client: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp.StatusCode, payload)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("podbench client: decode response: %w", err)
	}
	return nil
}

func decodeAPIError(code int, payload []byte) error {
	apiErr := &APIError{StatusCode: code}
	var body struct {
		Error  string `json:"error"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(payload, &body); err == nil && body.Error != "" {
		apiErr.Message = body.Error
		apiErr.Status = body.Status
	} else if trimmed := strings.TrimSpace(string(payload)); trimmed != "" {
		apiErr.Message = trimmed
	}
	return apiErr
}
