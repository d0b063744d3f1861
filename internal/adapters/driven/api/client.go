// Package api provides the REST client for the sync backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/nethopper2/datasync/internal/core/domain"
	"github.com/nethopper2/datasync/internal/core/ports/driven"
)

// Ensure Client implements the interface.
var _ driven.SyncAPI = (*Client)(nil)

// Default configuration values.
const (
	DefaultTimeout = 30 * time.Second

	// DefaultRequestsPerSecond bounds outbound request rate. The watch
	// view and the poll loops share one backend; do not hammer it.
	DefaultRequestsPerSecond = 10
)

// Config holds configuration for the REST client.
type Config struct {
	// BaseURL is the backend base URL (required).
	BaseURL string

	// Token authenticates requests. Empty disables the header.
	Token string

	// Timeout is the per-request timeout (default: 30s).
	Timeout time.Duration

	// RequestsPerSecond bounds the outbound rate (default: 10).
	RequestsPerSecond float64
}

// Client is the REST implementation of driven.SyncAPI.
type Client struct {
	client  *http.Client
	baseURL string
	token   string
	limiter *rate.Limiter
}

// APIError is a semantic (non-OK) backend response. The message is
// shown to the user verbatim when present.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("backend error (status %d)", e.StatusCode)
}

// Unwrap maps not-found responses onto the domain sentinel.
func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusNotFound {
		return domain.ErrNotFound
	}
	return nil
}

// errorBody is the backend's error envelope. Both shapes occur: a flat
// {message} and a nested {detail:{message, reauth_url}}.
type errorBody struct {
	Message string `json:"message"`
	Detail  struct {
		Message   string `json:"message"`
		ReauthURL string `json:"reauth_url"`
	} `json:"detail"`
}

// syncAckBody is the trigger-sync response envelope.
type syncAckBody struct {
	Message string `json:"message"`
	Detail  struct {
		ReauthURL string `json:"reauth_url"`
	} `json:"detail"`
}

// initializeBody is the initialize response envelope.
type initializeBody struct {
	URL string `json:"url"`
}

// setStatusBody is the sync-status persistence request.
type setStatusBody struct {
	SyncStatus  domain.SyncStatus   `json:"sync_status"`
	SyncResults *domain.SyncResults `json:"sync_results,omitempty"`
}

// NewClient creates a REST client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("api: base URL is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RequestsPerSecond == 0 {
		cfg.RequestsPerSecond = DefaultRequestsPerSecond
	}

	return &Client{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), int(cfg.RequestsPerSecond)),
	}, nil
}

// ListSources returns all configured data sources.
func (c *Client) ListSources(ctx context.Context) ([]domain.DataSource, error) {
	var sources []domain.DataSource
	if err := c.do(ctx, http.MethodGet, "/sources", nil, &sources); err != nil {
		return nil, err
	}
	return sources, nil
}

// CreateSource registers a new data source.
func (c *Client) CreateSource(ctx context.Context, source domain.DataSource) (*domain.DataSource, error) {
	var created domain.DataSource
	if err := c.do(ctx, http.MethodPost, "/sources", source, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateSource edits a source's descriptive fields.
func (c *Client) UpdateSource(ctx context.Context, source domain.DataSource) error {
	path := fmt.Sprintf("/sources/%s/update", url.PathEscape(source.ID))
	return c.do(ctx, http.MethodPost, path, source, nil)
}

// RemoveSource removes a source record.
func (c *Client) RemoveSource(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/sources/"+url.PathEscape(id), nil, nil)
}

// SetSyncStatus persists a status and optionally merged results.
func (c *Client) SetSyncStatus(ctx context.Context, id string, status domain.SyncStatus, results *domain.SyncResults) error {
	path := fmt.Sprintf("/sources/%s/sync", url.PathEscape(id))
	return c.do(ctx, http.MethodPost, path, setStatusBody{SyncStatus: status, SyncResults: results}, nil)
}

// MarkIncomplete explicitly marks a source's sync as incomplete.
func (c *Client) MarkIncomplete(ctx context.Context, id string) error {
	path := fmt.Sprintf("/sources/%s/incomplete", url.PathEscape(id))
	return c.do(ctx, http.MethodPost, path, nil, nil)
}

// Initialize obtains an authorisation URL for a provider/layer.
func (c *Client) Initialize(ctx context.Context, key domain.ActionKey) (string, error) {
	path := fmt.Sprintf("/%s/initialize?layer=%s", url.PathEscape(key.Action), url.QueryEscape(key.Layer))
	var body initializeBody
	if err := c.do(ctx, http.MethodGet, path, nil, &body); err != nil {
		return "", err
	}
	if body.URL == "" {
		return "", fmt.Errorf("initialize %s: backend returned no URL", key)
	}
	return body.URL, nil
}

// TriggerSync asks the backend to start a sync. All three ack shapes
// are success responses at the transport level; only the envelope
// distinguishes them.
func (c *Client) TriggerSync(ctx context.Context, key domain.ActionKey) (*domain.SyncAck, error) {
	path := fmt.Sprintf("/%s/sync?layer=%s", url.PathEscape(key.Action), url.QueryEscape(key.Layer))
	var body syncAckBody
	if err := c.do(ctx, http.MethodPost, path, nil, &body); err != nil {
		return nil, err
	}

	switch {
	case body.Detail.ReauthURL != "":
		return &domain.SyncAck{ReauthURL: body.Detail.ReauthURL}, nil
	case body.Message != "":
		return &domain.SyncAck{Message: body.Message}, nil
	default:
		return &domain.SyncAck{Started: true}, nil
	}
}

// Disconnect initiates deletion of a provider/layer's data.
func (c *Client) Disconnect(ctx context.Context, key domain.ActionKey) error {
	path := fmt.Sprintf("/%s/disconnect?layer=%s", url.PathEscape(key.Action), url.QueryEscape(key.Layer))
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// EmbeddingStatus returns embedding queue counts per source name.
func (c *Client) EmbeddingStatus(ctx context.Context) (map[string]domain.EmbeddingCounts, error) {
	counts := make(map[string]domain.EmbeddingCounts)
	if err := c.do(ctx, http.MethodGet, "/embedding/status", nil, &counts); err != nil {
		return nil, err
	}
	return counts, nil
}

// do runs one request: rate limit, marshal, send, decode. A nil out
// discards the response body.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	var reqBody io.Reader
	if in != nil {
		jsonBody, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var envelope errorBody
		_ = json.Unmarshal(body, &envelope)
		msg := envelope.Message
		if msg == "" {
			msg = envelope.Detail.Message
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if out != nil && len(body) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
