package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// DefaultCallTimeout bounds every relay call regardless of the caller's context
const DefaultCallTimeout = 10 * time.Second

// Client sends requests to a relay endpoint
type Client struct {
	url        string
	httpClient *http.Client
	timeout    time.Duration
	logger     *zap.Logger
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithTimeout sets the per-call timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithHTTPClient sets the underlying HTTP client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a relay client posting to url
func NewClient(url string, opts ...ClientOption) *Client {
	c := &Client{
		url:        url,
		httpClient: &http.Client{},
		timeout:    DefaultCallTimeout,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Kick posts req to the relay and decodes its envelope.
// A relay-reported failure is returned as a Response with Success false.
func (c *Client) Kick(ctx context.Context, req *Request) (*Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode relay request: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build relay request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, transportError(ctx, callCtx, req.Platform, string(req.Action), err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(ctx, callCtx, req.Platform, string(req.Action), err)
	}

	c.logger.Debug("relay call finished",
		zap.String("platform", string(req.Platform)),
		zap.String("action", string(req.Action)),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	var out Response
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("relay returned HTTP %d with an unreadable body: %w", resp.StatusCode, err)
	}
	if resp.StatusCode >= http.StatusBadRequest && out.Error == "" {
		out.Success = false
		out.Error = fmt.Sprintf("relay returned HTTP %d", resp.StatusCode)
	}
	return &out, nil
}
