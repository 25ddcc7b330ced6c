package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const (
	// DefaultForwardTimeout bounds a single vendor HTTP exchange
	DefaultForwardTimeout = DefaultCallTimeout
	// UserAgent is sent to every vendor endpoint
	UserAgent = "LazyInvoice-Kick/1.0"
)

// Forwarder delivers relay requests straight to vendor endpoints
type Forwarder struct {
	endpoints  Endpoints
	httpClient *http.Client
	logger     *zap.Logger
}

// ForwarderOption configures the forwarder
type ForwarderOption func(*Forwarder)

// WithEndpoints replaces the endpoint table
func WithEndpoints(endpoints Endpoints) ForwarderOption {
	return func(f *Forwarder) {
		f.endpoints = endpoints
	}
}

// WithForwardHTTPClient sets the underlying HTTP client
func WithForwardHTTPClient(hc *http.Client) ForwarderOption {
	return func(f *Forwarder) {
		f.httpClient = hc
	}
}

// WithForwardLogger sets the logger
func WithForwardLogger(logger *zap.Logger) ForwarderOption {
	return func(f *Forwarder) {
		f.logger = logger
	}
}

// NewForwarder creates a forwarder using the default endpoint table
func NewForwarder(opts ...ForwarderOption) *Forwarder {
	f := &Forwarder{
		endpoints:  DefaultEndpoints(),
		httpClient: &http.Client{Timeout: DefaultForwardTimeout},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Endpoints returns the endpoint table in use
func (f *Forwarder) Endpoints() Endpoints {
	return f.endpoints
}

// Kick posts req.Data to the vendor endpoint and wraps the vendor body.
// HTTP errors from the vendor are returned as errors.
func (f *Forwarder) Kick(ctx context.Context, req *Request) (*Response, error) {
	target, err := f.endpoints.Resolve(req.Platform, req.Action, req.InvoiceType, req.TestMode)
	if err != nil {
		return nil, err
	}

	var (
		body        []byte
		contentType string
	)
	if UsesJSONBody(req.Platform) {
		body = req.Data
		contentType = "application/json"
	} else {
		body = []byte(FormEncode(req.Data))
		contentType = "application/x-www-form-urlencoded"
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build vendor request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("User-Agent", UserAgent)

	resp, err := f.httpClient.Do(httpReq)
	if err != nil {
		return nil, transportError(ctx, ctx, req.Platform, string(req.Action), err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(ctx, ctx, req.Platform, string(req.Action), err)
	}

	f.logger.Info("forwarded vendor call",
		zap.String("platform", string(req.Platform)),
		zap.String("action", string(req.Action)),
		zap.String("url", target),
		zap.Int("status", resp.StatusCode),
	)

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("HTTP error: %d", resp.StatusCode)
	}

	return &Response{
		Success:  true,
		Platform: req.Platform,
		TestMode: req.TestMode,
		Response: wrapBody(data),
	}, nil
}

// wrapBody passes JSON through and turns anything else into a JSON string
func wrapBody(data []byte) json.RawMessage {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && json.Valid(trimmed) {
		return json.RawMessage(trimmed)
	}
	quoted, _ := json.Marshal(string(data))
	return quoted
}

// FormEncode renders a JSON payload as a form body, keeping key order.
// A JSON string payload is taken as an already encoded body.
func FormEncode(data json.RawMessage) string {
	parsed := gjson.ParseBytes(data)
	if parsed.Type == gjson.String {
		return parsed.Str
	}

	var parts []string
	parsed.ForEach(func(key, value gjson.Result) bool {
		v := value.Raw
		switch value.Type {
		case gjson.String:
			v = value.Str
		case gjson.Null:
			v = ""
		}
		parts = append(parts, url.QueryEscape(key.String())+"="+url.QueryEscape(v))
		return true
	})
	return strings.Join(parts, "&")
}
