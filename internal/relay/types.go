package relay

import (
	"context"
	"encoding/json"

	"github.com/rezonia/einvoice-gateway/internal/model"
)

// Action is the vendor operation a relay request performs
type Action string

const (
	ActionCreate           Action = "create"
	ActionVoid             Action = "void"
	ActionMaintainCustomer Action = "maintain_customer"
)

// Request is the relay request envelope
type Request struct {
	Platform    model.Vendor    `json:"platform"`
	TestMode    bool            `json:"test_mode"`
	Action      Action          `json:"action,omitempty"`
	InvoiceType model.Category  `json:"invoice_type,omitempty"`
	Data        json.RawMessage `json:"data"`
}

// Response is the relay response envelope.
// Response holds the vendor body: decoded JSON, or a JSON string when the
// vendor answered with anything else.
type Response struct {
	Success  bool            `json:"success"`
	Platform model.Vendor    `json:"platform,omitempty"`
	TestMode bool            `json:"test_mode,omitempty"`
	Response json.RawMessage `json:"response,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// Gateway delivers relay requests to vendors
type Gateway interface {
	Kick(ctx context.Context, req *Request) (*Response, error)
}

// GatewayFunc adapts a function to Gateway
type GatewayFunc func(ctx context.Context, req *Request) (*Response, error)

// Kick calls f
func (f GatewayFunc) Kick(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// BodyText returns the vendor body as text: the string value when the
// body is a JSON string, otherwise the raw JSON.
func BodyText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
