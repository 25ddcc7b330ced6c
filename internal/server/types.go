package server

import (
	"encoding/json"
	"time"

	"github.com/rezonia/einvoice-gateway/internal/model"
	"github.com/rezonia/einvoice-gateway/internal/relay"
)

// KickRequest is the /kick body. test_mode and action are optional and
// default to test and create.
type KickRequest struct {
	Platform    string          `json:"platform"`
	TestMode    *bool           `json:"test_mode"`
	Action      relay.Action    `json:"action"`
	InvoiceType model.Category  `json:"invoice_type"`
	Data        json.RawMessage `json:"data"`
}

// VendorInfo describes one vendor for the vendors endpoint
type VendorInfo struct {
	Vendor         model.Vendor `json:"vendor"`
	RequiredFields []string     `json:"required_fields"`
}

// VoidInvoiceRequest is the body of the void endpoint
type VoidInvoiceRequest struct {
	InvoiceNumber string         `json:"invoice_number"`
	Reason        string         `json:"reason"`
	InvoiceDate   *time.Time     `json:"invoice_date,omitempty"`
	Category      model.Category `json:"category,omitempty"`
	Mode          model.Mode     `json:"mode,omitempty"`
}

// StartBatchRequest is the body of the batch start endpoint
type StartBatchRequest struct {
	Vendor string     `json:"vendor"`
	Mode   model.Mode `json:"mode,omitempty"`
}

// QueueResponse is returned after invoices are queued
type QueueResponse struct {
	Queued int `json:"queued"`
}

// ErrorResponse is the standard error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
