// Package einvoice provides a public API for issuing Taiwan e-invoices.
//
// It exposes the invoice model, the per-platform adapters, and the batch
// orchestrator so other programs can embed the gateway.
//
// Example usage:
//
//	registry := einvoice.NewRegistry(einvoice.Options{
//	    Credentials: map[einvoice.Vendor]einvoice.VendorCredentials{
//	        einvoice.VendorECPay: {Test: einvoice.Credential{
//	            "merchant_id": "2000132", "hash_key": "...", "hash_iv": "...",
//	        }},
//	    },
//	})
//	adapter, _ := registry.GetAdapter(einvoice.VendorECPay)
//	res := adapter.Create(ctx, invoice, einvoice.ModeTest)
//	fmt.Println(res.InvoiceNumber)
package einvoice

import (
	"github.com/rezonia/einvoice-gateway/internal/batch"
	"github.com/rezonia/einvoice-gateway/internal/model"
	"github.com/rezonia/einvoice-gateway/internal/store"
	"github.com/rezonia/einvoice-gateway/internal/vendor"
)

// Re-export core types for public API
type (
	Invoice           = model.Invoice
	Item              = model.Item
	Result            = model.Result
	Vendor            = model.Vendor
	Mode              = model.Mode
	Category          = model.Category
	TaxType           = model.TaxType
	Status            = model.Status
	Credential        = model.Credential
	VendorCredentials = model.VendorCredentials
	ErrorKind         = model.ErrorKind
	VoidRequest       = vendor.VoidRequest
	Adapter           = vendor.Adapter
	Registry          = vendor.Registry
)

// Re-export batch types
type (
	Orchestrator = batch.Orchestrator
	Job          = batch.Job
	Event        = batch.Event
	EventType    = batch.EventType
	Summary      = batch.Summary
	Stats        = batch.Stats
	Store        = store.Store
)

// Re-export vendor constants
const (
	VendorEzPay    = model.VendorEzPay
	VendorECPay    = model.VendorECPay
	VendorOPay     = model.VendorOPay
	VendorSmilePay = model.VendorSmilePay
	VendorAmego    = model.VendorAmego
)

// Re-export modes and categories
const (
	ModeTest       = model.ModeTest
	ModeProduction = model.ModeProduction
	CategoryB2B    = model.CategoryB2B
	CategoryB2C    = model.CategoryB2C
)

// Re-export tax types
const (
	TaxTypeTaxable   = model.TaxTypeTaxable
	TaxTypeZeroRated = model.TaxTypeZeroRated
	TaxTypeExempt    = model.TaxTypeExempt
	TaxTypeSpecial   = model.TaxTypeSpecial
	TaxTypeMixed     = model.TaxTypeMixed
)

// Re-export invoice statuses
const (
	StatusPending    = model.StatusPending
	StatusProcessing = model.StatusProcessing
	StatusSuccess    = model.StatusSuccess
	StatusFailed     = model.StatusFailed
	StatusVoided     = model.StatusVoided
)

// Re-export error kinds
const (
	KindConfiguration = model.KindConfiguration
	KindValidation    = model.KindValidation
	KindEncryption    = model.KindEncryption
	KindNetwork       = model.KindNetwork
	KindAborted       = model.KindAborted
	KindRejected      = model.KindRejected
	KindParse         = model.KindParse
	KindInternal      = model.KindInternal
)

// Re-export error types
type (
	ConfigurationError = model.ConfigurationError
	ValidationError    = model.ValidationError
	EncryptionError    = model.EncryptionError
	NetworkError       = model.NetworkError
	VendorRejection    = model.VendorRejection
	ParseError         = model.ParseError
)

// KindOf classifies an error
func KindOf(err error) ErrorKind {
	return model.KindOf(err)
}

// Vendors lists every supported platform
func Vendors() []Vendor {
	return model.Vendors()
}
