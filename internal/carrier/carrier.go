// Package carrier describes the invoice carriers each vendor accepts.
package carrier

import (
	"regexp"

	"github.com/rezonia/einvoice-gateway/internal/model"
)

var (
	// MobileBarcode is the government mobile barcode carrier number
	MobileBarcode = regexp.MustCompile(`^/[0-9A-Z+\-.]{7}$`)
	// CitizenCertificate is the natural person certificate carrier number
	CitizenCertificate = regexp.MustCompile(`^[A-Z]{2}[0-9]{14}$`)
	// LoveCode is a charity donation code
	LoveCode = regexp.MustCompile(`^[0-9]{3,7}$`)
)

// Kind is the vendor independent carrier category
type Kind string

const (
	KindMobile  Kind = "mobile"
	KindCitizen Kind = "citizen"
	KindMember  Kind = "member"
	KindCard    Kind = "card"
)

// Option is one carrier a vendor accepts
type Option struct {
	Code  string `json:"code"`
	Kind  Kind   `json:"kind"`
	Label string `json:"label"`
	// NoNumber marks carriers identified by the buyer account alone
	NoNumber bool `json:"no_number,omitempty"`
}

// Table lists the carriers of one vendor
type Table struct {
	Vendor  model.Vendor
	Options []Option
}

var tables = map[model.Vendor]*Table{
	model.VendorEzPay: {
		Vendor: model.VendorEzPay,
		Options: []Option{
			{Code: "0", Kind: KindMobile, Label: "Mobile barcode"},
			{Code: "1", Kind: KindCitizen, Label: "Citizen digital certificate"},
			{Code: "2", Kind: KindMember, Label: "ezPay member"},
		},
	},
	model.VendorECPay: {
		Vendor: model.VendorECPay,
		Options: []Option{
			{Code: "1", Kind: KindMember, Label: "ECPay member", NoNumber: true},
			{Code: "2", Kind: KindCitizen, Label: "Citizen digital certificate"},
			{Code: "3", Kind: KindMobile, Label: "Mobile barcode"},
			{Code: "4", Kind: KindCard, Label: "EasyCard"},
			{Code: "5", Kind: KindCard, Label: "iPass"},
		},
	},
	model.VendorOPay: {
		Vendor: model.VendorOPay,
		Options: []Option{
			{Code: "1", Kind: KindMember, Label: "O'Pay member", NoNumber: true},
			{Code: "2", Kind: KindCitizen, Label: "Citizen digital certificate"},
			{Code: "3", Kind: KindMobile, Label: "Mobile barcode"},
			{Code: "4", Kind: KindCard, Label: "EasyCard"},
			{Code: "5", Kind: KindCard, Label: "iPass"},
			{Code: "6", Kind: KindCard, Label: "icash"},
			{Code: "7", Kind: KindCard, Label: "HappyCash"},
			{Code: "8", Kind: KindCard, Label: "Credit card"},
		},
	},
	model.VendorSmilePay: {
		Vendor: model.VendorSmilePay,
		Options: []Option{
			{Code: "3J0002", Kind: KindMobile, Label: "Mobile barcode"},
			{Code: "CQ0001", Kind: KindCitizen, Label: "Citizen digital certificate"},
			{Code: "EJ0113", Kind: KindMember, Label: "SmilePay member", NoNumber: true},
		},
	},
	model.VendorAmego: {
		Vendor: model.VendorAmego,
		Options: []Option{
			{Code: "3J0002", Kind: KindMobile, Label: "Mobile barcode"},
			{Code: "CQ0001", Kind: KindCitizen, Label: "Citizen digital certificate"},
		},
	},
}

// For returns the carrier table of a vendor
func For(vendor model.Vendor) (*Table, bool) {
	t, ok := tables[vendor]
	return t, ok
}

// Lookup finds the option with the given code
func (t *Table) Lookup(code string) (Option, bool) {
	for _, o := range t.Options {
		if o.Code == code {
			return o, true
		}
	}
	return Option{}, false
}

// CodeFor returns the vendor code of a carrier kind
func (t *Table) CodeFor(kind Kind) (string, bool) {
	for _, o := range t.Options {
		if o.Kind == kind {
			return o.Code, true
		}
	}
	return "", false
}

// Validate checks a carrier code and number against the vendor rules
func (t *Table) Validate(code, number string) error {
	opt, ok := t.Lookup(code)
	if !ok {
		return model.NewValidationError("carrier_type", code, "enum", "carrier type not supported by "+string(t.Vendor))
	}
	switch {
	case opt.NoNumber:
		return nil
	case number == "":
		return model.NewValidationError("carrier_num", nil, "required", opt.Label+" needs a carrier number")
	case opt.Kind == KindMobile && !MobileBarcode.MatchString(number):
		return model.NewValidationError("carrier_num", number, "format", "mobile barcode must be '/' followed by 7 characters")
	case opt.Kind == KindCitizen && !CitizenCertificate.MatchString(number):
		return model.NewValidationError("carrier_num", number, "format", "citizen certificate must be 2 letters and 14 digits")
	}
	return nil
}
