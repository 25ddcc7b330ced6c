package model

// Vendor identifies an e-invoice platform
type Vendor string

const (
	VendorEzPay    Vendor = "ezpay"
	VendorECPay    Vendor = "ecpay"
	VendorOPay     Vendor = "opay"
	VendorSmilePay Vendor = "smilepay"
	VendorAmego    Vendor = "amego"
	VendorUnknown  Vendor = "unknown"
)

// Vendors lists every supported vendor in display order
func Vendors() []Vendor {
	return []Vendor{VendorEzPay, VendorECPay, VendorOPay, VendorSmilePay, VendorAmego}
}

// ParseVendor maps a string to a known vendor
func ParseVendor(s string) (Vendor, bool) {
	for _, v := range Vendors() {
		if string(v) == s {
			return v, true
		}
	}
	return VendorUnknown, false
}

// Mode selects the vendor environment
type Mode string

const (
	ModeTest       Mode = "test"
	ModeProduction Mode = "production"
)

// IsTest reports whether the mode targets the vendor staging environment
func (m Mode) IsTest() bool {
	return m != ModeProduction
}

// Category is the invoice category
type Category string

const (
	CategoryB2B Category = "B2B"
	CategoryB2C Category = "B2C"
)

// TaxType is the invoice or item tax treatment
type TaxType string

const (
	TaxTypeTaxable   TaxType = "1"
	TaxTypeZeroRated TaxType = "2"
	TaxTypeExempt    TaxType = "3"
	TaxTypeSpecial   TaxType = "4"
	TaxTypeMixed     TaxType = "9"
)

// Valid reports whether t is a known tax type
func (t TaxType) Valid() bool {
	switch t {
	case TaxTypeTaxable, TaxTypeZeroRated, TaxTypeExempt, TaxTypeSpecial, TaxTypeMixed:
		return true
	}
	return false
}

// Status is the lifecycle state of an invoice in the store
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusSuccess    Status = "success"
	StatusFailed     Status = "failed"
	StatusVoided     Status = "voided"
)

// Done reports whether an invoice in this status must not be submitted again
func (s Status) Done() bool {
	return s == StatusSuccess || s == StatusVoided
}
