package model

import (
	"crypto/rand"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	dec "github.com/rezonia/einvoice-gateway/internal/decimal"
)

// DefaultTaxRate is the standard business tax rate in percent
const DefaultTaxRate = 5

// CarrierDonate is the legacy carrier type that marks a donation
const CarrierDonate = "donate"

var (
	loveCodePattern = regexp.MustCompile(`^[0-9]{3,7}$`)
	ubnPattern      = regexp.MustCompile(`^[0-9]{8}$`)
)

// Invoice is the canonical invoice submitted to a vendor
type Invoice struct {
	MerchantOrderNo string   `json:"merchant_order_no"`
	Category        Category `json:"category"`

	BuyerName    string `json:"buyer_name,omitempty"`
	BuyerUBN     string `json:"buyer_ubn,omitempty"`
	BuyerEmail   string `json:"buyer_email,omitempty"`
	BuyerPhone   string `json:"buyer_phone,omitempty"`
	BuyerAddress string `json:"buyer_address,omitempty"`

	Items   []Item          `json:"items"`
	TaxType TaxType         `json:"tax_type"`
	TaxRate decimal.Decimal `json:"tax_rate"`

	// Derived by CalculateTotals
	Amt                decimal.Decimal `json:"amt"`
	SalesAmount        decimal.Decimal `json:"sales_amount"`
	ZeroTaxSalesAmount decimal.Decimal `json:"zero_tax_sales_amount"`
	FreeTaxSalesAmount decimal.Decimal `json:"free_tax_sales_amount"`
	TaxAmt             decimal.Decimal `json:"tax_amt"`
	TotalAmt           decimal.Decimal `json:"total_amt"`

	CarrierType    string `json:"carrier_type,omitempty"`
	CarrierNum     string `json:"carrier_num,omitempty"`
	CarrierNum2    string `json:"carrier_num2,omitempty"`
	LoveCode       string `json:"love_code,omitempty"`
	PrintFlag      string `json:"print_flag,omitempty"`
	KioskPrintFlag string `json:"kiosk_print_flag,omitempty"`
	ClearanceMark  string `json:"clearance_mark,omitempty"`
	Comment        string `json:"comment,omitempty"`

	Status        Status `json:"status,omitempty"`
	InvoiceNumber string `json:"invoice_number,omitempty"`
	RandomNumber  string `json:"random_number,omitempty"`
	CreateTime    string `json:"create_time,omitempty"`
	Error         string `json:"error,omitempty"`
}

// Item is a single invoice line
type Item struct {
	Name        string          `json:"name"`
	Quantity    int64           `json:"quantity"`
	Unit        string          `json:"unit,omitempty"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Amount      decimal.Decimal `json:"amount"`
	ItemTaxType TaxType         `json:"item_tax_type,omitempty"`
}

// IsB2B reports whether the invoice is issued to a business buyer
func (inv *Invoice) IsB2B() bool {
	return inv.Category == CategoryB2B
}

// IsDonation reports whether the invoice is donated to a charity
func (inv *Invoice) IsDonation() bool {
	return !inv.IsB2B() && inv.LoveCode != ""
}

// HasCarrier reports whether the invoice is stored on a carrier
func (inv *Invoice) HasCarrier() bool {
	return !inv.IsB2B() && !inv.IsDonation() && inv.CarrierType != ""
}

// IsPrinted reports whether a paper invoice is requested.
// Donation and carrier routing suppress printing for B2C invoices.
func (inv *Invoice) IsPrinted() bool {
	if inv.IsB2B() {
		return true
	}
	if inv.IsDonation() || inv.HasCarrier() {
		return false
	}
	return strings.EqualFold(inv.PrintFlag, "Y")
}

// EffectiveTaxRate returns the rate in percent used for tax derivation
func (inv *Invoice) EffectiveTaxRate() decimal.Decimal {
	switch inv.TaxType {
	case TaxTypeZeroRated, TaxTypeExempt:
		return decimal.Zero
	}
	if inv.TaxRate.IsZero() {
		return decimal.NewFromInt(DefaultTaxRate)
	}
	return inv.TaxRate
}

// Normalize applies defaults and folds legacy carrier encodings
func (inv *Invoice) Normalize() {
	if inv.Category == "" {
		if inv.BuyerUBN != "" {
			inv.Category = CategoryB2B
		} else {
			inv.Category = CategoryB2C
		}
	}
	if inv.TaxType == "" {
		inv.TaxType = TaxTypeTaxable
	}
	if inv.CarrierType == CarrierDonate {
		if inv.LoveCode == "" {
			inv.LoveCode = inv.CarrierNum
		}
		inv.CarrierType = ""
		inv.CarrierNum = ""
		inv.CarrierNum2 = ""
	}
	if inv.IsB2B() {
		inv.CarrierType = ""
		inv.CarrierNum = ""
		inv.CarrierNum2 = ""
		inv.LoveCode = ""
	}
	for i := range inv.Items {
		if inv.Items[i].ItemTaxType == "" {
			inv.Items[i].ItemTaxType = TaxTypeTaxable
		}
	}
}

// CalculateTotals recomputes every derived amount from the items.
// Caller supplied amounts are overwritten.
func (inv *Invoice) CalculateTotals() {
	rate := inv.EffectiveTaxRate()

	amt := dec.Zero
	for i := range inv.Items {
		it := &inv.Items[i]
		it.Amount = dec.LineAmount(it.Quantity, it.UnitPrice)
		amt = amt.Add(it.Amount)
	}

	inv.Amt = amt
	inv.SalesAmount = dec.Zero
	inv.ZeroTaxSalesAmount = dec.Zero
	inv.FreeTaxSalesAmount = dec.Zero
	inv.TaxAmt = dec.Zero

	switch inv.TaxType {
	case TaxTypeMixed:
		for _, it := range inv.Items {
			switch it.ItemTaxType {
			case TaxTypeZeroRated:
				inv.ZeroTaxSalesAmount = inv.ZeroTaxSalesAmount.Add(it.Amount)
			case TaxTypeExempt:
				inv.FreeTaxSalesAmount = inv.FreeTaxSalesAmount.Add(it.Amount)
			default:
				inv.SalesAmount = inv.SalesAmount.Add(it.Amount)
				inv.TaxAmt = inv.TaxAmt.Add(dec.CalculateTax(it.Amount, rate))
			}
		}
	case TaxTypeZeroRated:
		inv.ZeroTaxSalesAmount = amt
	case TaxTypeExempt:
		inv.FreeTaxSalesAmount = amt
	default:
		inv.SalesAmount = amt
		inv.TaxAmt = dec.CalculateTax(amt, rate)
	}

	inv.TotalAmt = inv.Amt.Add(inv.TaxAmt)
}

// Validate checks the invoice before it is transformed for a vendor
func (inv *Invoice) Validate() error {
	if strings.TrimSpace(inv.MerchantOrderNo) == "" {
		return NewValidationError("merchant_order_no", nil, "required", "order number is required")
	}
	if len(inv.Items) == 0 {
		return NewValidationError("items", nil, "min", "at least one item is required")
	}
	if !inv.TaxType.Valid() {
		return NewValidationError("tax_type", inv.TaxType, "enum", "unknown tax type")
	}
	for _, it := range inv.Items {
		if strings.TrimSpace(it.Name) == "" {
			return NewValidationError("items.name", nil, "required", "item name is required")
		}
		if it.Quantity < 1 {
			return NewValidationError("items.quantity", it.Quantity, "min", "quantity must be at least 1")
		}
		if it.UnitPrice.IsNegative() {
			return NewValidationError("items.unit_price", it.UnitPrice.String(), "min", "unit price must not be negative")
		}
	}
	if inv.IsB2B() && !ubnPattern.MatchString(inv.BuyerUBN) {
		return NewValidationError("buyer_ubn", inv.BuyerUBN, "format", "B2B invoices need an 8-digit buyer UBN")
	}
	if inv.CarrierType != "" && inv.LoveCode != "" {
		return NewValidationError("carrier_type", inv.CarrierType, "exclusive", "carrier and love code are mutually exclusive")
	}
	if inv.LoveCode != "" && !loveCodePattern.MatchString(inv.LoveCode) {
		return NewValidationError("love_code", inv.LoveCode, "format", "love code must be 3 to 7 digits")
	}
	return nil
}

// Clone returns a deep copy safe to mutate during transformation
func (inv *Invoice) Clone() *Invoice {
	out := *inv
	out.Items = append([]Item(nil), inv.Items...)
	return &out
}

const orderNoAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// GenerateOrderNo builds a merchant order number from the date and a random suffix
func GenerateOrderNo(now time.Time) string {
	buf := make([]byte, 6)
	_, _ = rand.Read(buf)
	for i, b := range buf {
		buf[i] = orderNoAlphabet[int(b)%len(orderNoAlphabet)]
	}
	return "INV" + now.Format("20060102") + string(buf)
}
