package relay

import (
	"fmt"
	"strings"

	"github.com/rezonia/einvoice-gateway/internal/model"
)

// Endpoint holds the URL of one vendor operation per environment
type Endpoint struct {
	Test       string `mapstructure:"test"`
	Production string `mapstructure:"production"`
}

// Endpoints is the vendor endpoint table
type Endpoints map[model.Vendor]map[Action]Endpoint

// DefaultEndpoints returns the published vendor endpoints
func DefaultEndpoints() Endpoints {
	return Endpoints{
		model.VendorEzPay: {
			ActionCreate: {
				Test:       "https://cinv.ezpay.com.tw/Api/invoice_issue",
				Production: "https://inv.ezpay.com.tw/Api/invoice_issue",
			},
			ActionVoid: {
				Test:       "https://cinv.ezpay.com.tw/Api/invoice_invalid",
				Production: "https://inv.ezpay.com.tw/Api/invoice_invalid",
			},
		},
		model.VendorECPay: {
			ActionCreate: {
				Test:       "https://einvoice-stage.ecpay.com.tw/B2CInvoice/Issue",
				Production: "https://einvoice.ecpay.com.tw/B2CInvoice/Issue",
			},
			ActionVoid: {
				Test:       "https://einvoice-stage.ecpay.com.tw/B2CInvoice/Invalid",
				Production: "https://einvoice.ecpay.com.tw/B2CInvoice/Invalid",
			},
		},
		model.VendorOPay: {
			ActionCreate: {
				Test:       "https://einvoice-stage.opay.tw/B2CInvoice/Issue",
				Production: "https://einvoice.opay.tw/B2CInvoice/Issue",
			},
			ActionVoid: {
				Test:       "https://einvoice-stage.opay.tw/B2CInvoice/Invalid",
				Production: "https://einvoice.opay.tw/B2CInvoice/Invalid",
			},
			ActionMaintainCustomer: {
				Test:       "https://einvoice-stage.opay.tw/B2BInvoice/MaintainMerchantCustomerData",
				Production: "https://einvoice.opay.tw/B2BInvoice/MaintainMerchantCustomerData",
			},
		},
		model.VendorSmilePay: {
			ActionCreate: {
				Test:       "https://ssl.smse.com.tw/api_test/SPEinvoice_Storage.asp",
				Production: "https://ssl.smse.com.tw/api/SPEinvoice_Storage.asp",
			},
			ActionVoid: {
				Test:       "https://ssl.smse.com.tw/api_test/SPEinvoice_Storage_Modify.asp",
				Production: "https://ssl.smse.com.tw/api/SPEinvoice_Storage_Modify.asp",
			},
		},
		model.VendorAmego: {
			ActionCreate: {
				Test:       "https://invoice-api.amego.tw/json/f0401",
				Production: "https://invoice-api.amego.tw/json/f0401",
			},
			ActionVoid: {
				Test:       "https://invoice-api.amego.tw/json/f0501",
				Production: "https://invoice-api.amego.tw/json/f0501",
			},
		},
	}
}

// Resolve returns the URL for a vendor operation.
// ECPay and O'Pay B2B calls use the B2BInvoice path.
func (e Endpoints) Resolve(vendor model.Vendor, action Action, category model.Category, testMode bool) (string, error) {
	if action == "" {
		action = ActionCreate
	}
	actions, ok := e[vendor]
	if !ok {
		return "", fmt.Errorf("unsupported platform: %s", vendor)
	}
	ep, ok := actions[action]
	if !ok {
		return "", fmt.Errorf("unsupported action %q for platform %s", action, vendor)
	}

	url := ep.Production
	if testMode {
		url = ep.Test
	}
	if category == model.CategoryB2B && (vendor == model.VendorECPay || vendor == model.VendorOPay) {
		url = strings.Replace(url, "/B2CInvoice/", "/B2BInvoice/", 1)
	}
	return url, nil
}

// UsesJSONBody reports whether the vendor expects a JSON request body
// instead of a form post.
func UsesJSONBody(vendor model.Vendor) bool {
	return vendor == model.VendorECPay || vendor == model.VendorOPay
}
