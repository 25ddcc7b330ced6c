package export

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rezonia/einvoice-gateway/internal/model"
)

// integerKeys keep their YAML number type; every other scalar is read as text
// so unquoted UBNs, love codes, and tax types survive
var integerKeys = map[string]bool{"quantity": true}

// LoadFile reads invoices from a JSON or YAML file
func LoadFile(path string, now time.Time) ([]*model.Invoice, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	invoices, err := Parse(data, now)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return invoices, nil
}

// Parse decodes a list of invoices. The document may be a list, an object
// with an invoices or data list, or a single invoice. Entries without any
// invoice content are skipped. Each invoice is normalized, validated, and
// totalled; a blank order number is generated.
func Parse(data []byte, now time.Time) ([]*model.Invoice, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	var entries []any
	switch v := doc.(type) {
	case nil:
		return nil, nil
	case []any:
		entries = v
	case map[string]any:
		if list, ok := v["invoices"]; ok {
			entries, _ = list.([]any)
		} else if list, ok := v["data"].([]any); ok {
			entries = list
		} else {
			entries = []any{v}
		}
	default:
		return nil, fmt.Errorf("unexpected document of type %T", doc)
	}

	var out []*model.Invoice
	for i, e := range entries {
		m, ok := e.(map[string]any)
		if !ok || !hasInvoiceContent(m) {
			continue
		}
		if _, ok := m["buyer_name"]; !ok {
			if name, ok := m["customer_name"]; ok {
				m["buyer_name"] = name
			}
		}

		inv, err := decodeInvoice(m)
		if err != nil {
			return nil, fmt.Errorf("invoice %d: %w", i, err)
		}
		if inv.MerchantOrderNo == "" {
			inv.MerchantOrderNo = model.GenerateOrderNo(now)
		}
		inv.Normalize()
		if err := inv.Validate(); err != nil {
			return nil, fmt.Errorf("invoice %d (%s): %w", i, inv.MerchantOrderNo, err)
		}
		inv.CalculateTotals()
		out = append(out, inv)
	}
	return out, nil
}

func hasInvoiceContent(m map[string]any) bool {
	for _, k := range []string{"buyer_name", "customer_name", "items", "total_amt", "amount"} {
		if v, ok := m[k]; ok && v != nil && v != "" {
			return true
		}
	}
	return false
}

func decodeInvoice(m map[string]any) (*model.Invoice, error) {
	raw, err := json.Marshal(textScalars("", m))
	if err != nil {
		return nil, err
	}
	var inv model.Invoice
	if err := json.Unmarshal(raw, &inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

// textScalars converts numbers to strings outside integerKeys
func textScalars(key string, v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			t[k] = textScalars(k, child)
		}
		return t
	case []any:
		for i, child := range t {
			t[i] = textScalars(key, child)
		}
		return t
	case int:
		if integerKeys[key] {
			return t
		}
		return strconv.Itoa(t)
	case int64:
		if integerKeys[key] {
			return t
		}
		return strconv.FormatInt(t, 10)
	case float64:
		if integerKeys[key] {
			return t
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return v
}

// FileName is the default name of a JSON export taken at now
func FileName(now time.Time) string {
	return "invoices-" + now.Format("2006-01-02") + ".json"
}
