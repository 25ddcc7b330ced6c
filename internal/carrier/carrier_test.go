package carrier_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/einvoice-gateway/internal/carrier"
	"github.com/rezonia/einvoice-gateway/internal/model"
)

func TestFor_EveryVendorHasTable(t *testing.T) {
	for _, v := range model.Vendors() {
		table, ok := carrier.For(v)
		require.True(t, ok, "vendor %s", v)
		assert.NotEmpty(t, table.Options)

		_, ok = table.CodeFor(carrier.KindMobile)
		assert.True(t, ok, "vendor %s should accept mobile barcodes", v)
	}
}

func TestTable_Validate(t *testing.T) {
	tests := []struct {
		name   string
		vendor model.Vendor
		code   string
		number string
		valid  bool
	}{
		{"ecpay mobile ok", model.VendorECPay, "3", "/ABC+123", true},
		{"ecpay mobile lowercase", model.VendorECPay, "3", "/abc1234", false},
		{"ecpay mobile too short", model.VendorECPay, "3", "/ABC12", false},
		{"ecpay member needs no number", model.VendorECPay, "1", "", true},
		{"ecpay citizen ok", model.VendorECPay, "2", "AB12345678901234", true},
		{"ecpay citizen bad", model.VendorECPay, "2", "A123", false},
		{"ecpay card any number", model.VendorECPay, "4", "1234567890", true},
		{"ecpay card missing number", model.VendorECPay, "4", "", false},
		{"ezpay mobile ok", model.VendorEzPay, "0", "/ABCD.-1", true},
		{"ezpay unknown code", model.VendorEzPay, "9", "x", false},
		{"smilepay member", model.VendorSmilePay, "EJ0113", "", true},
		{"smilepay mobile", model.VendorSmilePay, "3J0002", "/1234567", true},
		{"amego citizen", model.VendorAmego, "CQ0001", "ZZ00000000000000", true},
		{"amego member unsupported", model.VendorAmego, "EJ0113", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, ok := carrier.For(tt.vendor)
			require.True(t, ok)

			err := table.Validate(tt.code, tt.number)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
				assert.Equal(t, model.KindValidation, model.KindOf(err))
			}
		})
	}
}

func TestLoveCode(t *testing.T) {
	assert.True(t, carrier.LoveCode.MatchString("168"))
	assert.True(t, carrier.LoveCode.MatchString("1680010"))
	assert.False(t, carrier.LoveCode.MatchString("12"))
	assert.False(t, carrier.LoveCode.MatchString("12345678"))
	assert.False(t, carrier.LoveCode.MatchString("12a"))
}
