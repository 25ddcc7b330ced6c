package relay_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/einvoice-gateway/internal/model"
	"github.com/rezonia/einvoice-gateway/internal/relay"
)

func TestEndpoints_Resolve(t *testing.T) {
	endpoints := relay.DefaultEndpoints()

	tests := []struct {
		name     string
		vendor   model.Vendor
		action   relay.Action
		category model.Category
		test     bool
		expected string
	}{
		{"ezpay test create", model.VendorEzPay, relay.ActionCreate, model.CategoryB2C, true, "https://cinv.ezpay.com.tw/Api/invoice_issue"},
		{"ezpay prod void", model.VendorEzPay, relay.ActionVoid, model.CategoryB2C, false, "https://inv.ezpay.com.tw/Api/invoice_invalid"},
		{"ecpay default action", model.VendorECPay, "", model.CategoryB2C, true, "https://einvoice-stage.ecpay.com.tw/B2CInvoice/Issue"},
		{"ecpay B2B rewrite", model.VendorECPay, relay.ActionCreate, model.CategoryB2B, false, "https://einvoice.ecpay.com.tw/B2BInvoice/Issue"},
		{"opay B2B void rewrite", model.VendorOPay, relay.ActionVoid, model.CategoryB2B, true, "https://einvoice-stage.opay.tw/B2BInvoice/Invalid"},
		{"opay customer", model.VendorOPay, relay.ActionMaintainCustomer, model.CategoryB2B, true, "https://einvoice-stage.opay.tw/B2BInvoice/MaintainMerchantCustomerData"},
		{"smilepay test", model.VendorSmilePay, relay.ActionCreate, model.CategoryB2C, true, "https://ssl.smse.com.tw/api_test/SPEinvoice_Storage.asp"},
		{"smilepay void prod", model.VendorSmilePay, relay.ActionVoid, model.CategoryB2B, false, "https://ssl.smse.com.tw/api/SPEinvoice_Storage_Modify.asp"},
		{"amego void", model.VendorAmego, relay.ActionVoid, model.CategoryB2B, true, "https://invoice-api.amego.tw/json/f0501"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url, err := endpoints.Resolve(tt.vendor, tt.action, tt.category, tt.test)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, url)
		})
	}

	_, err := endpoints.Resolve("nope", relay.ActionCreate, model.CategoryB2C, true)
	assert.Error(t, err)
	_, err = endpoints.Resolve(model.VendorAmego, relay.ActionMaintainCustomer, model.CategoryB2B, true)
	assert.Error(t, err)
}

func TestFormEncode(t *testing.T) {
	assert.Equal(t,
		"b=2&a=x+y&n=105&nil=",
		relay.FormEncode(json.RawMessage(`{"b":"2","a":"x y","n":105,"nil":null}`)),
	)
	assert.Equal(t, "Grvc=SEI1000034&types=Cancel", relay.FormEncode(json.RawMessage(`"Grvc=SEI1000034&types=Cancel"`)))
}

func TestBodyText(t *testing.T) {
	assert.Equal(t, "<xml/>", relay.BodyText(json.RawMessage(`"<xml/>"`)))
	assert.Equal(t, `{"a":1}`, relay.BodyText(json.RawMessage(`{"a":1}`)))
}

func endpointsFor(url string) relay.Endpoints {
	ep := relay.Endpoint{Test: url + "/B2CInvoice/Issue", Production: url + "/B2CInvoice/Issue"}
	return relay.Endpoints{
		model.VendorECPay:    {relay.ActionCreate: ep},
		model.VendorSmilePay: {relay.ActionCreate: {Test: url + "/smilepay", Production: url + "/smilepay"}},
	}
}

func TestForwarder_JSONVendor(t *testing.T) {
	var gotPath, gotType, gotAgent, gotBody string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotType = r.Header.Get("Content-Type")
		gotAgent = r.Header.Get("User-Agent")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		_, _ = w.Write([]byte(`{"TransCode":1,"Data":"abc"}`))
	}))
	defer ts.Close()

	f := relay.NewForwarder(relay.WithEndpoints(endpointsFor(ts.URL)))
	resp, err := f.Kick(context.Background(), &relay.Request{
		Platform:    model.VendorECPay,
		TestMode:    true,
		Action:      relay.ActionCreate,
		InvoiceType: model.CategoryB2B,
		Data:        json.RawMessage(`{"MerchantID":"2000132"}`),
	})
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, "/B2BInvoice/Issue", gotPath)
	assert.Equal(t, "application/json", gotType)
	assert.Equal(t, relay.UserAgent, gotAgent)
	assert.JSONEq(t, `{"MerchantID":"2000132"}`, gotBody)
	assert.JSONEq(t, `{"TransCode":1,"Data":"abc"}`, string(resp.Response))
}

func TestForwarder_FormVendorWithXMLBody(t *testing.T) {
	var form map[string][]string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		form = r.PostForm
		_, _ = w.Write([]byte(`<SmilePayEinvoice><Status>0</Status></SmilePayEinvoice>`))
	}))
	defer ts.Close()

	f := relay.NewForwarder(relay.WithEndpoints(endpointsFor(ts.URL)))
	resp, err := f.Kick(context.Background(), &relay.Request{
		Platform: model.VendorSmilePay,
		TestMode: true,
		Data:     json.RawMessage(`{"Grvc":"SEI1000034","AllAmount":105}`),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"SEI1000034"}, form["Grvc"])
	assert.Equal(t, []string{"105"}, form["AllAmount"])
	assert.Equal(t, "<SmilePayEinvoice><Status>0</Status></SmilePayEinvoice>", relay.BodyText(resp.Response))
}

func TestForwarder_HTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	f := relay.NewForwarder(relay.WithEndpoints(endpointsFor(ts.URL)))
	_, err := f.Kick(context.Background(), &relay.Request{Platform: model.VendorECPay, TestMode: true, Data: json.RawMessage(`{}`)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestForwarder_HTTPClientTimeout(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()
	defer close(release)

	f := relay.NewForwarder(
		relay.WithEndpoints(endpointsFor(ts.URL)),
		relay.WithForwardHTTPClient(&http.Client{Timeout: 50 * time.Millisecond}),
	)
	_, err := f.Kick(context.Background(), &relay.Request{
		Platform: model.VendorECPay,
		TestMode: true,
		Action:   relay.ActionCreate,
		Data:     json.RawMessage(`{}`),
	})

	var netErr *model.NetworkError
	require.True(t, errors.As(err, &netErr), "got %v", err)
	assert.True(t, netErr.Timeout)
	assert.False(t, netErr.Aborted)
	assert.Contains(t, netErr.Error(), "timed out")
}

func TestClient_Kick(t *testing.T) {
	var got relay.Request
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"success":true,"platform":"amego","test_mode":true,"response":{"code":0}}`))
	}))
	defer ts.Close()

	c := relay.NewClient(ts.URL)
	resp, err := c.Kick(context.Background(), &relay.Request{
		Platform: model.VendorAmego,
		TestMode: true,
		Action:   relay.ActionCreate,
		Data:     json.RawMessage(`{"invoice":"12345678"}`),
	})
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.JSONEq(t, `{"code":0}`, string(resp.Response))
	assert.Equal(t, model.VendorAmego, got.Platform)
	assert.Equal(t, relay.ActionCreate, got.Action)
}

func TestClient_RelayFault(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"success":false,"error":"Invalid JSON input"}`))
	}))
	defer ts.Close()

	resp, err := relay.NewClient(ts.URL).Kick(context.Background(), &relay.Request{Platform: model.VendorEzPay, Data: json.RawMessage(`{}`)})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, "Invalid JSON input", resp.Error)
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()
	defer close(release)

	c := relay.NewClient(ts.URL, relay.WithTimeout(50*time.Millisecond))
	_, err := c.Kick(context.Background(), &relay.Request{Platform: model.VendorECPay, Data: json.RawMessage(`{}`)})

	var netErr *model.NetworkError
	require.True(t, errors.As(err, &netErr), "got %v", err)
	assert.True(t, netErr.Timeout)
	assert.False(t, netErr.Aborted)
}

func TestClient_Abort(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	_, err := relay.NewClient(ts.URL).Kick(ctx, &relay.Request{Platform: model.VendorECPay, Data: json.RawMessage(`{}`)})

	var netErr *model.NetworkError
	require.True(t, errors.As(err, &netErr), "got %v", err)
	assert.True(t, netErr.Aborted)
	assert.Equal(t, model.KindAborted, model.KindOf(err))
}
