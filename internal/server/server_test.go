package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/rezonia/einvoice-gateway/internal/batch"
	"github.com/rezonia/einvoice-gateway/internal/model"
	"github.com/rezonia/einvoice-gateway/internal/relay"
	"github.com/rezonia/einvoice-gateway/internal/server"
	"github.com/rezonia/einvoice-gateway/internal/store"
	"github.com/rezonia/einvoice-gateway/internal/vendor"
)

var amegoCreds = map[model.Vendor]model.VendorCredentials{
	model.VendorAmego: {Test: model.Credential{"ubn": "12345678", "app_key": "sHeq7t8G1wiQvhAuIM27"}},
}

type harness struct {
	srv   *server.Server
	store *store.Memory

	mu    sync.Mutex
	kicks []*relay.Request
}

// newHarness wires a server whose vendor calls are answered by handler
func newHarness(t *testing.T, handler relay.GatewayFunc) *harness {
	t.Helper()
	h := &harness{store: store.NewMemory()}
	gw := relay.GatewayFunc(func(ctx context.Context, req *relay.Request) (*relay.Response, error) {
		h.mu.Lock()
		h.kicks = append(h.kicks, req)
		h.mu.Unlock()
		return handler(ctx, req)
	})

	h.srv = server.NewServer(
		&server.Config{Address: ":0"},
		server.WithForwarder(gw),
		server.WithRegistry(vendor.NewRegistry(gw, amegoCreds)),
		server.WithStore(h.store, batch.New(h.store)),
	)
	return h
}

func (h *harness) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.srv.Handler().ServeHTTP(w, req)
	return w
}

func (h *harness) kickCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.kicks)
}

func vendorAnswer(body string) relay.GatewayFunc {
	return func(ctx context.Context, req *relay.Request) (*relay.Response, error) {
		return &relay.Response{Success: true, Platform: req.Platform, Response: json.RawMessage(body)}, nil
	}
}

const queueBody = `[
	{"merchant_order_no": "A001", "items": [{"name": "Widget", "quantity": 2, "unit_price": "100"}]},
	{"merchant_order_no": "A002", "items": [{"name": "Gadget", "quantity": 1, "unit_price": "50"}]}
]`

func TestHealthEndpoint(t *testing.T) {
	h := newHarness(t, vendorAnswer(`{}`))

	w := h.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "ok", response["status"])
	assert.NotEmpty(t, response["time"])
}

func TestRequestID(t *testing.T) {
	h := newHarness(t, vendorAnswer(`{}`))

	w := h.do(t, http.MethodGet, "/health", "")
	assert.Len(t, w.Header().Get("X-Request-ID"), 36)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w = httptest.NewRecorder()
	h.srv.Handler().ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
}

func TestKick_Forwards(t *testing.T) {
	h := newHarness(t, vendorAnswer(`{"TransCode":1}`))

	w := h.do(t, http.MethodPost, "/kick", `{"platform":"ECPay","data":{"MerchantID":"2000132"}}`)
	require.Equal(t, http.StatusOK, w.Code)

	body := gjson.Parse(w.Body.String())
	assert.True(t, body.Get("success").Bool())
	assert.Equal(t, int64(1), body.Get("response.TransCode").Int())

	require.Equal(t, 1, h.kickCount())
	req := h.kicks[0]
	assert.Equal(t, model.VendorECPay, req.Platform)
	assert.True(t, req.TestMode, "test mode is the default")
	assert.Equal(t, relay.ActionCreate, req.Action)
	assert.Equal(t, model.CategoryB2C, req.InvoiceType)
	assert.JSONEq(t, `{"MerchantID":"2000132"}`, string(req.Data))
}

func TestKick_ExplicitFields(t *testing.T) {
	h := newHarness(t, vendorAnswer(`{}`))

	w := h.do(t, http.MethodPost, "/kick",
		`{"platform":"opay","test_mode":false,"action":"void","invoice_type":"B2B","data":"x"}`)
	require.Equal(t, http.StatusOK, w.Code)

	req := h.kicks[0]
	assert.False(t, req.TestMode)
	assert.Equal(t, relay.ActionVoid, req.Action)
	assert.Equal(t, model.CategoryB2B, req.InvoiceType)
}

func TestKick_Failures(t *testing.T) {
	failing := relay.GatewayFunc(func(ctx context.Context, req *relay.Request) (*relay.Response, error) {
		return nil, assert.AnError
	})

	tests := []struct {
		name      string
		body      string
		wantCode  int
		wantError string
	}{
		{"malformed json", `{"platform":`, http.StatusInternalServerError, "Invalid JSON input"},
		{"missing data", `{"platform":"ezpay"}`, http.StatusOK, "Missing platform or data field"},
		{"missing platform", `{"data":{}}`, http.StatusOK, "Missing platform or data field"},
		{"forward failure", `{"platform":"ezpay","data":{}}`, http.StatusOK, assert.AnError.Error()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, failing)
			w := h.do(t, http.MethodPost, "/kick", tt.body)
			assert.Equal(t, tt.wantCode, w.Code)

			body := gjson.Parse(w.Body.String())
			assert.False(t, body.Get("success").Bool())
			assert.Equal(t, tt.wantError, body.Get("error").String())
		})
	}
}

func TestKick_ThroughForwarder(t *testing.T) {
	vendorSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "<SmilePay><Status>0</Status></SmilePay>")
	}))
	defer vendorSrv.Close()

	fwd := relay.NewForwarder(relay.WithEndpoints(relay.Endpoints{
		model.VendorSmilePay: {relay.ActionCreate: {Test: vendorSrv.URL, Production: vendorSrv.URL}},
	}))
	srv := server.NewServer(&server.Config{}, server.WithForwarder(fwd))

	req := httptest.NewRequest(http.MethodPost, "/kick", bytes.NewBufferString(`{"platform":"smilepay","data":{"Grvc":"SEI1000034"}}`))
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := gjson.Parse(w.Body.String())
	assert.True(t, body.Get("success").Bool())
	assert.Equal(t, "<SmilePay><Status>0</Status></SmilePay>", body.Get("response").String())
}

func TestVendorsEndpoint(t *testing.T) {
	h := newHarness(t, vendorAnswer(`{}`))

	w := h.do(t, http.MethodGet, "/api/v1/vendors", "")
	require.Equal(t, http.StatusOK, w.Code)

	vendors := gjson.Get(w.Body.String(), "vendors").Array()
	require.Len(t, vendors, len(model.Vendors()))
	assert.Equal(t, "ezpay", vendors[0].Get("vendor").String())
	assert.Equal(t, `["ubn","app_key"]`, vendors[4].Get("required_fields").Raw)
}

func TestVoidEndpoint(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		body     string
		answer   string
		wantCode int
		wantKind model.ErrorKind
		wantCall bool
	}{
		{
			name:     "success",
			path:     "/api/v1/invoices/amego/void",
			body:     `{"invoice_number":"AB12345678","reason":"wrong buyer"}`,
			answer:   `{"code":0,"msg":""}`,
			wantCode: http.StatusOK,
			wantCall: true,
		},
		{
			name:     "vendor rejection",
			path:     "/api/v1/invoices/amego/void",
			body:     `{"invoice_number":"AB12345678","reason":"wrong buyer"}`,
			answer:   `{"code":1,"msg":"invoice not found"}`,
			wantCode: http.StatusUnprocessableEntity,
			wantKind: model.KindRejected,
			wantCall: true,
		},
		{
			name:     "missing reason",
			path:     "/api/v1/invoices/amego/void",
			body:     `{"invoice_number":"AB12345678"}`,
			wantCode: http.StatusBadRequest,
			wantKind: model.KindValidation,
		},
		{
			name:     "no credentials",
			path:     "/api/v1/invoices/ecpay/void",
			body:     `{"invoice_number":"AB12345678","reason":"x"}`,
			wantCode: http.StatusBadRequest,
			wantKind: model.KindConfiguration,
		},
		{
			name:     "unknown vendor",
			path:     "/api/v1/invoices/paypal/void",
			body:     `{"invoice_number":"AB12345678","reason":"x"}`,
			wantCode: http.StatusNotFound,
		},
		{
			name:     "bad mode",
			path:     "/api/v1/invoices/amego/void",
			body:     `{"invoice_number":"AB12345678","reason":"x","mode":"staging"}`,
			wantCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, vendorAnswer(tt.answer))

			w := h.do(t, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.wantCode, w.Code, w.Body.String())
			if tt.wantKind != "" {
				assert.Equal(t, string(tt.wantKind), gjson.Get(w.Body.String(), "kind").String())
			}
			if tt.wantCall {
				assert.Equal(t, 1, h.kickCount())
				assert.Equal(t, relay.ActionVoid, h.kicks[0].Action)
			} else {
				assert.Zero(t, h.kickCount())
			}
		})
	}
}

func TestQueueInvoices(t *testing.T) {
	h := newHarness(t, vendorAnswer(`{}`))

	w := h.do(t, http.MethodPost, "/api/v1/invoices", queueBody)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, int64(2), gjson.Get(w.Body.String(), "queued").Int())

	inv, err := h.store.Get(context.Background(), "A001")
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, inv.Status)
	assert.Equal(t, model.CategoryB2C, inv.Category)
	assert.Equal(t, "210", inv.TotalAmt.String())

	w = h.do(t, http.MethodGet, "/api/v1/invoices", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, gjson.Get(w.Body.String(), "invoices").Array(), 2)

	w = h.do(t, http.MethodPost, "/api/v1/invoices", `[{"merchant_order_no":"A003","items":[]}]`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = h.do(t, http.MethodPost, "/api/v1/invoices", `[]`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBatchLifecycle(t *testing.T) {
	h := newHarness(t, vendorAnswer(`{"code":0,"invoice_number":"AB12345678","random_num":"1234"}`))

	w := h.do(t, http.MethodPost, "/api/v1/batches", `{"vendor":"amego"}`)
	assert.Equal(t, http.StatusConflict, w.Code, "empty queue")

	require.Equal(t, http.StatusCreated, h.do(t, http.MethodPost, "/api/v1/invoices", queueBody).Code)

	w = h.do(t, http.MethodPost, "/api/v1/batches", `{"vendor":"amego","mode":"test"}`)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	id := gjson.Get(w.Body.String(), "job_id").String()
	require.NotEmpty(t, id)
	assert.Equal(t, "amego", gjson.Get(w.Body.String(), "vendor").String())

	require.Eventually(t, func() bool {
		w := h.do(t, http.MethodGet, "/api/v1/batches/"+id, "")
		return gjson.Get(w.Body.String(), "state").String() == string(batch.StateCompleted)
	}, 5*time.Second, 10*time.Millisecond)

	w = h.do(t, http.MethodGet, "/api/v1/batches/"+id, "")
	assert.Equal(t, int64(2), gjson.Get(w.Body.String(), "stats.successful").Int())
	assert.Equal(t, 2, h.kickCount())

	inv, err := h.store.Get(context.Background(), "A002")
	require.NoError(t, err)
	assert.Equal(t, model.StatusSuccess, inv.Status)
	assert.Equal(t, "AB12345678", inv.InvoiceNumber)

	w = h.do(t, http.MethodPost, "/api/v1/batches/"+id+"/pause", "")
	assert.Equal(t, http.StatusConflict, w.Code, "finished jobs cannot pause")

	w = h.do(t, http.MethodGet, "/api/v1/batches/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBatchAbort(t *testing.T) {
	started := make(chan struct{}, 1)
	h := newHarness(t, func(ctx context.Context, req *relay.Request) (*relay.Response, error) {
		started <- struct{}{}
		<-ctx.Done()
		return nil, ctx.Err()
	})
	require.Equal(t, http.StatusCreated, h.do(t, http.MethodPost, "/api/v1/invoices", queueBody).Code)

	w := h.do(t, http.MethodPost, "/api/v1/batches", `{"vendor":"amego"}`)
	require.Equal(t, http.StatusAccepted, w.Code)
	id := gjson.Get(w.Body.String(), "job_id").String()

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("vendor call never started")
	}

	w = h.do(t, http.MethodPost, "/api/v1/batches", `{"vendor":"amego"}`)
	assert.Equal(t, http.StatusConflict, w.Code, "one batch at a time")

	w = h.do(t, http.MethodPost, "/api/v1/batches/"+id+"/resume", "")
	assert.Equal(t, http.StatusConflict, w.Code, "not paused")

	w = h.do(t, http.MethodPost, "/api/v1/batches/"+id+"/abort", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, string(batch.StateAborted), gjson.Get(w.Body.String(), "state").String())
	assert.Equal(t, int64(0), gjson.Get(w.Body.String(), "stats.processed").Int())

	inv, err := h.store.Get(context.Background(), "A001")
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, inv.Status, "aborted item is restored")
}

func TestStartBatch_BadRequests(t *testing.T) {
	h := newHarness(t, vendorAnswer(`{}`))

	assert.Equal(t, http.StatusNotFound, h.do(t, http.MethodPost, "/api/v1/batches", `{"vendor":"paypal"}`).Code)
	assert.Equal(t, http.StatusBadRequest, h.do(t, http.MethodPost, "/api/v1/batches", `{"vendor":"amego","mode":"x"}`).Code)
	assert.Equal(t, http.StatusBadRequest, h.do(t, http.MethodPost, "/api/v1/batches", `{`).Code)
}
