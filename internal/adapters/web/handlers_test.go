package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"order-service/internal/app"
	"order-service/internal/core"
	"order-service/internal/metrics"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeService implements app.ApplicationService with canned results.
type fakeService struct {
	order      *core.Order
	err        error
	healthErr  error
	lastCreate *app.CreateOrderRequest
	lastList   *app.ListOrdersRequest
	lastPatch  *core.OrderPatch
	lastRef    string
	lastKind   core.CatalogKind
	lastActive bool
}

func (f *fakeService) ListReferenceData(_ context.Context, kind core.CatalogKind, activeOnly bool) (*app.ReferenceListResult, error) {
	f.lastKind, f.lastActive = kind, activeOnly
	return &app.ReferenceListResult{Kind: kind, Entries: core.SeedEntries(kind)}, f.err
}

func (f *fakeService) SeedReferenceData(context.Context) error { return f.err }

func (f *fakeService) CreateOrder(_ context.Context, req app.CreateOrderRequest) (*app.OrderResult, error) {
	f.lastCreate = &req
	if f.err != nil {
		return nil, f.err
	}
	return &app.OrderResult{Order: f.order}, nil
}

func (f *fakeService) TransitionOrderStatus(_ context.Context, ref string, _ app.TransitionStatusRequest) (*app.OrderResult, error) {
	f.lastRef = ref
	if f.err != nil {
		return nil, f.err
	}
	return &app.OrderResult{Order: f.order}, nil
}

func (f *fakeService) UpdateOrder(_ context.Context, ref string, patch core.OrderPatch) (*app.OrderResult, error) {
	f.lastRef = ref
	f.lastPatch = &patch
	if f.err != nil {
		return nil, f.err
	}
	return &app.OrderResult{Order: f.order}, nil
}

func (f *fakeService) GetOrder(_ context.Context, ref string) (*app.OrderResult, error) {
	f.lastRef = ref
	if f.err != nil {
		return nil, f.err
	}
	return &app.OrderResult{Order: f.order}, nil
}

func (f *fakeService) ListOrders(_ context.Context, req app.ListOrdersRequest) (*app.OrderListResult, error) {
	f.lastList = &req
	if f.err != nil {
		return nil, f.err
	}
	return &app.OrderListResult{
		Orders: []core.OrderSummary{{ID: f.order.ID, OrderNumber: f.order.OrderNumber}},
		Total:  42,
		Limit:  req.Limit,
	}, nil
}

func (f *fakeService) GetStatusHistory(_ context.Context, ref string) (*app.StatusHistoryResult, error) {
	f.lastRef = ref
	if f.err != nil {
		return nil, f.err
	}
	return &app.StatusHistoryResult{OrderID: f.order.ID, Entries: []core.StatusHistoryEntry{
		{OrderID: f.order.ID, StatusID: f.order.StatusID, ActorDetails: core.GenesisActor, Notes: core.GenesisNotes},
	}}, nil
}

func (f *fakeService) GetOrderStats(context.Context) (*core.OrderStats, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &core.OrderStats{TotalOrders: 3, NewOrders: 3, StatusBreakdown: map[string]int{core.StatusNew: 3}}, nil
}

func (f *fakeService) CheckHealth(context.Context) error { return f.healthErr }

func newTestServer(t *testing.T) (*fakeService, http.Handler) {
	t.Helper()
	svc := &fakeService{order: &core.Order{
		ID:          uuid.New(),
		OrderNumber: "ORD-2026-01-ABCDEFGH",
		TotalAmount: decimal.RequireFromString("250.00"),
		Currency:    "RUB",
	}}
	return svc, NewHandler(svc, Options{Metrics: metrics.New()})
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHealth(t *testing.T) {
	svc, h := newTestServer(t)

	rec := do(h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	svc.healthErr = errors.New("connection refused")
	rec = do(h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCreateOrder(t *testing.T) {
	svc, h := newTestServer(t)

	body := `{
		"customer_name": "Ivan Petrov",
		"customer_phone": "+79990000000",
		"delivery_method_code": "COURIER_HOME",
		"payment_method_code": "CARD",
		"order_items": [{"product_id": "` + uuid.NewString() + `", "product_snapshot_name": "Kettle",
			"product_snapshot_price": "100.00", "quantity": 2}],
		"payment_details_client": {"last4": "4242"}
	}`
	rec := do(h, http.MethodPost, "/api/v1/orders", body)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "/api/v1/orders/"+svc.order.ID.String(), rec.Header().Get("Location"))
	require.NotNil(t, svc.lastCreate)
	assert.Equal(t, "COURIER_HOME", svc.lastCreate.DeliveryMethodCode)
	assert.True(t, svc.lastCreate.Items[0].UnitPrice.Equal(decimal.NewFromInt(100)))
	assert.JSONEq(t, `{"last4": "4242"}`, string(svc.lastCreate.PaymentDetails))

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "ORD-2026-01-ABCDEFGH", got["order_number"])
	assert.Equal(t, "250", got["total_amount"])
}

func TestCreateOrder_MalformedJSON(t *testing.T) {
	_, h := newTestServer(t)
	rec := do(h, http.MethodPost, "/api/v1/orders", `{"customer_name":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "BAD_REQUEST", decodeError(t, rec).Code)
}

func TestCreateOrder_BodyTooLarge(t *testing.T) {
	_, h := newTestServer(t)
	big := `{"customer_notes":"` + strings.Repeat("x", 2<<20) + `"}`
	rec := do(h, http.MethodPost, "/api/v1/orders", big)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("%w: x", core.ErrOrderNotFound), http.StatusNotFound, "NOT_FOUND"},
		{&core.ReferenceError{Kind: core.CatalogDeliveryMethod, Ref: "EXPRESS", Err: core.ErrInvalidReference}, http.StatusBadRequest, "INVALID_REFERENCE"},
		{&core.ReferenceError{Kind: core.CatalogOrderStatus, Ref: "LOST", Err: core.ErrReferenceNotFound}, http.StatusBadRequest, "INVALID_REFERENCE"},
		{fmt.Errorf("%w: no items", core.ErrInvalidOrder), http.StatusBadRequest, "BAD_REQUEST"},
		{&app.ValidationError{Fields: map[string]string{"customer_name": "is required"}}, http.StatusBadRequest, "VALIDATION_FAILED"},
		{fmt.Errorf("%w: 3 attempts", core.ErrOrderNumberExhausted), http.StatusInternalServerError, "ORDER_NUMBER_EXHAUSTED"},
		{fmt.Errorf("%w: %w", core.ErrCatalogNotSeeded, &core.ReferenceError{Kind: core.CatalogOrderStatus, Ref: core.StatusNew, Err: core.ErrReferenceNotFound}), http.StatusInternalServerError, "CATALOG_NOT_SEEDED"},
		{errors.New("connection reset by peer"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			svc, h := newTestServer(t)
			svc.err = tc.err
			rec := do(h, http.MethodGet, "/api/v1/orders/"+uuid.NewString(), "")
			assert.Equal(t, tc.status, rec.Code)
			resp := decodeError(t, rec)
			assert.Equal(t, tc.code, resp.Code)
			assert.NotEmpty(t, resp.RequestID)
		})
	}
}

func TestInternalErrorHidesDetail(t *testing.T) {
	svc, h := newTestServer(t)
	svc.err = errors.New("pq: password authentication failed for user app")
	rec := do(h, http.MethodGet, "/api/v1/orders/stats", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestValidationErrorListsFields(t *testing.T) {
	svc, h := newTestServer(t)
	svc.err = &app.ValidationError{Fields: map[string]string{"order_items": "is required"}}
	rec := do(h, http.MethodPost, "/api/v1/orders", `{}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "is required", decodeError(t, rec).Fields["order_items"])
}

func TestListOrders(t *testing.T) {
	svc, h := newTestServer(t)

	rec := do(h, http.MethodGet, "/api/v1/orders?skip=10&limit=5&search=ivan&status_id=NEW&date_from=2026-01-01&date_to=2026-01-31", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "42", rec.Header().Get("X-Total-Count"))

	req := svc.lastList
	require.NotNil(t, req)
	assert.Equal(t, 10, req.Skip)
	assert.Equal(t, 5, req.Limit)
	assert.Equal(t, "ivan", req.Search)
	assert.Equal(t, "NEW", req.Status)
	require.NotNil(t, req.DateFrom)
	require.NotNil(t, req.DateTo)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), *req.DateFrom)
	assert.Equal(t, time.Date(2026, 1, 31, 23, 59, 59, 999999000, time.UTC), *req.DateTo, "plain date upper bound covers the whole day")

	var orders []core.OrderSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &orders))
	assert.Len(t, orders, 1)
}

func TestListOrders_Defaults(t *testing.T) {
	svc, h := newTestServer(t)
	rec := do(h, http.MethodGet, "/api/v1/orders", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, svc.lastList.Skip)
	assert.Equal(t, core.DefaultListLimit, svc.lastList.Limit)
}

func TestListOrders_BadParams(t *testing.T) {
	_, h := newTestServer(t)
	for _, q := range []string{"skip=abc", "limit=ten", "date_from=yesterday", "date_to=2026-13-40"} {
		rec := do(h, http.MethodGet, "/api/v1/orders?"+q, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestTransitionStatus(t *testing.T) {
	svc, h := newTestServer(t)
	id := uuid.NewString()
	rec := do(h, http.MethodPatch, "/api/v1/orders/"+id+"/status", `{"status_code":"SHIPPED","actor_details":"courier"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, id, svc.lastRef)
}

func TestUpdateOrder_PatchPresence(t *testing.T) {
	svc, h := newTestServer(t)
	rec := do(h, http.MethodPatch, "/api/v1/orders/"+uuid.NewString(),
		`{"customer_phone":"+79991112233","customer_email":null,"delivery_method_id":"PICKUP_STORE"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	p := svc.lastPatch
	require.NotNil(t, p)
	assert.Equal(t, core.Value("+79991112233"), p.CustomerPhone)
	assert.True(t, p.CustomerEmail.Set && p.CustomerEmail.Null)
	assert.False(t, p.CustomerName.Set)
	assert.Equal(t, "PICKUP_STORE", p.DeliveryMethod.Value)
}

func TestStatusHistory(t *testing.T) {
	_, h := newTestServer(t)
	rec := do(h, http.MethodGet, "/api/v1/orders/"+uuid.NewString()+"/history", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []core.StatusHistoryEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, core.GenesisActor, entries[0].ActorDetails)
}

func TestReferenceLists(t *testing.T) {
	svc, h := newTestServer(t)

	rec := do(h, http.MethodGet, "/api/v1/orders/statuses", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, core.CatalogOrderStatus, svc.lastKind)

	rec = do(h, http.MethodGet, "/api/v1/orders/delivery-methods?active_only=true", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, core.CatalogDeliveryMethod, svc.lastKind)
	assert.True(t, svc.lastActive)

	rec = do(h, http.MethodGet, "/api/v1/orders/payment-methods?active_only=sometimes", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStats(t *testing.T) {
	_, h := newTestServer(t)
	rec := do(h, http.MethodGet, "/api/v1/orders/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var st core.OrderStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, 3, st.TotalOrders)
	assert.Equal(t, 3, st.StatusBreakdown[core.StatusNew])
}

func TestMetricsEndpoint(t *testing.T) {
	_, h := newTestServer(t)
	do(h, http.MethodGet, "/api/v1/orders/stats", "")

	rec := do(h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `orderengine_http_requests_total{route="/api/v1/orders/stats",status="200"} 1`)
}

func TestRequestIDPropagation(t *testing.T) {
	_, h := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "bad id with spaces")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	_, err := uuid.Parse(rec.Header().Get("X-Request-ID"))
	assert.NoError(t, err)
}

func TestRecovererReturns500(t *testing.T) {
	h := Recoverer(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCORS(t *testing.T) {
	h := NewHandler(&fakeService{order: &core.Order{}}, Options{AllowedOrigins: "https://admin.example.com"})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/orders", nil)
	req.Header.Set("Origin", "https://admin.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://admin.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
