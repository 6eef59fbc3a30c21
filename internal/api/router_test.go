package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"warehouse-route-service/internal/api/dto"
	"warehouse-route-service/internal/domain"
	"warehouse-route-service/internal/platform/obs"
	"warehouse-route-service/internal/services"
)

type edgeCall struct {
	a, b   int
	closed bool
}

type fakeEdgeStore struct{ calls []edgeCall }

func (f *fakeEdgeStore) SaveEdgeState(_ context.Context, a, b int, closed bool) error {
	f.calls = append(f.calls, edgeCall{a, b, closed})
	return nil
}

func newTestServer(t *testing.T) (*services.Simulation, *fakeEdgeStore, http.Handler) {
	t.Helper()

	layout := &domain.Layout{
		Nodes:   []domain.NodeSpec{{ID: 0}, {ID: 1, X: 30, Y: 40}, {ID: 2, X: 60}},
		Edges:   []domain.EdgeSpec{{NodeA: 0, NodeB: 1}, {NodeA: 1, NodeB: 2}, {NodeA: 0, NodeB: 2}},
		Shelves: []domain.ShelfSpec{{ShelfID: 1, NodeID: 2}},
		Stock:   []domain.StockSpec{{ShelfID: 1, Goods: "bolt", Quantity: 10}},
	}
	opts := services.DefaultOptions()
	opts.Start = time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	sim, err := services.NewSimulation(layout, opts)
	if err != nil {
		t.Fatalf("new simulation: %v", err)
	}

	metrics, err := obs.NewSimulationCollector(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("collector: %v", err)
	}
	sim.SetMetrics(metrics)

	store := &fakeEdgeStore{}
	return sim, store, NewRouter(sim, store, metrics.Handler())
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestHealth(t *testing.T) {
	_, _, h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Header().Get(requestIDHeader) == "" {
		t.Fatal("missing request id header")
	}

	rec = do(t, h, http.MethodPost, "/health", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
	if rec.Header().Get("Allow") != http.MethodGet {
		t.Fatalf("Allow = %q, want GET", rec.Header().Get("Allow"))
	}
}

func TestRequestIDIsPropagated(t *testing.T) {
	_, _, h := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get(requestIDHeader); got != "abc-123" {
		t.Fatalf("request id = %q, want abc-123", got)
	}
}

func TestWarehouse(t *testing.T) {
	_, _, h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/warehouse", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	res := decode[dto.WarehouseResponse](t, rec)
	if len(res.Nodes) != 3 || len(res.Edges) != 3 || len(res.Shelves) != 1 {
		t.Fatalf("warehouse = %+v", res)
	}
	if res.Shelves[0].Quantity != 10 || res.Shelves[0].Goods != "bolt" {
		t.Fatalf("shelf = %+v, want 10 bolt", res.Shelves[0])
	}
}

func TestCreateAndListOrders(t *testing.T) {
	sim, _, h := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/orders", `{"start_offset_seconds": 0, "items": [{"goods": "bolt", "quantity": 4}]}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	created := decode[dto.CreateOrderResponse](t, rec)
	if created.OrderID != 1 {
		t.Fatalf("order id = %d, want 1", created.OrderID)
	}

	sim.Advance(context.Background(), 100*time.Millisecond)

	rec = do(t, h, http.MethodGet, "/orders", "")
	orders := decode[dto.ListOrdersResponse](t, rec)
	if len(orders.Orders) != 1 || orders.Orders[0].State != "active" {
		t.Fatalf("orders = %+v, want one active", orders.Orders)
	}

	rec = do(t, h, http.MethodGet, "/carts", "")
	carts := decode[dto.ListCartsResponse](t, rec)
	if len(carts.Carts) != 1 || carts.Carts[0].Status != "moving" {
		t.Fatalf("carts = %+v, want one moving", carts.Carts)
	}
	if len(carts.Carts[0].RemainingPath) == 0 {
		t.Fatal("cart has no remaining path")
	}
}

func TestCreateOrderValidation(t *testing.T) {
	_, _, h := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"bad json", `{`},
		{"unknown field", `{"items": [{"goods": "bolt", "quantity": 1}], "priority": 1}`},
		{"no items", `{"items": []}`},
		{"zero quantity", `{"items": [{"goods": "bolt", "quantity": 0}]}`},
		{"blank goods", `{"items": [{"goods": " ", "quantity": 1}]}`},
		{"negative offset", `{"start_offset_seconds": -1, "items": [{"goods": "bolt", "quantity": 1}]}`},
		{"offset past duration range", `{"start_offset_seconds": 1e19, "items": [{"goods": "bolt", "quantity": 1}]}`},
		{"offset just past duration range", `{"start_offset_seconds": 9.3e9, "items": [{"goods": "bolt", "quantity": 1}]}`},
		{"nan offset", `{"start_offset_seconds": NaN, "items": [{"goods": "bolt", "quantity": 1}]}`},
		{"infinite offset", `{"start_offset_seconds": Infinity, "items": [{"goods": "bolt", "quantity": 1}]}`},
		{"two objects", `{"items": [{"goods": "bolt", "quantity": 1}]} {}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/orders", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestCreateOrderFarInFutureStaysPending(t *testing.T) {
	sim, _, h := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/orders", `{"start_offset_seconds": 1e19, "items": [{"goods": "bolt", "quantity": 1}]}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	rec = do(t, h, http.MethodPost, "/orders", `{"start_offset_seconds": 9e9, "items": [{"goods": "bolt", "quantity": 1}]}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	sim.Advance(context.Background(), 20*time.Millisecond)

	orders := decode[dto.ListOrdersResponse](t, do(t, h, http.MethodGet, "/orders", ""))
	if len(orders.Orders) != 1 || orders.Orders[0].State != "pending" {
		t.Fatalf("orders = %+v, want one pending", orders.Orders)
	}
	carts := decode[dto.ListCartsResponse](t, do(t, h, http.MethodGet, "/carts", ""))
	if len(carts.Carts) != 0 {
		t.Fatalf("carts = %+v, want none", carts.Carts)
	}
}

func TestEdgeCloseAndOpen(t *testing.T) {
	sim, store, h := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/edges/close", `{"a": 2, "b": 1}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	for _, e := range sim.Snapshot().Edges {
		if e.NodeA == 1 && e.NodeB == 2 && e.Open {
			t.Fatal("edge 1-2 still open")
		}
	}

	rec = do(t, h, http.MethodPost, "/edges/open", `{"a": 1, "b": 2}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	if len(store.calls) != 2 || !store.calls[0].closed || store.calls[1].closed {
		t.Fatalf("edge store calls = %+v", store.calls)
	}

	rec = do(t, h, http.MethodPost, "/edges/close", `{"a": 1, "b": 9}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown edge status = %d, want 404", rec.Code)
	}
	rec = do(t, h, http.MethodPost, "/edges/close", `{"a": 1}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing b status = %d, want 400", rec.Code)
	}
}

func TestResetStock(t *testing.T) {
	sim, _, h := newTestServer(t)

	if _, err := sim.SubmitIn(0, []domain.LineItem{{Goods: "bolt", Quantity: 10}}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	for i := 0; i < 200 && !sim.Done(); i++ {
		sim.Advance(context.Background(), 100*time.Millisecond)
	}
	if q := sim.Snapshot().Shelves[0].Quantity; q != 0 {
		t.Fatalf("quantity before reset = %d, want 0", q)
	}

	rec := do(t, h, http.MethodPost, "/stock/reset", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if q := sim.Snapshot().Shelves[0].Quantity; q != 10 {
		t.Fatalf("quantity after reset = %d, want 10", q)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	sim, _, h := newTestServer(t)
	sim.Advance(context.Background(), 100*time.Millisecond)

	rec := do(t, h, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "warehouse_tick_duration_seconds") {
		t.Fatal("metrics output missing tick histogram")
	}
}
