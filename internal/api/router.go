package api

import (
	"net/http"

	"warehouse-route-service/internal/api/handlers"
)

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// edges and metrics may be nil.
func NewRouter(sim handlers.Simulation, edges handlers.EdgeStore, metrics http.Handler) http.Handler {
	mux := http.NewServeMux()

	health := &handlers.HealthHandler{Clock: sim}
	warehouse := &handlers.WarehouseHandler{Sim: sim, Edges: edges}
	orders := &handlers.OrderHandler{Sim: sim}
	carts := &handlers.CartHandler{Sim: sim}

	mux.HandleFunc("/health", health.Health)
	mux.HandleFunc("/warehouse", warehouse.Get)
	mux.HandleFunc("/edges/close", warehouse.CloseEdge)
	mux.HandleFunc("/edges/open", warehouse.OpenEdge)
	mux.HandleFunc("/stock/reset", warehouse.ResetStock)
	mux.HandleFunc("/orders", orders.Orders)
	mux.HandleFunc("/carts", carts.List)
	if metrics != nil {
		mux.Handle("/metrics", metrics)
	}

	return withRequestID(accessLog(mux))
}
