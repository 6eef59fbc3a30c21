package handlers

import (
	"log"
	"net/http"
	"strings"

	"warehouse-route-service/internal/api/dto"
	"warehouse-route-service/internal/domain"
)

// OrderHandler lists orders and submits new ones.
type OrderHandler struct {
	Sim Simulation
}

// Orders serves GET (list) and POST (create) on one path.
func (h *OrderHandler) Orders(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *OrderHandler) list(w http.ResponseWriter, r *http.Request) {
	snap := h.Sim.Snapshot()

	res := dto.ListOrdersResponse{Orders: make([]dto.OrderResponse, 0, len(snap.Orders))}
	for _, o := range snap.Orders {
		warnings := o.Warnings
		if warnings == nil {
			warnings = []string{}
		}
		res.Orders = append(res.Orders, dto.OrderResponse{
			OrderID:     o.OrderID,
			State:       o.State.String(),
			StartAt:     o.StartAt,
			EndAt:       o.EndAt,
			Requested:   toLineItems(o.Requested),
			Unsatisfied: toLineItems(o.Unsatisfied),
			Warnings:    warnings,
		})
	}

	writeJSON(w, r, http.StatusOK, res)
}

func (h *OrderHandler) create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}

	delay, err := domain.StartOffset(req.StartOffsetSeconds)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "start_offset_seconds: "+err.Error())
		return
	}
	if len(req.Items) == 0 {
		writeError(w, r, http.StatusBadRequest, "items are required")
		return
	}

	items := make([]domain.LineItem, 0, len(req.Items))
	for _, it := range req.Items {
		goods := strings.TrimSpace(it.Goods)
		if goods == "" || it.Quantity <= 0 {
			writeError(w, r, http.StatusBadRequest, "each item needs goods and a positive quantity")
			return
		}
		items = append(items, domain.LineItem{Goods: goods, Quantity: it.Quantity})
	}

	id, err := h.Sim.SubmitIn(delay, items)
	if err != nil {
		log.Printf("submit order failed: %v", err)
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, r, http.StatusCreated, dto.CreateOrderResponse{OrderID: id})
}
