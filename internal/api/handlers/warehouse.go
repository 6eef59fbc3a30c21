package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"warehouse-route-service/internal/api/dto"
	"warehouse-route-service/internal/domain"
	"warehouse-route-service/internal/services"
)

// Simulation is the part of the running simulation the HTTP layer drives.
type Simulation interface {
	Now() time.Time
	Snapshot() services.Snapshot
	SubmitIn(delay time.Duration, items []domain.LineItem) (int, error)
	CloseEdge(a, b int) error
	OpenEdge(a, b int) error
	ResetStock()
}

// EdgeStore persists edge state changes; optional.
type EdgeStore interface {
	SaveEdgeState(ctx context.Context, a, b int, closed bool) error
}

// WarehouseHandler exposes the graph and shelves and accepts edge and stock changes.
type WarehouseHandler struct {
	Sim   Simulation
	Edges EdgeStore
}

func (h *WarehouseHandler) Get(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	snap := h.Sim.Snapshot()
	res := dto.WarehouseResponse{
		Now:     snap.Now,
		Nodes:   make([]dto.NodeResponse, 0, len(snap.Nodes)),
		Edges:   make([]dto.EdgeResponse, 0, len(snap.Edges)),
		Shelves: make([]dto.ShelfResponse, 0, len(snap.Shelves)),
	}
	for _, n := range snap.Nodes {
		res.Nodes = append(res.Nodes, dto.NodeResponse{ID: n.ID, X: n.X, Y: n.Y, Neighbours: n.Neighbours})
	}
	for _, e := range snap.Edges {
		res.Edges = append(res.Edges, dto.EdgeResponse{A: e.NodeA, B: e.NodeB, Open: e.Open})
	}
	for _, s := range snap.Shelves {
		res.Shelves = append(res.Shelves, dto.ShelfResponse{
			ShelfID:  s.ShelfID,
			NodeID:   s.NodeID,
			Goods:    s.Goods,
			Quantity: s.Quantity,
			Reserved: s.Reserved,
		})
	}

	writeJSON(w, r, http.StatusOK, res)
}

func (h *WarehouseHandler) CloseEdge(w http.ResponseWriter, r *http.Request) {
	h.setEdge(w, r, false)
}

func (h *WarehouseHandler) OpenEdge(w http.ResponseWriter, r *http.Request) {
	h.setEdge(w, r, true)
}

func (h *WarehouseHandler) setEdge(w http.ResponseWriter, r *http.Request, open bool) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req dto.EdgeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}
	if req.A == nil || req.B == nil {
		writeError(w, r, http.StatusBadRequest, "a and b are required")
		return
	}
	a, b := *req.A, *req.B

	apply := h.Sim.CloseEdge
	if open {
		apply = h.Sim.OpenEdge
	}
	if err := apply(a, b); err != nil {
		if errors.Is(err, domain.ErrUnknownEdge) {
			writeError(w, r, http.StatusNotFound, "unknown edge")
			return
		}
		log.Printf("set edge failed: a=%d b=%d open=%v err=%v", a, b, open, err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	if h.Edges != nil {
		// The simulation already changed; a storage failure only loses persistence.
		if err := h.Edges.SaveEdgeState(r.Context(), a, b, !open); err != nil {
			log.Printf("persist edge failed: a=%d b=%d open=%v err=%v", a, b, open, err)
		}
	}

	writeJSON(w, r, http.StatusOK, dto.EdgeResponse{A: a, B: b, Open: open})
}

func (h *WarehouseHandler) ResetStock(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	h.Sim.ResetStock()
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "reset"})
}
