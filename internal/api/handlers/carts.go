package handlers

import (
	"net/http"

	"warehouse-route-service/internal/api/dto"
)

// CartHandler exposes cart positions and remaining paths.
type CartHandler struct {
	Sim Simulation
}

func (h *CartHandler) List(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	snap := h.Sim.Snapshot()
	res := dto.ListCartsResponse{Carts: make([]dto.CartResponse, 0, len(snap.Carts))}
	for _, c := range snap.Carts {
		path := make([]dto.WaypointResponse, 0, len(c.RemainingPath))
		for _, wp := range c.RemainingPath {
			path = append(path, dto.WaypointResponse{
				NodeID:   wp.NodeID,
				ShelfID:  wp.PickUp.ShelfID,
				Goods:    wp.PickUp.Goods,
				Quantity: wp.PickUp.Quantity,
				Dispense: wp.PickUp.Dispense,
			})
		}

		res.Carts = append(res.Carts, dto.CartResponse{
			OrderID:       c.OrderID,
			Status:        c.Status.String(),
			Position:      dto.PositionResponse{X: c.Position.X, Y: c.Position.Y},
			Capacity:      c.Capacity,
			Load:          toLineItems(c.Load),
			Delivered:     toLineItems(c.Delivered),
			CurrentNode:   c.CurrentNode,
			RemainingPath: path,
		})
	}

	writeJSON(w, r, http.StatusOK, res)
}
