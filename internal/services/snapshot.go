package services

import (
	"maps"
	"slices"
	"time"

	"warehouse-route-service/internal/domain"
)

// Read-only copies of simulation state, safe to hand to other goroutines.

type NodeView struct {
	ID         int
	X          int
	Y          int
	Neighbours []int
}

type ShelfView struct {
	ShelfID  int
	NodeID   int
	Goods    string
	Quantity int
	Reserved int
}

type CartView struct {
	OrderID       int
	Status        domain.CartStatus
	Position      domain.Position
	Capacity      int
	Load          []domain.LineItem
	Delivered     []domain.LineItem
	CurrentNode   int
	RemainingPath domain.Path
}

type OrderView struct {
	OrderID     int
	State       domain.OrderState
	StartAt     time.Time
	EndAt       *time.Time
	Requested   []domain.LineItem
	Unsatisfied []domain.LineItem
	Warnings    []string
}

type Snapshot struct {
	Now     time.Time
	Nodes   []NodeView
	Edges   []domain.Edge
	Shelves []ShelfView
	Orders  []OrderView
	Carts   []CartView
}

// Snapshot copies the current state of the warehouse, orders and carts.
func (s *Simulation) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{Now: s.now, Edges: s.topo.Edges()}

	for _, id := range s.topo.NodeIDs() {
		n := s.topo.Node(id)
		snap.Nodes = append(snap.Nodes, NodeView{
			ID:         n.ID,
			X:          n.Coords.X,
			Y:          n.Coords.Y,
			Neighbours: n.Neighbours(),
		})
	}

	ledger := s.planner.Reservations()
	for _, sh := range s.topo.Shelves() {
		snap.Shelves = append(snap.Shelves, ShelfView{
			ShelfID:  sh.ShelfID,
			NodeID:   sh.NodeID,
			Goods:    sh.Goods,
			Quantity: sh.Quantity,
			Reserved: ledger.Reserved(sh.ShelfID),
		})
	}

	for _, id := range slices.Sorted(maps.Keys(s.orders)) {
		o := s.orders[id]
		ov := OrderView{
			OrderID:     o.OrderID,
			State:       o.State(s.now),
			StartAt:     o.StartAt,
			Requested:   slices.Clone(o.Requested),
			Unsatisfied: o.Unsatisfied(),
			Warnings:    slices.Clone(o.Warnings),
		}
		if o.EndAt != nil {
			end := *o.EndAt
			ov.EndAt = &end
		}
		snap.Orders = append(snap.Orders, ov)

		if c := o.Cart; c != nil {
			snap.Carts = append(snap.Carts, CartView{
				OrderID:       c.OrderID,
				Status:        c.Status,
				Position:      c.Position,
				Capacity:      c.Capacity,
				Load:          slices.Clone(c.Load),
				Delivered:     slices.Clone(c.Delivered),
				CurrentNode:   c.CurrentNodeID(),
				RemainingPath: c.RemainingPath(),
			})
		}
	}

	return snap
}
