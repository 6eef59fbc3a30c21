package services

import (
	"testing"

	"warehouse-route-service/internal/domain"
)

// cycleLayout is the five-node loop 0-1-2-3-4-0 with a single shelf (ID 1)
// on node 2. Edge lengths: 0-1 50, 1-2 50, 2-3 80, 3-4 60, 4-0 80.
func cycleLayout(goods string, quantity int) *domain.Layout {
	return &domain.Layout{
		Nodes: []domain.NodeSpec{
			{ID: 0, X: 0, Y: 0},
			{ID: 1, X: 30, Y: 40},
			{ID: 2, X: 60, Y: 0},
			{ID: 3, X: 60, Y: -80},
			{ID: 4, X: 0, Y: -80},
		},
		Edges: []domain.EdgeSpec{
			{NodeA: 0, NodeB: 1},
			{NodeA: 1, NodeB: 2},
			{NodeA: 2, NodeB: 3},
			{NodeA: 3, NodeB: 4},
			{NodeA: 4, NodeB: 0},
		},
		Shelves: []domain.ShelfSpec{{ShelfID: 1, NodeID: 2}},
		Stock:   []domain.StockSpec{{ShelfID: 1, Goods: goods, Quantity: quantity}},
	}
}

func loadLayout(t *testing.T, l *domain.Layout) *domain.Topology {
	t.Helper()

	topo, err := domain.LoadTopology(l.Nodes, l.Edges, l.Shelves)
	if err != nil {
		t.Fatalf("load topology: %v", err)
	}
	for _, st := range l.Stock {
		if err := topo.LoadStock(st.ShelfID, st.Goods, st.Quantity); err != nil {
			t.Fatalf("load stock: %v", err)
		}
	}
	return topo
}

func newCyclePlanner(t *testing.T, goods string, quantity int) (*domain.Topology, *ShortestPathIndex, *OrderPlanner) {
	t.Helper()

	topo := loadLayout(t, cycleLayout(goods, quantity))
	idx := NewShortestPathIndex(topo)
	return topo, idx, NewOrderPlanner(topo, idx)
}

func pick(shelf int, goods string, qty int) domain.PickUp {
	return domain.PickUp{ShelfID: shelf, Goods: goods, Quantity: qty}
}

func checkReservations(t *testing.T, topo *domain.Topology, ledger *Reservations) {
	t.Helper()

	for _, s := range topo.Shelves() {
		if r := ledger.Reserved(s.ShelfID); r > s.Quantity {
			t.Fatalf("shelf %d reserved %d exceeds quantity %d", s.ShelfID, r, s.Quantity)
		}
	}
}
