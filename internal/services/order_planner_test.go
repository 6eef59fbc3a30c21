package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"warehouse-route-service/internal/domain"
)

func TestOrderPlannerSingleShelf(t *testing.T) {
	topo, _, planner := newCyclePlanner(t, "bolt", 10)
	items := []domain.LineItem{{Goods: "bolt", Quantity: 10}}

	res, err := planner.Plan(context.Background(), items, domain.DepotID, 0, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := domain.Path{
		{NodeID: 0},
		{NodeID: 1},
		{NodeID: 2, PickUp: pick(1, "bolt", 10)},
		{NodeID: 1},
		{NodeID: 0},
	}
	if diff := cmp.Diff(want, res.Path); diff != "" {
		t.Fatalf("path mismatch (-want +got):\n%s", diff)
	}
	if len(res.Unsatisfied) != 0 {
		t.Fatalf("unsatisfied = %+v, want none", res.Unsatisfied)
	}
	if items[0].Quantity != 0 {
		t.Fatalf("remaining quantity = %d, want 0", items[0].Quantity)
	}
	if r := planner.Reservations().Reserved(1); r != 10 {
		t.Fatalf("reserved = %d, want 10", r)
	}
	checkReservations(t, topo, planner.Reservations())
}

func TestOrderPlannerPartialStock(t *testing.T) {
	topo, _, planner := newCyclePlanner(t, "bolt", 4)
	items := []domain.LineItem{{Goods: "bolt", Quantity: 10}}

	res, err := planner.Plan(context.Background(), items, domain.DepotID, 0, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	picks := res.Path.PickUps()
	if len(picks) != 1 || picks[0].PickUp.Quantity != 4 {
		t.Fatalf("pick-ups = %+v, want a single pick of 4", picks)
	}
	if diff := cmp.Diff([]domain.LineItem{{Goods: "bolt", Quantity: 6}}, res.Unsatisfied); diff != "" {
		t.Fatalf("unsatisfied mismatch (-want +got):\n%s", diff)
	}
	checkReservations(t, topo, planner.Reservations())
}

func TestOrderPlannerCapacitySplit(t *testing.T) {
	topo, _, planner := newCyclePlanner(t, "bolt", 10)
	items := []domain.LineItem{{Goods: "bolt", Quantity: 8}}

	res, err := planner.Plan(context.Background(), items, domain.DepotID, 0, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := domain.Path{
		{NodeID: 0},
		{NodeID: 1},
		{NodeID: 2, PickUp: pick(1, "bolt", 5)},
		{NodeID: 1},
		{NodeID: 0, PickUp: domain.PickUp{Dispense: true}},
		{NodeID: 1},
		{NodeID: 2, PickUp: pick(1, "bolt", 3)},
		{NodeID: 1},
		{NodeID: 0},
	}
	if diff := cmp.Diff(want, res.Path); diff != "" {
		t.Fatalf("path mismatch (-want +got):\n%s", diff)
	}
	if r := planner.Reservations().Reserved(1); r != 8 {
		t.Fatalf("reserved = %d, want 8", r)
	}
	checkReservations(t, topo, planner.Reservations())
}

func TestOrderPlannerStockClampedBeforeCapacity(t *testing.T) {
	_, _, planner := newCyclePlanner(t, "bolt", 6)
	items := []domain.LineItem{{Goods: "bolt", Quantity: 12}}

	res, err := planner.Plan(context.Background(), items, domain.DepotID, 0, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got []int
	for _, w := range res.Path.PickUps() {
		if w.PickUp.Dispense {
			got = append(got, -1)
			continue
		}
		got = append(got, w.PickUp.Quantity)
	}
	if diff := cmp.Diff([]int{4, -1, 2}, got); diff != "" {
		t.Fatalf("pick-up sequence mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]domain.LineItem{{Goods: "bolt", Quantity: 6}}, res.Unsatisfied); diff != "" {
		t.Fatalf("unsatisfied mismatch (-want +got):\n%s", diff)
	}
}

func TestOrderPlannerSharedShelfNeverDoubleAllocates(t *testing.T) {
	topo, _, planner := newCyclePlanner(t, "bolt", 12)

	first := []domain.LineItem{{Goods: "bolt", Quantity: 10}}
	second := []domain.LineItem{{Goods: "bolt", Quantity: 10}}

	if _, err := planner.Plan(context.Background(), first, domain.DepotID, 0, 20); err != nil {
		t.Fatalf("plan first: %v", err)
	}
	res, err := planner.Plan(context.Background(), second, domain.DepotID, 0, 20)
	if err != nil {
		t.Fatalf("plan second: %v", err)
	}

	picks := res.Path.PickUps()
	if len(picks) != 1 || picks[0].PickUp.Quantity != 2 {
		t.Fatalf("second order pick-ups = %+v, want a single pick of 2", picks)
	}
	if second[0].Quantity != 8 {
		t.Fatalf("second order remaining = %d, want 8", second[0].Quantity)
	}
	if r := planner.Reservations().Reserved(1); r != 12 {
		t.Fatalf("reserved = %d, want 12", r)
	}
	checkReservations(t, topo, planner.Reservations())

	// A third order finds nothing left and goes straight back.
	third := []domain.LineItem{{Goods: "bolt", Quantity: 1}}
	res, err = planner.Plan(context.Background(), third, domain.DepotID, 0, 20)
	if err != nil {
		t.Fatalf("plan third: %v", err)
	}
	if diff := cmp.Diff([]int{0, 0}, res.Path.NodeIDs()); diff != "" {
		t.Fatalf("third path mismatch (-want +got):\n%s", diff)
	}
}

func TestOrderPlannerUnknownGoodsIsWarning(t *testing.T) {
	_, _, planner := newCyclePlanner(t, "bolt", 10)
	items := []domain.LineItem{
		{Goods: "widget", Quantity: 3},
		{Goods: "bolt", Quantity: 2},
	}

	res, err := planner.Plan(context.Background(), items, domain.DepotID, 0, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]domain.LineItem{{Goods: "widget", Quantity: 3}}, res.Unsatisfied); diff != "" {
		t.Fatalf("unsatisfied mismatch (-want +got):\n%s", diff)
	}
	if picks := res.Path.PickUps(); len(picks) != 1 || picks[0].PickUp.Goods != "bolt" {
		t.Fatalf("pick-ups = %+v, want one bolt pick", picks)
	}
}

func TestOrderPlannerTieBreaksOnShelfID(t *testing.T) {
	l := &domain.Layout{
		Nodes: []domain.NodeSpec{{ID: 0}, {ID: 1, X: 10}, {ID: 2, X: -10}},
		Edges: []domain.EdgeSpec{{NodeA: 0, NodeB: 1}, {NodeA: 0, NodeB: 2}},
		Shelves: []domain.ShelfSpec{
			{ShelfID: 5, NodeID: 1},
			{ShelfID: 3, NodeID: 2},
		},
		Stock: []domain.StockSpec{
			{ShelfID: 5, Goods: "nut", Quantity: 5},
			{ShelfID: 3, Goods: "nut", Quantity: 5},
		},
	}
	topo := loadLayout(t, l)
	planner := NewOrderPlanner(topo, NewShortestPathIndex(topo))

	res, err := planner.Plan(context.Background(), []domain.LineItem{{Goods: "nut", Quantity: 3}}, domain.DepotID, 0, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	picks := res.Path.PickUps()
	if len(picks) != 1 || picks[0].PickUp.ShelfID != 3 {
		t.Fatalf("pick-ups = %+v, want shelf 3", picks)
	}
}

func TestOrderPlannerStartCannotReachDepot(t *testing.T) {
	topo, idx, planner := newCyclePlanner(t, "bolt", 10)
	for _, e := range [][2]int{{0, 1}, {1, 2}} {
		if err := topo.CloseEdge(e[0], e[1]); err != nil {
			t.Fatalf("close edge: %v", err)
		}
	}
	idx.Rebuild(topo)

	items := []domain.LineItem{{Goods: "bolt", Quantity: 10}}
	_, err := planner.Plan(context.Background(), items, 1, 0, 20)

	var pf *PlanningFailure
	if !errors.As(err, &pf) {
		t.Fatalf("err = %v, want PlanningFailure", err)
	}
	if pf.From != 1 || pf.To != domain.DepotID {
		t.Fatalf("failure pair = %d -> %d, want 1 -> 0", pf.From, pf.To)
	}
	if !errors.Is(err, ErrNoPath) {
		t.Fatalf("err = %v, want wrapped ErrNoPath", err)
	}
	if items[0].Quantity != 10 {
		t.Fatalf("items mutated on failure: %+v", items)
	}
	if total := planner.Reservations().Total(); total != 0 {
		t.Fatalf("reservations = %d after failure, want 0", total)
	}
}

func TestOrderPlannerReplanAroundClosedEdge(t *testing.T) {
	topo, idx, planner := newCyclePlanner(t, "bolt", 10)

	res, err := planner.Plan(context.Background(), []domain.LineItem{{Goods: "bolt", Quantity: 10}}, domain.DepotID, 0, 20)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	baseline := planner.Reservations().Total()

	if err := topo.CloseEdge(1, 2); err != nil {
		t.Fatalf("close edge: %v", err)
	}
	idx.Rebuild(topo)

	// The cart has reached node 1.
	suffix := res.Path[1:]
	replanned, err := planner.Replan(context.Background(), suffix, 0, 20)
	if err != nil {
		t.Fatalf("replan: %v", err)
	}

	want := domain.Path{
		{NodeID: 1},
		{NodeID: 0},
		{NodeID: 4},
		{NodeID: 3},
		{NodeID: 2, PickUp: pick(1, "bolt", 10)},
		{NodeID: 3},
		{NodeID: 4},
		{NodeID: 0},
	}
	if diff := cmp.Diff(want, replanned.Path); diff != "" {
		t.Fatalf("replanned path mismatch (-want +got):\n%s", diff)
	}
	if total := planner.Reservations().Total(); total != baseline {
		t.Fatalf("reservations = %d after replan, want baseline %d", total, baseline)
	}
	checkReservations(t, topo, planner.Reservations())
}

func TestOrderPlannerReplanFailureKeepsReservations(t *testing.T) {
	topo, idx, planner := newCyclePlanner(t, "bolt", 10)

	res, err := planner.Plan(context.Background(), []domain.LineItem{{Goods: "bolt", Quantity: 10}}, domain.DepotID, 0, 20)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}

	for _, e := range [][2]int{{0, 1}, {1, 2}} {
		if err := topo.CloseEdge(e[0], e[1]); err != nil {
			t.Fatalf("close edge: %v", err)
		}
	}
	idx.Rebuild(topo)

	_, err = planner.Replan(context.Background(), res.Path[1:], 0, 20)
	var pf *PlanningFailure
	if !errors.As(err, &pf) {
		t.Fatalf("err = %v, want PlanningFailure", err)
	}
	if r := planner.Reservations().Reserved(1); r != 10 {
		t.Fatalf("reserved = %d after failed replan, want 10", r)
	}
}

func TestOrderPlannerReplanAfterPickUpOnlyReturns(t *testing.T) {
	_, _, planner := newCyclePlanner(t, "bolt", 10)

	res, err := planner.Plan(context.Background(), []domain.LineItem{{Goods: "bolt", Quantity: 10}}, domain.DepotID, 0, 20)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	// Pick-up at node 2 executed and consumed its reservation.
	planner.Reservations().Release(1, 10)

	replanned, err := planner.Replan(context.Background(), res.Path[2:], 10, 20)
	if err != nil {
		t.Fatalf("replan: %v", err)
	}
	if diff := cmp.Diff([]int{2, 1, 0}, replanned.Path.NodeIDs()); diff != "" {
		t.Fatalf("replanned path mismatch (-want +got):\n%s", diff)
	}
	if n := len(replanned.Path.PickUps()); n != 0 {
		t.Fatalf("replanned pick-ups = %d, want 0", n)
	}
}
