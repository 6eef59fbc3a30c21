package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"

	"warehouse-route-service/internal/domain"
	"warehouse-route-service/internal/platform/obs"
	"warehouse-route-service/internal/ports"
)

// PlanningFailure reports a pair of nodes that must be connected for a
// plan to exist but are not. The cart should stay put until the topology
// changes.
type PlanningFailure struct {
	From int
	To   int
}

func (e *PlanningFailure) Error() string {
	return fmt.Sprintf("planning failure: node %d cannot reach node %d", e.From, e.To)
}

func (e *PlanningFailure) Unwrap() error { return ErrNoPath }

// PlanResult is a planned path plus the line items that could not be assigned.
type PlanResult struct {
	Path        domain.Path
	Unsatisfied []domain.LineItem
}

// OrderPlanner turns requested goods into pick-up paths.
//
// Shelves are visited greedily, nearest first. Quantities are first clamped
// to the stock not yet reserved by other plans and then split by cart
// capacity, inserting a depot dispense stop whenever the cart is full and
// more goods remain to be picked.
type OrderPlanner struct {
	topo   *domain.Topology
	index  ports.PathIndex
	ledger *Reservations
}

func NewOrderPlanner(topo *domain.Topology, index ports.PathIndex) *OrderPlanner {
	return &OrderPlanner{
		topo:   topo,
		index:  index,
		ledger: NewReservations(),
	}
}

func (p *OrderPlanner) Reservations() *Reservations { return p.ledger }

// Available is the shelf stock not yet committed to any plan.
func (p *OrderPlanner) Available(s *domain.Shelf) int {
	avail := s.Quantity - p.ledger.Reserved(s.ShelfID)
	if avail < 0 {
		return 0
	}
	return avail
}

// Plan builds a path from start that picks the requested items and ends at
// the depot. Items are updated in place: each quantity drops by the amount
// assigned to shelves. cartLoad is what the cart already carries.
func (p *OrderPlanner) Plan(
	ctx context.Context,
	items []domain.LineItem,
	start int,
	cartLoad int,
	capacity int,
) (_ *PlanResult, err error) {
	defer obs.Time(ctx, "planner.Plan")(&err)

	if capacity <= 0 {
		return nil, fmt.Errorf("plan: capacity must be positive, got %d", capacity)
	}
	if p.topo.Node(start) == nil {
		return nil, fmt.Errorf("plan: start node %d: %w", start, domain.ErrUnknownNode)
	}
	if _, ok := p.index.Distance(start, domain.DepotID); !ok {
		return nil, &PlanningFailure{From: start, To: domain.DepotID}
	}

	before := slices.Clone(items)
	var reserved []domain.PickUp

	stops := p.sequenceStops(items, start, min(max(cartLoad, 0), capacity), capacity, &reserved)

	path, err := p.assemble(start, stops)
	if err != nil {
		for _, r := range reserved {
			p.ledger.Release(r.ShelfID, r.Quantity)
		}
		copy(items, before)
		return nil, fmt.Errorf("plan: %w", err)
	}

	res := &PlanResult{Path: path}
	for _, li := range items {
		if li.Quantity > 0 {
			res.Unsatisfied = append(res.Unsatisfied, li)
		}
	}
	for _, li := range res.Unsatisfied {
		log.Printf("plan warning: unsatisfied goods=%q quantity=%d start=%d", li.Goods, li.Quantity, start)
	}

	return res, nil
}

// sequenceStops performs the greedy nearest-shelf selection and the
// quantity assignment, returning the ordered pick-up and dispense stops.
func (p *OrderPlanner) sequenceStops(
	items []domain.LineItem,
	start int,
	load int,
	capacity int,
	reserved *[]domain.PickUp,
) []domain.Waypoint {
	wanted := func(goods string) bool {
		for _, li := range items {
			if li.Goods == goods && li.Quantity > 0 {
				return true
			}
		}
		return false
	}

	candidates := make([]*domain.Shelf, 0)
	for _, s := range p.topo.Shelves() {
		if s.Goods != "" && wanted(s.Goods) && p.Available(s) > 0 {
			candidates = append(candidates, s)
		}
	}

	stops := []domain.Waypoint{}
	current := start

	for len(candidates) > 0 {
		bestIdx := -1
		bestDist := Unreachable

		// Candidates are ordered by shelf ID, so a strict comparison keeps the
		// lowest ID on ties.
		for i, s := range candidates {
			if !wanted(s.Goods) {
				continue
			}
			d, ok := p.index.Distance(current, s.NodeID)
			if !ok {
				continue
			}
			if d < bestDist {
				bestDist = d
				bestIdx = i
			}
		}
		if bestIdx == -1 {
			// Everything left is unreachable from here.
			break
		}

		shelf := candidates[bestIdx]
		candidates = slices.Delete(candidates, bestIdx, bestIdx+1)

		for i := range items {
			li := &items[i]
			if li.Goods != shelf.Goods || li.Quantity <= 0 {
				continue
			}

			eligible := min(li.Quantity, p.Available(shelf))
			for eligible > 0 {
				if load >= capacity {
					stops = append(stops, domain.Waypoint{
						NodeID: domain.DepotID,
						PickUp: domain.PickUp{Dispense: true},
					})
					load = 0
				}

				take := min(eligible, capacity-load)
				pu := domain.PickUp{ShelfID: shelf.ShelfID, Goods: shelf.Goods, Quantity: take}
				stops = append(stops, domain.Waypoint{NodeID: shelf.NodeID, PickUp: pu})
				p.ledger.Reserve(shelf.ShelfID, take)
				*reserved = append(*reserved, pu)

				load += take
				li.Quantity -= take
				eligible -= take
			}
		}

		current = shelf.NodeID
	}

	return stops
}

// assemble stitches the stops together with reconstructed shortest paths and
// closes the route at the depot.
func (p *OrderPlanner) assemble(start int, stops []domain.Waypoint) (domain.Path, error) {
	path := domain.Path{{NodeID: start}}
	current := start

	for _, stop := range append(stops, domain.Waypoint{NodeID: domain.DepotID}) {
		seg, err := p.index.Path(current, stop.NodeID)
		if err != nil {
			if errors.Is(err, ErrNoPath) {
				return nil, &PlanningFailure{From: current, To: stop.NodeID}
			}
			return nil, err
		}
		path = append(path, seg...)
		path = append(path, stop)
		current = stop.NodeID
	}

	return path.Merge(), nil
}

// Replan re-plans the unexecuted part of a path.
//
// suffix[0] is the node the cart currently stands on; its instruction has
// already been carried out. The pick-ups in the rest of the suffix are summed
// per goods, their reservations released, and a fresh plan is computed from
// suffix[0]. If the cart cannot reach the depot nothing is released.
func (p *OrderPlanner) Replan(
	ctx context.Context,
	suffix domain.Path,
	cartLoad int,
	capacity int,
) (_ *PlanResult, err error) {
	defer obs.Time(ctx, "planner.Replan")(&err)

	if len(suffix) == 0 {
		return nil, errors.New("replan: remaining path must not be empty")
	}

	current := suffix[0].NodeID
	if _, ok := p.index.Distance(current, domain.DepotID); !ok {
		return nil, &PlanningFailure{From: current, To: domain.DepotID}
	}

	var pending []domain.LineItem
	var released []domain.PickUp
	for _, w := range suffix[1:] {
		pu := w.PickUp
		if pu.Dispense || pu.IsNone() {
			continue
		}
		pending = addLineItem(pending, pu.Goods, pu.Quantity)
		if n := p.ledger.Release(pu.ShelfID, pu.Quantity); n > 0 {
			released = append(released, domain.PickUp{ShelfID: pu.ShelfID, Quantity: n})
		}
	}

	res, err := p.Plan(ctx, pending, current, cartLoad, capacity)
	if err != nil {
		for _, r := range released {
			p.ledger.Reserve(r.ShelfID, r.Quantity)
		}
		return nil, fmt.Errorf("replan: %w", err)
	}

	return res, nil
}

func addLineItem(items []domain.LineItem, goods string, qty int) []domain.LineItem {
	for i := range items {
		if items[i].Goods == goods {
			items[i].Quantity += qty
			return items
		}
	}
	return append(items, domain.LineItem{Goods: goods, Quantity: qty})
}
