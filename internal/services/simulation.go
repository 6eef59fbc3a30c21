package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"warehouse-route-service/internal/domain"
	"warehouse-route-service/internal/platform/obs"
)

const (
	DefaultCartCapacity = 20
	DefaultTickInterval = 20 * time.Millisecond
)

type Options struct {
	Capacity     int
	Speed        float64
	LoadDuration time.Duration
	Start        time.Time
	TickInterval time.Duration
	// TimeScale is simulated time per wall-clock time in Run.
	TimeScale float64
}

func DefaultOptions() Options {
	return Options{
		Capacity:     DefaultCartCapacity,
		Speed:        DefaultCartSpeed,
		LoadDuration: DefaultLoadDuration,
		TickInterval: DefaultTickInterval,
		TimeScale:    1,
	}
}

// Simulation ties the topology, index, planner and engine together and
// advances every active order's cart one tick at a time.
//
// The core types it drives hold no locks. Simulation serialises ticks and
// external mutations (orders, edge changes, resets) through a single mutex,
// so at most one of them runs at any moment.
type Simulation struct {
	mu sync.Mutex

	opts    Options
	topo    *domain.Topology
	index   *ShortestPathIndex
	planner *OrderPlanner
	engine  *CartEngine
	metrics *obs.SimulationCollector

	orders     map[int]*domain.Order
	nextID     int
	now        time.Time
	generation int
	resetAt    time.Time
	// failedAt remembers the index generation an order last failed to plan
	// against, so blocked carts only retry after the topology changes.
	failedAt map[int]int

	onFulfilled []func(domain.Order)
}

func NewSimulation(layout *domain.Layout, opts Options) (*Simulation, error) {
	if layout == nil {
		return nil, errors.New("new simulation: layout is nil")
	}
	def := DefaultOptions()
	if opts.Capacity <= 0 {
		opts.Capacity = def.Capacity
	}
	if opts.Speed <= 0 {
		opts.Speed = def.Speed
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = def.TickInterval
	}
	if opts.TimeScale <= 0 {
		opts.TimeScale = def.TimeScale
	}

	topo, err := domain.LoadTopology(layout.Nodes, layout.Edges, layout.Shelves)
	if err != nil {
		return nil, fmt.Errorf("new simulation: %w", err)
	}
	for _, st := range layout.Stock {
		if err := topo.LoadStock(st.ShelfID, st.Goods, st.Quantity); err != nil {
			return nil, fmt.Errorf("new simulation: %w", err)
		}
	}
	for _, e := range layout.ClosedEdges {
		if err := topo.CloseEdge(e.NodeA, e.NodeB); err != nil {
			return nil, fmt.Errorf("new simulation: %w", err)
		}
	}

	index := NewShortestPathIndex(topo)
	planner := NewOrderPlanner(topo, index)

	return &Simulation{
		opts:     opts,
		topo:     topo,
		index:    index,
		planner:  planner,
		engine:   NewCartEngine(topo, planner.Reservations(), opts.Speed, opts.LoadDuration),
		orders:   make(map[int]*domain.Order),
		nextID:   1,
		now:      opts.Start,
		failedAt: make(map[int]int),
	}, nil
}

// SetMetrics attaches a collector; picked units are counted from cart events.
func (s *Simulation) SetMetrics(c *obs.SimulationCollector) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics = c
	s.engine.Subscribe(func(ev domain.CartEvent) {
		if ev.Kind == domain.EventPickedUp {
			c.AddPickedUnits(ev.Quantity)
		}
	})
}

// Subscribe registers a cart event listener. Listeners run inside the tick.
func (s *Simulation) Subscribe(fn func(domain.CartEvent)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.Subscribe(fn)
}

// OnFulfilled registers a callback receiving a copy of each order as it completes.
func (s *Simulation) OnFulfilled(fn func(domain.Order)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onFulfilled = append(s.onFulfilled, fn)
}

func (s *Simulation) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

func (s *Simulation) Options() Options { return s.opts }

// SubmitOrder registers an order that becomes active at startAt.
func (s *Simulation) SubmitOrder(startAt time.Time, items []domain.LineItem) (int, error) {
	return s.submit(items, func(time.Time) time.Time { return startAt })
}

// SubmitAfter registers an order starting offset after the simulation start.
func (s *Simulation) SubmitAfter(offset time.Duration, items []domain.LineItem) (int, error) {
	return s.SubmitOrder(s.opts.Start.Add(offset), items)
}

// SubmitIn registers an order starting delay after the current simulated time.
// The clock is read under the same lock that stores the order.
func (s *Simulation) SubmitIn(delay time.Duration, items []domain.LineItem) (int, error) {
	return s.submit(items, func(now time.Time) time.Time { return now.Add(delay) })
}

// submit validates items and stores the order; startAt receives the
// simulated clock while the lock is held.
func (s *Simulation) submit(items []domain.LineItem, startAt func(now time.Time) time.Time) (int, error) {
	if len(items) == 0 {
		return 0, errors.New("submit order: at least one line item is required")
	}
	for i, li := range items {
		if strings.TrimSpace(li.Goods) == "" {
			return 0, fmt.Errorf("submit order: item %d: goods name must be non-empty", i+1)
		}
		if li.Quantity <= 0 {
			return 0, fmt.Errorf("submit order: item %d: quantity must be positive, got %d", i+1, li.Quantity)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.orders[id] = domain.NewOrder(id, startAt(s.now), items)
	return id, nil
}

// Advance moves simulated time forward by d and runs one tick.
func (s *Simulation) Advance(ctx context.Context, d time.Duration) map[int]domain.CartStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step(ctx, s.now.Add(d))
}

// Step runs one tick at the given simulated time.
func (s *Simulation) Step(ctx context.Context, now time.Time) map[int]domain.CartStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step(ctx, now)
}

func (s *Simulation) step(ctx context.Context, now time.Time) map[int]domain.CartStatus {
	started := time.Now()
	defer func() { s.metrics.ObserveTick(time.Since(started)) }()

	if now.After(s.now) {
		s.now = now
	}

	statuses := make(map[int]domain.CartStatus)
	active, pending := 0, 0

	for _, id := range slices.Sorted(maps.Keys(s.orders)) {
		o := s.orders[id]
		switch o.State(s.now) {
		case domain.OrderPending:
			pending++
			continue
		case domain.OrderFulfilled:
			continue
		}

		if o.Cart == nil {
			s.activate(ctx, o)
		}

		prev := o.Cart.Status
		st := s.engine.Tick(o.Cart, s.now)
		switch st {
		case domain.CartBlocked:
			if prev != domain.CartBlocked {
				s.metrics.IncBlocked()
			}
			s.replan(ctx, o)
		case domain.CartFinished:
			s.fulfil(o)
		}
		if st != domain.CartFinished {
			active++
		}
		statuses[id] = st
	}

	s.metrics.SetOrderCounts(active, pending)
	s.metrics.SetReservedUnits(s.planner.Reservations().Total())
	return statuses
}

func (s *Simulation) activate(ctx context.Context, o *domain.Order) {
	depot := s.topo.Node(domain.DepotID)
	cart := domain.NewCart(o.OrderID, s.opts.Capacity, depot.Coords)
	// Movement is measured from the order's start, not from the first tick after it.
	cart.LastTick = o.StartAt
	if cart.LastTick.Before(s.resetAt) {
		cart.LastTick = s.resetAt
	}
	o.Cart = cart

	started := time.Now()
	res, err := s.planner.Plan(ctx, o.Remaining, domain.DepotID, 0, s.opts.Capacity)
	s.metrics.ObservePlan(time.Since(started))
	if err != nil {
		log.Printf("plan order failed: order=%d err=%v", o.OrderID, err)
		s.failedAt[o.OrderID] = s.generation
		return
	}

	cart.AssignPath(res.Path)
	s.recordWarnings(o, res.Unsatisfied)
	log.Printf("order planned: order=%d waypoints=%d length=%d", o.OrderID, len(res.Path), s.engine.PathLength(res.Path))
}

// replan gives a blocked cart a new path from the node it last reached.
// Orders that failed against the current index are not retried until it is rebuilt.
func (s *Simulation) replan(ctx context.Context, o *domain.Order) {
	if gen, ok := s.failedAt[o.OrderID]; ok && gen == s.generation {
		return
	}
	cart := o.Cart
	resumed := cart.HasPath()

	started := time.Now()
	var (
		res *PlanResult
		err error
	)
	if resumed {
		res, err = s.planner.Replan(ctx, cart.RemainingPath(), cart.LoadTotal, s.opts.Capacity)
	} else {
		res, err = s.planner.Plan(ctx, o.Remaining, cart.CurrentNodeID(), cart.LoadTotal, s.opts.Capacity)
	}
	s.metrics.ObservePlan(time.Since(started))

	if err != nil {
		s.metrics.IncReplans("failed")
		s.failedAt[o.OrderID] = s.generation
		log.Printf("replan failed: order=%d node=%d err=%v", o.OrderID, cart.CurrentNodeID(), err)
		return
	}
	s.metrics.IncReplans("ok")
	delete(s.failedAt, o.OrderID)

	cart.AssignPath(res.Path)
	cart.Position = s.topo.Node(res.Path[0].NodeID).Coords.Position()
	cart.LastTick = s.now
	cart.DwellUntil = time.Time{}
	if resumed {
		// Goods planned earlier that no longer fit anywhere go back on the order.
		for _, li := range res.Unsatisfied {
			o.Remaining = addLineItem(o.Remaining, li.Goods, li.Quantity)
		}
	}
	s.recordWarnings(o, res.Unsatisfied)
	log.Printf("order replanned: order=%d from=%d waypoints=%d", o.OrderID, res.Path[0].NodeID, len(res.Path))
}

// recordWarnings adds one line per shortfall; a replan that hits the same
// shortfall again leaves the list unchanged.
func (s *Simulation) recordWarnings(o *domain.Order, unsatisfied []domain.LineItem) {
	for _, li := range unsatisfied {
		w := fmt.Sprintf("unsatisfied: %d x %s", li.Quantity, li.Goods)
		if !slices.Contains(o.Warnings, w) {
			o.Warnings = append(o.Warnings, w)
		}
	}
}

func (s *Simulation) fulfil(o *domain.Order) {
	o.Fulfil(s.now)
	log.Printf("order fulfilled: order=%d delivered=%v unsatisfied=%v", o.OrderID, o.Cart.Delivered, o.Unsatisfied())
	for _, fn := range s.onFulfilled {
		fn(*o)
	}
}

// CloseEdge blocks a route and rebuilds the distance index.
func (s *Simulation) CloseEdge(a, b int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.topo.CloseEdge(a, b); err != nil {
		return err
	}
	s.rebuild()
	return nil
}

// OpenEdge reopens a route and rebuilds the distance index.
func (s *Simulation) OpenEdge(a, b int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.topo.OpenEdge(a, b); err != nil {
		return err
	}
	s.rebuild()
	return nil
}

// Rebuild recomputes the shortest-path index from the current adjacency.
func (s *Simulation) Rebuild() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rebuild()
}

func (s *Simulation) rebuild() {
	s.index.Rebuild(s.topo)
	s.generation++
	s.metrics.IncIndexRebuilds()
}

// ResetStock restores the initial stock, drops every reservation and cart,
// and returns all orders to their submitted state.
func (s *Simulation) ResetStock() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.topo.ResetStock()
	s.planner.Reservations().Reset()
	s.resetAt = s.now
	for _, o := range s.orders {
		o.Reset()
	}
	clear(s.failedAt)
}

// Done reports whether every submitted order has been fulfilled.
func (s *Simulation) Done() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.EndAt == nil {
			return false
		}
	}
	return true
}

// Run advances the simulation on a fixed wall-clock cadence until ctx is done.
func (s *Simulation) Run(ctx context.Context) error {
	step := time.Duration(float64(s.opts.TickInterval) * s.opts.TimeScale)

	ticker := time.NewTicker(s.opts.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.Advance(ctx, step)
		}
	}
}
