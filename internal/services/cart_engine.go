package services

import (
	"log"
	"time"

	"warehouse-route-service/internal/domain"
)

const (
	DefaultCartSpeed    = 50.0
	DefaultLoadDuration = 4 * time.Second
)

// CartEngine advances carts along their planned paths as simulated time
// passes and performs the pick-up and dispense side effects.
//
// The engine reads adjacency but never changes the topology. Side effects
// are limited to the shelf named by the waypoint being reached and to the
// reservation consumed by that pick-up.
type CartEngine struct {
	topo         *domain.Topology
	ledger       *Reservations
	speed        float64
	loadDuration time.Duration
	listeners    []func(domain.CartEvent)
}

func NewCartEngine(topo *domain.Topology, ledger *Reservations, speed float64, loadDuration time.Duration) *CartEngine {
	if speed <= 0 {
		speed = DefaultCartSpeed
	}
	if loadDuration < 0 {
		loadDuration = DefaultLoadDuration
	}
	return &CartEngine{
		topo:         topo,
		ledger:       ledger,
		speed:        speed,
		loadDuration: loadDuration,
	}
}

// Subscribe registers a listener called synchronously for every cart event.
func (e *CartEngine) Subscribe(fn func(domain.CartEvent)) {
	e.listeners = append(e.listeners, fn)
}

func (e *CartEngine) emit(ev domain.CartEvent) {
	for _, fn := range e.listeners {
		fn(ev)
	}
}

// Tick moves the cart to where it should be at now and reports its state.
func (e *CartEngine) Tick(c *domain.Cart, now time.Time) domain.CartStatus {
	status := e.tick(c, now)
	c.Status = status
	if now.After(c.LastTick) {
		c.LastTick = now
	}
	return status
}

func (e *CartEngine) tick(c *domain.Cart, now time.Time) domain.CartStatus {
	if !c.HasPath() {
		return domain.CartBlocked
	}
	if c.Status == domain.CartFinished {
		return domain.CartFinished
	}

	path := c.Path
	if c.LastIndex+1 >= len(path) || isEmptyAssignment(path[c.LastIndex], path[c.LastIndex+1]) {
		e.finish(c, now)
		return domain.CartFinished
	}

	if c.LastTick.IsZero() {
		return domain.CartMoving
	}
	if now.Before(c.DwellUntil) {
		return domain.CartDwelling
	}

	// Time spent dwelling never turns into distance.
	from := c.LastTick
	if from.Before(c.DwellUntil) {
		from = c.DwellUntil
	}
	elapsed := now.Sub(from).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}

	if !e.segmentOpen(path, c.LastIndex) {
		if c.Status != domain.CartBlocked {
			e.emit(domain.CartEvent{
				Kind:    domain.EventBlocked,
				OrderID: c.OrderID,
				NodeID:  path[c.LastIndex].NodeID,
				At:      now,
			})
		}
		return domain.CartBlocked
	}

	remaining := e.speed * elapsed
	segStart := e.prefixDistance(path, c.LastIndex)

	for {
		a := e.topo.Node(path[c.LastIndex].NodeID)
		b := e.topo.Node(path[c.LastIndex+1].NodeID)
		segLen := float64(a.Coords.Distance(b.Coords))
		segEnd := segStart + segLen

		if c.Traveled+remaining < segEnd {
			c.Traveled += remaining
			c.Position = a.Coords.Interpolate(b.Coords, (c.Traveled-segStart)/segLen)
			return domain.CartMoving
		}

		remaining -= segEnd - c.Traveled
		c.Traveled = segEnd
		segStart = segEnd
		c.LastIndex++
		c.Position = b.Coords.Position()

		if c.LastIndex == len(path)-1 {
			e.finish(c, now)
			return domain.CartFinished
		}

		wp := path[c.LastIndex]
		switch {
		case wp.PickUp.Dispense:
			e.dispense(c, wp, now)
		case !wp.PickUp.IsNone():
			e.pickUp(c, wp, now)
			c.DwellUntil = now.Add(e.loadDuration)
			return domain.CartDwelling
		}

		if !e.segmentOpen(path, c.LastIndex) {
			// Stop on the node; the next tick reports the blockage.
			return domain.CartMoving
		}
	}
}

// isEmptyAssignment matches the depot-to-depot path produced for an order
// with nothing left to pick.
func isEmptyAssignment(a, b domain.Waypoint) bool {
	return a.NodeID == domain.DepotID && b.NodeID == domain.DepotID &&
		a.PickUp.IsNone() && b.PickUp.IsNone()
}

func (e *CartEngine) segmentOpen(path domain.Path, i int) bool {
	a, b := path[i].NodeID, path[i+1].NodeID
	return a == b || e.topo.IsOpen(a, b)
}

// prefixDistance is the path length from the first waypoint to waypoint i.
func (e *CartEngine) prefixDistance(path domain.Path, i int) float64 {
	total := 0
	for k := 1; k <= i; k++ {
		total += e.topo.Distance(path[k-1].NodeID, path[k].NodeID)
	}
	return float64(total)
}

// PathLength is the total integer length of a path.
func (e *CartEngine) PathLength(path domain.Path) int {
	if len(path) == 0 {
		return 0
	}
	return int(e.prefixDistance(path, len(path)-1))
}

func (e *CartEngine) pickUp(c *domain.Cart, wp domain.Waypoint, now time.Time) {
	pu := wp.PickUp
	want := min(pu.Quantity, c.FreeCapacity())

	got := 0
	if shelf := e.topo.Shelf(pu.ShelfID); shelf != nil && shelf.Goods == pu.Goods {
		got = shelf.Take(want)
	}
	got = c.Take(pu.Goods, got)
	e.ledger.Release(pu.ShelfID, pu.Quantity)

	if got < pu.Quantity {
		log.Printf("pick-up shortfall: order=%d shelf=%d goods=%q planned=%d taken=%d",
			c.OrderID, pu.ShelfID, pu.Goods, pu.Quantity, got)
	}

	e.emit(domain.CartEvent{
		Kind:      domain.EventPickedUp,
		OrderID:   c.OrderID,
		NodeID:    wp.NodeID,
		ShelfID:   pu.ShelfID,
		Goods:     pu.Goods,
		Quantity:  got,
		Requested: pu.Quantity,
		At:        now,
	})
}

func (e *CartEngine) dispense(c *domain.Cart, wp domain.Waypoint, now time.Time) {
	total := c.LoadTotal
	c.Dispense()
	e.emit(domain.CartEvent{
		Kind:     domain.EventDispensed,
		OrderID:  c.OrderID,
		NodeID:   wp.NodeID,
		Quantity: total,
		At:       now,
	})
}

func (e *CartEngine) finish(c *domain.Cart, now time.Time) {
	total := c.LoadTotal
	c.Dispense()
	c.LastIndex = len(c.Path) - 1
	if n := e.topo.Node(c.Path[c.LastIndex].NodeID); n != nil {
		c.Position = n.Coords.Position()
	}
	e.emit(domain.CartEvent{
		Kind:     domain.EventFinished,
		OrderID:  c.OrderID,
		NodeID:   c.Path[c.LastIndex].NodeID,
		Quantity: total,
		At:       now,
	})
}
