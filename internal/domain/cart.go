package domain

import (
	"slices"
	"time"
)

// Cart aggregate carrying goods for exactly one order along a planned path.
type Cart struct {
	OrderID   int
	Capacity  int
	Load      []LineItem
	LoadTotal int
	Delivered []LineItem

	Path       Path
	Traveled   float64
	LastIndex  int
	DwellUntil time.Time
	LastTick   time.Time
	Position   Position
	Status     CartStatus
}

func NewCart(orderID int, capacity int, at Coordinates) *Cart {
	return &Cart{
		OrderID:  orderID,
		Capacity: capacity,
		Position: at.Position(),
		Status:   CartIdle,
	}
}

// FreeCapacity is the number of units that still fit.
func (c *Cart) FreeCapacity() int { return c.Capacity - c.LoadTotal }

// Take puts up to qty units of goods aboard and returns how many fit.
func (c *Cart) Take(goods string, qty int) int {
	if qty > c.FreeCapacity() {
		qty = c.FreeCapacity()
	}
	if qty <= 0 {
		return 0
	}
	c.LoadTotal += qty
	c.Load = addItem(c.Load, goods, qty)
	return qty
}

// Dispense hands the whole load over at the depot.
func (c *Cart) Dispense() []LineItem {
	unloaded := c.Load
	for _, li := range unloaded {
		c.Delivered = addItem(c.Delivered, li.Goods, li.Quantity)
	}
	c.Clear()
	return unloaded
}

// Clear drops the load without delivering it.
func (c *Cart) Clear() {
	c.Load = nil
	c.LoadTotal = 0
}

// AssignPath replaces the current path; the cart starts over at its first waypoint.
func (c *Cart) AssignPath(p Path) {
	c.Path = p
	c.Traveled = 0
	c.LastIndex = 0
	c.Status = CartIdle
}

// HasPath reports whether the cart has something to execute.
func (c *Cart) HasPath() bool { return len(c.Path) > 0 }

// CurrentNodeID is the last waypoint node the cart reached.
func (c *Cart) CurrentNodeID() int {
	if !c.HasPath() {
		return DepotID
	}
	return c.Path[c.LastIndex].NodeID
}

// RemainingPath returns a copy of the path from the last reached waypoint on.
func (c *Cart) RemainingPath() Path {
	if !c.HasPath() {
		return nil
	}
	return slices.Clone(c.Path[c.LastIndex:])
}

func addItem(items []LineItem, goods string, qty int) []LineItem {
	for i := range items {
		if items[i].Goods == goods {
			items[i].Quantity += qty
			return items
		}
	}
	return append(items, LineItem{Goods: goods, Quantity: qty})
}
