package domain

import "time"

// CartStatus is the kinematic state reported by each tick.
type CartStatus int

const (
	CartIdle CartStatus = iota
	CartMoving
	CartDwelling
	CartBlocked
	CartFinished
)

func (s CartStatus) String() string {
	switch s {
	case CartMoving:
		return "moving"
	case CartDwelling:
		return "dwelling"
	case CartBlocked:
		return "blocked"
	case CartFinished:
		return "finished"
	default:
		return "idle"
	}
}

type CartEventKind string

const (
	EventPickedUp  CartEventKind = "picked_up"
	EventDispensed CartEventKind = "dispensed"
	EventBlocked   CartEventKind = "blocked"
	EventFinished  CartEventKind = "finished"
)

// CartEvent notifies listeners about a side effect of cart movement.
// Quantity is the amount actually moved, Requested the planned amount.
type CartEvent struct {
	Kind      CartEventKind `json:"kind"`
	OrderID   int           `json:"order_id"`
	NodeID    int           `json:"node_id"`
	ShelfID   int           `json:"shelf_id,omitempty"`
	Goods     string        `json:"goods,omitempty"`
	Quantity  int           `json:"quantity,omitempty"`
	Requested int           `json:"requested,omitempty"`
	At        time.Time     `json:"at"`
}
