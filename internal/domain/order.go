package domain

import (
	"errors"
	"math"
	"slices"
	"time"
)

var ErrBadStartOffset = errors.New("start offset must be a finite, non-negative number of seconds that fits in a duration")

// StartOffset converts an offset given in seconds into a duration. NaN,
// negative values and values that overflow time.Duration are rejected.
func StartOffset(seconds float64) (time.Duration, error) {
	if math.IsNaN(seconds) || seconds < 0 {
		return 0, ErrBadStartOffset
	}
	ns := seconds * float64(time.Second)
	// float64(math.MaxInt64) rounds up to 2^63, which no longer fits.
	if ns >= float64(math.MaxInt64) {
		return 0, ErrBadStartOffset
	}
	return time.Duration(ns), nil
}

// LineItem is one requested (goods, quantity) pair.
// The same goods name may appear in several line items of one order.
type LineItem struct {
	Goods    string
	Quantity int
}

type OrderState int

const (
	OrderPending OrderState = iota
	OrderActive
	OrderFulfilled
)

func (s OrderState) String() string {
	switch s {
	case OrderActive:
		return "active"
	case OrderFulfilled:
		return "fulfilled"
	default:
		return "pending"
	}
}

// Represents a goods order served by at most one cart.
// Remaining starts as a copy of Requested and is reduced by planning as
// quantities are assigned to shelves; whatever is left afterwards could not
// be satisfied.
type Order struct {
	OrderID   int
	StartAt   time.Time
	EndAt     *time.Time
	Requested []LineItem
	Remaining []LineItem
	Warnings  []string
	Cart      *Cart
}

func NewOrder(id int, startAt time.Time, items []LineItem) *Order {
	return &Order{
		OrderID:   id,
		StartAt:   startAt,
		Requested: slices.Clone(items),
		Remaining: slices.Clone(items),
	}
}

// IsActive reports whether the order has started and no end time is recorded.
func (o *Order) IsActive(now time.Time) bool {
	return !now.Before(o.StartAt) && o.EndAt == nil
}

func (o *Order) State(now time.Time) OrderState {
	switch {
	case o.EndAt != nil:
		return OrderFulfilled
	case o.IsActive(now):
		return OrderActive
	default:
		return OrderPending
	}
}

// Fulfil records the end time. The cart stays attached for inspection.
func (o *Order) Fulfil(at time.Time) {
	o.EndAt = &at
}

// Unsatisfied returns the line items planning could not fully assign.
func (o *Order) Unsatisfied() []LineItem {
	var out []LineItem
	for _, li := range o.Remaining {
		if li.Quantity > 0 {
			out = append(out, li)
		}
	}
	return out
}

// Reset returns the order to its submitted state and drops its cart.
func (o *Order) Reset() {
	o.EndAt = nil
	o.Remaining = slices.Clone(o.Requested)
	o.Warnings = nil
	o.Cart = nil
}
