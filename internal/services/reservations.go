package services

import "maps"

// Reservations is the per-shelf ledger of goods committed to planned paths
// but not yet taken off the shelf.
//
// Each OrderPlanner owns its own ledger. The ledger is not safe for
// concurrent use; the simulation serialises all access.
type Reservations struct {
	reserved map[int]int
}

func NewReservations() *Reservations {
	return &Reservations{reserved: make(map[int]int)}
}

func (r *Reservations) Reserved(shelfID int) int { return r.reserved[shelfID] }

func (r *Reservations) Reserve(shelfID, qty int) {
	if qty <= 0 {
		return
	}
	r.reserved[shelfID] += qty
}

// Release gives back up to qty reserved units and returns how many were released.
func (r *Reservations) Release(shelfID, qty int) int {
	cur := r.reserved[shelfID]
	if qty > cur {
		qty = cur
	}
	if qty <= 0 {
		return 0
	}
	if cur == qty {
		delete(r.reserved, shelfID)
	} else {
		r.reserved[shelfID] = cur - qty
	}
	return qty
}

// Total is the sum of all outstanding reservations.
func (r *Reservations) Total() int {
	total := 0
	for _, q := range r.reserved {
		total += q
	}
	return total
}

func (r *Reservations) Snapshot() map[int]int { return maps.Clone(r.reserved) }

func (r *Reservations) Reset() { clear(r.reserved) }
