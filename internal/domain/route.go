package domain

import "fmt"

// PickUp is the instruction carried by a waypoint.
// The zero value means "just pass through".
type PickUp struct {
	ShelfID  int
	Goods    string
	Quantity int
	Dispense bool
}

func (p PickUp) IsNone() bool { return !p.Dispense && p.Quantity == 0 }

func (p PickUp) String() string {
	switch {
	case p.Dispense:
		return "dispense"
	case p.IsNone():
		return "-"
	default:
		return fmt.Sprintf("pick %dx %q from shelf %d", p.Quantity, p.Goods, p.ShelfID)
	}
}

// Represents one stop of a cart path.
type Waypoint struct {
	NodeID int
	PickUp PickUp
}

// Path is the ordered sequence of waypoints a cart follows.
type Path []Waypoint

// NodeIDs returns the node sequence of the path.
func (p Path) NodeIDs() []int {
	out := make([]int, 0, len(p))
	for _, w := range p {
		out = append(out, w.NodeID)
	}
	return out
}

// PickUps returns every waypoint carrying a pick-up or dispense instruction.
func (p Path) PickUps() []Waypoint {
	var out []Waypoint
	for _, w := range p {
		if !w.PickUp.IsNone() {
			out = append(out, w)
		}
	}
	return out
}

// Merge collapses adjacent waypoints on the same non-depot node.
//
// An empty instruction folds into its neighbour and two pick-ups from the
// same shelf are summed. Pick-ups from different shelves stay separate
// waypoints. The first waypoint never absorbs anything because a cart
// starts on it and never executes its instruction.
func (p Path) Merge() Path {
	if len(p) == 0 {
		return p
	}
	out := make(Path, 0, len(p))
	out = append(out, p[0])
	for _, w := range p[1:] {
		last := &out[len(out)-1]
		if len(out) > 1 && w.NodeID == last.NodeID && w.NodeID != DepotID {
			if merged, ok := mergePickUps(last.PickUp, w.PickUp); ok {
				last.PickUp = merged
				continue
			}
		}
		if len(out) == 1 && w.NodeID == last.NodeID && w.NodeID != DepotID && w.PickUp.IsNone() {
			continue
		}
		out = append(out, w)
	}
	return out
}

func mergePickUps(a, b PickUp) (PickUp, bool) {
	switch {
	case b.IsNone():
		return a, true
	case a.IsNone():
		return b, true
	case a.Dispense || b.Dispense:
		return PickUp{}, false
	case a.ShelfID == b.ShelfID && a.Goods == b.Goods:
		a.Quantity += b.Quantity
		return a, true
	}
	return PickUp{}, false
}
