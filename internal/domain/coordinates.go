package domain

import "math"

// Immutable planar coordinates of a node in warehouse units.
type Coordinates struct {
	X int
	Y int
}

// Distance returns the Euclidean distance to o truncated to an integer.
// Planning and cart movement both measure edges with this function so their
// segment lengths never disagree.
func (c Coordinates) Distance(o Coordinates) int {
	return int(math.Hypot(float64(o.X-c.X), float64(o.Y-c.Y)))
}

// Position is a continuous point used for cart rendering.
type Position struct {
	X float64
	Y float64
}

// Interpolate returns the point at fraction f of the way from c to o.
func (c Coordinates) Interpolate(o Coordinates, f float64) Position {
	return Position{
		X: float64(c.X) + float64(o.X-c.X)*f,
		Y: float64(c.Y) + float64(o.Y-c.Y)*f,
	}
}

func (c Coordinates) Position() Position { return Position{X: float64(c.X), Y: float64(c.Y)} }
