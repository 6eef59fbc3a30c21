package domain

import "slices"

// DepotID is the fixed start, end and dispense point of every cart path.
const DepotID = 0

// Represents a graph vertex carts travel through.
// The neighbour set is symmetric across the topology and only changes when
// an edge is opened or closed.
type Node struct {
	ID         int
	Coords     Coordinates
	neighbours map[int]struct{}
}

func NewNode(id int, x, y int) *Node {
	return &Node{
		ID:         id,
		Coords:     Coordinates{X: x, Y: y},
		neighbours: make(map[int]struct{}),
	}
}

// Neighbours returns the currently reachable neighbour IDs in ascending order.
func (n *Node) Neighbours() []int {
	out := make([]int, 0, len(n.neighbours))
	for id := range n.neighbours {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

func (n *Node) HasNeighbour(id int) bool {
	_, ok := n.neighbours[id]
	return ok
}

func (n *Node) addNeighbour(id int) bool {
	if _, ok := n.neighbours[id]; ok {
		return false
	}
	n.neighbours[id] = struct{}{}
	return true
}

func (n *Node) removeNeighbour(id int) bool {
	if _, ok := n.neighbours[id]; !ok {
		return false
	}
	delete(n.neighbours, id)
	return true
}
