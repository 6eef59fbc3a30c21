package domain

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

var (
	ErrUnknownNode  = errors.New("unknown node")
	ErrUnknownShelf = errors.New("unknown shelf")
	ErrUnknownEdge  = errors.New("unknown edge")
	ErrNoDepot      = errors.New("depot node 0 is missing")
)

type edgeKey struct{ a, b int }

func newEdgeKey(a, b int) edgeKey {
	if a > b {
		a, b = b, a
	}
	return edgeKey{a: a, b: b}
}

type stockSnapshot struct {
	goods    string
	quantity int
}

// Topology is the warehouse graph together with its shelves.
//
// Every edge given at load time is remembered so that a closed edge can be
// reopened later. Closing and opening only change node adjacency; callers
// must rebuild any distance index afterwards.
type Topology struct {
	nodes   map[int]*Node
	shelves map[int]*Shelf
	edges   map[edgeKey]bool
	initial map[int]stockSnapshot
}

func NewTopology() *Topology {
	return &Topology{
		nodes:   make(map[int]*Node),
		shelves: make(map[int]*Shelf),
		edges:   make(map[edgeKey]bool),
		initial: make(map[int]stockSnapshot),
	}
}

// LoadTopology builds a topology from ingestion records and validates that
// the depot exists and every edge and shelf refers to a known node.
func LoadTopology(nodes []NodeSpec, edges []EdgeSpec, shelves []ShelfSpec) (*Topology, error) {
	t := NewTopology()
	for _, n := range nodes {
		if err := t.AddNode(n.ID, n.X, n.Y); err != nil {
			return nil, fmt.Errorf("load topology: %w", err)
		}
	}
	if t.Node(DepotID) == nil {
		return nil, fmt.Errorf("load topology: %w", ErrNoDepot)
	}
	for _, e := range edges {
		if err := t.Connect(e.NodeA, e.NodeB); err != nil {
			return nil, fmt.Errorf("load topology: %w", err)
		}
	}
	for _, s := range shelves {
		if err := t.AddShelf(s.ShelfID, s.NodeID); err != nil {
			return nil, fmt.Errorf("load topology: %w", err)
		}
	}
	return t, nil
}

func (t *Topology) AddNode(id, x, y int) error {
	if id < 0 {
		return fmt.Errorf("add node %d: id must be non-negative", id)
	}
	if _, ok := t.nodes[id]; ok {
		return fmt.Errorf("add node %d: duplicate id", id)
	}
	t.nodes[id] = NewNode(id, x, y)
	return nil
}

// Connect registers an undirected edge and opens it.
func (t *Topology) Connect(a, b int) error {
	na, nb := t.nodes[a], t.nodes[b]
	if na == nil || nb == nil {
		return fmt.Errorf("connect %d-%d: %w", a, b, ErrUnknownNode)
	}
	if a == b {
		return fmt.Errorf("connect %d-%d: self loop", a, b)
	}
	t.edges[newEdgeKey(a, b)] = true
	na.addNeighbour(b)
	nb.addNeighbour(a)
	return nil
}

// CloseEdge removes the edge from both adjacency sets.
func (t *Topology) CloseEdge(a, b int) error {
	k := newEdgeKey(a, b)
	if _, ok := t.edges[k]; !ok {
		return fmt.Errorf("close edge %d-%d: %w", a, b, ErrUnknownEdge)
	}
	t.edges[k] = false
	t.nodes[a].removeNeighbour(b)
	t.nodes[b].removeNeighbour(a)
	return nil
}

// OpenEdge restores a previously loaded edge.
func (t *Topology) OpenEdge(a, b int) error {
	k := newEdgeKey(a, b)
	if _, ok := t.edges[k]; !ok {
		return fmt.Errorf("open edge %d-%d: %w", a, b, ErrUnknownEdge)
	}
	t.edges[k] = true
	t.nodes[a].addNeighbour(b)
	t.nodes[b].addNeighbour(a)
	return nil
}

// IsOpen reports whether a and b are currently adjacent.
func (t *Topology) IsOpen(a, b int) bool {
	n := t.nodes[a]
	return n != nil && n.HasNeighbour(b)
}

// Edges returns every loaded edge with its open state, ordered by endpoints.
func (t *Topology) Edges() []Edge {
	out := make([]Edge, 0, len(t.edges))
	for k, open := range t.edges {
		out = append(out, Edge{NodeA: k.a, NodeB: k.b, Open: open})
	}
	slices.SortFunc(out, func(x, y Edge) int {
		if x.NodeA != y.NodeA {
			return x.NodeA - y.NodeA
		}
		return x.NodeB - y.NodeB
	})
	return out
}

func (t *Topology) Node(id int) *Node { return t.nodes[id] }

// NodeIDs returns all node IDs in ascending order.
func (t *Topology) NodeIDs() []int {
	return slices.Sorted(maps.Keys(t.nodes))
}

// Distance is the edge weight between two nodes, whether or not they are adjacent.
func (t *Topology) Distance(a, b int) int {
	na, nb := t.nodes[a], t.nodes[b]
	if na == nil || nb == nil {
		return 0
	}
	return na.Coords.Distance(nb.Coords)
}

func (t *Topology) AddShelf(id, nodeID int) error {
	if _, ok := t.nodes[nodeID]; !ok {
		return fmt.Errorf("add shelf %d: node %d: %w", id, nodeID, ErrUnknownNode)
	}
	if _, ok := t.shelves[id]; ok {
		return fmt.Errorf("add shelf %d: duplicate id", id)
	}
	t.shelves[id] = &Shelf{ShelfID: id, NodeID: nodeID}
	return nil
}

// LoadStock overwrites the goods held by a shelf and records it as the
// snapshot ResetStock returns to.
func (t *Topology) LoadStock(shelfID int, goods string, quantity int) error {
	s, ok := t.shelves[shelfID]
	if !ok {
		return fmt.Errorf("load stock: shelf %d: %w", shelfID, ErrUnknownShelf)
	}
	if quantity < 0 {
		return fmt.Errorf("load stock: shelf %d: negative quantity %d", shelfID, quantity)
	}
	s.Goods = goods
	s.Quantity = quantity
	t.initial[shelfID] = stockSnapshot{goods: goods, quantity: quantity}
	return nil
}

// ResetStock restores every shelf to the stock it was loaded with.
func (t *Topology) ResetStock() {
	for id, s := range t.shelves {
		snap := t.initial[id]
		s.Goods = snap.goods
		s.Quantity = snap.quantity
	}
}

func (t *Topology) Shelf(id int) *Shelf { return t.shelves[id] }

// Shelves returns all shelves ordered by shelf ID.
func (t *Topology) Shelves() []*Shelf {
	ids := slices.Sorted(maps.Keys(t.shelves))
	out := make([]*Shelf, 0, len(ids))
	for _, id := range ids {
		out = append(out, t.shelves[id])
	}
	return out
}
