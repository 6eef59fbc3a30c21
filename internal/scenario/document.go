package scenario

import (
	"errors"
	"fmt"
	"strings"

	"warehouse-route-service/internal/domain"
)

// Document is the on-disk description of a warehouse run: graph, shelves,
// initial stock and the orders to submit. The same shape is read from TOML
// scenario files and JSON seed files.
type Document struct {
	Name    string     `toml:"name" json:"name"`
	Nodes   []NodeDoc  `toml:"nodes" json:"nodes"`
	Edges   []EdgeDoc  `toml:"edges" json:"edges"`
	Shelves []ShelfDoc `toml:"shelves" json:"shelves"`
	Orders  []OrderDoc `toml:"orders" json:"orders"`
}

type NodeDoc struct {
	ID int `toml:"id" json:"id"`
	X  int `toml:"x" json:"x"`
	Y  int `toml:"y" json:"y"`
}

// EdgeDoc is an undirected route. Closed routes are loaded but start blocked.
type EdgeDoc struct {
	A      int  `toml:"a" json:"a"`
	B      int  `toml:"b" json:"b"`
	Closed bool `toml:"closed,omitempty" json:"closed,omitempty"`
}

type ShelfDoc struct {
	ID       int    `toml:"id" json:"id"`
	Node     int    `toml:"node" json:"node"`
	Goods    string `toml:"goods" json:"goods"`
	Quantity int    `toml:"quantity" json:"quantity"`
}

type OrderDoc struct {
	StartOffsetSeconds float64   `toml:"start_offset_seconds" json:"start_offset_seconds"`
	Items              []ItemDoc `toml:"items" json:"items"`
}

type ItemDoc struct {
	Goods    string `toml:"goods" json:"goods"`
	Quantity int    `toml:"quantity" json:"quantity"`
}

// Validate checks the document can be turned into a topology and that
// every order is well formed.
func (d *Document) Validate() error {
	if len(d.Nodes) == 0 {
		return errors.New("validate scenario: no nodes")
	}

	l := d.Layout()
	topo, err := domain.LoadTopology(l.Nodes, l.Edges, l.Shelves)
	if err != nil {
		return fmt.Errorf("validate scenario: %w", err)
	}
	for _, st := range l.Stock {
		if err := topo.LoadStock(st.ShelfID, st.Goods, st.Quantity); err != nil {
			return fmt.Errorf("validate scenario: %w", err)
		}
	}

	for i, o := range d.Orders {
		if _, err := domain.StartOffset(o.StartOffsetSeconds); err != nil {
			return fmt.Errorf("validate scenario: order %d: %w", i+1, err)
		}
		if len(o.Items) == 0 {
			return fmt.Errorf("validate scenario: order %d: no items", i+1)
		}
		for j, it := range o.Items {
			if strings.TrimSpace(it.Goods) == "" {
				return fmt.Errorf("validate scenario: order %d item %d: goods cannot be empty", i+1, j+1)
			}
			if it.Quantity <= 0 {
				return fmt.Errorf("validate scenario: order %d item %d: quantity must be positive", i+1, j+1)
			}
		}
	}

	return nil
}

// Layout converts the document into ingestion records.
func (d *Document) Layout() *domain.Layout {
	l := &domain.Layout{}
	for _, n := range d.Nodes {
		l.Nodes = append(l.Nodes, domain.NodeSpec{ID: n.ID, X: n.X, Y: n.Y})
	}
	for _, e := range d.Edges {
		spec := domain.EdgeSpec{NodeA: e.A, NodeB: e.B}
		l.Edges = append(l.Edges, spec)
		if e.Closed {
			l.ClosedEdges = append(l.ClosedEdges, spec)
		}
	}
	for _, s := range d.Shelves {
		l.Shelves = append(l.Shelves, domain.ShelfSpec{ShelfID: s.ID, NodeID: s.Node})
		if s.Goods != "" {
			l.Stock = append(l.Stock, domain.StockSpec{ShelfID: s.ID, Goods: s.Goods, Quantity: s.Quantity})
		}
	}
	return l
}

func (d *Document) OrderRequests() []domain.OrderRequest {
	out := make([]domain.OrderRequest, 0, len(d.Orders))
	for _, o := range d.Orders {
		// Offsets were checked by Validate; anything invalid starts immediately.
		offset, _ := domain.StartOffset(o.StartOffsetSeconds)
		req := domain.OrderRequest{StartOffset: offset}
		for _, it := range o.Items {
			req.Items = append(req.Items, domain.LineItem{Goods: strings.TrimSpace(it.Goods), Quantity: it.Quantity})
		}
		out = append(out, req)
	}
	return out
}

// ClosedEdges returns the closed routes keyed by their ordered endpoints.
func (d *Document) ClosedEdges() map[domain.EdgeSpec]bool {
	out := make(map[domain.EdgeSpec]bool)
	for _, e := range d.Edges {
		if e.Closed {
			out[normalize(e.A, e.B)] = true
		}
	}
	return out
}

func normalize(a, b int) domain.EdgeSpec {
	if a > b {
		a, b = b, a
	}
	return domain.EdgeSpec{NodeA: a, NodeB: b}
}
