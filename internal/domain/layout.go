package domain

import "time"

// Ingestion records supplied by whatever owns the warehouse description
// (SQL storage, scenario files, HTTP clients).

type NodeSpec struct {
	ID int
	X  int
	Y  int
}

type EdgeSpec struct {
	NodeA int
	NodeB int
}

type ShelfSpec struct {
	ShelfID int
	NodeID  int
}

type StockSpec struct {
	ShelfID  int
	Goods    string
	Quantity int
}

// Layout is a complete warehouse description.
// ClosedEdges lists loaded edges that start out blocked.
type Layout struct {
	Nodes       []NodeSpec
	Edges       []EdgeSpec
	Shelves     []ShelfSpec
	Stock       []StockSpec
	ClosedEdges []EdgeSpec
}

// OrderRequest is an order waiting to be submitted, timed relative to the
// start of the simulation.
type OrderRequest struct {
	StartOffset time.Duration
	Items       []LineItem
}

// Edge is a loaded route between two nodes; NodeA < NodeB.
type Edge struct {
	NodeA int
	NodeB int
	Open  bool
}
