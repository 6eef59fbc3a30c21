package dto

import "time"

type NodeResponse struct {
	ID         int   `json:"id"`
	X          int   `json:"x"`
	Y          int   `json:"y"`
	Neighbours []int `json:"neighbours"`
}

type EdgeResponse struct {
	A    int  `json:"a"`
	B    int  `json:"b"`
	Open bool `json:"open"`
}

type ShelfResponse struct {
	ShelfID  int    `json:"shelf_id"`
	NodeID   int    `json:"node_id"`
	Goods    string `json:"goods"`
	Quantity int    `json:"quantity"`
	Reserved int    `json:"reserved"`
}

type WarehouseResponse struct {
	Now     time.Time       `json:"now"`
	Nodes   []NodeResponse  `json:"nodes"`
	Edges   []EdgeResponse  `json:"edges"`
	Shelves []ShelfResponse `json:"shelves"`
}

type EdgeRequest struct {
	A *int `json:"a"`
	B *int `json:"b"`
}
