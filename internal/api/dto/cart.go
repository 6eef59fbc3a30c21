package dto

type WaypointResponse struct {
	NodeID   int    `json:"node_id"`
	ShelfID  int    `json:"shelf_id,omitempty"`
	Goods    string `json:"goods,omitempty"`
	Quantity int    `json:"quantity,omitempty"`
	Dispense bool   `json:"dispense,omitempty"`
}

type PositionResponse struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type CartResponse struct {
	OrderID       int                `json:"order_id"`
	Status        string             `json:"status"`
	Position      PositionResponse   `json:"position"`
	Capacity      int                `json:"capacity"`
	Load          []LineItem         `json:"load"`
	Delivered     []LineItem         `json:"delivered"`
	CurrentNode   int                `json:"current_node"`
	RemainingPath []WaypointResponse `json:"remaining_path"`
}

type ListCartsResponse struct {
	Carts []CartResponse `json:"carts"`
}
