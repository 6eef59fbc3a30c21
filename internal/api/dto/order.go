package dto

import "time"

type LineItem struct {
	Goods    string `json:"goods"`
	Quantity int    `json:"quantity"`
}

type CreateOrderRequest struct {
	StartOffsetSeconds float64    `json:"start_offset_seconds"`
	Items              []LineItem `json:"items"`
}

type CreateOrderResponse struct {
	OrderID int `json:"order_id"`
}

type OrderResponse struct {
	OrderID     int        `json:"order_id"`
	State       string     `json:"state"`
	StartAt     time.Time  `json:"start_at"`
	EndAt       *time.Time `json:"end_at"`
	Requested   []LineItem `json:"requested"`
	Unsatisfied []LineItem `json:"unsatisfied"`
	Warnings    []string   `json:"warnings"`
}

type ListOrdersResponse struct {
	Orders []OrderResponse `json:"orders"`
}
