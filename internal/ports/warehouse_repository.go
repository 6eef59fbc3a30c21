package ports

import (
	"context"
	"time"

	"warehouse-route-service/internal/domain"
)

// FulfillmentRecord is what gets persisted when a cart completes an order.
type FulfillmentRecord struct {
	OrderID     int
	StartedAt   time.Time
	FinishedAt  time.Time
	Delivered   []domain.LineItem
	Unsatisfied []domain.LineItem
}

// Port: a boundary for retrieving the warehouse description from a data source.
type WarehouseRepository interface {
	// Retrieve nodes, edges, shelves and initial stock.
	LoadLayout(ctx context.Context) (*domain.Layout, error)
	// Retrieve orders to submit when the simulation starts.
	ListOrderRequests(ctx context.Context) ([]domain.OrderRequest, error)
}

// Optional extension of WarehouseRepository that stores completed orders.
type FulfillmentRecorder interface {
	RecordFulfillment(ctx context.Context, rec FulfillmentRecord) error
}
