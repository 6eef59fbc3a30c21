package ports

import (
	"context"

	"warehouse-route-service/internal/domain"
)

// Contract for forwarding cart events to subscribers outside the process.
type EventPublisher interface {
	Publish(ctx context.Context, ev domain.CartEvent) error
}
