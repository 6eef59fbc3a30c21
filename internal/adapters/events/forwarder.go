package events

import (
	"context"
	"log"

	"warehouse-route-service/internal/domain"
	"warehouse-route-service/internal/ports"
)

// Forwarder decouples cart event listeners from a slow publisher.
// Handle never blocks; events are dropped when the buffer is full.
type Forwarder struct {
	pub    ports.EventPublisher
	events chan domain.CartEvent
}

func NewForwarder(pub ports.EventPublisher, buffer int) *Forwarder {
	if buffer <= 0 {
		buffer = 256
	}
	return &Forwarder{pub: pub, events: make(chan domain.CartEvent, buffer)}
}

// Handle queues an event; its signature matches the simulation listener.
func (f *Forwarder) Handle(ev domain.CartEvent) {
	select {
	case f.events <- ev:
	default:
		log.Printf("cart event dropped: kind=%s order=%d", ev.Kind, ev.OrderID)
	}
}

// Run publishes queued events until ctx is done.
func (f *Forwarder) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-f.events:
			if err := f.pub.Publish(ctx, ev); err != nil {
				log.Printf("cart event publish failed: kind=%s order=%d err=%v", ev.Kind, ev.OrderID, err)
			}
		}
	}
}
