package events

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/go-cmp/cmp"

	"warehouse-route-service/internal/domain"
)

func TestRedisPublisherPublishesJSON(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	client, err := NewRedisClient(ctx, "redis://"+mr.Addr())
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer client.Close()

	sub := client.Subscribe(ctx, DefaultChannel)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	ev := domain.CartEvent{
		Kind:      domain.EventPickedUp,
		OrderID:   4,
		NodeID:    2,
		ShelfID:   1,
		Goods:     "bolt",
		Quantity:  3,
		Requested: 5,
		At:        time.Date(2026, 1, 1, 8, 0, 2, 0, time.UTC),
	}
	if err := NewRedisPublisher(client, "").Publish(ctx, ev); err != nil {
		t.Fatalf("publish: %v", err)
	}

	recvCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	msg, err := sub.ReceiveMessage(recvCtx)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}

	var got domain.CartEvent
	if err := json.Unmarshal([]byte(msg.Payload), &got); err != nil {
		t.Fatalf("decode payload %q: %v", msg.Payload, err)
	}
	if diff := cmp.Diff(ev, got); diff != "" {
		t.Fatalf("event mismatch (-want +got):\n%s", diff)
	}
}

func TestNewRedisClientRejectsBadURL(t *testing.T) {
	if _, err := NewRedisClient(context.Background(), "not a url"); err == nil {
		t.Fatal("expected error for bad url")
	}
}

type recordingPublisher struct {
	mu   sync.Mutex
	got  []domain.CartEvent
	done chan struct{}
	want int
}

func (p *recordingPublisher) Publish(_ context.Context, ev domain.CartEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.got = append(p.got, ev)
	if len(p.got) == p.want {
		close(p.done)
	}
	return nil
}

func TestForwarderDeliversInOrder(t *testing.T) {
	pub := &recordingPublisher{done: make(chan struct{}), want: 2}
	f := NewForwarder(pub, 4)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go f.Run(ctx)

	f.Handle(domain.CartEvent{Kind: domain.EventPickedUp, OrderID: 1})
	f.Handle(domain.CartEvent{Kind: domain.EventFinished, OrderID: 1})

	select {
	case <-pub.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for events")
	}

	pub.mu.Lock()
	defer pub.mu.Unlock()
	if pub.got[0].Kind != domain.EventPickedUp || pub.got[1].Kind != domain.EventFinished {
		t.Fatalf("events = %+v, want picked_up then finished", pub.got)
	}
}

func TestForwarderDropsWhenFull(t *testing.T) {
	pub := &recordingPublisher{done: make(chan struct{}), want: -1}
	f := NewForwarder(pub, 1)

	f.Handle(domain.CartEvent{Kind: domain.EventPickedUp})
	f.Handle(domain.CartEvent{Kind: domain.EventFinished})

	if n := len(f.events); n != 1 {
		t.Fatalf("queued = %d, want 1", n)
	}
}
