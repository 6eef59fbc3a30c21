package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"warehouse-route-service/internal/domain"
	"warehouse-route-service/internal/platform/obs"
)

const DefaultChannel = "warehouse:cart-events"

// RedisPublisher implements the EventPublisher port with Redis pub/sub.
// Each cart event is published as one JSON message.
type RedisPublisher struct {
	Client  *redis.Client
	Channel string
}

func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisPublisher{Client: client, Channel: channel}
}

// NewRedisClient parses a redis:// URL and verifies the server answers.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis client: parse url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis client: ping: %w", err)
	}
	return client, nil
}

func (p *RedisPublisher) Publish(ctx context.Context, ev domain.CartEvent) (err error) {
	defer obs.Time(ctx, "events.Publish")(&err)

	if p.Client == nil {
		return errors.New("redis publisher: client is nil")
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("publish %s: encode: %w", ev.Kind, err)
	}
	if err := p.Client.Publish(ctx, p.Channel, payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", ev.Kind, err)
	}
	return nil
}
