// internal/events/publisher.go
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// Publisher is the advisory event channel. Publish failures are the
// caller's business to ignore: no primary operation may fail because a
// notification did not go out.
type Publisher interface {
	Publish(ctx context.Context, topic, eventType string, payload interface{}) error
}

// Event is the envelope consumers receive on the channel.
type Event struct {
	ID   string      `json:"id"`
	Type string      `json:"type"`
	Time time.Time   `json:"time"`
	Data interface{} `json:"data"`
}

// RedisPublisher publishes event envelopes on redis pub/sub channels.
type RedisPublisher struct {
	client *redis.Client
}

func NewRedisPublisher(addr, password string, db int) *RedisPublisher {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisPublisher{client: client}
}

func (p *RedisPublisher) Publish(ctx context.Context, topic, eventType string, payload interface{}) error {
	body, err := json.Marshal(Event{
		ID:   uuid.NewString(),
		Type: eventType,
		Time: time.Now().UTC(),
		Data: payload,
	})
	if err != nil {
		return fmt.Errorf("failed to encode event %s: %w", eventType, err)
	}
	if err := p.client.Publish(ctx, topic, body).Err(); err != nil {
		return fmt.Errorf("failed to publish %s to %s: %w", eventType, topic, err)
	}
	return nil
}

func (p *RedisPublisher) Close() error { return p.client.Close() }

// NopPublisher is used when no event channel is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, string, interface{}) error { return nil }
