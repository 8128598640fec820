package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// RedisBroadcaster publishes events to Redis Pub/Sub so any API instance can serve the SSE stream.
type RedisBroadcaster struct {
	redisClient *redis.Client
	logger      *slog.Logger
}

// NewRedisBroadcaster creates a new Redis-backed broadcaster
func NewRedisBroadcaster(redisClient *redis.Client, logger *slog.Logger) *RedisBroadcaster {
	return &RedisBroadcaster{
		redisClient: redisClient,
		logger:      logger,
	}
}

// Publish publishes an event to the game-specific channel
func (b *RedisBroadcaster) Publish(ctx context.Context, gameID string, event Event) error {
	channel := Channel(gameID)
	event.GameID = gameID

	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("Failed to marshal event", "error", err, "event", event)
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.redisClient.Publish(ctx, channel, data).Err(); err != nil {
		b.logger.Error("Failed to publish event", "error", err, "channel", channel)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debug("Event published",
		"channel", channel,
		"event_type", event.Type,
	)

	return nil
}

// Subscribe listens on the game-specific channel. It returns once Redis has
// confirmed the subscription, so events published afterwards are not missed.
func (b *RedisBroadcaster) Subscribe(ctx context.Context, gameID string) (<-chan Event, func(), error) {
	channel := Channel(gameID)
	pubsub := b.redisClient.Subscribe(ctx, channel)

	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}
	b.logger.Debug("Subscribed to channel", "channel", channel)

	out := make(chan Event, 16)
	msgChan := pubsub.Channel()
	go func() {
		defer close(out)
		for msg := range msgChan {
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				b.logger.Error("Failed to unmarshal event", "error", err, "payload", msg.Payload)
				continue
			}
			select {
			case out <- event:
			case <-ctx.Done():
				return
			}
		}
	}()

	cancel := func() {
		if err := pubsub.Close(); err != nil {
			b.logger.Error("Failed to close pubsub", "error", err)
		}
	}
	return out, cancel, nil
}

// Ping checks the Redis connection.
func (b *RedisBroadcaster) Ping(ctx context.Context) error {
	return b.redisClient.Ping(ctx).Err()
}
