package events

import (
	"context"
	"log/slog"
	"sync"
)

// LocalBroadcaster fans events out to subscribers in the same process.
// It is used when no Redis is configured.
type LocalBroadcaster struct {
	mu     sync.Mutex
	subs   map[string]map[int]chan Event
	nextID int
	logger *slog.Logger
}

// NewLocalBroadcaster creates an in-process broadcaster
func NewLocalBroadcaster(logger *slog.Logger) *LocalBroadcaster {
	return &LocalBroadcaster{
		subs:   make(map[string]map[int]chan Event),
		logger: logger,
	}
}

// Publish delivers event to every current subscriber of gameID. A subscriber
// whose buffer is full misses the event rather than blocking the publisher.
func (b *LocalBroadcaster) Publish(ctx context.Context, gameID string, event Event) error {
	event.GameID = gameID

	b.mu.Lock()
	defer b.mu.Unlock()

	for id, ch := range b.subs[gameID] {
		select {
		case ch <- event:
		default:
			b.logger.Warn("Dropping event for slow subscriber",
				"game_id", gameID,
				"subscriber", id,
				"event_type", event.Type)
		}
	}
	return nil
}

// Subscribe registers a subscriber for gameID.
func (b *LocalBroadcaster) Subscribe(ctx context.Context, gameID string) (<-chan Event, func(), error) {
	ch := make(chan Event, 16)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	if b.subs[gameID] == nil {
		b.subs[gameID] = make(map[int]chan Event)
	}
	b.subs[gameID][id] = ch
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs[gameID], id)
			if len(b.subs[gameID]) == 0 {
				delete(b.subs, gameID)
			}
			close(ch)
		})
	}
	return ch, cancel, nil
}

// Subscribers returns the number of live subscribers for gameID.
func (b *LocalBroadcaster) Subscribers(gameID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[gameID])
}

// Ping always succeeds; there is nothing to connect to.
func (b *LocalBroadcaster) Ping(ctx context.Context) error {
	return nil
}
