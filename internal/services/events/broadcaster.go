package events

import (
	"context"
	"fmt"
)

// EventType represents the type of event being broadcast
type EventType string

const (
	EventTypeGameStateUpdated EventType = "game.state_updated"
	EventTypeTurnCompleted    EventType = "turn.completed"
	EventTypeTurnFailed       EventType = "turn.failed"
	EventTypeImageReady       EventType = "image.ready"
)

// Event represents a generic event structure
type Event struct {
	Type   EventType              `json:"type"`
	GameID string                 `json:"game_id,omitempty"`
	Data   map[string]interface{} `json:"data,omitempty"`
}

// Publisher sends events for a game to its subscribers.
type Publisher interface {
	Publish(ctx context.Context, gameID string, event Event) error
}

// Subscriber streams the events of one game. The returned func ends the
// subscription and closes the channel.
type Subscriber interface {
	Subscribe(ctx context.Context, gameID string) (<-chan Event, func(), error)
}

// Broadcaster is both ends of the event bus.
type Broadcaster interface {
	Publisher
	Subscriber
	Ping(ctx context.Context) error
}

// Channel returns the pub/sub channel name for a game.
func Channel(gameID string) string {
	return fmt.Sprintf("game-events:%s", gameID)
}

// GameStateUpdated is published on every state transition.
func GameStateUpdated(gameID string, turn int, loadingText, loadingImage bool) Event {
	return Event{
		Type:   EventTypeGameStateUpdated,
		GameID: gameID,
		Data: map[string]interface{}{
			"turn":             turn,
			"is_loading_text":  loadingText,
			"is_loading_image": loadingImage,
		},
	}
}

// TurnCompleted is published when a new page has been written.
func TurnCompleted(gameID string, turn int) Event {
	return Event{
		Type:   EventTypeTurnCompleted,
		GameID: gameID,
		Data: map[string]interface{}{
			"status": "completed",
			"turn":   turn,
		},
	}
}

// TurnFailed is published when a page could not be written.
func TurnFailed(gameID, message string) Event {
	return Event{
		Type:   EventTypeTurnFailed,
		GameID: gameID,
		Data: map[string]interface{}{
			"status": "failed",
			"error":  message,
		},
	}
}

// ImageReady is published when panel art for the current turn is stored.
func ImageReady(gameID string, turn int, placeholder bool) Event {
	return Event{
		Type:   EventTypeImageReady,
		GameID: gameID,
		Data: map[string]interface{}{
			"turn":        turn,
			"placeholder": placeholder,
		},
	}
}
