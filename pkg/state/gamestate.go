package state

import (
	"github.com/jwebster45206/comic-crush/pkg/story"
)

// Phase is the coarse lifecycle stage of a session.
type Phase string

const (
	PhaseNotStarted Phase = "not_started"
	PhasePlaying    Phase = "playing"
)

// GameState is the authoritative state of one comic session.
//
// A GameState is a value. Every transition below returns a new GameState and
// leaves the receiver untouched, so a snapshot handed to a renderer can never
// change underneath it. History is append-only and in chronological order;
// CurrentTurn is always the last history entry once the game has started.
type GameState struct {
	History        []story.StoryNode `json:"history"`
	CurrentTurn    *story.StoryNode  `json:"currentTurn,omitempty"`
	CurrentImage   string            `json:"currentImage,omitempty"` // data URI or URL; empty while absent
	ImageTurn      int               `json:"imageTurn"`              // turn index CurrentImage belongs to
	IsLoadingText  bool              `json:"isLoadingText"`
	IsLoadingImage bool              `json:"isLoadingImage"`
	GameStarted    bool              `json:"gameStarted"`
	Error          string            `json:"error,omitempty"`
	PlayerName     string            `json:"playerName"`
	Genre          string            `json:"genre"`
}

// New returns the state of a session that has not started yet.
func New(genre, playerName string) GameState {
	if genre == "" {
		genre = string(story.DefaultGenre)
	}
	return GameState{
		History:    []story.StoryNode{},
		ImageTurn:  -1,
		PlayerName: playerName,
		Genre:      genre,
	}
}

// Phase reports whether the game has started.
func (s GameState) Phase() Phase {
	if s.GameStarted && s.CurrentTurn != nil {
		return PhasePlaying
	}
	return PhaseNotStarted
}

// TurnIndex is the zero-based index of the current turn, or -1 before the first turn.
func (s GameState) TurnIndex() int {
	return len(s.History) - 1
}

// StartRequested marks the opening turn as in flight.
func (s GameState) StartRequested(genre, playerName string) GameState {
	s.Genre = genre
	s.PlayerName = playerName
	s.GameStarted = true
	s.IsLoadingText = true
	s.Error = ""
	return s
}

// StartSucceeded installs the opening node as the whole history.
func (s GameState) StartSucceeded(node story.StoryNode) GameState {
	s.History = []story.StoryNode{node}
	s.CurrentTurn = &s.History[0]
	s.IsLoadingText = false
	return s
}

// StartFailed reverts to the start screen with a user-facing message.
func (s GameState) StartFailed(message string) GameState {
	s.GameStarted = false
	s.IsLoadingText = false
	s.Error = message
	return s
}

// ChoiceRequested marks a follow-up turn as in flight.
func (s GameState) ChoiceRequested() GameState {
	s.IsLoadingText = true
	s.Error = ""
	return s
}

// ChoiceSucceeded appends node to history and makes it current.
func (s GameState) ChoiceSucceeded(node story.StoryNode) GameState {
	history := make([]story.StoryNode, len(s.History), len(s.History)+1)
	copy(history, s.History)
	history = append(history, node)

	s.History = history
	s.CurrentTurn = &s.History[len(s.History)-1]
	s.IsLoadingText = false
	return s
}

// ChoiceFailed keeps history and current turn as they were and records message.
func (s GameState) ChoiceFailed(message string) GameState {
	s.IsLoadingText = false
	s.Error = message
	return s
}

// ImageRequested clears the panel art while art for turn is being drawn.
func (s GameState) ImageRequested(turn int) GameState {
	s.CurrentImage = ""
	s.IsLoadingImage = true
	s.ImageTurn = turn
	return s
}

// ImageResolved stores the art for turn. Results for any turn other than the
// current one are stale and leave the state unchanged; the second return value
// reports whether the image was applied.
func (s GameState) ImageResolved(turn int, imageRef string) (GameState, bool) {
	if turn != s.ImageTurn || turn != s.TurnIndex() {
		return s, false
	}
	s.CurrentImage = imageRef
	s.IsLoadingImage = false
	return s, true
}

// ErrorDismissed clears the user-facing error.
func (s GameState) ErrorDismissed() GameState {
	s.Error = ""
	return s
}
