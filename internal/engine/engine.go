package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jwebster45206/comic-crush/internal/logger"
	"github.com/jwebster45206/comic-crush/internal/services"
	"github.com/jwebster45206/comic-crush/internal/services/events"
	"github.com/jwebster45206/comic-crush/pkg/prompts"
	"github.com/jwebster45206/comic-crush/pkg/state"
	"github.com/jwebster45206/comic-crush/pkg/story"
)

// User-facing messages stored in GameState.Error.
const (
	MsgStartFailed  = "Failed to start game. Ensure API Key is set and valid."
	MsgChoiceFailed = "Could not load next chapter. Please try again."
)

const (
	DefaultTextTimeout  = 60 * time.Second
	DefaultImageTimeout = 120 * time.Second
)

var (
	ErrBusy            = errors.New("a page is already being written")
	ErrNotStarted      = errors.New("game has not started")
	ErrAlreadyStarted  = errors.New("game has already started")
	ErrUnknownChoice   = errors.New("choice is not offered on the current page")
	ErrEmptyPlayerName = errors.New("player name is required")
)

// TurnError is returned when the model could not produce a page. Message is
// the text shown to the player; Err is the underlying model error.
type TurnError struct {
	Message string
	Err     error
}

func (e *TurnError) Error() string {
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *TurnError) Unwrap() error { return e.Err }

// Options configures an Engine. Zero values use the defaults.
type Options struct {
	GameID        string
	TextTimeout   time.Duration
	ImageTimeout  time.Duration
	ContextWindow int
	Publisher     events.Publisher
	Logger        *slog.Logger
}

// Engine owns the authoritative state of one comic session.
// All writes go through its methods; readers get value snapshots.
type Engine struct {
	model services.ModelService
	opts  Options

	mu    sync.Mutex
	state state.GameState

	// background work (panel art) outlives the request that triggered it
	bg       context.Context
	cancelBg context.CancelFunc
	images   sync.WaitGroup
}

// New creates an engine in the NotStarted phase.
func New(model services.ModelService, opts Options) *Engine {
	if opts.TextTimeout <= 0 {
		opts.TextTimeout = DefaultTextTimeout
	}
	if opts.ImageTimeout <= 0 {
		opts.ImageTimeout = DefaultImageTimeout
	}
	if opts.ContextWindow <= 0 {
		opts.ContextWindow = prompts.DefaultContextWindow
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	opts.Logger = logger.WithGameID(opts.Logger, opts.GameID)

	bg, cancel := context.WithCancel(context.Background())
	return &Engine{
		model:    model,
		opts:     opts,
		state:    state.New("", ""),
		bg:       bg,
		cancelBg: cancel,
	}
}

// ID returns the game id this engine was created with.
func (e *Engine) ID() string {
	return e.opts.GameID
}

// Snapshot returns the current state.
func (e *Engine) Snapshot() state.GameState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// StartGame writes the opening page. On failure the game stays NotStarted and
// the returned state carries MsgStartFailed.
func (e *Engine) StartGame(ctx context.Context, genre, playerName string) (state.GameState, error) {
	playerName = strings.TrimSpace(playerName)
	genre = strings.TrimSpace(genre)
	if genre == "" {
		genre = string(story.DefaultGenre)
	}

	e.mu.Lock()
	var reject error
	switch {
	case e.state.IsLoadingText:
		reject = ErrBusy
	case e.state.Phase() == state.PhasePlaying:
		reject = ErrAlreadyStarted
	case playerName == "":
		reject = ErrEmptyPlayerName
	}
	if reject != nil {
		snap := e.state
		e.mu.Unlock()
		return snap, reject
	}
	e.state = e.state.StartRequested(genre, playerName)
	e.mu.Unlock()
	e.publishState()

	prompt, err := prompts.New().WithGenre(genre).WithPlayerName(playerName).Build()
	if err == nil {
		var node *story.StoryNode
		node, err = e.generateTurn(ctx, prompt)
		if err == nil {
			e.opts.Logger.Info("Game started", "genre", genre, "speaker", node.SpeakerName)
			return e.turnSucceeded(*node, true), nil
		}
	}

	e.opts.Logger.Error("Failed to start game", "genre", genre, "error", err)
	e.mu.Lock()
	e.state = e.state.StartFailed(MsgStartFailed)
	snap := e.state
	e.mu.Unlock()
	e.publish(events.TurnFailed(e.opts.GameID, MsgStartFailed))
	e.publishState()
	return snap, &TurnError{Message: MsgStartFailed, Err: err}
}

// ApplyChoice writes the page that follows the choice with id choiceID. On
// failure history and the current page are unchanged and the returned state
// carries MsgChoiceFailed.
func (e *Engine) ApplyChoice(ctx context.Context, choiceID string) (state.GameState, error) {
	e.mu.Lock()
	var (
		choice story.Choice
		reject error
	)
	switch {
	case e.state.Phase() != state.PhasePlaying:
		reject = ErrNotStarted
	case e.state.IsLoadingText:
		reject = ErrBusy
	default:
		var ok bool
		if choice, ok = e.state.CurrentTurn.FindChoice(choiceID); !ok {
			reject = fmt.Errorf("%w: %q", ErrUnknownChoice, choiceID)
		}
	}
	if reject != nil {
		snap := e.state
		e.mu.Unlock()
		return snap, reject
	}
	history := e.state.History
	e.state = e.state.ChoiceRequested()
	e.mu.Unlock()
	e.publishState()

	prompt, err := prompts.New().
		WithHistory(history).
		WithChoice(choice).
		WithContextWindow(e.opts.ContextWindow).
		Build()
	if err == nil {
		var node *story.StoryNode
		node, err = e.generateTurn(ctx, prompt)
		if err == nil {
			e.opts.Logger.Info("Choice applied", "choice_id", choiceID, "action_type", choice.ActionType)
			return e.turnSucceeded(*node, false), nil
		}
	}

	e.opts.Logger.Error("Failed to apply choice", "choice_id", choiceID, "error", err)
	e.mu.Lock()
	e.state = e.state.ChoiceFailed(MsgChoiceFailed)
	snap := e.state
	e.mu.Unlock()
	e.publish(events.TurnFailed(e.opts.GameID, MsgChoiceFailed))
	e.publishState()
	return snap, &TurnError{Message: MsgChoiceFailed, Err: err}
}

// DismissError clears the error shown to the player.
func (e *Engine) DismissError() state.GameState {
	e.mu.Lock()
	e.state = e.state.ErrorDismissed()
	snap := e.state
	e.mu.Unlock()
	e.publishState()
	return snap
}

// Wait blocks until all in-flight panel art requests have finished.
func (e *Engine) Wait() {
	e.images.Wait()
}

// Close cancels in-flight panel art requests and waits for them to return.
func (e *Engine) Close() {
	e.cancelBg()
	e.images.Wait()
}

func (e *Engine) generateTurn(ctx context.Context, prompt string) (*story.StoryNode, error) {
	ctx, cancel := context.WithTimeout(ctx, e.opts.TextTimeout)
	defer cancel()
	return e.model.GenerateStoryTurn(ctx, prompt)
}

// turnSucceeded stores node, starts its panel art and returns the new state.
func (e *Engine) turnSucceeded(node story.StoryNode, opening bool) state.GameState {
	e.mu.Lock()
	if opening {
		e.state = e.state.StartSucceeded(node)
	} else {
		e.state = e.state.ChoiceSucceeded(node)
	}
	turn := e.state.TurnIndex()
	e.state = e.state.ImageRequested(turn)
	snap := e.state
	// Add before unlocking so Close and Wait always see the request.
	e.images.Add(1)
	e.mu.Unlock()

	e.publish(events.TurnCompleted(e.opts.GameID, turn))
	e.publishState()

	go e.drawPanel(turn, node.VisualDescription)
	return snap
}

// drawPanel requests art for turn. Any failure is absorbed into a placeholder,
// and art for a turn that is no longer current is discarded.
func (e *Engine) drawPanel(turn int, description string) {
	defer e.images.Done()

	ctx, cancel := context.WithTimeout(e.bg, e.opts.ImageTimeout)
	defer cancel()

	ref, err := e.model.GenerateComicImage(ctx, description)
	if err != nil || ref == "" {
		e.opts.Logger.Warn("Panel art unavailable, using placeholder", "turn", turn, "error", err)
		ref = services.PlaceholderImage()
	}

	e.mu.Lock()
	next, applied := e.state.ImageResolved(turn, ref)
	if applied {
		e.state = next
	}
	e.mu.Unlock()

	if !applied {
		e.opts.Logger.Debug("Discarding stale panel art", "turn", turn)
		return
	}
	e.publish(events.ImageReady(e.opts.GameID, turn, services.IsPlaceholder(ref)))
	e.publishState()
}

func (e *Engine) publishState() {
	s := e.Snapshot()
	e.publish(events.GameStateUpdated(e.opts.GameID, s.TurnIndex(), s.IsLoadingText, s.IsLoadingImage))
}

// publish sends an event. Failures are logged and never affect the game.
func (e *Engine) publish(ev events.Event) {
	if e.opts.Publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.opts.Publisher.Publish(ctx, e.opts.GameID, ev); err != nil {
		e.opts.Logger.Warn("Failed to publish event", "event_type", ev.Type, "error", err)
	}
}
