package prompts

import (
	"fmt"
	"strings"

	"github.com/jwebster45206/comic-crush/pkg/story"
)

// Builder assembles the text prompt for a turn using a fluent interface.
// With no history it builds the opening page; otherwise it needs the chosen choice.
type Builder struct {
	genre         string
	playerName    string
	history       []story.StoryNode
	choice        *story.Choice
	contextWindow int
}

// New creates a builder with the default context window.
func New() *Builder {
	return &Builder{
		contextWindow: DefaultContextWindow,
	}
}

// WithGenre sets the story genre for the opening page.
func (b *Builder) WithGenre(genre string) *Builder {
	b.genre = genre
	return b
}

// WithPlayerName sets the protagonist name for the opening page.
func (b *Builder) WithPlayerName(name string) *Builder {
	b.playerName = name
	return b
}

// WithHistory sets the completed turns, oldest first.
func (b *Builder) WithHistory(history []story.StoryNode) *Builder {
	b.history = history
	return b
}

// WithChoice sets the choice the player just made.
func (b *Builder) WithChoice(c story.Choice) *Builder {
	b.choice = &c
	return b
}

// WithContextWindow sets how many trailing characters of history are kept.
func (b *Builder) WithContextWindow(n int) *Builder {
	if n > 0 {
		b.contextWindow = n
	}
	return b
}

// Build returns the prompt text.
func (b *Builder) Build() (string, error) {
	if len(b.history) == 0 {
		name := strings.TrimSpace(b.playerName)
		if name == "" {
			return "", fmt.Errorf("player name is required for the opening page")
		}
		return OpeningPrompt(b.genre, name), nil
	}

	if b.choice == nil {
		return "", fmt.Errorf("a choice is required to continue the story")
	}
	return NextTurnPrompt(BuildContext(b.history, b.contextWindow), b.choice.Text), nil
}
