package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/comic-crush/pkg/story"
)

func node(narrative string) story.StoryNode {
	return story.StoryNode{
		Narrative:         narrative,
		SpeakerName:       "Vera",
		Dialogue:          "Hey.",
		VisualDescription: "panel",
		BackgroundStyle:   "city",
		Choices: []story.Choice{
			{ID: "1", Text: "Wave", ActionType: story.ActionNeutral},
			{ID: "2", Text: "Wink", ActionType: story.ActionRomantic},
		},
	}
}

func TestNew(t *testing.T) {
	s := New("", "Alex")
	assert.Equal(t, string(story.DefaultGenre), s.Genre)
	assert.Equal(t, "Alex", s.PlayerName)
	assert.Empty(t, s.History)
	assert.Nil(t, s.CurrentTurn)
	assert.Equal(t, -1, s.TurnIndex())
	assert.Equal(t, PhaseNotStarted, s.Phase())
}

func TestStartLifecycle(t *testing.T) {
	s := New(string(story.GenreNoir), "")
	s = s.StartRequested(string(story.GenreNoir), "Alex")
	assert.True(t, s.GameStarted)
	assert.True(t, s.IsLoadingText)
	assert.Equal(t, PhaseNotStarted, s.Phase())

	s = s.StartSucceeded(node("opening"))
	require.Len(t, s.History, 1)
	require.NotNil(t, s.CurrentTurn)
	assert.Equal(t, s.History[0], *s.CurrentTurn)
	assert.False(t, s.IsLoadingText)
	assert.Equal(t, PhasePlaying, s.Phase())
	assert.Equal(t, 0, s.TurnIndex())
}

func TestStartFailed(t *testing.T) {
	s := New("", "Alex").StartRequested("Detective Noir", "Alex")
	s = s.StartFailed("boom")

	assert.False(t, s.GameStarted)
	assert.False(t, s.IsLoadingText)
	assert.Equal(t, "boom", s.Error)
	assert.Empty(t, s.History)
}

func TestChoiceSucceeded_AppendsWithoutAliasing(t *testing.T) {
	base := New("", "Alex").StartRequested("Detective Noir", "Alex").StartSucceeded(node("one"))
	next := base.ChoiceRequested().ChoiceSucceeded(node("two"))

	require.Len(t, next.History, 2)
	assert.Equal(t, "two", next.CurrentTurn.Narrative)
	assert.Equal(t, next.History[1], *next.CurrentTurn)

	// the earlier value is untouched
	require.Len(t, base.History, 1)
	assert.Equal(t, "one", base.CurrentTurn.Narrative)

	// two branches from the same base do not share backing arrays
	other := base.ChoiceSucceeded(node("three"))
	assert.Equal(t, "two", next.History[1].Narrative)
	assert.Equal(t, "three", other.History[1].Narrative)
}

func TestChoiceFailed_KeepsHistory(t *testing.T) {
	before := New("", "Alex").StartRequested("Detective Noir", "Alex").StartSucceeded(node("one"))
	after := before.ChoiceRequested().ChoiceFailed("nope")

	assert.Equal(t, before.History, after.History)
	assert.Equal(t, before.CurrentTurn, after.CurrentTurn)
	assert.False(t, after.IsLoadingText)
	assert.Equal(t, "nope", after.Error)

	assert.Empty(t, after.ErrorDismissed().Error)
}

func TestImageResolved(t *testing.T) {
	s := New("", "Alex").StartRequested("Detective Noir", "Alex").StartSucceeded(node("one"))
	s = s.ImageRequested(0)
	assert.True(t, s.IsLoadingImage)
	assert.Empty(t, s.CurrentImage)

	resolved, applied := s.ImageResolved(0, "data:image/png;base64,AAAA")
	assert.True(t, applied)
	assert.Equal(t, "data:image/png;base64,AAAA", resolved.CurrentImage)
	assert.False(t, resolved.IsLoadingImage)
}

func TestImageResolved_DiscardsStaleTurn(t *testing.T) {
	s := New("", "Alex").StartRequested("Detective Noir", "Alex").StartSucceeded(node("one"))
	s = s.ImageRequested(0)
	s = s.ChoiceRequested().ChoiceSucceeded(node("two")).ImageRequested(1)

	stale, applied := s.ImageResolved(0, "old-art")
	assert.False(t, applied)
	assert.Equal(t, s, stale)
	assert.True(t, stale.IsLoadingImage)
	assert.Empty(t, stale.CurrentImage)

	fresh, applied := s.ImageResolved(1, "new-art")
	assert.True(t, applied)
	assert.Equal(t, "new-art", fresh.CurrentImage)
}
