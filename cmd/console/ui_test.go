package main

import (
	"errors"
	"net/http"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/comic-crush/pkg/state"
	"github.com/jwebster45206/comic-crush/pkg/story"
)

func playingUI(t *testing.T) ConsoleUI {
	t.Helper()
	m := NewConsoleUI(&ConsoleConfig{APIBaseURL: "http://localhost:0"}, http.DefaultClient, http.DefaultClient)
	m.showStartModal = false
	s := state.New("Detective Noir", "Sam").
		StartRequested("Detective Noir", "Sam").
		StartSucceeded(story.StoryNode{
			Narrative:   "Rain.",
			SpeakerName: "Vera",
			Dialogue:    "Late again.",
			Choices: []story.Choice{
				{ID: "a", Text: "Apologize", ActionType: story.ActionNeutral},
				{ID: "b", Text: "Flirt", ActionType: story.ActionRomantic},
			},
		})
	m.setGame(&GameResponse{ID: "g1", State: s})
	m.resize(80, 40)
	return m
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestConsoleUI_ChooseSetsLoading(t *testing.T) {
	m := playingUI(t)

	next, cmd := m.Update(key("2"))
	ui := next.(ConsoleUI)
	require.NotNil(t, cmd)
	assert.True(t, ui.loading)
	assert.True(t, ui.page.Controls.Loading)

	// a second choice while loading is ignored
	_, cmd = ui.Update(key("1"))
	assert.Nil(t, cmd)
}

func TestConsoleUI_ChooseOutOfRange(t *testing.T) {
	m := playingUI(t)
	next, cmd := m.Update(key("7"))
	assert.Nil(t, cmd)
	assert.False(t, next.(ConsoleUI).loading)
}

func TestConsoleUI_RequestErrorClearsLoading(t *testing.T) {
	m := playingUI(t)
	next, _ := m.Update(key("1"))

	next, _ = next.(ConsoleUI).Update(gameMsg{err: errors.New("connection refused")})
	ui := next.(ConsoleUI)
	assert.False(t, ui.loading)
	assert.False(t, ui.page.Controls.Loading)
	assert.Len(t, ui.page.Controls.Choices, 2)
	assert.Contains(t, ui.View(), "connection refused")
}

func TestConsoleUI_GameMsgRendersPage(t *testing.T) {
	m := playingUI(t)
	s := m.game.State.ChoiceRequested().ChoiceSucceeded(story.StoryNode{
		Narrative: "Dawn.", SpeakerName: story.NarratorSpeaker,
	})

	next, _ := m.Update(gameMsg{game: &GameResponse{ID: "g1", State: s}})
	ui := next.(ConsoleUI)
	assert.Equal(t, 2, ui.page.Header.Page)
	assert.Contains(t, ui.viewport.View(), "DAWN.")
}

func TestConsoleUI_QuitModal(t *testing.T) {
	m := playingUI(t)

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	ui := next.(ConsoleUI)
	assert.True(t, ui.showQuitModal)

	next, _ = ui.Update(key("n"))
	assert.False(t, next.(ConsoleUI).showQuitModal)

	_, cmd := ui.Update(key("y"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestConsoleUI_StartModal(t *testing.T) {
	m := NewConsoleUI(&ConsoleConfig{APIBaseURL: "http://localhost:0"}, http.DefaultClient, http.DefaultClient)
	next, _ := m.Update(genresLoadedMsg{genres: &GenresResponse{
		Genres:  []string{"Superhero Romance", "Detective Noir"},
		Default: "Detective Noir",
	}})
	ui := next.(ConsoleUI)
	assert.Equal(t, 1, ui.selectedGenre)

	// enter without a name does nothing
	_, cmd := ui.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)

	ui.nameInput.SetValue("Sam")
	next, cmd = ui.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.True(t, next.(ConsoleUI).loading)

	// a failed start stays on the modal with the message
	failed := state.New("Detective Noir", "Sam").StartRequested("Detective Noir", "Sam").StartFailed("Failed to start game.")
	next, _ = next.(ConsoleUI).Update(gameMsg{game: &GameResponse{ID: "g1", State: failed}})
	ui = next.(ConsoleUI)
	assert.True(t, ui.showStartModal)
	require.Error(t, ui.err)
	assert.Equal(t, "Failed to start game.", ui.err.Error())
}
