package main

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jwebster45206/comic-crush/internal/view"
)

const PlaceHolderText = "Enter your name..."

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config       *ConsoleConfig
	client       *http.Client
	streamClient *http.Client

	game     *GameResponse
	page     view.Page
	viewport viewport.Model
	ready    bool
	width    int
	height   int
	err      error
	status   string
	loading  bool

	// Start screen state
	showStartModal bool
	loadingGenres  bool
	nameInput      textinput.Model
	genres         []string
	selectedGenre  int

	// Quit confirmation state
	showQuitModal bool

	// Progress bar state
	progressTick int

	events       chan SSEEvent
	cancelEvents context.CancelFunc
}

type genresLoadedMsg struct {
	genres *GenresResponse
	err    error
}

type gameMsg struct {
	game *GameResponse
	err  error
}

type sseEventMsg struct {
	event SSEEvent
	ok    bool
}

type sseClosedMsg struct {
	err error
}

type clipboardMsg struct {
	err error
}

type progressTickMsg struct{}

var (
	gamePanelStyle = lipgloss.NewStyle().
			PaddingTop(1).
			PaddingLeft(2).
			PaddingRight(2)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.ThickBorder()).
			BorderForeground(lipgloss.Color("0")).
			Padding(1, 2).
			Background(lipgloss.Color("230")).
			Foreground(lipgloss.Color("0"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true).
			Align(lipgloss.Center)

	modalItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0"))

	modalSelectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("255")).
				Background(lipgloss.Color("0")).
				Bold(true)
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

func NewConsoleUI(cfg *ConsoleConfig, client, streamClient *http.Client) ConsoleUI {
	ti := textinput.New()
	ti.Placeholder = PlaceHolderText
	ti.CharLimit = 40
	ti.Width = 30
	ti.Focus()

	vp := viewport.New(60, 20)
	vp.MouseWheelEnabled = true

	return ConsoleUI{
		config:         cfg,
		client:         client,
		streamClient:   streamClient,
		nameInput:      ti,
		viewport:       vp,
		showStartModal: true,
		loadingGenres:  true,
	}
}

func (m ConsoleUI) Init() tea.Cmd {
	return tea.Batch(m.loadGenres(), textinput.Blink)
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Events keep arriving while a modal is open
	switch msg := msg.(type) {
	case sseEventMsg:
		if !msg.ok {
			return m, nil
		}
		return m, tea.Batch(m.refreshGame(), waitForEvent(m.events))
	case sseClosedMsg:
		if msg.err != nil {
			m.status = "Live updates lost: " + msg.err.Error()
		}
		return m, nil
	}

	if m.showStartModal {
		return m.updateStartModal(msg)
	}
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var vpCmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		}

		switch key := msg.String(); key {
		case "1", "2", "3", "4", "5", "6", "7", "8", "9":
			return m.choose(int(key[0] - '0'))
		case "d":
			if m.page.Toast.Visible {
				return m, m.dismiss()
			}
		case "c":
			if ref := m.page.Panel.ImageRef; ref != "" {
				return m, copyToClipboard(ref)
			}
			m.status = "No panel art to copy yet"
		case "r":
			return m, m.refreshGame()
		}

	case gameMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			// clear the loading state set when the choice was sent
			if m.game != nil && m.game.State.IsLoadingText {
				m.game.State.IsLoadingText = false
				m.page = view.Build(m.game.ID, m.game.State)
			}
		} else {
			m.err = nil
			m.setGame(msg.game)
		}
		m.writeContent()

	case clipboardMsg:
		if msg.err != nil {
			m.status = "Copy failed: " + msg.err.Error()
		} else {
			m.status = "Panel art reference copied"
		}

	case progressTickMsg:
		if m.loading {
			m.progressTick++
			return m, progressTick()
		}
	}

	m.viewport, vpCmd = m.viewport.Update(msg)
	return m, vpCmd
}

// choose applies the n-th choice of the current page.
func (m ConsoleUI) choose(n int) (tea.Model, tea.Cmd) {
	if m.loading || m.game == nil || m.page.Controls.Loading {
		return m, nil
	}
	choices := m.page.Controls.Choices
	if n < 1 || n > len(choices) {
		return m, nil
	}

	m.loading = true
	m.progressTick = 0
	m.status = ""
	m.game.State = m.game.State.ChoiceRequested()
	m.page = view.Build(m.game.ID, m.game.State)
	m.writeContent()

	return m, tea.Batch(m.sendChoice(choices[n-1].ID), progressTick())
}

func (m *ConsoleUI) setGame(g *GameResponse) {
	m.game = g
	m.page = view.Build(g.ID, g.State)
}

func (m *ConsoleUI) resize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width - 4
	m.viewport.Height = height - 5
	m.ready = true
	m.writeContent()
}

// writeContent redraws the comic page for the current viewport width
func (m *ConsoleUI) writeContent() {
	if m.game == nil {
		return
	}
	m.viewport.SetContent(view.RenderTerminal(m.page, m.viewport.Width))
}

func (m ConsoleUI) updateStartModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case genresLoadedMsg:
		m.loadingGenres = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.genres = msg.genres.Genres
		for i, g := range m.genres {
			if g == msg.genres.Default {
				m.selectedGenre = i
			}
		}
		return m, nil

	case gameMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		if !msg.game.State.GameStarted {
			m.err = errors.New(msg.game.State.Error)
			return m, nil
		}
		m.err = nil
		m.showStartModal = false
		m.setGame(msg.game)
		if m.width > 0 && m.height > 0 {
			m.resize(m.width, m.height)
		}
		return m, m.startEvents()

	case progressTickMsg:
		if m.loading {
			m.progressTick++
			return m, progressTick()
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			if m.loadingGenres {
				return m, tea.Quit
			}
			m.showQuitModal = true
			m.showStartModal = false
			return m, nil
		}
		if m.loading || m.loadingGenres {
			return m, nil
		}

		switch msg.Type {
		case tea.KeyUp, tea.KeyShiftTab:
			if m.selectedGenre > 0 {
				m.selectedGenre--
			}
			return m, nil
		case tea.KeyDown, tea.KeyTab:
			if m.selectedGenre < len(m.genres)-1 {
				m.selectedGenre++
			}
			return m, nil
		case tea.KeyEnter:
			name := strings.TrimSpace(m.nameInput.Value())
			if name == "" || len(m.genres) == 0 {
				return m, nil
			}
			m.loading = true
			m.progressTick = 0
			m.err = nil
			return m, tea.Batch(m.startGame(m.genres[m.selectedGenre], name), progressTick())
		}
	}

	var cmd tea.Cmd
	m.nameInput, cmd = m.nameInput.Update(msg)
	return m, cmd
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.game != nil {
			m.resize(msg.Width, msg.Height)
		}

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			return m, tea.Quit
		}
		switch msg.String() {
		case "y", "Y":
			return m, tea.Quit
		case "n", "N":
			m.showQuitModal = false
			if m.game == nil {
				m.showStartModal = true
				return m, textinput.Blink
			}
			return m, nil
		}

	// keep page requests landing while the modal is open
	case gameMsg:
		m.loading = false
		if msg.err == nil && msg.game.State.GameStarted {
			m.setGame(msg.game)
			m.writeContent()
		}
	}

	return m, nil
}

func (m ConsoleUI) View() string {
	if m.showQuitModal {
		return m.renderQuitModal()
	}
	if m.showStartModal {
		return m.renderStartModal()
	}
	if !m.ready {
		return "\n  Initializing..."
	}

	var footer string
	switch {
	case m.loading:
		footer = m.renderProgressBar()
	case m.err != nil:
		footer = errorStyle.Render("Error: " + m.err.Error())
	case m.status != "":
		footer = loadingStyle.Render(m.status)
	default:
		footer = promptStyle.Render("1-9: choose • d: dismiss error • c: copy art • r: refresh • Esc: quit")
	}

	return gamePanelStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		m.viewport.View(),
		separatorStyle.Render(strings.Repeat("─", max(m.width-4, 1))),
		footer,
	))
}

func (m ConsoleUI) renderStartModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("COMIC CRUSH"))
	content.WriteString("\n\n")

	switch {
	case m.loadingGenres:
		content.WriteString(loadingStyle.Render("Fetching genres..."))
	case m.loading:
		content.WriteString(loadingStyle.Render(view.TextStartLoading))
		content.WriteString("\n\n")
		content.WriteString(m.renderProgressBar())
	default:
		content.WriteString("Hero name\n")
		content.WriteString(m.nameInput.View())
		content.WriteString("\n\nChoose your genre\n")
		for i, g := range m.genres {
			if i == m.selectedGenre {
				content.WriteString(modalSelectedItemStyle.Render("▶ " + g))
			} else {
				content.WriteString(modalItemStyle.Render("  " + g))
			}
			content.WriteString("\n")
		}
		content.WriteString("\n")
		content.WriteString(promptStyle.Render("↑/↓ genre • Enter: start issue #1 • Esc: exit"))
	}

	if m.err != nil {
		content.WriteString("\n\n")
		content.WriteString(errorStyle.Render("ERROR: " + m.err.Error()))
	}

	modal := modalStyle.Width(60).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Close the Comic?"))
	content.WriteString("\n\n")
	content.WriteString("Are you sure you want to quit your issue?")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue, or Ctrl+C to force quit"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

// renderProgressBar creates an animated progress bar for loading states
func (m ConsoleUI) renderProgressBar() string {
	usable := m.width - 8
	if usable > 60 {
		usable = 60
	} else if usable < 10 {
		usable = 10
	}

	const totalFrames = 40
	frame := m.progressTick % totalFrames
	filled := (frame * usable) / totalFrames

	var bar strings.Builder
	for i := 0; i < usable; i++ {
		if i < filled {
			bar.WriteString("█")
		} else if i == filled && frame%4 < 2 {
			bar.WriteString("▓")
		} else {
			bar.WriteString("░")
		}
	}
	return separatorStyle.Render(bar.String())
}

func (m ConsoleUI) loadGenres() tea.Cmd {
	return func() tea.Msg {
		genres, err := listGenres(m.client, m.config.APIBaseURL)
		return genresLoadedMsg{genres, err}
	}
}

func (m ConsoleUI) startGame(genre, name string) tea.Cmd {
	return func() tea.Msg {
		g, err := createGame(m.client, m.config.APIBaseURL, genre, name)
		return gameMsg{g, err}
	}
}

func (m ConsoleUI) sendChoice(choiceID string) tea.Cmd {
	gameID := m.game.ID
	return func() tea.Msg {
		g, err := applyChoice(m.client, m.config.APIBaseURL, gameID, choiceID)
		return gameMsg{g, err}
	}
}

func (m ConsoleUI) dismiss() tea.Cmd {
	gameID := m.game.ID
	return func() tea.Msg {
		g, err := dismissError(m.client, m.config.APIBaseURL, gameID)
		return gameMsg{g, err}
	}
}

func (m ConsoleUI) refreshGame() tea.Cmd {
	if m.game == nil {
		return nil
	}
	gameID := m.game.ID
	return func() tea.Msg {
		g, err := getGame(m.client, m.config.APIBaseURL, gameID)
		return gameMsg{g, err}
	}
}

// startEvents opens the event stream for the current game. Any event triggers
// a refresh, so panel art shows up as soon as it is drawn.
func (m *ConsoleUI) startEvents() tea.Cmd {
	m.stopEvents()
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan SSEEvent, 8)
	m.events = ch
	m.cancelEvents = cancel

	client, baseURL, gameID := m.streamClient, m.config.APIBaseURL, m.game.ID
	listen := func() tea.Msg {
		err := listenToSSE(ctx, client, baseURL, gameID, ch)
		close(ch)
		return sseClosedMsg{err}
	}
	return tea.Batch(listen, waitForEvent(ch))
}

func (m ConsoleUI) stopEvents() {
	if m.cancelEvents != nil {
		m.cancelEvents()
	}
}

func waitForEvent(ch <-chan SSEEvent) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		return sseEventMsg{ev, ok}
	}
}

func copyToClipboard(text string) tea.Cmd {
	return func() tea.Msg {
		return clipboardMsg{clipboard.WriteAll(text)}
	}
}

// progressTick creates a command that sends a progress tick message
func progressTick() tea.Cmd {
	return tea.Tick(time.Millisecond*200, func(time.Time) tea.Msg {
		return progressTickMsg{}
	})
}
