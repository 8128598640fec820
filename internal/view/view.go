// Package view turns a GameState into what the player sees. Everything here is
// a pure function of the state: rendering the same state twice gives the same
// output.
package view

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jwebster45206/comic-crush/pkg/state"
	"github.com/jwebster45206/comic-crush/pkg/story"
)

const (
	TextDrawing      = "DRAWING..."
	TextWaiting      = "Waiting for signal..."
	TextWritingPage  = "Writing next page..."
	TextIssue        = "ISSUE #1"
	TextStartLoading = "PRINTING..."
)

// toUpper upper-cases s for display. Casers are stateful, so each call gets its own.
func toUpper(s string) string {
	return cases.Upper(language.English).String(s)
}

// Header is the strip above the panel.
type Header struct {
	Issue      string
	Page       int
	GenreBadge string
}

// Panel is the comic panel art area.
type Panel struct {
	ImageRef    string
	Loading     bool
	Empty       bool
	Status      string // loading or empty text
	SoundEffect string // hidden while loading
	Alt         string
}

// DialogueBox is the caption plus the optional speech bubble.
type DialogueBox struct {
	Caption    string
	ShowBubble bool
	Speaker    string
	Dialogue   string
}

// ChoiceButton is one numbered choice.
type ChoiceButton struct {
	Number     int
	ID         string
	Text       string
	ActionType story.ActionType
	Color      string
}

// Controls is the choice list, replaced by a loading note while text is in flight.
type Controls struct {
	Loading     bool
	LoadingText string
	Choices     []ChoiceButton
}

// Toast is the dismissible error message.
type Toast struct {
	Visible bool
	Message string
}

// GenreOption is one entry of the start screen genre picker.
type GenreOption struct {
	Name     string
	Selected bool
}

// Page is the full screen for one state.
type Page struct {
	GameID     string
	Started    bool
	PlayerName string
	Genres     []GenreOption
	Starting   bool

	Header   Header
	Panel    Panel
	Dialogue DialogueBox
	Controls Controls
	Toast    Toast
}

// Build derives the page for s.
func Build(gameID string, s state.GameState) Page {
	p := Page{
		GameID:     gameID,
		Started:    s.Phase() == state.PhasePlaying,
		PlayerName: s.PlayerName,
		Genres:     GenreOptions(s.Genre),
		Starting:   s.IsLoadingText && s.CurrentTurn == nil,
		Toast:      BuildToast(s),
	}
	if !p.Started {
		return p
	}

	p.Header = BuildHeader(s)
	p.Panel = BuildPanel(s)
	p.Dialogue = BuildDialogue(*s.CurrentTurn)
	p.Controls = BuildControls(s)
	return p
}

// BuildHeader returns the issue strip.
func BuildHeader(s state.GameState) Header {
	return Header{
		Issue:      TextIssue,
		Page:       s.TurnIndex() + 1,
		GenreBadge: GenreBadge(s.Genre),
	}
}

// BuildPanel returns the art area.
func BuildPanel(s state.GameState) Panel {
	p := Panel{ImageRef: s.CurrentImage}
	if s.CurrentTurn != nil {
		p.Alt = s.CurrentTurn.VisualDescription
	}

	switch {
	case s.IsLoadingImage:
		p.Loading = true
		p.Status = TextDrawing
	case s.CurrentImage == "":
		p.Empty = true
		p.Status = TextWaiting
	}

	if !p.Loading && s.CurrentTurn != nil {
		p.SoundEffect = strings.TrimSpace(s.CurrentTurn.SoundEffectText)
	}
	return p
}

// BuildDialogue returns the caption and bubble for node. Narration and empty
// dialogue get no bubble.
func BuildDialogue(node story.StoryNode) DialogueBox {
	d := DialogueBox{
		Caption: toUpper(node.Narrative),
	}
	if !node.IsNarration() && strings.TrimSpace(node.Dialogue) != "" {
		d.ShowBubble = true
		d.Speaker = toUpper(node.SpeakerName)
		d.Dialogue = node.Dialogue
	}
	return d
}

// BuildControls returns the choices, or the loading note while text is in flight.
func BuildControls(s state.GameState) Controls {
	if s.IsLoadingText {
		return Controls{Loading: true, LoadingText: TextWritingPage}
	}
	if s.CurrentTurn == nil {
		return Controls{}
	}

	c := Controls{Choices: make([]ChoiceButton, 0, len(s.CurrentTurn.Choices))}
	for i, choice := range s.CurrentTurn.Choices {
		c.Choices = append(c.Choices, ChoiceButton{
			Number:     i + 1,
			ID:         choice.ID,
			Text:       choice.Text,
			ActionType: choice.ActionType,
			Color:      ChoiceColor(choice.ActionType),
		})
	}
	return c
}

// BuildToast returns the error toast.
func BuildToast(s state.GameState) Toast {
	if s.Error == "" {
		return Toast{}
	}
	return Toast{Visible: true, Message: fmt.Sprintf("ERROR: %s", s.Error)}
}

// ChoiceColor names the button colour for an action type.
func ChoiceColor(a story.ActionType) string {
	switch a {
	case story.ActionRomantic:
		return "pink"
	case story.ActionAggressive:
		return "red"
	case story.ActionFunny:
		return "green"
	default:
		return "cyan"
	}
}

// GenreBadge is the first word of the genre, upper-cased.
func GenreBadge(genre string) string {
	fields := strings.Fields(genre)
	if len(fields) == 0 {
		return ""
	}
	return toUpper(fields[0])
}

// GenreOptions lists the catalog with selected marked. A genre outside the
// catalog is appended so the picker can show it.
func GenreOptions(selected string) []GenreOption {
	if selected == "" {
		selected = string(story.DefaultGenre)
	}
	opts := make([]GenreOption, 0, len(story.Genres)+1)
	found := false
	for _, g := range story.Genres {
		isSel := string(g) == selected
		found = found || isSel
		opts = append(opts, GenreOption{Name: string(g), Selected: isSel})
	}
	if !found {
		opts = append(opts, GenreOption{Name: selected, Selected: true})
	}
	return opts
}
