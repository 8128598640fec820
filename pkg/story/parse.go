package story

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// MinChoices is the fewest choices a page may offer; a page without choices
// would end the game.
const MinChoices = 2

var (
	// ErrEmptyNode is returned when the model produced no text at all.
	ErrEmptyNode = errors.New("no text returned from model")
	// ErrTooFewChoices is returned for a page offering fewer than MinChoices choices.
	ErrTooFewChoices = errors.New("too few choices")
	// ErrDuplicateChoice is returned when two choices share an id.
	ErrDuplicateChoice = errors.New("duplicate choice id")
)

// MissingFieldError reports a required field the model left out.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field %q", e.Field)
}

// wireNode mirrors StoryNode with pointer fields so that absent keys can be told
// apart from empty strings.
type wireNode struct {
	Narrative         *string       `json:"narrative"`
	SpeakerName       *string       `json:"speakerName"`
	Dialogue          *string       `json:"dialogue"`
	VisualDescription *string       `json:"visualDescription"`
	Choices           *[]wireChoice `json:"choices"`
	BackgroundStyle   *string       `json:"backgroundStyle"`
	SoundEffectText   *string       `json:"soundEffectText"`
}

type wireChoice struct {
	ID         *string `json:"id"`
	Text       *string `json:"text"`
	ActionType *string `json:"actionType"`
}

// ParseNode decodes model output into a StoryNode. Every field the response
// schema marks as required must be present, the page must offer at least
// MinChoices choices, and every choice needs a unique non-empty id, a text and a
// known action type.
func ParseNode(data []byte) (*StoryNode, error) {
	data = bytes.TrimSpace(stripCodeFence(data))
	if len(data) == 0 {
		return nil, ErrEmptyNode
	}

	var w wireNode
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("malformed story node JSON: %w", err)
	}

	required := []struct {
		name  string
		value *string
	}{
		{"narrative", w.Narrative},
		{"speakerName", w.SpeakerName},
		{"dialogue", w.Dialogue},
		{"visualDescription", w.VisualDescription},
		{"backgroundStyle", w.BackgroundStyle},
	}
	for _, f := range required {
		if f.value == nil {
			return nil, &MissingFieldError{Field: f.name}
		}
	}
	if w.Choices == nil {
		return nil, &MissingFieldError{Field: "choices"}
	}
	if n := len(*w.Choices); n < MinChoices {
		return nil, fmt.Errorf("%w: expected at least %d, got %d", ErrTooFewChoices, MinChoices, n)
	}

	node := &StoryNode{
		Narrative:         *w.Narrative,
		SpeakerName:       *w.SpeakerName,
		Dialogue:          *w.Dialogue,
		VisualDescription: *w.VisualDescription,
		BackgroundStyle:   *w.BackgroundStyle,
		Choices:           make([]Choice, 0, len(*w.Choices)),
	}
	if w.SoundEffectText != nil {
		node.SoundEffectText = *w.SoundEffectText
	}

	seen := make(map[string]bool, len(*w.Choices))
	for i, c := range *w.Choices {
		switch {
		case c.ID == nil || strings.TrimSpace(*c.ID) == "":
			return nil, &MissingFieldError{Field: fmt.Sprintf("choices[%d].id", i)}
		case c.Text == nil:
			return nil, &MissingFieldError{Field: fmt.Sprintf("choices[%d].text", i)}
		case c.ActionType == nil:
			return nil, &MissingFieldError{Field: fmt.Sprintf("choices[%d].actionType", i)}
		}
		if seen[*c.ID] {
			return nil, fmt.Errorf("choices[%d]: %w %q", i, ErrDuplicateChoice, *c.ID)
		}
		seen[*c.ID] = true

		at := ActionType(strings.ToLower(strings.TrimSpace(*c.ActionType)))
		if !at.Valid() {
			return nil, fmt.Errorf("choices[%d]: unknown actionType %q", i, *c.ActionType)
		}
		node.Choices = append(node.Choices, Choice{
			ID:         *c.ID,
			Text:       *c.Text,
			ActionType: at,
		})
	}

	return node, nil
}

// stripCodeFence removes a surrounding ```json fence some models add even in JSON mode.
func stripCodeFence(data []byte) []byte {
	s := strings.TrimSpace(string(data))
	if !strings.HasPrefix(s, "```") {
		return data
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return []byte(s)
}
