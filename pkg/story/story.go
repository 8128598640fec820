package story

import "fmt"

// NarratorSpeaker is the speaker name the model uses when nobody is talking.
// A node spoken by the narrator gets a caption but no speech bubble.
const NarratorSpeaker = "Narrator"

// ActionType is the tonal tag on a choice. It only steers prompting and button styling.
type ActionType string

const (
	ActionNeutral    ActionType = "neutral"
	ActionRomantic   ActionType = "romantic"
	ActionAggressive ActionType = "aggressive"
	ActionFunny      ActionType = "funny"
)

// ActionTypes lists every valid action type in schema order.
var ActionTypes = []ActionType{ActionNeutral, ActionRomantic, ActionAggressive, ActionFunny}

// Valid reports whether a is one of the known action types.
func (a ActionType) Valid() bool {
	for _, t := range ActionTypes {
		if a == t {
			return true
		}
	}
	return false
}

// Choice is a player-selectable branch produced by the model.
type Choice struct {
	ID         string     `json:"id"`
	Text       string     `json:"text"`
	ActionType ActionType `json:"actionType"`
}

// StoryNode is everything the model produced for one turn.
// Nodes are created atomically and never mutated afterwards.
type StoryNode struct {
	Narrative         string   `json:"narrative"`
	SpeakerName       string   `json:"speakerName"`
	Dialogue          string   `json:"dialogue"`
	VisualDescription string   `json:"visualDescription"`
	Choices           []Choice `json:"choices"`
	BackgroundStyle   string   `json:"backgroundStyle"`
	SoundEffectText   string   `json:"soundEffectText,omitempty"`
}

// IsNarration reports whether the node has no character dialogue bubble.
func (n *StoryNode) IsNarration() bool {
	return n.SpeakerName == NarratorSpeaker
}

// FindChoice returns the choice with the given id.
func (n *StoryNode) FindChoice(id string) (Choice, bool) {
	for _, c := range n.Choices {
		if c.ID == id {
			return c, true
		}
	}
	return Choice{}, false
}

// ContextLines formats the node the way it is fed back to the model as history.
func (n *StoryNode) ContextLines() string {
	return fmt.Sprintf("%s: %s\n%s: %s", NarratorSpeaker, n.Narrative, n.SpeakerName, n.Dialogue)
}
