package prompts

import (
	"fmt"
	"strings"

	"github.com/jwebster45206/comic-crush/pkg/story"
)

// SystemInstruction is sent with every text request.
const SystemInstruction = `You are the writer and director of an interactive comic book. You write one page at a time and the reader decides what the protagonist does next.

### Style guidelines:
- Narrative captions are punchy and short, at most 3 sentences.
- Dialogue is bold and in character. Keep it to one or two lines.
- Describe visuals the way a comic artist would read a script: camera angle, pose, lighting, mood.
- Use onomatopoeia for sound effects when the action calls for it (KRAK!, WHOOSH!, BOOM!).
- Offer 2 or 3 choices. Give each a tone: neutral, romantic, aggressive or funny.
- Romantic choices advance a relationship. Aggressive choices escalate conflict. Funny choices lighten the scene.

### Output:
Respond with strictly valid JSON and nothing else. No markdown, no commentary.`

// JSONShape spells out the node structure for providers that cannot take a response schema.
const JSONShape = `The JSON object has exactly these fields:
{
  "narrative": "narration caption for this page",
  "speakerName": "name of the character speaking; use 'Narrator' if no one is speaking",
  "dialogue": "what the speaker says",
  "visualDescription": "detailed description of the panel art including comic style keywords",
  "choices": [{"id": "1", "text": "what the protagonist does", "actionType": "neutral|romantic|aggressive|funny"}],
  "backgroundStyle": "short keyword for the background mood, e.g. city, space, school",
  "soundEffectText": "optional onomatopoeia, omit or leave empty if none"
}`

// OpeningTemplate starts a new issue. Params: genre, protagonist name.
const OpeningTemplate = `Start a new %s comic book story. The protagonist is named %s.
Establish the setting and introduce the first conflict or encounter on this opening page.
Give the protagonist 2 or 3 choices for what to do next.`

// NextTurnTemplate continues the story. Params: context, chosen choice text.
const NextTurnTemplate = `Context so far:
%s

The player chose: "%s"

Continue the story with the next page. Show the consequence of that choice.
If the choice was romantic, advance the relationship. If it was aggressive, escalate the conflict.
Give the protagonist 2 or 3 new choices.`

// ImageTemplate wraps a node's visual description for the image model. Param: scene.
const ImageTemplate = `Create a comic book panel illustration.
Style: Modern American superhero comic, sharp ink lines, vibrant coloring, Ben-Day dots texture, dynamic composition.
Scene: %s
Do not include speech bubbles or text overlay.`

// DefaultContextWindow is how many trailing characters of history are sent back to the model.
const DefaultContextWindow = 1000

// OpeningPrompt returns the prompt for the first page of a new game.
func OpeningPrompt(genre, playerName string) string {
	if genre == "" {
		genre = string(story.DefaultGenre)
	}
	return fmt.Sprintf(OpeningTemplate, genre, playerName)
}

// NextTurnPrompt returns the prompt for the page that follows a choice.
func NextTurnPrompt(context, choiceText string) string {
	return fmt.Sprintf(NextTurnTemplate, context, choiceText)
}

// ImagePrompt returns the image model prompt for a panel.
func ImagePrompt(visualDescription string) string {
	return fmt.Sprintf(ImageTemplate, strings.TrimSpace(visualDescription))
}

// BuildContext joins the history as narrator and speaker lines and keeps only the
// last window characters. A window of zero or less uses DefaultContextWindow.
func BuildContext(history []story.StoryNode, window int) string {
	if window <= 0 {
		window = DefaultContextWindow
	}

	lines := make([]string, 0, len(history))
	for i := range history {
		lines = append(lines, history[i].ContextLines())
	}
	context := strings.Join(lines, "\n")

	runes := []rune(context)
	if len(runes) <= window {
		return context
	}
	return string(runes[len(runes)-window:])
}
