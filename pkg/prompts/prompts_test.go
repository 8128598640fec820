package prompts

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/comic-crush/pkg/story"
)

func turn(narrative, speaker, dialogue string) story.StoryNode {
	return story.StoryNode{Narrative: narrative, SpeakerName: speaker, Dialogue: dialogue}
}

func TestOpeningPrompt(t *testing.T) {
	p := OpeningPrompt("Detective Noir", "Sam")
	assert.Contains(t, p, "Detective Noir")
	assert.Contains(t, p, "Sam")
	assert.Contains(t, p, "2 or 3 choices")
}

func TestOpeningPrompt_DefaultGenre(t *testing.T) {
	assert.Contains(t, OpeningPrompt("", "Sam"), string(story.DefaultGenre))
}

func TestNextTurnPrompt(t *testing.T) {
	p := NextTurnPrompt("Narrator: Rain.\nVera: Hi.", "Kiss her")
	assert.True(t, strings.HasPrefix(p, "Context so far:\nNarrator: Rain.\nVera: Hi."))
	assert.Contains(t, p, `The player chose: "Kiss her"`)
}

func TestImagePrompt(t *testing.T) {
	p := ImagePrompt("  A rooftop at dusk  ")
	assert.Contains(t, p, "Scene: A rooftop at dusk\n")
	assert.Contains(t, p, "Ben-Day dots")
	assert.Contains(t, p, "Do not include speech bubbles or text overlay.")
}

func TestBuildContext(t *testing.T) {
	tests := []struct {
		name    string
		history []story.StoryNode
		window  int
		want    string
	}{
		{
			name:    "empty history",
			history: nil,
			want:    "",
		},
		{
			name:    "single node",
			history: []story.StoryNode{turn("Rain falls.", "Vera", "Hi.")},
			want:    "Narrator: Rain falls.\nVera: Hi.",
		},
		{
			name: "nodes joined by newline",
			history: []story.StoryNode{
				turn("One.", "A", "a"),
				turn("Two.", "Narrator", ""),
			},
			want: "Narrator: One.\nA: a\nNarrator: Two.\nNarrator: ",
		},
		{
			name:    "truncated to tail",
			history: []story.StoryNode{turn("abcdef", "X", "yz")},
			window:  5,
			want:    "X: yz",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildContext(tt.history, tt.window)
			if tt.window > 0 {
				assert.LessOrEqual(t, utf8.RuneCountInString(got), tt.window)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildContext_DefaultWindow(t *testing.T) {
	long := strings.Repeat("x", 3000)
	history := []story.StoryNode{
		turn("first", "A", "start"),
		turn(long, "B", "END"),
	}

	got := BuildContext(history, 0)
	assert.Equal(t, DefaultContextWindow, utf8.RuneCountInString(got))
	assert.True(t, strings.HasSuffix(got, "B: END"))
	assert.NotContains(t, got, "start")
}

func TestBuildContext_CountsRunes(t *testing.T) {
	history := []story.StoryNode{turn("ééééé", "Zoë", "ça va")}
	got := BuildContext(history, 8)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, "ë: ça va", got)
}

func TestStoryNodeSchema(t *testing.T) {
	schema := StoryNodeSchema()
	required, ok := schema["required"].([]string)
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"narrative", "speakerName", "dialogue", "visualDescription", "choices", "backgroundStyle"}, required)

	props := schema["properties"].(map[string]interface{})
	assert.NotContains(t, required, "soundEffectText")
	assert.Contains(t, props, "soundEffectText")

	choices := props["choices"].(map[string]interface{})
	items := choices["items"].(map[string]interface{})
	actionType := items["properties"].(map[string]interface{})["actionType"].(map[string]interface{})
	assert.Equal(t, []string{"neutral", "romantic", "aggressive", "funny"}, actionType["enum"])
}
