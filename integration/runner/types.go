package runner

import (
	"time"

	"github.com/jwebster45206/comic-crush/pkg/state"
)

// TestSuite is one scripted playthrough: start an issue, then pick choices.
type TestSuite struct {
	Name       string     `json:"name"`
	Genre      string     `json:"genre,omitempty"`
	PlayerName string     `json:"player_name"`
	Opening    Expect     `json:"expect_opening"`
	Steps      []TestStep `json:"steps,omitempty"`
}

// TestStep picks the choice at a 1-based position on the current page.
type TestStep struct {
	Name   string `json:"name,omitempty"`
	Choice int    `json:"choice"`
	Expect Expect `json:"expect"`
}

// Expect defines what to check after a page is written.
type Expect struct {
	HistoryLength *int `json:"history_length,omitempty"`
	MinChoices    *int `json:"min_choices,omitempty"`
	MaxChoices    *int `json:"max_choices,omitempty"`
	// PanelArt waits for the image of the page to resolve
	PanelArt bool `json:"panel_art,omitempty"`
	// AllowPlaceholder accepts the fallback image as panel art
	AllowPlaceholder bool     `json:"allow_placeholder,omitempty"`
	CaptionContains  []string `json:"caption_contains,omitempty"`
}

// TestResult contains the outcome of one page
type TestResult struct {
	Step     string
	Passed   bool
	Failures []string
	Duration time.Duration
	State    state.GameState
}

// TestRunResult contains the outcome of a whole suite
type TestRunResult struct {
	Name     string
	GameID   string
	Results  []TestResult
	Duration time.Duration
}

// Passed reports whether every page met its expectations.
func (r TestRunResult) Passed() bool {
	for _, res := range r.Results {
		if !res.Passed {
			return false
		}
	}
	return len(r.Results) > 0
}
