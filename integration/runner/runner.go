package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jwebster45206/comic-crush/internal/services"
	"github.com/jwebster45206/comic-crush/pkg/state"
)

// PollInterval is how often panel art is checked while waiting for it
const PollInterval = 1 * time.Second

// Runner executes integration suites against a running comic-crush API
type Runner struct {
	BaseURL      string
	Client       *http.Client
	ImageTimeout time.Duration
	Logger       func(format string, args ...interface{})
}

type gameResponse struct {
	ID    string          `json:"id"`
	State state.GameState `json:"state"`
	Error string          `json:"error,omitempty"`
}

// NewRunner creates a new test runner
func NewRunner(baseURL string) *Runner {
	return &Runner{
		BaseURL:      strings.TrimSuffix(baseURL, "/"),
		Client:       &http.Client{Timeout: 90 * time.Second},
		ImageTimeout: 2 * time.Minute,
		Logger:       func(string, ...interface{}) {},
	}
}

// LoadTestSuite loads a test suite from a JSON file
func LoadTestSuite(filename string) (TestSuite, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return TestSuite{}, fmt.Errorf("failed to read test file %s: %w", filename, err)
	}

	var suite TestSuite
	if err := json.Unmarshal(content, &suite); err != nil {
		return TestSuite{}, fmt.Errorf("failed to parse JSON in %s: %w", filename, err)
	}
	return suite, nil
}

// RunSuite plays the suite from the opening page. A page the model failed to
// write ends the run.
func (r *Runner) RunSuite(ctx context.Context, suite TestSuite) (TestRunResult, error) {
	start := time.Now()
	result := TestRunResult{Name: suite.Name}

	stepStart := time.Now()
	game, err := r.send(ctx, http.MethodPost, "/v1/games", map[string]string{
		"genre":       suite.Genre,
		"player_name": suite.PlayerName,
	})
	if err != nil {
		return result, fmt.Errorf("failed to start game: %w", err)
	}
	result.GameID = game.ID
	defer r.cleanup(game.ID)
	r.Logger("  game %s started", game.ID)

	res := r.checkPage(ctx, "opening", game, suite.Opening)
	res.Duration = time.Since(stepStart)
	result.Results = append(result.Results, res)
	if game.Error != "" {
		result.Duration = time.Since(start)
		return result, nil
	}

	for i, step := range suite.Steps {
		name := step.Name
		if name == "" {
			name = fmt.Sprintf("step %d", i+1)
		}
		current := res.State.CurrentTurn
		if current == nil || step.Choice < 1 || step.Choice > len(current.Choices) {
			result.Results = append(result.Results, TestResult{
				Step:     name,
				Failures: []string{fmt.Sprintf("choice %d is not on the page", step.Choice)},
			})
			break
		}

		stepStart = time.Now()
		game, err = r.send(ctx, http.MethodPost, "/v1/games/"+game.ID+"/choices", map[string]string{
			"choice_id": current.Choices[step.Choice-1].ID,
		})
		if err != nil {
			return result, fmt.Errorf("%s: %w", name, err)
		}
		res = r.checkPage(ctx, name, game, step.Expect)
		res.Duration = time.Since(stepStart)
		result.Results = append(result.Results, res)
		r.Logger("  %s: passed=%v", name, res.Passed)
		if game.Error != "" {
			break
		}
	}

	result.Duration = time.Since(start)
	return result, nil
}

func (r *Runner) checkPage(ctx context.Context, name string, game *gameResponse, expect Expect) TestResult {
	s := game.State
	if game.Error == "" && expect.PanelArt {
		var err error
		if s, err = r.waitForArt(ctx, game.ID); err != nil {
			return TestResult{Step: name, State: game.State, Failures: []string{err.Error()}}
		}
	}

	failures := CheckExpectations(s, expect)
	if game.Error != "" {
		failures = append([]string{"model failed to write the page: " + game.Error}, failures...)
	}
	return TestResult{Step: name, Passed: len(failures) == 0, Failures: failures, State: s}
}

// waitForArt polls until the current page has its panel art.
func (r *Runner) waitForArt(ctx context.Context, gameID string) (state.GameState, error) {
	ctx, cancel := context.WithTimeout(ctx, r.ImageTimeout)
	defer cancel()

	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()
	for {
		game, err := r.send(ctx, http.MethodGet, "/v1/games/"+gameID, nil)
		if err != nil {
			return state.GameState{}, err
		}
		if !game.State.IsLoadingImage {
			return game.State, nil
		}
		select {
		case <-ctx.Done():
			return game.State, fmt.Errorf("panel art not ready after %s", r.ImageTimeout)
		case <-ticker.C:
		}
	}
}

// CheckExpectations returns a description of every expectation s does not meet.
func CheckExpectations(s state.GameState, expect Expect) []string {
	var failures []string
	if s.CurrentTurn == nil {
		return []string{"no current page"}
	}

	if expect.HistoryLength != nil && len(s.History) != *expect.HistoryLength {
		failures = append(failures, fmt.Sprintf("history length: expected %d, got %d", *expect.HistoryLength, len(s.History)))
	}
	n := len(s.CurrentTurn.Choices)
	if expect.MinChoices != nil && n < *expect.MinChoices {
		failures = append(failures, fmt.Sprintf("choices: expected at least %d, got %d", *expect.MinChoices, n))
	}
	if expect.MaxChoices != nil && n > *expect.MaxChoices {
		failures = append(failures, fmt.Sprintf("choices: expected at most %d, got %d", *expect.MaxChoices, n))
	}
	for _, c := range s.CurrentTurn.Choices {
		if !c.ActionType.Valid() {
			failures = append(failures, fmt.Sprintf("choice %q has unknown action type %q", c.ID, c.ActionType))
		}
	}

	if expect.PanelArt {
		switch {
		case s.CurrentImage == "":
			failures = append(failures, "panel art missing")
		case services.IsPlaceholder(s.CurrentImage) && !expect.AllowPlaceholder:
			failures = append(failures, "panel art fell back to the placeholder")
		}
	}

	caption := strings.ToLower(s.CurrentTurn.Narrative)
	for _, want := range expect.CaptionContains {
		if !strings.Contains(caption, strings.ToLower(want)) {
			failures = append(failures, fmt.Sprintf("caption does not contain %q", want))
		}
	}
	return failures
}

func (r *Runner) send(ctx context.Context, method, path string, body interface{}) (*gameResponse, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.BaseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	// 502 means the model failed; the body still carries the state
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusBadGateway {
		return nil, fmt.Errorf("%s %s returned %d: %s", method, path, resp.StatusCode, string(data))
	}

	var game gameResponse
	if err := json.Unmarshal(data, &game); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &game, nil
}

func (r *Runner) cleanup(gameID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, r.BaseURL+"/v1/games/"+gameID, nil)
	if err != nil {
		return
	}
	if resp, err := r.Client.Do(req); err == nil {
		_ = resp.Body.Close()
	}
}
