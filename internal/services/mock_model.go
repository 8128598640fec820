package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/jwebster45206/comic-crush/pkg/story"
)

// MockModelService is a mock implementation of ModelService for testing
type MockModelService struct {
	GenerateStoryTurnFunc  func(ctx context.Context, prompt string) (*story.StoryNode, error)
	GenerateComicImageFunc func(ctx context.Context, description string) (string, error)

	// Track calls for testing
	StoryTurnCalls  []string
	ComicImageCalls []string

	mu sync.Mutex // protects all fields above
}

// NewMockModelService creates a new mock model service
func NewMockModelService() *MockModelService {
	return &MockModelService{
		StoryTurnCalls:  make([]string, 0),
		ComicImageCalls: make([]string, 0),
	}
}

// Name returns the provider name.
func (m *MockModelService) Name() string {
	return "mock"
}

// GenerateStoryTurn mocks text generation. The func field is called without the
// lock held so it may block.
func (m *MockModelService) GenerateStoryTurn(ctx context.Context, prompt string) (*story.StoryNode, error) {
	m.mu.Lock()
	m.StoryTurnCalls = append(m.StoryTurnCalls, prompt)
	fn := m.GenerateStoryTurnFunc
	n := len(m.StoryTurnCalls)
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, prompt)
	}

	// Default behavior - a two-choice page numbered by call count
	return MockNode(n), nil
}

// GenerateComicImage mocks image generation. The func field is called without
// the lock held so it may block.
func (m *MockModelService) GenerateComicImage(ctx context.Context, description string) (string, error) {
	m.mu.Lock()
	m.ComicImageCalls = append(m.ComicImageCalls, description)
	fn := m.GenerateComicImageFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, description)
	}

	return "data:image/png;base64,bW9jaw==", nil
}

// SetStoryTurnError sets up the mock to return an error on GenerateStoryTurn
func (m *MockModelService) SetStoryTurnError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GenerateStoryTurnFunc = func(ctx context.Context, prompt string) (*story.StoryNode, error) {
		return nil, err
	}
}

// SetComicImageError sets up the mock to return an error on GenerateComicImage
func (m *MockModelService) SetComicImageError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GenerateComicImageFunc = func(ctx context.Context, description string) (string, error) {
		return "", err
	}
}

// Reset clears all call tracking
func (m *MockModelService) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StoryTurnCalls = make([]string, 0)
	m.ComicImageCalls = make([]string, 0)
}

// GetCalls returns a copy of the call tracking data in a thread-safe way
func (m *MockModelService) GetCalls() ([]string, []string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	turnCalls := make([]string, len(m.StoryTurnCalls))
	copy(turnCalls, m.StoryTurnCalls)

	imageCalls := make([]string, len(m.ComicImageCalls))
	copy(imageCalls, m.ComicImageCalls)

	return turnCalls, imageCalls
}

// MockNode returns a deterministic page for tests and local development.
func MockNode(n int) *story.StoryNode {
	return &story.StoryNode{
		Narrative:         fmt.Sprintf("Page %d. The city holds its breath.", n),
		SpeakerName:       "Vera",
		Dialogue:          fmt.Sprintf("This is line %d.", n),
		VisualDescription: fmt.Sprintf("Panel %d, rooftop at dusk, bold ink lines", n),
		BackgroundStyle:   "city",
		Choices: []story.Choice{
			{ID: fmt.Sprintf("%d-a", n), Text: "Take her hand", ActionType: story.ActionRomantic},
			{ID: fmt.Sprintf("%d-b", n), Text: "Kick the door in", ActionType: story.ActionAggressive},
		},
	}
}
