package services

import (
	"context"
	"os"

	"github.com/jwebster45206/comic-crush/pkg/story"
)

// ModelService defines the interface for the hosted story and image models.
type ModelService interface {
	// GenerateStoryTurn returns the next StoryNode for a prompt.
	GenerateStoryTurn(ctx context.Context, prompt string) (*story.StoryNode, error)

	// GenerateComicImage returns a data URI or URL for a panel described by description.
	// Generation failures fall back to a placeholder image with a nil error.
	GenerateComicImage(ctx context.Context, description string) (string, error)

	// Name identifies the provider in logs and metrics.
	Name() string
}

// CredentialFunc returns the API key to use for a call. It is evaluated on every
// call so a key set after startup is picked up.
type CredentialFunc func() string

// EnvCredential reads the first non-empty environment variable in names.
func EnvCredential(names ...string) CredentialFunc {
	return func() string {
		for _, name := range names {
			if v := os.Getenv(name); v != "" {
				return v
			}
		}
		return ""
	}
}

// StaticCredential always returns key.
func StaticCredential(key string) CredentialFunc {
	return func() string { return key }
}
