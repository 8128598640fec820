package services

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/jwebster45206/comic-crush/pkg/prompts"
	"github.com/jwebster45206/comic-crush/pkg/story"
)

const (
	DefaultOpenAITextModel  = "gpt-4o-mini"
	DefaultOpenAIImageModel = openai.CreateImageModelDallE3

	providerOpenAI = "openai"
)

// OpenAIService implements ModelService with an OpenAI-compatible API.
type OpenAIService struct {
	baseURL    string
	textModel  string
	imageModel string
	credential CredentialFunc
	httpClient *http.Client
	logger     *slog.Logger
}

// NewOpenAIService creates an OpenAI client. An empty baseURL uses the public API.
func NewOpenAIService(baseURL, textModel, imageModel string, credential CredentialFunc, logger *slog.Logger) *OpenAIService {
	if textModel == "" {
		textModel = DefaultOpenAITextModel
	}
	if imageModel == "" {
		imageModel = DefaultOpenAIImageModel
	}
	if credential == nil {
		credential = EnvCredential("API_KEY", "OPENAI_API_KEY")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OpenAIService{
		baseURL:    baseURL,
		textModel:  textModel,
		imageModel: imageModel,
		credential: credential,
		httpClient: &http.Client{},
		logger:     logger,
	}
}

// Name returns the provider name.
func (o *OpenAIService) Name() string {
	return providerOpenAI
}

// client builds a go-openai client for the current credential.
func (o *OpenAIService) client() (*openai.Client, error) {
	apiKey := o.credential()
	if apiKey == "" {
		return nil, &ConfigurationError{Setting: "API_KEY"}
	}
	config := openai.DefaultConfig(apiKey)
	if o.baseURL != "" {
		config.BaseURL = o.baseURL
	}
	config.HTTPClient = o.httpClient
	return openai.NewClientWithConfig(config), nil
}

// GenerateStoryTurn asks the chat model for a JSON StoryNode.
func (o *OpenAIService) GenerateStoryTurn(ctx context.Context, prompt string) (*story.StoryNode, error) {
	start := time.Now()
	node, err := o.generateStoryTurn(ctx, prompt)
	observe(providerOpenAI, opStoryTurn, statusOf(err), start)
	return node, err
}

func (o *OpenAIService) generateStoryTurn(ctx context.Context, prompt string) (*story.StoryNode, error) {
	client, err := o.client()
	if err != nil {
		return nil, err
	}

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.textModel,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: prompts.SystemInstruction + "\n\n" + prompts.JSONShape,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, wrapOpenAIError(err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, &GenerationError{Reason: "no text returned from model", Err: story.ErrEmptyNode}
	}

	node, err := story.ParseNode([]byte(resp.Choices[0].Message.Content))
	if err != nil {
		o.logger.Debug("Unusable story node from model", "model", o.textModel, "error", err)
		return nil, &GenerationError{Reason: "invalid story node", Err: err}
	}
	return node, nil
}

// GenerateComicImage asks the image model to draw a panel. Any failure other than
// a missing credential returns a placeholder image and a nil error.
func (o *OpenAIService) GenerateComicImage(ctx context.Context, description string) (string, error) {
	start := time.Now()

	client, err := o.client()
	if err != nil {
		observe(providerOpenAI, opComicImage, statusOf(err), start)
		return "", err
	}

	resp, err := client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         prompts.ImagePrompt(description),
		Model:          o.imageModel,
		N:              1,
		Size:           openai.CreateImageSize1024x1024,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	})
	if err == nil && (len(resp.Data) == 0 || resp.Data[0].B64JSON == "") {
		err = &GenerationError{Reason: "no image data found in response"}
	}
	if err != nil {
		o.logger.Warn("Image generation failed, using placeholder", "model", o.imageModel, "error", wrapOpenAIError(err))
		observe(providerOpenAI, opComicImage, statusPlaceholder, start)
		return PlaceholderImage(), nil
	}

	observe(providerOpenAI, opComicImage, statusOK, start)
	return dataURI("image/png", resp.Data[0].B64JSON), nil
}

// wrapOpenAIError maps go-openai errors onto the service error taxonomy.
func wrapOpenAIError(err error) error {
	var (
		genErr *GenerationError
		apiErr *openai.APIError
		reqErr *openai.RequestError
	)
	switch {
	case errors.As(err, &genErr):
		return err
	case errors.As(err, &apiErr):
		return &NetworkError{StatusCode: apiErr.HTTPStatusCode, Err: err}
	case errors.As(err, &reqErr):
		return &NetworkError{StatusCode: reqErr.HTTPStatusCode, Err: err}
	default:
		return &NetworkError{Err: err}
	}
}
