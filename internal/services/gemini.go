package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jwebster45206/comic-crush/pkg/prompts"
	"github.com/jwebster45206/comic-crush/pkg/story"
)

const (
	DefaultGeminiBaseURL    = "https://generativelanguage.googleapis.com/v1beta"
	DefaultGeminiTextModel  = "gemini-2.5-flash"
	DefaultGeminiImageModel = "gemini-2.5-flash-image"

	providerGemini = "gemini"
)

// GeminiService implements ModelService against the Gemini generateContent REST API.
type GeminiService struct {
	baseURL    string
	textModel  string
	imageModel string
	credential CredentialFunc
	httpClient *http.Client
	logger     *slog.Logger
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	ResponseMimeType   string                 `json:"responseMimeType,omitempty"`
	ResponseSchema     map[string]interface{} `json:"responseSchema,omitempty"`
	ResponseModalities []string               `json:"responseModalities,omitempty"`
}

// geminiRequest is the body of a generateContent call
type geminiRequest struct {
	Contents          []geminiContent         `json:"contents"`
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason,omitempty"`
}

type geminiResponse struct {
	Candidates     []geminiCandidate `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason,omitempty"`
	} `json:"promptFeedback,omitempty"`
}

type geminiErrorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// NewGeminiService creates a Gemini client. Empty arguments fall back to the defaults.
func NewGeminiService(baseURL, textModel, imageModel string, credential CredentialFunc, logger *slog.Logger) *GeminiService {
	if baseURL == "" {
		baseURL = DefaultGeminiBaseURL
	}
	if textModel == "" {
		textModel = DefaultGeminiTextModel
	}
	if imageModel == "" {
		imageModel = DefaultGeminiImageModel
	}
	if credential == nil {
		credential = EnvCredential("API_KEY", "GEMINI_API_KEY")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GeminiService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		textModel:  textModel,
		imageModel: imageModel,
		credential: credential,
		// per-call deadlines come from the context
		httpClient: &http.Client{},
		logger:     logger,
	}
}

// Name returns the provider name.
func (g *GeminiService) Name() string {
	return providerGemini
}

// GenerateStoryTurn asks the text model for a JSON StoryNode.
func (g *GeminiService) GenerateStoryTurn(ctx context.Context, prompt string) (*story.StoryNode, error) {
	start := time.Now()
	node, err := g.generateStoryTurn(ctx, prompt)
	observe(providerGemini, opStoryTurn, statusOf(err), start)
	return node, err
}

func (g *GeminiService) generateStoryTurn(ctx context.Context, prompt string) (*story.StoryNode, error) {
	apiKey := g.credential()
	if apiKey == "" {
		return nil, &ConfigurationError{Setting: "API_KEY"}
	}

	req := geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: prompt}}},
		},
		SystemInstruction: &geminiContent{
			Parts: []geminiPart{{Text: prompts.SystemInstruction}},
		},
		GenerationConfig: &geminiGenerationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   prompts.StoryNodeSchema(),
		},
	}

	resp, err := g.generateContent(ctx, apiKey, g.textModel, req)
	if err != nil {
		return nil, err
	}

	text := resp.text()
	if strings.TrimSpace(text) == "" {
		return nil, &GenerationError{Reason: "no text returned from model", Err: story.ErrEmptyNode}
	}

	node, err := story.ParseNode([]byte(text))
	if err != nil {
		g.logger.Debug("Unusable story node from model", "model", g.textModel, "error", err)
		return nil, &GenerationError{Reason: "invalid story node", Err: err}
	}
	return node, nil
}

// GenerateComicImage asks the image model to draw a panel. Any failure other than
// a missing credential returns a placeholder image and a nil error.
func (g *GeminiService) GenerateComicImage(ctx context.Context, description string) (string, error) {
	start := time.Now()

	apiKey := g.credential()
	if apiKey == "" {
		err := &ConfigurationError{Setting: "API_KEY"}
		observe(providerGemini, opComicImage, statusOf(err), start)
		return "", err
	}

	ref, err := g.generateComicImage(ctx, apiKey, description)
	if err != nil {
		g.logger.Warn("Image generation failed, using placeholder", "model", g.imageModel, "error", err)
		observe(providerGemini, opComicImage, statusPlaceholder, start)
		return PlaceholderImage(), nil
	}
	observe(providerGemini, opComicImage, statusOK, start)
	return ref, nil
}

func (g *GeminiService) generateComicImage(ctx context.Context, apiKey, description string) (string, error) {
	req := geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: prompts.ImagePrompt(description)}}},
		},
		GenerationConfig: &geminiGenerationConfig{
			ResponseModalities: []string{"IMAGE"},
		},
	}

	resp, err := g.generateContent(ctx, apiKey, g.imageModel, req)
	if err != nil {
		return "", err
	}

	if len(resp.Candidates) > 0 {
		for _, part := range resp.Candidates[0].Content.Parts {
			if part.InlineData != nil && part.InlineData.Data != "" {
				return dataURI(part.InlineData.MimeType, part.InlineData.Data), nil
			}
		}
	}
	return "", &GenerationError{Reason: "no image data found in response"}
}

// generateContent performs one generateContent call.
func (g *GeminiService) generateContent(ctx context.Context, apiKey, model string, body geminiRequest) (*geminiResponse, error) {
	reqBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr geminiErrorBody
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
			return nil, &NetworkError{StatusCode: resp.StatusCode, Err: errors.New(apiErr.Error.Message)}
		}
		return nil, &NetworkError{StatusCode: resp.StatusCode, Err: fmt.Errorf("unexpected response: %s", string(respBody))}
	}

	var out geminiResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, &GenerationError{Reason: "failed to parse response", Err: err}
	}
	if out.PromptFeedback != nil && out.PromptFeedback.BlockReason != "" {
		return nil, &GenerationError{Reason: "prompt blocked: " + out.PromptFeedback.BlockReason}
	}
	return &out, nil
}

// text concatenates the text parts of the first candidate.
func (r *geminiResponse) text() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String()
}

func dataURI(mimeType, b64 string) string {
	if mimeType == "" {
		mimeType = "image/png"
	}
	return fmt.Sprintf("data:%s;base64,%s", mimeType, b64)
}
