package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/comic-crush/pkg/prompts"
)

const geminiNodeJSON = `{"narrative":"Sirens wail.","speakerName":"Vera","dialogue":"Stay close.","visualDescription":"Rooftop, neon rain","choices":[{"id":"1","text":"Hold her hand","actionType":"romantic"},{"id":"2","text":"Jump","actionType":"aggressive"}],"backgroundStyle":"city","soundEffectText":"WHOOSH!"}`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func textResponse(text string) string {
	b, _ := json.Marshal(map[string]interface{}{
		"candidates": []map[string]interface{}{
			{"content": map[string]interface{}{
				"role":  "model",
				"parts": []map[string]interface{}{{"text": text}},
			}},
		},
	})
	return string(b)
}

func newGeminiTestServer(t *testing.T, status int, body string, captured *geminiRequest) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		if captured != nil {
			raw, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(raw, captured)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestNewGeminiService_Defaults(t *testing.T) {
	service := NewGeminiService("", "", "", nil, nil)

	assert.Equal(t, DefaultGeminiBaseURL, service.baseURL)
	assert.Equal(t, DefaultGeminiTextModel, service.textModel)
	assert.Equal(t, DefaultGeminiImageModel, service.imageModel)
	assert.Equal(t, "gemini", service.Name())
	assert.NotNil(t, service.httpClient)
}

func TestGeminiService_GenerateStoryTurn(t *testing.T) {
	var captured geminiRequest
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &captured)
		_, _ = w.Write([]byte(textResponse(geminiNodeJSON)))
	}))
	defer srv.Close()

	service := NewGeminiService(srv.URL, "", "", StaticCredential("test-key"), discardLogger())
	node, err := service.GenerateStoryTurn(context.Background(), "Start a new Detective Noir comic")
	require.NoError(t, err)

	assert.Equal(t, "/models/gemini-2.5-flash:generateContent", path)
	assert.Equal(t, "Sirens wail.", node.Narrative)
	assert.Equal(t, "WHOOSH!", node.SoundEffectText)
	require.Len(t, node.Choices, 2)

	require.NotNil(t, captured.SystemInstruction)
	assert.Equal(t, prompts.SystemInstruction, captured.SystemInstruction.Parts[0].Text)
	assert.Equal(t, "Start a new Detective Noir comic", captured.Contents[0].Parts[0].Text)
	require.NotNil(t, captured.GenerationConfig)
	assert.Equal(t, "application/json", captured.GenerationConfig.ResponseMimeType)
	assert.NotEmpty(t, captured.GenerationConfig.ResponseSchema)
}

func TestGeminiService_GenerateStoryTurn_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantNet bool
		wantGen bool
	}{
		{name: "empty text", status: http.StatusOK, body: textResponse(""), wantGen: true},
		{name: "no candidates", status: http.StatusOK, body: `{"candidates":[]}`, wantGen: true},
		{name: "malformed node", status: http.StatusOK, body: textResponse(`{"narrative":`), wantGen: true},
		{name: "missing field", status: http.StatusOK, body: textResponse(`{"narrative":"n"}`), wantGen: true},
		{name: "no choices", status: http.StatusOK, body: textResponse(`{"narrative":"n","speakerName":"s","dialogue":"d","visualDescription":"v","choices":[],"backgroundStyle":"b"}`), wantGen: true},
		{name: "blocked prompt", status: http.StatusOK, body: `{"promptFeedback":{"blockReason":"SAFETY"}}`, wantGen: true},
		{name: "server error", status: http.StatusInternalServerError, body: `{"error":{"code":500,"message":"boom","status":"INTERNAL"}}`, wantNet: true},
		{name: "rate limited", status: http.StatusTooManyRequests, body: `slow down`, wantNet: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newGeminiTestServer(t, tt.status, tt.body, nil)
			service := NewGeminiService(srv.URL, "", "", StaticCredential("test-key"), discardLogger())

			node, err := service.GenerateStoryTurn(context.Background(), "prompt")
			require.Error(t, err)
			assert.Nil(t, node)

			var genErr *GenerationError
			var netErr *NetworkError
			assert.Equal(t, tt.wantGen, errors.As(err, &genErr), "GenerationError: %v", err)
			assert.Equal(t, tt.wantNet, errors.As(err, &netErr), "NetworkError: %v", err)
			if tt.wantNet {
				assert.Equal(t, tt.status, netErr.StatusCode)
			}
		})
	}
}

func TestGeminiService_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	service := NewGeminiService(url, "", "", StaticCredential("test-key"), discardLogger())
	_, err := service.GenerateStoryTurn(context.Background(), "prompt")

	var netErr *NetworkError
	require.True(t, errors.As(err, &netErr), "expected NetworkError, got %v", err)
	assert.Zero(t, netErr.StatusCode)
}

func TestGeminiService_MissingCredential(t *testing.T) {
	srv, hits := newGeminiTestServer(t, http.StatusOK, textResponse(geminiNodeJSON), nil)
	service := NewGeminiService(srv.URL, "", "", StaticCredential(""), discardLogger())

	_, err := service.GenerateStoryTurn(context.Background(), "prompt")
	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr), "expected ConfigurationError, got %v", err)

	img, err := service.GenerateComicImage(context.Background(), "rooftop")
	require.True(t, errors.As(err, &cfgErr), "expected ConfigurationError, got %v", err)
	assert.Empty(t, img)

	assert.Zero(t, hits.Load(), "no request may be sent without a credential")
}

func TestGeminiService_CredentialReadPerCall(t *testing.T) {
	srv, _ := newGeminiTestServer(t, http.StatusOK, textResponse(geminiNodeJSON), nil)
	key := ""
	service := NewGeminiService(srv.URL, "", "", func() string { return key }, discardLogger())

	_, err := service.GenerateStoryTurn(context.Background(), "prompt")
	require.Error(t, err)

	key = "test-key"
	_, err = service.GenerateStoryTurn(context.Background(), "prompt")
	require.NoError(t, err)
}

func TestGeminiService_GenerateComicImage(t *testing.T) {
	body := `{"candidates":[{"content":{"parts":[{"text":"here you go"},{"inlineData":{"mimeType":"image/jpeg","data":"QUJD"}}]}}]}`
	var captured geminiRequest
	srv, _ := newGeminiTestServer(t, http.StatusOK, body, &captured)
	service := NewGeminiService(srv.URL, "", "", StaticCredential("test-key"), discardLogger())

	img, err := service.GenerateComicImage(context.Background(), "A hero on a rooftop")
	require.NoError(t, err)
	assert.Equal(t, "data:image/jpeg;base64,QUJD", img)

	prompt := captured.Contents[0].Parts[0].Text
	assert.True(t, strings.HasPrefix(prompt, "Create a comic book panel illustration."))
	assert.Contains(t, prompt, "Scene: A hero on a rooftop")
}

func TestGeminiService_GenerateComicImage_Placeholder(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "no image part", status: http.StatusOK, body: textResponse("I cannot draw that")},
		{name: "server error", status: http.StatusServiceUnavailable, body: `{"error":{"message":"overloaded"}}`},
		{name: "garbage", status: http.StatusOK, body: `not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newGeminiTestServer(t, tt.status, tt.body, nil)
			service := NewGeminiService(srv.URL, "", "", StaticCredential("test-key"), discardLogger())

			img, err := service.GenerateComicImage(context.Background(), "rooftop")
			require.NoError(t, err)
			assert.True(t, IsPlaceholder(img), "expected placeholder, got %q", img)
		})
	}
}
