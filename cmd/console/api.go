package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/jwebster45206/comic-crush/pkg/state"
)

// GameResponse mirrors the API's game payload.
type GameResponse struct {
	ID    string          `json:"id"`
	State state.GameState `json:"state"`
	Error string          `json:"error,omitempty"`
}

type GenresResponse struct {
	Genres  []string `json:"genres"`
	Default string   `json:"default"`
}

func testConnection(client *http.Client, baseURL string) bool {
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()
	return resp.StatusCode == http.StatusOK
}

func listGenres(client *http.Client, baseURL string) (*GenresResponse, error) {
	resp, err := client.Get(baseURL + "/v1/genres")
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	var genres GenresResponse
	if err := json.NewDecoder(resp.Body).Decode(&genres); err != nil {
		return nil, fmt.Errorf("failed to parse genres response: %w", err)
	}
	return &genres, nil
}

func createGame(client *http.Client, baseURL, genre, playerName string) (*GameResponse, error) {
	body := map[string]string{"genre": genre, "player_name": playerName}
	return doGameRequest(client, http.MethodPost, baseURL+"/v1/games", body)
}

func getGame(client *http.Client, baseURL, gameID string) (*GameResponse, error) {
	return doGameRequest(client, http.MethodGet, fmt.Sprintf("%s/v1/games/%s", baseURL, gameID), nil)
}

func applyChoice(client *http.Client, baseURL, gameID, choiceID string) (*GameResponse, error) {
	body := map[string]string{"choice_id": choiceID}
	return doGameRequest(client, http.MethodPost, fmt.Sprintf("%s/v1/games/%s/choices", baseURL, gameID), body)
}

func dismissError(client *http.Client, baseURL, gameID string) (*GameResponse, error) {
	return doGameRequest(client, http.MethodDelete, fmt.Sprintf("%s/v1/games/%s/error", baseURL, gameID), nil)
}

// doGameRequest sends a request that answers with a game payload. A model
// failure (502) still carries the state, so it is returned without an error;
// the message is in State.Error.
func doGameRequest(client *http.Client, method, url string, body interface{}) (*GameResponse, error) {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusBadGateway, http.StatusConflict:
		var game GameResponse
		if err := json.Unmarshal(data, &game); err != nil || game.ID == "" {
			return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(data))
		}
		return &game, nil
	default:
		var errorResp ErrorResponse
		if err := json.Unmarshal(data, &errorResp); err != nil || errorResp.Error == "" {
			return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(data))
		}
		return nil, fmt.Errorf("request failed: %s", errorResp.Error)
	}
}

// SSEEvent represents an event from the SSE stream
type SSEEvent struct {
	Type string                 `json:"type"`
	Data map[string]interface{} `json:"data"`
}

// listenToSSE connects to the SSE endpoint and streams events to a channel
// until ctx is done or the stream ends.
func listenToSSE(ctx context.Context, client *http.Client, baseURL, gameID string, eventChan chan<- SSEEvent) error {
	url := fmt.Sprintf("%s/v1/events/games/%s", baseURL, gameID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to SSE: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("SSE connection failed with status %d: %s", resp.StatusCode, string(body))
	}

	scanner := bufio.NewScanner(resp.Body)
	var currentEvent SSEEvent

	for scanner.Scan() {
		line := scanner.Text()

		if line == "" {
			// Empty line signals end of event
			if currentEvent.Type != "" {
				select {
				case eventChan <- currentEvent:
				case <-ctx.Done():
					return ctx.Err()
				}
				currentEvent = SSEEvent{}
			}
			continue
		}

		if strings.HasPrefix(line, "event: ") {
			currentEvent.Type = strings.TrimPrefix(line, "event: ")
		} else if strings.HasPrefix(line, "data: ") {
			var data map[string]interface{}
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &data); err == nil {
				currentEvent.Data = data
			}
		}
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("error reading SSE stream: %w", err)
	}
	return nil
}
