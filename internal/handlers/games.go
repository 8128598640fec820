package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/jwebster45206/comic-crush/internal/engine"
	"github.com/jwebster45206/comic-crush/internal/games"
	"github.com/jwebster45206/comic-crush/pkg/state"
	"github.com/jwebster45206/comic-crush/pkg/story"
)

// StartRequest is the body of POST /v1/games and POST /v1/games/{id}/start.
type StartRequest struct {
	Genre      string `json:"genre"`
	PlayerName string `json:"player_name"`
}

// ChoiceRequest is the body of POST /v1/games/{id}/choices.
type ChoiceRequest struct {
	ChoiceID string `json:"choice_id"`
}

// GameResponse wraps a state snapshot with its session id. Error repeats the
// user-facing message when the model failed to write a page.
type GameResponse struct {
	ID    string          `json:"id"`
	State state.GameState `json:"state"`
	Error string          `json:"error,omitempty"`
}

type GamesHandler struct {
	registry *games.Registry
	logger   *slog.Logger
}

func NewGamesHandler(registry *games.Registry, logger *slog.Logger) *GamesHandler {
	return &GamesHandler{
		registry: registry,
		logger:   logger,
	}
}

// ServeHTTP handles HTTP requests for comic sessions
// Routes:
// POST   /v1/games              - Create a session and write the opening page
// GET    /v1/games/{id}         - Read the current state
// DELETE /v1/games/{id}         - End the session
// POST   /v1/games/{id}/start   - Retry the opening page of a session that failed to start
// POST   /v1/games/{id}/choices - Apply a choice and write the next page
// DELETE /v1/games/{id}/error   - Dismiss the error message
func (h *GamesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	parts, id, err := splitPath(r.URL.Path, "/v1/games")
	if err != nil {
		h.logger.Warn("Invalid game ID", "path", r.URL.Path, "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid game ID format")
		return
	}

	switch {
	case len(parts) == 0 && r.Method == http.MethodPost:
		h.handleCreate(w, r)
	case len(parts) == 0:
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only POST is supported.")

	case len(parts) == 1 && r.Method == http.MethodGet:
		h.handleRead(w, id)
	case len(parts) == 1 && r.Method == http.MethodDelete:
		h.handleDelete(w, id)

	case len(parts) == 2 && parts[1] == "start" && r.Method == http.MethodPost:
		h.handleStart(w, r, id)
	case len(parts) == 2 && parts[1] == "choices" && r.Method == http.MethodPost:
		h.handleChoice(w, r, id)
	case len(parts) == 2 && parts[1] == "error" && r.Method == http.MethodDelete:
		h.handleDismiss(w, id)

	case len(parts) <= 2:
		h.logger.Warn("Method not allowed for games endpoint", "method", r.Method, "path", r.URL.Path)
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed.")
	default:
		writeError(w, h.logger, http.StatusNotFound, "Not found")
	}
}

func (h *GamesHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body. Expected JSON with 'player_name' and 'genre' fields.")
		return
	}

	id, eng := h.registry.Create()
	s, err := eng.StartGame(r.Context(), req.Genre, req.PlayerName)
	if errors.Is(err, engine.ErrEmptyPlayerName) {
		h.registry.Delete(id)
	}
	h.respondTurn(w, id, s, err, http.StatusCreated)
}

func (h *GamesHandler) handleRead(w http.ResponseWriter, id uuid.UUID) {
	eng, ok := h.lookup(w, id)
	if !ok {
		return
	}
	writeJSON(w, h.logger, http.StatusOK, GameResponse{ID: id.String(), State: eng.Snapshot()})
}

func (h *GamesHandler) handleDelete(w http.ResponseWriter, id uuid.UUID) {
	if !h.registry.Delete(id) {
		writeError(w, h.logger, http.StatusNotFound, "Game not found")
		return
	}
	h.logger.Info("Game deleted", "game_id", id.String())
	w.WriteHeader(http.StatusNoContent)
}

func (h *GamesHandler) handleStart(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	eng, ok := h.lookup(w, id)
	if !ok {
		return
	}
	var req StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body. Expected JSON with 'player_name' and 'genre' fields.")
		return
	}
	s, err := eng.StartGame(r.Context(), req.Genre, req.PlayerName)
	h.respondTurn(w, id, s, err, http.StatusOK)
}

func (h *GamesHandler) handleChoice(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	eng, ok := h.lookup(w, id)
	if !ok {
		return
	}
	var req ChoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ChoiceID == "" {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body. Expected JSON with 'choice_id' field.")
		return
	}
	s, err := eng.ApplyChoice(r.Context(), req.ChoiceID)
	h.respondTurn(w, id, s, err, http.StatusOK)
}

func (h *GamesHandler) handleDismiss(w http.ResponseWriter, id uuid.UUID) {
	eng, ok := h.lookup(w, id)
	if !ok {
		return
	}
	writeJSON(w, h.logger, http.StatusOK, GameResponse{ID: id.String(), State: eng.DismissError()})
}

func (h *GamesHandler) lookup(w http.ResponseWriter, id uuid.UUID) (*engine.Engine, bool) {
	eng, ok := h.registry.Get(id)
	if !ok {
		writeError(w, h.logger, http.StatusNotFound, "Game not found")
		return nil, false
	}
	return eng, true
}

// respondTurn maps the outcome of StartGame or ApplyChoice to a response.
func (h *GamesHandler) respondTurn(w http.ResponseWriter, id uuid.UUID, s state.GameState, err error, okStatus int) {
	resp := GameResponse{ID: id.String(), State: s}
	if err == nil {
		writeJSON(w, h.logger, okStatus, resp)
		return
	}

	var turnErr *engine.TurnError
	switch {
	case errors.As(err, &turnErr):
		resp.Error = turnErr.Message
		writeJSON(w, h.logger, http.StatusBadGateway, resp)
	case errors.Is(err, engine.ErrEmptyPlayerName), errors.Is(err, engine.ErrUnknownChoice):
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
	case errors.Is(err, engine.ErrBusy), errors.Is(err, engine.ErrAlreadyStarted), errors.Is(err, engine.ErrNotStarted):
		resp.Error = err.Error()
		writeJSON(w, h.logger, http.StatusConflict, resp)
	default:
		h.logger.Error("Unexpected turn error", "game_id", id.String(), "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Internal server error")
	}
}

// GenresResponse lists the genres offered on the start screen.
type GenresResponse struct {
	Genres  []story.Genre `json:"genres"`
	Default story.Genre   `json:"default"`
}

type GenresHandler struct {
	logger *slog.Logger
}

func NewGenresHandler(logger *slog.Logger) *GenresHandler {
	return &GenresHandler{logger: logger}
}

// ServeHTTP handles GET /v1/genres
func (h *GenresHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.Method != http.MethodGet {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only GET is supported.")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, GenresResponse{Genres: story.Genres, Default: story.DefaultGenre})
}
