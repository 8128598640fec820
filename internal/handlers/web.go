package handlers

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/jwebster45206/comic-crush/internal/engine"
	"github.com/jwebster45206/comic-crush/internal/games"
	"github.com/jwebster45206/comic-crush/internal/view"
	"github.com/jwebster45206/comic-crush/pkg/state"
)

// WebHandler serves the browser UI. Every action is a form post followed by a
// redirect back to the game page, which renders the current state.
type WebHandler struct {
	registry *games.Registry
	renderer *view.HTMLRenderer
	logger   *slog.Logger
}

func NewWebHandler(registry *games.Registry, renderer *view.HTMLRenderer, logger *slog.Logger) *WebHandler {
	return &WebHandler{
		registry: registry,
		renderer: renderer,
		logger:   logger,
	}
}

// ServeHTTP handles browser requests
// Routes:
// GET  /                     - Start screen
// POST /games                - Create a session from the start form
// GET  /games/{id}           - Current page of a session
// POST /games/{id}/start     - Retry the start form on an existing session
// POST /games/{id}/choices   - Apply a choice button
// POST /games/{id}/dismiss   - Dismiss the error toast
func (h *WebHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/" {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.render(w, http.StatusOK, view.Build("", state.New("", "")))
		return
	}

	parts, id, err := splitPath(r.URL.Path, "/games")
	if err != nil {
		http.NotFound(w, r)
		return
	}

	switch {
	case len(parts) == 0 && r.Method == http.MethodPost:
		h.handleCreate(w, r)
	case len(parts) == 1 && r.Method == http.MethodGet:
		h.handleShow(w, r, id)
	case len(parts) == 2 && parts[1] == "start" && r.Method == http.MethodPost:
		h.handleStart(w, r, id)
	case len(parts) == 2 && parts[1] == "choices" && r.Method == http.MethodPost:
		h.handleChoice(w, r, id)
	case len(parts) == 2 && parts[1] == "dismiss" && r.Method == http.MethodPost:
		h.handleDismiss(w, r, id)
	case len(parts) <= 2:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	default:
		http.NotFound(w, r)
	}
}

func (h *WebHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	genre, name := r.PostFormValue("genre"), r.PostFormValue("player_name")

	id, eng := h.registry.Create()
	_, err := eng.StartGame(r.Context(), genre, name)
	if errors.Is(err, engine.ErrEmptyPlayerName) {
		h.registry.Delete(id)
		p := view.Build("", state.New(genre, ""))
		p.Toast = view.Toast{Visible: true, Message: "ERROR: Enter a name to begin."}
		h.render(w, http.StatusBadRequest, p)
		return
	}
	h.redirect(w, r, id)
}

func (h *WebHandler) handleShow(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	eng, ok := h.registry.Get(id)
	if !ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.render(w, http.StatusOK, view.Build(id.String(), eng.Snapshot()))
}

func (h *WebHandler) handleStart(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	eng, ok := h.registry.Get(id)
	if !ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if _, err := eng.StartGame(r.Context(), r.PostFormValue("genre"), r.PostFormValue("player_name")); err != nil {
		h.logger.Debug("Start retry rejected", "game_id", id.String(), "error", err)
	}
	h.redirect(w, r, id)
}

func (h *WebHandler) handleChoice(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	eng, ok := h.registry.Get(id)
	if !ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	// Rejected and failed choices both leave the page as it was; a failure
	// shows up as the toast on the redirected page.
	if _, err := eng.ApplyChoice(r.Context(), r.PostFormValue("choice_id")); err != nil {
		h.logger.Debug("Choice not applied", "game_id", id.String(), "error", err)
	}
	h.redirect(w, r, id)
}

func (h *WebHandler) handleDismiss(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if eng, ok := h.registry.Get(id); ok {
		eng.DismissError()
	}
	h.redirect(w, r, id)
}

func (h *WebHandler) redirect(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	http.Redirect(w, r, "/games/"+id.String(), http.StatusSeeOther)
}

// render buffers the page so a template error never leaves a half-written response.
func (h *WebHandler) render(w http.ResponseWriter, status int, p view.Page) {
	var buf bytes.Buffer
	if err := h.renderer.Render(&buf, p); err != nil {
		h.logger.Error("Failed to render page", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Warn("Failed to write page", "error", err)
	}
}
