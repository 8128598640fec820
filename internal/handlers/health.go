package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// Pinger is a dependency whose connection the health check verifies.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthResponse struct {
	Status     string                 `json:"status"`
	Timestamp  time.Time              `json:"timestamp"`
	Service    string                 `json:"service"`
	Components map[string]interface{} `json:"components"`
}

type HealthHandler struct {
	events   Pinger
	provider string
	sessions func() int
	logger   *slog.Logger
}

func NewHealthHandler(events Pinger, provider string, sessions func() int, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		events:   events,
		provider: provider,
		sessions: sessions,
		logger:   logger,
	}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	h.logger.Debug("Health check requested",
		"method", r.Method,
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr)

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	components := map[string]interface{}{
		"model_provider": h.provider,
	}
	overallStatus := "healthy"

	if err := h.events.Ping(ctx); err != nil {
		h.logger.Warn("Event bus health check failed", "error", err)
		components["events"] = "unhealthy"
		overallStatus = "degraded"
	} else {
		components["events"] = "healthy"
	}
	if h.sessions != nil {
		components["sessions"] = h.sessions()
	}

	response := HealthResponse{
		Status:     overallStatus,
		Timestamp:  time.Now(),
		Service:    "comic-crush",
		Components: components,
	}

	statusCode := http.StatusOK
	if overallStatus != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}

	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("Error encoding health response",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path)
	}
}
