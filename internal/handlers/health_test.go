package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct {
	err error
}

func (p fakePinger) Ping(ctx context.Context) error {
	return p.err
}

func TestHealthHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name           string
		pinger         Pinger
		expectedStatus int
		expectedHealth string
		expectedEvents string
	}{
		{
			name:           "all healthy",
			pinger:         fakePinger{},
			expectedStatus: http.StatusOK,
			expectedHealth: "healthy",
			expectedEvents: "healthy",
		},
		{
			name:           "event bus down",
			pinger:         fakePinger{err: errors.New("connection refused")},
			expectedStatus: http.StatusServiceUnavailable,
			expectedHealth: "degraded",
			expectedEvents: "unhealthy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(tt.pinger, "gemini", func() int { return 3 }, testLogger())
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.expectedStatus, rr.Code)
			var resp HealthResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.Equal(t, tt.expectedHealth, resp.Status)
			assert.Equal(t, "comic-crush", resp.Service)
			assert.Equal(t, tt.expectedEvents, resp.Components["events"])
			assert.Equal(t, "gemini", resp.Components["model_provider"])
			assert.Equal(t, float64(3), resp.Components["sessions"])
		})
	}
}
