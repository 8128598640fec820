package services

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorTaxonomy(t *testing.T) {
	cause := errors.New("connection reset")

	tests := []struct {
		name   string
		err    error
		status string
	}{
		{name: "configuration", err: &ConfigurationError{Setting: "API_KEY"}, status: "configuration_error"},
		{name: "generation", err: &GenerationError{Reason: "empty"}, status: "generation_error"},
		{name: "network", err: &NetworkError{Err: cause}, status: "network_error"},
		{name: "wrapped network", err: fmt.Errorf("turn 3: %w", &NetworkError{StatusCode: 502, Err: cause}), status: "network_error"},
		{name: "other", err: errors.New("?"), status: "error"},
		{name: "nil", err: nil, status: "ok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, statusOf(tt.err))
		})
	}
}

func TestNetworkError_Unwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := &NetworkError{StatusCode: 503, Err: cause}
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "503")
}

func TestPlaceholderImage(t *testing.T) {
	ref := PlaceholderImage()
	assert.True(t, strings.HasPrefix(ref, "https://picsum.photos/800/600?random="))
	assert.True(t, IsPlaceholder(ref))
	assert.False(t, IsPlaceholder("data:image/png;base64,AAAA"))
}
