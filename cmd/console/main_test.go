package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The connection hint must name a command that exists in this module.
func TestAPIPackageExists(t *testing.T) {
	// tests run in cmd/console
	root := filepath.Join("..", "..")
	info, err := os.Stat(filepath.Join(root, apiPackage, "main.go"))
	require.NoError(t, err)
	assert.False(t, info.IsDir())
}

func TestGetEnv(t *testing.T) {
	t.Setenv("API_BASE_URL", "")
	assert.Equal(t, "http://localhost:8080", getEnv("API_BASE_URL", "http://localhost:8080"))

	t.Setenv("API_BASE_URL", "http://api:9000")
	assert.Equal(t, "http://api:9000", getEnv("API_BASE_URL", "http://localhost:8080"))
}
