package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type ConsoleConfig struct {
	APIBaseURL string
	// Timeout covers a whole page request, which waits for the model.
	Timeout time.Duration
}

// apiPackage is the command that serves the API, relative to the module root.
const apiPackage = "./cmd/api"

type ErrorResponse struct {
	Error string `json:"error"`
}

func main() {
	cfg := &ConsoleConfig{
		APIBaseURL: getEnv("API_BASE_URL", "http://localhost:8080"),
		Timeout:    90 * time.Second,
	}

	client := &http.Client{
		Timeout: cfg.Timeout,
	}

	if !testConnection(client, cfg.APIBaseURL) {
		fmt.Fprintf(os.Stderr, "Could not connect to API. Please ensure the API is running.\nTry: go run %s\n", apiPackage)
		os.Exit(1)
	}

	// the event stream stays open, so it gets a client without a timeout
	streamClient := &http.Client{}

	p := tea.NewProgram(NewConsoleUI(cfg, client, streamClient), tea.WithAltScreen())
	m, err := p.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
	if ui, ok := m.(ConsoleUI); ok {
		ui.stopEvents()
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
