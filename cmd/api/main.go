package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jwebster45206/comic-crush/internal/config"
	"github.com/jwebster45206/comic-crush/internal/engine"
	"github.com/jwebster45206/comic-crush/internal/games"
	"github.com/jwebster45206/comic-crush/internal/handlers"
	"github.com/jwebster45206/comic-crush/internal/logger"
	"github.com/jwebster45206/comic-crush/internal/middleware"
	"github.com/jwebster45206/comic-crush/internal/services"
	"github.com/jwebster45206/comic-crush/internal/services/events"
	"github.com/jwebster45206/comic-crush/internal/view"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Comic Crush API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"model_provider", cfg.ModelProvider)

	model := newModelService(cfg, log)

	// Redis lets several API instances share one event stream; without it
	// events stay in this process.
	var bus events.Broadcaster
	if cfg.RedisURL != "" {
		redisCtx, redisCancel := context.WithTimeout(context.Background(), 30*time.Second)
		redisClient, err := events.NewRedisClient(redisCtx, cfg.RedisURL, log)
		redisCancel()
		if err != nil {
			log.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("Error closing Redis connection", "error", err)
			}
		}()
		bus = events.NewRedisBroadcaster(redisClient, log)
	} else {
		log.Info("REDIS_URL not set, using in-process events")
		bus = events.NewLocalBroadcaster(log)
	}

	registry := games.NewRegistry(func(id uuid.UUID) *engine.Engine {
		return engine.New(model, engine.Options{
			GameID:        id.String(),
			TextTimeout:   cfg.TextTimeout,
			ImageTimeout:  cfg.ImageTimeout,
			ContextWindow: cfg.ContextWindow,
			Publisher:     bus,
			Logger:        log,
		})
	}, cfg.SessionTTL, log)

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go registry.Run(sweepCtx)

	renderer, err := view.NewHTMLRenderer()
	if err != nil {
		log.Error("Failed to load page templates", "error", err)
		os.Exit(1)
	}

	mux := http.NewServeMux()

	mux.Handle("/health", handlers.NewHealthHandler(bus, model.Name(), registry.Len, log))
	mux.Handle("/metrics", promhttp.Handler())

	gamesHandler := handlers.NewGamesHandler(registry, log)
	mux.Handle("/v1/games", gamesHandler)
	mux.Handle("/v1/games/", gamesHandler)
	mux.Handle("/v1/genres", handlers.NewGenresHandler(log))
	mux.Handle("/v1/events/games/", handlers.NewEventsHandler(bus, log))

	webHandler := handlers.NewWebHandler(registry, renderer, log)
	mux.Handle("/", webHandler)

	handler := middleware.Logger(mux)
	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// WriteTimeout removed so pages can take as long as the text timeout
		// and event streams stay open
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	stopSweep()
	registry.Close()

	log.Info("Server exited")
}

func newModelService(cfg *config.Config, log *slog.Logger) services.ModelService {
	switch cfg.ModelProvider {
	case config.ProviderOpenAI:
		log.Info("Using OpenAI model provider")
		return services.NewOpenAIService(cfg.OpenAIBaseURL, cfg.TextModel, cfg.ImageModel, nil, log)
	default:
		log.Info("Using Gemini model provider")
		return services.NewGeminiService(cfg.GeminiBaseURL, cfg.TextModel, cfg.ImageModel, nil, log)
	}
}
