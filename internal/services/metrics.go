package services

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	opStoryTurn  = "story_turn"
	opComicImage = "comic_image"

	statusOK          = "ok"
	statusPlaceholder = "placeholder"
)

var (
	modelRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "comic_model_requests_total",
			Help: "Model requests by provider, operation and outcome.",
		},
		[]string{"provider", "operation", "status"},
	)

	modelRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "comic_model_request_duration_seconds",
			Help:    "Model request latency.",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
		},
		[]string{"provider", "operation"},
	)
)

// observe records one provider call.
func observe(provider, operation, status string, start time.Time) {
	modelRequestsTotal.WithLabelValues(provider, operation, status).Inc()
	modelRequestDuration.WithLabelValues(provider, operation).Observe(time.Since(start).Seconds())
}

// statusOf maps an error to its metrics label.
func statusOf(err error) string {
	var (
		cfgErr *ConfigurationError
		genErr *GenerationError
		netErr *NetworkError
	)
	switch {
	case err == nil:
		return statusOK
	case errors.As(err, &cfgErr):
		return "configuration_error"
	case errors.As(err, &genErr):
		return "generation_error"
	case errors.As(err, &netErr):
		return "network_error"
	default:
		return "error"
	}
}
