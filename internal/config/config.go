package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Render limits.
	MaxGridResolution     int
	MaxIntermediateFrames int

	// Worker sizing.
	JobQueueSize int
	JobWorkers   int
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	maxResolution, err := parsePositiveInt("MAX_GRID_RESOLUTION", 800)
	if err != nil {
		return nil, err
	}

	maxIntermediate, err := parsePositiveInt("MAX_INTERMEDIATE_FRAMES", 120)
	if err != nil {
		return nil, err
	}

	queueSize, err := parsePositiveInt("JOB_QUEUE_SIZE", 32)
	if err != nil {
		return nil, err
	}

	workers, err := parsePositiveInt("JOB_WORKERS", 2)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:              envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:              envOrDefault("LOG_LEVEL", "info"),
		LogFormat:             envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:       shutdownTimeout,
		MaxGridResolution:     maxResolution,
		MaxIntermediateFrames: maxIntermediate,
		JobQueueSize:          queueSize,
		JobWorkers:            workers,
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("HTTP_ADDR is required")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key string, fallback time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}

func parsePositiveInt(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return n, nil
}
