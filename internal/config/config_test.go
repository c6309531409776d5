package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 800, cfg.MaxGridResolution)
	assert.Equal(t, 120, cfg.MaxIntermediateFrames)
	assert.Equal(t, 32, cfg.JobQueueSize)
	assert.Equal(t, 2, cfg.JobWorkers)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("MAX_GRID_RESOLUTION", "400")
	t.Setenv("MAX_INTERMEDIATE_FRAMES", "60")
	t.Setenv("JOB_QUEUE_SIZE", "8")
	t.Setenv("JOB_WORKERS", "4")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 400, cfg.MaxGridResolution)
	assert.Equal(t, 60, cfg.MaxIntermediateFrames)
	assert.Equal(t, 8, cfg.JobQueueSize)
	assert.Equal(t, 4, cfg.JobWorkers)
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Run("bad duration", func(t *testing.T) {
		t.Setenv("SHUTDOWN_TIMEOUT", "soon")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("negative duration", func(t *testing.T) {
		t.Setenv("SHUTDOWN_TIMEOUT", "-5s")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("non-numeric limit", func(t *testing.T) {
		t.Setenv("MAX_GRID_RESOLUTION", "huge")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("zero workers", func(t *testing.T) {
		t.Setenv("JOB_WORKERS", "0")
		_, err := Load()
		assert.Error(t, err)
	})
}
