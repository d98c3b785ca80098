package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/aimlflow/aimlapi"
)

// --- DefaultConfig aggregate ---

func TestDefaultConfig_ContainsAllSubConfigs(t *testing.T) {
	cfg := DefaultConfig()
	require.NotNil(t, cfg)

	assert.NotEqual(t, APIConfig{}, cfg.API)
	assert.NotEqual(t, GenerationConfig{}, cfg.Generation)
	assert.NotEqual(t, TransportConfig{}, cfg.Transport)
	assert.NotEqual(t, CatalogConfig{}, cfg.Catalog)
	assert.NotEqual(t, RunnerConfig{}, cfg.Runner)
	assert.NotEqual(t, RedisConfig{}, cfg.Redis)
	assert.NotEqual(t, LogConfig{}, cfg.Log)
	assert.NotEqual(t, TelemetryConfig{}, cfg.Telemetry)
}

// --- Individual Default*Config functions ---

func TestDefaultAPIConfig(t *testing.T) {
	cfg := DefaultAPIConfig()
	assert.Equal(t, "https://api.aimlapi.com/v1", cfg.BaseURL)
	assert.Equal(t, 120*time.Second, cfg.Timeout)
	assert.Equal(t, "n8n AIMLAPI Node", cfg.Title)
	assert.Empty(t, cfg.APIKey)
}

func TestDefaultGenerationConfig(t *testing.T) {
	cfg := DefaultGenerationConfig()
	assert.Equal(t, 2*time.Second, cfg.PollInterval)
	assert.Equal(t, 60, cfg.MaxAttempts)
	assert.Equal(t, PollConfig{PollInterval: 5 * time.Second, MaxAttempts: 120}, cfg.Media.Video)
	assert.Equal(t, PollConfig{PollInterval: 2 * time.Second, MaxAttempts: 90}, cfg.Media.Audio)
	assert.Equal(t, PollConfig{}, cfg.Media.Image)
}

func TestDefaultServerConfig(t *testing.T) {
	cfg := DefaultServerConfig()
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, 9091, cfg.MetricsPort)
	assert.Equal(t, 30*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 15*time.Second, cfg.ShutdownTimeout)
	assert.False(t, cfg.AllowQueryAPIKey)
	assert.False(t, cfg.JWT.Enabled())
}

func TestDefaultRunnerAndRedis(t *testing.T) {
	assert.Equal(t, 1, DefaultRunnerConfig().Concurrency)
	assert.Zero(t, DefaultRunnerConfig().DedupeTTL)
	assert.Empty(t, DefaultRedisConfig().Addr)
	assert.Equal(t, 10*time.Minute, DefaultCatalogConfig().CacheTTL)
}

func TestDefaultLogAndTelemetry(t *testing.T) {
	log := DefaultLogConfig()
	assert.Equal(t, "info", log.Level)
	assert.Equal(t, "json", log.Format)
	assert.Equal(t, []string{"stdout"}, log.OutputPaths)

	tel := DefaultTelemetryConfig()
	assert.False(t, tel.Enabled)
	assert.Equal(t, "aimlflow", tel.ServiceName)
	assert.InDelta(t, 0.1, tel.SampleRate, 1e-9)
}

// --- PollOptions ---

func TestGenerationConfig_PollOptions(t *testing.T) {
	cfg := DefaultGenerationConfig()

	video := cfg.PollOptions(aimlapi.MediaVideo)
	assert.Equal(t, aimlapi.MediaVideo, video.MediaType)
	assert.Equal(t, 5*time.Second, video.PollInterval)
	assert.Equal(t, 120, video.MaxAttempts)

	image := cfg.PollOptions(aimlapi.MediaImage)
	assert.Equal(t, 2*time.Second, image.PollInterval)
	assert.Equal(t, 60, image.MaxAttempts)

	cfg.Media.Image = PollConfig{MaxAttempts: 7}
	image = cfg.PollOptions(aimlapi.MediaImage)
	assert.Equal(t, 2*time.Second, image.PollInterval, "interval falls back to the global value")
	assert.Equal(t, 7, image.MaxAttempts)

	text := cfg.PollOptions(aimlapi.MediaText)
	assert.Equal(t, 60, text.MaxAttempts)
}
