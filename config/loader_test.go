// 配置加载器测试。
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Loader 测试 ---

func TestLoader_LoadDefaults(t *testing.T) {
	cfg, err := NewLoader().Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.Equal(t, "https://api.aimlapi.com/v1", cfg.API.BaseURL)
	assert.NoError(t, cfg.Validate())
}

func TestLoader_LoadFromYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	yamlContent := `
api:
  base_url: "https://gateway.example.com/v2"
  api_key: "sk-test"
  timeout: 45s

generation:
  poll_interval: 1s
  max_attempts: 10
  media:
    video:
      poll_interval: 10s
      max_attempts: 30

runner:
  concurrency: 4
  continue_on_fail: true

redis:
  addr: "redis.example.com:6379"
  password: "secret"
  db: 1

server:
  http_port: 8888
  api_keys: ["a", "b"]

log:
  level: "debug"
  format: "console"
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0644))

	cfg, err := NewLoader().WithConfigPath(configPath).Load()
	require.NoError(t, err)

	assert.Equal(t, "https://gateway.example.com/v2", cfg.API.BaseURL)
	assert.Equal(t, "sk-test", cfg.API.APIKey)
	assert.Equal(t, 45*time.Second, cfg.API.Timeout)
	// 未出现在文件中的字段保留默认值
	assert.Equal(t, "n8n AIMLAPI Node", cfg.API.Title)

	assert.Equal(t, time.Second, cfg.Generation.PollInterval)
	assert.Equal(t, 10, cfg.Generation.MaxAttempts)
	assert.Equal(t, 10*time.Second, cfg.Generation.Media.Video.PollInterval)
	assert.Equal(t, 30, cfg.Generation.Media.Video.MaxAttempts)
	assert.Equal(t, 90, cfg.Generation.Media.Audio.MaxAttempts)

	assert.Equal(t, 4, cfg.Runner.Concurrency)
	assert.True(t, cfg.Runner.ContinueOnFail)

	assert.Equal(t, "redis.example.com:6379", cfg.Redis.Addr)
	assert.Equal(t, "secret", cfg.Redis.Password)
	assert.Equal(t, 1, cfg.Redis.DB)

	assert.Equal(t, 8888, cfg.Server.HTTPPort)
	assert.Equal(t, []string{"a", "b"}, cfg.Server.APIKeys)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoader_LoadFromEnv(t *testing.T) {
	t.Setenv("AIMLFLOW_API_API_KEY", "sk-env")
	t.Setenv("AIMLFLOW_API_TIMEOUT", "30s")
	t.Setenv("AIMLFLOW_GENERATION_MAX_ATTEMPTS", "5")
	t.Setenv("AIMLFLOW_GENERATION_MEDIA_AUDIO_POLL_INTERVAL", "3s")
	t.Setenv("AIMLFLOW_TRANSPORT_RATE_LIMIT_RPS", "2.5")
	t.Setenv("AIMLFLOW_RUNNER_CONTINUE_ON_FAIL", "true")
	t.Setenv("AIMLFLOW_SERVER_API_KEYS", "k1, k2,,k3")
	t.Setenv("AIMLFLOW_SERVER_JWT_SECRET", "jwt-secret")
	t.Setenv("AIMLFLOW_REDIS_ADDR", "env-redis:6379")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, "sk-env", cfg.API.APIKey)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.Equal(t, 5, cfg.Generation.MaxAttempts)
	assert.Equal(t, 3*time.Second, cfg.Generation.Media.Audio.PollInterval)
	assert.InDelta(t, 2.5, cfg.Transport.RateLimitRPS, 1e-9)
	assert.True(t, cfg.Runner.ContinueOnFail)
	assert.Equal(t, []string{"k1", "k2", "k3"}, cfg.Server.APIKeys)
	assert.Equal(t, "jwt-secret", cfg.Server.JWT.Secret)
	assert.True(t, cfg.Server.JWT.Enabled())
	assert.Equal(t, "env-redis:6379", cfg.Redis.Addr)
}

func TestLoader_EnvOverridesYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	yamlContent := `
server:
  http_port: 8888
api:
  api_key: "yaml-key"
  title: "yaml-title"
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0644))

	t.Setenv("AIMLFLOW_SERVER_HTTP_PORT", "9999")
	t.Setenv("AIMLFLOW_API_API_KEY", "env-key")

	cfg, err := NewLoader().WithConfigPath(configPath).Load()
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.HTTPPort)
	assert.Equal(t, "env-key", cfg.API.APIKey)
	assert.Equal(t, "yaml-title", cfg.API.Title)
}

func TestLoader_CustomEnvPrefix(t *testing.T) {
	t.Setenv("MYAPP_SERVER_HTTP_PORT", "6666")
	t.Setenv("MYAPP_API_BASE_URL", "http://localhost:9000")

	cfg, err := NewLoader().WithEnvPrefix("MYAPP").Load()
	require.NoError(t, err)

	assert.Equal(t, 6666, cfg.Server.HTTPPort)
	assert.Equal(t, "http://localhost:9000", cfg.API.BaseURL)
}

func TestLoader_InvalidEnvValue(t *testing.T) {
	t.Setenv("AIMLFLOW_GENERATION_POLL_INTERVAL", "soon")

	_, err := NewLoader().Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AIMLFLOW_GENERATION_POLL_INTERVAL")
}

func TestLoader_WithValidator(t *testing.T) {
	validator := func(cfg *Config) error {
		if cfg.Server.HTTPPort < 1024 {
			return assert.AnError
		}
		return nil
	}

	t.Setenv("AIMLFLOW_SERVER_HTTP_PORT", "80")

	_, err := NewLoader().WithValidator(validator).Load()
	assert.ErrorIs(t, err, assert.AnError)
}

func TestLoader_NonExistentFile(t *testing.T) {
	cfg, err := NewLoader().WithConfigPath("/non/existent/path/config.yaml").Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.HTTPPort)
}

func TestLoader_InvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "invalid.yaml")
	invalidYAML := `
server:
  http_port: [invalid
  this is not valid yaml
`
	require.NoError(t, os.WriteFile(configPath, []byte(invalidYAML), 0644))

	_, err := NewLoader().WithConfigPath(configPath).Load()
	assert.Error(t, err)
}

// --- Config 方法测试 ---

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{name: "valid default config", modify: func(c *Config) {}},
		{
			name:    "relative base url",
			modify:  func(c *Config) { c.API.BaseURL = "api.aimlapi.com" },
			wantErr: "api.base_url",
		},
		{
			name:    "zero poll interval",
			modify:  func(c *Config) { c.Generation.PollInterval = 0 },
			wantErr: "generation.poll_interval",
		},
		{
			name:    "negative media override",
			modify:  func(c *Config) { c.Generation.Media.Video.MaxAttempts = -1 },
			wantErr: "generation.media.video",
		},
		{
			name:    "zero concurrency",
			modify:  func(c *Config) { c.Runner.Concurrency = 0 },
			wantErr: "runner.concurrency",
		},
		{
			name:    "invalid HTTP port",
			modify:  func(c *Config) { c.Server.HTTPPort = 70000 },
			wantErr: "invalid HTTP port",
		},
		{
			name:    "sample rate above one",
			modify:  func(c *Config) { c.Telemetry.SampleRate = 1.5 },
			wantErr: "telemetry.sample_rate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_ValidateReportsEveryProblem(t *testing.T) {
	cfg := DefaultConfig()
	cfg.API.Timeout = 0
	cfg.Runner.Concurrency = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api.timeout")
	assert.Contains(t, err.Error(), "runner.concurrency")
}

// --- MustLoad 测试 ---

func TestMustLoad(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("server:\n  http_port: 8181\n"), 0644))

	cfg := MustLoad(configPath)
	assert.Equal(t, 8181, cfg.Server.HTTPPort)
}

func TestMustLoad_PanicsOnInvalidFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("server: [\n"), 0644))

	assert.Panics(t, func() { MustLoad(configPath) })
}
