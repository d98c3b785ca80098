// =============================================================================
// 📦 aimlflow 默认配置
// =============================================================================
// 提供所有配置项的合理默认值
// =============================================================================
package config

import (
	"time"

	"github.com/BaSui01/aimlflow/aimlapi"
	"github.com/BaSui01/aimlflow/aimlapi/generation"
)

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		API:        DefaultAPIConfig(),
		Generation: DefaultGenerationConfig(),
		Transport:  DefaultTransportConfig(),
		Catalog:    DefaultCatalogConfig(),
		Runner:     DefaultRunnerConfig(),
		Redis:      DefaultRedisConfig(),
		Server:     DefaultServerConfig(),
		Log:        DefaultLogConfig(),
		Telemetry:  DefaultTelemetryConfig(),
	}
}

// DefaultAPIConfig 返回默认网关配置
func DefaultAPIConfig() APIConfig {
	return APIConfig{
		BaseURL: aimlapi.DefaultBaseURL,
		Timeout: 120 * time.Second,
		Title:   aimlapi.Title,
	}
}

// DefaultGenerationConfig 返回默认轮询配置。视频生成较慢，音频次之。
func DefaultGenerationConfig() GenerationConfig {
	return GenerationConfig{
		PollInterval: generation.DefaultPollInterval,
		MaxAttempts:  generation.DefaultMaxAttempts,
		Media: MediaPollConfig{
			Audio: PollConfig{PollInterval: 2 * time.Second, MaxAttempts: 90},
			Video: PollConfig{PollInterval: 5 * time.Second, MaxAttempts: 120},
		},
	}
}

// DefaultTransportConfig 返回默认传输配置
func DefaultTransportConfig() TransportConfig {
	return TransportConfig{
		RateLimitRPS:        0,
		RateLimitBurst:      10,
		MaxRetries:          2,
		RetryInitialDelay:   500 * time.Millisecond,
		RetryMaxDelay:       10 * time.Second,
		BreakerThreshold:    5,
		BreakerResetTimeout: 30 * time.Second,
		MaxIdleConnsPerHost: 16,
	}
}

// DefaultCatalogConfig 返回默认目录缓存配置
func DefaultCatalogConfig() CatalogConfig {
	return CatalogConfig{
		CacheTTL:    10 * time.Minute,
		CachePrefix: "aimlflow:",
	}
}

// DefaultRunnerConfig 返回默认批量执行配置
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		Concurrency:    1,
		ContinueOnFail: false,
	}
}

// DefaultRedisConfig 返回默认 Redis 配置（未启用）
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:         "",
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 2,
	}
}

// DefaultServerConfig 返回默认服务器配置
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		HTTPPort:        8080,
		MetricsPort:     9091,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    15 * time.Minute,
		ShutdownTimeout: 15 * time.Second,
		RateLimitRPS:    20,
		RateLimitBurst:  40,
	}
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:       "info",
		Format:      "json",
		OutputPaths: []string{"stdout"},
	}
}

// DefaultTelemetryConfig 返回默认遥测配置
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "aimlflow",
		SampleRate:   0.1,
	}
}

// PollOptions 返回 mediaType 的轮询预算，媒体覆盖值优先于全局值
func (g GenerationConfig) PollOptions(mediaType aimlapi.MediaType) generation.Options {
	opts := generation.Options{
		MediaType:    mediaType,
		PollInterval: g.PollInterval,
		MaxAttempts:  g.MaxAttempts,
	}

	var override PollConfig
	switch mediaType {
	case aimlapi.MediaImage:
		override = g.Media.Image
	case aimlapi.MediaAudio:
		override = g.Media.Audio
	case aimlapi.MediaVideo:
		override = g.Media.Video
	}
	if override.PollInterval > 0 {
		opts.PollInterval = override.PollInterval
	}
	if override.MaxAttempts > 0 {
		opts.MaxAttempts = override.MaxAttempts
	}
	return opts
}
