package main

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/BaSui01/aimlflow/aimlapi/catalog"
	"github.com/BaSui01/aimlflow/aimlapi/generation"
	"github.com/BaSui01/aimlflow/aimlapi/operations"
	"github.com/BaSui01/aimlflow/aimlapi/transport"
	"github.com/BaSui01/aimlflow/config"
	"github.com/BaSui01/aimlflow/internal/cache"
	"github.com/BaSui01/aimlflow/internal/circuitbreaker"
	"github.com/BaSui01/aimlflow/internal/idempotency"
	"github.com/BaSui01/aimlflow/internal/metrics"
	"github.com/BaSui01/aimlflow/internal/retry"
	"github.com/BaSui01/aimlflow/internal/tlsutil"
)

// app 持有一次进程生命周期内共享的网关组件
type app struct {
	cfg       *config.Config
	store     cache.Store
	client    *transport.Client
	resolver  *generation.Resolver
	lister    *catalog.Lister
	runner    *operations.Runner
	collector *metrics.Collector
	logger    *zap.Logger
}

// newApp 按配置装配缓存、传输、轮询、目录与批量执行器。
// collector 为 nil 时不记录指标。
func newApp(cfg *config.Config, collector *metrics.Collector, logger *zap.Logger, opts ...transport.Option) (*app, error) {
	store, err := cache.Open(cacheConfig(cfg), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	a := &app{
		cfg:       cfg,
		store:     store,
		collector: collector,
		logger:    logger,
	}

	var (
		resolverOpts []generation.ResolverOption
		listerOpts   = []catalog.ListerOption{catalog.WithTTL(cfg.Catalog.CacheTTL)}
		runnerOpts   = []operations.RunnerOption{operations.WithPollOptions(cfg.Generation.PollOptions)}
	)
	if collector != nil {
		opts = append([]transport.Option{transport.WithRecorder(collector)}, opts...)
		resolverOpts = append(resolverOpts, generation.WithRecorder(collector))
		listerOpts = append(listerOpts, catalog.WithCacheRecorder(collector))
		runnerOpts = append(runnerOpts, operations.WithItemRecorder(collector))
	}
	if cfg.Runner.DedupeTTL > 0 {
		runnerOpts = append(runnerOpts, operations.WithDedupe(idempotency.NewManager(store, cfg.Runner.DedupeTTL, logger)))
	}

	a.client = transport.New(transportConfig(cfg), logger, opts...)
	a.resolver = generation.NewResolver(a.client, logger, resolverOpts...)
	a.lister = catalog.NewLister(a.client, store, logger, listerOpts...)
	a.runner = operations.NewRunner(a.client, a.resolver, operations.RunnerConfig{
		Concurrency:    cfg.Runner.Concurrency,
		ContinueOnFail: cfg.Runner.ContinueOnFail,
	}, logger, runnerOpts...)

	logger.Info("网关组件初始化完成",
		zap.String("base_url", cfg.API.BaseURL),
		zap.Bool("redis", cfg.Redis.Addr != ""),
		zap.Int("concurrency", cfg.Runner.Concurrency),
		zap.Bool("dedupe", cfg.Runner.DedupeTTL > 0),
	)
	return a, nil
}

// ping 检查缓存可用性，进程内缓存总是可用
func (a *app) ping(ctx context.Context) error {
	if m, ok := a.store.(*cache.Manager); ok {
		return m.Ping(ctx)
	}
	return nil
}

// upstreamReady 熔断器打开时报告上游不可用
func (a *app) upstreamReady(context.Context) error {
	if state := a.client.BreakerState(); state == circuitbreaker.StateOpen {
		return errors.New("upstream circuit breaker is open")
	}
	return nil
}

func (a *app) Close() error {
	return a.store.Close()
}

func cacheConfig(cfg *config.Config) cache.Config {
	def := cache.DefaultConfig()
	return cache.Config{
		Addr:                cfg.Redis.Addr,
		Password:            cfg.Redis.Password,
		DB:                  cfg.Redis.DB,
		KeyPrefix:           cfg.Catalog.CachePrefix,
		DefaultTTL:          cfg.Catalog.CacheTTL,
		MaxRetries:          def.MaxRetries,
		PoolSize:            cfg.Redis.PoolSize,
		MinIdleConns:        cfg.Redis.MinIdleConns,
		HealthCheckInterval: def.HealthCheckInterval,
	}
}

func transportConfig(cfg *config.Config) transport.Config {
	policy := retry.DefaultPolicy()
	policy.MaxRetries = cfg.Transport.MaxRetries
	policy.InitialDelay = cfg.Transport.RetryInitialDelay
	policy.MaxDelay = cfg.Transport.RetryMaxDelay

	breaker := circuitbreaker.DefaultConfig()
	breaker.Threshold = cfg.Transport.BreakerThreshold
	breaker.ResetTimeout = cfg.Transport.BreakerResetTimeout

	pool := tlsutil.DefaultPoolConfig()
	pool.MaxIdleConnsPerHost = cfg.Transport.MaxIdleConnsPerHost
	if pool.MaxIdleConnsPerHost < cfg.Runner.Concurrency {
		pool.MaxIdleConnsPerHost = cfg.Runner.Concurrency
	}

	return transport.Config{
		APIKey:         cfg.API.APIKey,
		Title:          cfg.API.Title,
		Timeout:        cfg.API.Timeout,
		RateLimitRPS:   cfg.Transport.RateLimitRPS,
		RateLimitBurst: cfg.Transport.RateLimitBurst,
		Retry:          policy,
		Breaker:        breaker,
		Pool:           pool,
	}
}
