package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/BaSui01/aimlflow/api/handlers"
	"github.com/BaSui01/aimlflow/config"
	"github.com/BaSui01/aimlflow/internal/metrics"
	"github.com/BaSui01/aimlflow/internal/server"
	"github.com/BaSui01/aimlflow/internal/telemetry"
)

// maxBatchItems 单次 HTTP 请求允许的最大 item 数
const maxBatchItems = 100

// skipAuthPaths 不需要认证的路径
var skipAuthPaths = []string{"/health", "/healthz", "/ready", "/readyz", "/version", "/metrics"}

// =============================================================================
// 🖥️ serve 命令
// =============================================================================

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	logger := initLogger(cfg.Log)
	defer logger.Sync()

	logger.Info("Starting aimlflow",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit),
	)

	otelProviders, err := telemetry.Init(cfg.Telemetry, Version, logger)
	if err != nil {
		logger.Warn("failed to initialize telemetry", zap.Error(err))
	}

	collector := metrics.NewCollector("aimlflow", logger)
	a, err := newApp(cfg, collector, logger)
	if err != nil {
		return err
	}

	srv := NewServer(cfg, a, logger)
	if err := srv.Start(); err != nil {
		_ = a.Close()
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	waitErr := srv.Wait(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	srv.Shutdown(shutdownCtx)
	if otelProviders != nil {
		if err := otelProviders.Shutdown(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown error", zap.Error(err))
		}
	}

	logger.Info("aimlflow stopped")
	return waitErr
}

// =============================================================================
// 🖥️ Server 结构
// =============================================================================

// Server 管理 API 与 Metrics 两个 HTTP 端口
type Server struct {
	cfg    *config.Config
	app    *app
	logger *zap.Logger

	httpManager    *server.Manager
	metricsManager *server.Manager

	rateLimiterCancel context.CancelFunc
}

// NewServer 创建新的服务器实例
func NewServer(cfg *config.Config, a *app, logger *zap.Logger) *Server {
	return &Server{cfg: cfg, app: a, logger: logger}
}

// Start 启动所有服务（非阻塞）
func (s *Server) Start() error {
	handler := s.buildHandler()

	s.httpManager = server.NewManager("api", handler, s.serverConfig(s.cfg.Server.HTTPPort), s.logger)
	if err := s.httpManager.Start(); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	s.metricsManager = server.NewManager("metrics", metricsMux, s.serverConfig(s.cfg.Server.MetricsPort), s.logger)
	if err := s.metricsManager.Start(); err != nil {
		_ = s.httpManager.Shutdown(context.Background())
		return fmt.Errorf("failed to start metrics server: %w", err)
	}

	s.logger.Info("All servers started",
		zap.String("http_addr", s.httpManager.Addr()),
		zap.String("metrics_addr", s.metricsManager.Addr()),
	)
	return nil
}

func (s *Server) serverConfig(port int) server.Config {
	return server.Config{
		Addr:            fmt.Sprintf(":%d", port),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		IdleTimeout:     2 * s.cfg.Server.ReadTimeout,
		MaxHeaderBytes:  1 << 20,
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}
}

// buildHandler 注册路由并构建中间件链
func (s *Server) buildHandler() http.Handler {
	mux := http.NewServeMux()

	health := handlers.NewHealthHandler(s.logger)
	health.RegisterCheck(handlers.NewFuncCheck("cache", s.app.ping))
	health.RegisterCheck(handlers.NewFuncCheck("upstream", s.app.upstreamReady))

	mux.HandleFunc("GET /health", health.HandleHealth)
	mux.HandleFunc("GET /healthz", health.HandleHealth)
	mux.HandleFunc("GET /ready", health.HandleReady)
	mux.HandleFunc("GET /readyz", health.HandleReady)
	mux.HandleFunc("GET /version", health.HandleVersion(Version, BuildTime, GitCommit))

	ops := handlers.NewOperationHandler(s.app.runner, s.cfg.API.BaseURL, maxBatchItems, s.logger)
	mux.HandleFunc("GET /api/v1/operations", ops.HandleList)
	mux.HandleFunc("POST /api/v1/operations/{operation}", ops.HandleExecute)

	models := handlers.NewModelsHandler(s.app.lister, s.cfg.API.BaseURL, s.logger)
	mux.HandleFunc("GET /api/v1/models", models.HandleList)

	rateLimiterCtx, cancel := context.WithCancel(context.Background())
	s.rateLimiterCancel = cancel

	chain := []Middleware{
		Recovery(s.logger),
		RequestID(),
		SecurityHeaders(),
		OTelTracing(),
		RequestLogger(s.logger),
	}
	if s.app.collector != nil {
		chain = append(chain, MetricsMiddleware(s.app.collector))
	}
	chain = append(chain, CORS(s.cfg.Server.CORSAllowedOrigins))
	// 认证在限流之前，租户才能按 tenant 计数
	if auth := Authenticate(s.cfg.Server, skipAuthPaths, s.logger); auth != nil {
		chain = append(chain, auth)
	} else {
		s.logger.Warn("no API keys or JWT configured, API is unauthenticated")
	}
	chain = append(chain,
		RateLimiter(rateLimiterCtx, float64(s.cfg.Server.RateLimitRPS), s.cfg.Server.RateLimitBurst, s.logger),
	)
	return Chain(mux, chain...)
}

// Wait 阻塞直到 ctx 结束或任一服务器异常退出
func (s *Server) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
		return nil
	case err := <-s.httpManager.Errors():
		return err
	case err := <-s.metricsManager.Errors():
		return err
	}
}

// Shutdown 优雅关闭所有服务
func (s *Server) Shutdown(ctx context.Context) {
	s.logger.Info("Starting graceful shutdown...")

	if s.rateLimiterCancel != nil {
		s.rateLimiterCancel()
	}
	if s.httpManager != nil {
		if err := s.httpManager.Shutdown(ctx); err != nil {
			s.logger.Error("HTTP server shutdown error", zap.Error(err))
		}
	}
	if s.metricsManager != nil {
		if err := s.metricsManager.Shutdown(ctx); err != nil {
			s.logger.Error("Metrics server shutdown error", zap.Error(err))
		}
	}
	if err := s.app.Close(); err != nil {
		s.logger.Error("cache close error", zap.Error(err))
	}

	s.logger.Info("Graceful shutdown completed")
}

// =============================================================================
// 🏥 健康检查命令
// =============================================================================

func runHealthCheck(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("health", flag.ContinueOnError)
	addr := fs.String("addr", "http://localhost:8080", "Server address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(*addr + "/health")
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.New("health check failed: status " + resp.Status)
	}
	fmt.Fprintln(stdout, "OK")
	return nil
}
