// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// =============================================================================
// 📊 指标收集器
// =============================================================================

// Collector 指标收集器
type Collector struct {
	// HTTP 服务指标
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpResponseSize    *prometheus.HistogramVec

	// 上游网关指标
	upstreamRequestsTotal   *prometheus.CounterVec
	upstreamRequestDuration *prometheus.HistogramVec
	upstreamRetries         *prometheus.CounterVec
	breakerState            *prometheus.GaugeVec

	// 生成任务指标
	generationsTotal   *prometheus.CounterVec
	generationPolls    *prometheus.HistogramVec
	generationDuration *prometheus.HistogramVec

	// 操作执行指标
	operationItemsTotal *prometheus.CounterVec

	// 缓存指标
	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec

	logger *zap.Logger
}

// NewCollector 创建指标收集器，所有指标注册到默认 Registry
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	c.httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests served",
		},
		[]string{"method", "path", "status"},
	)

	c.httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 5, 15, 60, 300},
		},
		[]string{"method", "path"},
	)

	c.httpResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_response_size_bytes",
			Help:      "HTTP response size in bytes",
			Buckets:   prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	c.upstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Total number of requests sent to the gateway",
		},
		[]string{"method", "path", "status"},
	)

	c.upstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Gateway request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"method", "path"},
	)

	c.upstreamRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_retries_total",
			Help:      "Total number of retried gateway requests",
		},
		[]string{"path"},
	)

	c.breakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "upstream_circuit_state",
			Help:      "Circuit breaker state (0 closed, 1 open, 2 half-open)",
		},
		[]string{"upstream"},
	)

	c.generationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Total number of resolved generations by outcome",
		},
		[]string{"media_type", "outcome"},
	)

	c.generationPolls = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_polls",
			Help:      "Status polls needed per generation",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 40, 60, 120},
		},
		[]string{"media_type"},
	)

	c.generationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Time from initial response to a terminal state",
			Buckets:   []float64{0.01, 1, 5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"media_type"},
	)

	c.operationItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_items_total",
			Help:      "Total number of executed items by operation and result",
		},
		[]string{"operation", "result"},
	)

	c.cacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of cache hits",
		},
		[]string{"cache_type"},
	)

	c.cacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	c.logger.Info("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// =============================================================================
// 🎯 HTTP 指标记录
// =============================================================================

// RecordHTTPRequest 记录 HTTP 请求
func (c *Collector) RecordHTTPRequest(method, path string, status int, duration time.Duration, responseSize int64) {
	c.httpRequestsTotal.WithLabelValues(method, path, statusCode(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	c.httpResponseSize.WithLabelValues(method, path).Observe(float64(responseSize))
}

// =============================================================================
// 🌐 上游指标记录
// =============================================================================

// RecordUpstreamRequest 记录一次网关请求，status 为 0 表示网络错误
func (c *Collector) RecordUpstreamRequest(method, path string, status int, duration time.Duration) {
	c.upstreamRequestsTotal.WithLabelValues(method, path, statusCode(status)).Inc()
	c.upstreamRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordUpstreamRetry 记录一次重试
func (c *Collector) RecordUpstreamRetry(path string) {
	c.upstreamRetries.WithLabelValues(path).Inc()
}

// RecordBreakerState 记录熔断器状态
func (c *Collector) RecordBreakerState(upstream string, state int) {
	c.breakerState.WithLabelValues(upstream).Set(float64(state))
}

// =============================================================================
// 🎬 生成任务指标记录
// =============================================================================

// RecordGeneration 记录一次生成解析结果
func (c *Collector) RecordGeneration(mediaType, outcome string, polls int, duration time.Duration) {
	c.generationsTotal.WithLabelValues(mediaType, outcome).Inc()
	c.generationPolls.WithLabelValues(mediaType).Observe(float64(polls))
	c.generationDuration.WithLabelValues(mediaType).Observe(duration.Seconds())
}

// RecordOperationItem 记录一个条目的执行结果
func (c *Collector) RecordOperationItem(operation, result string) {
	c.operationItemsTotal.WithLabelValues(operation, result).Inc()
}

// =============================================================================
// 💾 缓存指标记录
// =============================================================================

// RecordCacheLookup 记录缓存命中或未命中
func (c *Collector) RecordCacheLookup(cacheType string, hit bool) {
	if hit {
		c.cacheHits.WithLabelValues(cacheType).Inc()
		return
	}
	c.cacheMisses.WithLabelValues(cacheType).Inc()
}

// =============================================================================
// 🔧 辅助函数
// =============================================================================

// statusCode 将 HTTP 状态码转换为字符串
func statusCode(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "error"
	}
}
