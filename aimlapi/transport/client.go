package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/BaSui01/aimlflow/aimlapi"
	"github.com/BaSui01/aimlflow/aimlapi/payload"
	"github.com/BaSui01/aimlflow/aimlapi/request"
	"github.com/BaSui01/aimlflow/internal/circuitbreaker"
	"github.com/BaSui01/aimlflow/internal/retry"
	"github.com/BaSui01/aimlflow/internal/tlsutil"
	"github.com/BaSui01/aimlflow/types"
)

const (
	tracerName   = "github.com/BaSui01/aimlflow/aimlapi/transport"
	upstreamName = "aimlapi"

	// 响应体上限，超过部分被截断后按 JSON 解析会失败
	maxResponseBytes = 64 << 20
	maxErrorBody     = 512
)

// Recorder 接收上游请求指标，由 metrics.Collector 实现
type Recorder interface {
	RecordUpstreamRequest(method, path string, status int, duration time.Duration)
	RecordUpstreamRetry(path string)
	RecordBreakerState(upstream string, state int)
}

// Config 传输层配置
type Config struct {
	APIKey         string
	Title          string // 非空时替换默认 X-Title，调用方自带的标题仍然优先
	Timeout        time.Duration
	RateLimitRPS   float64 // 0 表示不限速
	RateLimitBurst int
	Retry          retry.Policy
	Breaker        circuitbreaker.Config
	Pool           tlsutil.PoolConfig
}

// DefaultConfig 返回默认传输配置
func DefaultConfig() Config {
	return Config{
		Timeout: 120 * time.Second,
		Retry:   retry.DefaultPolicy(),
		Breaker: circuitbreaker.DefaultConfig(),
		Pool:    tlsutil.DefaultPoolConfig(),
	}
}

// Client 向 AIMLAPI 网关发送描述符请求，并把响应解析为 Payload。
// 调用链：熔断 -> 重试 -> 限速 -> HTTP。
// POST 等非幂等请求只在 429 或连接未建立时重试，避免重复提交计费的生成任务。
type Client struct {
	apiKey   string
	title    string
	http     *http.Client
	limiter  *rate.Limiter
	retryer  *retry.Retryer
	submits  *retry.Retryer
	breaker  *circuitbreaker.Breaker
	recorder Recorder
	tracer   trace.Tracer
	logger   *zap.Logger
}

// Option 配置 Client
type Option func(*Client)

// WithHTTPClient 替换底层 HTTP 客户端（测试中指向 httptest 服务）
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithRecorder 注入指标记录器
func WithRecorder(r Recorder) Option {
	return func(c *Client) { c.recorder = r }
}

// WithTracer 注入 tracer，默认使用全局 TracerProvider
func WithTracer(t trace.Tracer) Option {
	return func(c *Client) {
		if t != nil {
			c.tracer = t
		}
	}
}

// New 创建传输客户端
func New(cfg Config, logger *zap.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}

	c := &Client{
		apiKey: cfg.APIKey,
		title:  cfg.Title,
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: tlsutil.SecureTransport(cfg.Pool),
		},
		tracer: otel.Tracer(tracerName),
		logger: logger.With(zap.String("component", "transport")),
	}
	for _, opt := range opts {
		opt(c)
	}

	if cfg.RateLimitRPS > 0 {
		burst := cfg.RateLimitBurst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), burst)
	}

	c.retryer = retry.New(cfg.Retry, c.logger)
	c.submits = retry.New(submitPolicy(cfg.Retry), c.logger)

	onChange := cfg.Breaker.OnStateChange
	cfg.Breaker.OnStateChange = func(from, to circuitbreaker.State) {
		c.logger.Warn("上游熔断状态变更",
			zap.String("from", from.String()),
			zap.String("to", to.String()),
		)
		if c.recorder != nil {
			c.recorder.RecordBreakerState(upstreamName, int(to))
		}
		if onChange != nil {
			onChange(from, to)
		}
	}
	c.breaker = circuitbreaker.New(cfg.Breaker, c.logger)

	return c
}

// BreakerState 返回当前熔断状态
func (c *Client) BreakerState() circuitbreaker.State {
	return c.breaker.State()
}

// Do 执行一次描述符请求。非 2xx 响应返回 TRANSPORT 错误，
// 携带 HTTP 状态码和截断后的响应体。
func (c *Client) Do(ctx context.Context, d *request.Descriptor) (*payload.Payload, error) {
	body, err := encodeBody(d)
	if err != nil {
		return nil, err
	}

	ctx, span := c.tracer.Start(ctx, "aimlapi "+d.Method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", d.Method),
			attribute.String("url.path", d.Path),
		))
	defer span.End()

	retryer := c.retryer
	if !idempotent(d.Method) {
		retryer = c.submits
	}

	attempts := 0
	p, err := circuitbreaker.Call(ctx, c.breaker, func(ctx context.Context) (*payload.Payload, error) {
		return retry.Do(ctx, retryer, func(ctx context.Context) (*payload.Payload, error) {
			attempts++
			if attempts > 1 && c.recorder != nil {
				c.recorder.RecordUpstreamRetry(d.Path)
			}
			return c.send(ctx, d, body)
		})
	})
	span.SetAttributes(attribute.Int("aimlapi.attempts", attempts))
	if err != nil {
		err = tagUpstream(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return p, nil
}

func idempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// submitPolicy 收窄非幂等请求的重试条件：网关拒绝（429）或请求未发出（拨号失败）。
// 5xx 与超时时网关可能已经受理任务，重试会再启动一次生成。
func submitPolicy(p retry.Policy) retry.Policy {
	base := p.ShouldRetry
	if base == nil {
		base = types.IsRetryable
	}
	p.ShouldRetry = func(err error) bool {
		return notSent(err) && base(err)
	}
	return p
}

func notSent(err error) bool {
	if apiErr, ok := types.AsError(err); ok && apiErr.HTTPStatus == http.StatusTooManyRequests {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}

// tagUpstream 标记错误来源；熔断拒绝转为 SERVICE_UNAVAILABLE
func tagUpstream(err error) error {
	if errors.Is(err, circuitbreaker.ErrCircuitOpen) || errors.Is(err, circuitbreaker.ErrTooManyCallsInHalfOpen) {
		return types.NewError(types.ErrServiceUnavailable, "upstream temporarily unavailable").
			WithHTTPStatus(http.StatusServiceUnavailable).
			WithProvider(upstreamName).
			WithCause(err)
	}
	if apiErr, ok := types.AsError(err); ok && apiErr.Provider == "" {
		apiErr.Provider = upstreamName
	}
	return err
}

func (c *Client) send(ctx context.Context, d *request.Descriptor, body []byte) (*payload.Payload, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, types.NewError(types.ErrTransport, "rate limiter wait aborted").
				WithCause(err)
		}
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, d.Method, d.URL(), reader)
	if err != nil {
		return nil, types.NewError(types.ErrTransport, "build http request").WithCause(err)
	}
	req.Header = d.Header.Clone()
	if body == nil {
		req.Header.Del("Content-Type")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if c.title != "" && req.Header.Get("X-Title") == aimlapi.Title {
		req.Header.Set("X-Title", c.title)
	}
	if req.Header.Get("X-Request-ID") == "" {
		id, ok := types.RequestID(ctx)
		if !ok {
			id = uuid.NewString()
		}
		req.Header.Set("X-Request-ID", id)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.record(d, 0, start)
		if ctx.Err() != nil {
			return nil, types.NewError(types.ErrTransport, "request cancelled").WithCause(ctx.Err())
		}
		c.logger.Warn("上游请求失败",
			zap.String("method", d.Method),
			zap.String("path", d.Path),
			zap.Error(err),
		)
		return nil, types.NewTransportError(0, err.Error()).WithCause(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	c.record(d, resp.StatusCode, start)
	if err != nil {
		return nil, types.NewTransportError(0, "read response body: "+err.Error()).WithCause(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := errorMessage(raw, resp.StatusCode)
		c.logger.Warn("上游返回错误状态",
			zap.String("method", d.Method),
			zap.String("path", d.Path),
			zap.Int("status", resp.StatusCode),
			zap.String("message", msg),
		)
		return nil, types.NewTransportError(resp.StatusCode, msg)
	}

	c.logger.Debug("上游请求完成",
		zap.String("method", d.Method),
		zap.String("path", d.Path),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(raw)),
	)
	return decode(raw, d.ExpectText, resp.Header.Get("Content-Type"))
}

func (c *Client) record(d *request.Descriptor, status int, start time.Time) {
	if c.recorder != nil {
		c.recorder.RecordUpstreamRequest(d.Method, d.Path, status, time.Since(start))
	}
}

// encodeBody 决定请求体：RawBody 原样发送，GET/HEAD 无请求体，其余编码 JSON
func encodeBody(d *request.Descriptor) ([]byte, error) {
	if d.RawBody != nil {
		return d.RawBody, nil
	}
	if d.Method == http.MethodGet || d.Method == http.MethodHead {
		return nil, nil
	}
	b, err := json.Marshal(d.Body)
	if err != nil {
		return nil, types.NewValidationError("request body is not JSON serialisable: %v", err)
	}
	return b, nil
}

// decode 按描述符与 Content-Type 选择 JSON 或纯文本解析。
// 描述符声明文本时从不按 JSON 解析，"42" 这样的转写结果保持为文本。
// 仅 Content-Type 为 text/* 时，JSON 对象或数组仍按 JSON 解析：
// 未设置 Content-Type 的 JSON 响应会被 net/http 嗅探为 text/plain。
func decode(raw []byte, expectText bool, contentType string) (*payload.Payload, error) {
	trimmed := bytes.TrimSpace(raw)
	if expectText {
		return payload.FromText(string(raw)), nil
	}
	mediaType, _, _ := mime.ParseMediaType(contentType)
	if strings.HasPrefix(mediaType, "text/") && !jsonDocument(trimmed) {
		return payload.FromText(string(raw)), nil
	}
	if len(trimmed) == 0 {
		return payload.Parse([]byte("{}"))
	}
	return payload.Parse(trimmed)
}

func jsonDocument(b []byte) bool {
	return len(b) > 0 && (b[0] == '{' || b[0] == '[') && gjson.ValidBytes(b)
}

// errorMessage 从错误响应中提取可读消息，失败时回退到截断的原文，
// 空响应体回退到状态码文本
func errorMessage(raw []byte, status int) string {
	if gjson.ValidBytes(raw) {
		for _, path := range []string{"error.message", "message", "detail", "error", "msg"} {
			if v := gjson.GetBytes(raw, path); v.Type == gjson.String && strings.TrimSpace(v.Str) != "" {
				return v.Str
			}
		}
	}
	msg := strings.TrimSpace(string(raw))
	if msg == "" {
		if text := http.StatusText(status); text != "" {
			return text
		}
		return fmt.Sprintf("HTTP %d", status)
	}
	return truncate(msg, maxErrorBody)
}

// truncate 按字节上限截断，切点回退到 rune 边界
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return fmt.Sprintf("%s...(%d bytes truncated)", s[:cut], len(s)-cut)
}
