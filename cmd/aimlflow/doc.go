/*
Package main 提供 aimlflow 命令行与 HTTP 服务入口。

# 子命令

  - run：从文件或 stdin 读取 JSON item，执行单个操作并输出结果行
  - models：按操作过滤网关模型目录
  - serve：启动 HTTP API 与独立的 Prometheus 指标端口
  - health：探测运行中服务的 /health
  - version：打印构建注入的 Version、BuildTime、GitCommit

# 装配

newApp 按配置组装缓存（Redis 或进程内）、传输客户端（熔断、重试、限速）、
生成轮询器、模型目录与批量执行器；serve 额外注入 metrics.Collector。

# 中间件链

Recovery → RequestID → SecurityHeaders → OTelTracing → RequestLogger →
MetricsMiddleware → CORS → Authenticate（X-API-Key 或 JWT）→ RateLimiter。
RequestID 写入 context 后，网关请求沿用同一个 X-Request-ID。
*/
package main
