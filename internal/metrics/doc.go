/*
Package metrics 提供基于 Prometheus 的内部指标收集器。

Collector 覆盖四类指标：HTTP 服务请求、上游网关请求（含重试与熔断状态）、
生成任务解析（结果、轮询次数、耗时）以及目录缓存命中率。
Collector 同时满足 generation.Recorder 与 catalog.CacheRecorder 接口。
*/
package metrics
