/*
Package types 提供 aimlflow 的全局共享类型定义。

types 是最底层的公共包，不依赖任何内部包。承载结构化错误体系与请求上下文键：

  - Error / ErrorCode：带 HTTP 状态码、Retryable、GenerationID 的结构化错误
  - AsError / IsErrorCode / IsRetryable / GetErrorCode：基于 errors.As 的错误工具链
  - NewValidationError / NewUpstreamFailure / NewPollTimeout / NewTransportError /
    NewUnsupportedOperation：常用错误构造
  - WithRequestID / WithTenantID / WithUserID / WithRoles：请求上下文，
    由 HTTP 中间件写入，网关客户端复用 RequestID 作为 X-Request-ID
*/
package types
