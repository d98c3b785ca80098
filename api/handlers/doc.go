/*
Package handlers 提供 aimlflow HTTP API 的请求处理器实现。

# 核心类型

  - OperationHandler：执行一批条目（POST /api/v1/operations/{operation}）
    并列出可用操作（GET /api/v1/operations）
  - ModelsHandler：按操作过滤网关模型目录（GET /api/v1/models）
  - HealthHandler：存活、就绪与版本端点
  - Response：统一 JSON 响应结构（success + data + error + timestamp）
  - ResponseWriter：包装 http.ResponseWriter 以捕获状态码

错误统一经 WriteError 输出，types.Error 的错误码映射为 HTTP 状态码；
上游传输错误一律表现为 502/504，不透传网关的状态码。
*/
package handlers
