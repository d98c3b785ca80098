/*
Package transport 实现 AIMLAPI 网关的 HTTP 传输层。

Client 满足 generation.Doer 与 catalog.Doer 接口：
为请求添加 Bearer 认证与 X-Request-ID，经客户端限速、指数退避重试与熔断保护后发送，
并依据描述符与 Content-Type 将响应解析为 JSON 或纯文本 Payload。
非 2xx 响应统一映射为 TRANSPORT 错误。
*/
package transport
