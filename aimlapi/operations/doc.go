/*
Package operations 实现 AIMLAPI 网关的七种操作执行器及参考宿主循环。

每个执行器负责：读取条目参数、经 profiles 组装请求体、通过 Doer 发送请求，
异步媒体操作再交给 generation.Resolver 轮询至终态，最后按 extract 模式输出结果行。
Runner 按条目顺序执行批次，支持有界并发、失败继续（输出错误行）与基于 idempotency 的去重。
*/
package operations
