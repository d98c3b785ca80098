/*
Package aimlapi 定义 AI/ML API 网关集成的公共词汇：操作（Operation）、
媒体类型（MediaType）以及默认网关地址。

子包按依赖顺序排列：

  - request：请求描述构建（版本前缀提升、默认请求头）
  - fields：可选字段投影（setIfDefined 语义）
  - payload：有序 JSON 树、同义字段表、归一化
  - extract：媒体产物与文本抽取
  - generation：生成结果解析与异步轮询（核心状态机）
  - catalog：模型目录过滤与缓存
  - profiles：按模型前缀选择的请求体配置
  - transport：带鉴权、限流、重试、熔断的 HTTP 传输
  - operations：七种操作执行器与批量执行器
*/
package aimlapi
