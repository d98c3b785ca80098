// Package config 提供 aimlflow 的配置管理功能。
//
// 配置来源依次为默认值、YAML 文件与 AIMLFLOW_ 前缀的环境变量，
// 覆盖网关连接、轮询预算、上游传输、目录缓存、批量执行与 HTTP 服务。
package config
