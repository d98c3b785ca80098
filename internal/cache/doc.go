/*
包 cache 提供键值缓存能力，用于模型目录缓存与批量执行结果去重。

# 核心类型

  - Store：最小键值接口（Get/Set/Delete/Close）。
  - Manager：基于 go-redis 的实现，支持键前缀、连接池、默认 TTL
    与后台健康检查。
  - MemoryStore：未配置 Redis 时的进程内实现，按 TTL 惰性过期。
  - Open：按 Config.Addr 是否为空选择实现。

未命中统一返回 ErrCacheMiss，可用 IsCacheMiss 判断。
*/
package cache
