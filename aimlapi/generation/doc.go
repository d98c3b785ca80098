/*
Package generation 实现生成结果解析器：把上游网关的同步响应与异步任务响应
统一为完成态结果。

# 状态机

	Created → {Resolved, Polling} → {Completed, Failed, TimedOut}

  - 无 generation id：直接视为最终结果（Resolved）
  - 有 id 且已有可抽取内容、状态不在 running 词表：Resolved
  - 有 id 且状态为 running，或尚无内容：进入 Polling，
    以 GET {path}?generation_id={id} 轮询
  - 任意响应命中 failure 词表：Failed（UPSTREAM_FAILURE，携带原因）
  - 轮询次数耗尽：TimedOut（POLL_TIMEOUT，携带 generation id）

轮询间隔与最大次数通过 Options 逐次传入，不存在包级可变状态。
*/
package generation
