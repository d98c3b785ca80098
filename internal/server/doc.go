/*
包 server 提供 HTTP 服务器生命周期管理，支持非阻塞启动与优雅关闭。

# 核心类型

  - Manager：封装 net/http.Server 与 net.Listener，提供
    Start/Wait/Shutdown 生命周期方法。
  - Config：监听地址、读写超时、空闲超时、最大请求头大小与
    优雅关闭超时。

操作接口会同步等待异步生成任务完成，WriteTimeout 默认放宽到
分钟级。信号监听由调用方通过 context 注入。
*/
package server
