// 版权所有 2024 CartoonPrint Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 server 提供 HTTP/HTTPS 服务器生命周期管理，支持非阻塞启动
与优雅关闭。

# 核心类型

  - Manager：持有 http.Server、net.Listener 与异步错误通道，
    提供 Start/Shutdown/Wait 等生命周期方法。
  - Config：名称、监听地址、读写与空闲超时、最大请求头大小、
    优雅关闭超时、最大并发连接数以及可选的 TLS 证书。

# 主要能力

  - 非阻塞启动：Start 在后台 goroutine 中运行服务；配置证书时
    使用 tlsutil.DefaultTLSConfig 以 HTTPS 提供服务。
  - 连接上限：MaxConnections > 0 时监听器经 netutil.LimitListener
    包装，超出的连接在 Accept 处排队。
  - 优雅关闭：Shutdown 在配置的超时内排空进行中的生成请求。
  - 等待：Wait 在 ctx 结束（通常由 signal.NotifyContext 触发）或
    服务器异常退出时返回。
  - 状态查询：IsRunning/Addr/ListenAddr。
*/
package server
