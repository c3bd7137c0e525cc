// Copyright (c) CartoonPrint Authors.
// Licensed under the MIT License.

/*
Package main 提供 CartoonPrint 服务端程序入口。

# 概述

cmd/cartoonprint 是 CartoonPrint 的可执行入口，提供 HTTP API 服务、
离线转换、健康检查和版本查询等子命令。程序支持 YAML 配置文件加载、
结构化日志（zap）、Prometheus 指标采集与 OpenTelemetry 追踪。

# 核心类型

  - Server：主服务器，管理 API、Metrics 双端口及优雅关闭
  - Middleware：HTTP 中间件函数签名 func(http.Handler) http.Handler

# 主要能力

  - 子命令：serve（启动服务）、convert（本地图片转 STL）、version、health
  - 路由：GET /、/health、/healthz、/ready、/version，
    POST /generate-stl/，GET /outputs/<file>（可关闭，不列目录）
  - 中间件链：Recovery、RequestID、SecurityHeaders、OTelTracing、
    RequestLogger、Metrics、CORS、RateLimiter（基于 IP）、
    APIKeyAuth（X-API-Key / query 参数）
  - Metrics 服务器：独立端口暴露 /metrics（Prometheus），端口 0 时关闭
  - 优雅关闭：信号 → 并发关闭 API 与 Metrics → 刷新遥测
  - 构建注入：Version、BuildTime、GitCommit 通过 ldflags 设置
*/
package main
