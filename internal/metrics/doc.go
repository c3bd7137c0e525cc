// 版权所有 2024 CartoonPrint Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 metrics 提供基于 Prometheus 的指标采集能力，覆盖 HTTP 请求
与 STL 生成流水线两大维度。

# 概述

本包通过 Collector 统一注册和记录 Prometheus 指标，使用 promauto
自动注册机制，所有指标按 namespace 隔离。

# 主要能力

  - HTTP 指标：请求总数、请求耗时、请求/响应体大小，
    按 method/path/status 分组，状态码归类为 2xx/3xx/4xx/5xx。
  - 生成指标：按结果（success 或错误码）计数、端到端耗时、
    各阶段耗时（stage 标签）、每次生成的轮廓数与三角面数。
  - 背景去除指标：按 provider/status 计数。
*/
package metrics
