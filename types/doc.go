// Copyright (c) CartoonPrint Authors.
// Licensed under the MIT License.

/*
Package types 提供 CartoonPrint 的跨包共享类型。

# 核心类型

  - Error / ErrorCode：结构化错误，记录失败的流水线阶段与原始原因

# 主要能力

  - 错误工具链：WrapError / GetErrorCode / PublicMessage
  - 对外只暴露 PublicMessage，错误码仅用于日志、Span 状态与指标
*/
package types
