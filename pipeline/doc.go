// Copyright 2026 CartoonPrint Authors. All rights reserved.
// Licensed under the MIT License.

/*
Package pipeline 编排一次完整的 图像 → STL + 预览 转换。

# 阶段

	upload → decode → enhance → background → sketch → contour → mesh → export → render

每个阶段在请求 goroutine 上同步执行，拥有独立的 OTel 子 span 与
stage_duration_seconds 观测。任何阶段的错误（以及 panic）都会被转换
为带阶段错误码的 *types.Error 返回，不做清理：渲染失败时已写出的
STL 保留在磁盘上。
*/
package pipeline
