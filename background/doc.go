// Copyright (c) CartoonPrint Authors.
// Licensed under the MIT License.

/*
Package background 提供背景去除协作者。

# 实现

  - NoneRemover：直通，原样返回输入
  - RembgRemover：调用 rembg HTTP 服务（POST /api/remove，multipart 字段 file）

通过 New 按 config.BackgroundConfig.Provider 选择实现。
RembgRemover 同时实现 handlers.HealthCheck，可挂到 /ready。
*/
package background
