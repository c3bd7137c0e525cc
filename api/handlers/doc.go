// Copyright (c) CartoonPrint Authors.
// Licensed under the MIT License.

/*
Package handlers 提供 CartoonPrint HTTP API 的请求处理器实现。

# 核心类型

  - HealthHandler：根路由、/health、/healthz、/ready、/version
  - GenerateHandler：POST /generate-stl/，multipart 字段 file
  - HealthCheck：可插拔就绪检查接口（输出目录、rembg）
  - ResponseWriter：包装 http.ResponseWriter 以捕获状态码与字节数

# 错误约定

流水线失败一律返回 HTTP 200 与 {"error": "<message>"}；
请求体本身不合法（非 multipart、缺少 file 字段）返回 422，
超过上传上限返回 413，响应体格式相同。
*/
package handlers
