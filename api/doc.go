// Package api 定义 CartoonPrint HTTP API 的请求与响应结构。
//
// # API Overview
//
// CartoonPrint 提供以下接口：
//   - GET  /               服务存活消息
//   - GET  /health, /healthz, /ready, /version
//   - POST /generate-stl/  multipart 字段 file，返回 GenerateResponse
//   - GET  /outputs/<file> 下载生成的 STL 与预览 PNG
//
// # Errors
//
// 流水线内部失败以 HTTP 200 返回 ErrorResponse；请求体本身不合法时
// 返回 4xx（缺少字段 422，超过上传上限 413，认证失败 401，限流 429）。
//
// # Authentication
//
// 配置了 API Key 时，除健康检查外的接口都需要：
//
//	X-API-Key: your-api-key
//
// # Base URL
//
//	http://localhost:8000
package api
