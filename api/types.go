package api

import "time"

// =============================================================================
// 生成接口类型
// =============================================================================

// GenerateResponse 表示 POST /generate-stl/ 的成功响应。
// @Description STL 生成结果
type GenerateResponse struct {
	// STL 文件的相对 URL
	STLURL string `json:"stl_url" example:"/outputs/cat.stl"`
	// 预览 PNG 的相对 URL
	PreviewURL string `json:"preview_url" example:"/outputs/cat_preview.png"`
}

// ErrorResponse 表示失败响应。流水线失败时 HTTP 状态仍为 200。
// @Description 错误响应结构
type ErrorResponse struct {
	// 错误信息
	Error string `json:"error" example:"cannot identify image file"`
}

// =============================================================================
// 健康检查类型
// =============================================================================

// MessageResponse 表示 GET / 的响应。
// @Description 根路由响应
type MessageResponse struct {
	Message string `json:"message" example:"CartoonPrint API is live."`
}

// StatusResponse 存活探针响应
// @Description 存活探针响应
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}

// HealthStatus 就绪检查响应
// @Description 就绪检查响应
type HealthStatus struct {
	// healthy 或 unhealthy
	Status    string                 `json:"status" example:"healthy"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

// CheckResult 单个检查结果
type CheckResult struct {
	// pass 或 fail
	Status  string `json:"status" example:"pass"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty" example:"120µs"`
}

// VersionInfo 构建信息
// @Description 构建信息
type VersionInfo struct {
	Version   string `json:"version" example:"v1.0.0"`
	BuildTime string `json:"build_time"`
	GitCommit string `json:"git_commit"`
}
