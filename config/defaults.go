// =============================================================================
// 📦 CartoonPrint 默认配置
// =============================================================================
// 默认流水线常量：512 缩略、1.8 对比度、21×21 模糊、
// 256×256 掩码、0.5 阈值、10 单位拉伸、200 距离 512×512 预览。
// =============================================================================
package config

import "time"

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Server:     DefaultServerConfig(),
		Pipeline:   DefaultPipelineConfig(),
		Background: DefaultBackgroundConfig(),
		Preview:    DefaultPreviewConfig(),
		Storage:    DefaultStorageConfig(),
		Log:        DefaultLogConfig(),
		Telemetry:  DefaultTelemetryConfig(),
	}
}

// DefaultServerConfig 返回默认服务器配置
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		HTTPPort:        8000,
		MetricsPort:     9091,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    2 * time.Minute,
		ShutdownTimeout: 15 * time.Second,
		RateLimitRPS:    10,
		RateLimitBurst:  20,
	}
}

// DefaultPipelineConfig 返回默认流水线参数
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		MaxDimension:   512,
		ContrastFactor: 1.8,
		BlurKernel:     21,
		MaskSize:       256,
		Threshold:      0.5,
		ContourLevel:   0.5,
		ExtrudeHeight:  10,
		MaxUploadBytes: 32 << 20,
		MaxConcurrent:  0,
		QueueSize:      64,
	}
}

// DefaultBackgroundConfig 返回默认背景移除配置
func DefaultBackgroundConfig() BackgroundConfig {
	return BackgroundConfig{
		Provider: "rembg",
		BaseURL:  "http://localhost:7000",
		Timeout:  60 * time.Second,
	}
}

// DefaultPreviewConfig 返回默认预览配置
func DefaultPreviewConfig() PreviewConfig {
	return PreviewConfig{
		Width:       512,
		Height:      512,
		Distance:    200,
		AngleX:      90,
		FieldOfView: 60,
	}
}

// DefaultStorageConfig 返回默认存储配置
func DefaultStorageConfig() StorageConfig {
	return StorageConfig{
		OutputDir: "outputs",
		URLPrefix: "/outputs",
		Serve:     true,
	}
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:            "info",
		Format:           "json",
		OutputPaths:      []string{"stdout"},
		EnableCaller:     true,
		EnableStacktrace: false,
	}
}

// DefaultTelemetryConfig 返回默认遥测配置
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "cartoonprint",
		SampleRate:   0.1,
	}
}
