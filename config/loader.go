// =============================================================================
// 📦 CartoonPrint 配置加载器
// =============================================================================
// 统一配置加载，支持 YAML 文件 + 环境变量覆盖
//
// 使用方法:
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("config.yaml").
//	    WithEnvPrefix("CARTOONPRINT").
//	    Load()
//
// 配置优先级: 默认值 → YAML 文件 → 环境变量
// =============================================================================
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// 🎯 核心配置结构
// =============================================================================

// Config 是 CartoonPrint 的完整配置结构
type Config struct {
	// Server 服务器配置
	Server ServerConfig `yaml:"server" env:"SERVER"`

	// Pipeline 图像→网格流水线参数
	Pipeline PipelineConfig `yaml:"pipeline" env:"PIPELINE"`

	// Background 背景移除服务配置
	Background BackgroundConfig `yaml:"background" env:"BACKGROUND"`

	// Preview 预览渲染配置
	Preview PreviewConfig `yaml:"preview" env:"PREVIEW"`

	// Storage 产物输出目录配置
	Storage StorageConfig `yaml:"storage" env:"STORAGE"`

	// Log 日志配置
	Log LogConfig `yaml:"log" env:"LOG"`

	// Telemetry 遥测配置
	Telemetry TelemetryConfig `yaml:"telemetry" env:"TELEMETRY"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	// HTTP 端口
	HTTPPort int `yaml:"http_port" env:"HTTP_PORT"`
	// Metrics 端口，0 表示不启动 metrics 服务
	MetricsPort int `yaml:"metrics_port" env:"METRICS_PORT"`
	// 读取超时
	ReadTimeout time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	// 写入超时（需覆盖一次完整的生成耗时）
	WriteTimeout time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	// 优雅关闭超时
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
	// 每个 IP 的限流速率（每秒请求数），0 表示关闭限流
	RateLimitRPS int `yaml:"rate_limit_rps" env:"RATE_LIMIT_RPS"`
	// 限流突发容量
	RateLimitBurst int `yaml:"rate_limit_burst" env:"RATE_LIMIT_BURST"`
	// 允许的跨域来源
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins" env:"CORS_ALLOWED_ORIGINS"`
	// API Key 列表，为空时不启用认证
	APIKeys []string `yaml:"api_keys" env:"API_KEYS"`
	// 是否允许通过 query 参数传递 API Key
	AllowQueryAPIKey bool `yaml:"allow_query_api_key" env:"ALLOW_QUERY_API_KEY"`
	// 同时接受的最大连接数，0 表示不限制
	MaxConnections int `yaml:"max_connections" env:"MAX_CONNECTIONS"`
	// TLS 证书与私钥，同时配置时以 HTTPS 提供服务
	TLSCertFile string `yaml:"tls_cert_file" env:"TLS_CERT_FILE"`
	TLSKeyFile  string `yaml:"tls_key_file" env:"TLS_KEY_FILE"`
}

// PipelineConfig 流水线参数
type PipelineConfig struct {
	// 输入图像最大边长，超过时等比缩小
	MaxDimension int `yaml:"max_dimension" env:"MAX_DIMENSION"`
	// 对比度增强系数
	ContrastFactor float64 `yaml:"contrast_factor" env:"CONTRAST_FACTOR"`
	// 高斯模糊核尺寸（奇数）
	BlurKernel int `yaml:"blur_kernel" env:"BLUR_KERNEL"`
	// 二值掩码边长
	MaskSize int `yaml:"mask_size" env:"MASK_SIZE"`
	// 二值化阈值（归一化后）
	Threshold float64 `yaml:"threshold" env:"THRESHOLD"`
	// 轮廓追踪等值线
	ContourLevel float64 `yaml:"contour_level" env:"CONTOUR_LEVEL"`
	// 拉伸高度
	ExtrudeHeight float64 `yaml:"extrude_height" env:"EXTRUDE_HEIGHT"`
	// 上传文件大小上限
	MaxUploadBytes int64 `yaml:"max_upload_bytes" env:"MAX_UPLOAD_BYTES"`
	// 同时运行的生成任务数，0 表示不限制
	MaxConcurrent int `yaml:"max_concurrent" env:"MAX_CONCURRENT"`
	// 等待执行的生成任务队列长度
	QueueSize int `yaml:"queue_size" env:"QUEUE_SIZE"`
}

// BackgroundConfig 背景移除配置
type BackgroundConfig struct {
	// Provider: rembg（默认）, none（关闭背景去除）
	Provider string `yaml:"provider" env:"PROVIDER"`
	// rembg 服务地址
	BaseURL string `yaml:"base_url" env:"BASE_URL"`
	// 请求超时
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// PreviewConfig 预览渲染配置
type PreviewConfig struct {
	Width  int `yaml:"width" env:"WIDTH"`
	Height int `yaml:"height" env:"HEIGHT"`
	// 相机到网格重心的距离
	Distance float64 `yaml:"distance" env:"DISTANCE"`
	// 相机欧拉角（度）
	AngleX float64 `yaml:"angle_x" env:"ANGLE_X"`
	AngleY float64 `yaml:"angle_y" env:"ANGLE_Y"`
	AngleZ float64 `yaml:"angle_z" env:"ANGLE_Z"`
	// 垂直视场角（度）
	FieldOfView float64 `yaml:"field_of_view" env:"FIELD_OF_VIEW"`
}

// StorageConfig 产物存储配置
type StorageConfig struct {
	// 输出目录
	OutputDir string `yaml:"output_dir" env:"OUTPUT_DIR"`
	// 返回给调用方的 URL 前缀
	URLPrefix string `yaml:"url_prefix" env:"URL_PREFIX"`
	// 是否由本服务直接托管输出目录
	Serve bool `yaml:"serve" env:"SERVE"`
}

// LogConfig 日志配置
type LogConfig struct {
	// 日志级别: debug, info, warn, error
	Level string `yaml:"level" env:"LEVEL"`
	// 输出格式: json, console
	Format string `yaml:"format" env:"FORMAT"`
	// 输出路径
	OutputPaths []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
	// 是否启用调用者信息
	EnableCaller bool `yaml:"enable_caller" env:"ENABLE_CALLER"`
	// 是否启用堆栈跟踪
	EnableStacktrace bool `yaml:"enable_stacktrace" env:"ENABLE_STACKTRACE"`
}

// TelemetryConfig 遥测配置
type TelemetryConfig struct {
	// 是否启用
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// OTLP 端点
	OTLPEndpoint string `yaml:"otlp_endpoint" env:"OTLP_ENDPOINT"`
	// 服务名称
	ServiceName string `yaml:"service_name" env:"SERVICE_NAME"`
	// 采样率
	SampleRate float64 `yaml:"sample_rate" env:"SAMPLE_RATE"`
}

// =============================================================================
// 🔧 配置加载器
// =============================================================================

// Loader 配置加载器（Builder 模式）
type Loader struct {
	configPath string
	envPrefix  string
	validators []func(*Config) error
}

// NewLoader 创建新的配置加载器
func NewLoader() *Loader {
	return &Loader{
		envPrefix:  "CARTOONPRINT",
		validators: make([]func(*Config) error, 0),
	}
}

// WithConfigPath 设置配置文件路径
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix 设置环境变量前缀
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// WithValidator 添加配置验证器
func (l *Loader) WithValidator(v func(*Config) error) *Loader {
	l.validators = append(l.validators, v)
	return l
}

// Load 加载配置
// 优先级: 默认值 → YAML 文件 → 环境变量
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := l.loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	for _, v := range l.validators {
		if err := v(cfg); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}

	return cfg, nil
}

// loadFromFile 从 YAML 文件加载配置
func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// 文件不存在，使用默认值
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// loadFromEnv 从环境变量加载配置
func (l *Loader) loadFromEnv(cfg *Config) error {
	return l.setFieldsFromEnv(reflect.ValueOf(cfg).Elem(), l.envPrefix)
}

// setFieldsFromEnv 递归设置结构体字段
func (l *Loader) setFieldsFromEnv(v reflect.Value, prefix string) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		envTag := t.Field(i).Tag.Get("env")
		if envTag == "" || envTag == "-" {
			continue
		}

		envKey := prefix + "_" + envTag

		if field.Kind() == reflect.Struct {
			if err := l.setFieldsFromEnv(field, envKey); err != nil {
				return err
			}
			continue
		}

		envValue, ok := os.LookupEnv(envKey)
		if !ok || envValue == "" {
			continue
		}

		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("failed to set %s: %w", envKey, err)
		}
	}

	return nil
}

// setFieldValue 设置字段值
func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		// 特殊处理 time.Duration
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return err
			}
			field.SetInt(i)
		}

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)

	case reflect.Slice:
		// 逗号分隔的字符串切片
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			field.Set(reflect.ValueOf(parts))
		}
	}

	return nil
}

// =============================================================================
// 🔍 校验
// =============================================================================

// Validate 验证配置
func (c *Config) Validate() error {
	var errs []string

	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		errs = append(errs, "invalid HTTP port")
	}
	if c.Server.MetricsPort < 0 || c.Server.MetricsPort > 65535 {
		errs = append(errs, "invalid metrics port")
	}
	if c.Server.MaxConnections < 0 {
		errs = append(errs, "server.max_connections must not be negative")
	}
	if (c.Server.TLSCertFile == "") != (c.Server.TLSKeyFile == "") {
		errs = append(errs, "server.tls_cert_file and server.tls_key_file must be set together")
	}

	p := c.Pipeline
	if p.MaxDimension <= 0 {
		errs = append(errs, "pipeline.max_dimension must be positive")
	}
	if p.ContrastFactor < 0 {
		errs = append(errs, "pipeline.contrast_factor must not be negative")
	}
	if p.BlurKernel <= 0 || p.BlurKernel%2 == 0 {
		errs = append(errs, "pipeline.blur_kernel must be a positive odd number")
	}
	if p.MaskSize < 2 {
		errs = append(errs, "pipeline.mask_size must be at least 2")
	}
	if p.Threshold <= 0 || p.Threshold >= 1 {
		errs = append(errs, "pipeline.threshold must be between 0 and 1")
	}
	if p.ExtrudeHeight <= 0 {
		errs = append(errs, "pipeline.extrude_height must be positive")
	}
	if p.MaxUploadBytes <= 0 {
		errs = append(errs, "pipeline.max_upload_bytes must be positive")
	}
	if p.MaxConcurrent < 0 {
		errs = append(errs, "pipeline.max_concurrent must not be negative")
	}
	if p.QueueSize < 0 {
		errs = append(errs, "pipeline.queue_size must not be negative")
	}

	switch c.Background.Provider {
	case "none":
	case "rembg":
		if c.Background.BaseURL == "" {
			errs = append(errs, "background.base_url is required for rembg")
		}
	default:
		errs = append(errs, fmt.Sprintf("unsupported background provider: %q", c.Background.Provider))
	}

	if c.Preview.Width <= 0 || c.Preview.Height <= 0 {
		errs = append(errs, "preview size must be positive")
	}
	if c.Preview.FieldOfView <= 0 || c.Preview.FieldOfView >= 180 {
		errs = append(errs, "preview.field_of_view must be between 0 and 180")
	}

	if c.Storage.OutputDir == "" {
		errs = append(errs, "storage.output_dir is required")
	}
	if strings.Trim(c.Storage.URLPrefix, "/") == "" {
		errs = append(errs, "storage.url_prefix must name a path below /")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// =============================================================================
// 🔍 辅助函数
// =============================================================================

// MustLoad 加载配置，失败时 panic
func MustLoad(path string) *Config {
	cfg, err := NewLoader().WithConfigPath(path).Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}
