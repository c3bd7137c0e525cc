// =============================================================================
// CartoonPrint 主入口
// =============================================================================
// 服务入口点，包含 HTTP 服务、健康检查、Prometheus 指标与离线转换
//
// 使用方法:
//
//	cartoonprint serve                        # 启动服务
//	cartoonprint serve --config config.yaml   # 指定配置文件
//	cartoonprint convert photo.jpg            # 离线生成 STL 与预览
//	cartoonprint version                      # 显示版本信息
//	cartoonprint health                       # 健康检查
// =============================================================================

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/BaSui01/cartoonprint/api"
	"github.com/BaSui01/cartoonprint/config"
	"github.com/BaSui01/cartoonprint/internal/metrics"
	"github.com/BaSui01/cartoonprint/internal/telemetry"
	"github.com/BaSui01/cartoonprint/internal/tlsutil"
	"github.com/BaSui01/cartoonprint/storage"
	"github.com/BaSui01/cartoonprint/types"
)

// =============================================================================
// 📦 版本信息（构建时注入）
// =============================================================================

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// =============================================================================
// 🎯 主函数
// =============================================================================

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	if Version != "dev" {
		telemetry.Version = Version
	}

	switch os.Args[1] {
	case "serve":
		runServe(os.Args[2:])
	case "convert":
		os.Exit(runConvert(os.Args[2:]))
	case "version":
		printVersion()
	case "health":
		runHealthCheck(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// loadConfig 按 默认值 → YAML → 环境变量 加载并校验配置
func loadConfig(path string) (*config.Config, error) {
	loader := config.NewLoader()
	if path != "" {
		loader = loader.WithConfigPath(path)
	}

	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// =============================================================================
// 🖥️ serve 命令
// =============================================================================

func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	fs.Parse(args)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := initLogger(cfg.Log)
	defer logger.Sync()

	logger.Info("Starting CartoonPrint",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit),
	)

	otelProviders, err := telemetry.Init(cfg.Telemetry, logger)
	if err != nil {
		logger.Warn("failed to initialize telemetry", zap.Error(err))
	}

	collector := metrics.NewCollector("cartoonprint", logger)
	server := NewServer(cfg, logger, collector, otelProviders)

	if err := server.Start(); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Wait(ctx); err != nil {
		logger.Error("Server exited unexpectedly", zap.Error(err))
	} else {
		logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", zap.Error(err))
	}

	logger.Info("CartoonPrint stopped")
}

// =============================================================================
// 🖨️ convert 命令
// =============================================================================

// runConvert 对本地图片运行完整流水线，结果以 JSON 写到标准输出
func runConvert(args []string) int {
	fs := flag.NewFlagSet("convert", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	outDir := fs.String("out", "", "Output directory (overrides storage.output_dir)")
	fs.Parse(args)

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: cartoonprint convert [--config <path>] [--out <dir>] <image>")
		return 2
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *outDir != "" {
		cfg.Storage.OutputDir = *outDir
	}

	logger := initLogger(cfg.Log)
	defer logger.Sync()

	store, _, gen, err := buildPipeline(cfg, logger, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	path := fs.Arg(0)
	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer f.Close()

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	res, err := gen.Generate(context.Background(), path, f)
	if err != nil {
		enc.Encode(map[string]string{"error": types.PublicMessage(err)})
		return 1
	}
	enc.Encode(convertResult{
		GenerateResponse: api.GenerateResponse{STLURL: res.STLURL, PreviewURL: res.PreviewURL},
		STLPath:          filepath.Join(store.Dir(), storage.STLName(res.BaseName)),
		PreviewPath:      filepath.Join(store.Dir(), storage.PreviewName(res.BaseName)),
		Contours:         res.Contours,
		Triangles:        res.Triangles,
	})
	return 0
}

// convertResult convert 命令的输出，在 API 响应之外附带本地路径与网格规模
type convertResult struct {
	api.GenerateResponse
	STLPath     string `json:"stl_path"`
	PreviewPath string `json:"preview_path"`
	Contours    int    `json:"contours"`
	Triangles   int    `json:"triangles"`
}

// =============================================================================
// 🏥 健康检查命令
// =============================================================================

func runHealthCheck(args []string) {
	fs := flag.NewFlagSet("health", flag.ExitOnError)
	addr := fs.String("addr", "http://localhost:8000", "Server address")
	fs.Parse(args)

	client := tlsutil.SecureHTTPClient(5 * time.Second)
	resp, err := client.Get(*addr + "/health")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Health check failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "Health check failed: status %d\n", resp.StatusCode)
		os.Exit(1)
	}

	fmt.Println("OK")
}

// =============================================================================
// 📋 版本和帮助
// =============================================================================

func printVersion() {
	fmt.Printf("CartoonPrint %s\n", Version)
	fmt.Printf("  Build Time: %s\n", BuildTime)
	fmt.Printf("  Git Commit: %s\n", GitCommit)
}

func printUsage() {
	fmt.Println(`CartoonPrint - image to printable cartoon relief

Usage:
  cartoonprint <command> [options]

Commands:
  serve     Start the CartoonPrint server
  convert   Convert a local image into STL and preview PNG
  version   Show version information
  health    Check server health
  help      Show this help message

Options for 'serve':
  --config <path>   Path to configuration file (YAML)

Options for 'convert':
  --config <path>   Path to configuration file (YAML)
  --out <dir>       Output directory

Examples:
  cartoonprint serve
  cartoonprint serve --config /etc/cartoonprint/config.yaml
  cartoonprint convert --out ./outputs photo.jpg
  cartoonprint health --addr http://localhost:8000
  cartoonprint version`)
}

// =============================================================================
// 🔧 日志初始化
// =============================================================================

func initLogger(cfg config.LogConfig) *zap.Logger {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var encoderConfig zapcore.EncoderConfig
	if cfg.Format == "console" {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	outputs := cfg.OutputPaths
	if len(outputs) == 0 {
		outputs = []string{"stderr"}
	}

	zapConfig := zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		Development:       cfg.Format == "console",
		Encoding:          "json",
		EncoderConfig:     encoderConfig,
		OutputPaths:       outputs,
		ErrorOutputPaths:  []string{"stderr"},
		DisableCaller:     !cfg.EnableCaller,
		DisableStacktrace: !cfg.EnableStacktrace,
	}
	if cfg.Format == "console" {
		zapConfig.Encoding = "console"
	}

	logger, err := zapConfig.Build()
	if err != nil {
		logger, _ = zap.NewProduction()
	}

	return logger
}
