package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/cartoonprint/api/handlers"
	"github.com/BaSui01/cartoonprint/background"
	"github.com/BaSui01/cartoonprint/config"
	"github.com/BaSui01/cartoonprint/internal/metrics"
	"github.com/BaSui01/cartoonprint/internal/pool"
	"github.com/BaSui01/cartoonprint/internal/server"
	"github.com/BaSui01/cartoonprint/internal/telemetry"
	"github.com/BaSui01/cartoonprint/pipeline"
	"github.com/BaSui01/cartoonprint/storage"
	"github.com/BaSui01/cartoonprint/types"
)

// =============================================================================
// 🖥️ Server 结构
// =============================================================================

// Server 是 CartoonPrint 的主服务器
type Server struct {
	cfg    *config.Config
	logger *zap.Logger

	// 服务器管理器
	httpManager    *server.Manager
	metricsManager *server.Manager

	// 流水线组件
	store     *storage.Store
	remover   background.Remover
	generator *pipeline.Generator
	workers   *pool.Pool

	// Handlers
	healthHandler   *handlers.HealthHandler
	generateHandler *handlers.GenerateHandler

	metricsCollector *metrics.Collector
	otelProviders    *telemetry.Providers

	// Rate limiter 生命周期管理
	rateLimiterCancel context.CancelFunc
}

// NewServer 创建新的服务器实例
func NewServer(cfg *config.Config, logger *zap.Logger, collector *metrics.Collector, otelProviders *telemetry.Providers) *Server {
	return &Server{
		cfg:              cfg,
		logger:           logger,
		metricsCollector: collector,
		otelProviders:    otelProviders,
	}
}

// =============================================================================
// 🚀 启动流程
// =============================================================================

// Start 初始化组件并启动所有服务（非阻塞）
func (s *Server) Start() error {
	if err := s.initHandlers(); err != nil {
		return fmt.Errorf("failed to init handlers: %w", err)
	}

	if err := s.startHTTPServer(); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	if err := s.startMetricsServer(); err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}

	s.logger.Info("All servers started",
		zap.Int("http_port", s.cfg.Server.HTTPPort),
		zap.Int("metrics_port", s.cfg.Server.MetricsPort),
		zap.String("background", s.remover.Name()),
	)
	return nil
}

// =============================================================================
// 🔧 初始化方法
// =============================================================================

// buildPipeline 创建输出存储、背景去除与生成器，serve 与 convert 共用
func buildPipeline(cfg *config.Config, logger *zap.Logger, collector *metrics.Collector) (*storage.Store, background.Remover, *pipeline.Generator, error) {
	store, err := storage.New(cfg.Storage)
	if err != nil {
		return nil, nil, nil, err
	}

	remover, err := background.New(cfg.Background)
	if err != nil {
		return nil, nil, nil, err
	}
	if remover.Name() == background.ProviderNone {
		logger.Warn("background removal disabled, uploads are traced with their background",
			zap.String("provider", remover.Name()))
	}

	opts := []pipeline.Option{
		pipeline.WithRemover(remover),
		pipeline.WithLogger(logger),
	}
	if collector != nil {
		opts = append(opts, pipeline.WithMetrics(collector))
	}
	gen := pipeline.NewGenerator(cfg.Pipeline, cfg.Preview, store, opts...)
	return store, remover, gen, nil
}

// initHandlers 初始化流水线与所有 handlers
func (s *Server) initHandlers() error {
	store, remover, gen, err := buildPipeline(s.cfg, s.logger, s.metricsCollector)
	if err != nil {
		return err
	}
	s.store, s.remover, s.generator = store, remover, gen

	s.healthHandler = handlers.NewHealthHandler(s.logger)
	s.healthHandler.RegisterCheck(store)
	if hc, ok := remover.(handlers.HealthCheck); ok {
		s.healthHandler.RegisterCheck(hc)
	}

	// 默认每个请求在自己的 goroutine 上直接运行流水线
	var runner handlers.Generator = gen
	if n := s.cfg.Pipeline.MaxConcurrent; n > 0 {
		s.workers = pool.New(pool.Config{
			Workers:   n,
			QueueSize: s.cfg.Pipeline.QueueSize,
			PanicHandler: func(p any) {
				s.logger.Error("generation worker panic", zap.Any("panic", p))
			},
		})
		s.healthHandler.RegisterCheck(s.workers)
		runner = &pooledGenerator{gen: gen, workers: s.workers}
	}

	s.generateHandler = handlers.NewGenerateHandler(runner, s.cfg.Pipeline.MaxUploadBytes, s.logger)

	s.logger.Info("Handlers initialized",
		zap.String("output_dir", store.Dir()),
		zap.Bool("serve_outputs", s.cfg.Storage.Serve),
		zap.Int("max_concurrent", s.cfg.Pipeline.MaxConcurrent),
	)
	return nil
}

// pooledGenerator 在有限的 worker 上运行流水线，超出的请求排队
type pooledGenerator struct {
	gen     *pipeline.Generator
	workers *pool.Pool
}

// Generate 先把上传内容读入内存，任务不再引用请求持有的 multipart 文件；
// 调用方放弃后 handler 可以安全地清理临时文件。
func (p *pooledGenerator) Generate(ctx context.Context, filename string, upload io.Reader) (*pipeline.Result, error) {
	data, err := io.ReadAll(upload)
	if err != nil {
		return nil, types.WrapError(err, types.ErrInvalidUpload, "failed to read upload")
	}

	var res *pipeline.Result
	err = p.workers.Do(ctx, func(ctx context.Context) error {
		var gerr error
		res, gerr = p.gen.Generate(ctx, filename, bytes.NewReader(data))
		return gerr
	})
	if err != nil {
		return nil, types.WrapError(err, types.ErrInternalError, "generation aborted")
	}
	return res, nil
}

// =============================================================================
// 🌐 HTTP 服务器
// =============================================================================

// routes 注册路由并构建中间件链
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	// 健康检查与版本
	mux.HandleFunc("GET /{$}", s.healthHandler.HandleRoot)
	mux.HandleFunc("GET /health", s.healthHandler.HandleHealth)
	mux.HandleFunc("GET /healthz", s.healthHandler.HandleHealthz)
	mux.HandleFunc("GET /ready", s.healthHandler.HandleReady)
	mux.HandleFunc("GET /version", s.healthHandler.HandleVersion(Version, BuildTime, GitCommit))

	// 生成 API
	mux.HandleFunc("POST /generate-stl/{$}", s.generateHandler.HandleGenerate)

	// 产物静态托管
	prefix := s.store.URLPrefix()
	if s.cfg.Storage.Serve {
		files := http.StripPrefix(prefix, http.FileServer(http.Dir(s.store.Dir())))
		mux.Handle("GET "+prefix+"/", noDirListing(files))
	}

	// 根路由与健康检查不限流、不认证
	exemptPaths := []string{"/", "/health", "/healthz", "/ready", "/version"}
	rateLimiterCtx, rateLimiterCancel := context.WithCancel(context.Background())
	s.rateLimiterCancel = rateLimiterCancel

	chain := []Middleware{
		Recovery(s.logger),
		RequestID(),
		SecurityHeaders(),
		OTelTracing(),
		RequestLogger(s.logger),
	}
	if s.metricsCollector != nil {
		chain = append(chain, MetricsMiddleware(s.metricsCollector, prefix))
	}
	chain = append(chain, CORS(s.cfg.Server.CORSAllowedOrigins))
	if s.cfg.Server.RateLimitRPS > 0 {
		chain = append(chain, RateLimiter(rateLimiterCtx, float64(s.cfg.Server.RateLimitRPS), s.cfg.Server.RateLimitBurst, exemptPaths, s.logger))
	}
	// 未配置 API Key 时不启用认证
	if len(s.cfg.Server.APIKeys) > 0 {
		chain = append(chain, APIKeyAuth(s.cfg.Server.APIKeys, exemptPaths, s.cfg.Server.AllowQueryAPIKey, s.logger))
	}

	return Chain(mux, chain...)
}

// noDirListing 对目录路径返回 404，只允许访问具体文件
func noDirListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// startHTTPServer 启动 API 服务器
func (s *Server) startHTTPServer() error {
	serverConfig := server.Config{
		Name:            "api",
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.HTTPPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		IdleTimeout:     2 * s.cfg.Server.ReadTimeout,
		MaxHeaderBytes:  1 << 20,
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
		CertFile:        s.cfg.Server.TLSCertFile,
		KeyFile:         s.cfg.Server.TLSKeyFile,
		MaxConnections:  s.cfg.Server.MaxConnections,
	}

	s.httpManager = server.NewManager(s.routes(), serverConfig, s.logger)
	if err := s.httpManager.Start(); err != nil {
		return err
	}

	s.logger.Info("HTTP server started", zap.Int("port", s.cfg.Server.HTTPPort))
	return nil
}

// =============================================================================
// 📊 Metrics 服务器
// =============================================================================

// startMetricsServer 启动 Metrics 服务器，端口为 0 时跳过
func (s *Server) startMetricsServer() error {
	if s.cfg.Server.MetricsPort == 0 {
		s.logger.Info("Metrics server disabled")
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())

	serverConfig := server.Config{
		Name:            "metrics",
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.MetricsPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.ReadTimeout,
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}

	s.metricsManager = server.NewManager(mux, serverConfig, s.logger)
	if err := s.metricsManager.Start(); err != nil {
		return err
	}

	s.logger.Info("Metrics server started", zap.Int("port", s.cfg.Server.MetricsPort))
	return nil
}

// =============================================================================
// 🛑 关闭流程
// =============================================================================

// Wait 阻塞直到 ctx 结束（收到信号）或任一服务器异常退出
func (s *Server) Wait(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, m := range []*server.Manager{s.httpManager, s.metricsManager} {
		if m == nil {
			continue
		}
		g.Go(func() error { return m.Wait(ctx) })
	}
	return g.Wait()
}

// Shutdown 并发关闭 HTTP 与 Metrics 服务器，然后刷新遥测数据
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Starting graceful shutdown...")

	if s.rateLimiterCancel != nil {
		s.rateLimiterCancel()
	}

	var g errgroup.Group
	for _, m := range []*server.Manager{s.httpManager, s.metricsManager} {
		if m == nil {
			continue
		}
		g.Go(func() error { return m.Shutdown(ctx) })
	}
	err := g.Wait()

	// HTTP 关闭后不再有新的生成请求
	if s.workers != nil {
		s.workers.Close()
	}

	if terr := s.otelProviders.Shutdown(ctx); terr != nil {
		s.logger.Warn("Telemetry shutdown error", zap.Error(terr))
	}

	if err != nil {
		return err
	}
	s.logger.Info("Graceful shutdown completed")
	return nil
}
