package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/BaSui01/webextract/agent"
	"github.com/BaSui01/webextract/api/handlers"
	"github.com/BaSui01/webextract/api/ui"
	"github.com/BaSui01/webextract/config"
	"github.com/BaSui01/webextract/econdata"
	"github.com/BaSui01/webextract/internal/cache"
	"github.com/BaSui01/webextract/internal/metrics"
	"github.com/BaSui01/webextract/internal/server"
	"github.com/BaSui01/webextract/internal/telemetry"
	"github.com/BaSui01/webextract/repro"
	"github.com/BaSui01/webextract/store"
	"github.com/BaSui01/webextract/tokens"
	"github.com/BaSui01/webextract/tracker"
)

// =============================================================================
// 🖥️ Server 结构
// =============================================================================

// Server 是 WebExtract 的主服务器
type Server struct {
	cfg    *config.Config
	logger *zap.Logger

	// 服务器管理器
	httpManager    *server.Manager
	metricsManager *server.Manager

	// 领域组件
	recorder  tracker.Recorder
	counter   *tokens.Counter
	econ      *econdata.Provider
	db        *store.Store
	saver     *store.AsyncSaver
	events    *agent.Broadcaster
	cacheMgr  *cache.Manager
	telemetry *telemetry.Providers

	// Handlers
	healthHandler  *handlers.HealthHandler
	extractHandler *handlers.ExtractHandler
	reportHandler  *handlers.ReportHandler
	streamHandler  *handlers.StreamHandler

	// 指标收集器
	metricsCollector *metrics.Collector

	// Rate limiter 生命周期管理
	rateLimiterCancel context.CancelFunc
}

// NewServer 创建新的服务器实例
func NewServer(cfg *config.Config, logger *zap.Logger, providers *telemetry.Providers) *Server {
	return &Server{
		cfg:       cfg,
		logger:    logger,
		telemetry: providers,
	}
}

// =============================================================================
// 🚀 启动流程
// =============================================================================

// Start 启动所有服务
func (s *Server) Start() error {
	// 1. 初始化指标收集器
	s.metricsCollector = metrics.NewCollector("webextract", s.logger)

	// 2. 初始化领域组件
	if err := s.initComponents(); err != nil {
		return fmt.Errorf("failed to init components: %w", err)
	}

	// 3. 初始化 Handlers
	if err := s.initHandlers(); err != nil {
		return fmt.Errorf("failed to init handlers: %w", err)
	}

	// 4. 启动 HTTP 服务器
	if err := s.startHTTPServer(); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	// 5. 启动 Metrics 服务器
	if err := s.startMetricsServer(); err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}

	s.logger.Info("All servers started",
		zap.Int("http_port", s.cfg.Server.HTTPPort),
		zap.Int("metrics_port", s.cfg.Server.MetricsPort),
	)

	return nil
}

// =============================================================================
// 🔧 初始化方法
// =============================================================================

// initComponents 初始化领域组件：缓存、数据库、经济数据、Token 统计、
// 追踪器与编排器的依赖
func (s *Server) initComponents() error {
	// 缓存：Redis 启用时优先，否则退回进程内缓存
	var cacheStore cache.Store
	if s.cfg.Redis.Enabled {
		mgr, err := cache.NewManager(cache.Config{
			Addr:         s.cfg.Redis.Addr,
			Password:     s.cfg.Redis.Password,
			DB:           s.cfg.Redis.DB,
			PoolSize:     s.cfg.Redis.PoolSize,
			MinIdleConns: s.cfg.Redis.MinIdleConns,
			DefaultTTL:   s.cfg.Economic.RefreshInterval,
		}, s.logger)
		if err != nil {
			s.logger.Warn("Redis unavailable, falling back to in-process cache", zap.Error(err))
			cacheStore = cache.NewMemory(s.cfg.Economic.RefreshInterval)
		} else {
			s.cacheMgr = mgr
			cacheStore = mgr
		}
	} else {
		cacheStore = cache.NewMemory(s.cfg.Economic.RefreshInterval)
	}

	// 数据库：不可用时降级运行，提取结果不落库
	db, err := store.Open(store.Config{
		Driver: s.cfg.Database.Driver,
		DSN:    s.cfg.Database.DSN(),
	}, s.logger)
	if err != nil {
		s.logger.Warn("Database not available, extraction results will not be persisted", zap.Error(err))
	} else {
		s.db = db.WithCollector(s.metricsCollector)
		s.saver = store.NewAsyncSaver(s.db, 4, s.logger)
	}

	// 经济数据提供器
	fred := econdata.NewFredClient(s.cfg.Economic.BaseURL, s.cfg.Economic.APIKey, nil)
	s.econ = econdata.NewInstrumented(fred, cacheStore, s.cfg.Economic.RefreshInterval, s.metricsCollector, s.logger)

	// Token 统计
	s.counter = tokens.NewInstrumented(
		s.cfg.Tokens.Model,
		s.cfg.Tokens.StatsPath,
		tokens.NewTiktokenEstimator("cl100k_base"),
		s.metricsCollector,
		s.logger,
	)

	// 性能追踪器与进度广播
	s.recorder = tracker.NewInstrumented(s.metricsCollector, s.logger)
	s.events = agent.NewBroadcaster()

	return nil
}

// initHandlers 初始化所有 handlers
func (s *Server) initHandlers() error {
	// 健康检查 handler
	s.healthHandler = handlers.NewHealthHandler(s.logger)
	if s.db != nil {
		s.healthHandler.RegisterCheck(handlers.NewPingCheck("database", s.db.Ping))
	}
	if s.cacheMgr != nil {
		s.healthHandler.RegisterCheck(handlers.NewPingCheck("redis", s.cacheMgr.Ping))
	}
	if s.cfg.Agent.BaseURL != "" {
		s.healthHandler.RegisterCheck(handlers.NewAgentHealthCheck(s.cfg.Agent.BaseURL, nil))
	}

	// 可复现性控制器
	control, err := repro.NewInstrumented(s.cfg.Repro.Resolved(), s.metricsCollector, s.logger)
	if err != nil {
		return fmt.Errorf("invalid reproducibility config: %w", err)
	}

	// 浏览器 Agent 与编排器
	browserAgent := agent.NewBrowserUse(agent.BrowserUseConfig{
		BaseURL: s.cfg.Agent.BaseURL,
		APIKey:  s.cfg.Agent.APIKey,
		Model:   s.cfg.Agent.Model,
		Timeout: s.cfg.Agent.Timeout,
	}, s.logger)

	builder := agent.NewTaskBuilder(s.counter, s.logger)
	orch := agent.NewOrchestrator(browserAgent, builder, control, s.recorder, agent.OrchestratorConfig{
		Concurrency: s.cfg.Agent.Concurrency,
		AgentRPS:    s.cfg.Agent.RPS,
		SiteTimeout: s.cfg.Agent.SiteTimeout,
	}, s.events, s.metricsCollector, s.logger)

	s.extractHandler = handlers.NewExtractHandler(orch, s.econ, s.saver, s.recorder, s.logger)
	s.reportHandler = handlers.NewReportHandler(s.recorder, s.counter, s.econ, control, s.logger)

	var origins []string
	if s.cfg.Server.AllowedOrigin != "" {
		origins = []string{s.cfg.Server.AllowedOrigin}
	}
	s.streamHandler = handlers.NewStreamHandler(s.events, origins, s.logger)

	s.logger.Info("Handlers initialized")
	return nil
}

// =============================================================================
// 🌐 HTTP 服务器
// =============================================================================

// startHTTPServer 启动 HTTP 服务器
func (s *Server) startHTTPServer() error {
	mux := http.NewServeMux()

	// ========================================
	// 健康检查端点
	// ========================================
	mux.HandleFunc("/health", s.healthHandler.HandleHealth)
	mux.HandleFunc("/healthz", s.healthHandler.HandleHealthz)
	mux.HandleFunc("/ready", s.healthHandler.HandleReady)
	mux.HandleFunc("/readyz", s.healthHandler.HandleReady)

	// 版本信息端点
	mux.HandleFunc("/version", s.healthHandler.HandleVersion(Version, BuildTime, GitCommit))

	// ========================================
	// API 路由
	// ========================================
	mux.HandleFunc("/extract", s.extractHandler.HandleExtract)
	mux.HandleFunc("/api/v1/report", s.reportHandler.HandleReport)
	mux.HandleFunc("/api/v1/summary", s.reportHandler.HandleSummary)
	mux.HandleFunc("/api/v1/economic", s.reportHandler.HandleEconomic)
	mux.HandleFunc("/api/v1/reset", s.reportHandler.HandleReset)
	mux.HandleFunc("/ws/progress", s.streamHandler.HandleStream)

	// 内嵌仪表盘
	mux.Handle("/", ui.Handler())

	// ========================================
	// 构建中间件链
	// ========================================
	skipAuthPaths := []string{"/", "/index.html", "/health", "/healthz", "/ready", "/readyz", "/version", "/metrics"}
	rateLimiterCtx, rateLimiterCancel := context.WithCancel(context.Background())
	s.rateLimiterCancel = rateLimiterCancel
	handler := Chain(mux,
		Recovery(s.logger),
		RequestID(),
		SecurityHeaders(),
		RequestLogger(s.logger),
		MetricsMiddleware(s.metricsCollector),
		OTelTracing(),
		CORS(s.cfg.Server.AllowedOrigin),
		RateLimiter(rateLimiterCtx, float64(s.cfg.Server.RateLimitRPS), s.cfg.Server.RateLimitBurst, s.logger),
		Auth(AuthConfig{
			APIKey:    s.cfg.Server.APIKey,
			JWTSecret: s.cfg.Server.JWTSecret,
			SkipPaths: skipAuthPaths,
		}, s.logger),
	)

	// ========================================
	// 使用 internal/server.Manager
	// ========================================
	serverConfig := server.Config{
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.HTTPPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		IdleTimeout:     2 * s.cfg.Server.ReadTimeout, // 2x ReadTimeout
		MaxHeaderBytes:  1 << 20,                      // 1 MB
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}

	s.httpManager = server.NewManager(handler, serverConfig, s.logger)

	// 启动服务器（非阻塞）
	if err := s.httpManager.Start(); err != nil {
		return err
	}

	s.logger.Info("HTTP server started", zap.Int("port", s.cfg.Server.HTTPPort))
	return nil
}

// =============================================================================
// 📊 Metrics 服务器
// =============================================================================

// startMetricsServer 启动 Metrics 服务器
func (s *Server) startMetricsServer() error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	serverConfig := server.Config{
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.MetricsPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}

	s.metricsManager = server.NewManager(mux, serverConfig, s.logger)

	// 启动服务器（非阻塞）
	if err := s.metricsManager.Start(); err != nil {
		return err
	}

	s.logger.Info("Metrics server started", zap.Int("port", s.cfg.Server.MetricsPort))
	return nil
}

// =============================================================================
// 🛑 关闭流程
// =============================================================================

// WaitForShutdown 等待关闭信号并优雅关闭
func (s *Server) WaitForShutdown() {
	if s.httpManager != nil {
		s.httpManager.WaitForShutdown()
	}

	s.Shutdown()
}

// Shutdown 优雅关闭所有服务
func (s *Server) Shutdown() {
	s.logger.Info("Starting graceful shutdown...")

	ctx := context.Background()

	// 0. 停止 rate limiter 清理 goroutine
	if s.rateLimiterCancel != nil {
		s.rateLimiterCancel()
	}

	// 1. 关闭 HTTP 服务器
	if s.httpManager != nil {
		if err := s.httpManager.Shutdown(ctx); err != nil {
			s.logger.Error("HTTP server shutdown error", zap.Error(err))
		}
	}

	// 2. 关闭 Metrics 服务器
	if s.metricsManager != nil {
		if err := s.metricsManager.Shutdown(ctx); err != nil {
			s.logger.Error("Metrics server shutdown error", zap.Error(err))
		}
	}

	// 3. 排空后台持久化队列并关闭数据库
	if s.saver != nil {
		s.saver.Close()
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Database close error", zap.Error(err))
		}
	}
	if s.cacheMgr != nil {
		if err := s.cacheMgr.Close(); err != nil {
			s.logger.Error("Cache close error", zap.Error(err))
		}
	}

	// 4. 保存 Token 历史统计
	if s.counter != nil {
		if err := s.counter.Save(); err != nil {
			s.logger.Warn("Token stats save failed", zap.Error(err))
		}
	}

	// 5. 关闭遥测
	if s.telemetry != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := s.telemetry.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("Telemetry shutdown error", zap.Error(err))
		}
	}

	s.logger.Info("Graceful shutdown completed")
}
