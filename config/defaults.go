// =============================================================================
// 📦 WebExtract 默认配置
// =============================================================================
// 提供所有配置项的合理默认值
// =============================================================================
package config

import (
	"time"

	"github.com/BaSui01/webextract/agent"
	"github.com/BaSui01/webextract/econdata"
	"github.com/BaSui01/webextract/repro"
	"github.com/BaSui01/webextract/tokens"
)

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Server:    DefaultServerConfig(),
		Agent:     DefaultAgentConfig(),
		Repro:     DefaultReproConfig(),
		Economic:  DefaultEconomicConfig(),
		Tokens:    DefaultTokensConfig(),
		Redis:     DefaultRedisConfig(),
		Database:  DefaultDatabaseConfig(),
		Log:       DefaultLogConfig(),
		Telemetry: DefaultTelemetryConfig(),
	}
}

// DefaultServerConfig 返回默认服务器配置
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		HTTPPort:    8080,
		MetricsPort: 9091,
		ReadTimeout: 30 * time.Second,
		// 提取请求同步等待 Agent 运行结束
		WriteTimeout:    15 * time.Minute,
		ShutdownTimeout: 15 * time.Second,
		RateLimitRPS:    100,
		RateLimitBurst:  200,
		AllowedOrigin:   "",
		APIKey:          "",
	}
}

// DefaultAgentConfig 返回默认 Agent 配置
func DefaultAgentConfig() AgentConfig {
	return AgentConfig{
		BaseURL:     "http://localhost:7788",
		APIKey:      "",
		Model:       "gemini-2.0-flash-exp",
		MaxSteps:    agent.DefaultMaxSteps,
		Timeout:     10 * time.Minute,
		SiteTimeout: 12 * time.Minute,
		Concurrency: 1,
		RPS:         0.5,
	}
}

// DefaultReproConfig 返回默认可复现性配置
func DefaultReproConfig() ReproConfig {
	cfg := repro.DefaultConfig()
	return ReproConfig{
		Seed:           cfg.Seed,
		Temperature:    cfg.Temperature,
		ViewportWidth:  cfg.ViewportWidth,
		ViewportHeight: cfg.ViewportHeight,
		MaxRetries:     cfg.MaxRetries,
		Timeout:        cfg.Timeout,
		UserAgent:      cfg.UserAgent,
		Headless:       cfg.Headless,
	}
}

// DefaultEconomicConfig 返回默认经济数据配置
func DefaultEconomicConfig() EconomicConfig {
	return EconomicConfig{
		BaseURL:         econdata.DefaultBaseURL,
		APIKey:          "",
		RefreshInterval: time.Hour,
	}
}

// DefaultTokensConfig 返回默认 Token 统计配置
func DefaultTokensConfig() TokensConfig {
	return TokensConfig{
		Model:     tokens.DefaultPricingModel,
		StatsPath: "token_usage_stats.json",
	}
}

// DefaultRedisConfig 返回默认 Redis 配置
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Enabled:      false,
		Addr:         "localhost:6379",
		Password:     "",
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 2,
	}
}

// DefaultDatabaseConfig 返回默认数据库配置
func DefaultDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Driver:          "sqlite",
		Name:            "webextract.db",
		SSLMode:         "disable",
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
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
		ServiceName:  "webextract",
		SampleRate:   0.1,
	}
}
