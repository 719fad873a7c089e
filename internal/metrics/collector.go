// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// =============================================================================
// 📊 指标收集器
// =============================================================================

// Collector 指标收集器
type Collector struct {
	// HTTP 指标
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// 提取查询指标
	queriesTotal   *prometheus.CounterVec
	queryDuration  *prometheus.HistogramVec
	itemsExtracted *prometheus.CounterVec

	// Agent 调用指标
	agentInvocationsTotal   *prometheus.CounterVec
	agentInvocationDuration *prometheus.HistogramVec

	// Token 指标
	tokensUsed *prometheus.CounterVec
	tokenCost  *prometheus.CounterVec

	// 经济数据指标
	econFetchesTotal *prometheus.CounterVec
	econFetchStale   prometheus.Counter

	// 缓存指标
	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec

	// 数据库指标
	dbQueryDuration *prometheus.HistogramVec

	// 受控运行指标（可复现性配置）
	controlledSeed        prometheus.Gauge
	controlledTemperature prometheus.Gauge

	logger *zap.Logger
}

// NewCollector 创建指标收集器
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	// HTTP 指标
	c.httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	c.httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// 提取查询指标
	c.queriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extraction_queries_total",
			Help:      "Total number of extraction queries",
		},
		[]string{"website", "task_type", "status"}, // status: success, partial, failure
	)

	c.queryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "extraction_query_duration_seconds",
			Help:      "Extraction query duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300},
		},
		[]string{"website", "task_type"},
	)

	c.itemsExtracted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extraction_items_total",
			Help:      "Total number of items extracted",
		},
		[]string{"website", "task_type"},
	)

	// Agent 调用指标
	c.agentInvocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "agent_invocations_total",
			Help:      "Total number of browser agent invocations",
		},
		[]string{"agent", "status"},
	)

	c.agentInvocationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "agent_invocation_duration_seconds",
			Help:      "Browser agent invocation duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"agent"},
	)

	// Token 指标
	c.tokensUsed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_used_total",
			Help:      "Total number of tokens used",
		},
		[]string{"model", "type"}, // type: prompt, completion
	)

	c.tokenCost = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_cost_total",
			Help:      "Total token cost in USD",
		},
		[]string{"model"},
	)

	// 经济数据指标
	c.econFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "economic_fetches_total",
			Help:      "Total number of economic indicator fetches",
		},
		[]string{"status"}, // status: success, failure
	)

	c.econFetchStale = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "economic_snapshots_stale_total",
			Help:      "Total number of stale economic snapshots served",
		},
	)

	// 缓存指标
	c.cacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of cache hits",
		},
		[]string{"cache_type"},
	)

	c.cacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	// 数据库指标
	c.dbQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "db_query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// 受控运行指标
	c.controlledSeed = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "controlled_run_seed",
			Help:      "Random seed of the current controlled run",
		},
	)

	c.controlledTemperature = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "controlled_run_temperature",
			Help:      "Model temperature of the current controlled run",
		},
	)

	logger.Info("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// =============================================================================
// 🎯 HTTP 指标记录
// =============================================================================

// RecordHTTPRequest 记录 HTTP 请求
func (c *Collector) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	c.httpRequestsTotal.WithLabelValues(method, path, statusCode(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// =============================================================================
// 🔍 提取查询指标记录
// =============================================================================

// RecordQuery 记录一次提取查询的结果
func (c *Collector) RecordQuery(website, taskType, status string, duration time.Duration, items int) {
	c.queriesTotal.WithLabelValues(website, taskType, status).Inc()
	c.queryDuration.WithLabelValues(website, taskType).Observe(duration.Seconds())
	if items > 0 {
		c.itemsExtracted.WithLabelValues(website, taskType).Add(float64(items))
	}
}

// =============================================================================
// 🤖 Agent 指标记录
// =============================================================================

// RecordAgentInvocation 记录浏览器 agent 调用
func (c *Collector) RecordAgentInvocation(agent, status string, duration time.Duration) {
	c.agentInvocationsTotal.WithLabelValues(agent, status).Inc()
	c.agentInvocationDuration.WithLabelValues(agent).Observe(duration.Seconds())
}

// RecordTokenUsage 记录 token 用量与成本
func (c *Collector) RecordTokenUsage(model string, promptTokens, completionTokens int, cost float64) {
	c.tokensUsed.WithLabelValues(model, "prompt").Add(float64(promptTokens))
	c.tokensUsed.WithLabelValues(model, "completion").Add(float64(completionTokens))
	c.tokenCost.WithLabelValues(model).Add(cost)
}

// =============================================================================
// 🏛️ 经济数据指标记录
// =============================================================================

// RecordEconFetch 记录经济指标抓取
func (c *Collector) RecordEconFetch(status string, stale bool) {
	c.econFetchesTotal.WithLabelValues(status).Inc()
	if stale {
		c.econFetchStale.Inc()
	}
}

// =============================================================================
// 💾 缓存指标记录
// =============================================================================

// RecordCacheHit 记录缓存命中
func (c *Collector) RecordCacheHit(cacheType string) {
	c.cacheHits.WithLabelValues(cacheType).Inc()
}

// RecordCacheMiss 记录缓存未命中
func (c *Collector) RecordCacheMiss(cacheType string) {
	c.cacheMisses.WithLabelValues(cacheType).Inc()
}

// =============================================================================
// 🗄️ 数据库指标记录
// =============================================================================

// RecordDBQuery 记录数据库查询
func (c *Collector) RecordDBQuery(operation string, duration time.Duration) {
	c.dbQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// =============================================================================
// 🎯 受控运行指标
// =============================================================================

// SetControlledRun 设置当前受控运行的可复现性参数
func (c *Collector) SetControlledRun(seed int64, temperature float64) {
	c.controlledSeed.Set(float64(seed))
	c.controlledTemperature.Set(temperature)
}

// =============================================================================
// 🔧 辅助函数
// =============================================================================

// statusCode 将 HTTP 状态码转换为字符串
func statusCode(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
