// 版权所有 2025 WebExtract Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 metrics 提供基于 Prometheus 的全链路指标采集能力，覆盖
HTTP、提取查询、浏览器 Agent、Token 成本、经济数据、缓存与数据库。

# 概述

本包通过 Collector 统一注册和记录 Prometheus 指标，使用 promauto
自动注册机制，避免手动管理 Registry。所有指标按 namespace 隔离，
支持多维度 label 分组，便于 Grafana 等工具进行可视化与告警。

# 核心类型

  - Collector：指标收集器，持有 Counter、Histogram、Gauge 等
    Prometheus 向量指标，按业务域分组管理。

# 主要能力

  - HTTP 请求计数与时延分布
  - 提取查询的成功/部分/失败计数、时延与条目数
  - 浏览器 Agent 调用计数与时延
  - 按模型维度的 Token 用量与美元成本累计
  - 经济指标抓取结果与过期快照计数
  - 缓存命中率与数据库查询时延
  - 受控运行的随机种子与温度仪表

# 使用示例

	collector := metrics.NewCollector("webextract", logger)
	collector.RecordQuery("bankrate.com", "interest_rate", "success", 42*time.Second, 8)
*/
package metrics
