// Copyright (c) 2025 WebExtract Authors.
// Licensed under the MIT License.

/*
Package handlers 提供 WebExtract HTTP API 的请求处理器实现。

# 概述

handlers 包实现了 WebExtract 所有 HTTP 端点的请求处理逻辑，
包括结构化提取、性能报告、进度推送、健康检查以及统一的响应/错误处理。
所有 Handler 均遵循标准 net/http 接口。

# 核心类型

  - ExtractHandler  — POST /extract 提取处理器，驱动浏览器 Agent 并返回结构化结果
  - ReportHandler   — 性能报告、运行摘要、经济快照与重置端点
  - StreamHandler   — GET /ws/progress WebSocket 进度推送
  - HealthHandler   — 服务健康检查（/health, /healthz, /ready）
  - Response        — 统一 JSON 响应结构（success + data + error + timestamp）
  - ErrorInfo       — 结构化错误信息，含 code、message、retryable 标记
  - ResponseWriter  — 包装 http.ResponseWriter 以捕获状态码

# 主要能力

  - 统一响应格式：WriteSuccess / WriteError / WriteJSON 辅助函数
  - 请求验证：DecodeJSONBody（1 MB 限制 + 严格模式）、ValidateContentType
  - ErrorCode → HTTP 状态码自动映射（4xx/5xx）
  - 站点级失败隔离：Agent 失败以 in-band status 返回，HTTP 层面始终 200
  - 可扩展健康检查：RegisterCheck 注册自定义 HealthCheck 实现
*/
package handlers
