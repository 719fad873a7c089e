// Copyright (c) WebExtract Authors.
// Licensed under the MIT License.

/*
Package types 提供 WebExtract 的全局共享类型定义。

# 概述

types 是最底层的公共包，不依赖任何内部包，为 agent、tracker、econdata、
store、api 等上层模块提供统一的类型契约。所有跨包共享的结构体、枚举和
错误码均定义于此，以避免循环依赖。

# 核心类型

  - TaskType              — 提取任务类型（interest_rate / real_estate）及其必填字段
  - QueryRecord           — 单次 agent 调用的性能记录（开始/结束时间、成功标志、条目数）
  - RunSummary            — 从 QueryRecord 集合派生的运行统计
  - SiteResult            — 单站点提取结果（成功载荷或带类型的失败标记）
  - EconomicSnapshot      — 宏观经济指标快照（仅作结果注释用）
  - ReproducibilityConfig — 会话级可复现性配置（种子、温度、视口、超时）
  - Error / ErrorCode     — 结构化错误体系，含 HTTP 状态码与 Retryable 标记

# 错误处理约定

只有程序逻辑错误（INVALID_STATE）以 error 形式向上传播；外部失败
（agent 调用、经济数据源）一律转换为带内字段（SiteResult.Error、
EconomicSnapshot.Stale），保证批量任务总是完整返回。
*/
package types
