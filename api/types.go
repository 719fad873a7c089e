package api

import (
	"time"

	"github.com/BaSui01/webextract/types"
)

// =============================================================================
// 提取类型
// =============================================================================

// ExtractRequest 代表结构化提取请求。
// @Description 提取请求结构
type ExtractRequest struct {
	// 目标网站 URL
	WebsiteURL string `json:"website_url" example:"https://www.bankrate.com" binding:"required"`
	// 任务类型（interest_rate 或 real_estate）
	TaskType string `json:"task_type" example:"interest_rate" binding:"required"`
	// 位置（仅 real_estate 任务）
	Location string `json:"location,omitempty" example:"Austin, TX"`
	// 附加提取指令
	AdditionalInstructions string `json:"additional_instructions,omitempty"`
	// 单站点最大 Agent 步数（0 使用默认值）
	MaxSteps int `json:"max_steps,omitempty" example:"25"`
}

// ExtractData 是提取响应中 Data 字段的结构。
// @Description 提取结果结构
type ExtractData struct {
	// 状态（success、partial_success、error）
	Status string `json:"status" example:"success"`
	// 人类可读的结果描述
	Message string `json:"message" example:"Task completed successfully."`
	// 提取出的结构化行
	DetailedResult []map[string]any `json:"detailed_result"`
	// 结果关联的性能记录 ID
	RecordID string `json:"record_id,omitempty"`
	// 结果产生时的宏观经济上下文
	EconomicContext *types.EconomicSnapshot `json:"economic_context,omitempty"`
}

// =============================================================================
// 报告类型
// =============================================================================

// SummaryData 是运行摘要响应中 Data 字段的结构。
// @Description 运行摘要结构
type SummaryData struct {
	// 聚合的运行摘要
	Summary types.RunSummary `json:"summary"`
	// 格式化的摘要文本块
	SummaryText string `json:"summary_text"`
	// 会话 Token 用量与成本
	TokenUsage any `json:"token_usage,omitempty"`
	// 会话可复现性参数
	Control *types.ReproducibilityConfig `json:"control,omitempty"`
}

// ResetData 是重置响应中 Data 字段的结构。
// @Description 重置结果结构
type ResetData struct {
	// 操作结果描述
	Message string `json:"message" example:"performance records cleared"`
	// 重置时间
	ResetAt time.Time `json:"reset_at"`
}

// =============================================================================
// 进度事件类型
// =============================================================================

// ProgressEvent 是 WebSocket 推送的进度事件。
// @Description 进度事件结构
type ProgressEvent struct {
	// 事件类型（run_started、site_started、site_finished、run_finished）
	Type string `json:"type" example:"site_finished"`
	// 站点名称（站点级事件）
	Website string `json:"website,omitempty"`
	// 站点结果状态（site_finished 事件）
	Status string `json:"status,omitempty" example:"success"`
	// 提取条数（site_finished 事件）
	Items int `json:"items,omitempty"`
	// 错误描述（失败的 site_finished 事件）
	Error string `json:"error,omitempty"`
	// 事件时间
	Timestamp time.Time `json:"timestamp"`
}
