package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/webextract/api"
	"github.com/BaSui01/webextract/econdata"
	"github.com/BaSui01/webextract/report"
	"github.com/BaSui01/webextract/repro"
	"github.com/BaSui01/webextract/tokens"
	"github.com/BaSui01/webextract/tracker"
	"github.com/BaSui01/webextract/types"
)

// =============================================================================
// 📊 报告 Handler
// =============================================================================

// ReportHandler 会话级报告处理器：性能汇总、完整报告文档、
// 经济快照查询以及会话重置。
type ReportHandler struct {
	recorder tracker.Recorder
	counter  *tokens.Counter
	econ     *econdata.Provider
	control  *repro.Controller
	logger   *zap.Logger
}

// NewReportHandler 创建报告处理器。counter、econ、control 均可为 nil。
func NewReportHandler(recorder tracker.Recorder, counter *tokens.Counter, econ *econdata.Provider, control *repro.Controller, logger *zap.Logger) *ReportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportHandler{
		recorder: recorder,
		counter:  counter,
		econ:     econ,
		control:  control,
		logger:   logger.With(zap.String("handler", "report")),
	}
}

func (h *ReportHandler) controlConfig() *types.ReproducibilityConfig {
	if h.control == nil {
		return nil
	}
	cfg := h.control.Config()
	return &cfg
}

// HandleSummary 处理 GET /api/v1/summary 请求
// @Summary 性能汇总
// @Description 返回当前会话的查询统计与 token 用量
// @Tags 报告
// @Produce json
// @Success 200 {object} Response{data=api.SummaryData}
// @Router /api/v1/summary [get]
func (h *ReportHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteErrorMessage(w, http.StatusMethodNotAllowed, types.ErrInvalidRequest, "method not allowed", h.logger)
		return
	}

	summary := h.recorder.Summary()
	data := api.SummaryData{
		Summary:     summary,
		SummaryText: report.SummaryText(summary),
		Control:     h.controlConfig(),
	}
	if h.counter != nil {
		data.TokenUsage = h.counter.Summary()
	}
	WriteSuccess(w, data)
}

// HandleReport 处理 GET /api/v1/report 请求
// @Summary 完整报告
// @Description 返回包含逐条查询记录、经济背景与运行控制参数的报告文档
// @Tags 报告
// @Produce json
// @Success 200 {object} Response{data=report.Report}
// @Router /api/v1/report [get]
func (h *ReportHandler) HandleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteErrorMessage(w, http.StatusMethodNotAllowed, types.ErrInvalidRequest, "method not allowed", h.logger)
		return
	}

	var snapshot types.EconomicSnapshot
	if h.econ != nil {
		snapshot = h.econ.Snapshot(r.Context())
	}

	doc := report.Document(h.recorder.Records(), h.recorder.Summary(), snapshot, h.controlConfig())
	WriteSuccess(w, doc)
}

// HandleEconomic 处理 GET /api/v1/economic 请求
// @Summary 经济快照
// @Description 返回当前宏观经济快照；?refresh=true 强制绕过缓存
// @Tags 报告
// @Produce json
// @Success 200 {object} Response{data=types.EconomicSnapshot}
// @Router /api/v1/economic [get]
func (h *ReportHandler) HandleEconomic(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteErrorMessage(w, http.StatusMethodNotAllowed, types.ErrInvalidRequest, "method not allowed", h.logger)
		return
	}
	if h.econ == nil {
		WriteErrorMessage(w, http.StatusServiceUnavailable, types.ErrEconomicData, "economic data provider is not configured", h.logger)
		return
	}

	refresh := r.URL.Query().Get("refresh") == "true"
	WriteSuccess(w, h.econ.GetSnapshot(r.Context(), refresh))
}

// HandleReset 处理 POST /api/v1/reset 请求
// @Summary 重置会话
// @Description 清空当前会话的查询记录，开始新一轮统计
// @Tags 报告
// @Accept json
// @Produce json
// @Success 200 {object} Response{data=api.ResetData}
// @Router /api/v1/reset [post]
func (h *ReportHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteErrorMessage(w, http.StatusMethodNotAllowed, types.ErrInvalidRequest, "method not allowed", h.logger)
		return
	}

	h.recorder.Reset()
	h.logger.Info("session tracker reset")

	WriteSuccess(w, api.ResetData{
		Message: "Session tracker reset.",
		ResetAt: time.Now(),
	})
}
