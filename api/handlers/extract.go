package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/BaSui01/webextract/agent"
	"github.com/BaSui01/webextract/api"
	"github.com/BaSui01/webextract/econdata"
	"github.com/BaSui01/webextract/store"
	"github.com/BaSui01/webextract/tracker"
	"github.com/BaSui01/webextract/types"
)

// =============================================================================
// 🔍 提取 Handler
// =============================================================================

// ExtractHandler 结构化提取处理器。
// Agent 失败以 in-band status 返回（HTTP 200），持久化失败只记录日志，
// 两者都不会让提取请求失败。
type ExtractHandler struct {
	orch     *agent.Orchestrator
	econ     *econdata.Provider
	saver    *store.AsyncSaver
	recorder tracker.Recorder
	logger   *zap.Logger
}

// NewExtractHandler 创建提取处理器。econ、saver、recorder 均可为 nil。
func NewExtractHandler(orch *agent.Orchestrator, econ *econdata.Provider, saver *store.AsyncSaver, recorder tracker.Recorder, logger *zap.Logger) *ExtractHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExtractHandler{
		orch:     orch,
		econ:     econ,
		saver:    saver,
		recorder: recorder,
		logger:   logger.With(zap.String("handler", "extract")),
	}
}

// HandleExtract 处理 POST /extract 请求
// @Summary 结构化提取
// @Description 驱动浏览器 Agent 从目标网站提取结构化数据
// @Tags 提取
// @Accept json
// @Produce json
// @Param request body api.ExtractRequest true "提取请求"
// @Success 200 {object} Response{data=api.ExtractData} "提取结果（含 partial_success 与 error 状态）"
// @Failure 400 {object} Response "请求无效"
// @Router /extract [post]
func (h *ExtractHandler) HandleExtract(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteErrorMessage(w, http.StatusMethodNotAllowed, types.ErrInvalidRequest, "method not allowed", h.logger)
		return
	}
	if !ValidateContentType(w, r, h.logger) {
		return
	}

	var req api.ExtractRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	if req.WebsiteURL == "" {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest, "website_url is required", h.logger)
		return
	}

	taskType := types.TaskType(req.TaskType)
	results, err := h.orch.ExecuteTask(r.Context(), agent.Request{
		Websites:               map[string]string{req.WebsiteURL: req.WebsiteURL},
		Query:                  fmt.Sprintf("%s extraction from %s", taskType, req.WebsiteURL),
		TaskType:               taskType,
		Location:               req.Location,
		AdditionalInstructions: req.AdditionalInstructions,
		MaxSteps:               req.MaxSteps,
	})
	if err != nil {
		var apiErr *types.Error
		if errors.As(err, &apiErr) {
			WriteError(w, apiErr, h.logger)
			return
		}
		WriteErrorMessage(w, http.StatusInternalServerError, types.ErrInternalError, err.Error(), h.logger)
		return
	}

	result := results[req.WebsiteURL]

	var snapshot *types.EconomicSnapshot
	if h.econ != nil {
		snapshot = h.econ.GetSnapshot(r.Context(), false)
	}

	if h.saver != nil {
		if len(result.Items) > 0 {
			h.saver.SaveResults(req.WebsiteURL, taskType, result.Items)
		}
		if h.recorder != nil {
			if rec, ok := h.recorder.Record(result.RecordID); ok {
				h.saver.SaveRecord(rec)
			}
		}
	}

	WriteSuccess(w, api.ExtractData{
		Status:          string(result.Status),
		Message:         resultMessage(result),
		DetailedResult:  result.Items,
		RecordID:        result.RecordID,
		EconomicContext: snapshot,
	})
}

// resultMessage 生成与站点结果对应的描述文本
func resultMessage(res types.SiteResult) string {
	switch {
	case res.Status == types.SiteStatusError:
		return "Failed to extract data: " + res.Error
	case res.Status == types.SiteStatusPartial && len(res.Items) == 0:
		return "Task completed but no valid data extracted."
	case res.Status == types.SiteStatusPartial:
		return "Task completed with partially conforming data."
	default:
		return "Task completed successfully."
	}
}
