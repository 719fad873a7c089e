package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/webextract/agent"
	"github.com/BaSui01/webextract/api"
	"github.com/BaSui01/webextract/repro"
	"github.com/BaSui01/webextract/tracker"
	"github.com/BaSui01/webextract/types"
)

// scriptedAgent 按 URL 子串返回脚本化的结果
type scriptedAgent struct {
	outputs map[string]string
	errs    map[string]error
}

func (s *scriptedAgent) Run(_ context.Context, task string, _ *types.ReproducibilityConfig, _ int) (*agent.RunResult, error) {
	for key, err := range s.errs {
		if strings.Contains(task, key) {
			return nil, err
		}
	}
	for key, out := range s.outputs {
		if strings.Contains(task, key) {
			return &agent.RunResult{Output: out}, nil
		}
	}
	return &agent.RunResult{Output: ""}, nil
}

func (s *scriptedAgent) Name() string { return "scripted" }

func newExtractHandler(t *testing.T, fake *scriptedAgent) *ExtractHandler {
	t.Helper()
	control, err := repro.New(repro.DefaultConfig(), zap.NewNop())
	require.NoError(t, err)
	rec := tracker.New(zap.NewNop())
	builder := agent.NewTaskBuilder(nil, zap.NewNop())
	orch := agent.NewOrchestrator(fake, builder, control, rec, agent.OrchestratorConfig{}, nil, nil, zap.NewNop())
	return NewExtractHandler(orch, nil, nil, rec, zap.NewNop())
}

func postExtract(t *testing.T, h *ExtractHandler, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/extract", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.HandleExtract(w, req)
	return w
}

func decodeExtract(t *testing.T, w *httptest.ResponseRecorder) (Response, api.ExtractData) {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	var data api.ExtractData
	if resp.Data != nil {
		raw, err := json.Marshal(resp.Data)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, &data))
	}
	return resp, data
}

func TestExtractHandler_Success(t *testing.T) {
	t.Parallel()

	h := newExtractHandler(t, &scriptedAgent{outputs: map[string]string{
		"bankrate.com": `[{"rate_type": "30-year fixed", "rate": "6.5%", "institution": "Acme"}]`,
	}})

	w := postExtract(t, h, api.ExtractRequest{
		WebsiteURL: "https://www.bankrate.com",
		TaskType:   string(types.TaskInterestRate),
	})

	require.Equal(t, http.StatusOK, w.Code)
	resp, data := decodeExtract(t, w)
	assert.True(t, resp.Success)
	assert.Equal(t, "success", data.Status)
	assert.Equal(t, "Task completed successfully.", data.Message)
	require.Len(t, data.DetailedResult, 1)
	assert.Equal(t, "6.5%", data.DetailedResult[0]["rate"])
	assert.NotEmpty(t, data.RecordID)
}

func TestExtractHandler_PartialNoItems(t *testing.T) {
	t.Parallel()

	h := newExtractHandler(t, &scriptedAgent{outputs: map[string]string{
		"example.com": `the page had no rates listed`,
	}})

	w := postExtract(t, h, api.ExtractRequest{
		WebsiteURL: "https://www.example.com",
		TaskType:   string(types.TaskInterestRate),
	})

	require.Equal(t, http.StatusOK, w.Code)
	_, data := decodeExtract(t, w)
	assert.Equal(t, "partial_success", data.Status)
	assert.Equal(t, "Task completed but no valid data extracted.", data.Message)
	assert.Empty(t, data.DetailedResult)
}

func TestExtractHandler_AgentFailureIsInBand(t *testing.T) {
	t.Parallel()

	h := newExtractHandler(t, &scriptedAgent{errs: map[string]error{
		"example.com": errors.New("browser session crashed"),
	}})

	w := postExtract(t, h, api.ExtractRequest{
		WebsiteURL: "https://www.example.com",
		TaskType:   string(types.TaskInterestRate),
	})

	// Agent 失败不升级为 HTTP 错误
	require.Equal(t, http.StatusOK, w.Code)
	resp, data := decodeExtract(t, w)
	assert.True(t, resp.Success)
	assert.Equal(t, "error", data.Status)
	assert.Contains(t, data.Message, "browser session crashed")
}

func TestExtractHandler_MissingURL(t *testing.T) {
	t.Parallel()

	h := newExtractHandler(t, &scriptedAgent{})
	w := postExtract(t, h, api.ExtractRequest{TaskType: string(types.TaskRealEstate)})

	require.Equal(t, http.StatusBadRequest, w.Code)
	resp, _ := decodeExtract(t, w)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, string(types.ErrInvalidRequest), resp.Error.Code)
}

func TestExtractHandler_RejectsWrongMethod(t *testing.T) {
	t.Parallel()

	h := newExtractHandler(t, &scriptedAgent{})
	req := httptest.NewRequest(http.MethodGet, "/extract", nil)
	w := httptest.NewRecorder()
	h.HandleExtract(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestExtractHandler_RejectsBadContentType(t *testing.T) {
	t.Parallel()

	h := newExtractHandler(t, &scriptedAgent{})
	req := httptest.NewRequest(http.MethodPost, "/extract", strings.NewReader("website_url=x"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h.HandleExtract(w, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}
