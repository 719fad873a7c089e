package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/webextract/types"
)

func TestBrowserUse_Run(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/run", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req runRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, int64(42), req.Seed)
		assert.Equal(t, 0.1, req.Temperature)
		assert.Equal(t, 25, req.MaxSteps)

		json.NewEncoder(w).Encode(runResponse{
			Output:       `[{"rate_type": "fixed", "rate": "6.5%"}]`,
			Steps:        12,
			InputTokens:  800,
			OutputTokens: 150,
		})
	}))
	defer srv.Close()

	b := NewBrowserUse(BrowserUseConfig{BaseURL: srv.URL, APIKey: "test-key"}, zap.NewNop())

	cfg := types.ReproducibilityConfig{Seed: 42, Temperature: 0.1, ViewportWidth: 1920, ViewportHeight: 1080}
	run, err := b.Run(context.Background(), "extract rates", &cfg, 25)
	require.NoError(t, err)
	assert.Contains(t, run.Output, "rate_type")
	assert.Equal(t, 12, run.Steps)
	assert.Equal(t, 800, run.InputTokens)
}

func TestBrowserUse_UpstreamError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error": "browser pool exhausted"}`))
	}))
	defer srv.Close()

	b := NewBrowserUse(BrowserUseConfig{BaseURL: srv.URL}, zap.NewNop())

	_, err := b.Run(context.Background(), "task", nil, 10)
	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrUpstreamError))

	var typed *types.Error
	require.ErrorAs(t, err, &typed)
	assert.True(t, typed.Retryable)
	assert.Contains(t, typed.Message, "browser pool exhausted")
}

func TestBrowserUse_BadRequestNotRetryable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message": "task text required"}`))
	}))
	defer srv.Close()

	b := NewBrowserUse(BrowserUseConfig{BaseURL: srv.URL}, zap.NewNop())

	_, err := b.Run(context.Background(), "", nil, 10)
	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrAgentInvocation))

	var typed *types.Error
	require.ErrorAs(t, err, &typed)
	assert.False(t, typed.Retryable)
}

func TestBrowserUse_AgentReportedError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(runResponse{Error: "captcha blocked the session"})
	}))
	defer srv.Close()

	b := NewBrowserUse(BrowserUseConfig{BaseURL: srv.URL}, zap.NewNop())

	_, err := b.Run(context.Background(), "task", nil, 10)
	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrAgentInvocation))
}

func TestBrowserUse_ResultFieldFallback(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(runResponse{Result: "[]"})
	}))
	defer srv.Close()

	b := NewBrowserUse(BrowserUseConfig{BaseURL: srv.URL}, zap.NewNop())

	run, err := b.Run(context.Background(), "task", nil, 5)
	require.NoError(t, err)
	assert.Equal(t, "[]", run.Output)
}
