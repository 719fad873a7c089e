package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/webextract/internal/tlsutil"
	"github.com/BaSui01/webextract/types"
)

// BrowserUseConfig configures the HTTP client for a browser-use style
// automation service.
type BrowserUseConfig struct {
	// BaseURL of the automation service.
	BaseURL string

	// APIKey sent as a bearer token.
	APIKey string

	// Model the service should drive the browser with.
	Model string

	// Timeout for one full agent run. Agent runs are slow; defaults to
	// ten minutes when zero.
	Timeout time.Duration
}

// BrowserUse is the HTTP-backed BrowserAgent implementation.
type BrowserUse struct {
	cfg    BrowserUseConfig
	client *http.Client
	logger *zap.Logger
}

// NewBrowserUse creates the HTTP client for the automation service.
func NewBrowserUse(cfg BrowserUseConfig, logger *zap.Logger) *BrowserUse {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BrowserUse{
		cfg:    cfg,
		client: tlsutil.SecureHTTPClient(timeout),
		logger: logger.With(zap.String("component", "browseruse")),
	}
}

func (b *BrowserUse) Name() string { return "browser-use" }

// runRequest is the wire format of a run submission.
type runRequest struct {
	Task           string  `json:"task"`
	Model          string  `json:"model,omitempty"`
	MaxSteps       int     `json:"max_steps"`
	Seed           int64   `json:"seed"`
	Temperature    float64 `json:"temperature"`
	ViewportWidth  int     `json:"viewport_width,omitempty"`
	ViewportHeight int     `json:"viewport_height,omitempty"`
	Headless       bool    `json:"headless"`
	UserAgent      string  `json:"user_agent,omitempty"`
}

// runResponse is the wire format of a completed run.
type runResponse struct {
	Output       string `json:"output"`
	Result       string `json:"result"`
	Steps        int    `json:"steps"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
	Error        string `json:"error"`
}

// Run submits the task and waits for the agent to finish. Each call is
// an independent browser session on the service side.
func (b *BrowserUse) Run(ctx context.Context, task string, cfg *types.ReproducibilityConfig, maxSteps int) (*RunResult, error) {
	body := runRequest{
		Task:     task,
		Model:    b.cfg.Model,
		MaxSteps: maxSteps,
		Headless: true,
	}
	if cfg != nil {
		body.Seed = cfg.Seed
		body.Temperature = cfg.Temperature
		body.ViewportWidth = cfg.ViewportWidth
		body.ViewportHeight = cfg.ViewportHeight
		body.Headless = cfg.Headless
		body.UserAgent = cfg.UserAgent
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal run request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint("/api/v1/run"), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build run request: %w", err)
	}
	b.buildHeaders(req)

	start := time.Now()
	resp, err := b.client.Do(req)
	if err != nil {
		return nil, types.NewAgentInvocationError("", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, b.mapHTTPError(resp)
	}

	var run runResponse
	if err := json.NewDecoder(resp.Body).Decode(&run); err != nil {
		return nil, types.NewAgentInvocationError("", fmt.Errorf("decode run response: %w", err))
	}
	if run.Error != "" {
		return nil, types.NewError(types.ErrAgentInvocation, run.Error).WithRetryable(true)
	}

	output := run.Output
	if output == "" {
		output = run.Result
	}

	b.logger.Debug("agent run completed",
		zap.Int("steps", run.Steps),
		zap.Duration("duration", time.Since(start)))

	return &RunResult{
		Output:       output,
		Steps:        run.Steps,
		InputTokens:  run.InputTokens,
		OutputTokens: run.OutputTokens,
	}, nil
}

// buildHeaders applies headers to the HTTP request.
func (b *BrowserUse) buildHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+b.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
}

func (b *BrowserUse) endpoint(path string) string {
	return strings.TrimRight(b.cfg.BaseURL, "/") + path
}

// mapHTTPError converts an upstream error status to a typed error.
// Rate limits and server-side failures are retryable.
func (b *BrowserUse) mapHTTPError(resp *http.Response) error {
	msg := readErrorMessage(resp.Body)
	retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500

	code := types.ErrUpstreamError
	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity {
		code = types.ErrAgentInvocation
		retryable = false
	}

	return types.NewError(code, fmt.Sprintf("automation service: status=%d msg=%s", resp.StatusCode, msg)).
		WithHTTPStatus(resp.StatusCode).
		WithRetryable(retryable)
}

// readErrorMessage pulls a human-readable message out of an error body,
// tolerating non-JSON responses.
func readErrorMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(data) == 0 {
		return "unknown error"
	}
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &body); err == nil {
		if body.Error != "" {
			return body.Error
		}
		if body.Message != "" {
			return body.Message
		}
	}
	return strings.TrimSpace(string(data))
}

var _ BrowserAgent = (*BrowserUse)(nil)
