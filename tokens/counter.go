package tokens

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/webextract/internal/metrics"
)

// saveEvery controls how often the session is flushed to disk while
// requests are being logged.
const saveEvery = 5

// previewLimit caps how much of the request/response text is kept in the
// persisted record.
const previewLimit = 200

// maxSessions bounds the on-disk history.
const maxSessions = 100

// RequestRecord is the accounting entry for a single model call.
type RequestRecord struct {
	Timestamp     time.Time `json:"timestamp"`
	RequestType   string    `json:"request_type"`
	Model         string    `json:"model"`
	InputTokens   int       `json:"input_tokens"`
	OutputTokens  int       `json:"output_tokens"`
	InputCost     float64   `json:"input_cost"`
	OutputCost    float64   `json:"output_cost"`
	TotalCost     float64   `json:"total_cost"`
	InputPreview  string    `json:"input_text_preview"`
	OutputPreview string    `json:"output_text_preview"`
}

// SessionSummary aggregates a session's token usage and cost.
type SessionSummary struct {
	SessionDuration       time.Duration `json:"session_duration"`
	TotalRequests         int           `json:"total_requests"`
	TotalInputTokens      int           `json:"total_input_tokens"`
	TotalOutputTokens     int           `json:"total_output_tokens"`
	TotalTokens           int           `json:"total_tokens"`
	TotalCost             float64       `json:"total_cost"`
	AverageCostPerRequest float64       `json:"average_cost_per_request"`
	Model                 string        `json:"model"`
}

// sessionStats is the persisted form of one session.
type sessionStats struct {
	StartTime         time.Time       `json:"start_time"`
	EndTime           time.Time       `json:"end_time,omitempty"`
	TotalInputTokens  int             `json:"total_input_tokens"`
	TotalOutputTokens int             `json:"total_output_tokens"`
	TotalRequests     int             `json:"total_requests"`
	TotalCost         float64         `json:"total_cost"`
	Requests          []RequestRecord `json:"requests"`
}

// Counter tracks token usage and cost across a session of model calls.
// It is safe for concurrent use.
type Counter struct {
	model     string
	pricing   Pricing
	estimator Estimator
	statsPath string

	mu    sync.Mutex
	stats sessionStats

	collector *metrics.Collector
	logger    *zap.Logger
}

// NewCounter creates a Counter for the given model. statsPath may be
// empty to disable persistence. A nil estimator falls back to the len/4
// heuristic.
func NewCounter(model, statsPath string, estimator Estimator, logger *zap.Logger) *Counter {
	if model == "" {
		model = DefaultPricingModel
	}
	if estimator == nil {
		estimator = HeuristicEstimator{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Counter{
		model:     model,
		pricing:   PricingFor(model),
		estimator: estimator,
		statsPath: statsPath,
		stats:     sessionStats{StartTime: time.Now()},
		logger:    logger.With(zap.String("component", "tokens")),
	}
}

// NewInstrumented creates a Counter that additionally exports token
// usage to the metrics collector.
func NewInstrumented(model, statsPath string, estimator Estimator, collector *metrics.Collector, logger *zap.Logger) *Counter {
	c := NewCounter(model, statsPath, estimator, logger)
	c.collector = collector
	return c
}

// Model returns the model the counter prices against.
func (c *Counter) Model() string { return c.model }

// Estimate returns the estimated token count for text.
func (c *Counter) Estimate(text string) int {
	return c.estimator.Count(text)
}

// LogRequest records one model call. When the upstream API reported
// actual token counts, pass them as actualInput/actualOutput; zero means
// "estimate from the text".
func (c *Counter) LogRequest(inputText, outputText string, actualInput, actualOutput int, requestType string) RequestRecord {
	inputTokens := actualInput
	if inputTokens <= 0 {
		inputTokens = c.estimator.Count(inputText)
	}
	outputTokens := actualOutput
	if outputTokens <= 0 {
		outputTokens = c.estimator.Count(outputText)
	}

	inCost := float64(inputTokens) / 1_000_000 * c.pricing.InputPerMillion
	outCost := float64(outputTokens) / 1_000_000 * c.pricing.OutputPerMillion

	rec := RequestRecord{
		Timestamp:     time.Now(),
		RequestType:   requestType,
		Model:         c.model,
		InputTokens:   inputTokens,
		OutputTokens:  outputTokens,
		InputCost:     inCost,
		OutputCost:    outCost,
		TotalCost:     inCost + outCost,
		InputPreview:  preview(inputText),
		OutputPreview: preview(outputText),
	}

	c.mu.Lock()
	c.stats.TotalInputTokens += inputTokens
	c.stats.TotalOutputTokens += outputTokens
	c.stats.TotalRequests++
	c.stats.TotalCost += rec.TotalCost
	c.stats.Requests = append(c.stats.Requests, rec)
	shouldSave := c.statsPath != "" && c.stats.TotalRequests%saveEvery == 0
	c.mu.Unlock()

	c.logger.Info("token usage",
		zap.Int("input_tokens", inputTokens),
		zap.Int("output_tokens", outputTokens),
		zap.Float64("cost_usd", rec.TotalCost),
		zap.String("request_type", requestType))

	if c.collector != nil {
		c.collector.RecordTokenUsage(c.model, inputTokens, outputTokens, rec.TotalCost)
	}

	if shouldSave {
		if err := c.Save(); err != nil {
			c.logger.Warn("save token stats", zap.Error(err))
		}
	}

	return rec
}

// Summary returns the point-in-time session summary.
func (c *Counter) Summary() SessionSummary {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.stats.TotalInputTokens + c.stats.TotalOutputTokens
	avg := 0.0
	if c.stats.TotalRequests > 0 {
		avg = c.stats.TotalCost / float64(c.stats.TotalRequests)
	}
	return SessionSummary{
		SessionDuration:       time.Since(c.stats.StartTime),
		TotalRequests:         c.stats.TotalRequests,
		TotalInputTokens:      c.stats.TotalInputTokens,
		TotalOutputTokens:     c.stats.TotalOutputTokens,
		TotalTokens:           total,
		TotalCost:             c.stats.TotalCost,
		AverageCostPerRequest: avg,
		Model:                 c.model,
	}
}

// Save appends the current session to the stats file, keeping at most
// maxSessions entries. No-op when persistence is disabled.
func (c *Counter) Save() error {
	if c.statsPath == "" {
		return nil
	}

	c.mu.Lock()
	session := c.stats
	session.Requests = append([]RequestRecord(nil), c.stats.Requests...)
	c.mu.Unlock()
	session.EndTime = time.Now()

	history, err := loadHistory(c.statsPath)
	if err != nil {
		return err
	}
	history = append(history, session)
	if len(history) > maxSessions {
		history = history[len(history)-maxSessions:]
	}

	data, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal token stats: %w", err)
	}
	if err := os.WriteFile(c.statsPath, data, 0o644); err != nil {
		return fmt.Errorf("write token stats: %w", err)
	}
	return nil
}

// HistoricalCost sums the cost across every persisted session.
func (c *Counter) HistoricalCost() (float64, error) {
	history, err := loadHistory(c.statsPath)
	if err != nil {
		return 0, err
	}
	total := 0.0
	for _, s := range history {
		total += s.TotalCost
	}
	return total, nil
}

func loadHistory(path string) ([]sessionStats, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read token stats: %w", err)
	}
	var history []sessionStats
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, fmt.Errorf("parse token stats: %w", err)
	}
	return history, nil
}

func preview(text string) string {
	if len(text) > previewLimit {
		return text[:previewLimit] + "..."
	}
	return text
}
