package tokens

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPricingFor(t *testing.T) {
	t.Parallel()

	p := PricingFor("gemini-1.5-pro")
	assert.Equal(t, 3.50, p.InputPerMillion)
	assert.Equal(t, 10.50, p.OutputPerMillion)

	// Unknown models fall back to flash pricing.
	fallback := PricingFor("some-unknown-model")
	assert.Equal(t, PricingFor("gemini-2.0-flash-exp"), fallback)
}

func TestPricing_Cost(t *testing.T) {
	t.Parallel()

	p := Pricing{InputPerMillion: 0.075, OutputPerMillion: 0.30}
	cost := p.Cost(1_000_000, 1_000_000)
	assert.InDelta(t, 0.375, cost, 1e-9)

	assert.Zero(t, p.Cost(0, 0))
}

func TestHeuristicEstimator(t *testing.T) {
	t.Parallel()

	est := HeuristicEstimator{}
	assert.Equal(t, 0, est.Count(""))
	assert.Equal(t, 10, est.Count(strings.Repeat("a", 40)))
}

func TestCounter_LogRequest_Estimated(t *testing.T) {
	t.Parallel()

	c := NewCounter("gemini-2.0-flash-exp", "", HeuristicEstimator{}, zap.NewNop())

	input := strings.Repeat("q", 400)  // 100 tokens estimated
	output := strings.Repeat("a", 800) // 200 tokens estimated
	rec := c.LogRequest(input, output, 0, 0, "data_extraction")

	assert.Equal(t, 100, rec.InputTokens)
	assert.Equal(t, 200, rec.OutputTokens)
	assert.InDelta(t, 100.0/1e6*0.075+200.0/1e6*0.30, rec.TotalCost, 1e-12)
	assert.Equal(t, "gemini-2.0-flash-exp", rec.Model)
	assert.LessOrEqual(t, len(rec.InputPreview), previewLimit+3)
}

func TestCounter_LogRequest_ActualCountsWin(t *testing.T) {
	t.Parallel()

	c := NewCounter("gemini-2.0-flash-exp", "", HeuristicEstimator{}, zap.NewNop())

	rec := c.LogRequest("short", "short", 1234, 567, "chat")
	assert.Equal(t, 1234, rec.InputTokens)
	assert.Equal(t, 567, rec.OutputTokens)
}

func TestCounter_Summary(t *testing.T) {
	t.Parallel()

	c := NewCounter("gemini-1.5-flash", "", HeuristicEstimator{}, zap.NewNop())

	// Empty session.
	s := c.Summary()
	assert.Zero(t, s.TotalRequests)
	assert.Zero(t, s.TotalCost)
	assert.Zero(t, s.AverageCostPerRequest)

	c.LogRequest("", "", 1000, 500, "chat")
	c.LogRequest("", "", 2000, 1000, "chat")

	s = c.Summary()
	assert.Equal(t, 2, s.TotalRequests)
	assert.Equal(t, 3000, s.TotalInputTokens)
	assert.Equal(t, 1500, s.TotalOutputTokens)
	assert.Equal(t, 4500, s.TotalTokens)
	assert.InDelta(t, s.TotalCost/2, s.AverageCostPerRequest, 1e-12)
}

func TestCounter_SaveAndHistoricalCost(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "token_usage_stats.json")
	c := NewCounter("gemini-2.0-flash-exp", path, HeuristicEstimator{}, zap.NewNop())

	c.LogRequest("", "", 1_000_000, 0, "chat")
	require.NoError(t, c.Save())

	// A second session appends to the same file.
	c2 := NewCounter("gemini-2.0-flash-exp", path, HeuristicEstimator{}, zap.NewNop())
	c2.LogRequest("", "", 1_000_000, 0, "chat")
	require.NoError(t, c2.Save())

	total, err := c2.HistoricalCost()
	require.NoError(t, err)
	assert.InDelta(t, 2*0.075, total, 1e-9)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "total_cost")
}

func TestCounter_HistoricalCost_NoFile(t *testing.T) {
	t.Parallel()

	c := NewCounter("gemini-2.0-flash-exp", filepath.Join(t.TempDir(), "missing.json"), nil, zap.NewNop())
	total, err := c.HistoricalCost()
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestCounter_Concurrent(t *testing.T) {
	t.Parallel()

	c := NewCounter("gemini-2.0-flash-exp", "", HeuristicEstimator{}, zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.LogRequest("", "", 10, 5, "chat")
		}()
	}
	wg.Wait()

	s := c.Summary()
	assert.Equal(t, 32, s.TotalRequests)
	assert.Equal(t, 320, s.TotalInputTokens)
	assert.Equal(t, 160, s.TotalOutputTokens)
}
