package agent

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/webextract/repro"
	"github.com/BaSui01/webextract/tracker"
	"github.com/BaSui01/webextract/types"
)

// fakeAgent answers by URL substring so tests can script per-site
// outcomes.
type fakeAgent struct {
	mu      sync.Mutex
	outputs map[string]string
	errs    map[string]error
	calls   int
}

func (f *fakeAgent) Run(_ context.Context, task string, _ *types.ReproducibilityConfig, _ int) (*RunResult, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	for key, err := range f.errs {
		if strings.Contains(task, key) {
			return nil, err
		}
	}
	for key, out := range f.outputs {
		if strings.Contains(task, key) {
			return &RunResult{Output: out}, nil
		}
	}
	return &RunResult{Output: ""}, nil
}

func (f *fakeAgent) Name() string { return "fake" }

func newTestOrchestrator(t *testing.T, fake *fakeAgent, cfg OrchestratorConfig) (*Orchestrator, *tracker.Tracker) {
	t.Helper()
	control, err := repro.New(repro.DefaultConfig(), zap.NewNop())
	require.NoError(t, err)
	rec := tracker.New(zap.NewNop())
	builder := NewTaskBuilder(nil, zap.NewNop())
	return NewOrchestrator(fake, builder, control, rec, cfg, nil, nil, zap.NewNop()), rec
}

func TestOrchestrator_Success(t *testing.T) {
	t.Parallel()

	fake := &fakeAgent{outputs: map[string]string{
		"bankrate.com": `[{"rate_type": "30-year fixed", "rate": "6.5%", "institution": "Acme"}]`,
	}}
	o, rec := newTestOrchestrator(t, fake, OrchestratorConfig{})

	results, err := o.ExecuteTask(context.Background(), Request{
		Websites: map[string]string{"bankrate": "https://www.bankrate.com"},
		Query:    "current mortgage rates",
		TaskType: types.TaskInterestRate,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)

	res := results["bankrate"]
	assert.Equal(t, types.SiteStatusSuccess, res.Status)
	assert.Len(t, res.Items, 1)
	assert.False(t, res.Partial)
	assert.NotEmpty(t, res.RecordID)

	summary := rec.Summary()
	assert.Equal(t, 1, summary.TotalQueries)
	assert.Equal(t, 1, summary.SuccessfulQueries)
}

func TestOrchestrator_FailureIsolation(t *testing.T) {
	t.Parallel()

	fake := &fakeAgent{
		outputs: map[string]string{
			"bankrate.com": `[{"rate_type": "fixed", "rate": "6.5%", "institution": "Acme"}]`,
			"nerdwallet":   `[{"rate_type": "ARM", "rate": "7.1%", "institution": "Beta"}]`,
		},
		errs: map[string]error{
			"brokensite": types.NewAgentInvocationError("brokensite", errors.New("browser crashed")),
		},
	}
	o, rec := newTestOrchestrator(t, fake, OrchestratorConfig{Concurrency: 3})

	results, err := o.ExecuteTask(context.Background(), Request{
		Websites: map[string]string{
			"bankrate":   "https://www.bankrate.com",
			"nerdwallet": "https://www.nerdwallet.com",
			"broken":     "https://brokensite.example",
		},
		TaskType: types.TaskInterestRate,
	})
	require.NoError(t, err)

	// One result per requested site, no matter what failed.
	require.Len(t, results, 3)
	assert.Equal(t, types.SiteStatusSuccess, results["bankrate"].Status)
	assert.Equal(t, types.SiteStatusSuccess, results["nerdwallet"].Status)

	broken := results["broken"]
	assert.Equal(t, types.SiteStatusError, broken.Status)
	assert.True(t, broken.Failed())
	assert.Contains(t, broken.Error, "browser crashed")
	assert.Empty(t, broken.Items)

	summary := rec.Summary()
	assert.Equal(t, 3, summary.TotalQueries)
	assert.Equal(t, 2, summary.SuccessfulQueries)
	assert.Equal(t, 1, summary.ErrorCount)
}

func TestOrchestrator_NoPayloadIsPartial(t *testing.T) {
	t.Parallel()

	fake := &fakeAgent{outputs: map[string]string{
		"example.com": "I navigated the site but found no rate table.",
	}}
	o, _ := newTestOrchestrator(t, fake, OrchestratorConfig{})

	results, err := o.ExecuteTask(context.Background(), Request{
		Websites: map[string]string{"example": "https://example.com"},
		TaskType: types.TaskInterestRate,
	})
	require.NoError(t, err)

	res := results["example"]
	assert.Equal(t, types.SiteStatusPartial, res.Status)
	assert.True(t, res.Partial)
	assert.NotNil(t, res.Items)
	assert.Empty(t, res.Items)
}

func TestOrchestrator_NonConformingRowsArePartialButKept(t *testing.T) {
	t.Parallel()

	fake := &fakeAgent{outputs: map[string]string{
		"example.com": `[{"rate": "6.5%"}, {"rate": "7.0%"}]`, // missing rate_type/institution
	}}
	o, rec := newTestOrchestrator(t, fake, OrchestratorConfig{})

	results, err := o.ExecuteTask(context.Background(), Request{
		Websites: map[string]string{"example": "https://example.com"},
		TaskType: types.TaskInterestRate,
	})
	require.NoError(t, err)

	res := results["example"]
	assert.Equal(t, types.SiteStatusPartial, res.Status)
	assert.True(t, res.Partial)
	assert.Len(t, res.Items, 2, "non-conforming rows are kept, not discarded")

	records := rec.Records()
	require.Len(t, records, 1)
	assert.True(t, records[0].PartialSchema)
	assert.True(t, records[0].Success)
}

func TestOrchestrator_InvalidRequest(t *testing.T) {
	t.Parallel()

	o, _ := newTestOrchestrator(t, &fakeAgent{}, OrchestratorConfig{})

	_, err := o.ExecuteTask(context.Background(), Request{TaskType: types.TaskInterestRate})
	assert.True(t, types.IsErrorCode(err, types.ErrInvalidRequest))

	_, err = o.ExecuteTask(context.Background(), Request{
		Websites: map[string]string{"x": "https://x.example"},
		TaskType: "unsupported",
	})
	assert.True(t, types.IsErrorCode(err, types.ErrInvalidRequest))
}

func TestOrchestrator_ProgressEvents(t *testing.T) {
	t.Parallel()

	fake := &fakeAgent{outputs: map[string]string{
		"example.com": `[{"rate_type": "fixed", "rate": "6.5%", "institution": "Acme"}]`,
	}}

	control, err := repro.New(repro.DefaultConfig(), zap.NewNop())
	require.NoError(t, err)
	events := NewBroadcaster()
	o := NewOrchestrator(fake, NewTaskBuilder(nil, zap.NewNop()), control,
		tracker.New(zap.NewNop()), OrchestratorConfig{}, events, nil, zap.NewNop())

	sub := events.Subscribe()
	defer events.Unsubscribe(sub)

	_, err = o.ExecuteTask(context.Background(), Request{
		Websites: map[string]string{"example": "https://example.com"},
		TaskType: types.TaskInterestRate,
	})
	require.NoError(t, err)

	var seen []EventType
	timeout := time.After(time.Second)
	for len(seen) < 4 {
		select {
		case ev := <-sub.Events():
			seen = append(seen, ev.Type)
		case <-timeout:
			t.Fatalf("timed out waiting for events, got %v", seen)
		}
	}
	assert.Equal(t, []EventType{EventRunStarted, EventSiteStarted, EventSiteFinished, EventRunFinished}, seen)
}

func TestOrchestrator_SiteTimeout(t *testing.T) {
	t.Parallel()

	slow := &slowAgent{delay: 200 * time.Millisecond}
	control, err := repro.New(repro.DefaultConfig(), zap.NewNop())
	require.NoError(t, err)
	o := NewOrchestrator(slow, NewTaskBuilder(nil, zap.NewNop()), control,
		tracker.New(zap.NewNop()), OrchestratorConfig{SiteTimeout: 20 * time.Millisecond},
		nil, nil, zap.NewNop())

	results, err := o.ExecuteTask(context.Background(), Request{
		Websites: map[string]string{"slow": "https://slow.example"},
		TaskType: types.TaskInterestRate,
	})
	require.NoError(t, err)

	res := results["slow"]
	assert.Equal(t, types.SiteStatusError, res.Status)
	assert.Contains(t, res.Error, "timed out")
}

type slowAgent struct{ delay time.Duration }

func (s *slowAgent) Run(ctx context.Context, _ string, _ *types.ReproducibilityConfig, _ int) (*RunResult, error) {
	select {
	case <-time.After(s.delay):
		return &RunResult{Output: "[]"}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *slowAgent) Name() string { return "slow" }
