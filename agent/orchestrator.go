package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/BaSui01/webextract/internal/metrics"
	"github.com/BaSui01/webextract/repro"
	"github.com/BaSui01/webextract/tracker"
	"github.com/BaSui01/webextract/types"
)

// DefaultMaxSteps bounds how many actions the agent may take per site.
const DefaultMaxSteps = 25

// OrchestratorConfig tunes how a run executes.
type OrchestratorConfig struct {
	// Concurrency caps how many sites run at once. Zero or negative
	// means sequential.
	Concurrency int

	// AgentRPS rate-limits agent invocations per run. Zero disables
	// the limiter.
	AgentRPS float64

	// SiteTimeout bounds one agent call; zero means no extra bound
	// beyond the request context.
	SiteTimeout time.Duration
}

// Orchestrator fans extraction tasks out to the browser agent, one
// independent session per website, and folds the outcomes into
// SiteResults. A site failing never suppresses the other sites.
type Orchestrator struct {
	agent     BrowserAgent
	builder   *TaskBuilder
	control   *repro.Controller
	recorder  tracker.Recorder
	cfg       OrchestratorConfig
	limiter   *rate.Limiter
	events    *Broadcaster
	collector *metrics.Collector
	tracer    trace.Tracer
	logger    *zap.Logger
}

// NewOrchestrator wires the orchestrator. events may be nil when no one
// listens for progress; collector may be nil to skip metrics.
func NewOrchestrator(
	browserAgent BrowserAgent,
	builder *TaskBuilder,
	control *repro.Controller,
	recorder tracker.Recorder,
	cfg OrchestratorConfig,
	events *Broadcaster,
	collector *metrics.Collector,
	logger *zap.Logger,
) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	var limiter *rate.Limiter
	if cfg.AgentRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.AgentRPS), 1)
	}
	return &Orchestrator{
		agent:     browserAgent,
		builder:   builder,
		control:   control,
		recorder:  recorder,
		cfg:       cfg,
		limiter:   limiter,
		events:    events,
		collector: collector,
		tracer:    otel.Tracer("webextract/agent"),
		logger:    logger.With(zap.String("component", "orchestrator")),
	}
}

// Request describes one extraction run.
type Request struct {
	// Websites maps a display name to the site URL.
	Websites map[string]string

	// Query is the human-readable description stored on each record.
	Query string

	TaskType types.TaskType

	Location               string
	AdditionalInstructions string

	// MaxSteps per site; DefaultMaxSteps when zero.
	MaxSteps int
}

// ExecuteTask runs the extraction against every requested website and
// returns exactly one SiteResult per site, keyed by site name. The only
// error returned is for an invalid request; per-site failures are
// reported in-band on the SiteResult.
func (o *Orchestrator) ExecuteTask(ctx context.Context, req Request) (map[string]types.SiteResult, error) {
	if len(req.Websites) == 0 {
		return nil, types.NewError(types.ErrInvalidRequest, "no websites requested")
	}
	if !req.TaskType.Valid() {
		return nil, types.NewError(types.ErrInvalidRequest, fmt.Sprintf("unsupported task type %q", req.TaskType))
	}
	maxSteps := req.MaxSteps
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}

	o.publish(Event{Type: EventRunStarted})

	results := make(map[string]types.SiteResult, len(req.Websites))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	if o.cfg.Concurrency > 0 {
		g.SetLimit(o.cfg.Concurrency)
	} else {
		g.SetLimit(1)
	}

	for name, siteURL := range req.Websites {
		name, siteURL := name, siteURL
		g.Go(func() error {
			res := o.runSite(gctx, name, siteURL, req, maxSteps)
			mu.Lock()
			results[name] = res
			mu.Unlock()
			// Site failures stay in-band; never abort the group.
			return nil
		})
	}
	_ = g.Wait()

	o.publish(Event{Type: EventRunFinished})
	return results, nil
}

// runSite executes one site task end to end: open record, build task,
// invoke agent, parse and validate, close record.
func (o *Orchestrator) runSite(ctx context.Context, name, siteURL string, req Request, maxSteps int) types.SiteResult {
	ctx, span := o.tracer.Start(ctx, "agent.site_task",
		trace.WithAttributes(
			attribute.String("website", name),
			attribute.String("task_type", string(req.TaskType)),
		))
	defer span.End()

	o.publish(Event{Type: EventSiteStarted, Website: name})

	rec := o.recorder.StartQuery(name, req.TaskType, req.Query)
	result := types.SiteResult{
		Website:  name,
		URL:      siteURL,
		TaskType: req.TaskType,
		RecordID: rec.ID,
	}

	run, err := o.invoke(ctx, siteURL, req, maxSteps)
	if err != nil {
		o.closeFailed(&result, rec.ID, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, result.Error)
		o.publish(Event{Type: EventSiteFinished, Website: name, Status: result.Status, Error: result.Error})
		return result
	}

	rows := ParseRows(run.Output, req.TaskType, siteURL)
	_, partial := ValidateRows(rows, req.TaskType)

	switch {
	case len(rows) == 0:
		result.Status = types.SiteStatusPartial
		result.Partial = true
		result.Items = []map[string]any{}
	case partial:
		result.Status = types.SiteStatusPartial
		result.Partial = true
		result.Items = rows
		if markErr := o.recorder.MarkPartial(rec.ID); markErr != nil {
			o.logger.Warn("mark partial failed", zap.String("record_id", rec.ID), zap.Error(markErr))
		}
	default:
		result.Status = types.SiteStatusSuccess
		result.Items = rows
	}

	if err := o.recorder.FinishQuery(rec.ID, true, len(rows), nil); err != nil {
		o.logger.Warn("finish query failed", zap.String("record_id", rec.ID), zap.Error(err))
	}

	span.SetAttributes(attribute.Int("items", len(rows)))
	o.logger.Info("site task finished",
		zap.String("website", name),
		zap.String("status", string(result.Status)),
		zap.Int("items", len(rows)))

	o.publish(Event{Type: EventSiteFinished, Website: name, Status: result.Status, Items: len(rows)})
	return result
}

// invoke builds the task description and calls the agent, honoring the
// per-run rate limit and per-site timeout.
func (o *Orchestrator) invoke(ctx context.Context, siteURL string, req Request, maxSteps int) (*RunResult, error) {
	if o.limiter != nil {
		if err := o.limiter.Wait(ctx); err != nil {
			return nil, types.NewError(types.ErrTimeout, "canceled while waiting for agent slot").WithCause(err)
		}
	}

	task := o.builder.Build(TaskSpec{
		WebsiteURL:             siteURL,
		TaskType:               req.TaskType,
		Location:               req.Location,
		AdditionalInstructions: req.AdditionalInstructions,
	})

	if o.cfg.SiteTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.SiteTimeout)
		defer cancel()
	}

	var controlCfg *types.ReproducibilityConfig
	if o.control != nil {
		cfg := o.control.Config()
		controlCfg = &cfg
	}

	start := time.Now()
	run, err := o.agent.Run(ctx, task, controlCfg, maxSteps)
	if o.collector != nil {
		status := "success"
		if err != nil {
			status = "failure"
		}
		o.collector.RecordAgentInvocation(o.agent.Name(), status, time.Since(start))
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, types.NewError(types.ErrTimeout, "agent run timed out").WithCause(err)
		}
		return nil, err
	}
	return run, nil
}

// closeFailed closes the record as failed and marks the result.
func (o *Orchestrator) closeFailed(result *types.SiteResult, recordID string, err error) {
	result.Status = types.SiteStatusError
	result.Error = err.Error()
	result.Items = []map[string]any{}
	if finishErr := o.recorder.FinishQuery(recordID, false, 0, err); finishErr != nil {
		o.logger.Warn("finish query failed", zap.String("record_id", recordID), zap.Error(finishErr))
	}
	o.logger.Warn("site task failed", zap.String("website", result.Website), zap.Error(err))
}

func (o *Orchestrator) publish(ev Event) {
	if o.events != nil {
		o.events.Publish(ev)
	}
}
