// Package orchestrator implements the Pipeline Orchestrator (spec §4.9): a
// single-threaded, cooperative dispatcher over a process-wide FIFO queue
// that runs Discovery -> Fetch -> Synthesize -> Embed -> Cleanup for one
// task at a time.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wessley-labs/docsingest/engine/cleanup"
	"github.com/wessley-labs/docsingest/engine/discovery"
	"github.com/wessley-labs/docsingest/engine/domain"
	"github.com/wessley-labs/docsingest/engine/embed"
	"github.com/wessley-labs/docsingest/engine/fetch"
	"github.com/wessley-labs/docsingest/engine/pipeline"
	"github.com/wessley-labs/docsingest/engine/synthesize"
	"github.com/wessley-labs/docsingest/pkg/fn"
	"github.com/wessley-labs/docsingest/pkg/governor"
	"github.com/wessley-labs/docsingest/pkg/metrics"
)

// dispatchInterval is the dispatcher loop's idle poll period (spec §4.9
// step 5, "yield, then re-enter step 1 after a short delay").
const dispatchInterval = 200 * time.Millisecond

// errLockBusy is the retriable error reported while a stage lock is held by
// another task's pipeline.
var errLockBusy = errors.New("stage lock busy")

// TaskStore is the subset of the Task Registry the Orchestrator needs.
type TaskStore interface {
	Register(ctx context.Context, prefix, category string) (string, error)
	SetStatus(ctx context.Context, taskID string, status domain.Status) error
	SetStage(ctx context.Context, taskID string, stage domain.Stage) error
	UpdateDetails(ctx context.Context, taskID, text string) error
	IsCancelled(taskID string) bool
}

type queuedTask struct {
	taskID string
	req    domain.Request
}

// Orchestrator runs the dispatcher loop described in spec §4.9.
type Orchestrator struct {
	Registry   TaskStore
	Governor   *governor.Governor
	Discovery  *discovery.Engine
	Fetch      *fetch.Engine
	Synthesize *synthesize.Engine
	Embed      *embed.Engine
	Logger     *slog.Logger

	// Metrics is a self-contained registry (task counts, per-stage
	// durations, queue depth, limiter saturation), rendered by
	// cmd/docsingestd/server.go's /metrics handler.
	Metrics *metrics.Registry

	mu         sync.Mutex
	queue      []queuedTask
	processing atomic.Bool
}

// New builds an Orchestrator. The caller wires each stage engine.
func New(store TaskStore, gov *governor.Governor, disc *discovery.Engine, f *fetch.Engine, synth *synthesize.Engine, emb *embed.Engine, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{Registry: store, Governor: gov, Discovery: disc, Fetch: f, Synthesize: synth, Embed: emb, Logger: logger, Metrics: metrics.New()}
}

// Submit validates req, registers a task, and enqueues it, returning the
// new task's id.
func (o *Orchestrator) Submit(ctx context.Context, req domain.Request) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	taskID, err := o.Registry.Register(ctx, "task", req.Category)
	if err != nil {
		return "", err
	}
	o.mu.Lock()
	o.queue = append(o.queue, queuedTask{taskID: taskID, req: req})
	depth := len(o.queue)
	o.mu.Unlock()

	o.Metrics.Counter("docsingest_tasks_submitted_total", "total tasks submitted").Inc()
	o.Metrics.Gauge("docsingest_queue_depth", "tasks waiting in the dispatcher queue").Set(int64(depth))
	return taskID, nil
}

// Run drives the dispatcher loop until ctx is done.
func (o *Orchestrator) Run(ctx context.Context) {
	ticker := time.NewTicker(dispatchInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.ProcessNext(ctx)
		}
	}
}

// ProcessNext implements one iteration of the dispatcher loop (spec §4.9
// steps 1-5): if idle and the queue is non-empty, pop and run one task's
// full pipeline. Returns false if nothing ran (already processing, or the
// queue was empty).
func (o *Orchestrator) ProcessNext(ctx context.Context) bool {
	if !o.processing.CompareAndSwap(false, true) {
		return false
	}
	defer o.processing.Store(false)

	task, ok := o.popNext()
	if !ok {
		return false
	}

	if o.Registry.IsCancelled(task.taskID) {
		// Skip and reschedule: this task is discarded, the dispatcher
		// simply re-enters step 1 on its next tick.
		return true
	}

	o.execute(ctx, task)
	return true
}

func (o *Orchestrator) popNext() (queuedTask, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.queue) == 0 {
		return queuedTask{}, false
	}
	task := o.queue[0]
	o.queue = o.queue[1:]
	o.Metrics.Gauge("docsingest_queue_depth", "tasks waiting in the dispatcher queue").Set(int64(len(o.queue)))
	return task, true
}

// recordGovernorSaturation snapshots the two stage limiters' in-flight
// fraction, spec §4.2's bounded-concurrency tunables, as gauges.
func (o *Orchestrator) recordGovernorSaturation() {
	if o.Governor == nil {
		return
	}
	browser := o.Governor.BrowserPageLimiter
	o.Metrics.Gauge("docsingest_browser_limiter_inuse", "browser page limiter slots in use").Set(int64(browser.InUse()))
	o.Metrics.Gauge("docsingest_browser_limiter_capacity", "browser page limiter capacity").Set(int64(browser.Limit()))
	llm := o.Governor.LLMCallLimiter
	o.Metrics.Gauge("docsingest_llm_limiter_inuse", "llm call limiter slots in use").Set(int64(llm.InUse()))
	o.Metrics.Gauge("docsingest_llm_limiter_capacity", "llm call limiter capacity").Set(int64(llm.Limit()))
}

// execute runs task's pipeline stages in order, updating status/stage/
// details at each transition, per spec §4.9 step 4.
func (o *Orchestrator) execute(ctx context.Context, task queuedTask) {
	taskID, req := task.taskID, task.req
	if err := o.Registry.SetStatus(ctx, taskID, domain.StatusRunning); err != nil {
		o.Logger.Error("orchestrator: set running", "taskId", taskID, "error", err)
		return
	}

	stages := selectStages(req)

	var (
		disc domain.DiscoveryResult
		fr   domain.FetchResult
		sr   domain.SynthesizeResult
	)
	// OriginalInput must stay unique per task even when a task is entered
	// via a direct-artifact restart path rather than topic_or_url, since
	// embed.pointID derives every chunk's Qdrant point id from it — leaving
	// it empty would collide every such task's points onto the same ids.
	switch {
	case req.SynthesizedContentFilePath != "":
		sr = domain.SynthesizeResult{SummaryFilePath: req.SynthesizedContentFilePath, Category: req.Category, OriginalInput: req.SynthesizedContentFilePath}
	case req.FetchOutputDirPath != "":
		fr = domain.FetchResult{FetchOutputDirPath: req.FetchOutputDirPath, Category: req.Category, OriginalInput: req.FetchOutputDirPath}
	case req.DiscoveryOutputFilePath != "":
		disc = domain.DiscoveryResult{SourcesFilePath: req.DiscoveryOutputFilePath, Category: req.Category, OriginalInput: req.DiscoveryOutputFilePath}
	}

	var lastStage domain.Stage
	for _, stage := range stages {
		if o.Registry.IsCancelled(taskID) {
			o.Registry.SetStatus(ctx, taskID, domain.StatusCancelled)
			o.Metrics.Counter("docsingest_tasks_cancelled_total", "total tasks cancelled").Inc()
			return
		}
		if err := o.Registry.SetStage(ctx, taskID, stage); err != nil {
			o.Logger.Error("orchestrator: set stage", "taskId", taskID, "error", err)
			return
		}

		stageStart := time.Now()
		var (
			result domain.StageResult
			err    error
		)
		switch stage {
		case domain.StageDiscovery:
			disc, err = o.runDiscovery(ctx, req, taskID)
			result = disc
		case domain.StageFetch:
			fr, err = o.runFetch(ctx, req, disc, taskID)
			result = fr
		case domain.StageSynthesize:
			sr, err = o.runSynthesize(ctx, req, fr, taskID)
			result = sr
		case domain.StageEmbed:
			_, err = o.runEmbed(ctx, sr, taskID)
			result = sr
		}
		o.Metrics.Histogram(metrics.WithLabels("docsingest_stage_duration_seconds", "stage", string(stage)), "stage duration in seconds", nil).Since(stageStart)
		o.recordGovernorSaturation()

		if err != nil {
			o.finishWithError(ctx, taskID, err)
			return
		}

		if err := o.writeStageDetails(ctx, taskID, stage, result); err != nil {
			o.Logger.Error("orchestrator: write stage details", "taskId", taskID, "error", err)
		}
		lastStage = stage
	}

	if err := o.Registry.SetStatus(ctx, taskID, domain.StatusCompleted); err != nil {
		o.Logger.Error("orchestrator: set completed", "taskId", taskID, "error", err)
		return
	}
	o.Metrics.Counter("docsingest_tasks_completed_total", "total tasks completed").Inc()

	if lastStage == domain.StageEmbed && runsCleanup(req) {
		cleanup.Run(disc, fr, sr, o.Logger)
	}
}

// finishWithError implements spec §4.9 step 4's error branch: cancellation
// observed mid-stage marks cancelled (details untouched); any other error
// is written into details, then the task is marked failed.
func (o *Orchestrator) finishWithError(ctx context.Context, taskID string, err error) {
	if errors.Is(err, domain.ErrCancelled) {
		if setErr := o.Registry.SetStatus(ctx, taskID, domain.StatusCancelled); setErr != nil {
			o.Logger.Error("orchestrator: set cancelled", "taskId", taskID, "error", setErr)
		}
		o.Metrics.Counter("docsingest_tasks_cancelled_total", "total tasks cancelled").Inc()
		return
	}
	if detailErr := o.Registry.UpdateDetails(ctx, taskID, err.Error()); detailErr != nil {
		o.Logger.Error("orchestrator: write error details", "taskId", taskID, "error", detailErr)
	}
	if setErr := o.Registry.SetStatus(ctx, taskID, domain.StatusFailed); setErr != nil {
		o.Logger.Error("orchestrator: set failed", "taskId", taskID, "error", setErr)
	}
	o.Metrics.Counter("docsingest_tasks_failed_total", "total tasks failed").Inc()
}

func (o *Orchestrator) writeStageDetails(ctx context.Context, taskID string, stage domain.Stage, result domain.StageResult) error {
	data, err := json.Marshal(domain.Details{Stage: string(stage), Result: result})
	if err != nil {
		return err
	}
	return o.Registry.UpdateDetails(ctx, taskID, string(data))
}

func (o *Orchestrator) progressFunc(taskID string) func(string) {
	return func(msg string) {
		if err := o.Registry.UpdateDetails(context.Background(), taskID, msg); err != nil {
			o.Logger.Warn("orchestrator: progress update", "taskId", taskID, "error", err)
		}
	}
}

func (o *Orchestrator) runDiscovery(ctx context.Context, req domain.Request, taskID string) (domain.DiscoveryResult, error) {
	opts := pipeline.DefaultRetryOpts
	opts.TaskID = taskID
	opts.Description = "discovery stage"
	result := pipeline.Retry(ctx, o.Registry, opts, func(ctx context.Context) fn.Result[domain.DiscoveryResult] {
		if !o.Governor.BrowserActivity.TryAcquire() {
			return fn.Err[domain.DiscoveryResult](fmt.Errorf("orchestrator: %w: BrowserActivity lock held", errLockBusy))
		}
		defer o.Governor.BrowserActivity.Release()
		r, err := o.Discovery.Run(ctx, req, taskID, o.Registry, o.progressFunc(taskID))
		if err != nil {
			return fn.Err[domain.DiscoveryResult](err)
		}
		return fn.Ok(r)
	})
	return result.Unwrap()
}

func (o *Orchestrator) runFetch(ctx context.Context, req domain.Request, disc domain.DiscoveryResult, taskID string) (domain.FetchResult, error) {
	opts := pipeline.DefaultRetryOpts
	opts.TaskID = taskID
	opts.Description = "fetch stage"
	result := pipeline.Retry(ctx, o.Registry, opts, func(ctx context.Context) fn.Result[domain.FetchResult] {
		if !o.Governor.BrowserActivity.TryAcquire() {
			return fn.Err[domain.FetchResult](fmt.Errorf("orchestrator: %w: BrowserActivity lock held", errLockBusy))
		}
		defer o.Governor.BrowserActivity.Release()
		r, err := o.Fetch.Run(ctx, req, disc, taskID, o.Registry, o.progressFunc(taskID))
		if err != nil {
			return fn.Err[domain.FetchResult](err)
		}
		return fn.Ok(r)
	})
	return result.Unwrap()
}

func (o *Orchestrator) runSynthesize(ctx context.Context, req domain.Request, fr domain.FetchResult, taskID string) (domain.SynthesizeResult, error) {
	opts := pipeline.DefaultRetryOpts
	opts.TaskID = taskID
	opts.Description = "synthesize stage"
	result := pipeline.Retry(ctx, o.Registry, opts, func(ctx context.Context) fn.Result[domain.SynthesizeResult] {
		if !o.Governor.Synthesize.TryAcquire() {
			return fn.Err[domain.SynthesizeResult](fmt.Errorf("orchestrator: %w: Synthesize lock held", errLockBusy))
		}
		defer o.Governor.Synthesize.Release()
		r, err := o.Synthesize.Run(ctx, req, fr, taskID)
		if err != nil {
			return fn.Err[domain.SynthesizeResult](err)
		}
		return fn.Ok(r)
	})
	return result.Unwrap()
}

func (o *Orchestrator) runEmbed(ctx context.Context, sr domain.SynthesizeResult, taskID string) (int, error) {
	opts := pipeline.DefaultRetryOpts
	opts.TaskID = taskID
	opts.Description = "embed stage"
	result := pipeline.Retry(ctx, o.Registry, opts, func(ctx context.Context) fn.Result[int] {
		n, err := o.Embed.Run(ctx, sr, taskID, o.Registry, o.progressFunc(taskID))
		if err != nil {
			return fn.Err[int](err)
		}
		return fn.Ok(n)
	})
	return result.Unwrap()
}

// selectStages implements spec §4.9's stage-selection table plus
// stop_after_stage truncation.
func selectStages(req domain.Request) []domain.Stage {
	var all []domain.Stage
	switch {
	case req.SynthesizedContentFilePath != "":
		all = []domain.Stage{domain.StageEmbed}
	case req.FetchOutputDirPath != "":
		all = []domain.Stage{domain.StageSynthesize, domain.StageEmbed}
	case req.DiscoveryOutputFilePath != "":
		all = []domain.Stage{domain.StageFetch, domain.StageSynthesize, domain.StageEmbed}
	default:
		all = []domain.Stage{domain.StageDiscovery, domain.StageFetch, domain.StageSynthesize, domain.StageEmbed}
	}

	stopStage, ok := stopAfterToStage[req.StopAfterStage]
	if !ok {
		return all
	}
	for i, s := range all {
		if s == stopStage {
			return all[:i+1]
		}
	}
	return all
}

var stopAfterToStage = map[domain.StopAfterStage]domain.Stage{
	domain.StopAfterDiscovery:  domain.StageDiscovery,
	domain.StopAfterFetch:      domain.StageFetch,
	domain.StopAfterSynthesize: domain.StageSynthesize,
}

// runsCleanup reports whether Cleanup should run after a successful Embed:
// only a from-scratch run (topic_or_url, no stop_after_stage) produced all
// three prior artifacts itself, per spec §4.9/§4.8.
func runsCleanup(req domain.Request) bool {
	return req.TopicOrURL != "" && req.StopAfterStage == domain.StopAfterNone
}
