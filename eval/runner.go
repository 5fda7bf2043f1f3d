package eval

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/hupe1980/evalmesh/core"
	"github.com/hupe1980/evalmesh/internal/util"
	"github.com/hupe1980/evalmesh/logging"
	"github.com/hupe1980/evalmesh/model"
	"github.com/hupe1980/evalmesh/sandbox"
	"github.com/hupe1980/evalmesh/scorer"
	"github.com/hupe1980/evalmesh/solver"
	"github.com/hupe1980/evalmesh/tool"
)

const sandboxTeardownTimeout = 30 * time.Second

// runUnit is one schedulable unit of work: a sample at an epoch.
type runUnit struct {
	sample core.Sample
	epoch  int
}

// Run evaluates every sample of the task concurrently and returns the
// aggregated report. Sample-level parallelism is unbounded here; the real
// throughput bound is the model clients' per-model connection limit.
//
// Failures inside one sample are isolated to that sample. The run aborts
// early only when the configured consecutive-failure or failure-rate
// threshold trips, cancelling the remaining in-flight samples. Even then
// one result per started unit is recorded.
func (t *Task) Run(ctx context.Context) (*Report, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}

	samples, err := t.dataset.Samples(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading dataset %s: %w", t.dataset.Name(), err)
	}

	runID := util.NewID()
	logger := t.opts.Logger
	if rl, ok := logger.(*logging.RunLogger); ok {
		logger = rl.WithRun(runID)
	}
	logger.Info("run started",
		"task", t.name, "samples", len(samples), "epochs", t.opts.Epochs, "model", t.opts.Model.Name())

	units := make([]runUnit, 0, len(samples)*t.opts.Epochs)
	for _, s := range samples {
		for epoch := 1; epoch <= t.opts.Epochs; epoch++ {
			units = append(units, runUnit{sample: s, epoch: epoch})
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	tracker := &failureTracker{
		maxConsecutive: t.opts.MaxConsecutiveFailures,
		rate:           t.opts.FailureRateThreshold,
		total:          len(units),
		cancel:         cancel,
		logger:         logger,
	}

	executor := tool.NewExecutor(func(o *tool.ExecutorOptions) {
		if t.opts.ToolTimeout > 0 {
			o.Timeout = t.opts.ToolTimeout
		}
		o.Logger = logger
	})

	started := time.Now()
	results := make([]SampleResult, len(units))

	var wg sync.WaitGroup
	for i, unit := range units {
		wg.Add(1)
		go func(i int, unit runUnit) {
			defer wg.Done()
			results[i] = t.runSample(runCtx, unit, executor, logger)
			tracker.observe(runCtx, results[i].Failed())
		}(i, unit)
	}
	wg.Wait()

	// Reporting order is by sample identifier, never by completion order.
	slices.SortStableFunc(results, func(a, b SampleResult) int {
		if c := cmp.Compare(a.SampleID, b.SampleID); c != 0 {
			return c
		}
		return cmp.Compare(a.Epoch, b.Epoch)
	})

	report := &Report{
		RunID:     runID,
		Task:      t.name,
		Model:     t.opts.Model.Name(),
		Results:   results,
		Started:   started,
		Completed: time.Now(),
		Aborted:   tracker.tripped() || ctx.Err() != nil,
		Usage:     t.usage(),
	}
	report.Metrics = scorer.ComputeAll(t.opts.Metrics, report.Scores())

	for _, res := range results {
		if err := t.opts.Recorder.RecordSample(res); err != nil {
			logger.Error("recording sample", "sample", res.SampleID, "error", err.Error())
		}
	}
	if err := t.opts.Recorder.RecordSummary(report); err != nil {
		logger.Error("recording summary", "error", err.Error())
	}

	logger.Info("run completed",
		"task", t.name, "samples", len(results), "failures", len(report.Errors()), "aborted", report.Aborted)

	if tracker.tripped() {
		return report, core.NewError(core.ErrRunAborted,
			fmt.Sprintf("run %s aborted: failure threshold exceeded", runID))
	}
	return report, ctx.Err()
}

// runSample executes one unit end to end: sandbox handle, solver pipeline,
// scorer. It never lets a failure escape; panics and errors become the
// unit's recorded error. Exactly one of Score and Err is set on return.
func (t *Task) runSample(ctx context.Context, unit runUnit, executor *tool.Executor, logger logging.Logger) (res SampleResult) {
	start := time.Now()
	state := core.NewTaskState(unit.sample, unit.epoch, t.opts.MessageLimit)
	res = SampleResult{SampleID: unit.sample.ID, Epoch: unit.epoch, State: state}

	defer func() {
		if r := recover(); r != nil {
			res.Score = nil
			res.Err = core.NewError(core.ErrSampleFailed, fmt.Sprintf("sample panicked: %v", r))
		}
		res.Duration = time.Since(start)
		t.logSample(logger, res)
	}()

	env := &solver.Env{
		Model:    t.opts.Model,
		Roles:    t.opts.Roles,
		Tools:    t.opts.Tools,
		Executor: executor,
		Logger:   logger,
	}
	if rl, ok := logger.(*logging.RunLogger); ok {
		env.Logger = rl.WithSample(unit.sample.ID, unit.epoch)
	}

	if t.opts.Sandbox != nil {
		handle := sandbox.NewHandle(t.opts.Sandbox, unit.sample.Files)
		defer func() {
			teardownCtx, cancelTeardown := context.WithTimeout(context.WithoutCancel(ctx), sandboxTeardownTimeout)
			defer cancelTeardown()
			handle.Release(teardownCtx)
		}()
		env.Sandbox = handle
		if t.opts.SandboxTools != nil {
			env.Tools = append(append([]tool.Tool{}, env.Tools...), t.opts.SandboxTools(handle)...)
		}
	}
	env.Registry = tool.NewRegistry(env.Tools...)

	if err := t.solver.Solve(ctx, state, env); err != nil {
		res.Err = classifySampleError(ctx, err)
		return res
	}

	score, err := t.scorer.Score(ctx, state, state.Target())
	if err != nil {
		res.Err = classifySampleError(ctx, fmt.Errorf("scoring: %w", err))
		return res
	}
	res.Score = &score
	return res
}

// classifySampleError keeps typed evaluation errors intact and wraps
// everything else as a sample failure. Run-level cancellation is recorded
// as an abort.
func classifySampleError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return core.WrapError(core.ErrRunAborted, "sample cancelled", err)
	}
	if code := core.CodeOf(err); code != core.ErrSampleFailed {
		return err
	}
	return core.WrapError(core.ErrSampleFailed, "sample pipeline failed", err)
}

func (t *Task) logSample(logger logging.Logger, res SampleResult) {
	if rl, ok := logger.(*logging.RunLogger); ok {
		rl.LogSample(res.SampleID, res.Epoch, res.Duration, res.Err)
		return
	}
	if res.Err != nil {
		logger.Warn("sample failed", "sample", res.SampleID, "epoch", res.Epoch, "error", res.Err.Error())
		return
	}
	logger.Debug("sample completed", "sample", res.SampleID, "epoch", res.Epoch)
}

// usage sums provider token usage across the default client and every
// distinct role client.
func (t *Task) usage() model.TokenUsage {
	total := t.opts.Model.Usage()
	seen := map[*model.Client]bool{t.opts.Model: true}
	for _, c := range t.opts.Roles {
		if c == nil || seen[c] {
			continue
		}
		seen[c] = true
		total.Add(c.Usage())
	}
	return total
}

// failureTracker watches completion outcomes and trips the run-level abort
// when failures cluster. Observations after cancellation are ignored so
// cascading cancellation errors do not re-trip the thresholds.
type failureTracker struct {
	maxConsecutive int
	rate           float64
	total          int
	cancel         context.CancelFunc
	logger         logging.Logger

	mu          sync.Mutex
	consecutive int
	failed      int
	aborted     bool
}

func (f *failureTracker) observe(ctx context.Context, failed bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.aborted || ctx.Err() != nil {
		return
	}
	if !failed {
		f.consecutive = 0
		return
	}
	f.failed++
	f.consecutive++

	trip := f.maxConsecutive > 0 && f.consecutive >= f.maxConsecutive
	if !trip && f.rate > 0 && float64(f.failed) > f.rate*float64(f.total) {
		trip = true
	}
	if trip {
		f.aborted = true
		f.logger.Error("failure threshold exceeded, aborting run",
			"consecutive", f.consecutive, "failed", f.failed)
		f.cancel()
	}
}

func (f *failureTracker) tripped() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.aborted
}
