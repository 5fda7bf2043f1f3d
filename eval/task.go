// Package eval schedules evaluation runs: it fans a task's samples out to
// concurrent workers, isolates per-sample failures, records one result per
// started unit and aggregates metrics over the completed scores.
package eval

import (
	"fmt"
	"time"

	"github.com/hupe1980/evalmesh/core"
	"github.com/hupe1980/evalmesh/logging"
	"github.com/hupe1980/evalmesh/model"
	"github.com/hupe1980/evalmesh/sandbox"
	"github.com/hupe1980/evalmesh/scorer"
	"github.com/hupe1980/evalmesh/solver"
	"github.com/hupe1980/evalmesh/tool"
)

const (
	// DefaultEpochs is the number of passes over the dataset.
	DefaultEpochs = 1
	// DefaultMessageLimit bounds agent transcripts.
	DefaultMessageLimit = 50
)

// TaskOptions configure a task beyond its dataset, solver and scorer.
type TaskOptions struct {
	// Model is the default model client. Required at run time.
	Model *model.Client
	// Roles binds role names to alternative clients.
	Roles map[string]*model.Client
	// Sandbox provisions per-sample execution environments; nil when the
	// task uses no sandboxed tools.
	Sandbox sandbox.Provider
	// Tools are available to agentic solvers.
	Tools []tool.Tool
	// SandboxTools builds the tools bound to a sample's sandbox handle.
	// Called once per sample unit when Sandbox is set.
	SandboxTools func(h *sandbox.Handle) []tool.Tool
	// Metrics aggregate completed scores; defaults to accuracy and
	// standard error.
	Metrics []scorer.Metric
	// Epochs is the number of passes over the dataset.
	Epochs int
	// MessageLimit bounds per-sample transcripts; 0 means unlimited.
	MessageLimit int
	// MaxConsecutiveFailures aborts the run when this many samples fail
	// in a row; 0 disables the threshold.
	MaxConsecutiveFailures int
	// FailureRateThreshold aborts the run when the failed fraction of
	// finished units exceeds it; 0 disables the threshold.
	FailureRateThreshold float64
	// Generate supplies generation defaults for the run.
	Generate core.GenerateConfig
	// Recorder persists run output; defaults to in-memory.
	Recorder Recorder
	// Logger receives run telemetry.
	Logger logging.Logger
	// ToolTimeout overrides the tool execution timeout; 0 keeps the
	// executor default.
	ToolTimeout time.Duration
}

// Task is an immutable evaluation descriptor: a dataset, a solver pipeline,
// a scorer, and run configuration. Build it once and run it.
type Task struct {
	name    string
	dataset core.Dataset
	solver  solver.Solver
	scorer  scorer.Scorer
	opts    TaskOptions
}

// NewTask binds a dataset, solver and scorer into a runnable task.
func NewTask(name string, dataset core.Dataset, sv solver.Solver, sc scorer.Scorer, optFns ...func(o *TaskOptions)) *Task {
	opts := TaskOptions{
		Epochs:       DefaultEpochs,
		MessageLimit: DefaultMessageLimit,
		Metrics:      []scorer.Metric{scorer.Accuracy{}, scorer.StdErr{}},
		Logger:       logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Epochs < 1 {
		opts.Epochs = 1
	}
	if opts.Recorder == nil {
		opts.Recorder = NewMemoryRecorder()
	}
	return &Task{
		name:    name,
		dataset: dataset,
		solver:  sv,
		scorer:  sc,
		opts:    opts,
	}
}

// Name returns the task name.
func (t *Task) Name() string { return t.name }

// WithModel sets the default model client.
func WithModel(c *model.Client) func(o *TaskOptions) {
	return func(o *TaskOptions) { o.Model = c }
}

// WithRole binds a named role to a client.
func WithRole(name string, c *model.Client) func(o *TaskOptions) {
	return func(o *TaskOptions) {
		if o.Roles == nil {
			o.Roles = map[string]*model.Client{}
		}
		o.Roles[name] = c
	}
}

// WithSandbox sets the sandbox provider.
func WithSandbox(p sandbox.Provider) func(o *TaskOptions) {
	return func(o *TaskOptions) { o.Sandbox = p }
}

// WithTools sets the tools available to agentic solvers.
func WithTools(tools ...tool.Tool) func(o *TaskOptions) {
	return func(o *TaskOptions) { o.Tools = tools }
}

// WithSandboxTools sets a factory for tools that run inside a sample's
// sandbox, e.g. bash and python.
func WithSandboxTools(fn func(h *sandbox.Handle) []tool.Tool) func(o *TaskOptions) {
	return func(o *TaskOptions) { o.SandboxTools = fn }
}

// WithMetrics replaces the default metrics.
func WithMetrics(metrics ...scorer.Metric) func(o *TaskOptions) {
	return func(o *TaskOptions) { o.Metrics = metrics }
}

// WithEpochs sets the number of dataset passes.
func WithEpochs(n int) func(o *TaskOptions) {
	return func(o *TaskOptions) { o.Epochs = n }
}

// WithMessageLimit bounds per-sample transcripts.
func WithMessageLimit(n int) func(o *TaskOptions) {
	return func(o *TaskOptions) { o.MessageLimit = n }
}

// WithMaxConsecutiveFailures sets the consecutive-failure abort threshold.
func WithMaxConsecutiveFailures(n int) func(o *TaskOptions) {
	return func(o *TaskOptions) { o.MaxConsecutiveFailures = n }
}

// WithFailureRateThreshold sets the failure-rate abort threshold.
func WithFailureRateThreshold(rate float64) func(o *TaskOptions) {
	return func(o *TaskOptions) { o.FailureRateThreshold = rate }
}

// WithGenerateConfig sets run-level generation defaults.
func WithGenerateConfig(cfg core.GenerateConfig) func(o *TaskOptions) {
	return func(o *TaskOptions) { o.Generate = cfg }
}

// WithRecorder sets the run output recorder.
func WithRecorder(r Recorder) func(o *TaskOptions) {
	return func(o *TaskOptions) { o.Recorder = r }
}

// WithLogger sets the run logger.
func WithLogger(l logging.Logger) func(o *TaskOptions) {
	return func(o *TaskOptions) { o.Logger = l }
}

// WithToolTimeout overrides the per-call tool execution timeout.
func WithToolTimeout(d time.Duration) func(o *TaskOptions) {
	return func(o *TaskOptions) { o.ToolTimeout = d }
}

func (t *Task) validate() error {
	if t.dataset == nil {
		return fmt.Errorf("task %s: dataset is required", t.name)
	}
	if t.solver == nil {
		return fmt.Errorf("task %s: solver is required", t.name)
	}
	if t.scorer == nil {
		return fmt.Errorf("task %s: scorer is required", t.name)
	}
	if t.opts.Model == nil {
		return fmt.Errorf("task %s: model client is required", t.name)
	}
	return nil
}
