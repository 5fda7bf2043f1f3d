package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/hupe1980/evalmesh/core"
	"github.com/hupe1980/evalmesh/logging"
)

// DefaultToolTimeout bounds a single tool call unless overridden.
const DefaultToolTimeout = 180 * time.Second

// ExecutorOptions configure the gateway.
type ExecutorOptions struct {
	// Timeout bounds each tool call; 0 uses DefaultToolTimeout.
	Timeout time.Duration
	// Logger receives tool call telemetry.
	Logger logging.Logger
}

// Executor is the tool execution gateway. It dispatches a requested call to
// its handler with a timeout, recovers panics, and converts every non-fatal
// failure (unknown tool, malformed arguments, timeout, handler error) into a
// typed ToolResult the agent loop feeds back to the model as an observation.
//
// Only sandbox provisioning failures and caller cancellation escape as
// errors; those are fatal to the owning sample.
type Executor struct {
	timeout time.Duration
	logger  logging.Logger
}

// NewExecutor constructs an Executor with optional overrides.
func NewExecutor(optFns ...func(o *ExecutorOptions)) *Executor {
	opts := ExecutorOptions{
		Timeout: DefaultToolTimeout,
		Logger:  logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultToolTimeout
	}
	return &Executor{timeout: opts.Timeout, logger: opts.Logger}
}

// Execute runs one tool call and returns its result.
func (e *Executor) Execute(ctx context.Context, reg Registry, call core.ToolCall) (core.ToolResult, error) {
	start := time.Now()
	res := core.ToolResult{ID: call.ID, Name: call.Name}

	impl, ok := reg[call.Name]
	if !ok {
		res.Code = core.ErrToolNotFound
		res.Error = fmt.Sprintf("tool %q not found", call.Name)
		res.Duration = time.Since(start)
		e.logResult(res)
		return res, nil
	}

	args, err := parseArguments(call.Arguments)
	if err != nil {
		res.Code = core.ErrToolInvalidArgs
		res.Error = "malformed tool arguments: " + err.Error()
		res.Duration = time.Since(start)
		e.logResult(res)
		return res, nil
	}

	output, callErr := e.callWithTimeout(ctx, impl, args)
	res.Output = output
	res.Duration = time.Since(start)

	switch {
	case callErr == nil:
	case errors.Is(callErr, ctx.Err()) && ctx.Err() != nil:
		// Caller cancelled: fatal to the sample, not a tool observation.
		return res, ctx.Err()
	case core.CodeOf(callErr) == core.ErrSandboxUnavailable:
		// Sandbox provisioning failure is fatal to the sample.
		return res, callErr
	case errors.Is(callErr, context.DeadlineExceeded):
		res.Code = core.ErrToolTimeout
		res.Error = fmt.Sprintf("tool %q timed out after %v", call.Name, e.timeout)
	default:
		res.Code = core.ErrToolExecution
		res.Error = callErr.Error()
		var toolErr *ToolError
		if errors.As(callErr, &toolErr) {
			res.Code = toolErr.Code
			res.Error = toolErr.Message
		}
	}

	e.logResult(res)
	return res, nil
}

// ExecuteAll runs the turn's tool calls strictly in requested order and
// returns results in that same order. Ordering is a correctness requirement
// for transcript reproducibility. The first fatal error aborts the batch.
func (e *Executor) ExecuteAll(ctx context.Context, reg Registry, calls []core.ToolCall) ([]core.ToolResult, error) {
	results := make([]core.ToolResult, 0, len(calls))
	for _, call := range calls {
		res, err := e.Execute(ctx, reg, call)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

type callOutcome struct {
	output string
	err    error
}

// callWithTimeout runs the handler in a goroutine so the gateway can abandon
// it at the deadline. The handler also receives the deadline through its
// context and should stop early when it can.
func (e *Executor) callWithTimeout(ctx context.Context, impl Tool, args map[string]any) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	done := make(chan callOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				e.logger.Error("tool handler panic", "tool", impl.Name(), "recover", fmt.Sprintf("%v", r), "stack", string(debug.Stack()))
				done <- callOutcome{err: NewToolError(impl.Name(), fmt.Sprintf("handler panic: %v", r), core.ErrToolExecution)}
			}
		}()
		out, err := impl.Call(callCtx, args)
		done <- callOutcome{output: out, err: err}
	}()

	select {
	case outcome := <-done:
		// A handler may return the deadline error itself; normalize it.
		if outcome.err != nil && callCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			if core.CodeOf(outcome.err) != core.ErrSandboxUnavailable {
				return outcome.output, context.DeadlineExceeded
			}
		}
		return outcome.output, outcome.err
	case <-callCtx.Done():
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", context.DeadlineExceeded
	}
}

func parseArguments(raw string) (map[string]any, error) {
	if raw == "" {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, err
	}
	return args, nil
}

func (e *Executor) logResult(res core.ToolResult) {
	if rl, ok := e.logger.(*logging.RunLogger); ok {
		rl.LogToolCall(res.Name, res.Duration, res.Failed(), res.Error)
		return
	}
	if res.Failed() {
		e.logger.Warn("tool execution failed", "tool", res.Name, "code", string(res.Code), "error", res.Error)
		return
	}
	e.logger.Debug("tool execution completed", "tool", res.Name, "duration_ms", res.Duration.Milliseconds())
}
