package solver

import (
	"context"
	"fmt"

	"github.com/hupe1980/evalmesh/core"
	"github.com/hupe1980/evalmesh/model"
	"github.com/hupe1980/evalmesh/scorer"
	"github.com/hupe1980/evalmesh/tool"
)

// loopState is a phase of the agent loop.
type loopState int

const (
	stateAwaitingModel loopState = iota
	stateModelResponded
	stateToolExecuting
	stateFinalAnswer
	stateStuck
	stateTerminated
)

const (
	// DefaultAttempts is the number of answer attempts before giving up.
	DefaultAttempts = 1

	defaultContinueMessage = "Please proceed to the next step using your best judgement. " +
		"If you believe you have the final answer, state it now."

	defaultRejectedMessage = "Your answer was incorrect. Review your reasoning and try again."
)

// Grader judges a candidate final answer. Correct terminates the loop;
// incorrect consumes an attempt.
type Grader func(ctx context.Context, state *core.TaskState, env *Env) (bool, error)

// ScorerGrader adapts a scorer into an attempt grader.
func ScorerGrader(s scorer.Scorer) Grader {
	return func(ctx context.Context, state *core.TaskState, env *Env) (bool, error) {
		score, err := s.Score(ctx, state, state.Target())
		if err != nil {
			return false, err
		}
		return score.IsCorrect(), nil
	}
}

// ReActOptions configure the agent loop.
type ReActOptions struct {
	// Attempts is the answer attempt budget.
	Attempts int
	// Grader judges each final answer. Nil accepts the first answer.
	Grader Grader
	// ContinueMessage is injected when the model stalls without a tool
	// call or a final answer.
	ContinueMessage string
	// RejectedMessage is injected when the grader rejects an attempt and
	// the budget allows another.
	RejectedMessage string
	// Config overrides generation settings for loop turns.
	Config core.GenerateConfig
}

// ReAct is an iterative tool-use solver. Each turn either executes the
// requested tool calls, submits a final answer for grading, or nudges a
// stalled model. The loop ends on an accepted answer, an exhausted attempt
// budget, or the transcript message limit.
type ReAct struct {
	opts ReActOptions
}

// NewReAct creates an agent-loop solver.
func NewReAct(optFns ...func(o *ReActOptions)) *ReAct {
	opts := ReActOptions{
		Attempts:        DefaultAttempts,
		ContinueMessage: defaultContinueMessage,
		RejectedMessage: defaultRejectedMessage,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Attempts < 1 {
		opts.Attempts = 1
	}
	return &ReAct{opts: opts}
}

// Name implements Solver.
func (r *ReAct) Name() string { return "react" }

// Solve implements Solver.
func (r *ReAct) Solve(ctx context.Context, state *core.TaskState, env *Env) error {
	loop := &reactLoop{
		opts:  r.opts,
		env:   env,
		state: state,
		defs:  tool.Definitions(env.Tools),
	}
	return loop.run(ctx)
}

type reactLoop struct {
	opts     ReActOptions
	env      *Env
	state    *core.TaskState
	defs     []model.ToolDefinition
	attempts int

	// resp carries the model response between phases of a turn.
	resp *model.Response
}

func (l *reactLoop) run(ctx context.Context) error {
	phase := stateAwaitingModel
	for phase != stateTerminated {
		if err := ctx.Err(); err != nil {
			return err
		}
		var err error
		switch phase {
		case stateAwaitingModel:
			phase, err = l.callModel(ctx)
		case stateModelResponded:
			phase = l.classify()
		case stateToolExecuting:
			phase, err = l.executeTools(ctx)
		case stateFinalAnswer:
			phase, err = l.grade(ctx)
		case stateStuck:
			phase = l.nudge()
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// callModel performs one model turn. A model error after all network-level
// retries counts as a failed answer attempt rather than failing the sample
// outright, unless the budget is already spent.
func (l *reactLoop) callModel(ctx context.Context) (loopState, error) {
	if l.state.LimitReached() {
		return stateTerminated, nil
	}

	resp, err := l.env.Model.Generate(ctx, model.Request{
		Input:  l.state.Messages,
		Tools:  l.defs,
		Config: l.opts.Config,
	})
	if err != nil {
		if ctx.Err() != nil {
			return stateTerminated, ctx.Err()
		}
		l.attempts++
		if l.attempts >= l.opts.Attempts {
			return stateTerminated, fmt.Errorf("model turn: %w", err)
		}
		l.env.Logger.Warn("model turn failed, consuming attempt",
			"error", err, "attempt", l.attempts)
		return stateAwaitingModel, nil
	}

	l.resp = resp
	l.state.Append(resp.Content)
	return stateModelResponded, nil
}

func (l *reactLoop) classify() loopState {
	if len(l.resp.ToolCalls()) > 0 {
		return stateToolExecuting
	}
	if text := l.resp.Text(); text != "" {
		l.state.Output = text
		return stateFinalAnswer
	}
	return stateStuck
}

// executeTools dispatches the turn's tool calls strictly in request order
// and appends each result to the transcript in that same order. Tool
// failures come back as observations; only sandbox loss or cancellation is
// fatal here.
func (l *reactLoop) executeTools(ctx context.Context) (loopState, error) {
	calls := l.resp.ToolCalls()
	results, err := l.env.Executor.ExecuteAll(ctx, l.env.Registry, calls)
	for _, res := range results {
		l.state.RecordToolEvent(res)
		l.state.Append(core.ToolResultContent(res))
	}
	if err != nil {
		return stateTerminated, err
	}
	if l.state.LimitReached() {
		return stateTerminated, nil
	}
	return stateAwaitingModel, nil
}

// grade evaluates the candidate answer. An accepted answer or a spent
// budget terminates the loop; a rejection feeds back and retries.
func (l *reactLoop) grade(ctx context.Context) (loopState, error) {
	l.attempts++
	if l.opts.Grader == nil {
		return stateTerminated, nil
	}

	correct, err := l.opts.Grader(ctx, l.state, l.env)
	if err != nil {
		return stateTerminated, fmt.Errorf("grading attempt %d: %w", l.attempts, err)
	}
	if correct || l.attempts >= l.opts.Attempts {
		return stateTerminated, nil
	}
	if l.state.LimitReached() {
		return stateTerminated, nil
	}
	l.env.Logger.Debug("attempt rejected", "attempt", l.attempts)
	l.state.Append(core.UserContent(l.opts.RejectedMessage))
	return stateAwaitingModel, nil
}

// nudge injects a continue prompt when the model produced neither a tool
// call nor an answer. The nudge is a normal transcript message, so
// persistent stalling runs into the message limit.
func (l *reactLoop) nudge() loopState {
	if l.state.LimitReached() {
		return stateTerminated
	}
	l.state.Append(core.UserContent(l.opts.ContinueMessage))
	return stateAwaitingModel
}
