// Package solver provides the composable transformation steps that turn a
// task state into a final answer. A solver may be as simple as a prompt
// template or as involved as a multi-turn agent loop with tool use.
package solver

import (
	"context"
	"fmt"

	"github.com/hupe1980/evalmesh/core"
	"github.com/hupe1980/evalmesh/logging"
	"github.com/hupe1980/evalmesh/model"
	"github.com/hupe1980/evalmesh/sandbox"
	"github.com/hupe1980/evalmesh/tool"
)

// Env carries the per-sample resources a solver may draw on. It is
// assembled by the runner and handed to each solver in the pipeline.
type Env struct {
	// Model is the default client for generation.
	Model *model.Client

	// Roles maps role names to alternative clients, e.g. a grader model.
	Roles map[string]*model.Client

	// Tools are the tools available to agentic solvers.
	Tools []tool.Tool

	// Registry indexes Tools by name.
	Registry tool.Registry

	// Executor runs tool calls.
	Executor *tool.Executor

	// Sandbox is the lazy sandbox handle for this sample, nil when the
	// task has no sandbox.
	Sandbox *sandbox.Handle

	// Logger receives solver progress events.
	Logger logging.Logger
}

// Role returns the client bound to the named role, falling back to the
// default model.
func (e *Env) Role(name string) *model.Client {
	if c, ok := e.Roles[name]; ok {
		return c
	}
	return e.Model
}

// Solver transforms a task state, typically by calling the model and
// appending to the transcript.
type Solver interface {
	// Name returns the solver identifier.
	Name() string

	// Solve advances the state. A returned error fails the sample.
	Solve(ctx context.Context, state *core.TaskState, env *Env) error
}

// Chain runs solvers in sequence, stopping at the first error.
type Chain struct {
	solvers []Solver
}

// NewChain composes solvers into a pipeline.
func NewChain(solvers ...Solver) *Chain {
	return &Chain{solvers: solvers}
}

// Name implements Solver.
func (c *Chain) Name() string { return "chain" }

// Solve implements Solver.
func (c *Chain) Solve(ctx context.Context, state *core.TaskState, env *Env) error {
	for _, s := range c.solvers {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.Solve(ctx, state, env); err != nil {
			return fmt.Errorf("solver %s: %w", s.Name(), err)
		}
	}
	return nil
}
