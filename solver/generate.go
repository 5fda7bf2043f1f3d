package solver

import (
	"context"

	"github.com/hupe1980/evalmesh/core"
	"github.com/hupe1980/evalmesh/model"
)

// Generate performs a single model call and records the assistant response
// as the state output.
type Generate struct {
	config core.GenerateConfig
}

// NewGenerate creates a single-turn generation solver.
func NewGenerate(optFns ...func(c *core.GenerateConfig)) *Generate {
	var cfg core.GenerateConfig
	for _, fn := range optFns {
		fn(&cfg)
	}
	return &Generate{config: cfg}
}

// Name implements Solver.
func (g *Generate) Name() string { return "generate" }

// Solve implements Solver.
func (g *Generate) Solve(ctx context.Context, state *core.TaskState, env *Env) error {
	resp, err := env.Model.Generate(ctx, model.Request{
		Input:  state.Messages,
		Config: g.config,
	})
	if err != nil {
		return err
	}
	state.Append(resp.Content)
	state.Output = resp.Text()
	return nil
}
