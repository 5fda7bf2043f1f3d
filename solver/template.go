package solver

import (
	"context"
	"fmt"

	"github.com/hupe1980/evalmesh/core"
	"github.com/hupe1980/evalmesh/internal/util"
)

// PromptTemplate rewrites the user prompt through a template. The template
// receives the original prompt as {{.Prompt}} plus the sample metadata.
type PromptTemplate struct {
	template string
}

// NewPromptTemplate creates a prompt-rewriting solver.
func NewPromptTemplate(template string) *PromptTemplate {
	return &PromptTemplate{template: template}
}

// Name implements Solver.
func (p *PromptTemplate) Name() string { return "prompt_template" }

// Solve implements Solver.
func (p *PromptTemplate) Solve(_ context.Context, state *core.TaskState, _ *Env) error {
	data := map[string]any{"Prompt": state.UserPrompt()}
	for k, v := range state.Sample.Metadata {
		data[k] = v
	}
	rendered, err := util.RenderTemplate(p.template, data)
	if err != nil {
		return fmt.Errorf("rendering prompt template: %w", err)
	}
	for i := range state.Messages {
		if state.Messages[i].Role == core.RoleUser {
			state.Messages[i] = core.UserContent(rendered)
			return nil
		}
	}
	state.Append(core.UserContent(rendered))
	return nil
}

// SystemPrompt prepends a system message to the transcript. An existing
// system message is replaced.
type SystemPrompt struct {
	template string
}

// NewSystemPrompt creates a system-prompt solver.
func NewSystemPrompt(template string) *SystemPrompt {
	return &SystemPrompt{template: template}
}

// Name implements Solver.
func (p *SystemPrompt) Name() string { return "system_prompt" }

// Solve implements Solver.
func (p *SystemPrompt) Solve(_ context.Context, state *core.TaskState, _ *Env) error {
	data := map[string]any{"Prompt": state.UserPrompt()}
	for k, v := range state.Sample.Metadata {
		data[k] = v
	}
	rendered, err := util.RenderTemplate(p.template, data)
	if err != nil {
		return fmt.Errorf("rendering system prompt: %w", err)
	}
	for i := range state.Messages {
		if state.Messages[i].Role == core.RoleSystem {
			state.Messages[i] = core.SystemContent(rendered)
			return nil
		}
	}
	state.Messages = append([]core.Content{core.SystemContent(rendered)}, state.Messages...)
	return nil
}
