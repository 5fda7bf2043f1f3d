// Package model implements the model invocation layer: the provider
// capability interface, the Client that enforces bounded per-model
// concurrency with retry/backoff and response memoization, and model role
// resolution.
package model

import (
	"context"

	"github.com/hupe1980/evalmesh/core"
)

// ToolDefinition declaratively exposes a callable tool to the model.
// Parameters is a JSON Schema object (draft agnostic, minimal subset expected).
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Request captures the normalized model input produced by solvers.
type Request struct {
	System string              `json:"system,omitempty"` // System prompt
	Input  []core.Content      `json:"input"`            // Transcript converted to provider messages
	Tools  []ToolDefinition    `json:"tools,omitempty"`
	Config core.GenerateConfig `json:"config"`           // Per-call overrides; defaults from the task
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Add accumulates usage from another response.
func (u *TokenUsage) Add(o TokenUsage) {
	u.PromptTokens += o.PromptTokens
	u.CompletionTokens += o.CompletionTokens
	u.TotalTokens += o.TotalTokens
}

// Response is the completed output of one model generation.
type Response struct {
	Model        string       `json:"model"`
	Content      core.Content `json:"content"`
	FinishReason string       `json:"finish_reason"` // "stop", "length", "tool_calls", etc.
	Usage        *TokenUsage  `json:"usage,omitempty"`
}

// Text returns the concatenated text of the response content.
func (r *Response) Text() string { return r.Content.Text() }

// ToolCalls returns the tool calls requested by the response, in order.
func (r *Response) ToolCalls() []core.ToolCall { return r.Content.ToolCalls() }

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "mock", etc.
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the provider capability interface the engine depends on. Concrete
// adapters translate Request/Response to their SDK and classify failures into
// the core error taxonomy.
type Model interface {
	// Generate produces a completion for the request.
	Generate(ctx context.Context, req Request) (*Response, error)

	// Info returns information about the model implementation.
	Info() Info
}
