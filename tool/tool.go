// Package tool implements the tool calling subsystem: the Tool interface with
// schema validated arguments, and the execution gateway that dispatches model
// requested tool calls with timeouts, panic containment and typed,
// observation-level failures.
package tool

import (
	"context"
	"fmt"

	"github.com/hupe1980/evalmesh/core"
	"github.com/hupe1980/evalmesh/model"
)

// Tool defines a capability an agent can invoke during its loop.
//
// Tool implementations should:
//   - Provide clear, descriptive names and descriptions
//   - Define proper JSON schema for parameters
//   - Be safe for sequential use by a single sample worker
type Tool interface {
	// Name returns the unique identifier for this tool (snake_case).
	Name() string

	// Description is provided to the model to guide tool selection.
	Description() string

	// Parameters returns a JSON schema describing the expected arguments.
	Parameters() map[string]any

	// Call executes the tool with validated arguments and returns the
	// observation text.
	Call(ctx context.Context, args map[string]any) (string, error)
}

// ToolError represents errors that occur during tool execution. Carrying a
// core.ErrorCode lets the gateway surface failures as typed observations.
type ToolError struct {
	Tool    string         `json:"tool"`
	Message string         `json:"message"`
	Code    core.ErrorCode `json:"code"`
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
}

// NewToolError creates a ToolError with the specified details.
func NewToolError(tool, message string, code core.ErrorCode) *ToolError {
	return &ToolError{Tool: tool, Message: message, Code: code}
}

// Registry maps tool names to implementations for dispatch.
type Registry map[string]Tool

// NewRegistry builds a registry from the given tools. Later duplicates win.
func NewRegistry(tools ...Tool) Registry {
	reg := make(Registry, len(tools))
	for _, t := range tools {
		reg[t.Name()] = t
	}
	return reg
}

// Definitions converts tools to model tool declarations, preserving slice
// order.
func Definitions(tools []Tool) []model.ToolDefinition {
	defs := make([]model.ToolDefinition, len(tools))
	for i, t := range tools {
		defs[i] = model.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		}
	}
	return defs
}
