package tool

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/evalmesh/core"
	"github.com/hupe1980/evalmesh/sandbox"
)

// ShellOptions configure the sandbox-backed shell tools.
type ShellOptions struct {
	// Timeout bounds one command inside the sandbox; 0 inherits the
	// gateway timeout via ctx.
	Timeout time.Duration
}

// BashTool runs bash commands inside the sample's sandbox. The sandbox is
// provisioned lazily on the first call through the shared Handle.
type BashTool struct {
	handle  *sandbox.Handle
	timeout time.Duration
}

// NewBashTool creates a bash tool bound to the sample's sandbox handle.
func NewBashTool(handle *sandbox.Handle, optFns ...func(o *ShellOptions)) *BashTool {
	opts := ShellOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &BashTool{handle: handle, timeout: opts.Timeout}
}

// Name implements Tool.
func (t *BashTool) Name() string { return "bash" }

// Description implements Tool.
func (t *BashTool) Description() string {
	return "Run a bash command in the sandbox and return its output."
}

// Parameters implements Tool.
func (t *BashTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"cmd": map[string]any{"type": "string", "description": "The bash command to run"},
		},
		"required": []string{"cmd"},
	}
}

// Call implements Tool.
func (t *BashTool) Call(ctx context.Context, args map[string]any) (string, error) {
	cmd, ok := args["cmd"].(string)
	if !ok || cmd == "" {
		return "", NewToolError(t.Name(), "cmd must be a non-empty string", core.ErrToolInvalidArgs)
	}
	return runInSandbox(ctx, t.handle, t.Name(), []string{"bash", "-c", cmd}, t.timeout)
}

// PythonTool runs python snippets inside the sample's sandbox.
type PythonTool struct {
	handle  *sandbox.Handle
	timeout time.Duration
}

// NewPythonTool creates a python tool bound to the sample's sandbox handle.
func NewPythonTool(handle *sandbox.Handle, optFns ...func(o *ShellOptions)) *PythonTool {
	opts := ShellOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &PythonTool{handle: handle, timeout: opts.Timeout}
}

// Name implements Tool.
func (t *PythonTool) Name() string { return "python" }

// Description implements Tool.
func (t *PythonTool) Description() string {
	return "Execute python code in the sandbox and return its output."
}

// Parameters implements Tool.
func (t *PythonTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"code": map[string]any{"type": "string", "description": "The python code to execute"},
		},
		"required": []string{"code"},
	}
}

// Call implements Tool.
func (t *PythonTool) Call(ctx context.Context, args map[string]any) (string, error) {
	code, ok := args["code"].(string)
	if !ok || code == "" {
		return "", NewToolError(t.Name(), "code must be a non-empty string", core.ErrToolInvalidArgs)
	}
	return runInSandbox(ctx, t.handle, t.Name(), []string{"python3", "-c", code}, t.timeout)
}

// runInSandbox executes cmd in the lazily provisioned environment. Non-zero
// exits become ToolErrors carrying the captured output so the model sees the
// failure as an observation; provisioning failures propagate untouched and
// stay fatal to the sample.
func runInSandbox(ctx context.Context, handle *sandbox.Handle, toolName string, cmd []string, timeout time.Duration) (string, error) {
	env, err := handle.Env(ctx)
	if err != nil {
		return "", err
	}

	res, err := env.Exec(ctx, cmd, timeout)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", NewToolError(toolName, err.Error(), core.ErrToolExecution)
	}
	if res.ExitCode != 0 {
		msg := fmt.Sprintf("exit status %d", res.ExitCode)
		if out := res.Combined(); out != "" {
			msg = fmt.Sprintf("exit status %d: %s", res.ExitCode, out)
		}
		return res.Combined(), NewToolError(toolName, msg, core.ErrToolExecution)
	}
	return res.Combined(), nil
}
