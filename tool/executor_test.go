package tool

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/evalmesh/core"
)

func echoTool() *FunctionTool {
	return NewFunctionTool("echo", "Echo the message back",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"message": map[string]any{"type": "string"},
			},
			"required": []string{"message"},
		},
		func(ctx context.Context, args map[string]any) (string, error) {
			return args["message"].(string), nil
		},
	)
}

func sleepTool(d time.Duration) *FunctionTool {
	return NewFunctionTool("sleep", "Sleep for a while",
		map[string]any{"type": "object", "properties": map[string]any{}},
		func(ctx context.Context, args map[string]any) (string, error) {
			select {
			case <-time.After(d):
				return "done", nil
			case <-ctx.Done():
				return "", ctx.Err()
			}
		},
	)
}

func TestExecuteSuccess(t *testing.T) {
	e := NewExecutor()
	reg := NewRegistry(echoTool())

	res, err := e.Execute(context.Background(), reg, core.ToolCall{
		ID: "1", Name: "echo", Arguments: `{"message":"hello"}`,
	})
	require.NoError(t, err)
	assert.False(t, res.Failed())
	assert.Equal(t, "hello", res.Output)
	assert.Equal(t, "1", res.ID)
}

func TestExecuteUnknownTool(t *testing.T) {
	e := NewExecutor()

	res, err := e.Execute(context.Background(), NewRegistry(), core.ToolCall{
		ID: "1", Name: "missing", Arguments: `{}`,
	})
	require.NoError(t, err)
	assert.True(t, res.Failed())
	assert.Equal(t, core.ErrToolNotFound, res.Code)
}

func TestExecuteMalformedArguments(t *testing.T) {
	e := NewExecutor()
	reg := NewRegistry(echoTool())

	res, err := e.Execute(context.Background(), reg, core.ToolCall{
		ID: "1", Name: "echo", Arguments: `{not json`,
	})
	require.NoError(t, err)
	assert.Equal(t, core.ErrToolInvalidArgs, res.Code)
}

func TestExecuteValidationFailure(t *testing.T) {
	e := NewExecutor()
	reg := NewRegistry(echoTool())

	res, err := e.Execute(context.Background(), reg, core.ToolCall{
		ID: "1", Name: "echo", Arguments: `{}`,
	})
	require.NoError(t, err)
	assert.True(t, res.Failed())
	assert.Equal(t, core.ErrToolInvalidArgs, res.Code)
}

func TestExecuteTimeoutIsObservation(t *testing.T) {
	e := NewExecutor(func(o *ExecutorOptions) { o.Timeout = 50 * time.Millisecond })
	reg := NewRegistry(sleepTool(5 * time.Second))

	res, err := e.Execute(context.Background(), reg, core.ToolCall{ID: "1", Name: "sleep"})
	require.NoError(t, err)
	assert.True(t, res.Failed())
	assert.Equal(t, core.ErrToolTimeout, res.Code)
	assert.Contains(t, res.Error, "timed out")
}

func TestExecuteHandlerErrorIsObservation(t *testing.T) {
	failing := NewFunctionTool("fail", "Always fails",
		map[string]any{"type": "object", "properties": map[string]any{}},
		func(ctx context.Context, args map[string]any) (string, error) {
			return "", errors.New("disk full")
		},
	)
	e := NewExecutor()

	res, err := e.Execute(context.Background(), NewRegistry(failing), core.ToolCall{ID: "1", Name: "fail"})
	require.NoError(t, err)
	assert.Equal(t, core.ErrToolExecution, res.Code)
	assert.Contains(t, res.Error, "disk full")
}

func TestExecutePanicIsObservation(t *testing.T) {
	panicking := NewFunctionTool("boom", "Panics",
		map[string]any{"type": "object", "properties": map[string]any{}},
		func(ctx context.Context, args map[string]any) (string, error) {
			panic("unexpected nil")
		},
	)
	e := NewExecutor()

	res, err := e.Execute(context.Background(), NewRegistry(panicking), core.ToolCall{ID: "1", Name: "boom"})
	require.NoError(t, err)
	assert.True(t, res.Failed())
	assert.Contains(t, res.Error, "handler panic")
}

func TestExecuteSandboxFailureIsFatal(t *testing.T) {
	broken := NewFunctionTool("bash", "Sandboxed shell",
		map[string]any{"type": "object", "properties": map[string]any{}},
		func(ctx context.Context, args map[string]any) (string, error) {
			return "", core.NewSandboxError("provisioning docker sandbox", errors.New("daemon unreachable"))
		},
	)
	e := NewExecutor()

	_, err := e.Execute(context.Background(), NewRegistry(broken), core.ToolCall{ID: "1", Name: "bash"})
	require.Error(t, err)
	assert.Equal(t, core.ErrSandboxUnavailable, core.CodeOf(err))
}

func TestExecuteCallerCancelIsFatal(t *testing.T) {
	e := NewExecutor()
	reg := NewRegistry(sleepTool(5 * time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := e.Execute(ctx, reg, core.ToolCall{ID: "1", Name: "sleep"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExecuteAllOrderAndAbort(t *testing.T) {
	order := NewFunctionTool("order", "Returns its index",
		map[string]any{
			"type":       "object",
			"properties": map[string]any{"i": map[string]any{"type": "number"}},
			"required":   []string{"i"},
		},
		func(ctx context.Context, args map[string]any) (string, error) {
			return fmt.Sprintf("%v", args["i"]), nil
		},
	)
	e := NewExecutor()
	reg := NewRegistry(order)

	calls := []core.ToolCall{
		{ID: "a", Name: "order", Arguments: `{"i":1}`},
		{ID: "b", Name: "order", Arguments: `{"i":2}`},
		{ID: "c", Name: "order", Arguments: `{"i":3}`},
	}
	results, err := e.ExecuteAll(context.Background(), reg, calls)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{results[0].ID, results[1].ID, results[2].ID})
	assert.Equal(t, "1", results[0].Output)
	assert.Equal(t, "3", results[2].Output)
}
