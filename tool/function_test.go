package tool

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/evalmesh/core"
)

type weatherArgs struct {
	City string `json:"city" description:"City name"`
	Days *int   `json:"days" description:"Optional forecast days"`
}

func TestFunctionToolFromStruct(t *testing.T) {
	tl := NewFunctionToolFromStruct("weather", "Look up the weather", weatherArgs{},
		func(ctx context.Context, args map[string]any) (string, error) {
			return "sunny in " + args["city"].(string), nil
		},
	)

	out, err := tl.Call(context.Background(), map[string]any{"city": "Paris"})
	require.NoError(t, err)
	assert.Equal(t, "sunny in Paris", out)

	// Missing required field rejected before dispatch.
	_, err = tl.Call(context.Background(), map[string]any{})
	require.Error(t, err)
	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, core.ErrToolInvalidArgs, toolErr.Code)
}

func TestFunctionToolErrorPassthrough(t *testing.T) {
	custom := NewToolError("probe", "backend offline", core.ErrToolExecution)
	tl := NewFunctionTool("probe", "Probe a backend",
		map[string]any{"type": "object", "properties": map[string]any{}},
		func(ctx context.Context, args map[string]any) (string, error) {
			return "", custom
		},
	)

	_, err := tl.Call(context.Background(), map[string]any{})
	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Same(t, custom, toolErr)
}

func TestFunctionToolWrapsPlainErrors(t *testing.T) {
	tl := NewFunctionTool("flaky", "Fails",
		map[string]any{"type": "object", "properties": map[string]any{}},
		func(ctx context.Context, args map[string]any) (string, error) {
			return "", errors.New("boom")
		},
	)

	_, err := tl.Call(context.Background(), map[string]any{})
	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, core.ErrToolExecution, toolErr.Code)
	assert.Equal(t, "boom", toolErr.Message)
}
