package tool

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/evalmesh/core"
	"github.com/hupe1980/evalmesh/sandbox"
)

func localHandle(t *testing.T, files map[string][]byte) *sandbox.Handle {
	t.Helper()
	h := sandbox.NewHandle(sandbox.NewLocalProvider(t.TempDir()), files)
	t.Cleanup(func() { _ = h.Release(context.Background()) })
	return h
}

func TestBashTool(t *testing.T) {
	h := localHandle(t, map[string][]byte{"data.txt": []byte("alpha\nbeta\ngamma\n")})
	bash := NewBashTool(h)

	out, err := bash.Call(context.Background(), map[string]any{"cmd": "wc -l < data.txt"})
	require.NoError(t, err)
	assert.Contains(t, out, "3")
	assert.True(t, h.Provisioned())
}

func TestBashToolNonZeroExit(t *testing.T) {
	bash := NewBashTool(localHandle(t, nil))

	_, err := bash.Call(context.Background(), map[string]any{"cmd": "echo oops >&2; exit 7"})
	require.Error(t, err)
	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, core.ErrToolExecution, toolErr.Code)
	assert.Contains(t, toolErr.Message, "exit status 7")
	assert.Contains(t, toolErr.Message, "oops")
}

func TestBashToolInvalidArgs(t *testing.T) {
	bash := NewBashTool(localHandle(t, nil))

	_, err := bash.Call(context.Background(), map[string]any{})
	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, core.ErrToolInvalidArgs, toolErr.Code)
}

func TestShellToolGatewayTimeout(t *testing.T) {
	// A long-running command against a short gateway timeout surfaces as a
	// timeout observation, leaving the sample alive.
	e := NewExecutor(func(o *ExecutorOptions) { o.Timeout = 100 * time.Millisecond })
	bash := NewBashTool(localHandle(t, nil))

	res, err := e.Execute(context.Background(), NewRegistry(bash), core.ToolCall{
		ID: "1", Name: "bash", Arguments: `{"cmd":"sleep 5"}`,
	})
	require.NoError(t, err)
	assert.Equal(t, core.ErrToolTimeout, res.Code)
}
