package solver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/evalmesh/core"
	"github.com/hupe1980/evalmesh/logging"
	"github.com/hupe1980/evalmesh/model"
	"github.com/hupe1980/evalmesh/tool"
)

func testEnv(mock *model.MockModel, tools ...tool.Tool) *Env {
	return &Env{
		Model:    model.NewClient(mock),
		Tools:    tools,
		Registry: tool.NewRegistry(tools...),
		Executor: tool.NewExecutor(),
		Logger:   logging.NoOpLogger{},
	}
}

func echoTool() tool.Tool {
	return tool.NewFunctionTool("echo", "Echo the message back",
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

func TestReActDirectAnswer(t *testing.T) {
	mock := model.NewMockModel("mock")
	mock.ScriptText("The answer is 42")

	state := core.NewTaskState(core.Sample{ID: "1", Input: "question"}, 1, 0)
	err := NewReAct().Solve(context.Background(), state, testEnv(mock))

	require.NoError(t, err)
	assert.Equal(t, "The answer is 42", state.Output)
	assert.Equal(t, 1, mock.Calls())
}

func TestReActToolLoop(t *testing.T) {
	mock := model.NewMockModel("mock")
	mock.ScriptToolCall("call_1", "echo", `{"message":"ping"}`)
	mock.ScriptText("Final answer: ping")

	state := core.NewTaskState(core.Sample{ID: "1", Input: "use the tool"}, 1, 0)
	err := NewReAct().Solve(context.Background(), state, testEnv(mock, echoTool()))

	require.NoError(t, err)
	assert.Equal(t, "Final answer: ping", state.Output)
	assert.Equal(t, 2, mock.Calls())

	// Transcript order: user, assistant tool call, tool result, assistant.
	require.Len(t, state.Messages, 4)
	assert.Equal(t, core.RoleUser, state.Messages[0].Role)
	assert.Equal(t, core.RoleAssistant, state.Messages[1].Role)
	assert.Equal(t, core.RoleTool, state.Messages[2].Role)
	assert.Equal(t, core.RoleAssistant, state.Messages[3].Role)

	require.Len(t, state.ToolEvents, 1)
	assert.Equal(t, "ping", state.ToolEvents[0].Output)
}

func TestReActToolResultOrdering(t *testing.T) {
	mock := model.NewMockModel("mock")
	mock.ScriptToolCall("call_1", "echo", `{"message":"first"}`)
	mock.ScriptText("done")

	state := core.NewTaskState(core.Sample{ID: "1", Input: "go"}, 1, 0)
	require.NoError(t, NewReAct().Solve(context.Background(), state, testEnv(mock, echoTool())))

	calls := state.Messages[1].ToolCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "call_1", state.ToolEvents[0].ID)
}

func TestReActAttemptsExhausted(t *testing.T) {
	mock := model.NewMockModel("mock")
	mock.ScriptText("guess one")
	mock.ScriptText("guess two")
	mock.ScriptText("guess three")

	gradings := 0
	rejectAll := func(ctx context.Context, state *core.TaskState, env *Env) (bool, error) {
		gradings++
		return false, nil
	}

	react := NewReAct(func(o *ReActOptions) {
		o.Attempts = 3
		o.Grader = rejectAll
	})

	state := core.NewTaskState(core.Sample{ID: "1", Input: "hard question"}, 1, 50)
	err := react.Solve(context.Background(), state, testEnv(mock))

	require.NoError(t, err)
	assert.Equal(t, 3, gradings)
	assert.Equal(t, 3, mock.Calls())
	assert.Equal(t, "guess three", state.Output)
}

func TestReActAcceptedAnswerStopsEarly(t *testing.T) {
	mock := model.NewMockModel("mock")
	mock.ScriptText("wrong")
	mock.ScriptText("right")

	react := NewReAct(func(o *ReActOptions) {
		o.Attempts = 5
		o.Grader = func(ctx context.Context, state *core.TaskState, env *Env) (bool, error) {
			return state.Output == "right", nil
		}
	})

	state := core.NewTaskState(core.Sample{ID: "1", Input: "q"}, 1, 0)
	require.NoError(t, react.Solve(context.Background(), state, testEnv(mock)))
	assert.Equal(t, "right", state.Output)
	assert.Equal(t, 2, mock.Calls())

	// Rejection feedback was injected between the attempts.
	var sawRejection bool
	for _, m := range state.Messages {
		if m.Role == core.RoleUser && m.Text() == defaultRejectedMessage {
			sawRejection = true
		}
	}
	assert.True(t, sawRejection)
}

func TestReActStuckNudge(t *testing.T) {
	mock := model.NewMockModel("mock")
	mock.ScriptText("")
	mock.ScriptText("42")

	state := core.NewTaskState(core.Sample{ID: "1", Input: "q"}, 1, 0)
	require.NoError(t, NewReAct().Solve(context.Background(), state, testEnv(mock)))
	assert.Equal(t, "42", state.Output)

	var sawNudge bool
	for _, m := range state.Messages {
		if m.Role == core.RoleUser && m.Text() == defaultContinueMessage {
			sawNudge = true
		}
	}
	assert.True(t, sawNudge)
}

func TestReActMessageLimitTerminates(t *testing.T) {
	mock := model.NewMockModel("mock")
	for i := 0; i < 10; i++ {
		mock.ScriptToolCall("c", "echo", `{"message":"again"}`)
	}

	state := core.NewTaskState(core.Sample{ID: "1", Input: "q"}, 1, 5)
	err := NewReAct().Solve(context.Background(), state, testEnv(mock, echoTool()))

	require.NoError(t, err)
	assert.LessOrEqual(t, len(state.Messages), 6)
	assert.Less(t, mock.Calls(), 10)
}

func TestReActModelErrorConsumesAttempt(t *testing.T) {
	mock := model.NewMockModel("mock")
	mock.ScriptError(core.NewInvalidRequestError("bad payload"))
	mock.ScriptText("recovered")

	react := NewReAct(func(o *ReActOptions) { o.Attempts = 2 })

	state := core.NewTaskState(core.Sample{ID: "1", Input: "q"}, 1, 0)
	require.NoError(t, react.Solve(context.Background(), state, testEnv(mock)))
	assert.Equal(t, "recovered", state.Output)
}

func TestReActModelErrorBudgetSpent(t *testing.T) {
	mock := model.NewMockModel("mock")
	mock.ScriptError(core.NewInvalidRequestError("bad payload"))

	state := core.NewTaskState(core.Sample{ID: "1", Input: "q"}, 1, 0)
	err := NewReAct().Solve(context.Background(), state, testEnv(mock))

	require.Error(t, err)
	assert.Equal(t, core.ErrInvalidRequest, core.CodeOf(err))
}

func TestChainStopsOnError(t *testing.T) {
	mock := model.NewMockModel("mock")
	mock.ScriptError(core.NewInvalidRequestError("broken"))

	chain := NewChain(NewGenerate(), NewGenerate())
	state := core.NewTaskState(core.Sample{ID: "1", Input: "q"}, 1, 0)
	err := chain.Solve(context.Background(), state, testEnv(mock))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "generate")
}
