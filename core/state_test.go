package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTaskState(t *testing.T) {
	sample := Sample{ID: "1", Input: "What is 2+2?", Target: "4"}
	state := NewTaskState(sample, 1, 10)

	require.Len(t, state.Messages, 1)
	assert.Equal(t, RoleUser, state.Messages[0].Role)
	assert.Equal(t, "What is 2+2?", state.UserPrompt())
	assert.Equal(t, "4", state.Target())
	assert.False(t, state.LimitReached())
}

func TestTaskStateLimitReached(t *testing.T) {
	state := NewTaskState(Sample{ID: "1", Input: "q"}, 1, 3)
	assert.False(t, state.LimitReached())

	state.Append(AssistantContent("a"), UserContent("continue"))
	assert.True(t, state.LimitReached())

	// Zero limit means unlimited.
	unlimited := NewTaskState(Sample{ID: "2", Input: "q"}, 1, 0)
	for i := 0; i < 100; i++ {
		unlimited.Append(AssistantContent("a"))
	}
	assert.False(t, unlimited.LimitReached())
}

func TestTaskStateLastAssistant(t *testing.T) {
	state := NewTaskState(Sample{ID: "1", Input: "q"}, 1, 0)

	_, ok := state.LastAssistant()
	assert.False(t, ok)

	state.Append(AssistantContent("first"), UserContent("more"), AssistantContent("second"))
	last, ok := state.LastAssistant()
	require.True(t, ok)
	assert.Equal(t, "second", last.Text())
}

func TestTaskStateStore(t *testing.T) {
	state := NewTaskState(Sample{ID: "1"}, 1, 0)

	_, ok := state.Get("missing")
	assert.False(t, ok)

	state.Set("attempts", 2)
	v, ok := state.Get("attempts")
	require.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestTaskStateToolEvents(t *testing.T) {
	state := NewTaskState(Sample{ID: "1", Input: "q"}, 1, 0)
	state.RecordToolEvent(ToolResult{ID: "a", Name: "bash", Output: "1"})
	state.RecordToolEvent(ToolResult{ID: "b", Name: "bash", Output: "2"})

	require.Len(t, state.ToolEvents, 2)
	assert.Equal(t, "a", state.ToolEvents[0].ID)
	assert.Equal(t, "b", state.ToolEvents[1].ID)
}
