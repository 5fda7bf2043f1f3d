package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentText(t *testing.T) {
	c := Content{
		Role: RoleAssistant,
		Parts: []Part{
			TextPart{Text: "hello"},
			ToolCallPart{Call: ToolCall{ID: "1", Name: "bash", Arguments: `{"cmd":"ls"}`}},
			TextPart{Text: "world"},
		},
	}
	assert.Equal(t, "helloworld", c.Text())
	assert.Len(t, c.ToolCalls(), 1)
	assert.Equal(t, "bash", c.ToolCalls()[0].Name)
}

func TestContentJSONRoundTrip(t *testing.T) {
	in := Content{
		Role: RoleAssistant,
		Parts: []Part{
			TextPart{Text: "let me check"},
			ToolCallPart{Call: ToolCall{ID: "call_1", Name: "python", Arguments: `{"code":"print(1)"}`}},
		},
	}

	data, err := json.Marshal(in)
	require.NoError(t, err)

	var out Content
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in.Role, out.Role)
	require.Len(t, out.Parts, 2)
	assert.Equal(t, "let me check", out.Text())
	require.Len(t, out.ToolCalls(), 1)
	assert.Equal(t, "call_1", out.ToolCalls()[0].ID)
}

func TestToolResultObservation(t *testing.T) {
	ok := ToolResult{ID: "1", Name: "bash", Output: "file.txt"}
	assert.False(t, ok.Failed())
	assert.Equal(t, "file.txt", ok.Observation())

	failed := ToolResult{ID: "2", Name: "bash", Error: "exit status 1", Code: ErrToolExecution}
	assert.True(t, failed.Failed())
	assert.Contains(t, failed.Observation(), "exit status 1")
}

func TestToolResultContent(t *testing.T) {
	res := ToolResult{ID: "1", Name: "bash", Output: "done"}
	c := ToolResultContent(res)
	assert.Equal(t, RoleTool, c.Role)
	require.Len(t, c.Parts, 1)
}
