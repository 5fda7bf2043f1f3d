package model

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/evalmesh/core"
)

// MockModel is a lightweight in-memory Model useful for tests & examples. It
// serves canned responses per input prompt and, independently, a scripted
// sequence consumed call by call. Safe for concurrent use.
type MockModel struct {
	info      Info
	mu        sync.Mutex
	responses map[string]string
	script    []scriptStep
	cursor    int
	calls     int
}

type scriptStep struct {
	resp *Response
	err  error
}

// NewMockModel constructs a MockModel with tool support enabled.
func NewMockModel(name string) *MockModel {
	return &MockModel{
		info:      Info{Name: name, Provider: "mock", SupportsTools: true},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for an input prompt.
func (m *MockModel) AddResponse(prompt, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[prompt] = response
}

// ScriptText queues a plain text completion.
func (m *MockModel) ScriptText(text string) {
	m.scriptResponse(&Response{
		Content:      core.AssistantContent(text),
		FinishReason: "stop",
	})
}

// ScriptToolCall queues a completion requesting a single tool call.
func (m *MockModel) ScriptToolCall(id, name, args string) {
	m.scriptResponse(&Response{
		Content: core.Content{
			Role:  core.RoleAssistant,
			Parts: []core.Part{core.ToolCallPart{Call: core.ToolCall{ID: id, Name: name, Arguments: args}}},
		},
		FinishReason: "tool_calls",
	})
}

// ScriptError queues an error returned as a provider failure.
func (m *MockModel) ScriptError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, scriptStep{err: err})
}

func (m *MockModel) scriptResponse(resp *Response) {
	m.mu.Lock()
	defer m.mu.Unlock()
	resp.Model = m.info.Name
	resp.Usage = &TokenUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15}
	m.script = append(m.script, scriptStep{resp: resp})
}

// Calls returns how many times Generate has been invoked.
func (m *MockModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Generate implements Model. Scripted steps take priority; otherwise the
// canned prompt map is consulted, falling back to an echo response.
func (m *MockModel) Generate(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.calls++
	if m.cursor < len(m.script) {
		step := m.script[m.cursor]
		m.cursor++
		m.mu.Unlock()
		if step.err != nil {
			return nil, step.err
		}
		resp := *step.resp
		return &resp, nil
	}

	var inputText string
	if len(req.Input) > 0 {
		inputText = req.Input[len(req.Input)-1].Text()
	}
	full, ok := m.responses[inputText]
	m.mu.Unlock()

	if !ok {
		full = fmt.Sprintf("Mock response to: %s", inputText)
	}
	return &Response{
		Model:        m.info.Name,
		Content:      core.AssistantContent(full),
		FinishReason: "stop",
		Usage:        &TokenUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}, nil
}

// Info implements Model.
func (m *MockModel) Info() Info { return m.info }
