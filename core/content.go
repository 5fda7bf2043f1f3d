package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Conversation roles used in transcripts.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Part represents a polymorphic segment of role-based content. Concrete part
// types implement the unexported isPart marker enabling a closed set.
type Part interface{ isPart() }

// TextPart is a plain text content segment.
type TextPart struct {
	Text string `json:"text"`
}

func (TextPart) isPart() {}

// ToolCall describes a tool invocation requested by the model.
type ToolCall struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name"`
	Arguments string `json:"arguments,omitempty"` // Serialized JSON argument payload
}

// ToolCallPart wraps a ToolCall as a content part.
type ToolCallPart struct {
	Call ToolCall `json:"call"`
}

func (ToolCallPart) isPart() {}

// ToolResult is the outcome of one tool call. It is appended to the transcript
// in call order; Error and Code are populated when the call failed.
type ToolResult struct {
	ID       string        `json:"id,omitempty"`   // Matches originating ToolCall ID
	Name     string        `json:"name"`           // Tool name
	Output   string        `json:"output"`         // Captured output (may be partial on timeout)
	Error    string        `json:"error,omitempty"`
	Code     ErrorCode     `json:"code,omitempty"`
	ExitCode int           `json:"exit_code,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
}

// Failed reports whether the tool call produced an error observation.
func (r ToolResult) Failed() bool { return r.Error != "" || r.Code != "" }

// Observation renders the result as text suitable for feeding back to a model.
func (r ToolResult) Observation() string {
	if r.Error != "" {
		if r.Output != "" {
			return fmt.Sprintf("%s\nerror: %s", r.Output, r.Error)
		}
		return "error: " + r.Error
	}
	return r.Output
}

// ToolResultPart wraps a ToolResult as a content part.
type ToolResultPart struct {
	Result ToolResult `json:"result"`
}

func (ToolResultPart) isPart() {}

// Content holds role + ordered parts. Transcripts are ordered sequences of
// Content appended by a single writer.
type Content struct {
	Role  string
	Parts []Part
}

// Text concatenates all text parts of the content.
func (c Content) Text() string {
	var b strings.Builder
	for _, p := range c.Parts {
		if tp, ok := p.(TextPart); ok {
			b.WriteString(tp.Text)
		}
	}
	return b.String()
}

// ToolCalls returns all tool calls requested in the content, in order.
func (c Content) ToolCalls() []ToolCall {
	var calls []ToolCall
	for _, p := range c.Parts {
		if tc, ok := p.(ToolCallPart); ok {
			calls = append(calls, tc.Call)
		}
	}
	return calls
}

// SystemContent builds a system message.
func SystemContent(text string) Content {
	return Content{Role: RoleSystem, Parts: []Part{TextPart{Text: text}}}
}

// UserContent builds a user message.
func UserContent(text string) Content {
	return Content{Role: RoleUser, Parts: []Part{TextPart{Text: text}}}
}

// AssistantContent builds an assistant message.
func AssistantContent(text string) Content {
	return Content{Role: RoleAssistant, Parts: []Part{TextPart{Text: text}}}
}

// ToolResultContent wraps a tool result as a tool-role message.
func ToolResultContent(res ToolResult) Content {
	return Content{Role: RoleTool, Parts: []Part{ToolResultPart{Result: res}}}
}

// taggedPart is the wire representation of a Part: a tagged variant over the
// closed part set so transcripts round-trip through JSON log records.
type taggedPart struct {
	Type   string          `json:"type"`
	Text   string          `json:"text,omitempty"`
	Call   *ToolCall       `json:"call,omitempty"`
	Result *ToolResult     `json:"result,omitempty"`
	Raw    json.RawMessage `json:"-"`
}

// MarshalJSON implements json.Marshaler using tagged part variants.
func (c Content) MarshalJSON() ([]byte, error) {
	out := struct {
		Role  string       `json:"role"`
		Parts []taggedPart `json:"parts"`
	}{Role: c.Role}
	for _, p := range c.Parts {
		switch v := p.(type) {
		case TextPart:
			out.Parts = append(out.Parts, taggedPart{Type: "text", Text: v.Text})
		case ToolCallPart:
			call := v.Call
			out.Parts = append(out.Parts, taggedPart{Type: "tool_call", Call: &call})
		case ToolResultPart:
			res := v.Result
			out.Parts = append(out.Parts, taggedPart{Type: "tool_result", Result: &res})
		default:
			return nil, fmt.Errorf("unknown content part type %T", p)
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler for the tagged representation.
func (c *Content) UnmarshalJSON(data []byte) error {
	var in struct {
		Role  string       `json:"role"`
		Parts []taggedPart `json:"parts"`
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	c.Role = in.Role
	c.Parts = nil
	for _, p := range in.Parts {
		switch p.Type {
		case "text":
			c.Parts = append(c.Parts, TextPart{Text: p.Text})
		case "tool_call":
			if p.Call == nil {
				return fmt.Errorf("tool_call part missing call payload")
			}
			c.Parts = append(c.Parts, ToolCallPart{Call: *p.Call})
		case "tool_result":
			if p.Result == nil {
				return fmt.Errorf("tool_result part missing result payload")
			}
			c.Parts = append(c.Parts, ToolResultPart{Result: *p.Result})
		default:
			return fmt.Errorf("unknown content part type %q", p.Type)
		}
	}
	return nil
}
