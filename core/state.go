package core

// TaskState is the mutable per-sample transcript and scratch data threaded
// through a solver pipeline. Each state is exclusively owned by the worker
// executing its sample: the transcript is append-only with a single writer,
// so no locking is required despite massive sample-level parallelism.
type TaskState struct {
	// Sample is the immutable input unit this state evaluates.
	Sample Sample
	// Epoch is the repetition index when a task runs multiple epochs.
	Epoch int
	// Messages is the ordered transcript. Append-only, single writer.
	Messages []Content
	// Output is the current completion considered the candidate answer.
	Output string
	// MessageLimit bounds the transcript length; 0 means unlimited.
	MessageLimit int
	// ToolEvents records tool results in execution order.
	ToolEvents []ToolResult

	store map[string]any
}

// NewTaskState creates the state for one sample at the start of its pipeline.
// The sample input is loaded as the initial user message.
func NewTaskState(sample Sample, epoch, messageLimit int) *TaskState {
	s := &TaskState{
		Sample:       sample,
		Epoch:        epoch,
		MessageLimit: messageLimit,
		store:        map[string]any{},
	}
	if sample.Input != "" {
		s.Messages = append(s.Messages, UserContent(sample.Input))
	}
	return s
}

// Append adds messages to the transcript in order.
func (s *TaskState) Append(msgs ...Content) {
	s.Messages = append(s.Messages, msgs...)
}

// LimitReached reports whether the transcript has reached the message limit.
func (s *TaskState) LimitReached() bool {
	return s.MessageLimit > 0 && len(s.Messages) >= s.MessageLimit
}

// RecordToolEvent appends a tool result to the per-sample tool record.
func (s *TaskState) RecordToolEvent(res ToolResult) {
	s.ToolEvents = append(s.ToolEvents, res)
}

// UserPrompt returns the text of the first user message, the original prompt.
func (s *TaskState) UserPrompt() string {
	for _, m := range s.Messages {
		if m.Role == RoleUser {
			return m.Text()
		}
	}
	return ""
}

// SystemPrompt returns the text of the first system message, if any.
func (s *TaskState) SystemPrompt() string {
	for _, m := range s.Messages {
		if m.Role == RoleSystem {
			return m.Text()
		}
	}
	return ""
}

// LastAssistant returns the most recent assistant message.
func (s *TaskState) LastAssistant() (Content, bool) {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == RoleAssistant {
			return s.Messages[i], true
		}
	}
	return Content{}, false
}

// Get reads a value from the scratch store.
func (s *TaskState) Get(key string) (any, bool) {
	v, ok := s.store[key]
	return v, ok
}

// Set writes a value to the scratch store.
func (s *TaskState) Set(key string, v any) {
	if s.store == nil {
		s.store = map[string]any{}
	}
	s.store[key] = v
}

// Target returns the sample's expected target.
func (s *TaskState) Target() string { return s.Sample.Target }
