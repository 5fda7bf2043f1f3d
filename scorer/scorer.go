// Package scorer provides scoring of final task states against targets and
// metric aggregation over a task's scores. Scorers are pure functions of the
// final TaskState and the target; model-graded scoring goes through the model
// invocation layer with a fixed judging template.
package scorer

import (
	"context"

	"github.com/hupe1980/evalmesh/core"
)

// Score values. Partial credit uses values strictly between Incorrect and
// Correct.
const (
	Correct   = 1.0
	Incorrect = 0.0
)

// Score is the outcome of scoring one sample. Produced exactly once per
// completed sample.
type Score struct {
	Value       float64        `json:"value"`
	Answer      string         `json:"answer,omitempty"`      // Extracted answer
	Explanation string         `json:"explanation,omitempty"` // How the value was derived
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// IsCorrect reports whether the score is fully correct.
func (s Score) IsCorrect() bool { return s.Value >= Correct }

// Scorer evaluates a final task state against the sample's target.
type Scorer interface {
	// Name identifies the scorer in reports.
	Name() string

	// Score computes the score for the state. Implementations must not
	// mutate the state.
	Score(ctx context.Context, state *core.TaskState, target string) (Score, error)
}

// answerText returns the candidate answer: the explicit output if set,
// otherwise the last assistant message.
func answerText(state *core.TaskState) string {
	if state.Output != "" {
		return state.Output
	}
	if msg, ok := state.LastAssistant(); ok {
		return msg.Text()
	}
	return ""
}
