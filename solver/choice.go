package solver

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/evalmesh/core"
)

const choiceInstructions = `Answer the following multiple choice question. The last line of your response must be of the form "ANSWER: $LETTER" where $LETTER is one of %s.`

// MultipleChoice formats the sample's choices into the user prompt with the
// answer-letter convention the choice scorer extracts.
type MultipleChoice struct{}

// NewMultipleChoice creates a multiple-choice formatting solver.
func NewMultipleChoice() *MultipleChoice { return &MultipleChoice{} }

// Name implements Solver.
func (m *MultipleChoice) Name() string { return "multiple_choice" }

// Solve implements Solver.
func (m *MultipleChoice) Solve(_ context.Context, state *core.TaskState, _ *Env) error {
	choices := state.Sample.Choices
	if len(choices) == 0 {
		return fmt.Errorf("sample %s has no choices", state.Sample.ID)
	}
	if len(choices) > 26 {
		return fmt.Errorf("sample %s has %d choices, at most 26 supported", state.Sample.ID, len(choices))
	}

	letters := make([]string, len(choices))
	var b strings.Builder
	fmt.Fprintf(&b, choiceInstructions, letterRange(len(choices)))
	b.WriteString("\n\n")
	b.WriteString(state.UserPrompt())
	b.WriteString("\n\n")
	for i, choice := range choices {
		letters[i] = string(rune('A' + i))
		fmt.Fprintf(&b, "%s) %s\n", letters[i], choice)
	}

	prompt := core.UserContent(b.String())
	for i := range state.Messages {
		if state.Messages[i].Role == core.RoleUser {
			state.Messages[i] = prompt
			return nil
		}
	}
	state.Append(prompt)
	return nil
}

func letterRange(n int) string {
	if n <= 1 {
		return "A"
	}
	return fmt.Sprintf("A, B, ..., %c", rune('A'+n-1))
}
