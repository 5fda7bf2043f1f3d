package scorer

import (
	"context"
	"regexp"
	"strings"

	"github.com/hupe1980/evalmesh/core"
)

// ChoiceMatch scores multiple-choice answers. It looks for an explicit
// "ANSWER: X" declaration in the output and compares the letter against the
// target, falling back to the last standalone letter in range.
type ChoiceMatch struct{}

// NewChoiceMatch creates a multiple-choice scorer.
func NewChoiceMatch() *ChoiceMatch { return &ChoiceMatch{} }

// Name implements Scorer.
func (s *ChoiceMatch) Name() string { return "choice_match" }

var answerPattern = regexp.MustCompile(`(?i)ANSWER\s*:\s*([A-Z])`)

// Score implements Scorer.
func (s *ChoiceMatch) Score(_ context.Context, state *core.TaskState, target string) (Score, error) {
	answer := extractChoice(answerText(state), len(state.Sample.Choices))
	want := strings.ToUpper(strings.TrimSpace(target))
	if answer == "" {
		return Score{Value: Incorrect, Answer: answer, Explanation: "no answer letter found"}, nil
	}
	if answer == want {
		return Score{Value: Correct, Answer: answer}, nil
	}
	return Score{Value: Incorrect, Answer: answer}, nil
}

// extractChoice finds the declared answer letter. The ANSWER: marker takes
// precedence; otherwise the last standalone letter within the choice range
// is used.
func extractChoice(text string, numChoices int) string {
	if m := answerPattern.FindStringSubmatch(text); m != nil {
		return strings.ToUpper(m[1])
	}
	limit := byte('Z')
	if numChoices > 0 && numChoices <= 26 {
		limit = byte('A' + numChoices - 1)
	}
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !('A' <= r && r <= 'Z' || 'a' <= r && r <= 'z')
	})
	for i := len(fields) - 1; i >= 0; i-- {
		f := strings.ToUpper(fields[i])
		if len(f) == 1 && f[0] >= 'A' && f[0] <= limit {
			return f
		}
	}
	return ""
}
