package scorer

import (
	"context"
	"strings"

	"github.com/hupe1980/evalmesh/core"
)

// MatchOptions configure the string match scorers.
type MatchOptions struct {
	// IgnoreCase compares case-insensitively.
	IgnoreCase bool
}

// ExactMatch scores Correct when the trimmed output equals the target.
type ExactMatch struct {
	opts MatchOptions
}

// NewExactMatch creates an exact string match scorer.
func NewExactMatch(optFns ...func(o *MatchOptions)) *ExactMatch {
	opts := MatchOptions{IgnoreCase: true}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &ExactMatch{opts: opts}
}

// Name implements Scorer.
func (s *ExactMatch) Name() string { return "exact_match" }

// Score implements Scorer.
func (s *ExactMatch) Score(_ context.Context, state *core.TaskState, target string) (Score, error) {
	answer := strings.TrimSpace(answerText(state))
	want := strings.TrimSpace(target)
	if s.opts.IgnoreCase {
		answer = strings.ToLower(answer)
		want = strings.ToLower(want)
	}
	value := Incorrect
	if answer == want {
		value = Correct
	}
	return Score{Value: value, Answer: strings.TrimSpace(answerText(state))}, nil
}

// Includes scores Correct when the output contains the target anywhere.
type Includes struct {
	opts MatchOptions
}

// NewIncludes creates a substring match scorer.
func NewIncludes(optFns ...func(o *MatchOptions)) *Includes {
	opts := MatchOptions{IgnoreCase: true}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Includes{opts: opts}
}

// Name implements Scorer.
func (s *Includes) Name() string { return "includes" }

// Score implements Scorer.
func (s *Includes) Score(_ context.Context, state *core.TaskState, target string) (Score, error) {
	answer := answerText(state)
	haystack := answer
	needle := strings.TrimSpace(target)
	if s.opts.IgnoreCase {
		haystack = strings.ToLower(haystack)
		needle = strings.ToLower(needle)
	}
	value := Incorrect
	if needle != "" && strings.Contains(haystack, needle) {
		value = Correct
	}
	return Score{Value: value, Answer: strings.TrimSpace(answer)}, nil
}
