package scorer

import (
	"context"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/hupe1980/evalmesh/core"
)

// NumericOptions configure the numeric scorer.
type NumericOptions struct {
	// Tolerance compares values numerically (624.0 matches 624) instead of
	// by normalized token.
	Tolerance bool
	// Epsilon is the relative tolerance for numeric comparison.
	Epsilon float64
}

// NumericMatch scores numeric answers, tolerant of surrounding punctuation
// and currency symbols. It prefers an explicit "#### <answer>" marker, then
// falls back to the last number in the output.
type NumericMatch struct {
	opts NumericOptions
}

// NewNumericMatch creates a numeric match scorer.
func NewNumericMatch(optFns ...func(o *NumericOptions)) *NumericMatch {
	opts := NumericOptions{Epsilon: 1e-6}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Epsilon <= 0 {
		opts.Epsilon = 1e-6
	}
	return &NumericMatch{opts: opts}
}

// Name implements Scorer.
func (s *NumericMatch) Name() string { return "numeric_match" }

var (
	markerPattern = regexp.MustCompile(`####\s*([^\n]+)`)
	numberPattern = regexp.MustCompile(`-?\d[\d,]*(?:\.\d+)?`)
)

// Score implements Scorer.
func (s *NumericMatch) Score(_ context.Context, state *core.TaskState, target string) (Score, error) {
	answer := extractNumber(answerText(state))
	want := extractNumber(target)
	if answer == "" || want == "" {
		return Score{Value: Incorrect, Answer: answer, Explanation: "no numeric answer found"}, nil
	}

	if s.opts.Tolerance {
		a, errA := strconv.ParseFloat(answer, 64)
		w, errW := strconv.ParseFloat(want, 64)
		if errA == nil && errW == nil && withinEpsilon(a, w, s.opts.Epsilon) {
			return Score{Value: Correct, Answer: answer}, nil
		}
		return Score{Value: Incorrect, Answer: answer}, nil
	}

	if answer == want {
		return Score{Value: Correct, Answer: answer}, nil
	}
	return Score{Value: Incorrect, Answer: answer}, nil
}

// extractNumber pulls the candidate numeric answer out of free text: the
// "#### " marker wins, otherwise the last number. Currency symbols, commas
// and percent signs are stripped.
func extractNumber(text string) string {
	if m := markerPattern.FindStringSubmatch(text); m != nil {
		text = m[1]
	}
	matches := numberPattern.FindAllString(normalizeNumeric(text), -1)
	if len(matches) == 0 {
		return ""
	}
	return matches[len(matches)-1]
}

func normalizeNumeric(text string) string {
	replacer := strings.NewReplacer("$", "", "€", "", "£", "", "%", "", ",", "")
	return replacer.Replace(text)
}

func withinEpsilon(a, b, eps float64) bool {
	if a == b {
		return true
	}
	diff := math.Abs(a - b)
	scale := math.Max(math.Abs(a), math.Abs(b))
	if scale == 0 {
		return diff < eps
	}
	return diff/scale < eps
}
