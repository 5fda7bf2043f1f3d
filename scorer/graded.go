package scorer

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/hupe1980/evalmesh/core"
	"github.com/hupe1980/evalmesh/internal/util"
	"github.com/hupe1980/evalmesh/model"
)

const defaultGradeTemplate = `You are comparing a submitted answer to an expert answer on a given question.

[Question]: {{.Question}}

[Expert answer]: {{.Target}}

[Submitted answer]: {{.Answer}}

Does the submitted answer match the expert answer? Ignore differences in
formatting, phrasing and order. Respond with your reasoning followed by a
final line of exactly "GRADE: C" if the submission is correct or "GRADE: I"
if it is incorrect.`

// GradedOptions configure the model-graded scorer.
type GradedOptions struct {
	// Template is the grading prompt. It receives Question, Target and
	// Answer values.
	Template string
	// Config overrides generation settings for the judge call.
	Config core.GenerateConfig
}

// ModelGraded uses a judge model to grade free-form answers that cannot be
// compared mechanically.
type ModelGraded struct {
	judge *model.Client
	opts  GradedOptions
}

// NewModelGraded creates a model-graded scorer backed by the given judge
// client.
func NewModelGraded(judge *model.Client, optFns ...func(o *GradedOptions)) *ModelGraded {
	opts := GradedOptions{Template: defaultGradeTemplate}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &ModelGraded{judge: judge, opts: opts}
}

// Name implements Scorer.
func (s *ModelGraded) Name() string { return "model_graded" }

var gradePattern = regexp.MustCompile(`(?m)GRADE\s*:\s*([CI])\b`)

// Score implements Scorer.
func (s *ModelGraded) Score(ctx context.Context, state *core.TaskState, target string) (Score, error) {
	prompt, err := util.RenderTemplate(s.opts.Template, map[string]any{
		"Question": state.UserPrompt(),
		"Target":   target,
		"Answer":   answerText(state),
	})
	if err != nil {
		return Score{}, fmt.Errorf("rendering grade prompt: %w", err)
	}

	resp, err := s.judge.Generate(ctx, model.Request{
		Input:  []core.Content{core.UserContent(prompt)},
		Config: s.opts.Config,
	})
	if err != nil {
		return Score{}, fmt.Errorf("judge call: %w", err)
	}

	verdict := resp.Text()
	m := gradePattern.FindStringSubmatch(verdict)
	if m == nil {
		return Score{
			Value:       Incorrect,
			Answer:      answerText(state),
			Explanation: "judge verdict missing GRADE line",
		}, nil
	}

	value := Incorrect
	if strings.ToUpper(m[1]) == "C" {
		value = Correct
	}
	return Score{
		Value:       value,
		Answer:      answerText(state),
		Explanation: verdict,
	}, nil
}
