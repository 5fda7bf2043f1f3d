package scorer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/evalmesh/core"
)

func choiceState(output string, numChoices int) *core.TaskState {
	choices := make([]string, numChoices)
	for i := range choices {
		choices[i] = "option"
	}
	state := core.NewTaskState(core.Sample{ID: "1", Input: "q", Choices: choices}, 1, 0)
	state.Output = output
	return state
}

func TestChoiceMatchAnswerMarker(t *testing.T) {
	s := NewChoiceMatch()

	score, err := s.Score(context.Background(), choiceState("Thinking it through...\nANSWER: C", 4), "C")
	require.NoError(t, err)
	assert.Equal(t, Correct, score.Value)
	assert.Equal(t, "C", score.Answer)

	score, err = s.Score(context.Background(), choiceState("ANSWER: B", 4), "C")
	require.NoError(t, err)
	assert.Equal(t, Incorrect, score.Value)
}

func TestChoiceMatchLowercaseMarker(t *testing.T) {
	s := NewChoiceMatch()

	score, err := s.Score(context.Background(), choiceState("answer: d", 4), "D")
	require.NoError(t, err)
	assert.Equal(t, Correct, score.Value)
}

func TestChoiceMatchFallbackLetter(t *testing.T) {
	s := NewChoiceMatch()

	score, err := s.Score(context.Background(), choiceState("The correct option is B", 4), "B")
	require.NoError(t, err)
	assert.Equal(t, Correct, score.Value)
}

func TestChoiceMatchNoLetter(t *testing.T) {
	s := NewChoiceMatch()

	score, err := s.Score(context.Background(), choiceState("I am not sure at all", 2), "A")
	require.NoError(t, err)
	assert.Equal(t, Incorrect, score.Value)
	assert.NotEmpty(t, score.Explanation)
}
