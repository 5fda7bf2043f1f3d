package scorer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExactMatch(t *testing.T) {
	s := NewExactMatch()

	score, err := s.Score(context.Background(), stateWithOutput("  Paris  "), "paris")
	require.NoError(t, err)
	assert.Equal(t, Correct, score.Value)

	score, err = s.Score(context.Background(), stateWithOutput("London"), "Paris")
	require.NoError(t, err)
	assert.Equal(t, Incorrect, score.Value)
}

func TestExactMatchCaseSensitive(t *testing.T) {
	s := NewExactMatch(func(o *MatchOptions) { o.IgnoreCase = false })

	score, err := s.Score(context.Background(), stateWithOutput("paris"), "Paris")
	require.NoError(t, err)
	assert.Equal(t, Incorrect, score.Value)
}

func TestIncludes(t *testing.T) {
	s := NewIncludes()

	score, err := s.Score(context.Background(), stateWithOutput("The capital of France is Paris."), "paris")
	require.NoError(t, err)
	assert.Equal(t, Correct, score.Value)

	score, err = s.Score(context.Background(), stateWithOutput("The capital of France is Lyon."), "Paris")
	require.NoError(t, err)
	assert.Equal(t, Incorrect, score.Value)
}
