package scorer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func makeScores(correct, incorrect int) []Score {
	var scores []Score
	for i := 0; i < correct; i++ {
		scores = append(scores, Score{Value: Correct})
	}
	for i := 0; i < incorrect; i++ {
		scores = append(scores, Score{Value: Incorrect})
	}
	return scores
}

func TestAccuracy(t *testing.T) {
	scores := makeScores(8, 2)
	assert.InDelta(t, 0.8, Accuracy{}.Compute(scores), 1e-9)
	assert.Equal(t, 0.0, Accuracy{}.Compute(nil))
}

func TestStdErr(t *testing.T) {
	scores := makeScores(8, 2)
	// sqrt(0.8 * 0.2 / 10)
	assert.InDelta(t, 0.1265, StdErr{}.Compute(scores), 1e-4)
	assert.Equal(t, 0.0, StdErr{}.Compute(nil))
}

func TestMean(t *testing.T) {
	scores := []Score{{Value: 1.0}, {Value: 0.5}, {Value: 0.0}}
	assert.InDelta(t, 0.5, Mean{}.Compute(scores), 1e-9)
}

func TestComputeAll(t *testing.T) {
	scores := makeScores(8, 2)
	out := ComputeAll([]Metric{Accuracy{}, StdErr{}}, scores)
	assert.InDelta(t, 0.8, out["accuracy"], 1e-9)
	assert.InDelta(t, 0.1265, out["stderr"], 1e-4)
}
