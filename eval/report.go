package eval

import (
	"time"

	"github.com/hupe1980/evalmesh/core"
	"github.com/hupe1980/evalmesh/model"
	"github.com/hupe1980/evalmesh/scorer"
)

// SampleResult is the outcome of one evaluated sample unit. Exactly one of
// Score and Err is set.
type SampleResult struct {
	// SampleID identifies the sample within its dataset.
	SampleID string
	// Epoch is the repetition index of this unit.
	Epoch int
	// State is the final task state, retained even on failure so partial
	// transcripts survive.
	State *core.TaskState
	// Score is the scorer verdict for a completed sample.
	Score *scorer.Score
	// Err is the recorded failure for a sample that did not complete.
	Err error
	// Duration is the wall time spent on the unit.
	Duration time.Duration
}

// Failed reports whether the unit ended in an error.
func (r SampleResult) Failed() bool { return r.Err != nil }

// Report is the aggregate outcome of a run.
type Report struct {
	// RunID uniquely identifies the run.
	RunID string
	// Task is the evaluated task name.
	Task string
	// Model is the default model identifier.
	Model string
	// Results holds one entry per started sample unit, ordered by sample
	// id then epoch.
	Results []SampleResult
	// Metrics are the aggregate statistics over completed scores.
	Metrics map[string]float64
	// Usage is the summed token usage across all model calls.
	Usage model.TokenUsage
	// Started and Completed bound the run wall time.
	Started   time.Time
	Completed time.Time
	// Aborted is set when the run was cut short by the failure threshold
	// or cancellation.
	Aborted bool
}

// Scores returns the scores of all completed units.
func (r *Report) Scores() []scorer.Score {
	var out []scorer.Score
	for _, res := range r.Results {
		if res.Score != nil {
			out = append(out, *res.Score)
		}
	}
	return out
}

// Errors returns the recorded errors of all failed units.
func (r *Report) Errors() []error {
	var out []error
	for _, res := range r.Results {
		if res.Err != nil {
			out = append(out, res.Err)
		}
	}
	return out
}
