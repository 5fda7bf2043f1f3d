package scorer

import "math"

// Metric reduces a set of scores to a single value.
type Metric interface {
	// Name returns the metric identifier used in reports.
	Name() string

	// Compute reduces scores to a value. Implementations must handle an
	// empty slice.
	Compute(scores []Score) float64
}

// Accuracy is the fraction of correct scores.
type Accuracy struct{}

// Name implements Metric.
func (Accuracy) Name() string { return "accuracy" }

// Compute implements Metric.
func (Accuracy) Compute(scores []Score) float64 {
	if len(scores) == 0 {
		return 0
	}
	correct := 0
	for _, s := range scores {
		if s.IsCorrect() {
			correct++
		}
	}
	return float64(correct) / float64(len(scores))
}

// StdErr is the standard error of the accuracy estimate, sqrt(p(1-p)/n).
type StdErr struct{}

// Name implements Metric.
func (StdErr) Name() string { return "stderr" }

// Compute implements Metric.
func (StdErr) Compute(scores []Score) float64 {
	n := len(scores)
	if n == 0 {
		return 0
	}
	p := Accuracy{}.Compute(scores)
	return math.Sqrt(p * (1 - p) / float64(n))
}

// Mean is the average score value.
type Mean struct{}

// Name implements Metric.
func (Mean) Name() string { return "mean" }

// Compute implements Metric.
func (Mean) Compute(scores []Score) float64 {
	if len(scores) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range scores {
		sum += s.Value
	}
	return sum / float64(len(scores))
}

// ComputeAll evaluates each metric over the scores.
func ComputeAll(metrics []Metric, scores []Score) map[string]float64 {
	out := make(map[string]float64, len(metrics))
	for _, m := range metrics {
		out[m.Name()] = m.Compute(scores)
	}
	return out
}
