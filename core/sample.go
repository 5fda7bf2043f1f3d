package core

import (
	"context"
	"strconv"
)

// Sample is a single evaluation input and expected target. Samples are
// immutable and owned by their dataset.
type Sample struct {
	ID       string            `json:"id"`
	Input    string            `json:"input"`
	Target   string            `json:"target"`
	Choices  []string          `json:"choices,omitempty"`
	Metadata map[string]any    `json:"metadata,omitempty"`
	Files    map[string][]byte `json:"files,omitempty"` // Seeded into the sample's sandbox on provisioning
}

// Dataset produces an ordered sequence of samples for a task.
type Dataset interface {
	// Name returns the dataset identifier used in reports.
	Name() string

	// Samples returns the ordered samples of the dataset.
	Samples(ctx context.Context) ([]Sample, error)
}

// MemoryDataset is an in-memory Dataset, the common case for programmatic
// task construction and tests.
type MemoryDataset struct {
	name    string
	samples []Sample
}

// NewMemoryDataset creates a dataset from a fixed sample slice. Samples
// without an ID are assigned their 1-based position.
func NewMemoryDataset(name string, samples []Sample) *MemoryDataset {
	out := make([]Sample, len(samples))
	copy(out, samples)
	for i := range out {
		if out[i].ID == "" {
			out[i].ID = strconv.Itoa(i + 1)
		}
	}
	return &MemoryDataset{name: name, samples: out}
}

// Name implements Dataset.
func (d *MemoryDataset) Name() string { return d.name }

// Samples implements Dataset.
func (d *MemoryDataset) Samples(_ context.Context) ([]Sample, error) {
	return d.samples, nil
}

// Len returns the number of samples.
func (d *MemoryDataset) Len() int { return len(d.samples) }
