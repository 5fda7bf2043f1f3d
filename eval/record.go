package eval

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/hupe1980/evalmesh/core"
	"github.com/hupe1980/evalmesh/scorer"
)

// Recorder persists run output. One sample record is emitted per started
// unit, even when the run aborts early, followed by a single summary.
type Recorder interface {
	// RecordSample persists one sample outcome.
	RecordSample(result SampleResult) error

	// RecordSummary persists the run-level report after all sample
	// records.
	RecordSummary(report *Report) error
}

// MemoryRecorder keeps records in memory, mainly for tests.
type MemoryRecorder struct {
	mu      sync.Mutex
	samples []SampleResult
	report  *Report
}

// NewMemoryRecorder creates an in-memory recorder.
func NewMemoryRecorder() *MemoryRecorder { return &MemoryRecorder{} }

// RecordSample implements Recorder.
func (r *MemoryRecorder) RecordSample(result SampleResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.samples = append(r.samples, result)
	return nil
}

// RecordSummary implements Recorder.
func (r *MemoryRecorder) RecordSummary(report *Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.report = report
	return nil
}

// Samples returns a copy of the recorded sample results.
func (r *MemoryRecorder) Samples() []SampleResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]SampleResult, len(r.samples))
	copy(out, r.samples)
	return out
}

// Report returns the recorded summary, nil before RecordSummary.
func (r *MemoryRecorder) Report() *Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.report
}

// sampleRecord is the wire form of a sample result.
type sampleRecord struct {
	Type       string         `json:"type"`
	SampleID   string         `json:"sample_id"`
	Epoch      int            `json:"epoch"`
	Messages   []core.Content `json:"messages,omitempty"`
	Output     string         `json:"output,omitempty"`
	Score      *scorer.Score  `json:"score,omitempty"`
	Error      string         `json:"error,omitempty"`
	DurationMS int64          `json:"duration_ms"`
}

// summaryRecord is the wire form of the run summary.
type summaryRecord struct {
	Type      string             `json:"type"`
	RunID     string             `json:"run_id"`
	Task      string             `json:"task"`
	Model     string             `json:"model"`
	Metrics   map[string]float64 `json:"metrics"`
	Samples   int                `json:"samples"`
	Failures  int                `json:"failures"`
	Aborted   bool               `json:"aborted,omitempty"`
	Started   time.Time          `json:"started"`
	Completed time.Time          `json:"completed"`
	Usage     map[string]int     `json:"usage"`
}

// JSONLRecorder streams records as JSON lines, one object per sample plus a
// trailing summary object.
type JSONLRecorder struct {
	mu sync.Mutex
	w  io.Writer
}

// NewJSONLRecorder creates a recorder writing to w. The caller owns closing
// the underlying writer.
func NewJSONLRecorder(w io.Writer) *JSONLRecorder {
	return &JSONLRecorder{w: w}
}

// RecordSample implements Recorder.
func (r *JSONLRecorder) RecordSample(result SampleResult) error {
	rec := sampleRecord{
		Type:       "sample",
		SampleID:   result.SampleID,
		Epoch:      result.Epoch,
		Score:      result.Score,
		DurationMS: result.Duration.Milliseconds(),
	}
	if result.State != nil {
		rec.Messages = result.State.Messages
		rec.Output = result.State.Output
	}
	if result.Err != nil {
		rec.Error = result.Err.Error()
	}
	return r.write(rec)
}

// RecordSummary implements Recorder.
func (r *JSONLRecorder) RecordSummary(report *Report) error {
	return r.write(summaryRecord{
		Type:      "summary",
		RunID:     report.RunID,
		Task:      report.Task,
		Model:     report.Model,
		Metrics:   report.Metrics,
		Samples:   len(report.Results),
		Failures:  len(report.Errors()),
		Aborted:   report.Aborted,
		Started:   report.Started,
		Completed: report.Completed,
		Usage: map[string]int{
			"prompt_tokens":     report.Usage.PromptTokens,
			"completion_tokens": report.Usage.CompletionTokens,
			"total_tokens":      report.Usage.TotalTokens,
		},
	})
}

func (r *JSONLRecorder) write(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding record: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("writing record: %w", err)
	}
	return nil
}
