// Package core defines the shared data model of the evaluation engine:
// samples and datasets, the per-sample TaskState transcript, role-based
// content with a closed set of part types, generation configuration, and the
// structured error taxonomy that drives retry and failure-isolation policy.
package core
