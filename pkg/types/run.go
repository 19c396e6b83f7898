// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// RunStatus is the lifecycle state of a task run. The vocabulary is owned by
// the remote service: only StatusCompleted and StatusFailed are terminal, and
// any status this list does not cover means the run is still in progress.
type RunStatus string

const (
	StatusQueued         RunStatus = "queued"
	StatusActionRequired RunStatus = "action_required"
	StatusRunning        RunStatus = "running"
	StatusCompleted      RunStatus = "completed"
	StatusFailed         RunStatus = "failed"
	StatusCancelling     RunStatus = "cancelling"
	StatusCancelled      RunStatus = "cancelled"
)

// TaskRun is the handle returned by run creation.
type TaskRun struct {
	RunID     string    `json:"run_id" yaml:"run_id"`
	Status    RunStatus `json:"status" yaml:"status"`
	Processor string    `json:"processor" yaml:"processor"`
}

// RunResult is the state of a run as reported by the result endpoint. All
// entities below it are read-only observations; the remote service is the
// only writer.
type RunResult struct {
	RunID     string    `json:"run_id" yaml:"run_id"`
	Status    RunStatus `json:"status" yaml:"status"`
	Processor string    `json:"processor" yaml:"processor"`

	// Error carries the failure detail for failed runs.
	Error *RunError `json:"error,omitempty" yaml:"error,omitempty"`

	// Output is present once the run has completed.
	Output *Output `json:"output,omitempty" yaml:"output,omitempty"`
}

// RunError is the failure detail attached to a failed run.
type RunError struct {
	RefID   string `json:"ref_id,omitempty" yaml:"ref_id,omitempty"`
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
}

// OutputType describes the shape of a run's output content.
type OutputType string

const (
	OutputJSON OutputType = "json"
	OutputText OutputType = "text"
)

// Output is the result payload of a completed run. Content is an object for
// json outputs and a string for text outputs; other types may appear as the
// service evolves and are rendered by their string form.
type Output struct {
	Type    OutputType `json:"type" yaml:"type"`
	Content any        `json:"content" yaml:"content"`

	// Basis lists provenance annotations for the output. Optional at every
	// level; renderers substitute placeholders rather than fail.
	Basis []Basis `json:"basis,omitempty" yaml:"basis,omitempty"`
}

// Basis is a provenance annotation for one output field.
type Basis struct {
	Field      string     `json:"field,omitempty" yaml:"field,omitempty"`
	Confidence string     `json:"confidence,omitempty" yaml:"confidence,omitempty"`
	Citations  []Citation `json:"citations,omitempty" yaml:"citations,omitempty"`
}

// Citation points at a source document backing an output field.
type Citation struct {
	Title string `json:"title,omitempty" yaml:"title,omitempty"`
	URL   string `json:"url,omitempty" yaml:"url,omitempty"`
}
