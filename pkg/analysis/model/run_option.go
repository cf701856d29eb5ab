package model

import "time"

// StepInfo describes one pipeline step to run options.
type StepInfo struct {
	Index   int
	Total   int
	Name    string
	Message string
	ModelID string
}

// Summary describes a finished run to run options.
type Summary struct {
	RunID    string
	Success  bool
	Duration time.Duration
}

// RunOption defines the interface for engine options. The engine invokes
// the hooks synchronously during a run; measure and drawer implement it.
type RunOption interface {
	// New initialises the run option.
	New() error

	// PrepareStep runs before a step executes.
	PrepareStep(step *StepInfo) error

	// OnAttempt runs after each model attempt within a step. attempt is
	// zero for the primary and counts up through the fallback chain;
	// err is nil when the attempt succeeded.
	OnAttempt(step *StepInfo, modelID string, attempt int, elapsed time.Duration, err error) error

	// AfterStep runs once a step has settled, successfully or not.
	AfterStep(step *StepInfo, elapsed time.Duration, success bool) error

	// Finish runs after the pipeline run completed or failed.
	Finish(run Summary) error
}
