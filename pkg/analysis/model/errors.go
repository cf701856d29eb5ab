package model

import "fmt"

// ConfigurationError reports a missing prerequisite for a model to operate.
// It is raised from Initialize or HealthCheck, never from Analyze.
type ConfigurationError struct {
	Op  string
	Err error
}

func (e *ConfigurationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("configuration error in %s", e.Op)
	}

	return fmt.Sprintf("configuration error in %s: %v", e.Op, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// ModelNotFoundError reports that a requested id has no enabled
// registration.
type ModelNotFoundError struct {
	ID string
}

func (e *ModelNotFoundError) Error() string {
	return fmt.Sprintf("model %q not found", e.ID)
}

// AnalysisError reports that a model's Analyze failed, wrapping the
// underlying cause.
type AnalysisError struct {
	ModelID string
	Err     error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("analysis failed for model %q: %v", e.ModelID, e.Err)
}

func (e *AnalysisError) Unwrap() error { return e.Err }
