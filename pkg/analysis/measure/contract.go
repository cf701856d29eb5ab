package measure

import "time"

// Measure collects one metric per executed step plus the run total.
type Measure interface {
	AddMetric(name string) Metric
	GetMetric(name string) Metric
	AllMetrics() map[string]Metric
	SetRunDuration(elapsed time.Duration)
	RunDuration() time.Duration
}

// Metric records the durations of one step and of every model attempt
// made within it, primaries and fallbacks alike.
type Metric interface {
	AddDuration(elapsed time.Duration)
	AddAttempt(modelID string, elapsed time.Duration, failed bool)
	AVGDuration() time.Duration
	AVGAttemptDuration() map[string]*AttemptInfo
	AllAttempts() map[string]*AttemptInfo
	Failures() int64
}
