package model

import "context"

// MediaType describes the kind of input artifact a model accepts.
type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
	MediaText  MediaType = "text"
)

// Role describes the function a model performs inside a pipeline.
type Role string

const (
	RoleDetection Role = "detection"
	RoleReasoning Role = "reasoning"
)

// Capabilities is the static descriptor of what a model can do. It must be
// fully populated before Initialize has run.
type Capabilities struct {
	MediaType MediaType
	Role      Role
	Priority  int
	Features  []string
}

// Context carries the outputs of upstream pipeline steps, keyed by step
// name. Models read conventional keys such as "detections"; they must
// tolerate missing keys.
type Context map[string]any

// Analyzer is the capability contract every model variant must satisfy.
type Analyzer interface {
	// Initialize performs one-time setup such as credential checks or
	// connection warmup. It returns a *ConfigurationError when a
	// prerequisite is absent and is safe to call more than once.
	Initialize(ctx context.Context) error

	// Analyze produces a step-defined output payload from the input
	// artifact and the upstream context. Failures are reported as a
	// *AnalysisError wrapping the underlying cause.
	Analyze(ctx context.Context, input any, runCtx Context) (any, error)

	// HealthCheck reports whether the model is currently reachable.
	// Ordinary unavailability is (false, nil); a non-nil error is
	// reserved for programming errors.
	HealthCheck(ctx context.Context) (bool, error)

	// Capabilities is a pure, synchronous descriptor read.
	Capabilities() Capabilities
}
