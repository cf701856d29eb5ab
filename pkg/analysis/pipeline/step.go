package pipeline

// Step is one named stage of a run, bound to the primary model that
// performs it. Steps are immutable for the duration of one Execute call.
type Step struct {
	// Name keys the step's output in the result and in the context passed
	// to later steps.
	Name string
	// Message is the human-readable text carried by loading progress
	// events.
	Message string
	// ModelID is the id of the primary model resolved via the registry.
	ModelID string
}
