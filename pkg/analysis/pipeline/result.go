package pipeline

import "time"

// StepRecord is the outcome of one executed step.
type StepRecord struct {
	Name     string
	Duration time.Duration
	Success  bool
	Err      error
}

// Result aggregates one run's step outcomes, outputs and overall state.
// The engine is its only writer; once the run completes the result is
// frozen and the unexported mutators become no-ops. EndTime stays zero
// until completion.
type Result struct {
	RunID     string
	StartTime time.Time
	EndTime   time.Time
	Success   bool
	Err       error

	steps      []StepRecord
	outputKeys []string
	outputs    map[string]any
	frozen     bool
}

func newResult(runID string, totalSteps int) *Result {
	return &Result{
		RunID:     runID,
		StartTime: time.Now(),
		steps:     make([]StepRecord, 0, totalSteps),
		outputs:   make(map[string]any, totalSteps),
	}
}

// Steps returns the records of all executed steps, in execution order.
func (r *Result) Steps() []StepRecord {
	steps := make([]StepRecord, len(r.steps))
	copy(steps, r.steps)

	return steps
}

// Output returns the payload produced by the named step.
func (r *Result) Output(name string) (any, bool) {
	out, ok := r.outputs[name]

	return out, ok
}

// Outputs returns every successful step's output keyed by step name.
// Iteration order of the step declarations is available via OutputNames.
func (r *Result) Outputs() map[string]any {
	outputs := make(map[string]any, len(r.outputs))
	for name, out := range r.outputs {
		outputs[name] = out
	}

	return outputs
}

// OutputNames returns the names of the steps that produced an output, in
// step declaration order.
func (r *Result) OutputNames() []string {
	names := make([]string, len(r.outputKeys))
	copy(names, r.outputKeys)

	return names
}

// Duration returns the wall time of the run, or the elapsed time so far
// when the run has not completed.
func (r *Result) Duration() time.Duration {
	if r.EndTime.IsZero() {
		return time.Since(r.StartTime)
	}

	return r.EndTime.Sub(r.StartTime)
}

func (r *Result) addStep(record StepRecord) {
	if r.frozen {
		return
	}
	r.steps = append(r.steps, record)
}

func (r *Result) setOutput(name string, output any) {
	if r.frozen {
		return
	}
	if _, ok := r.outputs[name]; !ok {
		r.outputKeys = append(r.outputKeys, name)
	}
	r.outputs[name] = output
}

func (r *Result) complete(success bool, err error) {
	if r.frozen {
		return
	}
	r.Success = success
	r.Err = err
	r.EndTime = time.Now()
	r.frozen = true
}
