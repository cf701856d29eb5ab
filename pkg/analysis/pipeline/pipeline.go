package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/askiada/go-analysis/pkg/analysis/model"
	"github.com/askiada/go-analysis/pkg/analysis/registry"
)

// ModelSource is the subset of the registry the engine consumes.
type ModelSource interface {
	Get(id string) (model.Analyzer, bool)
	FallbackRegistrations(id string) []registry.Registration
}

// Engine runs analysis pipelines against a model source.
type Engine struct {
	source    ModelSource
	opts      []model.RunOption
	log       Logger
	observers observerList
}

// New creates an engine bound to a model source and initialises the run
// options.
func New(source ModelSource, opts ...model.RunOption) (*Engine, error) {
	if source == nil {
		return nil, ErrSourceMustBeSet
	}

	eng := &Engine{
		source: source,
		opts:   opts,
		log:    defaultLogger(),
	}

	for _, opt := range opts {
		err := opt.New()
		if err != nil {
			return nil, errors.Wrap(err, "unable to apply run option")
		}
	}

	return eng, nil
}

// SetLogger replaces the destination of the engine's diagnostic output.
func (e *Engine) SetLogger(log Logger) {
	if log != nil {
		e.log = log
	}
}

// OnProgress registers an observer for progress events and returns the
// function that unsubscribes it. Observers are invoked synchronously, in
// registration order.
func (e *Engine) OnProgress(fn ProgressFunc) func() {
	return e.observers.add(fn)
}

// RunWithFallback resolves the primary model and invokes its Analyze; on
// failure every registered fallback is tried in chain order with the same
// input and context. The first success wins. When every candidate fails
// the original primary error is returned, since it is the most
// diagnostically relevant one. An unknown or disabled primary id fails
// with a *model.ModelNotFoundError.
func (e *Engine) RunWithFallback(ctx context.Context, primaryID string, input any, runCtx model.Context) (any, error) {
	return e.runWithFallback(ctx, nil, primaryID, input, runCtx)
}

func (e *Engine) runWithFallback(ctx context.Context, step *model.StepInfo, primaryID string, input any, runCtx model.Context) (any, error) {
	primary, ok := e.source.Get(primaryID)
	if !ok {
		return nil, &model.ModelNotFoundError{ID: primaryID}
	}

	start := time.Now()
	out, primaryErr := primary.Analyze(ctx, input, runCtx)
	e.onAttempt(step, primaryID, 0, time.Since(start), primaryErr)
	if primaryErr == nil {
		return out, nil
	}

	for i, reg := range e.source.FallbackRegistrations(primaryID) {
		start = time.Now()
		out, err := reg.Model.Analyze(ctx, input, runCtx)
		e.onAttempt(step, reg.ID, i+1, time.Since(start), err)
		if err == nil {
			e.log.Printf("model %q recovered by fallback %q", primaryID, reg.ID)

			return out, nil
		}
		// Recorded, not surfaced: the caller gets the primary's error.
		e.log.Printf("fallback %q for model %q failed: %v", reg.ID, primaryID, err)
	}

	return nil, primaryErr
}

// Execute runs the declared steps in order against the input artifact.
// Each step's output is stored under its name and merged into the context
// later steps receive. A step whose primary and fallbacks are all
// exhausted aborts the remaining steps. The returned Result is fully
// populated in every case; the error mirrors the result's top-level
// error.
func (e *Engine) Execute(ctx context.Context, steps []Step, input any) (*Result, error) {
	res := newResult(uuid.NewString(), len(steps))
	runCtx := model.Context{}
	total := len(steps)

	for i, step := range steps {
		info := &model.StepInfo{
			Index:   i,
			Total:   total,
			Name:    step.Name,
			Message: step.Message,
			ModelID: step.ModelID,
		}

		e.observers.notify(e.log, i+1, total, step.Message, StatusLoading)
		e.prepareStep(info)

		start := time.Now()
		out, err := e.stepOutput(ctx, info, step, input, runCtx)
		elapsed := time.Since(start)

		e.afterStep(info, elapsed, err == nil)

		if err != nil {
			res.addStep(StepRecord{
				Name:     step.Name,
				Duration: elapsed,
				Err:      err,
			})
			e.observers.notify(e.log, 0, total, err.Error(), StatusError)
			res.complete(false, err)
			e.finish(res)

			return res, err
		}

		res.addStep(StepRecord{
			Name:     step.Name,
			Duration: elapsed,
			Success:  true,
		})
		res.setOutput(step.Name, out)
		runCtx[step.Name] = out
	}

	e.observers.notify(e.log, total, total, "complete", StatusSuccess)
	res.complete(true, nil)
	e.finish(res)

	return res, nil
}

func (e *Engine) stepOutput(ctx context.Context, info *model.StepInfo, step Step, input any, runCtx model.Context) (any, error) {
	if step.ModelID == "" {
		return nil, errors.Wrapf(ErrStepModelID, "step %q", step.Name)
	}

	return e.runWithFallback(ctx, info, step.ModelID, input, runCtx)
}

// Option hook failures never abort a run; the run's outcome is decided by
// the models alone.

func (e *Engine) prepareStep(step *model.StepInfo) {
	for _, opt := range e.opts {
		err := opt.PrepareStep(step)
		if err != nil {
			e.log.Printf("run option prepare step failed: %v", err)
		}
	}
}

func (e *Engine) onAttempt(step *model.StepInfo, modelID string, attempt int, elapsed time.Duration, attemptErr error) {
	if step == nil {
		return
	}
	for _, opt := range e.opts {
		err := opt.OnAttempt(step, modelID, attempt, elapsed, attemptErr)
		if err != nil {
			e.log.Printf("run option attempt hook failed: %v", err)
		}
	}
}

func (e *Engine) afterStep(step *model.StepInfo, elapsed time.Duration, success bool) {
	for _, opt := range e.opts {
		err := opt.AfterStep(step, elapsed, success)
		if err != nil {
			e.log.Printf("run option after step failed: %v", err)
		}
	}
}

func (e *Engine) finish(res *Result) {
	summary := model.Summary{
		RunID:    res.RunID,
		Success:  res.Success,
		Duration: res.Duration(),
	}
	for _, opt := range e.opts {
		err := opt.Finish(summary)
		if err != nil {
			e.log.Printf("run option finish failed: %v", err)
		}
	}
}
