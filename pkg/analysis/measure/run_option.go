package measure

import (
	"time"

	"github.com/askiada/go-analysis/pkg/analysis/model"
)

type runMeasure struct {
	Measure
}

func (rm *runMeasure) New() error {
	return nil
}

func (rm *runMeasure) PrepareStep(step *model.StepInfo) error {
	rm.AddMetric(step.Name)

	return nil
}

func (rm *runMeasure) OnAttempt(step *model.StepInfo, modelID string, attempt int, elapsed time.Duration, attemptErr error) error {
	mt := rm.GetMetric(step.Name)
	if mt == nil {
		mt = rm.AddMetric(step.Name)
	}
	mt.AddAttempt(modelID, elapsed, attemptErr != nil)

	return nil
}

func (rm *runMeasure) AfterStep(step *model.StepInfo, elapsed time.Duration, success bool) error {
	mt := rm.GetMetric(step.Name)
	if mt == nil {
		mt = rm.AddMetric(step.Name)
	}
	mt.AddDuration(elapsed)

	return nil
}

func (rm *runMeasure) Finish(run model.Summary) error {
	rm.SetRunDuration(run.Duration)

	return nil
}

// RunMeasure adapts a Measure into an engine run option.
func RunMeasure(measure Measure) model.RunOption {
	return &runMeasure{measure}
}
