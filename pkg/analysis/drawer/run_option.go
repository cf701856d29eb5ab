package drawer

import (
	"time"

	"github.com/pkg/errors"

	"github.com/askiada/go-analysis/pkg/analysis/measure"
	"github.com/askiada/go-analysis/pkg/analysis/model"
)

type runDrawer struct {
	Drawer
	m measure.Measure
	// prev tracks the last prepared step so the chain is linked in
	// execution order, starting from the start vertex.
	prev string
}

func (rd *runDrawer) New() error {
	err := rd.AddStep("start")
	if err != nil {
		return errors.Wrap(err, "unable to add start step to drawer")
	}
	err = rd.AddStep("end")
	if err != nil {
		return errors.Wrap(err, "unable to add end step to drawer")
	}
	rd.prev = "start"

	return nil
}

func (rd *runDrawer) PrepareStep(step *model.StepInfo) error {
	err := rd.AddStep(step.Name)
	if err != nil {
		return err
	}
	err = rd.AddLink(rd.prev, step.Name)
	if err != nil {
		return err
	}

	return nil
}

func (rd *runDrawer) OnAttempt(step *model.StepInfo, modelID string, attempt int, elapsed time.Duration, attemptErr error) error {
	return rd.AddAttempt(step.Name, modelID, attemptErr != nil)
}

func (rd *runDrawer) AfterStep(step *model.StepInfo, elapsed time.Duration, success bool) error {
	rd.prev = step.Name

	return nil
}

func (rd *runDrawer) Finish(run model.Summary) error {
	if rd.prev != "start" {
		err := rd.AddLink(rd.prev, "end")
		if err != nil {
			return errors.Wrap(err, "unable to link last step")
		}
	}

	if rd.m != nil {
		err := rd.AddMeasure(rd.m)
		if err != nil {
			return errors.Wrap(err, "unable to add measure")
		}
	}

	err := rd.Draw()
	if err != nil {
		return errors.Wrap(err, "unable to draw run")
	}

	return nil
}

// RunDrawer adapts a Drawer into an engine run option. The measure may be
// nil when no metrics decoration is wanted.
func RunDrawer(drawer Drawer, measure measure.Measure) model.RunOption {
	return &runDrawer{Drawer: drawer, m: measure}
}
