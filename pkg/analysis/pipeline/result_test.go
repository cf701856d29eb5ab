package pipeline

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultFrozenAfterComplete(t *testing.T) {
	t.Parallel()

	res := newResult("run-1", 2)
	res.addStep(StepRecord{Name: "detect", Success: true})
	res.setOutput("detect", "two cars")

	res.complete(true, nil)
	require.True(t, res.Success)
	require.False(t, res.EndTime.IsZero())
	end := res.EndTime

	// Frozen: none of this lands.
	res.addStep(StepRecord{Name: "late"})
	res.setOutput("late", "nope")
	res.complete(false, errors.New("late failure"))

	assert.Len(t, res.Steps(), 1)
	assert.Equal(t, []string{"detect"}, res.OutputNames())
	assert.True(t, res.Success)
	assert.NoError(t, res.Err)
	assert.Equal(t, end, res.EndTime)
}

func TestResultAccessorsReturnCopies(t *testing.T) {
	t.Parallel()

	res := newResult("run-1", 1)
	res.addStep(StepRecord{Name: "detect", Success: true})
	res.setOutput("detect", "two cars")

	steps := res.Steps()
	steps[0].Name = "mutated"
	assert.Equal(t, "detect", res.Steps()[0].Name)

	outputs := res.Outputs()
	outputs["detect"] = "mutated"
	out, _ := res.Output("detect")
	assert.Equal(t, "two cars", out)

	names := res.OutputNames()
	names[0] = "mutated"
	assert.Equal(t, []string{"detect"}, res.OutputNames())
}

func TestResultDuration(t *testing.T) {
	t.Parallel()

	res := newResult("run-1", 0)
	res.StartTime = time.Now().Add(-time.Minute)

	// Not completed yet: duration keeps growing.
	assert.GreaterOrEqual(t, res.Duration(), time.Minute)

	res.complete(true, nil)
	res.EndTime = res.StartTime.Add(90 * time.Second)
	assert.Equal(t, 90*time.Second, res.Duration())
}
