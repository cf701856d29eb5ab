package pipeline_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-analysis/pkg/analysis/model"
	"github.com/askiada/go-analysis/pkg/analysis/pipeline"
	"github.com/askiada/go-analysis/pkg/analysis/registry"
)

type fakeModel struct {
	caps    model.Capabilities
	out     any
	err     error
	calls   int
	gotCtx  model.Context
	analyze func(runCtx model.Context) (any, error)
}

func (f *fakeModel) Initialize(ctx context.Context) error {
	return nil
}

func (f *fakeModel) Analyze(ctx context.Context, input any, runCtx model.Context) (any, error) {
	f.calls++
	f.gotCtx = model.Context{}
	for key, value := range runCtx {
		f.gotCtx[key] = value
	}
	if f.analyze != nil {
		return f.analyze(runCtx)
	}
	if f.err != nil {
		return nil, f.err
	}

	return f.out, nil
}

func (f *fakeModel) HealthCheck(ctx context.Context) (bool, error) {
	return true, nil
}

func (f *fakeModel) Capabilities() model.Capabilities {
	return f.caps
}

type event struct {
	stepIndex  int
	totalSteps int
	message    string
	status     pipeline.Status
}

func recordEvents(events *[]event) pipeline.ProgressFunc {
	return func(stepIndex, totalSteps int, message string, status pipeline.Status) {
		*events = append(*events, event{stepIndex, totalSteps, message, status})
	}
}

type attempt struct {
	step    string
	modelID string
	n       int
	failed  bool
}

// recordingOption captures every hook invocation in order.
type recordingOption struct {
	newErr   error
	hookErr  error
	prepared []string
	attempts []attempt
	after    []string
	finished []model.Summary
}

func (o *recordingOption) New() error {
	return o.newErr
}

func (o *recordingOption) PrepareStep(step *model.StepInfo) error {
	o.prepared = append(o.prepared, step.Name)

	return o.hookErr
}

func (o *recordingOption) OnAttempt(step *model.StepInfo, modelID string, n int, elapsed time.Duration, attemptErr error) error {
	o.attempts = append(o.attempts, attempt{step.Name, modelID, n, attemptErr != nil})

	return o.hookErr
}

func (o *recordingOption) AfterStep(step *model.StepInfo, elapsed time.Duration, success bool) error {
	o.after = append(o.after, step.Name)

	return o.hookErr
}

func (o *recordingOption) Finish(run model.Summary) error {
	o.finished = append(o.finished, run)

	return o.hookErr
}

func TestNewNilSource(t *testing.T) {
	t.Parallel()

	_, err := pipeline.New(nil)
	assert.ErrorIs(t, err, pipeline.ErrSourceMustBeSet)
}

func TestNewOptionError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	_, err := pipeline.New(registry.New(), &recordingOption{newErr: boom})
	assert.ErrorIs(t, err, boom)
}

func TestRunWithFallbackPrimarySucceeds(t *testing.T) {
	t.Parallel()

	primary := &fakeModel{out: "detections"}
	backup := &fakeModel{out: "degraded"}

	reg := registry.New()
	reg.Register("primary", primary)
	reg.Register("backup", backup, registry.FallbackFor("primary"))

	eng, err := pipeline.New(reg)
	require.NoError(t, err)

	out, err := eng.RunWithFallback(context.Background(), "primary", "img", model.Context{})
	require.NoError(t, err)
	assert.Equal(t, "detections", out)
	assert.Zero(t, backup.calls)
}

func TestRunWithFallbackSecondFallbackSucceeds(t *testing.T) {
	t.Parallel()

	primary := &fakeModel{err: errors.New("quota exceeded")}
	fallback1 := &fakeModel{err: errors.New("timeout")}
	fallback2 := &fakeModel{out: "recovered"}

	reg := registry.New()
	reg.Register("primary", primary)
	reg.Register("fb1", fallback1, registry.FallbackFor("primary"))
	reg.Register("fb2", fallback2, registry.FallbackFor("primary"))

	eng, err := pipeline.New(reg)
	require.NoError(t, err)

	out, err := eng.RunWithFallback(context.Background(), "primary", "img", model.Context{})
	require.NoError(t, err)
	assert.Equal(t, "recovered", out)
	assert.Equal(t, 1, fallback1.calls)
	assert.Equal(t, 1, fallback2.calls)
}

func TestRunWithFallbackExhaustedReturnsPrimaryError(t *testing.T) {
	t.Parallel()

	primaryErr := errors.New("quota exceeded")

	reg := registry.New()
	reg.Register("primary", &fakeModel{err: primaryErr})
	reg.Register("fb1", &fakeModel{err: errors.New("timeout")}, registry.FallbackFor("primary"))
	reg.Register("fb2", &fakeModel{err: errors.New("bad gateway")}, registry.FallbackFor("primary"))

	eng, err := pipeline.New(reg)
	require.NoError(t, err)

	_, err = eng.RunWithFallback(context.Background(), "primary", "img", model.Context{})
	assert.Same(t, primaryErr, err)
}

func TestRunWithFallbackUnknownModel(t *testing.T) {
	t.Parallel()

	eng, err := pipeline.New(registry.New())
	require.NoError(t, err)

	_, err = eng.RunWithFallback(context.Background(), "ghost", "img", model.Context{})

	notFound := &model.ModelNotFoundError{}
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "ghost", notFound.ID)
}

func TestRunWithFallbackDisabledModel(t *testing.T) {
	t.Parallel()

	reg := registry.New()
	reg.Register("primary", &fakeModel{out: "x"}, registry.Disabled())

	eng, err := pipeline.New(reg)
	require.NoError(t, err)

	_, err = eng.RunWithFallback(context.Background(), "primary", "img", model.Context{})

	notFound := &model.ModelNotFoundError{}
	assert.ErrorAs(t, err, &notFound)
}

func TestExecuteTwoSteps(t *testing.T) {
	t.Parallel()

	vision := &fakeModel{out: map[string]any{"detections": "two cars"}}
	reasoning := &fakeModel{out: "a quiet street"}

	reg := registry.New()
	reg.Register("vision", vision)
	reg.Register("reasoning", reasoning)

	eng, err := pipeline.New(reg)
	require.NoError(t, err)

	steps := []pipeline.Step{
		{Name: "detect", Message: "Detecting objects...", ModelID: "vision"},
		{Name: "describe", Message: "Analyzing scene...", ModelID: "reasoning"},
	}

	res, err := eng.Execute(context.Background(), steps, "img")
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.NotEmpty(t, res.RunID)
	assert.True(t, res.Success)
	assert.NoError(t, res.Err)
	assert.False(t, res.EndTime.IsZero())

	records := res.Steps()
	require.Len(t, records, 2)
	assert.Equal(t, "detect", records[0].Name)
	assert.True(t, records[0].Success)
	assert.Equal(t, "describe", records[1].Name)
	assert.True(t, records[1].Success)

	assert.Equal(t, []string{"detect", "describe"}, res.OutputNames())
	out, ok := res.Output("describe")
	require.True(t, ok)
	assert.Equal(t, "a quiet street", out)

	// The second step sees the first step's output in its context.
	assert.Empty(t, vision.gotCtx)
	assert.Equal(t, map[string]any{"detections": "two cars"}, reasoning.gotCtx["detect"])
}

func TestExecuteFailFast(t *testing.T) {
	t.Parallel()

	visionErr := errors.New("quota exceeded")
	reasoning := &fakeModel{out: "unused"}

	reg := registry.New()
	reg.Register("vision", &fakeModel{err: visionErr})
	reg.Register("reasoning", reasoning)

	eng, err := pipeline.New(reg)
	require.NoError(t, err)

	steps := []pipeline.Step{
		{Name: "detect", ModelID: "vision"},
		{Name: "describe", ModelID: "reasoning"},
	}

	res, err := eng.Execute(context.Background(), steps, "img")
	require.Error(t, err)
	require.NotNil(t, res)

	assert.Same(t, res.Err, err)
	assert.False(t, res.Success)
	assert.Zero(t, reasoning.calls)

	records := res.Steps()
	require.Len(t, records, 1)
	assert.Equal(t, "detect", records[0].Name)
	assert.False(t, records[0].Success)
	assert.Same(t, visionErr, records[0].Err)

	assert.Empty(t, res.OutputNames())
}

func TestExecutePartialOutputs(t *testing.T) {
	t.Parallel()

	reg := registry.New()
	reg.Register("vision", &fakeModel{out: "two cars"})
	reg.Register("reasoning", &fakeModel{err: errors.New("timeout")})

	eng, err := pipeline.New(reg)
	require.NoError(t, err)

	steps := []pipeline.Step{
		{Name: "detect", ModelID: "vision"},
		{Name: "describe", ModelID: "reasoning"},
	}

	res, err := eng.Execute(context.Background(), steps, "img")
	require.Error(t, err)

	assert.False(t, res.Success)
	require.Len(t, res.Steps(), 2)

	// The failed run still exposes the outputs gathered before the
	// failure.
	assert.Equal(t, []string{"detect"}, res.OutputNames())
	assert.Equal(t, map[string]any{"detect": "two cars"}, res.Outputs())
	_, ok := res.Output("describe")
	assert.False(t, ok)
}

func TestExecuteEmptyModelID(t *testing.T) {
	t.Parallel()

	eng, err := pipeline.New(registry.New())
	require.NoError(t, err)

	res, err := eng.Execute(context.Background(), []pipeline.Step{{Name: "detect"}}, "img")
	assert.ErrorIs(t, err, pipeline.ErrStepModelID)
	assert.False(t, res.Success)
}

func TestExecuteNoSteps(t *testing.T) {
	t.Parallel()

	eng, err := pipeline.New(registry.New())
	require.NoError(t, err)

	res, err := eng.Execute(context.Background(), nil, "img")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Empty(t, res.Steps())
}

func TestExecuteProgressEvents(t *testing.T) {
	t.Parallel()

	reg := registry.New()
	reg.Register("vision", &fakeModel{out: "a"})
	reg.Register("reasoning", &fakeModel{out: "b"})

	eng, err := pipeline.New(reg)
	require.NoError(t, err)

	var events []event
	eng.OnProgress(recordEvents(&events))

	steps := []pipeline.Step{
		{Name: "detect", Message: "Detecting objects...", ModelID: "vision"},
		{Name: "describe", Message: "Analyzing scene...", ModelID: "reasoning"},
	}

	_, err = eng.Execute(context.Background(), steps, "img")
	require.NoError(t, err)

	require.Len(t, events, 3)
	assert.Equal(t, event{1, 2, "Detecting objects...", pipeline.StatusLoading}, events[0])
	assert.Equal(t, event{2, 2, "Analyzing scene...", pipeline.StatusLoading}, events[1])
	assert.Equal(t, event{2, 2, "complete", pipeline.StatusSuccess}, events[2])
}

func TestExecuteProgressErrorEvent(t *testing.T) {
	t.Parallel()

	reg := registry.New()
	reg.Register("vision", &fakeModel{err: errors.New("quota exceeded")})

	eng, err := pipeline.New(reg)
	require.NoError(t, err)

	var events []event
	eng.OnProgress(recordEvents(&events))

	_, err = eng.Execute(context.Background(), []pipeline.Step{{Name: "detect", Message: "Detecting...", ModelID: "vision"}}, "img")
	require.Error(t, err)

	require.Len(t, events, 2)
	assert.Equal(t, event{1, 1, "Detecting...", pipeline.StatusLoading}, events[0])
	assert.Equal(t, event{0, 1, "quota exceeded", pipeline.StatusError}, events[1])
}

func TestOnProgressUnsubscribe(t *testing.T) {
	t.Parallel()

	reg := registry.New()
	reg.Register("vision", &fakeModel{out: "a"})

	eng, err := pipeline.New(reg)
	require.NoError(t, err)

	var kept, dropped []event

	unsubscribe := eng.OnProgress(recordEvents(&dropped))
	eng.OnProgress(recordEvents(&kept))
	unsubscribe()
	// Unsubscribing twice is harmless.
	unsubscribe()

	_, err = eng.Execute(context.Background(), []pipeline.Step{{Name: "detect", ModelID: "vision"}}, "img")
	require.NoError(t, err)

	assert.Empty(t, dropped)
	assert.Len(t, kept, 2)
}

func TestOnProgressUnsubscribeMidRun(t *testing.T) {
	t.Parallel()

	reg := registry.New()
	reg.Register("vision", &fakeModel{out: "a"})
	reg.Register("reasoning", &fakeModel{out: "b"})

	eng, err := pipeline.New(reg)
	require.NoError(t, err)

	var first, second []event

	var unsubscribe func()
	unsubscribe = eng.OnProgress(func(stepIndex, totalSteps int, message string, status pipeline.Status) {
		first = append(first, event{stepIndex, totalSteps, message, status})
		unsubscribe()
	})
	eng.OnProgress(recordEvents(&second))

	steps := []pipeline.Step{
		{Name: "detect", ModelID: "vision"},
		{Name: "describe", ModelID: "reasoning"},
	}

	_, err = eng.Execute(context.Background(), steps, "img")
	require.NoError(t, err)

	// The self-unsubscribing observer saw only the first event; the other
	// observer kept receiving.
	assert.Len(t, first, 1)
	assert.Len(t, second, 3)
}

func TestProgressObserverPanicIsolated(t *testing.T) {
	t.Parallel()

	reg := registry.New()
	reg.Register("vision", &fakeModel{out: "a"})

	eng, err := pipeline.New(reg)
	require.NoError(t, err)
	eng.SetLogger(testLogger{t})

	var events []event
	eng.OnProgress(func(stepIndex, totalSteps int, message string, status pipeline.Status) {
		panic("observer bug")
	})
	eng.OnProgress(recordEvents(&events))

	res, err := eng.Execute(context.Background(), []pipeline.Step{{Name: "detect", ModelID: "vision"}}, "img")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Len(t, events, 2)
}

func TestRunOptionHooks(t *testing.T) {
	t.Parallel()

	reg := registry.New()
	reg.Register("vision", &fakeModel{err: errors.New("quota exceeded")})
	reg.Register("backup", &fakeModel{out: "degraded"}, registry.FallbackFor("vision"))
	reg.Register("reasoning", &fakeModel{out: "scene"})

	opt := &recordingOption{}
	eng, err := pipeline.New(reg, opt)
	require.NoError(t, err)

	steps := []pipeline.Step{
		{Name: "detect", ModelID: "vision"},
		{Name: "describe", ModelID: "reasoning"},
	}

	res, err := eng.Execute(context.Background(), steps, "img")
	require.NoError(t, err)

	assert.Equal(t, []string{"detect", "describe"}, opt.prepared)
	assert.Equal(t, []string{"detect", "describe"}, opt.after)
	assert.Equal(t, []attempt{
		{"detect", "vision", 0, true},
		{"detect", "backup", 1, false},
		{"describe", "reasoning", 0, false},
	}, opt.attempts)

	require.Len(t, opt.finished, 1)
	assert.Equal(t, res.RunID, opt.finished[0].RunID)
	assert.True(t, opt.finished[0].Success)
}

func TestRunOptionHookErrorsDoNotAbort(t *testing.T) {
	t.Parallel()

	reg := registry.New()
	reg.Register("vision", &fakeModel{out: "a"})

	opt := &recordingOption{hookErr: errors.New("metric sink full")}
	eng, err := pipeline.New(reg, opt)
	require.NoError(t, err)
	eng.SetLogger(testLogger{t})

	res, err := eng.Execute(context.Background(), []pipeline.Step{{Name: "detect", ModelID: "vision"}}, "img")
	require.NoError(t, err)
	assert.True(t, res.Success)
	require.Len(t, opt.finished, 1)
}

type testLogger struct {
	t *testing.T
}

func (l testLogger) Printf(format string, args ...any) {
	l.t.Logf(format, args...)
}
