package model

import (
	"sync"
	"time"
)

// State is the lifecycle state of a model.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateInitialized   State = "initialized"
	StateErrored       State = "errored"
)

// Diagnostic records the last error a model observed.
type Diagnostic struct {
	Message string
	Op      string
	Time    time.Time
}

// Lifecycle tracks a model's state and last error. Concrete models embed it
// instead of extending a shared base type; the zero value is usable and
// reports StateUninitialized.
type Lifecycle struct {
	mu      sync.Mutex
	state   State
	lastErr *Diagnostic
}

// State returns the current lifecycle state.
func (l *Lifecycle) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == "" {
		return StateUninitialized
	}

	return l.state
}

// LastError returns a copy of the last recorded diagnostic, or nil.
func (l *Lifecycle) LastError() *Diagnostic {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.lastErr == nil {
		return nil
	}
	diag := *l.lastErr

	return &diag
}

// MarkInitialized transitions the model to StateInitialized and clears
// any previous diagnostic.
func (l *Lifecycle) MarkInitialized() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state = StateInitialized
	l.lastErr = nil
}

// MarkErrored transitions the model to StateErrored and records the
// diagnostic for the failing operation.
func (l *Lifecycle) MarkErrored(op string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state = StateErrored
	l.lastErr = &Diagnostic{
		Message: err.Error(),
		Op:      op,
		Time:    time.Now(),
	}
}
