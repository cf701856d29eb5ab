// Package measure collects timing metrics for pipeline runs: per-step
// durations and per-model attempt durations, including failed fallback
// attempts. Attach it to an engine with RunMeasure.
package measure

import (
	"sync"
	"time"
)

type DefaultMeasure struct {
	mu          sync.Mutex
	steps       map[string]Metric
	runDuration time.Duration
}

func NewDefaultMeasure() *DefaultMeasure {
	return &DefaultMeasure{
		steps: make(map[string]Metric),
	}
}

func (m *DefaultMeasure) AddMetric(name string) Metric {
	m.mu.Lock()
	defer m.mu.Unlock()

	mt := &DefaultMetric{
		mu:          &sync.Mutex{},
		allAttempts: make(map[string]*AttemptInfo),
	}
	m.steps[name] = mt

	return mt
}

func (m *DefaultMeasure) GetMetric(name string) Metric {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.steps[name]
}

func (m *DefaultMeasure) AllMetrics() map[string]Metric {
	m.mu.Lock()
	defer m.mu.Unlock()

	metrics := make(map[string]Metric, len(m.steps))
	for name, mt := range m.steps {
		metrics[name] = mt
	}

	return metrics
}

func (m *DefaultMeasure) SetRunDuration(elapsed time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runDuration = elapsed
}

func (m *DefaultMeasure) RunDuration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.runDuration
}

var _ Measure = (*DefaultMeasure)(nil)
