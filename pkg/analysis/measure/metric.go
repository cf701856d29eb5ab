package measure

import (
	"sync"
	"time"
)

// AttemptInfo accumulates the attempts made against one model id.
type AttemptInfo struct {
	Elapsed  time.Duration
	Total    int64
	Failures int64
}

type DefaultMetric struct {
	mu          *sync.Mutex
	allAttempts map[string]*AttemptInfo
	stepElapsed time.Duration
	total       int64
	failures    int64
}

func (mt *DefaultMetric) AddDuration(elapsed time.Duration) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	mt.total++
	mt.stepElapsed += elapsed
}

func (mt *DefaultMetric) AddAttempt(modelID string, elapsed time.Duration, failed bool) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	if mt.allAttempts[modelID] == nil {
		mt.allAttempts[modelID] = &AttemptInfo{}
	}
	att := mt.allAttempts[modelID]
	att.Elapsed += elapsed
	att.Total++
	if failed {
		att.Failures++
		mt.failures++
	}
}

func (mt *DefaultMetric) AVGDuration() time.Duration {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	if mt.total == 0 {
		return time.Duration(0)
	}

	return round(time.Duration(float64(mt.stepElapsed) / float64(mt.total)))
}

// AVGAttemptDuration returns per-model attempt info with the elapsed time
// averaged over the number of attempts.
func (mt *DefaultMetric) AVGAttemptDuration() map[string]*AttemptInfo {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	avgs := make(map[string]*AttemptInfo, len(mt.allAttempts))
	for modelID, att := range mt.allAttempts {
		avg := *att
		if att.Total > 0 {
			avg.Elapsed = round(time.Duration(float64(att.Elapsed) / float64(att.Total)))
		}
		avgs[modelID] = &avg
	}

	return avgs
}

func (mt *DefaultMetric) AllAttempts() map[string]*AttemptInfo {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	return mt.allAttempts
}

func (mt *DefaultMetric) Failures() int64 {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	return mt.failures
}

func round(d time.Duration) time.Duration {
	switch {
	case d > time.Second:
		d = d.Round(time.Second)
	case d > time.Millisecond:
		d = d.Round(time.Millisecond)
	case d > time.Microsecond:
		d = d.Round(time.Microsecond)
	}

	return d
}
