package pipeline

import "sync"

// Status is the phase reported by a progress event.
type Status string

const (
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// ProgressFunc receives one progress event. stepIndex is 1-based while the
// run advances, equal to totalSteps on completion, and 0 when the run
// failed.
type ProgressFunc func(stepIndex, totalSteps int, message string, status Status)

type observer struct {
	id int
	fn ProgressFunc
}

type observerList struct {
	mu     sync.Mutex
	nextID int
	list   []*observer
}

// add registers fn and returns a function that removes exactly that
// registration. Registration order is preserved for delivery.
func (ol *observerList) add(fn ProgressFunc) func() {
	ol.mu.Lock()
	defer ol.mu.Unlock()

	ol.nextID++
	obs := &observer{id: ol.nextID, fn: fn}
	ol.list = append(ol.list, obs)

	return func() {
		ol.remove(obs.id)
	}
}

func (ol *observerList) remove(id int) {
	ol.mu.Lock()
	defer ol.mu.Unlock()

	for i, obs := range ol.list {
		if obs.id == id {
			ol.list = append(ol.list[:i], ol.list[i+1:]...)

			return
		}
	}
}

// notify invokes every observer in registration order. A panicking
// observer must not prevent the remaining observers from running nor
// abort the pipeline, so each invocation is isolated.
func (ol *observerList) notify(log Logger, stepIndex, totalSteps int, message string, status Status) {
	ol.mu.Lock()
	snapshot := make([]*observer, len(ol.list))
	copy(snapshot, ol.list)
	ol.mu.Unlock()

	for _, obs := range snapshot {
		func() {
			defer func() {
				if rec := recover(); rec != nil {
					log.Printf("progress observer panicked: %v", rec)
				}
			}()
			obs.fn(stepIndex, totalSteps, message, status)
		}()
	}
}
