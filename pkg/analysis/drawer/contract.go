package drawer

import (
	"github.com/askiada/go-analysis/pkg/analysis/measure"
)

// Drawer is an interface that defines the methods for drawing a pipeline
// run.
type Drawer interface {
	// AddStep adds a step vertex to the run graph.
	AddStep(stepName string) error
	// AddAttempt adds a model attempt vertex linked to its step. Failed
	// attempts are marked.
	AddAttempt(stepName, modelID string, failed bool) error
	// AddLink adds a link between two step vertices.
	AddLink(parentName, childName string) error
	// Draw creates a file with the run graph.
	Draw() error
	// AddMeasure decorates the graph with collected metrics.
	AddMeasure(measure measure.Measure) error
}
