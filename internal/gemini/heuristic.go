package gemini

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/askiada/go-analysis/pkg/analysis/model"
)

// Heuristic is a lightweight, offline detection model registered as the
// vision fallback. It produces a coarse payload from the artifact alone
// so the pipeline can degrade gracefully when the API is unreachable.
type Heuristic struct {
	model.Lifecycle
}

// NewHeuristic creates the offline detector.
func NewHeuristic() *Heuristic {
	return &Heuristic{}
}

// Initialize has no prerequisites.
func (h *Heuristic) Initialize(ctx context.Context) error {
	h.MarkInitialized()

	return nil
}

// Analyze produces a coarse, best-effort detection payload.
func (h *Heuristic) Analyze(ctx context.Context, input any, runCtx model.Context) (any, error) {
	detections := "unidentified content"
	switch in := input.(type) {
	case []byte:
		detections = fmt.Sprintf("image payload, %d bytes, no object labels available offline", len(in))
	case string:
		detections = fmt.Sprintf("text payload, %d characters", len(in))
	}

	return map[string]any{
		"requestId":  uuid.NewString(),
		"model":      "heuristic",
		"detections": detections,
		"degraded":   true,
	}, nil
}

// HealthCheck always succeeds; the heuristic needs no remote service.
func (h *Heuristic) HealthCheck(ctx context.Context) (bool, error) {
	return true, nil
}

func (h *Heuristic) Capabilities() model.Capabilities {
	return model.Capabilities{
		MediaType: model.MediaImage,
		Role:      model.RoleDetection,
		Priority:  1,
		Features:  []string{"offline", "degraded-detection"},
	}
}

var _ model.Analyzer = (*Heuristic)(nil)
