package gemini

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/askiada/go-analysis/internal/config"
	"github.com/askiada/go-analysis/pkg/analysis/model"
)

const visionPrompt = "Detect every object in this image. " +
	"Reply with one line per object: label, confidence, bounding box."

// Vision is the primary detection model. It sends the image to the Gemini
// vision endpoint and returns the raw detection text for the reasoning
// stage to consume.
type Vision struct {
	model.Lifecycle
	client *client
}

// NewVision creates the vision model from configuration.
func NewVision(cfg config.GeminiConfig, opts ...Option) *Vision {
	return &Vision{client: newClient(cfg, opts...)}
}

// Initialize validates that an API key is available. Safe to call more
// than once; each call repeats the validation.
func (v *Vision) Initialize(ctx context.Context) error {
	if v.client.cfg.ResolveAPIKey() == "" {
		err := &model.ConfigurationError{
			Op:  "initialize",
			Err: errors.New("gemini api key is not set"),
		}
		v.MarkErrored("initialize", err)

		return err
	}
	v.MarkInitialized()

	return nil
}

// Analyze runs object detection on the input artifact.
func (v *Vision) Analyze(ctx context.Context, input any, runCtx model.Context) (any, error) {
	parts := append(inputParts(input), part{Text: visionPrompt})

	text, err := v.client.generate(ctx, v.client.cfg.VisionModel, parts)
	if err != nil {
		v.MarkErrored("analyze", err)

		return nil, &model.AnalysisError{ModelID: v.client.cfg.VisionModel, Err: err}
	}

	return map[string]any{
		"requestId":  uuid.NewString(),
		"model":      v.client.cfg.VisionModel,
		"detections": text,
	}, nil
}

// HealthCheck reports whether the API is reachable. A missing key is a
// configuration error; plain unavailability is (false, nil).
func (v *Vision) HealthCheck(ctx context.Context) (bool, error) {
	if v.client.cfg.ResolveAPIKey() == "" {
		return false, &model.ConfigurationError{
			Op:  "healthCheck",
			Err: errors.New("gemini api key is not set"),
		}
	}

	return v.client.healthy(ctx), nil
}

func (v *Vision) Capabilities() model.Capabilities {
	return model.Capabilities{
		MediaType: model.MediaImage,
		Role:      model.RoleDetection,
		Priority:  10,
		Features:  []string{"object-detection", "bounding-boxes"},
	}
}

var _ model.Analyzer = (*Vision)(nil)
