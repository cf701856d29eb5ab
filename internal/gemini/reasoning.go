package gemini

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/askiada/go-analysis/internal/config"
	"github.com/askiada/go-analysis/pkg/analysis/model"
)

const reasoningPrompt = "Given the detections below, describe the scene, " +
	"the relationships between the objects, and anything unusual."

// Reasoning interprets the detections produced by an upstream vision
// step. It reads the conventional "detections" context key and tolerates
// it being absent.
type Reasoning struct {
	model.Lifecycle
	client *client
}

// NewReasoning creates the reasoning model from configuration.
func NewReasoning(cfg config.GeminiConfig, opts ...Option) *Reasoning {
	return &Reasoning{client: newClient(cfg, opts...)}
}

func (r *Reasoning) Initialize(ctx context.Context) error {
	if r.client.cfg.ResolveAPIKey() == "" {
		err := &model.ConfigurationError{
			Op:  "initialize",
			Err: errors.New("gemini api key is not set"),
		}
		r.MarkErrored("initialize", err)

		return err
	}
	r.MarkInitialized()

	return nil
}

func (r *Reasoning) Analyze(ctx context.Context, input any, runCtx model.Context) (any, error) {
	parts := []part{{Text: reasoningPrompt}}
	if detections, ok := upstreamDetections(runCtx); ok {
		parts = append(parts, part{Text: detections})
	}
	parts = append(parts, inputParts(input)...)

	text, err := r.client.generate(ctx, r.client.cfg.ReasoningModel, parts)
	if err != nil {
		r.MarkErrored("analyze", err)

		return nil, &model.AnalysisError{ModelID: r.client.cfg.ReasoningModel, Err: err}
	}

	return map[string]any{
		"requestId": uuid.NewString(),
		"model":     r.client.cfg.ReasoningModel,
		"analysis":  text,
	}, nil
}

func (r *Reasoning) HealthCheck(ctx context.Context) (bool, error) {
	if r.client.cfg.ResolveAPIKey() == "" {
		return false, &model.ConfigurationError{
			Op:  "healthCheck",
			Err: errors.New("gemini api key is not set"),
		}
	}

	return r.client.healthy(ctx), nil
}

func (r *Reasoning) Capabilities() model.Capabilities {
	return model.Capabilities{
		MediaType: model.MediaImage,
		Role:      model.RoleReasoning,
		Priority:  10,
		Features:  []string{"scene-description"},
	}
}

// upstreamDetections extracts the detection text from the run context,
// checking the conventional "detections" key before the vision step's
// own output.
func upstreamDetections(runCtx model.Context) (string, bool) {
	for _, key := range []string{"detections", "vision"} {
		payload, ok := runCtx[key]
		if !ok {
			continue
		}
		switch det := payload.(type) {
		case string:
			return det, true
		case map[string]any:
			if text, ok := det["detections"].(string); ok {
				return text, true
			}

			return fmt.Sprintf("%v", det), true
		}
	}

	return "", false
}

var _ model.Analyzer = (*Reasoning)(nil)
