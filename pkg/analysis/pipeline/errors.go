package pipeline

import "github.com/pkg/errors"

var (
	ErrSourceMustBeSet = errors.New("source must be set")
	ErrStepModelID     = errors.New("step model id must be set")
)
