package pipeline

import (
	"log"
	"os"
)

// Logger receives the engine's diagnostic output, such as swallowed
// fallback failures. The stdlib *log.Logger satisfies it.
type Logger interface {
	Printf(format string, args ...any)
}

func defaultLogger() Logger {
	return log.New(os.Stderr, "pipeline: ", log.LstdFlags)
}
