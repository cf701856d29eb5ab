// Package pipeline executes an ordered list of analysis steps against a
// model registry. Steps run strictly sequentially because each step's
// context may depend on the previous step's output. When a step's primary
// model fails, the engine retries with each registered fallback in chain
// order before giving up on the run.
//
// The engine is fail-fast at step granularity: a step whose primary and
// fallbacks are all exhausted aborts the remaining steps, but the caller
// still receives a fully populated Result holding the outputs already
// computed. Progress observers are notified synchronously on every step
// transition.
package pipeline
